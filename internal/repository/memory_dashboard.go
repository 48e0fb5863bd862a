package repository

import (
	"context"
	"sort"
	"time"

	"project_amharicAI/internal/entities"
)

type memDashboard struct{ s *MemoryStore }

func dateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

func sortedLanguageCounts(counts map[string]int) []entities.LanguageCount {
	out := make([]entities.LanguageCount, 0, len(counts))
	for lang, n := range counts {
		out = append(out, entities.LanguageCount{Language: lang, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Language < out[j].Language
	})
	return out
}

func sortedDailyCounts(counts map[string]int) []entities.DailyCount {
	out := make([]entities.DailyCount, 0, len(counts))
	for day, n := range counts {
		out = append(out, entities.DailyCount{Date: day, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

func languageKey(l entities.Language) string {
	if l == "" {
		return "unknown"
	}
	return string(l)
}

// companyExecutionsLocked returns the company's executions with their workflow.
func (m memDashboard) companyExecutionsLocked(companyID string) []struct {
	exec     entities.WorkflowExecution
	workflow *entities.Workflow
} {
	var out []struct {
		exec     entities.WorkflowExecution
		workflow *entities.Workflow
	}
	for _, e := range m.s.executions {
		w, ok := m.s.workflows[e.WorkflowID]
		if !ok || w.CompanyID != companyID {
			continue
		}
		out = append(out, struct {
			exec     entities.WorkflowExecution
			workflow *entities.Workflow
		}{*e, w})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].exec.StartedAt.Before(out[j].exec.StartedAt) })
	return out
}

func (m memDashboard) Stats(_ context.Context, companyID string, since time.Time) (*entities.DashboardStats, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	var (
		stats        entities.DashboardStats
		storageBytes int64
		langs        = map[string]int{}
	)
	for _, d := range m.s.documents {
		if d.CompanyID != companyID {
			continue
		}
		stats.Overview.TotalDocuments++
		storageBytes += d.FileSize
		langs[languageKey(d.Language)]++
		if !d.CreatedAt.Before(since) {
			stats.RecentActivity.DocumentsUploaded++
		}
	}
	for _, c := range m.s.conversations {
		if c.CompanyID != companyID {
			continue
		}
		stats.Overview.TotalConversations++
		if !c.CreatedAt.Before(since) {
			stats.RecentActivity.ConversationsStarted++
		}
	}
	for _, w := range m.s.workflows {
		if w.CompanyID != companyID {
			continue
		}
		stats.Overview.TotalWorkflows++
		if w.IsActive {
			stats.Overview.ActiveWorkflows++
		}
	}
	stats.Overview.StorageUsedMB = bytesToMB(storageBytes)
	stats.LanguageDistribution = sortedLanguageCounts(langs)

	statuses := map[string]int{}
	for _, row := range m.companyExecutionsLocked(companyID) {
		if row.exec.StartedAt.Before(since) {
			continue
		}
		statuses[string(row.exec.Status)]++
		stats.RecentActivity.WorkflowExecutions++
	}
	stats.WorkflowExecutions = make([]entities.StatusTotal, 0, len(statuses))
	for status, n := range statuses {
		stats.WorkflowExecutions = append(stats.WorkflowExecutions, entities.StatusTotal{Status: status, Count: n})
	}
	sort.Slice(stats.WorkflowExecutions, func(i, j int) bool {
		return stats.WorkflowExecutions[i].Status < stats.WorkflowExecutions[j].Status
	})
	return &stats, nil
}

func newestFirst(items []entities.Activity, limit int) []entities.Activity {
	sort.Slice(items, func(i, j int) bool { return items[i].Timestamp.After(items[j].Timestamp) })
	if len(items) > limit {
		items = items[:limit]
	}
	return items
}

func (m memDashboard) Activities(_ context.Context, companyID string, perSource int) ([]entities.Activity, error) {
	activities := []entities.Activity{}
	if perSource <= 0 {
		return activities, nil
	}
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	var docs []entities.Activity
	for _, d := range m.s.documents {
		if d.CompanyID != companyID {
			continue
		}
		docs = append(docs, entities.Activity{
			ID:        d.ID,
			Type:      entities.ActivityDocument,
			Title:     "Document uploaded: " + d.OriginalName,
			Language:  d.Language,
			Timestamp: d.CreatedAt,
			Metadata:  map[string]any{"originalName": d.OriginalName},
		})
	}
	activities = append(activities, newestFirst(docs, perSource)...)

	counts := map[string]int{}
	for _, msg := range m.s.messages {
		counts[msg.ConversationID]++
	}
	var convs []entities.Conversation
	for _, c := range m.s.conversations {
		if c.CompanyID == companyID {
			convs = append(convs, *c)
		}
	}
	sort.Slice(convs, func(i, j int) bool { return convs[i].UpdatedAt.After(convs[j].UpdatedAt) })
	if len(convs) > perSource {
		convs = convs[:perSource]
	}
	for _, c := range convs {
		title := c.Title
		if title == "" {
			title = "New Conversation"
		}
		activities = append(activities, entities.Activity{
			ID:        c.ID,
			Type:      entities.ActivityConversation,
			Title:     title,
			Language:  c.Language,
			Timestamp: c.CreatedAt,
			Metadata:  map[string]any{"messageCount": counts[c.ID]},
		})
	}

	var execs []entities.Activity
	for _, row := range m.companyExecutionsLocked(companyID) {
		execs = append(execs, entities.Activity{
			ID:        row.exec.ID,
			Type:      entities.ActivityWorkflow,
			Title:     "Workflow executed: " + row.workflow.Name,
			Status:    string(row.exec.Status),
			Timestamp: row.exec.StartedAt,
			Metadata: map[string]any{
				"workflowName": row.workflow.Name,
				"status":       string(row.exec.Status),
				"completedAt":  row.exec.CompletedAt,
			},
		})
	}
	return append(activities, newestFirst(execs, perSource)...), nil
}

func (m memDashboard) Analytics(_ context.Context, companyID string, since time.Time) (*entities.Analytics, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	docs, convs, langs := map[string]int{}, map[string]int{}, map[string]int{}
	for _, d := range m.s.documents {
		if d.CompanyID != companyID || d.CreatedAt.Before(since) {
			continue
		}
		docs[dateKey(d.CreatedAt)]++
		langs[languageKey(d.Language)]++
	}
	for _, c := range m.s.conversations {
		if c.CompanyID != companyID || c.CreatedAt.Before(since) {
			continue
		}
		convs[dateKey(c.CreatedAt)]++
	}

	type trendKey struct{ date, status string }
	trends := map[trendKey]int{}
	for _, row := range m.companyExecutionsLocked(companyID) {
		if row.exec.StartedAt.Before(since) {
			continue
		}
		trends[trendKey{dateKey(row.exec.StartedAt), string(row.exec.Status)}]++
	}
	workflowTrends := make([]entities.StatusCount, 0, len(trends))
	for k, n := range trends {
		workflowTrends = append(workflowTrends, entities.StatusCount{Date: k.date, Status: k.status, Count: n})
	}
	sort.Slice(workflowTrends, func(i, j int) bool {
		if workflowTrends[i].Date != workflowTrends[j].Date {
			return workflowTrends[i].Date < workflowTrends[j].Date
		}
		return workflowTrends[i].Status < workflowTrends[j].Status
	})

	return &entities.Analytics{
		DailyDocuments:     sortedDailyCounts(docs),
		DailyConversations: sortedDailyCounts(convs),
		WorkflowTrends:     workflowTrends,
		LanguageUsage:      sortedLanguageCounts(langs),
	}, nil
}

func (m memDashboard) ExportDocuments(_ context.Context, companyID string) ([]entities.ExportedDocument, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	out := []entities.ExportedDocument{}
	for _, d := range m.s.documents {
		if d.CompanyID != companyID {
			continue
		}
		out = append(out, entities.ExportedDocument{
			OriginalName: d.OriginalName,
			FileType:     d.MimeType,
			FileSize:     d.FileSize,
			Language:     d.Language,
			CreatedAt:    d.CreatedAt,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m memDashboard) ExportConversations(_ context.Context, companyID string) ([]entities.ExportedConversation, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	out := []entities.ExportedConversation{}
	index := map[string]int{}
	for _, c := range m.s.conversations {
		if c.CompanyID == companyID {
			out = append(out, entities.ExportedConversation{Conversation: *c, Messages: []entities.Message{}})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	for i, c := range out {
		index[c.ID] = i
	}
	for _, msg := range m.s.messages {
		if i, ok := index[msg.ConversationID]; ok {
			out[i].Messages = append(out[i].Messages, msg)
		}
	}
	return out, nil
}

func (m memDashboard) ExportWorkflows(_ context.Context, companyID string) ([]entities.ExportedWorkflow, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	out := []entities.ExportedWorkflow{}
	index := map[string]int{}
	for _, w := range m.s.workflows {
		if w.CompanyID == companyID {
			out = append(out, entities.ExportedWorkflow{Workflow: *w, Executions: []entities.ExecutionSummary{}})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	for i, w := range out {
		index[w.ID] = i
	}
	for _, row := range m.companyExecutionsLocked(companyID) {
		i := index[row.exec.WorkflowID]
		out[i].Executions = append(out[i].Executions, entities.ExecutionSummary{
			Status:      row.exec.Status,
			StartedAt:   row.exec.StartedAt,
			CompletedAt: row.exec.CompletedAt,
		})
		out[i].ExecutionCount++
	}
	return out, nil
}
