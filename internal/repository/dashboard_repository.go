package repository

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"project_amharicAI/internal/entities"
	"project_amharicAI/internal/interfaces"
)

// DashboardRepository runs the read-only aggregate queries behind the dashboard.
type DashboardRepository struct {
	db *pgxpool.Pool
}

var _ interfaces.DashboardStore = (*DashboardRepository)(nil)

func NewDashboardRepository(db *pgxpool.Pool) *DashboardRepository {
	return &DashboardRepository{db: db}
}

func bytesToMB(n int64) float64 {
	return math.Round(float64(n)/(1024*1024)*100) / 100
}

func (r *DashboardRepository) Stats(ctx context.Context, companyID string, since time.Time) (*entities.DashboardStats, error) {
	var (
		stats        entities.DashboardStats
		storageBytes int64
	)
	err := r.db.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM documents WHERE company_id = $1),
			(SELECT COUNT(*) FROM conversations WHERE company_id = $1),
			(SELECT COUNT(*) FROM workflows WHERE company_id = $1),
			(SELECT COUNT(*) FROM workflows WHERE company_id = $1 AND is_active),
			(SELECT COALESCE(SUM(file_size), 0)::BIGINT FROM documents WHERE company_id = $1),
			(SELECT COUNT(*) FROM documents WHERE company_id = $1 AND created_at >= $2),
			(SELECT COUNT(*) FROM conversations WHERE company_id = $1 AND created_at >= $2)`,
		companyID, since,
	).Scan(&stats.Overview.TotalDocuments, &stats.Overview.TotalConversations, &stats.Overview.TotalWorkflows,
		&stats.Overview.ActiveWorkflows, &storageBytes,
		&stats.RecentActivity.DocumentsUploaded, &stats.RecentActivity.ConversationsStarted)
	if err != nil {
		return nil, fmt.Errorf("failed to query dashboard counts: %w", err)
	}
	stats.Overview.StorageUsedMB = bytesToMB(storageBytes)

	stats.LanguageDistribution, err = r.languageCounts(ctx, `
		SELECT COALESCE(NULLIF(language, ''), 'unknown'), COUNT(*)
		FROM documents WHERE company_id = $1
		GROUP BY 1 ORDER BY 2 DESC, 1`, companyID)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, `
		SELECT e.status, COUNT(*)
		FROM workflow_executions e
		JOIN workflows w ON w.id = e.workflow_id
		WHERE w.company_id = $1 AND e.started_at >= $2
		GROUP BY e.status ORDER BY e.status`, companyID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query execution stats: %w", err)
	}
	stats.WorkflowExecutions, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (entities.StatusTotal, error) {
		var s entities.StatusTotal
		err := row.Scan(&s.Status, &s.Count)
		return s, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan execution stats: %w", err)
	}
	for _, s := range stats.WorkflowExecutions {
		stats.RecentActivity.WorkflowExecutions += s.Count
	}
	return &stats, nil
}

func (r *DashboardRepository) languageCounts(ctx context.Context, query string, args ...any) ([]entities.LanguageCount, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query language counts: %w", err)
	}
	counts, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (entities.LanguageCount, error) {
		var l entities.LanguageCount
		err := row.Scan(&l.Language, &l.Count)
		return l, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan language counts: %w", err)
	}
	return counts, nil
}

// Activities returns up to perSource recent items of each kind, unsorted.
func (r *DashboardRepository) Activities(ctx context.Context, companyID string, perSource int) ([]entities.Activity, error) {
	activities := []entities.Activity{}
	if perSource <= 0 {
		return activities, nil
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, original_name, language, created_at
		FROM documents WHERE company_id = $1
		ORDER BY created_at DESC LIMIT $2`, companyID, perSource)
	if err != nil {
		return nil, fmt.Errorf("failed to query document activity: %w", err)
	}
	docs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (entities.Activity, error) {
		var (
			a    entities.Activity
			name string
		)
		err := row.Scan(&a.ID, &name, &a.Language, &a.Timestamp)
		a.Type = entities.ActivityDocument
		a.Title = "Document uploaded: " + name
		a.Metadata = map[string]any{"originalName": name}
		return a, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan document activity: %w", err)
	}
	activities = append(activities, docs...)

	rows, err = r.db.Query(ctx, `
		SELECT c.id, c.title, c.language, c.created_at,
			(SELECT COUNT(*) FROM messages m WHERE m.conversation_id = c.id)
		FROM conversations c WHERE c.company_id = $1
		ORDER BY c.updated_at DESC LIMIT $2`, companyID, perSource)
	if err != nil {
		return nil, fmt.Errorf("failed to query conversation activity: %w", err)
	}
	convs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (entities.Activity, error) {
		var (
			a     entities.Activity
			count int
		)
		err := row.Scan(&a.ID, &a.Title, &a.Language, &a.Timestamp, &count)
		a.Type = entities.ActivityConversation
		if a.Title == "" {
			a.Title = "New Conversation"
		}
		a.Metadata = map[string]any{"messageCount": count}
		return a, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan conversation activity: %w", err)
	}
	activities = append(activities, convs...)

	rows, err = r.db.Query(ctx, `
		SELECT e.id, w.name, e.status, e.started_at, e.completed_at
		FROM workflow_executions e
		JOIN workflows w ON w.id = e.workflow_id
		WHERE w.company_id = $1
		ORDER BY e.started_at DESC LIMIT $2`, companyID, perSource)
	if err != nil {
		return nil, fmt.Errorf("failed to query workflow activity: %w", err)
	}
	execs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (entities.Activity, error) {
		var (
			a           entities.Activity
			name        string
			completedAt *time.Time
		)
		err := row.Scan(&a.ID, &name, &a.Status, &a.Timestamp, &completedAt)
		a.Type = entities.ActivityWorkflow
		a.Title = "Workflow executed: " + name
		a.Metadata = map[string]any{"workflowName": name, "status": a.Status, "completedAt": completedAt}
		return a, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan workflow activity: %w", err)
	}
	return append(activities, execs...), nil
}

func (r *DashboardRepository) Analytics(ctx context.Context, companyID string, since time.Time) (*entities.Analytics, error) {
	var (
		a   entities.Analytics
		err error
	)
	a.DailyDocuments, err = r.dailyCounts(ctx, `
		SELECT to_char(DATE(created_at), 'YYYY-MM-DD'), COUNT(*)
		FROM documents WHERE company_id = $1 AND created_at >= $2
		GROUP BY 1 ORDER BY 1`, companyID, since)
	if err != nil {
		return nil, err
	}
	a.DailyConversations, err = r.dailyCounts(ctx, `
		SELECT to_char(DATE(created_at), 'YYYY-MM-DD'), COUNT(*)
		FROM conversations WHERE company_id = $1 AND created_at >= $2
		GROUP BY 1 ORDER BY 1`, companyID, since)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, `
		SELECT to_char(DATE(e.started_at), 'YYYY-MM-DD'), e.status, COUNT(*)
		FROM workflow_executions e
		JOIN workflows w ON w.id = e.workflow_id
		WHERE w.company_id = $1 AND e.started_at >= $2
		GROUP BY 1, 2 ORDER BY 1, 2`, companyID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query workflow trends: %w", err)
	}
	a.WorkflowTrends, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (entities.StatusCount, error) {
		var s entities.StatusCount
		err := row.Scan(&s.Date, &s.Status, &s.Count)
		return s, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan workflow trends: %w", err)
	}

	a.LanguageUsage, err = r.languageCounts(ctx, `
		SELECT COALESCE(NULLIF(language, ''), 'unknown'), COUNT(*)
		FROM documents WHERE company_id = $1 AND created_at >= $2
		GROUP BY 1 ORDER BY 2 DESC, 1`, companyID, since)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *DashboardRepository) dailyCounts(ctx context.Context, query string, args ...any) ([]entities.DailyCount, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily counts: %w", err)
	}
	counts, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (entities.DailyCount, error) {
		var d entities.DailyCount
		err := row.Scan(&d.Date, &d.Count)
		return d, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan daily counts: %w", err)
	}
	return counts, nil
}

func (r *DashboardRepository) ExportDocuments(ctx context.Context, companyID string) ([]entities.ExportedDocument, error) {
	rows, err := r.db.Query(ctx, `
		SELECT original_name, file_type, file_size, language, created_at
		FROM documents WHERE company_id = $1
		ORDER BY created_at`, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to export documents: %w", err)
	}
	docs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (entities.ExportedDocument, error) {
		var d entities.ExportedDocument
		err := row.Scan(&d.OriginalName, &d.FileType, &d.FileSize, &d.Language, &d.CreatedAt)
		return d, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan exported documents: %w", err)
	}
	return docs, nil
}

func (r *DashboardRepository) ExportConversations(ctx context.Context, companyID string) ([]entities.ExportedConversation, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+conversationColumns+`
		FROM conversations WHERE company_id = $1
		ORDER BY created_at`, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to export conversations: %w", err)
	}
	convs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (entities.ExportedConversation, error) {
		c, err := scanConversation(row)
		if err != nil {
			return entities.ExportedConversation{}, err
		}
		return entities.ExportedConversation{Conversation: *c, Messages: []entities.Message{}}, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan exported conversations: %w", err)
	}

	index := make(map[string]int, len(convs))
	for i, c := range convs {
		index[c.ID] = i
	}

	rows, err = r.db.Query(ctx, `
		SELECT m.id, m.conversation_id, m.role, m.content, m.language, m.created_at
		FROM messages m
		JOIN conversations c ON c.id = m.conversation_id
		WHERE c.company_id = $1
		ORDER BY m.created_at`, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to export messages: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var m entities.Message
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.Role, &m.Content, &m.Language, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan exported message: %w", err)
		}
		if i, ok := index[m.ConversationID]; ok {
			convs[i].Messages = append(convs[i].Messages, m)
		}
	}
	return convs, rows.Err()
}

func (r *DashboardRepository) ExportWorkflows(ctx context.Context, companyID string) ([]entities.ExportedWorkflow, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+workflowColumns+`
		FROM workflows w WHERE w.company_id = $1
		ORDER BY w.created_at`, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to export workflows: %w", err)
	}
	flows, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (entities.ExportedWorkflow, error) {
		w, err := scanWorkflow(row)
		if err != nil {
			return entities.ExportedWorkflow{}, err
		}
		return entities.ExportedWorkflow{Workflow: *w, Executions: []entities.ExecutionSummary{}}, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan exported workflows: %w", err)
	}

	index := make(map[string]int, len(flows))
	for i, w := range flows {
		index[w.ID] = i
	}

	rows, err = r.db.Query(ctx, `
		SELECT e.workflow_id, e.status, e.started_at, e.completed_at
		FROM workflow_executions e
		JOIN workflows w ON w.id = e.workflow_id
		WHERE w.company_id = $1
		ORDER BY e.started_at`, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to export executions: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			workflowID string
			s          entities.ExecutionSummary
		)
		if err := rows.Scan(&workflowID, &s.Status, &s.StartedAt, &s.CompletedAt); err != nil {
			return nil, fmt.Errorf("failed to scan exported execution: %w", err)
		}
		if i, ok := index[workflowID]; ok {
			flows[i].Executions = append(flows[i].Executions, s)
		}
	}
	return flows, rows.Err()
}
