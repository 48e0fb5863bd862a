package http

import (
	"encoding/csv"
	"net/http"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"project_amharicAI/internal/entities"
)

// seedDashboard gives a company two English documents, one Amharic document,
// one conversation and one completed execution.
func (s *testServer) seedDashboard(t *testing.T) registered {
	t.Helper()
	acme := s.register(t, "Acme", "ops@acme.test")
	s.upload(t, acme.Token, "a.txt", "refund policy")
	s.upload(t, acme.Token, "b.txt", "shipping policy")
	s.upload(t, acme.Token, "c.txt", "ሰላም ለዓለም")

	w := s.do(t, request{method: http.MethodPost, path: "/api/ai/conversations", token: acme.Token, body: gin.H{"title": "Support"}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	flow := s.createWorkflow(t, acme.Token, gin.H{"name": "Extract", "config": gin.H{"type": "data-extraction"}})
	w = s.do(t, request{method: http.MethodPost, path: "/api/workflows/" + flow.ID + "/execute", token: acme.Token})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return acme
}

func TestDashboardStats(t *testing.T) {
	s := newTestServer(t)
	acme := s.seedDashboard(t)
	s.register(t, "Beta", "ops@beta.test")

	w := s.do(t, request{method: http.MethodGet, path: "/api/dashboard/stats", token: acme.Token})
	require.Equal(t, http.StatusOK, w.Code)
	var out struct {
		Stats entities.DashboardStats `json:"stats"`
	}
	decode(t, w, &out)

	assert.Equal(t, 3, out.Stats.Overview.TotalDocuments)
	assert.Equal(t, 1, out.Stats.Overview.TotalConversations)
	assert.Equal(t, 1, out.Stats.Overview.TotalWorkflows)
	assert.Equal(t, 1, out.Stats.Overview.ActiveWorkflows)
	assert.Equal(t, 3, out.Stats.RecentActivity.DocumentsUploaded)
	assert.Equal(t, 1, out.Stats.RecentActivity.WorkflowExecutions)
	assert.Equal(t, []entities.LanguageCount{{Language: "en", Count: 2}, {Language: "am", Count: 1}}, out.Stats.LanguageDistribution)
	assert.Equal(t, []entities.StatusTotal{{Status: "completed", Count: 1}}, out.Stats.WorkflowExecutions)
}

func TestDashboardActivitiesAndAnalytics(t *testing.T) {
	s := newTestServer(t)
	acme := s.seedDashboard(t)

	w := s.do(t, request{method: http.MethodGet, path: "/api/dashboard/activities?limit=3", token: acme.Token})
	require.Equal(t, http.StatusOK, w.Code)
	var activities struct {
		Activities []entities.Activity `json:"activities"`
	}
	decode(t, w, &activities)
	require.Len(t, activities.Activities, 3)
	types := map[entities.ActivityType]int{}
	for i, a := range activities.Activities {
		types[a.Type]++
		if i > 0 {
			assert.False(t, a.Timestamp.After(activities.Activities[i-1].Timestamp), "activities are newest first")
		}
	}
	assert.Equal(t, map[entities.ActivityType]int{
		entities.ActivityDocument:     1,
		entities.ActivityConversation: 1,
		entities.ActivityWorkflow:     1,
	}, types)

	w = s.do(t, request{method: http.MethodGet, path: "/api/dashboard/analytics?period=1000", token: acme.Token})
	require.Equal(t, http.StatusOK, w.Code)
	var analytics struct {
		Analytics entities.Analytics `json:"analytics"`
	}
	decode(t, w, &analytics)
	assert.Equal(t, 365, analytics.Analytics.Period)
	require.Len(t, analytics.Analytics.DailyDocuments, 1)
	assert.Equal(t, 3, analytics.Analytics.DailyDocuments[0].Count)
	require.Len(t, analytics.Analytics.WorkflowTrends, 1)
	assert.Equal(t, "completed", analytics.Analytics.WorkflowTrends[0].Status)

	w = s.do(t, request{method: http.MethodGet, path: "/api/dashboard/analytics", token: acme.Token})
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &analytics)
	assert.Equal(t, 30, analytics.Analytics.Period)
}

func TestDashboardExport(t *testing.T) {
	s := newTestServer(t)
	acme := s.seedDashboard(t)

	tests := []struct {
		query     string
		wantType  string
		wantCount int
	}{
		{"", "documents", 3},
		{"?type=conversations", "conversations", 1},
		{"?type=workflows", "workflows", 1},
	}
	for _, tt := range tests {
		t.Run(tt.wantType, func(t *testing.T) {
			w := s.do(t, request{method: http.MethodGet, path: "/api/dashboard/export" + tt.query, token: acme.Token})
			require.Equal(t, http.StatusOK, w.Code)
			var out struct {
				Type  string `json:"type"`
				Count int    `json:"count"`
			}
			decode(t, w, &out)
			assert.Equal(t, tt.wantType, out.Type)
			assert.Equal(t, tt.wantCount, out.Count)
		})
	}

	w := s.do(t, request{method: http.MethodGet, path: "/api/dashboard/export?type=invoices", token: acme.Token})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid export type", errorOf(t, w))
}

func TestDashboardExportCSV(t *testing.T) {
	s := newTestServer(t)
	acme := s.seedDashboard(t)

	w := s.do(t, request{method: http.MethodGet, path: "/api/dashboard/export?type=documents&format=csv", token: acme.Token})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="documents_export.csv"`, w.Header().Get("Content-Disposition"))

	records, err := csv.NewReader(strings.NewReader(w.Body.String())).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Equal(t, []string{"Name", "Type", "Size", "Language", "Created"}, records[0])
	names := map[string]string{}
	for _, r := range records[1:] {
		names[r[0]] = r[3]
	}
	assert.Equal(t, map[string]string{"a.txt": "en", "b.txt": "en", "c.txt": "am"}, names)
}
