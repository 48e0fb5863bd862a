package usecases

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"project_amharicAI/internal/apperrors"
	"project_amharicAI/internal/entities"
	"project_amharicAI/internal/interfaces"
)

const (
	statsWindow          = 30 * 24 * time.Hour
	defaultActivityLimit = 20
	defaultPeriodDays    = 30
)

type ExportType string

const (
	ExportDocuments     ExportType = "documents"
	ExportConversations ExportType = "conversations"
	ExportWorkflows     ExportType = "workflows"
)

type DashboardUsecase struct {
	dashboard interfaces.DashboardStore
	now       func() time.Time
}

func NewDashboardUsecase(dashboard interfaces.DashboardStore) *DashboardUsecase {
	return &DashboardUsecase{
		dashboard: dashboard,
		now:       time.Now,
	}
}

func (u *DashboardUsecase) Stats(ctx context.Context, companyID string) (*entities.DashboardStats, error) {
	return u.dashboard.Stats(ctx, companyID, u.now().Add(-statsWindow))
}

// Activities merges the newest documents, conversations and executions (limit/3 of each)
// into one timeline, newest first.
func (u *DashboardUsecase) Activities(ctx context.Context, companyID string, limit int) ([]entities.Activity, error) {
	if limit <= 0 {
		limit = defaultActivityLimit
	}
	activities, err := u.dashboard.Activities(ctx, companyID, limit/3)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(activities, func(i, j int) bool {
		return activities[i].Timestamp.After(activities[j].Timestamp)
	})
	if len(activities) > limit {
		activities = activities[:limit]
	}
	return activities, nil
}

func (u *DashboardUsecase) Analytics(ctx context.Context, companyID string, periodDays int) (*entities.Analytics, error) {
	if periodDays <= 0 {
		periodDays = defaultPeriodDays
	}
	since := u.now().AddDate(0, 0, -periodDays)
	analytics, err := u.dashboard.Analytics(ctx, companyID, since)
	if err != nil {
		return nil, err
	}
	analytics.Period = periodDays
	return analytics, nil
}

// Export returns the rows for one export type and their count.
func (u *DashboardUsecase) Export(ctx context.Context, companyID string, exportType ExportType) (any, int, error) {
	switch exportType {
	case ExportDocuments:
		docs, err := u.dashboard.ExportDocuments(ctx, companyID)
		return docs, len(docs), err
	case ExportConversations:
		convs, err := u.dashboard.ExportConversations(ctx, companyID)
		return convs, len(convs), err
	case ExportWorkflows:
		flows, err := u.dashboard.ExportWorkflows(ctx, companyID)
		return flows, len(flows), err
	}
	return nil, 0, apperrors.Validation("Invalid export type")
}

// WriteDocumentsCSV writes the document export with a Name,Type,Size,Language,Created header.
func WriteDocumentsCSV(w io.Writer, docs []entities.ExportedDocument) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Name", "Type", "Size", "Language", "Created"}); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, d := range docs {
		record := []string{
			d.OriginalName,
			d.FileType,
			strconv.FormatInt(d.FileSize, 10),
			string(d.Language),
			d.CreatedAt.UTC().Format(time.RFC3339),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
