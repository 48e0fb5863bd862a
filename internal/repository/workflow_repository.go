package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"project_amharicAI/internal/apperrors"
	"project_amharicAI/internal/entities"
	"project_amharicAI/internal/interfaces"
)

type WorkflowRepository struct {
	db *pgxpool.Pool
}

var _ interfaces.WorkflowStore = (*WorkflowRepository)(nil)

func NewWorkflowRepository(db *pgxpool.Pool) *WorkflowRepository {
	return &WorkflowRepository{db: db}
}

const workflowColumns = `w.id, w.company_id, w.name, w.description, w.config, w.webhook_url, w.is_active, w.created_at, w.updated_at,
	(SELECT COUNT(*) FROM workflow_executions e WHERE e.workflow_id = w.id)`

func scanWorkflow(row pgx.Row) (*entities.Workflow, error) {
	var (
		w      entities.Workflow
		config []byte
	)
	err := row.Scan(&w.ID, &w.CompanyID, &w.Name, &w.Description, &config, &w.WebhookURL, &w.IsActive,
		&w.CreatedAt, &w.UpdatedAt, &w.ExecutionCount)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NotFound("Workflow not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan workflow: %w", err)
	}
	w.Config = json.RawMessage(config)
	return &w, nil
}

func (r *WorkflowRepository) Create(ctx context.Context, w *entities.Workflow) error {
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	w.Config = jsonOrEmpty(w.Config)
	err := r.db.QueryRow(ctx, `
		INSERT INTO workflows (id, company_id, name, description, config, webhook_url, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at`,
		w.ID, w.CompanyID, w.Name, w.Description, []byte(w.Config), w.WebhookURL, w.IsActive,
	).Scan(&w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create workflow: %w", err)
	}
	return nil
}

func (r *WorkflowRepository) Get(ctx context.Context, companyID, id string) (*entities.Workflow, error) {
	if !validID(id) {
		return nil, apperrors.NotFound("Workflow not found")
	}
	return scanWorkflow(r.db.QueryRow(ctx,
		`SELECT `+workflowColumns+` FROM workflows w WHERE w.id = $1 AND w.company_id = $2`, id, companyID))
}

func (r *WorkflowRepository) List(ctx context.Context, companyID string) ([]entities.Workflow, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+workflowColumns+` FROM workflows w WHERE w.company_id = $1 ORDER BY w.created_at DESC`, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list workflows: %w", err)
	}
	defer rows.Close()

	list := []entities.Workflow{}
	for rows.Next() {
		w, err := scanWorkflow(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *w)
	}
	return list, rows.Err()
}

// Update applies the non-nil fields of u.
func (r *WorkflowRepository) Update(ctx context.Context, companyID, id string, u entities.WorkflowUpdate) (*entities.Workflow, error) {
	if !validID(id) {
		return nil, apperrors.NotFound("Workflow not found")
	}
	var config []byte
	if u.Config != nil {
		config = jsonOrEmpty(*u.Config)
	}
	return scanWorkflow(r.db.QueryRow(ctx, `
		WITH updated AS (
			UPDATE workflows SET
				name = COALESCE($3, name),
				description = COALESCE($4, description),
				config = COALESCE($5::jsonb, config),
				webhook_url = COALESCE($6, webhook_url),
				is_active = COALESCE($7, is_active),
				updated_at = NOW()
			WHERE id = $1 AND company_id = $2
			RETURNING *
		)
		SELECT `+workflowColumns+` FROM updated w`,
		id, companyID, u.Name, u.Description, config, u.WebhookURL, u.IsActive))
}

func (r *WorkflowRepository) Delete(ctx context.Context, companyID, id string) error {
	if !validID(id) {
		return apperrors.NotFound("Workflow not found")
	}
	tag, err := r.db.Exec(ctx, `DELETE FROM workflows WHERE id = $1 AND company_id = $2`, id, companyID)
	if err != nil {
		return fmt.Errorf("failed to delete workflow: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("Workflow not found")
	}
	return nil
}

const executionColumns = `id, workflow_id, status, input, output, error, started_at, completed_at`

func scanExecution(row pgx.Row) (*entities.WorkflowExecution, error) {
	var (
		e             entities.WorkflowExecution
		input, output []byte
	)
	if err := row.Scan(&e.ID, &e.WorkflowID, &e.Status, &input, &output, &e.Error, &e.StartedAt, &e.CompletedAt); err != nil {
		return nil, err
	}
	e.Input = json.RawMessage(input)
	if len(output) > 0 {
		e.Output = json.RawMessage(output)
	}
	return &e, nil
}

func (r *WorkflowRepository) CreateExecution(ctx context.Context, e *entities.WorkflowExecution) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	e.Input = jsonOrEmpty(e.Input)
	err := r.db.QueryRow(ctx, `
		INSERT INTO workflow_executions (id, workflow_id, status, input)
		VALUES ($1, $2, $3, $4)
		RETURNING started_at`,
		e.ID, e.WorkflowID, e.Status, []byte(e.Input),
	).Scan(&e.StartedAt)
	if err != nil {
		return fmt.Errorf("failed to create execution: %w", err)
	}
	return nil
}

// FinishExecution only transitions rows that are still running, so a terminal
// status can never be overwritten.
func (r *WorkflowRepository) FinishExecution(ctx context.Context, id string, status entities.ExecutionStatus, output json.RawMessage, errText string) (*entities.WorkflowExecution, error) {
	if !status.Terminal() {
		return nil, fmt.Errorf("status %q is not terminal", status)
	}
	var out []byte
	if len(output) > 0 {
		out = output
	}
	e, err := scanExecution(r.db.QueryRow(ctx, `
		UPDATE workflow_executions
		SET status = $2, output = $3, error = $4, completed_at = NOW()
		WHERE id = $1 AND status = 'running'
		RETURNING `+executionColumns,
		id, status, out, errText))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.Conflict("Execution already finished")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to finish execution: %w", err)
	}
	return e, nil
}

func (r *WorkflowRepository) Executions(ctx context.Context, companyID, workflowID string, page, limit int) ([]entities.WorkflowExecution, int, error) {
	if !validID(workflowID) {
		return nil, 0, apperrors.NotFound("Workflow not found")
	}

	var total int
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM workflow_executions e
		JOIN workflows w ON w.id = e.workflow_id
		WHERE e.workflow_id = $1 AND w.company_id = $2`, workflowID, companyID).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count executions: %w", err)
	}

	rows, err := r.db.Query(ctx, `
		SELECT e.id, e.workflow_id, e.status, e.input, e.output, e.error, e.started_at, e.completed_at
		FROM workflow_executions e
		JOIN workflows w ON w.id = e.workflow_id
		WHERE e.workflow_id = $1 AND w.company_id = $2
		ORDER BY e.started_at DESC
		LIMIT $3 OFFSET $4`, workflowID, companyID, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list executions: %w", err)
	}
	defer rows.Close()

	list := []entities.WorkflowExecution{}
	for rows.Next() {
		e, err := scanExecution(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan execution: %w", err)
		}
		list = append(list, *e)
	}
	return list, total, rows.Err()
}
