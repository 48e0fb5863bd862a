package usecases

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"go.uber.org/zap"

	"project_amharicAI/internal/apperrors"
	"project_amharicAI/internal/entities"
	"project_amharicAI/internal/interfaces"
)

type WorkflowUsecase struct {
	workflows interfaces.WorkflowStore
	documents interfaces.DocumentStore
	webhook   interfaces.WebhookPoster
	events    interfaces.EventPublisher
	logger    *zap.Logger
}

func NewWorkflowUsecase(
	workflows interfaces.WorkflowStore,
	documents interfaces.DocumentStore,
	webhook interfaces.WebhookPoster,
	events interfaces.EventPublisher,
	logger *zap.Logger,
) *WorkflowUsecase {
	return &WorkflowUsecase{
		workflows: workflows,
		documents: documents,
		webhook:   webhook,
		events:    events,
		logger:    logger.Named("workflows"),
	}
}

type CreateWorkflowInput struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Config      json.RawMessage `json:"config"`
	WebhookURL  string          `json:"webhookUrl" binding:"omitempty,url"`
}

func (uc *WorkflowUsecase) Create(ctx context.Context, companyID string, in CreateWorkflowInput) (*entities.Workflow, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, apperrors.Validation("Workflow name is required")
	}
	w := &entities.Workflow{
		CompanyID:   companyID,
		Name:        in.Name,
		Description: in.Description,
		Config:      in.Config,
		WebhookURL:  in.WebhookURL,
		IsActive:    true,
	}
	if err := uc.workflows.Create(ctx, w); err != nil {
		return nil, err
	}
	return w, nil
}

func (uc *WorkflowUsecase) List(ctx context.Context, companyID string) ([]entities.Workflow, error) {
	return uc.workflows.List(ctx, companyID)
}

func (uc *WorkflowUsecase) Update(ctx context.Context, companyID, id string, u entities.WorkflowUpdate) (*entities.Workflow, error) {
	// An empty name keeps the current one.
	if u.Name != nil && strings.TrimSpace(*u.Name) == "" {
		u.Name = nil
	}
	return uc.workflows.Update(ctx, companyID, id, u)
}

func (uc *WorkflowUsecase) Delete(ctx context.Context, companyID, id string) error {
	return uc.workflows.Delete(ctx, companyID, id)
}

func (uc *WorkflowUsecase) Executions(ctx context.Context, companyID, id string, page, limit int) ([]entities.WorkflowExecution, entities.Pagination, error) {
	if _, err := uc.workflows.Get(ctx, companyID, id); err != nil {
		return nil, entities.Pagination{}, err
	}
	execs, total, err := uc.workflows.Executions(ctx, companyID, id, page, limit)
	if err != nil {
		return nil, entities.Pagination{}, err
	}
	return execs, entities.NewPagination(page, limit, total), nil
}

// Execute runs the workflow once. Every run leaves exactly one execution row that ends
// completed or failed; failures are reported to the caller as a single generic error.
func (uc *WorkflowUsecase) Execute(ctx context.Context, companyID, id string, input json.RawMessage) (*entities.WorkflowExecution, error) {
	w, err := uc.workflows.Get(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	if !w.IsActive {
		return nil, apperrors.Validation("Workflow is not active")
	}
	if len(input) == 0 || string(input) == "null" {
		input = json.RawMessage(`{}`)
	}

	exec := &entities.WorkflowExecution{
		WorkflowID: w.ID,
		Status:     entities.ExecutionRunning,
		Input:      input,
	}
	if err := uc.workflows.CreateExecution(ctx, exec); err != nil {
		return nil, err
	}

	output, runErr := uc.runAction(ctx, w, exec)
	if runErr != nil {
		uc.logger.Warn("Workflow execution failed",
			zap.String("workflow_id", w.ID),
			zap.String("execution_id", exec.ID),
			zap.Error(runErr))
		// The request context may already be gone when the webhook timed out.
		if _, err := uc.workflows.FinishExecution(context.WithoutCancel(ctx), exec.ID, entities.ExecutionFailed, nil, runErr.Error()); err != nil {
			uc.logger.Error("Failed to record execution failure", zap.String("execution_id", exec.ID), zap.Error(err))
		}
		kind := apperrors.ErrExternalService
		if errors.Is(runErr, apperrors.ErrUnknownWorkflowType) {
			kind = apperrors.ErrUnknownWorkflowType
		}
		return nil, apperrors.Wrap(kind, "Failed to execute workflow", runErr)
	}

	finished, err := uc.workflows.FinishExecution(ctx, exec.ID, entities.ExecutionCompleted, output, "")
	if err != nil {
		return nil, err
	}

	uc.events.Publish(ctx, entities.Event{
		Type:      entities.EventWorkflowCompleted,
		CompanyID: companyID,
		Data: entities.WorkflowCompletedPayload{
			WorkflowID:  w.ID,
			ExecutionID: finished.ID,
			Status:      finished.Status,
			Output:      finished.Output,
		},
	})
	uc.logger.Info("Workflow executed", zap.String("workflow_id", w.ID), zap.String("execution_id", finished.ID))
	return finished, nil
}
