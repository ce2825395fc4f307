package service_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rbi-platform/internal/compliance/models"
	"rbi-platform/internal/compliance/service"
	"rbi-platform/internal/compliance/store"
	"rbi-platform/pkg/apperrors"
	"rbi-platform/pkg/platform/audit"
)

type captureAuditor struct {
	events []audit.Event
}

func (c *captureAuditor) Emit(_ context.Context, event audit.Event) error {
	c.events = append(c.events, event)
	return nil
}

func (c *captureAuditor) actions() []string {
	out := make([]string, 0, len(c.events))
	for _, e := range c.events {
		out = append(out, e.Action)
	}
	return out
}

func newService() (*service.Service, *captureAuditor) {
	auditor := &captureAuditor{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return service.New(store.NewItemStore(), store.NewWorkflowStore(), auditor, logger), auditor
}

func createItem(t *testing.T, svc *service.Service) *models.Item {
	t.Helper()
	item, err := svc.CreateItem(context.Background(), &models.CreateItemRequest{
		Title:    "Review KYC refresh cadence",
		Category: "kyc",
		Severity: models.SeverityHigh,
		Owner:    "officer@bank.example",
	})
	require.NoError(t, err)
	return item
}

func TestCreateItem(t *testing.T) {
	t.Run("opens with status open", func(t *testing.T) {
		svc, auditor := newService()
		item := createItem(t, svc)
		assert.Equal(t, models.ItemStatusOpen, item.Status)
		assert.Contains(t, auditor.actions(), audit.ActionItemCreated)
	})

	t.Run("severity defaults to medium", func(t *testing.T) {
		svc, _ := newService()
		item, err := svc.CreateItem(context.Background(), &models.CreateItemRequest{
			Title:    "Untriaged finding",
			Category: "general",
		})
		require.NoError(t, err)
		assert.Equal(t, models.SeverityMedium, item.Severity)
	})

	t.Run("missing title rejected", func(t *testing.T) {
		svc, _ := newService()
		_, err := svc.CreateItem(context.Background(), &models.CreateItemRequest{Category: "kyc"})
		require.Error(t, err)
		assert.Equal(t, apperrors.CodeBadRequest, apperrors.CodeOf(err))
	})
}

func TestUpdateItem(t *testing.T) {
	t.Run("status change is audited", func(t *testing.T) {
		svc, auditor := newService()
		item := createItem(t, svc)

		status := models.ItemStatusInProgress
		updated, err := svc.UpdateItem(context.Background(), item.ID, &models.UpdateItemRequest{Status: &status})
		require.NoError(t, err)
		assert.Equal(t, models.ItemStatusInProgress, updated.Status)
		assert.Contains(t, auditor.actions(), audit.ActionItemStatusChanged)
	})

	t.Run("edit without status change is not audited as a transition", func(t *testing.T) {
		svc, auditor := newService()
		item := createItem(t, svc)

		owner := "analyst@bank.example"
		_, err := svc.UpdateItem(context.Background(), item.ID, &models.UpdateItemRequest{Owner: &owner})
		require.NoError(t, err)
		assert.NotContains(t, auditor.actions(), audit.ActionItemStatusChanged)
	})

	t.Run("unknown item is not found", func(t *testing.T) {
		svc, _ := newService()
		status := models.ItemStatusDone
		_, err := svc.UpdateItem(context.Background(), "missing", &models.UpdateItemRequest{Status: &status})
		require.Error(t, err)
		assert.Equal(t, apperrors.CodeNotFound, apperrors.CodeOf(err))
	})
}

func TestListItems(t *testing.T) {
	svc, _ := newService()
	createItem(t, svc)
	_, err := svc.CreateItem(context.Background(), &models.CreateItemRequest{
		Title:    "Low severity housekeeping",
		Category: "reporting",
		Severity: models.SeverityLow,
	})
	require.NoError(t, err)

	high, err := svc.ListItems(context.Background(), models.ItemFilter{Severity: models.SeverityHigh})
	require.NoError(t, err)
	require.Len(t, high, 1)
	assert.Equal(t, "Review KYC refresh cadence", high[0].Title)

	_, err = svc.ListItems(context.Background(), models.ItemFilter{Severity: "extreme"})
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeBadRequest, apperrors.CodeOf(err))
}

func createWorkflow(t *testing.T, svc *service.Service) *models.Workflow {
	t.Helper()
	wf, err := svc.CreateWorkflow(context.Background(), &models.CreateWorkflowRequest{
		Name: "KYC remediation",
		Tasks: []models.TaskSpec{
			{Name: "Draft updated policy", Assignee: "analyst@bank.example"},
			{Name: "Board sign-off"},
		},
	})
	require.NoError(t, err)
	return wf
}

func TestWorkflows(t *testing.T) {
	t.Run("tasks start pending", func(t *testing.T) {
		svc, auditor := newService()
		wf := createWorkflow(t, svc)
		require.Len(t, wf.Tasks, 2)
		for _, task := range wf.Tasks {
			assert.Equal(t, models.TaskStatusPending, task.Status)
		}
		assert.Contains(t, auditor.actions(), audit.ActionWorkflowCreated)
	})

	t.Run("legal transitions walk the chain", func(t *testing.T) {
		svc, auditor := newService()
		wf := createWorkflow(t, svc)
		taskID := wf.Tasks[0].ID

		wf, err := svc.TransitionTask(context.Background(), wf.ID, taskID, models.TaskStatusInProgress)
		require.NoError(t, err)
		assert.Equal(t, models.TaskStatusInProgress, wf.Tasks[0].Status)

		wf, err = svc.TransitionTask(context.Background(), wf.ID, taskID, models.TaskStatusCompleted)
		require.NoError(t, err)
		assert.Equal(t, models.TaskStatusCompleted, wf.Tasks[0].Status)
		assert.Contains(t, auditor.actions(), audit.ActionTaskStatusChanged)
	})

	t.Run("pending cannot jump to completed", func(t *testing.T) {
		svc, _ := newService()
		wf := createWorkflow(t, svc)

		_, err := svc.TransitionTask(context.Background(), wf.ID, wf.Tasks[0].ID, models.TaskStatusCompleted)
		require.Error(t, err)
		assert.Equal(t, apperrors.CodeBadRequest, apperrors.CodeOf(err))
	})

	t.Run("completed is terminal", func(t *testing.T) {
		svc, _ := newService()
		wf := createWorkflow(t, svc)
		taskID := wf.Tasks[0].ID

		_, err := svc.TransitionTask(context.Background(), wf.ID, taskID, models.TaskStatusInProgress)
		require.NoError(t, err)
		_, err = svc.TransitionTask(context.Background(), wf.ID, taskID, models.TaskStatusCompleted)
		require.NoError(t, err)

		_, err = svc.TransitionTask(context.Background(), wf.ID, taskID, models.TaskStatusCancelled)
		require.Error(t, err)
		assert.Equal(t, apperrors.CodeBadRequest, apperrors.CodeOf(err))
	})

	t.Run("any active state can cancel", func(t *testing.T) {
		svc, _ := newService()
		wf := createWorkflow(t, svc)

		updated, err := svc.TransitionTask(context.Background(), wf.ID, wf.Tasks[1].ID, models.TaskStatusCancelled)
		require.NoError(t, err)
		assert.Equal(t, models.TaskStatusCancelled, updated.Tasks[1].Status)
	})

	t.Run("workflow referencing unknown item rejected", func(t *testing.T) {
		svc, _ := newService()
		_, err := svc.CreateWorkflow(context.Background(), &models.CreateWorkflowRequest{
			Name:   "Orphan",
			ItemID: "missing",
			Tasks:  []models.TaskSpec{{Name: "Task"}},
		})
		require.Error(t, err)
		assert.Equal(t, apperrors.CodeBadRequest, apperrors.CodeOf(err))
	})
}
