// Package models defines compliance items and remediation workflows.
package models

import (
	"strings"
	"time"

	"github.com/asaskevich/govalidator"

	"rbi-platform/pkg/apperrors"
)

// Severity ranks how urgent a compliance item is.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// ValidSeverity reports whether s is a known severity.
func ValidSeverity(s Severity) bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

// ItemStatus is the lifecycle state of a compliance item.
type ItemStatus string

const (
	ItemStatusOpen       ItemStatus = "open"
	ItemStatusInProgress ItemStatus = "in_progress"
	ItemStatusBlocked    ItemStatus = "blocked"
	ItemStatusDone       ItemStatus = "done"
)

// ValidItemStatus reports whether s is a known item status.
func ValidItemStatus(s ItemStatus) bool {
	switch s {
	case ItemStatusOpen, ItemStatusInProgress, ItemStatusBlocked, ItemStatusDone:
		return true
	}
	return false
}

// Item is a tracked compliance obligation. CircularID links items created
// from a regulatory circular back to their source.
type Item struct {
	ID         string     `json:"id"`
	CircularID string     `json:"circular_id,omitempty"`
	Title      string     `json:"title"`
	Category   string     `json:"category"`
	Severity   Severity   `json:"severity"`
	Status     ItemStatus `json:"status"`
	Owner      string     `json:"owner,omitempty"`
	DueDate    *time.Time `json:"due_date,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// TaskStatus is the lifecycle state of a workflow task.
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusCancelled  TaskStatus = "cancelled"
)

// taskTransitions lists the legal moves. Cancellation is reachable from any
// non-terminal state.
var taskTransitions = map[TaskStatus][]TaskStatus{
	TaskStatusPending:    {TaskStatusInProgress, TaskStatusCancelled},
	TaskStatusInProgress: {TaskStatusCompleted, TaskStatusCancelled},
}

// CanTransition reports whether a task may move from one status to another.
func CanTransition(from, to TaskStatus) bool {
	for _, allowed := range taskTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Task is one step of a remediation workflow.
type Task struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Assignee  string     `json:"assignee,omitempty"`
	Status    TaskStatus `json:"status"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Workflow groups the tasks needed to close out an obligation.
type Workflow struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	ItemID    string    `json:"item_id,omitempty"`
	Tasks     []Task    `json:"tasks"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateItemRequest opens a new compliance item.
type CreateItemRequest struct {
	CircularID string     `json:"circular_id"`
	Title      string     `json:"title"`
	Category   string     `json:"category"`
	Severity   Severity   `json:"severity"`
	Owner      string     `json:"owner"`
	DueDate    *time.Time `json:"due_date"`
}

// Normalize trims user-supplied fields.
func (r *CreateItemRequest) Normalize() {
	r.Title = strings.TrimSpace(r.Title)
	r.Category = strings.TrimSpace(r.Category)
	r.Owner = strings.TrimSpace(r.Owner)
}

// Validate enforces field presence and enum membership.
func (r *CreateItemRequest) Validate() error {
	if !govalidator.StringLength(r.Title, "1", "500") {
		return apperrors.New(apperrors.CodeBadRequest, "title is required")
	}
	if r.Category == "" {
		return apperrors.New(apperrors.CodeBadRequest, "category is required")
	}
	if r.Severity == "" {
		r.Severity = SeverityMedium
	}
	if !ValidSeverity(r.Severity) {
		return apperrors.New(apperrors.CodeBadRequest, "unknown severity")
	}
	return nil
}

// UpdateItemRequest changes mutable item fields. Nil pointers leave the
// field untouched.
type UpdateItemRequest struct {
	Title    *string     `json:"title"`
	Category *string     `json:"category"`
	Severity *Severity   `json:"severity"`
	Status   *ItemStatus `json:"status"`
	Owner    *string     `json:"owner"`
	DueDate  *time.Time  `json:"due_date"`
}

// Validate checks the populated fields.
func (r *UpdateItemRequest) Validate() error {
	if r.Title != nil && strings.TrimSpace(*r.Title) == "" {
		return apperrors.New(apperrors.CodeBadRequest, "title must not be empty")
	}
	if r.Severity != nil && !ValidSeverity(*r.Severity) {
		return apperrors.New(apperrors.CodeBadRequest, "unknown severity")
	}
	if r.Status != nil && !ValidItemStatus(*r.Status) {
		return apperrors.New(apperrors.CodeBadRequest, "unknown status")
	}
	return nil
}

// TaskSpec describes one task in a workflow creation request.
type TaskSpec struct {
	Name     string `json:"name"`
	Assignee string `json:"assignee"`
}

// CreateWorkflowRequest creates a workflow with its initial tasks.
type CreateWorkflowRequest struct {
	Name   string     `json:"name"`
	ItemID string     `json:"item_id"`
	Tasks  []TaskSpec `json:"tasks"`
}

// Validate enforces field presence.
func (r *CreateWorkflowRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return apperrors.New(apperrors.CodeBadRequest, "name is required")
	}
	if len(r.Tasks) == 0 {
		return apperrors.New(apperrors.CodeBadRequest, "at least one task is required")
	}
	for _, task := range r.Tasks {
		if strings.TrimSpace(task.Name) == "" {
			return apperrors.New(apperrors.CodeBadRequest, "task name is required")
		}
	}
	return nil
}

// ItemFilter narrows item listings.
type ItemFilter struct {
	Status   ItemStatus
	Severity Severity
	Category string
}
