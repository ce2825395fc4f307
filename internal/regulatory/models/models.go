// Package models defines regulatory circulars.
package models

import (
	"strings"
	"time"

	"github.com/asaskevich/govalidator"

	"rbi-platform/pkg/apperrors"
)

// Status tracks where a circular sits in the review pipeline.
type Status string

const (
	StatusNew         Status = "new"
	StatusUnderReview Status = "under_review"
	StatusActioned    Status = "actioned"
	StatusArchived    Status = "archived"
)

// ValidStatus reports whether s is a known status.
func ValidStatus(s Status) bool {
	switch s {
	case StatusNew, StatusUnderReview, StatusActioned, StatusArchived:
		return true
	}
	return false
}

// Circular is one regulatory notification. Reference is the regulator's own
// citation and is unique across the store.
type Circular struct {
	ID          string     `json:"id"`
	Reference   string     `json:"reference"`
	Title       string     `json:"title"`
	Regulator   string     `json:"regulator"`
	Summary     string     `json:"summary,omitempty"`
	PublishedAt time.Time  `json:"published_at"`
	EffectiveAt *time.Time `json:"effective_at,omitempty"`
	Tags        []string   `json:"tags,omitempty"`
	Status      Status     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// CreateRequest records a new circular.
type CreateRequest struct {
	Reference   string     `json:"reference"`
	Title       string     `json:"title"`
	Regulator   string     `json:"regulator"`
	Summary     string     `json:"summary"`
	PublishedAt time.Time  `json:"published_at"`
	EffectiveAt *time.Time `json:"effective_at"`
	Tags        []string   `json:"tags"`
}

// Normalize trims fields and lowercases tags.
func (r *CreateRequest) Normalize() {
	r.Reference = strings.TrimSpace(r.Reference)
	r.Title = strings.TrimSpace(r.Title)
	r.Regulator = strings.TrimSpace(r.Regulator)
	r.Summary = strings.TrimSpace(r.Summary)
	tags := r.Tags[:0]
	for _, tag := range r.Tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag != "" {
			tags = append(tags, tag)
		}
	}
	r.Tags = tags
}

// Validate enforces field presence.
func (r *CreateRequest) Validate() error {
	if r.Reference == "" {
		return apperrors.New(apperrors.CodeBadRequest, "reference is required")
	}
	if !govalidator.StringLength(r.Title, "1", "500") {
		return apperrors.New(apperrors.CodeBadRequest, "title is required")
	}
	if r.Regulator == "" {
		return apperrors.New(apperrors.CodeBadRequest, "regulator is required")
	}
	if r.PublishedAt.IsZero() {
		return apperrors.New(apperrors.CodeBadRequest, "published_at is required")
	}
	return nil
}

// UpdateRequest changes mutable circular fields. Nil pointers leave the
// field untouched. Reference is immutable.
type UpdateRequest struct {
	Title   *string   `json:"title"`
	Summary *string   `json:"summary"`
	Status  *Status   `json:"status"`
	Tags    *[]string `json:"tags"`
}

// Validate checks the populated fields.
func (r *UpdateRequest) Validate() error {
	if r.Title != nil && strings.TrimSpace(*r.Title) == "" {
		return apperrors.New(apperrors.CodeBadRequest, "title must not be empty")
	}
	if r.Status != nil && !ValidStatus(*r.Status) {
		return apperrors.New(apperrors.CodeBadRequest, "unknown status")
	}
	return nil
}

// Filter narrows circular listings.
type Filter struct {
	Regulator string
	Tag       string
	Status    Status
}

// AcknowledgeRequest opens a compliance item for a circular.
type AcknowledgeRequest struct {
	Category string     `json:"category"`
	Severity string     `json:"severity"`
	Owner    string     `json:"owner"`
	DueDate  *time.Time `json:"due_date"`
}
