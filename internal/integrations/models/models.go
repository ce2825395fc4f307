// Package models defines external connector records for the integration layer.
package models

import (
	"strings"
	"time"

	"github.com/asaskevich/govalidator"

	"rbi-platform/pkg/apperrors"
)

// Kind names the class of external system a connector talks to.
type Kind string

const (
	KindCoreBanking   Kind = "core_banking"
	KindAMLScreening  Kind = "aml_screening"
	KindCreditBureau  Kind = "credit_bureau"
	KindDocumentStore Kind = "document_store"
)

// ValidKind reports whether k is a known connector kind.
func ValidKind(k Kind) bool {
	switch k {
	case KindCoreBanking, KindAMLScreening, KindCreditBureau, KindDocumentStore:
		return true
	}
	return false
}

// Health is the last observed probe state of a connector.
type Health string

const (
	HealthUnknown  Health = "unknown"
	HealthUp       Health = "up"
	HealthDown     Health = "down"
	HealthDegraded Health = "degraded"
)

// Connector is a configured external system. SecretHash holds the bcrypt of
// the shared secret and never leaves the server.
type Connector struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Kind        Kind       `json:"kind"`
	BaseURL     string     `json:"base_url"`
	Description string     `json:"description,omitempty"`
	Enabled     bool       `json:"enabled"`
	Health      Health     `json:"health"`
	LastProbeAt *time.Time `json:"last_probe_at,omitempty"`
	SecretHash  string     `json:"-"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// ProbeResult is returned by the health probe endpoint.
type ProbeResult struct {
	ConnectorID string    `json:"connector_id"`
	Health      Health    `json:"health"`
	LatencyMS   int64     `json:"latency_ms"`
	CheckedAt   time.Time `json:"checked_at"`
	Detail      string    `json:"detail,omitempty"`
}

// CreateRequest registers a new connector.
type CreateRequest struct {
	Name        string `json:"name"`
	Kind        Kind   `json:"kind"`
	BaseURL     string `json:"base_url"`
	Description string `json:"description"`
}

// Normalize trims user-supplied fields.
func (r *CreateRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.BaseURL = strings.TrimSpace(r.BaseURL)
	r.Description = strings.TrimSpace(r.Description)
}

// Validate enforces field presence and enum membership.
func (r *CreateRequest) Validate() error {
	if !govalidator.StringLength(r.Name, "1", "200") {
		return apperrors.New(apperrors.CodeBadRequest, "name is required")
	}
	if !ValidKind(r.Kind) {
		return apperrors.New(apperrors.CodeBadRequest, "unknown connector kind")
	}
	if !govalidator.IsURL(r.BaseURL) {
		return apperrors.New(apperrors.CodeBadRequest, "base_url must be a valid URL")
	}
	return nil
}

// UpdateRequest changes mutable connector fields. Nil pointers leave the
// field untouched.
type UpdateRequest struct {
	Name        *string `json:"name"`
	BaseURL     *string `json:"base_url"`
	Description *string `json:"description"`
	Enabled     *bool   `json:"enabled"`
}

// Validate checks the populated fields.
func (r *UpdateRequest) Validate() error {
	if r.Name != nil && !govalidator.StringLength(strings.TrimSpace(*r.Name), "1", "200") {
		return apperrors.New(apperrors.CodeBadRequest, "name must not be empty")
	}
	if r.BaseURL != nil && !govalidator.IsURL(*r.BaseURL) {
		return apperrors.New(apperrors.CodeBadRequest, "base_url must be a valid URL")
	}
	return nil
}
