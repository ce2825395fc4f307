// Package audit captures structured audit events across the platform.
// Compliance events persist synchronously (fail-closed); security and
// operations events flow through a buffered background worker.
package audit

import "time"

// EventCategory classifies audit events by their primary purpose.
// This enables different retention policies, storage backends, and routing.
type EventCategory string

const (
	// CategoryCompliance covers events with legal/regulatory significance.
	// These require guaranteed persistence and long retention.
	CategoryCompliance EventCategory = "compliance"

	// CategorySecurity covers events relevant to security monitoring and
	// forensics. These feed SIEM pipelines and alerting.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers events useful for debugging and operational
	// visibility. These can be sampled with shorter retention.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. It stays
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Category  EventCategory `json:"category"`
	Timestamp time.Time     `json:"timestamp"`
	Action    string        `json:"action"`
	Subject   string        `json:"subject,omitempty"`
	UserID    string        `json:"user_id,omitempty"`
	// ActorID tracks who performed the action when different from UserID,
	// e.g. an admin acting on another user's records.
	ActorID   string `json:"actor_id,omitempty"`
	Decision  string `json:"decision,omitempty"`
	Reason    string `json:"reason,omitempty"`
	RequestID string `json:"request_id,omitempty"`
	ClientIP  string `json:"client_ip,omitempty"`
}

// Action names. These are stable API surface: reporting filters and the
// Kafka consumer contract match on them.
const (
	// Auth
	ActionUserCreated         = "user_created"
	ActionLoginSucceeded      = "login_succeeded"
	ActionLoginFailed         = "login_failed"
	ActionTokenIssued         = "token_issued"
	ActionTokenRefreshed      = "token_refreshed"
	ActionRefreshReuse        = "refresh_reuse_detected"
	ActionSessionRevoked      = "session_revoked"
	ActionAuthLockout         = "auth_lockout_triggered"
	ActionRateLimitExceeded   = "rate_limit_exceeded"

	// Integrations
	ActionConnectorCreated       = "connector_created"
	ActionConnectorUpdated       = "connector_updated"
	ActionConnectorDeleted       = "connector_deleted"
	ActionConnectorSecretRotated = "connector_secret_rotated"
	ActionConnectorDown          = "connector_down"
	ActionBreakerOpened          = "breaker_opened"
	ActionBreakerClosed          = "breaker_closed"

	// Compliance
	ActionItemCreated       = "compliance_item_created"
	ActionItemStatusChanged = "compliance_item_status_changed"
	ActionWorkflowCreated   = "workflow_created"
	ActionTaskStatusChanged = "task_status_changed"

	// Regulatory
	ActionCircularCreated      = "circular_created"
	ActionCircularAcknowledged = "circular_acknowledged"

	// Documents
	ActionDocumentUploaded = "document_uploaded"
	ActionDocumentDeleted  = "document_deleted"

	// Risk
	ActionAssessmentScored = "risk_assessment_scored"

	// Notifications
	ActionNotificationSent = "notification_sent"
)

// actionCategories maps each action to its category. Compliance requires
// guaranteed persistence; security feeds monitoring; operations may be
// sampled. Actions missing here default to operations.
var actionCategories = map[string]EventCategory{
	ActionUserCreated:          CategoryCompliance,
	ActionItemCreated:          CategoryCompliance,
	ActionItemStatusChanged:    CategoryCompliance,
	ActionWorkflowCreated:      CategoryCompliance,
	ActionTaskStatusChanged:    CategoryCompliance,
	ActionCircularCreated:      CategoryCompliance,
	ActionCircularAcknowledged: CategoryCompliance,
	ActionDocumentUploaded:     CategoryCompliance,
	ActionDocumentDeleted:      CategoryCompliance,
	ActionAssessmentScored:     CategoryCompliance,

	ActionLoginFailed:            CategorySecurity,
	ActionRefreshReuse:           CategorySecurity,
	ActionSessionRevoked:         CategorySecurity,
	ActionAuthLockout:            CategorySecurity,
	ActionConnectorSecretRotated: CategorySecurity,
	ActionConnectorDown:          CategorySecurity,
	ActionBreakerOpened:          CategorySecurity,

	ActionLoginSucceeded: CategoryOperations,
	ActionTokenIssued:    CategoryOperations,
	// Rate-limit rejections are high-volume noise: classifying them as
	// operations keeps them sampleable, unlike the lockout event above.
	ActionRateLimitExceeded: CategoryOperations,
	ActionTokenRefreshed:   CategoryOperations,
	ActionConnectorCreated: CategoryOperations,
	ActionConnectorUpdated: CategoryOperations,
	ActionConnectorDeleted: CategoryOperations,
	ActionBreakerClosed:    CategoryOperations,
	ActionNotificationSent: CategoryOperations,
}

// CategoryOf returns the category for an action. Unknown actions default to
// CategoryOperations.
func CategoryOf(action string) EventCategory {
	if cat, ok := actionCategories[action]; ok {
		return cat
	}
	return CategoryOperations
}
