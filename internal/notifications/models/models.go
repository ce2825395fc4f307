// Package models defines user notifications.
package models

import "time"

// Kind classifies what triggered a notification.
type Kind string

const (
	KindCircularAcknowledged Kind = "circular_acknowledged"
	KindRiskElevated         Kind = "risk_elevated"
	KindConnectorDown        Kind = "connector_down"
)

// Notification is one message for one user. UserID empty means a broadcast
// visible to every user.
type Notification struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id,omitempty"`
	Kind      Kind      `json:"kind"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body,omitempty"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}
