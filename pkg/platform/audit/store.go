package audit

import "context"

// Filter narrows audit event listings. Zero values mean "any".
type Filter struct {
	UserID   string
	Category EventCategory
	Action   string
	// Limit caps the number of returned events, newest first. Zero means the
	// store's default cap.
	Limit int
}

// Store persists audit events. Implementations must be safe for concurrent
// use: the worker appends while reporting reads.
type Store interface {
	Append(ctx context.Context, event Event) error
	List(ctx context.Context, filter Filter) ([]Event, error)
}
