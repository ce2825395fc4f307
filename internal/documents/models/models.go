// Package models defines document metadata records.
package models

import "time"

// LinkedType names the entity a document is attached to.
type LinkedType string

const (
	LinkedCircular   LinkedType = "circular"
	LinkedAssessment LinkedType = "assessment"
	LinkedItem       LinkedType = "item"
)

// ValidLinkedType reports whether t is a known link target, or empty for an
// unattached document.
func ValidLinkedType(t LinkedType) bool {
	switch t {
	case "", LinkedCircular, LinkedAssessment, LinkedItem:
		return true
	}
	return false
}

// Document is the metadata of one uploaded file. Content lives in the blob
// store keyed by SHA256, so two documents may share the same bytes.
type Document struct {
	ID          string     `json:"id"`
	Filename    string     `json:"filename"`
	ContentType string     `json:"content_type"`
	Size        int64      `json:"size"`
	SHA256      string     `json:"sha256"`
	LinkedType  LinkedType `json:"linked_type,omitempty"`
	LinkedID    string     `json:"linked_id,omitempty"`
	UploadedBy  string     `json:"uploaded_by,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}
