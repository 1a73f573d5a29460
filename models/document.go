package models

import (
	"time"

	"github.com/google/uuid"
)

// Document is a raw statute text plus identifying metadata. Documents are
// immutable once ingested; re-ingestion replaces a document and all of its
// chunks wholesale.
type Document struct {
	ID           uuid.UUID `json:"id"`
	LawTitle     string    `json:"law_title"`
	RevisionDate *string   `json:"revision_date,omitempty"`
	SourcePath   string    `json:"source_path"`
	Text         string    `json:"-"`
	IngestedAt   time.Time `json:"ingested_at"`
}
