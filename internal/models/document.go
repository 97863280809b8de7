package models

import (
	"time"

	"gorm.io/datatypes"
)

// Document represents one uploaded document. Rows are immutable after
// creation; reprocessing appends fragment batches rather than mutating the
// document itself.
type Document struct {
	ID        string `gorm:"primaryKey;size:64"`
	Filename  string `gorm:"size:512;not null"`
	Source    string `gorm:"size:512"`
	Provider  string `gorm:"size:32;not null"` // embedding provider tag, authoritative at query time
	CreatedAt time.Time
}

// Fragment is one overlapping slice of a document's text, the atomic unit
// of retrieval. The embedding is stored as an ordered JSON numeric array of
// fixed, provider-specific length so a vector-capable column type can be
// swapped in without a model change.
type Fragment struct {
	ID         string  `gorm:"primaryKey;size:64"`
	DocumentID *string `gorm:"index;size:64"` // nullable: placeholder creation may itself fail
	Filename   string  `gorm:"size:512;not null"`
	Index      int     `gorm:"column:idx;not null"` // 0-based, insertion order = document order
	Offset     int     `gorm:"not null"`            // byte offset into the source text
	Text       string  `gorm:"type:text;not null"`
	Embedding  datatypes.JSON
	Metadata   datatypes.JSON
	CreatedAt  time.Time
}

// FragmentMetadata is the free-form metadata serialized into the Metadata
// column of each fragment.
type FragmentMetadata struct {
	Offset   int    `json:"offset"`
	Length   int    `json:"length"`
	Provider string `json:"provider"`
}
