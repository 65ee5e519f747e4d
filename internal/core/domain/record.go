package domain

import (
	"fmt"
	"time"
)

// Record is one row read from the store.
type Record struct {
	// PK is the primary key value as returned by the driver.
	PK any

	// Fields holds column values keyed by column name.
	Fields map[string]any
}

// DocumentID renders the primary key as a search-engine document ID.
func (r Record) DocumentID() string {
	return FormatID(r.PK)
}

// FormatID renders a primary key value as a document ID.
func FormatID(pk any) string {
	switch v := pk.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case time.Time:
		return v.UTC().Format(time.RFC3339Nano)
	default:
		return fmt.Sprint(v)
	}
}

// Batch is a bounded, ordered window of records.
type Batch struct {
	// Seq is the zero-based position of the batch in its sequence.
	Seq int

	Records []Record
}

// BatchProgress reports how far a target's execution has gone.
type BatchProgress struct {
	Model     string
	Batch     int
	Processed int
	Total     int
}
