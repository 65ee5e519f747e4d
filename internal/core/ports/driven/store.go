package driven

import (
	"context"

	"github.com/custodia-labs/searchsync/internal/core/domain"
)

// Queryset is a lazily evaluated, filterable, countable sequence of
// records of one model. Querysets are immutable: Filter and Exclude
// return new querysets. Records are always ordered by primary key.
type Queryset interface {
	// Model returns the model the queryset reads.
	Model() domain.ModelDefinition

	// Filter keeps records matching every predicate of set.
	Filter(set domain.PredicateSet) Queryset

	// Exclude drops records matching every predicate of set.
	// Successive calls are combined with AND.
	Exclude(set domain.PredicateSet) Queryset

	// Count returns the number of matching records. Invalid lookups
	// are reported as *domain.FieldError.
	Count(ctx context.Context) (int, error)

	// Fetch returns up to limit records starting at offset.
	Fetch(ctx context.Context, offset, limit int) ([]domain.Record, error)

	// FetchAfter returns up to limit records whose primary key is
	// greater than after. A nil after starts from the beginning.
	FetchAfter(ctx context.Context, after any, limit int) ([]domain.Record, error)
}

// RecordStore is a connection to one relational database.
type RecordStore interface {
	// Queryset returns a queryset over every record of model.
	Queryset(model domain.ModelDefinition) Queryset

	// Close releases the connection.
	Close() error
}

// StoreOpener opens record stores by configured database alias.
type StoreOpener interface {
	// Open connects to the database registered under alias.
	// An empty alias selects the default database.
	Open(ctx context.Context, alias string) (RecordStore, error)
}
