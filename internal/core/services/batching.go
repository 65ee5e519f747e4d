package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/searchsync/internal/core/domain"
	"github.com/custodia-labs/searchsync/internal/core/ports/driven"
)

// offsetBatches windows qs with LIMIT/OFFSET. Rows inserted or deleted
// before the current offset while iterating shift the windows.
func offsetBatches(ctx context.Context, qs driven.Queryset, size, limit int) BatchSeq {
	return func(yield func(domain.Batch, error) bool) {
		offset := 0
		for seq := 0; ; seq++ {
			n := windowSize(size, limit, offset)
			if n == 0 {
				return
			}
			records, err := qs.Fetch(ctx, offset, n)
			if err != nil {
				yield(domain.Batch{Seq: seq}, fmt.Errorf("fetch %s batch %d: %w", qs.Model().Name, seq, err))
				return
			}
			if len(records) == 0 {
				return
			}
			if !yield(domain.Batch{Seq: seq, Records: records}, nil) {
				return
			}
			offset += len(records)
			if len(records) < n {
				return
			}
		}
	}
}

// keyWindowBatches windows qs by primary key: each batch starts after
// the last key of the previous one, so rows present when iteration
// starts are visited exactly once even under concurrent writes.
func keyWindowBatches(ctx context.Context, qs driven.Queryset, size, limit int) BatchSeq {
	return func(yield func(domain.Batch, error) bool) {
		var after any
		produced := 0
		for seq := 0; ; seq++ {
			n := windowSize(size, limit, produced)
			if n == 0 {
				return
			}
			records, err := qs.FetchAfter(ctx, after, n)
			if err != nil {
				yield(domain.Batch{Seq: seq}, fmt.Errorf("fetch %s batch %d: %w", qs.Model().Name, seq, err))
				return
			}
			if len(records) == 0 {
				return
			}
			if !yield(domain.Batch{Seq: seq, Records: records}, nil) {
				return
			}
			produced += len(records)
			after = records[len(records)-1].PK
			if len(records) < n {
				return
			}
		}
	}
}

// windowSize returns the size of the next window given how many records
// were already produced and an optional cap.
func windowSize(size, limit, produced int) int {
	if limit <= 0 {
		return size
	}
	remaining := limit - produced
	if remaining <= 0 {
		return 0
	}
	return min(size, remaining)
}
