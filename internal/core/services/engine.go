package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/searchsync/internal/core/domain"
	"github.com/custodia-labs/searchsync/internal/core/ports/driven"
	"github.com/custodia-labs/searchsync/internal/logger"
)

// DefaultWorkers bounds parallel submissions when no value is configured.
const DefaultWorkers = 4

// EngineConfig configures a BatchEngine.
type EngineConfig struct {
	// Workers bounds concurrent bulk requests in parallel mode.
	Workers int

	// RequestsPerSecond throttles bulk requests; 0 disables throttling.
	RequestsPerSecond float64
}

// BatchEngine submits batches of records to the search engine and
// aggregates per-document outcomes.
type BatchEngine struct {
	search  driven.SearchEngine
	workers int
	limiter *rate.Limiter
}

// NewBatchEngine creates a batch engine writing to search.
func NewBatchEngine(search driven.SearchEngine, cfg EngineConfig) *BatchEngine {
	workers := cfg.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}
	return &BatchEngine{search: search, workers: workers, limiter: limiter}
}

// Submit drains batches into the engine. A rejected document never stops
// the run unless opts.RaiseOnError is set; store and transport failures do.
// The returned result covers every batch submitted before a failure.
func (e *BatchEngine) Submit(ctx context.Context, mapping DocumentMapping, batches BatchSeq, opts UpdateOptions) (domain.ExecutionResult, error) {
	if opts.Parallel && e.workers > 1 {
		return e.submitParallel(ctx, mapping, batches, opts)
	}
	return e.submitSequential(ctx, mapping, batches, opts)
}

func (e *BatchEngine) submitSequential(ctx context.Context, mapping DocumentMapping, batches BatchSeq, opts UpdateOptions) (domain.ExecutionResult, error) {
	var total domain.ExecutionResult
	for batch, err := range batches {
		if err != nil {
			return total, err
		}
		result, err := e.submitBatch(ctx, mapping, batch, opts)
		if err != nil {
			return total, err
		}
		total = total.Merge(result)
		reportProgress(opts, mapping, batch.Seq, total.Total())

		if opts.RaiseOnError && len(result.Errors) > 0 {
			return total, fmt.Errorf("%w: %d in batch %d of %s",
				domain.ErrDocumentRejected, len(result.Errors), batch.Seq, mapping.Model().Name)
		}
	}
	return total, nil
}

func (e *BatchEngine) submitParallel(ctx context.Context, mapping DocumentMapping, batches BatchSeq, opts UpdateOptions) (domain.ExecutionResult, error) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)

	var (
		mu        sync.Mutex
		results   = make(map[int]domain.ExecutionResult)
		processed int
		fetchErr  error
	)

	for batch, err := range batches {
		if err != nil {
			fetchErr = err
			break
		}
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			result, err := e.submitBatch(gctx, mapping, batch, opts)
			if err != nil {
				return err
			}

			mu.Lock()
			results[batch.Seq] = result
			processed += result.Total()
			reportProgress(opts, mapping, batch.Seq, processed)
			mu.Unlock()

			if opts.RaiseOnError && len(result.Errors) > 0 {
				return fmt.Errorf("%w: %d in batch %d of %s",
					domain.ErrDocumentRejected, len(result.Errors), batch.Seq, mapping.Model().Name)
			}
			return nil
		})
	}
	waitErr := g.Wait()

	total := mergeInOrder(results)
	if err := errors.Join(fetchErr, waitErr); err != nil {
		return total, err
	}
	return total, nil
}

// submitBatch sends one batch as a single bulk request.
func (e *BatchEngine) submitBatch(ctx context.Context, mapping DocumentMapping, batch domain.Batch, opts UpdateOptions) (domain.ExecutionResult, error) {
	model := mapping.Model()
	ops := make([]driven.BulkOperation, len(batch.Records))
	for i, rec := range batch.Records {
		op := driven.BulkOperation{Action: opts.Action, ID: rec.DocumentID()}
		if opts.Action != domain.ActionDelete {
			op.Document = mapping.Prepare(rec)
		}
		ops[i] = op
	}

	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			return domain.ExecutionResult{}, err
		}
	}

	logger.Debug("Submitting batch %d of %s (%d documents) to %s", batch.Seq, model.Name, len(ops), model.Index)
	items, err := e.search.Bulk(ctx, model.Index, ops, opts.Refresh)
	if err != nil {
		return domain.ExecutionResult{}, fmt.Errorf("bulk %s batch %d: %w", model.Name, batch.Seq, err)
	}
	if len(items) != len(ops) {
		return domain.ExecutionResult{}, fmt.Errorf("bulk %s batch %d: engine answered %d items for %d operations",
			model.Name, batch.Seq, len(items), len(ops))
	}

	var result domain.ExecutionResult
	for _, item := range items {
		if !item.Failed() {
			result.Success++
			continue
		}
		action := item.Action
		if action == "" {
			action = opts.Action
		}
		result.Errors = append(result.Errors, domain.DocumentError{
			Action: action,
			ID:     item.ID,
			Status: item.Status,
			Reason: item.Reason(),
		})
	}
	if len(result.Errors) > 0 {
		logger.Warn("Batch %d of %s: %d documents rejected", batch.Seq, model.Name, len(result.Errors))
		if logger.IsVerbose() {
			for _, e := range result.Errors {
				logger.Debug("rejected %s", e)
			}
		}
	}
	return result, nil
}

// mergeInOrder sums per-batch results in batch order so the error list
// does not depend on which worker finished first.
func mergeInOrder(results map[int]domain.ExecutionResult) domain.ExecutionResult {
	maxSeq := -1
	for seq := range results {
		maxSeq = max(maxSeq, seq)
	}
	var total domain.ExecutionResult
	for seq := 0; seq <= maxSeq; seq++ {
		if r, ok := results[seq]; ok {
			total = total.Merge(r)
		}
	}
	return total
}

func reportProgress(opts UpdateOptions, mapping DocumentMapping, seq, processed int) {
	if opts.Progress == nil {
		return
	}
	opts.Progress(domain.BatchProgress{
		Model:     mapping.Model().Name,
		Batch:     seq,
		Processed: processed,
		Total:     opts.Total,
	})
}
