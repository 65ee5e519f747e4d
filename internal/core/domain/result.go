package domain

import "fmt"

// UnknownReason is used when the engine does not report why a document failed.
const UnknownReason = "unknown error"

// DocumentError describes one document rejected by the search engine.
type DocumentError struct {
	Action Action
	ID     string
	Status int
	Reason string
}

func (e DocumentError) String() string {
	return fmt.Sprintf("{%s: {_id: %s, status: %d, result: %s}}", e.Action, e.ID, e.Status, e.Reason)
}

// ExecutionResult aggregates the outcome of one target.
type ExecutionResult struct {
	Success int
	Errors  []DocumentError
}

// Merge returns the sum of r and other, other's errors appended after r's.
func (r ExecutionResult) Merge(other ExecutionResult) ExecutionResult {
	errs := make([]DocumentError, 0, len(r.Errors)+len(other.Errors))
	errs = append(errs, r.Errors...)
	errs = append(errs, other.Errors...)
	return ExecutionResult{
		Success: r.Success + other.Success,
		Errors:  errs,
	}
}

// Total returns the number of documents attempted.
func (r ExecutionResult) Total() int {
	return r.Success + len(r.Errors)
}

// ReasonCount is the number of failures sharing a reason.
type ReasonCount struct {
	Reason string
	Count  int
}

// ReasonCounts groups errors by reason, in order of first occurrence.
func (r ExecutionResult) ReasonCounts() []ReasonCount {
	index := make(map[string]int)
	var counts []ReasonCount
	for _, e := range r.Errors {
		reason := e.Reason
		if reason == "" {
			reason = UnknownReason
		}
		if i, ok := index[reason]; ok {
			counts[i].Count++
			continue
		}
		index[reason] = len(counts)
		counts = append(counts, ReasonCount{Reason: reason, Count: 1})
	}
	return counts
}
