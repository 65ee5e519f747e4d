package cli

import (
	"bytes"
	"context"
	"strings"

	"github.com/custodia-labs/searchsync/internal/core/domain"
	"github.com/custodia-labs/searchsync/internal/core/ports/driving"
)

// mockIndexManager records index requests.
type mockIndexManager struct {
	statuses []driving.IndexStatus
	requests []driving.IndexRequest
	outcomes []driving.IndexOutcome
	err      error
	closed   int
}

func (m *mockIndexManager) List(_ context.Context) ([]driving.IndexStatus, error) {
	return m.statuses, m.err
}

func (m *mockIndexManager) Apply(ctx context.Context, req driving.IndexRequest, confirm driving.Confirmer, report func(driving.IndexOutcome)) error {
	m.requests = append(m.requests, req)
	plan := driving.Plan{Kind: driving.PlanIndices, Action: req.Action}
	for _, name := range req.Names {
		plan.Items = append(plan.Items, driving.PlanItem{Index: name})
	}
	ok, err := confirm.Confirm(ctx, plan)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrAborted
	}
	for _, o := range m.outcomes {
		report(o)
	}
	return m.err
}

// mockDocumentManager records document requests and returns canned results.
type mockDocumentManager struct {
	plan     driving.Plan
	results  []driving.TargetResult
	requests []driving.DocumentRequest
	progress []domain.BatchProgress
	err      error
}

func (m *mockDocumentManager) Run(ctx context.Context, req driving.DocumentRequest, confirm driving.Confirmer, progress driving.ProgressFunc) ([]driving.TargetResult, error) {
	m.requests = append(m.requests, req)
	plan := m.plan
	plan.Action = req.Action
	ok, err := confirm.Confirm(ctx, plan)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrAborted
	}
	for _, p := range m.progress {
		progress(p)
	}
	return m.results, m.err
}

// setupTestServices installs mocks and resets command state.
func setupTestServices() (*mockIndexManager, *mockDocumentManager, func()) {
	indices := &mockIndexManager{}
	documents := &mockDocumentManager{}

	origFactory, origInput := factory, input
	factory = func(context.Context, string) (*Services, error) {
		return &Services{
			Indices:   indices,
			Documents: documents,
			Close:     func() error { indices.closed++; return nil },
		}, nil
	}
	input = strings.NewReader("")
	resetFlags()

	return indices, documents, func() {
		factory, input = origFactory, origInput
		resetFlags()
		rootCmd.SetArgs(nil)
	}
}

// resetFlags clears flag values left over by a previous execution.
func resetFlags() {
	docFlags = documentFlags{}
	indexForce, indexIgnoreError = false, false
	verbosity, logFile = 1, ""
}

// execute runs the root command with args and returns stdout.
func execute(args ...string) (string, error) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	if args == nil {
		args = []string{}
	}
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}
