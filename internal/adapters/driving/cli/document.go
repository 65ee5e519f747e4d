package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/searchsync/internal/core/domain"
	"github.com/custodia-labs/searchsync/internal/core/ports/driving"
)

// documentFlags holds the options of the document command.
type documentFlags struct {
	database     string
	filters      []string
	excludes     []string
	force        bool
	indices      []string
	objects      []string
	count        int
	parallel     bool
	refresh      bool
	missing      bool
	batchSize    int
	batchType    string
	raiseOnError bool
}

var docFlags documentFlags

var documentCmd = &cobra.Command{
	Use:   "document {index,delete,update}",
	Short: "Index, update or delete documents",
	Long: `Reads records from the database and indexes, updates or deletes the
matching documents.

Filters and excludes take field lookups such as 'date__gte=2024-01-01'.
Values are coerced in this order: empty is null, then float, int, ISO date,
comma-separated list, and string otherwise.`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"index", "delete", "update"},
	RunE:      runDocument,
}

func init() {
	f := documentCmd.Flags()
	f.StringVarP(&docFlags.database, "database", "d", "", "database alias to read records from")
	f.StringArrayVarP(&docFlags.filters, "filters", "f", nil, "keep records matching [Field Lookups]=[value]")
	f.StringArrayVarP(&docFlags.excludes, "excludes", "e", nil, "drop records matching [Field Lookups]=[value]")
	f.BoolVar(&docFlags.force, "force", false, "do not ask for confirmation")
	f.StringSliceVarP(&docFlags.indices, "indices", "i", nil, "only these indices")
	f.StringSliceVarP(&docFlags.objects, "objects", "o", nil, "only these models")
	f.IntVarP(&docFlags.count, "count", "c", 0, "process at most this many records per model")
	f.BoolVarP(&docFlags.parallel, "parallel", "p", false, "submit batches in parallel")
	f.BoolVarP(&docFlags.refresh, "refresh", "r", false, "refresh indices after each batch")
	f.BoolVarP(&docFlags.missing, "missing", "m", false, "only index records absent from the index")
	f.IntVarP(&docFlags.batchSize, "batch-size", "b", 0, "records per batch (default from configuration)")
	f.StringVarP(&docFlags.batchType, "batch-type", "t", "", "batching strategy: offset or pk_filters")
	f.BoolVar(&docFlags.raiseOnError, "raise-on-error", false, "stop a model after a batch with rejected documents")
	rootCmd.AddCommand(documentCmd)
}

func runDocument(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	req, err := docFlags.request(args[0])
	if err != nil {
		return err
	}

	svc, err := loadServices(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	reporter := NewReporter(out, verbosity, stylesFor(out))
	confirm := newConfirmer(reporter, input, out, docFlags.force, verbosity > 0)

	results, err := svc.Documents.Run(ctx, req, confirm, reporter.Progress)
	if len(results) > 0 {
		reporter.Results(req.Action, results)
	}
	return err
}

// request validates the flags into a document request.
func (f documentFlags) request(rawAction string) (driving.DocumentRequest, error) {
	action, err := domain.ParseAction(rawAction, domain.DocumentActions)
	if err != nil {
		return driving.DocumentRequest{}, err
	}
	filters, err := domain.ParseFilters(f.filters)
	if err != nil {
		return driving.DocumentRequest{}, err
	}
	excludes, err := domain.ParseFilters(f.excludes)
	if err != nil {
		return driving.DocumentRequest{}, err
	}
	if f.count < 0 {
		return driving.DocumentRequest{}, fmt.Errorf("%w: --count must not be negative", domain.ErrInvalidInput)
	}
	if f.batchSize < 0 {
		return driving.DocumentRequest{}, fmt.Errorf("%w: --batch-size must not be negative", domain.ErrInvalidInput)
	}
	var batchType domain.BatchType
	if f.batchType != "" {
		if batchType, err = domain.ParseBatchType(f.batchType); err != nil {
			return driving.DocumentRequest{}, err
		}
	}

	return driving.DocumentRequest{
		Action:       action,
		Database:     f.database,
		Filters:      filters,
		Excludes:     excludes,
		Indices:      f.indices,
		Objects:      f.objects,
		Count:        f.count,
		Parallel:     f.parallel,
		Refresh:      f.refresh,
		Missing:      f.missing,
		BatchSize:    f.batchSize,
		BatchType:    batchType,
		RaiseOnError: f.raiseOnError,
	}, nil
}
