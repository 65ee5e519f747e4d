package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/searchsync/internal/core/domain"
	"github.com/custodia-labs/searchsync/internal/core/ports/driving"
)

var (
	indexForce       bool
	indexIgnoreError bool
)

var indexCmd = &cobra.Command{
	Use:   "index {create,delete,rebuild,update} [INDEX...]",
	Short: "Manage search indices",
	Long: `Creates, deletes, rebuilds or updates the mapping of indices.
Every registered index is targeted when no INDEX is given.`,
	Args:      cobra.MinimumNArgs(1),
	ValidArgs: []string{"create", "delete", "rebuild", "update"},
	RunE:      runIndex,
}

func init() {
	indexCmd.Flags().BoolVar(&indexForce, "force", false, "do not ask for confirmation")
	indexCmd.Flags().BoolVar(&indexIgnoreError, "ignore-error", false, "carry on with other indices when one fails")
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	action, err := domain.ParseAction(args[0], domain.IndexActions)
	if err != nil {
		return err
	}

	svc, err := loadServices(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	reporter := NewReporter(out, verbosity, stylesFor(out))
	confirm := newConfirmer(reporter, input, out, indexForce, verbosity > 0)

	req := driving.IndexRequest{
		Action:      action,
		Names:       args[1:],
		IgnoreError: indexIgnoreError,
	}
	return svc.Indices.Apply(ctx, req, confirm, reporter.IndexOutcome)
}
