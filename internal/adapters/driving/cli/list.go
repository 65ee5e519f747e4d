package cli

import (
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered indices and their state",
	Long: `Lists every registered index grouped by app, marking the ones created
in the search engine with their document count.`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	svc, err := loadServices(ctx)
	if err != nil {
		return err
	}

	statuses, err := svc.Indices.List(ctx)
	if err != nil {
		return err
	}

	NewReporter(cmd.OutOrStdout(), verbosity, stylesFor(cmd.OutOrStdout())).Indices(statuses)
	return nil
}
