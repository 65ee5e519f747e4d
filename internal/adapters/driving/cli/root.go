// Package cli implements the searchsync command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/searchsync/internal/core/domain"
	"github.com/custodia-labs/searchsync/internal/core/ports/driving"
	"github.com/custodia-labs/searchsync/internal/logger"
)

// ConfigEnv overrides the default configuration path.
const ConfigEnv = "SEARCHSYNC_CONFIG"

const defaultConfigPath = "searchsync.toml"

var version = "dev"

// Services are the use cases driven by the commands.
type Services struct {
	Indices   driving.IndexManager
	Documents driving.DocumentManager

	// Close releases engine and store connections. May be nil.
	Close func() error
}

// ServiceFactory builds the services from the configuration at path.
type ServiceFactory func(ctx context.Context, configPath string) (*Services, error)

var (
	configPath string
	verbosity  int
	logFile    string

	factory  ServiceFactory
	services *Services

	// input is where confirmation answers are read from.
	input io.Reader = os.Stdin
)

var errMissingCommand = errors.New("a command is required")

var rootCmd = &cobra.Command{
	Use:   "searchsync",
	Short: "Synchronise relational records into search indices",
	Long: `searchsync keeps search-engine indices in step with relational tables.

Indices and the models feeding them are declared in a TOML configuration
file. Use 'index' to manage indices and 'document' to index, update or
delete the documents built from your records.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	RunE: func(cmd *cobra.Command, _ []string) error {
		_ = cmd.Usage()
		return errMissingCommand
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", configDefault(),
		"configuration file (env "+ConfigEnv+")")
	rootCmd.PersistentFlags().IntVarP(&verbosity, "verbosity", "v", 1,
		"verbosity level: 0 silent, 1 normal, 2 verbose, 3 debug")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "append JSON logs to this file")
}

func configDefault() string {
	if p := os.Getenv(ConfigEnv); p != "" {
		return p
	}
	return defaultConfigPath
}

// SetServiceFactory sets how services are built once flags are parsed.
func SetServiceFactory(f ServiceFactory) {
	factory = f
}

// SetVersion sets the version printed by the version command.
func SetVersion(v string) {
	version = v
}

// Execute runs the root command and returns the process exit code.
// Errors are printed as "error: <msg>", followed by the document usage
// for malformed filters; a declined confirmation prints "Aborted.".
func Execute(ctx context.Context) int {
	err := rootCmd.ExecuteContext(ctx)
	if closeErr := shutdown(); closeErr != nil {
		logger.Warn("shutdown: %v", closeErr)
	}
	if err == nil {
		return 0
	}
	switch {
	case errors.Is(err, domain.ErrAborted):
		fmt.Fprintln(rootCmd.ErrOrStderr(), "Aborted.")
	case errors.Is(err, context.Canceled):
		fmt.Fprintln(rootCmd.ErrOrStderr(), "error: interrupted")
	default:
		fmt.Fprintf(rootCmd.ErrOrStderr(), "error: %v\n", err)
		var malformed *domain.MalformedFilterError
		if errors.As(err, &malformed) {
			fmt.Fprint(rootCmd.ErrOrStderr(), documentCmd.UsageString())
		}
	}
	return 1
}

func setup(cmd *cobra.Command, _ []string) error {
	if verbosity < 0 || verbosity > 3 {
		return fmt.Errorf("%w: verbosity must be between 0 and 3", domain.ErrInvalidInput)
	}
	services = nil
	logger.SetOutput(cmd.ErrOrStderr())
	logger.SetVerbose(verbosity >= 3)
	if err := logger.SetLogFile(logFile); err != nil {
		return err
	}
	logger.SetAttrs("run_id", uuid.NewString(), "command", cmd.CommandPath())
	logger.Debug("using configuration %s", configPath)
	return nil
}

// shutdown releases the services and the log file.
func shutdown() error {
	var errs []error
	if services != nil && services.Close != nil {
		errs = append(errs, services.Close())
	}
	services = nil
	errs = append(errs, logger.Close())
	return errors.Join(errs...)
}

// loadServices builds the services on first use.
func loadServices(ctx context.Context) (*Services, error) {
	if services != nil {
		return services, nil
	}
	if factory == nil {
		return nil, errors.New("services not configured")
	}
	s, err := factory(ctx, configPath)
	if err != nil {
		return nil, err
	}
	services = s
	return s, nil
}
