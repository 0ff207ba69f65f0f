package cli

import (
	"fmt"
	"slices"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/roach88/vaultq/internal/config"
	"github.com/roach88/vaultq/internal/logger"
	"github.com/roach88/vaultq/internal/schema"
	"github.com/roach88/vaultq/internal/store"
	"github.com/roach88/vaultq/internal/vault"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigFile string
	Verbose    bool
	Format     string // "json" | "text"
	Database   string
	LogLevel   string
	LogFormat  string
	Schemas    []string

	// Config and Log are resolved before any subcommand runs.
	Config *config.Config
	Log    zerolog.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the vaultq CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{Log: zerolog.Nop()}

	cmd := &cobra.Command{
		Use:   "vaultq",
		Short: "vaultq - vault state query engine",
		Long:  "Query, seed and test a vault of recorded ledger states.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.resolve(cmd)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.ConfigFile, "config", "", "config file (default vaultq.yaml in the working directory)")
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	flags.StringVar(&opts.Format, "format", config.DefaultOutput, "output format (json|text)")
	flags.StringVar(&opts.Database, "database", config.DefaultDatabase, "path to the vault database")
	flags.StringVar(&opts.LogLevel, "log-level", config.DefaultLogLevel, "log level (trace|debug|info|warn|error|disabled)")
	flags.StringVar(&opts.LogFormat, "log-format", config.DefaultLogFormat, "log format (console|json)")
	flags.StringSliceVar(&opts.Schemas, "schemas", nil, fmt.Sprintf("custom mapped schemas to register %v", schema.KnownSchemaNames()))

	cmd.AddCommand(NewQueryCommand(opts))
	cmd.AddCommand(NewTypesCommand(opts))
	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewSeedCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// resolve layers defaults, config file, environment and flags into
// opts.Config and builds the command logger from it.
func (opts *RootOptions) resolve(cmd *cobra.Command) error {
	if !isValidFormat(opts.Format) {
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
	}

	cfg, err := config.Load(opts.ConfigFile, cmd.Flags())
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}
	opts.Config = cfg
	opts.Format = cfg.Output
	opts.Verbose = cfg.Verbose || opts.Verbose

	level := cfg.LogLevel
	if opts.Verbose {
		level = "debug"
	}
	opts.Log = logger.New(logger.Options{
		Level:   level,
		Format:  cfg.LogFormat,
		Service: "vaultq",
		Writer:  cmd.ErrOrStderr(),
	})
	opts.Log.Debug().
		Str("database", cfg.Database).
		Strs("schemas", cfg.Schemas).
		Msg("configuration loaded")
	return nil
}

// formatter returns an OutputFormatter bound to cmd's writers.
func (opts *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}

// openStore opens the configured database with pending migrations applied.
func (opts *RootOptions) openStore() (*store.Store, error) {
	st, err := store.Open(opts.Config.Database,
		store.WithBusyTimeout(opts.Config.BusyTimeout),
		store.WithLogger(opts.Log.With().Str("component", "store").Logger()),
	)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, fmt.Sprintf("failed to open database %s", opts.Config.Database), err)
	}
	return st, nil
}

// openService opens the store and builds a vault service over it with the
// configured schemas. The caller closes the store.
func (opts *RootOptions) openService() (*store.Store, *vault.Service, error) {
	schemas, err := schema.NewRegistry(opts.Config.Schemas...)
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "failed to register schemas", err)
	}
	st, err := opts.openStore()
	if err != nil {
		return nil, nil, err
	}
	svc := vault.NewService(st, schemas, schema.DefaultTypes(),
		vault.WithLogger(opts.Log.With().Str("component", "vault").Logger()))
	return st, svc, nil
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
