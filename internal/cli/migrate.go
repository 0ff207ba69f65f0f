package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// MigrateResult reports the schema version after migrating.
type MigrateResult struct {
	Database string `json:"database"`
	Version  int64  `json:"version"`
}

// NewMigrateCommand creates the migrate command.
func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the vault database",
		Long: `Apply pending schema migrations to the vault database and print the
resulting version. Every command that opens the database migrates it
first; this command only does that.

Examples:
  vaultq migrate
  vaultq migrate --database ./vault.db`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(rootOpts, cmd)
		},
	}
	return cmd
}

func runMigrate(opts *RootOptions, cmd *cobra.Command) error {
	out := opts.formatter(cmd)

	st, err := opts.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	version, err := st.MigrationVersion(cmd.Context())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read migration version", err)
	}
	opts.Log.Info().Int64("version", version).Msg("database migrated")

	result := MigrateResult{Database: opts.Config.Database, Version: version}
	if opts.Format == "json" {
		return out.Success(result)
	}
	return out.Success(fmt.Sprintf("✓ %s at schema version %d", result.Database, result.Version))
}
