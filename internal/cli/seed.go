package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/vaultq/internal/harness"
)

// SeedOptions holds flags for the seed command.
type SeedOptions struct {
	*RootOptions
	Fixture string // fixture file path
}

// SeedResult reports what a fixture added to the vault.
type SeedResult struct {
	Fixture  string `json:"fixture"`
	Recorded int    `json:"recorded"`
	Total    int64  `json:"total"`
}

// NewSeedCommand creates the seed command.
func NewSeedCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SeedOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Record fixture states into the vault",
		Long: `Record the states of a fixture file into the vault database, then
consume and soft-lock the ones the fixture marks.

Timestamps come from the fixture's deterministic clock, so seeding the
same fixture into an empty database always stores the same vault.

Examples:
  vaultq seed --fixture states.yaml
  vaultq seed --fixture states.yaml --database /tmp/vault.db`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Fixture, "fixture", "f", "", "fixture file (yaml)")
	_ = cmd.MarkFlagRequired("fixture")

	return cmd
}

func runSeed(opts *SeedOptions, cmd *cobra.Command) error {
	out := opts.formatter(cmd)

	if _, err := os.Stat(opts.Fixture); os.IsNotExist(err) {
		return NewExitError(ExitCommandError, fmt.Sprintf("fixture file not found: %s", opts.Fixture))
	}
	fixture, err := harness.LoadFixture(opts.Fixture)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load fixture", err)
	}

	st, err := opts.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	n, err := fixture.Apply(cmd.Context(), st, fixture.Clock())
	if err != nil {
		return WrapExitError(ExitFailure, fmt.Sprintf("seeding stopped after %d state(s)", n), err)
	}
	total, err := st.CountStates(cmd.Context())
	if err != nil {
		return WrapExitError(ExitFailure, "failed to count states", err)
	}
	opts.Log.Info().Str("fixture", opts.Fixture).Int("recorded", n).Int64("total", total).Msg("vault seeded")

	result := SeedResult{Fixture: opts.Fixture, Recorded: n, Total: total}
	if opts.Format == "json" {
		return out.Success(result)
	}
	return out.Success(fmt.Sprintf("✓ Recorded %d state(s) from %s (%d in vault)", n, opts.Fixture, total))
}
