package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"
)

// TypesResult lists the stored contract state types and the interfaces
// they resolve to.
type TypesResult struct {
	Types      []string            `json:"types"`
	Interfaces map[string][]string `json:"interfaces"`
}

// NewTypesCommand creates the types command.
func NewTypesCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "types",
		Short: "List stored contract state types",
		Long: `List the distinct contract state types recorded in the vault and the
interface to concrete type mapping used to expand type filters.

Examples:
  vaultq types
  vaultq types --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTypes(rootOpts, cmd)
		},
	}
	return cmd
}

func runTypes(opts *RootOptions, cmd *cobra.Command) error {
	out := opts.formatter(cmd)

	st, svc, err := opts.openService()
	if err != nil {
		return err
	}
	defer st.Close()

	stored, err := st.DistinctContractStateTypes(cmd.Context())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list contract state types", err)
	}
	mapping, err := svc.TypeMapping(cmd.Context())
	if err != nil {
		return out.Fail(ExitFailure, err)
	}

	result := TypesResult{Types: stored, Interfaces: mapping}
	if opts.Format == "json" {
		return out.Success(result)
	}

	w := cmd.OutOrStdout()
	if len(stored) == 0 {
		fmt.Fprintln(w, "No states recorded.")
		return nil
	}
	fmt.Fprintln(w, "Types:")
	for _, t := range stored {
		fmt.Fprintf(w, "  %s\n", t)
	}
	ifaces := make([]string, 0, len(mapping))
	for iface := range mapping {
		ifaces = append(ifaces, iface)
	}
	sort.Strings(ifaces)
	fmt.Fprintln(w, "Interfaces:")
	for _, iface := range ifaces {
		fmt.Fprintf(w, "  %s: %s\n", iface, strings.Join(mapping[iface], ", "))
	}
	return nil
}
