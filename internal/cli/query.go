package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/vaultq/internal/criteria"
	"github.com/roach88/vaultq/internal/querydoc"
	"github.com/roach88/vaultq/internal/vault"
	"github.com/roach88/vaultq/internal/vaulterr"
)

// QueryOptions holds flags for the query command.
type QueryOptions struct {
	*RootOptions
	Criteria     string   // query document path (.yaml, .yml or .cue)
	Page         int      // page number override
	Size         int      // page size override
	Sort         []string // Entity.attribute[:asc|desc], replaces the document sort
	ContractType string   // default contract type override
}

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Query vault states",
		Long: `Run a query document against the vault and print one page of states.

The document holds the criteria tree and optionally a page, a sort and a
default contract type. Flags override the document. When neither sets a
page size the configured page_size applies.

Exit codes:
  0 - Query succeeded
  1 - Query rejected (malformed criteria, unknown attribute, page out of range)
  2 - Command error (document not found, database unavailable, etc.)

Examples:
  vaultq query --criteria unconsumed-cash.yaml --schemas cash.v2
  vaultq query --criteria deals.cue --page 1 --size 50
  vaultq query --criteria all.yaml --sort VaultStates.recordedTime:desc
  vaultq query --criteria all.yaml --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Criteria, "criteria", "c", "", "query document (yaml or cue)")
	cmd.Flags().IntVar(&opts.Page, "page", 0, "page number, starting from 0")
	cmd.Flags().IntVar(&opts.Size, "size", 0, "page size (0 counts matches only)")
	cmd.Flags().StringArrayVar(&opts.Sort, "sort", nil, "sort by Entity.attribute[:asc|desc], repeatable")
	cmd.Flags().StringVar(&opts.ContractType, "type", "", "default contract state type")
	_ = cmd.MarkFlagRequired("criteria")

	return cmd
}

func runQuery(opts *QueryOptions, cmd *cobra.Command) error {
	out := opts.formatter(cmd)

	doc, err := querydoc.Load(opts.Criteria)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return NewExitError(ExitCommandError, fmt.Sprintf("criteria file not found: %s", opts.Criteria))
		}
		return out.Fail(ExitFailure, err)
	}
	q, err := doc.Build()
	if err != nil {
		return out.Fail(ExitFailure, err)
	}
	if err := opts.apply(cmd, doc, q); err != nil {
		return out.Fail(ExitFailure, err)
	}
	out.VerboseLog("Query: %s, type %s, %d sort column(s)", q.Paging, q.ContractType, len(q.Sorting.Columns))

	st, svc, err := opts.openService()
	if err != nil {
		return err
	}
	defer st.Close()

	page, err := svc.QueryBy(cmd.Context(), q.Criteria, q.Paging, q.Sorting, q.ContractType)
	if err != nil {
		return out.Fail(ExitFailure, err)
	}

	if opts.Format == "json" {
		return out.Success(page)
	}
	return outputPageText(cmd, page)
}

// apply layers the command-line overrides onto a built query.
func (opts *QueryOptions) apply(cmd *cobra.Command, doc *querydoc.Document, q *querydoc.Query) error {
	flags := cmd.Flags()
	if doc.Page == nil {
		q.Paging.PageSize = opts.Config.PageSize
	}
	if flags.Changed("page") {
		q.Paging.PageNumber = opts.Page
	}
	if flags.Changed("size") {
		q.Paging.PageSize = opts.Size
	}
	if flags.Changed("type") {
		q.ContractType = opts.ContractType
	}
	if len(opts.Sort) > 0 {
		sorting, err := ParseSort(opts.Sort)
		if err != nil {
			return err
		}
		q.Sorting = sorting
	}
	return nil
}

// ParseSort parses sort terms of the form Entity.attribute[:asc|desc].
// The attribute is everything after the last dot, so entity names may
// themselves contain dots.
func ParseSort(terms []string) (criteria.Sort, error) {
	var sorting criteria.Sort
	for _, term := range terms {
		spec, dirName, _ := strings.Cut(term, ":")
		i := strings.LastIndex(spec, ".")
		if i <= 0 || i == len(spec)-1 {
			return criteria.Sort{}, vaulterr.Malformedf("invalid sort %q: expected Entity.attribute[:asc|desc]", term)
		}
		dir, err := criteria.ParseDirection(dirName)
		if err != nil {
			return criteria.Sort{}, vaulterr.Malformedf("invalid sort %q: %v", term, err)
		}
		sorting.Columns = append(sorting.Columns, criteria.SortColumn{
			Entity:    spec[:i],
			Column:    spec[i+1:],
			Direction: dir,
		})
	}
	return sorting, nil
}

// outputPageText prints the page as a table followed by the totals.
func outputPageText(cmd *cobra.Command, page *vault.Page) error {
	w := cmd.OutOrStdout()

	if len(page.StatesMetadata) > 0 {
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "REF\tTYPE\tSTATUS\tRECORDED\tCONSUMED\tLOCK")
		for _, m := range page.StatesMetadata {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
				m.Ref, m.ContractStateClassName, m.Status,
				m.RecordedTime.Format(time.RFC3339), formatTime(m.ConsumedTime), dash(m.LockID))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	fmt.Fprintf(w, "%d of %d state(s), %s\n", len(page.States), page.TotalStatesAvailable, page.Pageable)
	return nil
}

func formatTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format(time.RFC3339)
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
