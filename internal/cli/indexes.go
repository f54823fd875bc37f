package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/grnbind/internal/native"
	"github.com/roach88/grnbind/internal/status"
)

// IndexInfo is one index column over a searched column.
type IndexInfo struct {
	Name    string `json:"name"`
	Section uint32 `json:"section"`
}

// IndexesResult lists the indexes of a column.
type IndexesResult struct {
	Column   string      `json:"column"`
	Operator string      `json:"operator,omitempty"`
	Indexes  []IndexInfo `json:"indexes"`
}

// NewIndexesCommand creates the indexes command.
func NewIndexesCommand(rootOpts *RootOptions) *cobra.Command {
	var operator string

	cmd := &cobra.Command{
		Use:   "indexes <column>",
		Short: "List the index columns that index a column",
		Long: `List the index columns whose sources include a column, with the section
of the column within each multi-source index. With --operator, only indexes
able to serve that operator are listed: match needs a tokenizing lexicon,
prefix and range operators need a patricia or double array lexicon.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIndexes(rootOpts, args[0], operator, cmd)
		},
	}

	cmd.Flags().StringVar(&operator, "operator", "", "only indexes usable with this operator (match|prefix|equal|less|...)")

	return cmd
}

func runIndexes(opts *RootOptions, name, operator string, cmd *cobra.Command) error {
	if err := opts.resolve(cmd); err != nil {
		return err
	}
	formatter := opts.formatter(cmd)

	var op native.Operator
	if operator != "" {
		parsed, ok := native.ParseOperator(operator)
		if !ok {
			return formatter.Fail("indexes", fmt.Errorf("%w: unknown operator %q", status.ErrArgument, operator))
		}
		op = parsed
	}

	sess, err := opts.open(cmd, "")
	if err != nil {
		return err
	}
	defer sess.Close()

	col, err := sess.ctx.Lookup(name)
	if err != nil {
		return formatter.Fail("looking up "+name, err)
	}
	found, err := col.FindIndexes(op)
	if err != nil {
		return formatter.Fail("finding indexes of "+name, err)
	}

	res := IndexesResult{Column: displayName(col), Operator: operator, Indexes: make([]IndexInfo, len(found))}
	for i, ix := range found {
		res.Indexes[i] = IndexInfo{Name: ix.Column.Name(), Section: ix.Section}
	}

	if formatter.Format == "json" {
		return formatter.Success(res)
	}
	fmt.Fprintf(formatter.Writer, "%d index(es) on %s\n", len(res.Indexes), res.Column)
	for _, ix := range res.Indexes {
		if ix.Section > 0 {
			fmt.Fprintf(formatter.Writer, "  %s (section %d)\n", ix.Name, ix.Section)
			continue
		}
		fmt.Fprintf(formatter.Writer, "  %s\n", ix.Name)
	}
	return nil
}
