package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/grnbind/internal/binding"
	"github.com/roach88/grnbind/internal/ir"
	"github.com/roach88/grnbind/internal/native"
	"github.com/roach88/grnbind/internal/search"
	"github.com/roach88/grnbind/internal/status"
)

// SelectOptions holds flags for the select command.
type SelectOptions struct {
	*RootOptions
	Operator        string
	Syntax          string
	Name            string
	AllowPragma     bool
	AllowColumn     bool
	AllowUpdate     bool
	AllowLeadingNot bool
	Snippets        bool
	Open            string
	Close           string
}

// SelectHit is one record of a select result.
type SelectHit struct {
	Key      string   `json:"key"`
	Score    int64    `json:"score"`
	Snippets []string `json:"snippets,omitempty"`
}

// SelectResult is the output of the select command.
type SelectResult struct {
	Target   string      `json:"target"`
	Query    string      `json:"query,omitempty"`
	Operator string      `json:"operator"`
	Keywords []string    `json:"keywords,omitempty"`
	Count    int         `json:"count"`
	Hits     []SelectHit `json:"hits"`
}

// NewSelectCommand creates the select command.
func NewSelectCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SelectOptions{RootOptions: rootOpts}
	defaults := search.DefaultOptions()

	cmd := &cobra.Command{
		Use:   "select <column|table> [query]",
		Short: "Search a column or table",
		Long: `Match a query against a column, or against a table's default text,
and print the matched records with their scores. Without a query every
record of the table matches.

Query syntax (default):  apple "cinnamon roll" -pear  body:@pie  price:>10
Script syntax:           body @ "apple" && price < 10

Examples:
  grnbind select Items.body apple
  grnbind select Items --syntax script 'body @ "pie" || tags @ "fruit"'
  grnbind select Items.body 'apple pie' --snippets`,
		Args:          cobra.RangeArgs(1, 2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			query := ""
			if len(args) == 2 {
				query = args[1]
			}
			return runSelect(opts, args[0], query, len(args) == 2, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Operator, "operator", defaults.Operator.String(), "merge operator (or|and|and_not|adjust)")
	cmd.Flags().StringVar(&opts.Syntax, "syntax", defaults.Syntax.String(), "query grammar (query|script)")
	cmd.Flags().StringVar(&opts.Name, "name", "", "label attached to the compiled expression")
	cmd.Flags().BoolVar(&opts.AllowPragma, "allow-pragma", defaults.AllowPragma, "parse *D pragmas in query syntax")
	cmd.Flags().BoolVar(&opts.AllowColumn, "allow-column", defaults.AllowColumn, "parse column:value qualifiers in query syntax")
	cmd.Flags().BoolVar(&opts.AllowUpdate, "allow-update", defaults.AllowUpdate, "allow assignments in script syntax")
	cmd.Flags().BoolVar(&opts.AllowLeadingNot, "allow-leading-not", defaults.AllowLeadingNot, "allow a leading -term in query syntax")
	cmd.Flags().BoolVar(&opts.Snippets, "snippets", false, "print highlighted excerpts of the searched column")
	cmd.Flags().StringVar(&opts.Open, "open", "[", "snippet highlight start marker")
	cmd.Flags().StringVar(&opts.Close, "close", "]", "snippet highlight end marker")

	return cmd
}

// searchOptions converts the flags into select options.
func (o *SelectOptions) searchOptions() (search.Options, error) {
	opts := search.DefaultOptions()
	op, ok := native.ParseOperator(o.Operator)
	if !ok || !op.IsMerge() {
		return opts, fmt.Errorf("%w: unknown operator %q", status.ErrArgument, o.Operator)
	}
	syntax, ok := native.ParseSyntax(o.Syntax)
	if !ok {
		return opts, fmt.Errorf("%w: unknown syntax %q", status.ErrArgument, o.Syntax)
	}
	opts.Operator = op
	opts.Syntax = syntax
	opts.Name = o.Name
	opts.AllowPragma = o.AllowPragma
	opts.AllowColumn = o.AllowColumn
	opts.AllowUpdate = o.AllowUpdate
	opts.AllowLeadingNot = o.AllowLeadingNot
	return opts, nil
}

func runSelect(opts *SelectOptions, targetName, query string, hasQuery bool, cmd *cobra.Command) error {
	if err := opts.resolve(cmd); err != nil {
		return err
	}
	formatter := opts.formatter(cmd)

	searchOpts, err := opts.searchOptions()
	if err != nil {
		return formatter.Fail("select", err)
	}

	sess, err := opts.open(cmd, "")
	if err != nil {
		return err
	}
	defer sess.Close()

	target, err := sess.ctx.Lookup(targetName)
	if err != nil {
		return formatter.Fail("looking up "+targetName, err)
	}
	if opts.Snippets && !target.IsDataColumn() {
		return formatter.Fail("select", fmt.Errorf("%w: --snippets needs a data column, %s is not one", status.ErrArgument, targetName))
	}

	cond := search.All()
	if hasQuery {
		cond = search.Query(query)
	}
	res, err := search.Select(target, cond, &searchOpts)
	if err != nil {
		return formatter.Fail("select", err)
	}
	defer res.Drop()

	out, err := describeResult(target, res, opts)
	if err != nil {
		return formatter.Fail("reading result", err)
	}
	out.Query = query
	out.Operator = searchOpts.Operator.String()
	return outputSelect(formatter, out)
}

// describeResult collects the hits of res, with snippets of the target
// column when requested.
func describeResult(target *binding.Object, res *search.Result, opts *SelectOptions) (SelectResult, error) {
	out := SelectResult{Target: displayName(target), Hits: []SelectHit{}}
	if expr := res.Expression(); expr != nil {
		kws, err := expr.Keywords()
		if err != nil {
			return out, err
		}
		out.Keywords = kws
	}

	recs, err := res.Records()
	if err != nil {
		return out, err
	}
	var ids map[string]native.ID
	if opts.Snippets && res.Expression() != nil {
		if ids, err = sourceIDs(target); err != nil {
			return out, err
		}
	}
	for _, rec := range recs {
		hit := SelectHit{Key: ir.Text(rec.Key), Score: rec.Score}
		if id, ok := ids[hit.Key]; ok {
			if hit.Snippets, err = snippetsFor(target, res.Expression(), id, opts); err != nil {
				return out, err
			}
		}
		out.Hits = append(out.Hits, hit)
	}
	out.Count = len(out.Hits)
	return out, nil
}

// sourceIDs maps the keys of the searched table, as result keys print
// them, to record ids.
func sourceIDs(column *binding.Object) (map[string]native.ID, error) {
	table, err := column.Table()
	if err != nil {
		return nil, err
	}
	recs, err := table.Records()
	if err != nil {
		return nil, err
	}
	ids := make(map[string]native.ID, len(recs))
	for _, rec := range recs {
		key := ir.Text(ir.IRInt(rec.ID))
		if rec.Key != nil {
			key = ir.Text(rec.Key)
		}
		ids[key] = rec.ID
	}
	return ids, nil
}

func snippetsFor(column *binding.Object, expr *search.Expression, id native.ID, opts *SelectOptions) ([]string, error) {
	v, err := column.Value(id)
	if err != nil {
		return nil, err
	}
	var texts []string
	switch val := v.(type) {
	case ir.IRString:
		texts = []string{string(val)}
	case ir.IRArray:
		for _, elem := range val {
			if s, ok := elem.(ir.IRString); ok {
				texts = append(texts, string(s))
			}
		}
	}
	var out []string
	for _, text := range texts {
		snips, err := expr.Snippet(text, opts.Open, opts.Close)
		if err != nil {
			return nil, err
		}
		out = append(out, snips...)
	}
	return out, nil
}

// displayName is the full name of o, or its local name for accessors.
func displayName(o *binding.Object) string {
	if o.Name() != "" {
		return o.Name()
	}
	return o.LocalName()
}

func outputSelect(formatter *OutputFormatter, out SelectResult) error {
	if formatter.Format == "json" {
		return formatter.Success(out)
	}
	w := formatter.Writer
	fmt.Fprintf(w, "%d record(s) from %s\n", out.Count, out.Target)
	for _, hit := range out.Hits {
		fmt.Fprintf(w, "  %s\tscore=%d\n", hit.Key, hit.Score)
		for _, s := range hit.Snippets {
			fmt.Fprintf(w, "    %s\n", s)
		}
	}
	return nil
}
