package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/grnbind/internal/compiler"
	"github.com/roach88/grnbind/internal/ir"
)

// metaSchemaHash is the store metadata key holding the last applied schema hash.
const metaSchemaHash = "schema_hash"

// SchemaOptions holds flags for the schema command.
type SchemaOptions struct {
	*RootOptions
	DryRun bool
}

// SchemaResult lists what the schema command created.
type SchemaResult struct {
	Tables     int      `json:"tables"`
	SchemaHash string   `json:"schema_hash"`
	Created    []string `json:"created"`
	DryRun     bool     `json:"dry_run,omitempty"`
}

// NewSchemaCommand creates the schema command.
func NewSchemaCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SchemaOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "schema <schema-dir>",
		Short: "Create the tables, columns and indexes of a CUE schema",
		Long: `Compile and validate the CUE schema in a directory, then create every
table, column and index that does not exist yet in the database. Tables
used as key types are created before the tables keyed by them, and index
columns after the columns they index. Existing objects are left as they are.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSchema(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "validate only, create nothing")

	return cmd
}

func runSchema(opts *SchemaOptions, schemaDir string, cmd *cobra.Command) error {
	if err := opts.resolve(cmd); err != nil {
		return err
	}
	formatter := opts.formatter(cmd)

	res, err := LoadSchema(schemaDir)
	if err != nil {
		return outputLoadError(formatter, err)
	}
	formatter.VerboseLog("Found %d CUE file(s) in %s", res.FileCount, schemaDir)

	if errs := compiler.Validate(res.Tables); len(errs) > 0 {
		return outputValidationErrors(formatter, len(res.Tables), errs)
	}
	hash, err := ir.SchemaHash(res.Tables)
	if err != nil {
		return formatter.Fail("hashing schema", err)
	}
	result := SchemaResult{Tables: len(res.Tables), SchemaHash: hash, Created: []string{}, DryRun: opts.DryRun}
	if opts.DryRun {
		return outputSchemaSuccess(formatter, result)
	}

	sess, err := opts.open(cmd, "")
	if err != nil {
		return err
	}
	defer sess.Close()

	created, err := sess.ctx.ApplySchema(res.Tables)
	for _, name := range created {
		formatter.VerboseLog("Created %s", name)
	}
	if err != nil {
		return formatter.Fail("creating schema", err)
	}
	result.Created = append(result.Created, created...)
	if err := sess.store.SetMeta(metaSchemaHash, hash); err != nil {
		return formatter.Fail("recording schema hash", err)
	}
	return outputSchemaSuccess(formatter, result)
}

func outputSchemaSuccess(formatter *OutputFormatter, result SchemaResult) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	if result.DryRun {
		fmt.Fprintf(formatter.Writer, "✓ Schema valid: %d table(s), nothing created\n", result.Tables)
		return nil
	}
	fmt.Fprintf(formatter.Writer, "✓ Applied %d table(s), created %d object(s)\n", result.Tables, len(result.Created))
	fmt.Fprintf(formatter.Writer, "  schema %s\n", result.SchemaHash)
	for _, name := range result.Created {
		fmt.Fprintf(formatter.Writer, "  %s\n", name)
	}
	return nil
}
