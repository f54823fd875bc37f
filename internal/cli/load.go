package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/roach88/grnbind/internal/ir"
	"github.com/roach88/grnbind/internal/status"
)

// LoadRecordsResult reports the records the load command wrote.
type LoadRecordsResult struct {
	Table    string   `json:"table"`
	Inserted int      `json:"inserted"`
	IDs      []uint32 `json:"ids"`
}

// NewLoadCommand creates the load command.
func NewLoadCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "load <table> <file>",
		Short: "Insert records from a YAML or JSON file",
		Long: `Insert a list of records into a table. The file holds a YAML or JSON
list of objects; "_key" sets the record key of keyed tables and every other
field sets the column of that name. An existing key is updated in place.

Example:
  - _key: apple
    body: "Apple pie with cinnamon"
    tags: [dessert, fruit]`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoad(rootOpts, args[0], args[1], cmd)
		},
	}

	return cmd
}

// readRecords decodes a YAML or JSON list of records.
func readRecords(path string) ([]ir.IRObject, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var raw []map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse records: %w", err)
	}
	records := make([]ir.IRObject, len(raw))
	for i, m := range raw {
		rec, err := ir.RecordFromAny(m)
		if err != nil {
			return nil, fmt.Errorf("records[%d]: %w", i, err)
		}
		records[i] = rec
	}
	return records, nil
}

func runLoad(opts *RootOptions, tableName, path string, cmd *cobra.Command) error {
	if err := opts.resolve(cmd); err != nil {
		return err
	}
	formatter := opts.formatter(cmd)

	records, err := readRecords(path)
	if err != nil {
		_ = formatter.Error(ErrCodeReadFailed, err.Error(), nil)
		return WrapExitError(ExitCommandError, "reading "+path, err)
	}

	sess, err := opts.open(cmd, "")
	if err != nil {
		return err
	}
	defer sess.Close()

	table, err := sess.ctx.Lookup(tableName)
	if err != nil {
		return formatter.Fail("looking up "+tableName, err)
	}
	if !table.IsTable() {
		return formatter.Fail("loading", fmt.Errorf("%w: %s is not a table", status.ErrArgument, tableName))
	}

	result := LoadRecordsResult{Table: table.Name(), IDs: make([]uint32, 0, len(records))}
	err = sess.locks.WithLock(table, func() error {
		for i, rec := range records {
			id, err := table.Insert(rec)
			if err != nil {
				return fmt.Errorf("records[%d]: %w", i, err)
			}
			result.IDs = append(result.IDs, uint32(id))
		}
		return nil
	})
	result.Inserted = len(result.IDs)
	if err != nil {
		return formatter.Fail("loading "+tableName, err)
	}
	formatter.VerboseLog("Inserted %d record(s) into %s", result.Inserted, result.Table)

	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	fmt.Fprintf(formatter.Writer, "✓ Loaded %d record(s) into %s\n", result.Inserted, result.Table)
	return nil
}
