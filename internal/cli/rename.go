package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// RenameResult reports a rename.
type RenameResult struct {
	OldName string `json:"old_name"`
	Name    string `json:"name"`
}

// NewRenameCommand creates the rename command.
func NewRenameCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <name> <new-name>",
		Short: "Rename a table or column",
		Long: `Rename a table or column. A column's new name is its local name within
its table ("grnbind rename Items.body text" yields Items.text). Renaming onto
an existing name fails and leaves both objects unchanged.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRename(rootOpts, args[0], args[1], cmd)
		},
	}
}

func runRename(opts *RootOptions, name, newName string, cmd *cobra.Command) error {
	if err := opts.resolve(cmd); err != nil {
		return err
	}
	formatter := opts.formatter(cmd)

	sess, err := opts.open(cmd, "")
	if err != nil {
		return err
	}
	defer sess.Close()

	obj, err := sess.ctx.Lookup(name)
	if err != nil {
		return formatter.Fail("looking up "+name, err)
	}
	err = sess.locks.WithLock(obj, func() error {
		return obj.Rename(newName)
	})
	if err != nil {
		return formatter.Fail("renaming "+name, err)
	}

	res := RenameResult{OldName: name, Name: obj.Name()}
	if formatter.Format == "json" {
		return formatter.Success(res)
	}
	fmt.Fprintf(formatter.Writer, "✓ Renamed %s to %s\n", res.OldName, res.Name)
	return nil
}
