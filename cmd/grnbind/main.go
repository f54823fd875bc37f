// Command grnbind drives a search database through its binding layer.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/grnbind/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "grnbind:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
