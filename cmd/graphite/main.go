// Graphite evaluates a small templated expression against a parameter file.
//
// Usage:
//
//	graphite run --params params.hcl [--config graphite.hcl] [--metrics]
//
// The parameter file must define x, w and b. The command builds
// y = sqrt(x·w + b) once as a Graph, replays it with the loaded parameters and
// prints y followed by the allocator statistics.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

// version is set via ldflags at build time.
var version = "dev"

func main() {
	if err := run(os.Stdout, os.Stderr, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run(out, errOut io.Writer, args []string) error {
	rootCmd := &cobra.Command{
		Use:           "graphite",
		Short:         "Graphite tensor engine",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)
	rootCmd.SetArgs(args)

	rootCmd.AddCommand(newRunCmd())

	return rootCmd.Execute()
}
