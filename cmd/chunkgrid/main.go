// Command chunkgrid compiles tile rule sets, runs grid scenarios and reads
// render journals.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/chunkgrid/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(cli.GetExitCode(err))
	}
}
