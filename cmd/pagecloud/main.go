// Command pagecloud stores page commits in a SQLite journal and serves
// diffs between them.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/pagecloud/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
