// Command clink runs link queries against a doublet store.
package main

import (
	"fmt"
	"os"

	"github.com/link-foundation/link-cli/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
