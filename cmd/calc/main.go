// Command calc compiles and runs declarative calculation dictionaries.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/roach88/calc/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
