package main

import (
	"fmt"
	"os"

	"github.com/rpggio/aoiforge/internal/cli"
)

func main() {
	if err := cli.BuildCLI().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "aoiforge: %v\n", err)
		os.Exit(1)
	}
}
