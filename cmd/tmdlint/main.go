// Package main is the entry point for the tmdlint CLI.
package main

import (
	"os"

	"github.com/modelstack-labs/tmdlint/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
