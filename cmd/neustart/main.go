// Package main is the entry point for the neustart CLI.
package main

import (
	"os"

	"github.com/neustart-io/neustart/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
