// Package main is the entry point for wxctl, the flightwx command line tool.
package main

import (
	"os"

	"flightwx/cmd/cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
