// Package main provides the entry point for the kdex CLI.
package main

import (
	"os"

	"github.com/kdex-dev/kdex/cmd/kdex/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
