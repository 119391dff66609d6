package main

import (
	"os"

	"github.com/goliatone/go-cba/cmd/cba/commands"
)

// Version information - set during build
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.SetVersionInfo(version, commit, date)

	// Errors are printed by the printer package before returning.
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
