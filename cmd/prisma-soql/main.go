// Package main is the entry point for the prisma-soql CLI.
package main

import (
	"os"

	"github.com/satishbabariya/prisma-soql/cmd/prisma-soql/commands"
	"github.com/satishbabariya/prisma-soql/internal/ui"
)

var (
	// Version information (set by build)
	Version = "dev"
	Commit  = "unknown"
)

func main() {
	if err := commands.NewRootCommand(Version, Commit).Execute(); err != nil {
		ui.PrintError("%v", err)
		os.Exit(1)
	}
}
