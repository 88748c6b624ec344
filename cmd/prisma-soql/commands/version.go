package commands

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/satishbabariya/prisma-soql/internal/ui"
)

// NewVersionCommand creates the version command.
func NewVersionCommand(version, commit string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return nil
		},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(ui.Out, "prisma-soql version %s\n", version)
			fmt.Fprintf(ui.Out, "  Git Commit: %s\n", commit)
			fmt.Fprintf(ui.Out, "  Go Version: %s\n", runtime.Version())
			fmt.Fprintf(ui.Out, "  OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}
