package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// Build information, overridden via -ldflags at release time.
var (
	buildVersion = "dev"
	buildCommit  = "unknown"
	buildDate    = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("drawbom %s\n", buildVersion)
		fmt.Printf("  Go:     %s\n", runtime.Version())
		fmt.Printf("  Commit: %s\n", buildCommit)
		fmt.Printf("  Date:   %s\n", buildDate)
	},
}
