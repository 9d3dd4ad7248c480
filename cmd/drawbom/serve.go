package main

import (
	"github.com/spf13/cobra"

	"github.com/lucaspbik/drawbom/internal/mcp"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the extraction tools over MCP on stdio",
	Long: `Start a Model Context Protocol server on standard input/output.

The server exposes:
  - bom_extract_file     Extract a bill of materials from a PDF
  - bom_record_feedback  Record a verdict for an extracted item
  - bom_feedback_stats   Show feedback counters and signal weights
  - bom_validate_file    Validate that a file is a processable PDF`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		svc, err := newService(cfg)
		if err != nil {
			return err
		}

		srv, err := mcp.NewServer(cfg, svc, buildVersion)
		if err != nil {
			return err
		}
		return srv.Run(cmd.Context())
	},
}
