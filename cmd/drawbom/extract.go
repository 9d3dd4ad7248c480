package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lucaspbik/drawbom/internal/bom"
)

var extractJSON bool

var extractCmd = &cobra.Command{
	Use:   "extract <file.pdf>",
	Short: "Extract a bill of materials from a drawing PDF",
	Long: `Extract a bill of materials from a technical drawing PDF.

The result reports the extraction mode: 'table' when a tabular BOM block
was detected, 'interpreted' when the items were synthesized from callouts,
free text and repeated geometry.

Examples:
  drawbom extract drawing.pdf            # human-readable output
  drawbom extract drawing.pdf --json     # machine-readable output`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		svc, err := newService(cfg)
		if err != nil {
			return err
		}

		result, err := svc.ExtractFile(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		if extractJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		}

		printExtractionResult(result)
		return nil
	},
}

func init() {
	extractCmd.Flags().BoolVar(&extractJSON, "json", false, "emit the full result as JSON")
}

func printExtractionResult(result *bom.BOMExtractionResult) {
	fmt.Printf("Extraction %s (mode: %s)\n", result.ExtractionID, result.Mode)
	fmt.Printf("Pages processed: %d", len(result.PagesProcessed))
	if len(result.PagesSkipped) > 0 {
		fmt.Printf("  skipped: %v", result.PagesSkipped)
	}
	fmt.Println()
	if result.TablesAccepted > 0 {
		fmt.Printf("Tables accepted: %d\n", result.TablesAccepted)
	}
	fmt.Printf("Items: %d\n\n", len(result.Items))

	for _, item := range result.Items {
		pos := item.Position
		if pos == "" {
			pos = "-"
		}
		name := item.Description
		if name == "" {
			name = item.PartNumber
		}
		fmt.Printf("%4s  %-40s  qty %g", pos, name, item.Quantity)
		if item.Unit != "" {
			fmt.Printf(" %s", item.Unit)
		}
		fmt.Printf("  conf %.2f  [%s]\n", item.Confidence, item.Key)
	}
}
