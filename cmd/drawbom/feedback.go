package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lucaspbik/drawbom/internal/bom"
)

var feedbackCmd = &cobra.Command{
	Use:   "feedback <item-key> <correct|needs_review>",
	Short: "Record a verdict for an extracted item",
	Long: `Record a user verdict for an item from a previous extraction.

Verdicts adapt the confidence signal weights: 'correct' reinforces the
signals that produced the item, 'needs_review' weakens them. Every verdict
is appended to the feedback event log in the state directory.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		svc, err := newService(cfg)
		if err != nil {
			return err
		}

		if err := svc.RecordFeedback(args[0], bom.Verdict(args[1])); err != nil {
			return err
		}
		if err := svc.SnapshotState(); err != nil {
			return fmt.Errorf("feedback recorded but snapshot failed: %w", err)
		}
		fmt.Printf("Recorded verdict %q for item %s\n", args[1], args[0])
		return nil
	},
}
