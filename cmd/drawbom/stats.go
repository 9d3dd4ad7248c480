package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"
)

var statsJSON bool

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show feedback counters and current signal weights",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		svc, err := newService(cfg)
		if err != nil {
			return err
		}

		stats := svc.FeedbackStats()

		if statsJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(stats)
		}

		fmt.Printf("Feedback events: %d\n", stats.Count)
		fmt.Printf("Correct ratio:   %.2f\n\n", stats.CorrectRatio)
		fmt.Println("Signal weights:")

		names := make([]string, 0, len(stats.Weights))
		for name := range stats.Weights {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Printf("  %-32s %.4f", name, stats.Weights[name])
			if n := stats.Support[name]; n > 0 {
				fmt.Printf("  (%d events)", n)
			}
			fmt.Println()
		}
		return nil
	},
}

func init() {
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "emit statistics as JSON")
}
