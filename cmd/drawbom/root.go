package main

import (
	"log"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/lucaspbik/drawbom/internal/bom"
	"github.com/lucaspbik/drawbom/internal/config"
)

var v = viper.New()

var rootCmd = &cobra.Command{
	Use:   "drawbom",
	Short: "Bill-of-materials extraction from technical drawing PDFs",
	Long: `Drawbom extracts bills of materials from technical drawing PDFs.

It detects tabular BOM blocks by their header rows, interprets loose
callouts and free-text part listings when no table exists, and infers
parts from repeated vector geometry as a last resort. Every extracted
item carries a confidence score whose signal weights adapt to recorded
user feedback.`,
	Version:       buildVersion,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	log.SetFlags(0)

	config.SetDefaults(v)

	pf := rootCmd.PersistentFlags()
	pf.String("state-dir", config.DefaultConfig().StateDir, "directory for feedback events and weight snapshots")
	pf.String("synonyms", "", "YAML file with extra table header synonyms")
	pf.Float64("learning-rate", 0, "feedback weight update rate (0 = built-in default)")
	pf.String("loglevel", config.DefaultLogLevel, "log level (debug, info, warn, error)")
	pf.Int64("max-file-size", config.DefaultMaxFileSize, "maximum PDF file size in bytes")

	cobra.CheckErr(v.BindPFlag("statedir", pf.Lookup("state-dir")))
	cobra.CheckErr(v.BindPFlag("synonyms", pf.Lookup("synonyms")))
	cobra.CheckErr(v.BindPFlag("learningrate", pf.Lookup("learning-rate")))
	cobra.CheckErr(v.BindPFlag("loglevel", pf.Lookup("loglevel")))
	cobra.CheckErr(v.BindPFlag("maxfilesize", pf.Lookup("max-file-size")))

	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(feedbackCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig resolves the effective configuration for a command run.
func loadConfig() (*config.Config, error) {
	return config.Load(v)
}

// newService builds the shared application service from the configuration.
func newService(cfg *config.Config) (*bom.Service, error) {
	return bom.NewService(bom.ServiceConfig{
		StateDir:     cfg.StateDir,
		MaxFileSize:  cfg.MaxFileSize,
		SynonymsPath: cfg.SynonymsPath,
		LearningRate: cfg.LearningRate,
	})
}
