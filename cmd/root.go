/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"log"
	"log/slog"
	"os"

	"github.com/gmaffy/gd-reports/utils"
	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "gd-reports",
	Short: "Reports on Genome Detective virus classification results",
	Long: `Report steps for Genome Detective results in a viral metagenomics pipeline:
1.	pcrReport: PCR/NGS comparison table (CSV, optional XLSX for curation)
2.	heatmaps: interactive heatmaps of assignments and discoveries plus their data table
3.	camiProfile: CAMI taxonomic profiles per sample
`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

var cfgFile string
var logFile string
var showProgress bool

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "path to config file (yaml); flags override its values")
	rootCmd.PersistentFlags().StringVarP(&logFile, "log", "l", "", "path to JSON run log (default: text log on stderr)")
	rootCmd.PersistentFlags().BoolVar(&showProgress, "progress", false, "show a progress bar while reading result files")
}

// baseConfig returns the config file values, or an empty config without one,
// with the global flags applied.
func baseConfig(cmd *cobra.Command) utils.Config {
	var cfg utils.Config
	if cfgFile != "" {
		var err error
		cfg, err = utils.ReadConfig(cfgFile, cmd.Name())
		if err != nil {
			log.Fatalf("Error reading config file: %v", err)
		}
	}
	if cmd.Flags().Changed("log") || cfg.LogFile == "" {
		cfg.LogFile = logFile
	}
	if cmd.Flags().Changed("progress") {
		cfg.Progress = showProgress
	}
	return cfg
}

// stringFlag overrides *dst when the flag was given or *dst is still empty.
func stringFlag(cmd *cobra.Command, name string, dst *string) {
	value, err := cmd.Flags().GetString(name)
	if err != nil {
		log.Fatalf("Error getting %s flag: %v", name, err)
	}
	if cmd.Flags().Changed(name) || *dst == "" {
		*dst = value
	}
}

func stringSliceFlag(cmd *cobra.Command, name string, dst *[]string) {
	value, err := cmd.Flags().GetStringSlice(name)
	if err != nil {
		log.Fatalf("Error getting %s flag: %v", name, err)
	}
	if cmd.Flags().Changed(name) || len(*dst) == 0 {
		*dst = value
	}
}

func intFlag(cmd *cobra.Command, name string, dst *int) {
	value, err := cmd.Flags().GetInt(name)
	if err != nil {
		log.Fatalf("Error getting %s flag: %v", name, err)
	}
	if cmd.Flags().Changed(name) || *dst == 0 {
		*dst = value
	}
}

func runLogger(cfg utils.Config) (*slog.Logger, func() error) {
	logger, closeLog, err := utils.NewRunLogger(cfg.LogFile)
	if err != nil {
		log.Fatalf("Error opening log file: %v", err)
	}
	return logger, closeLog
}
