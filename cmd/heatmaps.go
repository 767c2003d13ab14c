/*
Copyright © 2025 Godwin Mafireyi (mafireyi@gmail.com)
*/
package cmd

import (
	"log"

	"github.com/gmaffy/gd-reports/heatmap"
	"github.com/spf13/cobra"
)

// heatmapsCmd represents the heatmaps command
var heatmapsCmd = &cobra.Command{
	Use:   "heatmaps --parsed_xml <csv> --assignments <csv>... --discoveries <csv>... [colour]",
	Short: "Draws heatmaps of assigned and discovered taxa",
	Long: `heatmaps merges the assignment and discovery result tables with the parsed XML
table and writes three interactive HTML heatmaps (assignments, discoveries, both)
of the percentage of total reads, plus the data table they are drawn from.
The optional argument sets the heatmap colour (default #6b2d18).`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := baseConfig(cmd)

		stringFlag(cmd, "parsed_xml", &cfg.ParsedXML)
		stringSliceFlag(cmd, "assignments", &cfg.Assignments)
		stringSliceFlag(cmd, "discoveries", &cfg.Discoveries)
		stringFlag(cmd, "heatmap_a", &cfg.HeatmapA)
		stringFlag(cmd, "heatmap_d", &cfg.HeatmapD)
		stringFlag(cmd, "heatmap_ad", &cfg.HeatmapAD)
		stringFlag(cmd, "data_table", &cfg.DataTable)
		if len(args) == 1 {
			cfg.Colour = args[0]
		}

		if cfg.ParsedXML == "" {
			log.Fatal("Please provide the parsed XML table (--parsed_xml)")
		}

		logger, closeLog := runLogger(cfg)
		defer closeLog()

		if err := heatmap.HeatmapsRun(cfg, logger); err != nil {
			closeLog()
			log.Fatalf("Heatmaps failed: %v", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(heatmapsCmd)

	// ------------------------------------------------ INPUTS ------------------------------------------------------- //
	heatmapsCmd.Flags().StringP("parsed_xml", "x", "", "Parsed XML table (e.g. tmp/GenomeDetective_results.csv)")
	heatmapsCmd.Flags().StringSliceP("assignments", "A", nil, "Assignment result files")
	heatmapsCmd.Flags().StringSliceP("discoveries", "D", nil, "Discovery result files")
	// ------------------------------------------------ OUTPUTS ------------------------------------------------------ //
	heatmapsCmd.Flags().String("heatmap_a", "results/heatmaps/GenomeDetective_assignments.html", "Heatmap of assignments")
	heatmapsCmd.Flags().String("heatmap_d", "results/heatmaps/GenomeDetective_discoveries.html", "Heatmap of discoveries")
	heatmapsCmd.Flags().String("heatmap_ad", "results/heatmaps/GenomeDetective_assignments_discoveries.html", "Heatmap of assignments and discoveries")
	heatmapsCmd.Flags().String("data_table", "results/heatmaps/GenomeDetective_heatmap_table.csv", "Data table of the heatmaps")
}
