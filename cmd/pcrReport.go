/*
Copyright © 2025 Godwin Mafireyi (mafireyi@gmail.com)
*/
package cmd

import (
	"fmt"
	"log"

	"github.com/gmaffy/gd-reports/report"
	"github.com/spf13/cobra"
)

// pcrReportCmd represents the pcrReport command
var pcrReportCmd = &cobra.Command{
	Use:   "pcrReport --parsed_xml <parsed XML csv> --csv <results csv> [--csv ...] --out <report csv>",
	Short: "Writes the PCR/NGS comparison report",
	Long: `pcrReport merges Genome Detective result tables (named <run>_<sample>_results.csv)
with the parsed XML table and writes one row per sample and assignment. PCR fields
are filled with "fill me in" for manual curation; --xlsx also writes a workbook.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := baseConfig(cmd)

		stringFlag(cmd, "parsed_xml", &cfg.ParsedXML)
		stringSliceFlag(cmd, "csv", &cfg.CSVs)
		stringFlag(cmd, "out", &cfg.Output)
		stringFlag(cmd, "xlsx", &cfg.XLSX)

		if cfg.ParsedXML == "" {
			log.Fatal("Please provide the parsed XML table (--parsed_xml)")
		}
		if cfg.Output == "" {
			log.Fatal("Please provide an output file (--out)")
		}

		logger, closeLog := runLogger(cfg)
		defer closeLog()

		fmt.Printf("Merging %d result files with %s ...\n\n", len(cfg.CSVs), cfg.ParsedXML)
		if err := report.PcrReportRun(cfg, logger); err != nil {
			closeLog()
			log.Fatalf("PCR report failed: %v", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(pcrReportCmd)

	// ------------------------------------------------ INPUTS ------------------------------------------------------- //
	pcrReportCmd.Flags().StringP("parsed_xml", "x", "", "Parsed XML table (e.g. tmp/GenomeDetective_results.csv)")
	pcrReportCmd.Flags().StringSlice("csv", nil, "Genome Detective result files, repeat or comma separate")
	// ------------------------------------------------ OUTPUTS ------------------------------------------------------ //
	pcrReportCmd.Flags().StringP("out", "o", "", "Report CSV (e.g. tmp/GenomeDetective-PCR_summary.csv)")
	pcrReportCmd.Flags().String("xlsx", "", "Optional XLSX copy of the report for curation")
}
