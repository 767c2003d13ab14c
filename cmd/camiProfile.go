/*
Copyright © 2025 Godwin Mafireyi (mafireyi@gmail.com)
*/
package cmd

import (
	"fmt"
	"log"

	"github.com/gmaffy/gd-reports/cami"
	"github.com/gmaffy/gd-reports/taxonomy"
	"github.com/spf13/cobra"
)

// camiProfileCmd represents the camiProfile command
var camiProfileCmd = &cobra.Command{
	Use:   "camiProfile --data_table <heatmap table csv> --taxdump <dir> --sample <run_sample> (--out <tsv> | --out_dir <dir>)",
	Short: "Writes CAMI taxonomic profiles",
	Long: `camiProfile converts the heatmap data table into CAMI profiling format, one file
per sample. Lineages are looked up by scientific name in an NCBI taxdump directory
(nodes.dmp, names.dmp). Without --sample every sample in the table is profiled.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := baseConfig(cmd)

		stringFlag(cmd, "data_table", &cfg.DataTable)
		stringSliceFlag(cmd, "sample", &cfg.Samples)
		stringFlag(cmd, "out", &cfg.Profile)
		stringFlag(cmd, "out_dir", &cfg.ProfileDir)
		stringFlag(cmd, "taxdump", &cfg.Taxdump)
		stringFlag(cmd, "taxonomy_id", &cfg.TaxonomyID)
		intFlag(cmd, "jobs", &cfg.Jobs)

		if cfg.Taxdump == "" {
			log.Fatal("Please provide an NCBI taxdump directory (--taxdump)")
		}

		logger, closeLog := runLogger(cfg)
		defer closeLog()

		fmt.Printf("Reading taxonomy from %s ...\n\n", cfg.Taxdump)
		resolver, err := taxonomy.LoadNCBI(cfg.Taxdump)
		if err != nil {
			closeLog()
			log.Fatalf("Error loading taxonomy: %v", err)
		}

		if err := cami.ProfileRun(cfg, resolver, logger); err != nil {
			closeLog()
			log.Fatalf("CAMI profiling failed: %v", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(camiProfileCmd)

	// ------------------------------------------------ INPUTS ------------------------------------------------------- //
	camiProfileCmd.Flags().StringP("data_table", "i", "", "Heatmap data table")
	camiProfileCmd.Flags().StringSliceP("sample", "s", nil, "Sample key(s) to profile, e.g. 3_1")
	camiProfileCmd.Flags().StringP("taxdump", "t", "", "NCBI taxdump directory")
	camiProfileCmd.Flags().String("taxonomy_id", cami.DefaultTaxonomyID, "Value of the @TaxonomyID header")
	// ------------------------------------------------ OUTPUTS ------------------------------------------------------ //
	camiProfileCmd.Flags().StringP("out", "o", "", "Profile file (single sample)")
	camiProfileCmd.Flags().String("out_dir", "", "Directory for <sample>_GenomeDetective_CAMI-profiling.tsv files")
	// ------------------------------------------------ TOGGLES ------------------------------------------------------ //
	camiProfileCmd.Flags().IntP("jobs", "j", 1, "Profiles written at the same time")
}
