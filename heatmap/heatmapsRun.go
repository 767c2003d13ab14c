package heatmap

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/gmaffy/gd-reports/derive"
	"github.com/gmaffy/gd-reports/merge"
	"github.com/gmaffy/gd-reports/report"
	"github.com/gmaffy/gd-reports/utils"
)

// BuildTable merges assignments and discoveries with the parsed XML table
// and derives the read fractions.
func BuildTable(cfg utils.Config) (merge.Merged, error) {
	metadata, err := merge.ReadMetadata(cfg.ParsedXML)
	if err != nil {
		return merge.Merged{}, err
	}
	assignments, err := merge.LoadResults(cfg.Assignments, merge.LoadOptions{Category: merge.CategoryAssigned, Progress: cfg.Progress})
	if err != nil {
		return merge.Merged{}, err
	}
	discoveries, err := merge.LoadResults(cfg.Discoveries, merge.LoadOptions{Category: merge.CategoryDiscovered, Progress: cfg.Progress})
	if err != nil {
		return merge.Merged{}, err
	}

	results := merge.AppendResults(assignments, discoveries)
	return derive.Calculate(merge.RightJoin(results, metadata)), nil
}

// HeatmapsRun writes the assigned, discovered and combined heatmaps and the
// data table they are drawn from.
func HeatmapsRun(cfg utils.Config, logger *slog.Logger) error {
	if cfg.ParsedXML == "" {
		return errors.New("no parsed XML table given")
	}
	if cfg.HeatmapA == "" || cfg.HeatmapD == "" || cfg.HeatmapAD == "" || cfg.DataTable == "" {
		return errors.New("heatmap_a, heatmap_d, heatmap_ad and data_table are all required")
	}
	colour := cfg.Colour
	if colour == "" {
		colour = DefaultColour
	}
	logger.Info("HEATMAPS", "PROGRAM", "INITIALISE", "SAMPLE", "ALL", "COLOUR", colour, "STATUS", "STARTED")

	merged, err := BuildTable(cfg)
	if err != nil {
		logger.Error("HEATMAPS", "PROGRAM", "MERGE", "SAMPLE", "ALL", "STATUS", fmt.Sprintf("FAILED - %v", err))
		return err
	}
	logger.Info("HEATMAPS", "PROGRAM", "MERGE", "SAMPLE", "ALL", "ROWS", len(merged.Rows), "STATUS", "COMPLETED")

	maps := []struct {
		category string
		title    string
		output   string
	}{
		{merge.CategoryAssigned, TitleAssigned, cfg.HeatmapA},
		{merge.CategoryDiscovered, TitleDiscovered, cfg.HeatmapD},
		{"", TitleAll, cfg.HeatmapAD},
	}
	for _, m := range maps {
		if err := Render(Subset(merged.Rows, m.category), m.title, colour, m.output); err != nil {
			logger.Error("HEATMAPS", "PROGRAM", "PLOTTING", "SAMPLE", "ALL", "TITLE", m.title, "STATUS", fmt.Sprintf("FAILED - %v", err))
			return err
		}
		logger.Info("HEATMAPS", "PROGRAM", "PLOTTING", "SAMPLE", "ALL", "TITLE", m.title, "OUTPUT", m.output, "STATUS", "COMPLETED")
		fmt.Printf("The heatmap %s has been created and written to: %s\n", m.title, m.output)
	}

	table, err := report.NewTable(merged, report.HeatmapTableColumns(merged), report.TableOptions{})
	if err != nil {
		return err
	}
	if err := table.WriteCSV(cfg.DataTable); err != nil {
		logger.Error("HEATMAPS", "PROGRAM", "WRITE_CSV", "SAMPLE", "ALL", "STATUS", fmt.Sprintf("FAILED - %v", err))
		return err
	}
	logger.Info("HEATMAPS", "PROGRAM", "WRITE_CSV", "SAMPLE", "ALL", "OUTPUT", cfg.DataTable, "ROWS", table.Len(), "STATUS", "COMPLETED")
	fmt.Printf("The table with all the data on which the heatmaps are based has been written to %s\n", cfg.DataTable)
	return nil
}
