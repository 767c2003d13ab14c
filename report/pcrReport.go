package report

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/gmaffy/gd-reports/derive"
	"github.com/gmaffy/gd-reports/merge"
	"github.com/gmaffy/gd-reports/utils"
)

// BuildPCRReport merges the result files with the parsed XML table and
// returns the PCR/NGS comparison table together with the derived rows.
func BuildPCRReport(cfg utils.Config, logger *slog.Logger) (Table, merge.Merged, error) {
	metadata, err := merge.ReadMetadata(cfg.ParsedXML)
	if err != nil {
		return Table{}, merge.Merged{}, err
	}
	results, err := merge.LoadResults(cfg.CSVs, merge.LoadOptions{Progress: cfg.Progress})
	if err != nil {
		return Table{}, merge.Merged{}, err
	}
	logger.Info("PCR_REPORT", "PROGRAM", "LOAD", "SAMPLE", "ALL", "RESULT_FILES", len(cfg.CSVs), "RESULT_ROWS", len(results.Records), "METADATA_ROWS", len(metadata.Rows), "STATUS", "COMPLETED")

	merged := derive.Calculate(merge.RightJoin(results, metadata))
	for _, missing := range derive.MissingAvailable(merged, derive.PCRFieldKinds) {
		fmt.Printf("%s is a missing column\n", missing)
		logger.Warn("PCR_REPORT", "PROGRAM", "MERGE", "SAMPLE", "ALL", "COLUMN", missing, "STATUS", "MISSING")
	}

	table, err := NewTable(merged, PCRReportColumns, TableOptions{
		Renames:      PCRRenames,
		Placeholders: derive.ManualFields,
		Placeholder:  derive.Placeholder,
	})
	if err != nil {
		return Table{}, merge.Merged{}, err
	}
	return table, merged, nil
}

// PcrReportRun writes the PCR/NGS comparison report to cfg.Output and, when
// cfg.XLSX is set, a curation workbook.
func PcrReportRun(cfg utils.Config, logger *slog.Logger) error {
	if cfg.ParsedXML == "" {
		return errors.New("no parsed XML table given")
	}
	if cfg.Output == "" {
		return errors.New("no output file given")
	}
	logger.Info("PCR_REPORT", "PROGRAM", "INITIALISE", "SAMPLE", "ALL", "STATUS", "STARTED")

	table, merged, err := BuildPCRReport(cfg, logger)
	if err != nil {
		logger.Error("PCR_REPORT", "PROGRAM", "MERGE", "SAMPLE", "ALL", "STATUS", fmt.Sprintf("FAILED - %v", err))
		return err
	}

	if err := table.WriteCSV(cfg.Output); err != nil {
		logger.Error("PCR_REPORT", "PROGRAM", "WRITE_CSV", "SAMPLE", "ALL", "STATUS", fmt.Sprintf("FAILED - %v", err))
		return err
	}
	logger.Info("PCR_REPORT", "PROGRAM", "WRITE_CSV", "SAMPLE", "ALL", "OUTPUT", cfg.Output, "ROWS", table.Len(), "STATUS", "COMPLETED")

	if cfg.XLSX != "" {
		if err := table.WriteXLSX(cfg.XLSX, DefaultSheet); err != nil {
			logger.Error("PCR_REPORT", "PROGRAM", "WRITE_XLSX", "SAMPLE", "ALL", "STATUS", fmt.Sprintf("FAILED - %v", err))
			return err
		}
		logger.Info("PCR_REPORT", "PROGRAM", "WRITE_XLSX", "SAMPLE", "ALL", "OUTPUT", cfg.XLSX, "STATUS", "COMPLETED")
	}

	for _, run := range Summarize(merged) {
		logger.Info("PCR_REPORT", "PROGRAM", "SUMMARY", "RUN", run.RunID, "SAMPLES", run.Samples, "MATCHED_ROWS", run.Matched, "MEDIAN_PCT_VIRAL", merge.FormatFloat(run.MedianViralPercentage))
	}

	fmt.Printf("\nDone!\nThe results have been written to: %s\n", cfg.Output)
	return nil
}
