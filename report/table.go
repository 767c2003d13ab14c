// Package report selects, renames and orders merged rows into the published
// tables and writes them as CSV or XLSX.
package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"github.com/gmaffy/gd-reports/merge"
	"github.com/gmaffy/gd-reports/utils"
	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// PCRRenames maps internal column names to the names used in the PCR report.
var PCRRenames = map[string]string{
	merge.ColAssignment:        "GD_assignment",
	merge.ColContigCount:       "contigs",
	merge.ColMappedReads:       "number_of_reads",
	merge.ColCoverage:          "coverage%",
	merge.ColPercentageOfTotal: "percentage_of_total",
	merge.ColPercentageOfViral: "percentage_of_viral",
}

// PCRReportColumns is the column order of the PCR/NGS comparison report.
var PCRReportColumns = []string{
	"run_id", "sample_id",
	"pcr_result", "ct_value",
	"GD_assignment", "coverage%", "contigs",
	"pcr_ngs_congruence", "pcr_ngs_comments",
	"number_of_reads", "fraction_of_total_reads",
	"percentage_of_total", "fraction_of_viral_reads",
	"percentage_of_viral",
	"total_reads", "low_quality_reads",
	"non_viral_reads", "viral_reads",
	"human_virus_reads", "plant_virus_reads",
	"phage_reads", "other_viral_reads", "runtime",
}

// HeatmapTableColumns returns the column order of the heatmap data table.
// Optional result and metadata columns are listed only when m has them.
func HeatmapTableColumns(m merge.Merged) []string {
	cols := []string{merge.ColAssignment, merge.ColContigCount, merge.ColMappedReads, merge.ColCoverage}
	for _, col := range merge.OptionalResultColumns {
		if m.HasColumn(col) {
			cols = append(cols, col)
		}
	}
	cols = append(cols, merge.ColRunID, merge.ColSampleID, merge.ColCategory)
	for _, col := range merge.MetadataColumns[2:] {
		if m.HasColumn(col) {
			cols = append(cols, col)
		}
	}
	return append(cols,
		merge.ColFractionOfTotal, merge.ColFractionOfViral,
		merge.ColPercentageOfTotal, merge.ColPercentageOfViral,
		merge.ColSample,
	)
}

// ConfigError is returned when a requested output column is not present in
// the merged table.
type ConfigError struct {
	Column    string
	Available []string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("output column %q is not in the merged table (have: %s)", e.Column, strings.Join(e.Available, ", "))
}

// Table is a merged table reduced to a fixed list of published columns.
type Table struct {
	Columns []string
	df      dataframe.DataFrame
	nrows   int
}

// TableOptions control how NewTable builds the published table.
type TableOptions struct {
	// Renames maps internal column names to published ones.
	Renames map[string]string
	// Placeholders are added as columns holding Placeholder in every row.
	Placeholders []string
	Placeholder  string
}

// NewTable selects columns from m in the given order, after renaming. Every
// requested column must exist, otherwise a *ConfigError is returned. Rows
// keep the order of m.
func NewTable(m merge.Merged, columns []string, opts TableOptions) (Table, error) {
	internal := append([]string(nil), m.Columns...)
	published := make([]string, 0, len(internal)+len(opts.Placeholders))
	for _, col := range internal {
		if newName, ok := opts.Renames[col]; ok {
			published = append(published, newName)
			continue
		}
		published = append(published, col)
	}
	published = append(published, opts.Placeholders...)

	index := make(map[string]bool, len(published))
	for _, col := range published {
		index[col] = true
	}
	for _, col := range columns {
		if !index[col] {
			return Table{}, &ConfigError{Column: col, Available: published}
		}
	}

	table := Table{Columns: append([]string(nil), columns...), nrows: len(m.Rows)}
	if len(m.Rows) == 0 {
		return table, nil
	}

	// ------------------------------------- build all-string frame ---------------------------------------------- //
	records := make([][]string, 0, len(m.Rows)+1)
	records = append(records, internal)
	for _, row := range m.Rows {
		record := make([]string, len(internal))
		for j, col := range internal {
			value, ok := row.Value(col)
			if !ok {
				return Table{}, &ConfigError{Column: col, Available: published}
			}
			record[j] = value
		}
		records = append(records, record)
	}
	df := dataframe.LoadRecords(records,
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues(nil),
	)
	for _, placeholder := range opts.Placeholders {
		df = df.Mutate(series.New(repeat(opts.Placeholder, len(m.Rows)), series.String, placeholder))
	}

	// ------------------------------------- rename and select --------------------------------------------------- //
	for _, col := range internal {
		if newName, ok := opts.Renames[col]; ok {
			df = df.Rename(newName, col)
		}
	}
	df = df.Select(columns)
	if df.Err != nil {
		return Table{}, fmt.Errorf("building report table: %w", df.Err)
	}
	table.df = df
	return table, nil
}

// Records returns the header followed by one record per row.
func (t Table) Records() [][]string {
	if t.nrows == 0 {
		return [][]string{append([]string(nil), t.Columns...)}
	}
	return t.df.Records()
}

func (t Table) Len() int { return t.nrows }

// WriteCSV writes the table with a header row, comma separated.
func (t Table) WriteCSV(outputFile string) error {
	if err := utils.EnsureOutputDir(outputFile); err != nil {
		return err
	}
	file, err := os.Create(outputFile)
	if err != nil {
		return fmt.Errorf("create %s: %w", outputFile, err)
	}
	defer file.Close()

	if t.nrows == 0 {
		writer := csv.NewWriter(file)
		if err := writer.Write(t.Columns); err != nil {
			return fmt.Errorf("write header to %s: %w", outputFile, err)
		}
		writer.Flush()
		if err := writer.Error(); err != nil {
			return fmt.Errorf("flush %s: %w", outputFile, err)
		}
		return file.Close()
	}

	if err := t.df.WriteCSV(file, dataframe.WriteHeader(true)); err != nil {
		return fmt.Errorf("write %s: %w", outputFile, err)
	}
	return file.Close()
}

func repeat(value string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = value
	}
	return out
}
