package merge

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"github.com/gmaffy/gd-reports/utils"
	"github.com/gocarina/gocsv"
	"gopkg.in/guregu/null.v3"
)

// ReadMetadata loads the parsed XML table, one row per (run_id, sample_id).
// run_id, sample_id, total_reads and viral_reads must be present; the other
// metadata columns are optional and listed in MetadataTable.Columns only when
// the file has them.
func ReadMetadata(path string) (MetadataTable, error) {
	content, err := utils.ReadInput(path)
	if err != nil {
		return MetadataTable{}, fmt.Errorf("reading metadata %s: %w", path, err)
	}
	delimiter := utils.DelimiterFor(path, content)

	headerReader := csv.NewReader(bytes.NewReader(content))
	headerReader.Comma = delimiter
	header, err := headerReader.Read()
	if err != nil {
		return MetadataTable{}, &SchemaError{Path: path, Column: ColRunID, Reason: "file has no header"}
	}

	present := make(map[string]bool, len(header))
	for _, col := range header {
		present[col] = true
	}
	for _, col := range RequiredMetadataColumns {
		if !present[col] {
			return MetadataTable{}, &SchemaError{Path: path, Column: col}
		}
	}

	table := MetadataTable{}
	for _, col := range MetadataColumns {
		if present[col] {
			table.Columns = append(table.Columns, col)
		}
	}

	reader := csv.NewReader(bytes.NewReader(content))
	reader.Comma = delimiter
	reader.LazyQuotes = true

	records := []metadataRecord{}
	if err := gocsv.UnmarshalCSV(reader, &records); err != nil {
		return MetadataTable{}, fmt.Errorf("parsing metadata %s: %w", path, err)
	}
	table.Rows = make([]SampleMetadata, len(records))
	for i, rec := range records {
		row, err := rec.toSampleMetadata()
		if err != nil {
			err.Path = fmt.Sprintf("%s line %d", path, i+2)
			return MetadataTable{}, err
		}
		table.Rows[i] = row
	}
	return table, nil
}

// metadataRecord holds the raw cells of one metadata row. Numbers are parsed
// in toSampleMetadata so that run IDs stay base 10 and empty counts stay null.
type metadataRecord struct {
	RunID           string `csv:"run_id"`
	SampleID        string `csv:"sample_id"`
	TotalReads      string `csv:"total_reads"`
	LowQualityReads string `csv:"low_quality_reads"`
	NonViralReads   string `csv:"non_viral_reads"`
	ViralReads      string `csv:"viral_reads"`
	Runtime         string `csv:"runtime"`
}

func (r metadataRecord) toSampleMetadata() (SampleMetadata, *SchemaError) {
	runID, err := ParseRunID(r.RunID)
	if err != nil {
		return SampleMetadata{}, &SchemaError{Column: ColRunID, Reason: err.Error()}
	}
	row := SampleMetadata{RunID: runID, SampleID: r.SampleID, Runtime: r.Runtime}

	counts := []struct {
		column string
		raw    string
		dst    *null.Int
	}{
		{ColTotalReads, r.TotalReads, &row.TotalReads},
		{ColLowQualityReads, r.LowQualityReads, &row.LowQualityReads},
		{ColNonViralReads, r.NonViralReads, &row.NonViralReads},
		{ColViralReads, r.ViralReads, &row.ViralReads},
	}
	for _, c := range counts {
		v, err := parseNullInt(c.raw)
		if err != nil {
			return SampleMetadata{}, &SchemaError{Column: c.column, Reason: err.Error()}
		}
		*c.dst = v
	}
	return row, nil
}
