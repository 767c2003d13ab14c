package merge

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/gmaffy/gd-reports/sampleid"
	"github.com/gmaffy/gd-reports/utils"
	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/schollz/progressbar/v3"
	"gopkg.in/guregu/null.v3"
)

type LoadOptions struct {
	// Category is stamped into the Assigned_Discovered column when set.
	Category string
	Progress bool
}

// LoadResults reads Genome Detective result tables, e.g.
// ["3_1_results.csv", "4_D_results.csv"], and returns them as one table. The
// files are read in lexicographic order and every row is tagged with the run
// and sample ID of its file.
func LoadResults(paths []string, opts LoadOptions) (ResultTable, error) {
	csvList := append([]string(nil), paths...)
	sort.Strings(csvList)

	var bar *progressbar.ProgressBar
	if opts.Progress && len(csvList) > 0 {
		bar = progressbar.Default(int64(len(csvList)), "reading results")
	}

	// ----------------------------- open, drop Contigs, add sample IDs ----------------------------------------- //
	var combined dataframe.DataFrame
	loaded := 0
	optional := make(map[string]bool)
	for _, resultsFile := range csvList {
		resultsDF, rows, err := readResultsFile(resultsFile, opts.Category)
		if err != nil {
			return ResultTable{}, err
		}
		if bar != nil {
			_ = bar.Add(1)
		}
		if rows == 0 {
			continue
		}
		for _, name := range resultsDF.Names() {
			optional[name] = true
		}

		// ------------------------------------- concatenate ------------------------------------------------- //
		if loaded == 0 {
			combined = resultsDF
		} else {
			combined = combined.Concat(resultsDF)
			if combined.Err != nil {
				return ResultTable{}, fmt.Errorf("concatenate %s: %w", resultsFile, combined.Err)
			}
		}
		loaded++
	}

	table := ResultTable{Columns: append([]string(nil), RequiredResultColumns...)}
	for _, col := range OptionalResultColumns {
		if optional[col] {
			table.Columns = append(table.Columns, col)
		}
	}
	if opts.Category != "" {
		table.Columns = append(table.Columns, ColCategory)
	}
	if loaded == 0 {
		return table, nil
	}

	records, err := toRecords(combined, opts.Category)
	if err != nil {
		return ResultTable{}, err
	}
	table.Records = records
	return table, nil
}

// AppendResults concatenates b after a, e.g. discoveries after assignments.
func AppendResults(a, b ResultTable) ResultTable {
	out := ResultTable{Columns: append([]string(nil), a.Columns...)}
	for _, col := range b.Columns {
		found := false
		for _, have := range out.Columns {
			if have == col {
				found = true
				break
			}
		}
		if !found {
			out.Columns = append(out.Columns, col)
		}
	}
	out.Records = make([]ResultRecord, 0, len(a.Records)+len(b.Records))
	out.Records = append(out.Records, a.Records...)
	out.Records = append(out.Records, b.Records...)
	return out
}

func readResultsFile(resultsFile string, category string) (dataframe.DataFrame, int, error) {
	runID, sampleID, err := sampleid.Parse(resultsFile)
	if err != nil {
		return dataframe.DataFrame{}, 0, err
	}

	content, err := utils.ReadInput(resultsFile)
	if err != nil {
		return dataframe.DataFrame{}, 0, fmt.Errorf("reading results %s: %w", resultsFile, err)
	}

	reader := csv.NewReader(bytes.NewReader(content))
	reader.Comma = utils.DelimiterFor(resultsFile, content)
	records, err := reader.ReadAll()
	if err != nil {
		return dataframe.DataFrame{}, 0, fmt.Errorf("parsing results %s: %w", resultsFile, err)
	}
	if len(records) == 0 {
		return dataframe.DataFrame{}, 0, &SchemaError{Path: resultsFile, Column: ColAssignment, Reason: "file has no header"}
	}

	header := records[0]
	for _, col := range RequiredResultColumns {
		found := false
		for _, headerCol := range header {
			if headerCol == col {
				found = true
				break
			}
		}
		if !found {
			return dataframe.DataFrame{}, 0, &SchemaError{Path: resultsFile, Column: col}
		}
	}
	rows := len(records) - 1
	if rows == 0 {
		return dataframe.DataFrame{}, 0, nil
	}

	resultsDF := dataframe.LoadRecords(records,
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues(nil),
	)
	if resultsDF.Err != nil {
		return dataframe.DataFrame{}, 0, fmt.Errorf("loading results %s: %w", resultsFile, resultsDF.Err)
	}

	for _, name := range resultsDF.Names() {
		if name == ColContigs {
			resultsDF = resultsDF.Drop(ColContigs)
			break
		}
	}

	resultsDF = resultsDF.Mutate(series.New(repeat(runID, rows), series.String, ColRunID))
	resultsDF = resultsDF.Mutate(series.New(repeat(sampleID, rows), series.String, ColSampleID))
	if category != "" {
		resultsDF = resultsDF.Mutate(series.New(repeat(category, rows), series.String, ColCategory))
	}
	if resultsDF.Err != nil {
		return dataframe.DataFrame{}, 0, fmt.Errorf("tagging results %s: %w", resultsFile, resultsDF.Err)
	}

	return resultsDF, rows, nil
}

// toRecords converts the concatenated frame into typed records. run_id is
// read as text from the filenames and only becomes an integer here, so it
// compares equal to the numeric run_id of the metadata table.
func toRecords(df dataframe.DataFrame, category string) ([]ResultRecord, error) {
	present := make(map[string]bool)
	for _, name := range df.Names() {
		present[name] = true
	}
	column := func(name string) []string {
		if !present[name] {
			return nil
		}
		return df.Col(name).Records()
	}

	runIDs := column(ColRunID)
	sampleIDs := column(ColSampleID)
	assignments := column(ColAssignment)
	contigCounts := column(ColContigCount)
	mappedReads := column(ColMappedReads)
	coverages := column(ColCoverage)
	depths := column(ColMeanDepth)
	ntIdentities := column(ColNTIdentity)
	aaIdentities := column(ColAAIdentity)

	records := make([]ResultRecord, df.Nrow())
	for i := range records {
		runID, err := ParseRunID(runIDs[i])
		if err != nil {
			return nil, &sampleid.FormatError{Path: runIDs[i] + "_" + sampleIDs[i], Reason: err.Error()}
		}
		contigs, err := parseNullInt(contigCounts[i])
		if err != nil {
			return nil, &SchemaError{Path: sampleid.SampleKey(runID, sampleIDs[i]), Column: ColContigCount, Reason: err.Error()}
		}
		reads, err := parseNullInt(mappedReads[i])
		if err != nil {
			return nil, &SchemaError{Path: sampleid.SampleKey(runID, sampleIDs[i]), Column: ColMappedReads, Reason: err.Error()}
		}
		coverage, err := parseNullFloat(coverages[i])
		if err != nil {
			return nil, &SchemaError{Path: sampleid.SampleKey(runID, sampleIDs[i]), Column: ColCoverage, Reason: err.Error()}
		}

		records[i] = ResultRecord{
			RunID:       runID,
			SampleID:    sampleIDs[i],
			Category:    category,
			Assignment:  assignments[i],
			ContigCount: contigs,
			MappedReads: reads,
			Coverage:    coverage,
			MeanDepth:   cell(depths, i),
			NTIdentity:  cell(ntIdentities, i),
			AAIdentity:  cell(aaIdentities, i),
		}
	}
	return records, nil
}

func repeat(value string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = value
	}
	return out
}

func isMissing(s string) bool {
	return s == "" || s == "NaN"
}

func cell(values []string, i int) null.String {
	if values == nil || isMissing(values[i]) {
		return null.String{}
	}
	return null.StringFrom(values[i])
}

func parseNullInt(s string) (null.Int, error) {
	s = strings.TrimSpace(s)
	if isMissing(s) {
		return null.Int{}, nil
	}
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return null.IntFrom(v), nil
	}
	// pandas writes integer columns holding NaN as floats, e.g. "12.0"
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) || f != math.Trunc(f) {
		return null.Int{}, fmt.Errorf("%q is not an integer", s)
	}
	return null.IntFrom(int64(f)), nil
}

func parseNullFloat(s string) (null.Float, error) {
	s = strings.TrimSpace(s)
	if isMissing(s) {
		return null.Float{}, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return null.Float{}, fmt.Errorf("%q is not a number", s)
	}
	return null.FloatFrom(f), nil
}
