package merge

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/gmaffy/gd-reports/sampleid"
	"gopkg.in/guregu/null.v3"
)

const resultsHeader = "Assignment,# Contigs,Mapped # Reads,Coverage (%),Contigs\n"

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadResultsSortsAndTags(t *testing.T) {
	tmp := t.TempDir()
	b := writeFile(t, tmp, "1_b_results.csv", resultsHeader+"Orthomyxovirus,1,50,80.0,ACGT\n")
	a := writeFile(t, tmp, "1_a_results.csv", resultsHeader+
		"Flavivirus,2,100,95.0,ACGTACGT\n"+
		"Hepacivirus,,7,NaN,\n")

	table, err := LoadResults([]string{b, a}, LoadOptions{})
	if err != nil {
		t.Fatalf("LoadResults failed: %v", err)
	}
	if len(table.Records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(table.Records))
	}

	want := []struct {
		sample     string
		assignment string
	}{
		{"a", "Flavivirus"},
		{"a", "Hepacivirus"},
		{"b", "Orthomyxovirus"},
	}
	for i, w := range want {
		rec := table.Records[i]
		if rec.RunID != 1 || rec.SampleID != w.sample || rec.Assignment != w.assignment {
			t.Fatalf("record %d = %+v, want sample %s assignment %s", i, rec, w.sample, w.assignment)
		}
	}

	first := table.Records[0]
	if first.MappedReads.Int64 != 100 || first.ContigCount.Int64 != 2 || first.Coverage.Float64 != 95.0 {
		t.Fatalf("unexpected values: %+v", first)
	}
	second := table.Records[1]
	if second.ContigCount.Valid || second.Coverage.Valid || !second.MappedReads.Valid {
		t.Fatalf("missing cells should be null: %+v", second)
	}
	for _, col := range table.Columns {
		if col == ColContigs {
			t.Fatal("Contigs column should be dropped")
		}
	}
}

func TestLoadResultsStampsCategory(t *testing.T) {
	tmp := t.TempDir()
	path := writeFile(t, tmp, "2_x_y_results.csv", resultsHeader+"Flavivirus,2,100,95.0,ACGT\n")

	table, err := LoadResults([]string{path}, LoadOptions{Category: CategoryDiscovered})
	if err != nil {
		t.Fatalf("LoadResults failed: %v", err)
	}
	rec := table.Records[0]
	if rec.Category != CategoryDiscovered || rec.SampleID != "x_y" || rec.RunID != 2 {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if table.Columns[len(table.Columns)-1] != ColCategory {
		t.Fatalf("expected category column, got %v", table.Columns)
	}
}

func TestLoadResultsHeaderOnlyFile(t *testing.T) {
	tmp := t.TempDir()
	empty := writeFile(t, tmp, "1_a_results.csv", resultsHeader)
	full := writeFile(t, tmp, "1_b_results.csv", resultsHeader+"Flavivirus,2,100,95.0,ACGT\n")

	table, err := LoadResults([]string{empty, full}, LoadOptions{})
	if err != nil {
		t.Fatalf("LoadResults failed: %v", err)
	}
	if len(table.Records) != 1 || table.Records[0].SampleID != "b" {
		t.Fatalf("unexpected records: %+v", table.Records)
	}
}

func TestLoadResultsMissingColumn(t *testing.T) {
	tmp := t.TempDir()
	path := writeFile(t, tmp, "1_a_results.csv", "Assignment,# Contigs,Coverage (%)\nFlavivirus,2,95.0\n")

	_, err := LoadResults([]string{path}, LoadOptions{})
	var se *SchemaError
	if !errors.As(err, &se) {
		t.Fatalf("expected *SchemaError, got %v", err)
	}
	if se.Column != ColMappedReads {
		t.Fatalf("unexpected column in error: %q", se.Column)
	}
}

func TestLoadResultsBadFilename(t *testing.T) {
	tmp := t.TempDir()
	path := writeFile(t, tmp, "results.csv", resultsHeader)

	_, err := LoadResults([]string{path}, LoadOptions{})
	var fe *sampleid.FormatError
	if !errors.As(err, &fe) {
		t.Fatalf("expected *sampleid.FormatError, got %v", err)
	}
}

func TestLoadResultsNonNumericRun(t *testing.T) {
	tmp := t.TempDir()
	path := writeFile(t, tmp, "runA_1_results.csv", resultsHeader+"Flavivirus,2,100,95.0,ACGT\n")

	_, err := LoadResults([]string{path}, LoadOptions{})
	var fe *sampleid.FormatError
	if !errors.As(err, &fe) {
		t.Fatalf("expected *sampleid.FormatError, got %v", err)
	}
}

func TestReadMetadata(t *testing.T) {
	tmp := t.TempDir()
	path := writeFile(t, tmp, "GenomeDetective_results.csv",
		"run_id,sample_id,total_reads,low_quality_reads,non_viral_reads,viral_reads,runtime\n"+
			"1,a,1000,10,790,200,0:01:02\n"+
			"1,b,500,5,395,100,0:00:40\n")

	table, err := ReadMetadata(path)
	if err != nil {
		t.Fatalf("ReadMetadata failed: %v", err)
	}
	if len(table.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(table.Rows))
	}
	if table.Rows[0].TotalReads != null.IntFrom(1000) || table.Rows[1].ViralReads != null.IntFrom(100) || table.Rows[0].Runtime != "0:01:02" {
		t.Fatalf("unexpected rows: %+v", table.Rows)
	}
	if len(table.Columns) != len(MetadataColumns) {
		t.Fatalf("unexpected columns: %v", table.Columns)
	}
}

func TestReadMetadataMissingRequired(t *testing.T) {
	tmp := t.TempDir()
	path := writeFile(t, tmp, "meta.csv", "run_id,sample_id,total_reads\n1,a,1000\n")

	_, err := ReadMetadata(path)
	var se *SchemaError
	if !errors.As(err, &se) || se.Column != ColViralReads {
		t.Fatalf("expected SchemaError for viral_reads, got %v", err)
	}
}

func TestRightJoinCardinality(t *testing.T) {
	results := ResultTable{
		Columns: RequiredResultColumns,
		Records: []ResultRecord{
			{RunID: 1, SampleID: "a", Assignment: "Flavivirus"},
			{RunID: 1, SampleID: "a", Assignment: "Hepacivirus"},
			{RunID: 1, SampleID: "b", Assignment: "Orthomyxovirus"},
			{RunID: 9, SampleID: "z", Assignment: "Orphan"},
		},
	}
	metadata := MetadataTable{
		Columns: RequiredMetadataColumns,
		Rows: []SampleMetadata{
			{RunID: 1, SampleID: "b", TotalReads: null.IntFrom(500), ViralReads: null.IntFrom(100)},
			{RunID: 1, SampleID: "a", TotalReads: null.IntFrom(1000), ViralReads: null.IntFrom(200)},
			{RunID: 2, SampleID: "a", TotalReads: null.IntFrom(10), ViralReads: null.IntFrom(1)},
		},
	}

	merged := RightJoin(results, metadata)

	// 3 matched result rows plus 1 unmatched metadata row
	if len(merged.Rows) != 4 {
		t.Fatalf("expected 4 rows, got %d", len(merged.Rows))
	}
	wantAssignments := []string{"Orthomyxovirus", "Flavivirus", "Hepacivirus", ""}
	for i, want := range wantAssignments {
		got, _ := merged.Rows[i].Value(ColAssignment)
		if got != want {
			t.Fatalf("row %d assignment = %q, want %q", i, got, want)
		}
	}
	last := merged.Rows[3]
	if last.RunID != 2 || last.Assignment.Valid || last.MappedReads.Valid {
		t.Fatalf("unmatched metadata row should carry null result fields: %+v", last)
	}
	if !merged.HasColumn(ColSample) || !merged.HasColumn(ColTotalReads) || !merged.HasColumn(ColAssignment) {
		t.Fatalf("unexpected columns: %v", merged.Columns)
	}
}

func TestRunIDStringMatchesIntegerMetadata(t *testing.T) {
	tmp := t.TempDir()
	resultsPath := writeFile(t, tmp, "3_S1_results.csv", resultsHeader+"Flavivirus,2,100,95.0,ACGT\n")
	metaPath := writeFile(t, tmp, "meta.csv", "run_id,sample_id,total_reads,viral_reads\n3,S1,1000,200\n")

	results, err := LoadResults([]string{resultsPath}, LoadOptions{})
	if err != nil {
		t.Fatalf("LoadResults failed: %v", err)
	}
	metadata, err := ReadMetadata(metaPath)
	if err != nil {
		t.Fatalf("ReadMetadata failed: %v", err)
	}
	merged := RightJoin(results, metadata)
	if len(merged.Rows) != 1 || !merged.Rows[0].Assignment.Valid {
		t.Fatalf("run id 3 from filename should join run_id 3: %+v", merged.Rows)
	}
	if merged.Rows[0].Sample() != "3_S1" {
		t.Fatalf("unexpected sample key %q", merged.Rows[0].Sample())
	}
}

func TestRunIDNormalisation(t *testing.T) {
	cases := []struct {
		name       string
		resultsRun string
		metaRun    string
		sample     string
	}{
		{"plain", "3", "3", "3_S1"},
		{"zero padded both sides", "010", "010", "10_S1"},
		{"zero padded metadata only", "10", "010", "10_S1"},
		{"leading zero not octal", "08", "08", "8_S1"},
		{"pandas float", "3", "3.0", "3_S1"},
		{"padded with spaces", "7", " 7 ", "7_S1"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tmp := t.TempDir()
			resultsPath := writeFile(t, tmp, tc.resultsRun+"_S1_results.csv", resultsHeader+"Flavivirus,2,100,95.0,ACGT\n")
			metaPath := writeFile(t, tmp, "meta.csv", "run_id,sample_id,total_reads,viral_reads\n"+tc.metaRun+",S1,1000,200\n")

			results, err := LoadResults([]string{resultsPath}, LoadOptions{})
			if err != nil {
				t.Fatalf("LoadResults failed: %v", err)
			}
			metadata, err := ReadMetadata(metaPath)
			if err != nil {
				t.Fatalf("ReadMetadata failed: %v", err)
			}
			merged := RightJoin(results, metadata)
			if len(merged.Rows) != 1 || !merged.Rows[0].Assignment.Valid {
				t.Fatalf("run %q should join run_id %q: %+v", tc.resultsRun, tc.metaRun, merged.Rows)
			}
			if got := merged.Rows[0].Sample(); got != tc.sample {
				t.Fatalf("sample key = %q, want %q", got, tc.sample)
			}
		})
	}
}

func TestReadMetadataCounts(t *testing.T) {
	tmp := t.TempDir()
	path := writeFile(t, tmp, "meta.csv",
		"run_id,sample_id,total_reads,low_quality_reads,viral_reads\n"+
			"1,a,,3,200\n"+
			"1,b,1000.0,NaN,\n")

	table, err := ReadMetadata(path)
	if err != nil {
		t.Fatalf("ReadMetadata failed: %v", err)
	}
	a, b := table.Rows[0], table.Rows[1]
	if a.TotalReads.Valid {
		t.Fatalf("empty total_reads should be null, got %v", a.TotalReads)
	}
	if v, _ := (MergedRow{SampleMetadata: a}).Value(ColTotalReads); v != "" {
		t.Fatalf("null total_reads should render empty, got %q", v)
	}
	if a.LowQualityReads != null.IntFrom(3) || a.ViralReads != null.IntFrom(200) {
		t.Fatalf("unexpected counts for a: %+v", a)
	}
	if b.TotalReads != null.IntFrom(1000) || b.LowQualityReads.Valid || b.ViralReads.Valid {
		t.Fatalf("unexpected counts for b: %+v", b)
	}
}

func TestReadMetadataRejectsBadNumbers(t *testing.T) {
	cases := []struct {
		name   string
		row    string
		column string
	}{
		{"fractional count", "1,a,200.7,200", ColTotalReads},
		{"text count", "1,a,1000,many", ColViralReads},
		{"empty run", ",a,1000,200", ColRunID},
		{"fractional run", "1.5,a,1000,200", ColRunID},
		{"hex run", "0x10,a,1000,200", ColRunID},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), "meta.csv", "run_id,sample_id,total_reads,viral_reads\n"+tc.row+"\n")
			_, err := ReadMetadata(path)
			var se *SchemaError
			if !errors.As(err, &se) || se.Column != tc.column {
				t.Fatalf("expected SchemaError on %s, got %v", tc.column, err)
			}
		})
	}
}

func TestParseRunID(t *testing.T) {
	cases := map[string]int{"3": 3, "010": 10, "08": 8, "3.0": 3, " 12 ": 12}
	for in, want := range cases {
		got, err := ParseRunID(in)
		if err != nil || got != want {
			t.Fatalf("ParseRunID(%q) = %d, %v; want %d", in, got, err, want)
		}
	}
	for _, in := range []string{"", "abc", "2.5", "NaN", "Inf"} {
		if _, err := ParseRunID(in); err == nil {
			t.Fatalf("ParseRunID(%q) should fail", in)
		}
	}
}

func TestFormatFloat(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{95, "95.0"},
		{10, "10.0"},
		{0, "0.0"},
		{0.1, "0.1"},
		{12.5, "12.5"},
		{-3, "-3.0"},
		{0.0001, "0.0001"},
		{0.00001, "1e-05"},
		{1e16, "1e+16"},
		{math.NaN(), ""},
		{math.Inf(1), ""},
	}
	for _, tc := range cases {
		if got := FormatFloat(tc.in); got != tc.want {
			t.Fatalf("FormatFloat(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestAppendResults(t *testing.T) {
	a := ResultTable{Columns: []string{ColAssignment, ColCategory}, Records: []ResultRecord{{Assignment: "x"}}}
	b := ResultTable{Columns: []string{ColAssignment, ColNTIdentity, ColCategory}, Records: []ResultRecord{{Assignment: "y"}}}

	got := AppendResults(a, b)
	if len(got.Records) != 2 || got.Records[1].Assignment != "y" {
		t.Fatalf("unexpected records: %+v", got.Records)
	}
	if len(got.Columns) != 3 || got.Columns[2] != ColNTIdentity {
		t.Fatalf("unexpected columns: %v", got.Columns)
	}
}
