package merge

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/gmaffy/gd-reports/sampleid"
	"gopkg.in/guregu/null.v3"
)

// Column names of a Genome Detective result table.
const (
	ColAssignment  = "Assignment"
	ColContigCount = "# Contigs"
	ColMappedReads = "Mapped # Reads"
	ColCoverage    = "Coverage (%)"
	ColMeanDepth   = "Mapped depth <br/>of Coverage"
	ColNTIdentity  = "NT Identity (%)"
	ColAAIdentity  = "AA Identity (%)"
	// ColContigs holds the contig sequences and is dropped on load.
	ColContigs = "Contigs"
)

// Columns stamped onto results and those of the parsed XML metadata table.
const (
	ColRunID           = "run_id"
	ColSampleID        = "sample_id"
	ColCategory        = "Assigned_Discovered"
	ColSample          = "sample"
	ColTotalReads      = "total_reads"
	ColLowQualityReads = "low_quality_reads"
	ColNonViralReads   = "non_viral_reads"
	ColViralReads      = "viral_reads"
	ColRuntime         = "runtime"
)

// Columns filled in by the derive package.
const (
	ColFractionOfTotal   = "fraction_of_total_reads"
	ColPercentageOfTotal = "percentage_of_total_reads"
	ColFractionOfViral   = "fraction_of_viral_reads"
	ColPercentageOfViral = "percentage_of_viral_reads"
)

const (
	CategoryAssigned   = "Assigned"
	CategoryDiscovered = "Discovered"
)

var (
	RequiredResultColumns = []string{ColAssignment, ColContigCount, ColMappedReads, ColCoverage}
	OptionalResultColumns = []string{ColMeanDepth, ColNTIdentity, ColAAIdentity}

	RequiredMetadataColumns = []string{ColRunID, ColSampleID, ColTotalReads, ColViralReads}
	MetadataColumns         = []string{ColRunID, ColSampleID, ColTotalReads, ColLowQualityReads, ColNonViralReads, ColViralReads, ColRuntime}
)

// SchemaError is returned when a table lacks a required column or holds a
// value that does not fit the column type.
type SchemaError struct {
	Path   string
	Column string
	Reason string
}

func (e *SchemaError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("%s: required column %q is missing", e.Path, e.Column)
	}
	return fmt.Sprintf("%s: column %q: %s", e.Path, e.Column, e.Reason)
}

// ResultRecord is one row of a per-sample result table, tagged with the IDs
// from its filename.
type ResultRecord struct {
	RunID       int
	SampleID    string
	Category    string
	Assignment  string
	ContigCount null.Int
	MappedReads null.Int
	Coverage    null.Float
	MeanDepth   null.String
	NTIdentity  null.String
	AAIdentity  null.String
}

// ResultTable is the concatenation of all result files of one load, Columns
// lists the result columns that were present.
type ResultTable struct {
	Columns []string
	Records []ResultRecord
}

// SampleMetadata is one row of the parsed XML table. Read counts are null
// when the cell is empty.
type SampleMetadata struct {
	RunID           int
	SampleID        string
	TotalReads      null.Int
	LowQualityReads null.Int
	NonViralReads   null.Int
	ViralReads      null.Int
	Runtime         string
}

type MetadataTable struct {
	Columns []string
	Rows    []SampleMetadata
}

// MergedRow is a metadata row joined with at most one result record. Result
// fields are null when the sample had no results; derived fractions are NaN
// when they could not be computed.
type MergedRow struct {
	SampleMetadata

	Category    null.String
	Assignment  null.String
	ContigCount null.Int
	MappedReads null.Int
	Coverage    null.Float
	MeanDepth   null.String
	NTIdentity  null.String
	AAIdentity  null.String

	FractionOfTotalReads   float64
	PercentageOfTotalReads float64
	FractionOfViralReads   float64
	PercentageOfViralReads float64
}

// Merged is the right-joined table. Columns names the internal columns that
// hold data, in output order.
type Merged struct {
	Columns []string
	Rows    []MergedRow
}

// HasColumn reports whether the merged schema contains name.
func (m Merged) HasColumn(name string) bool {
	for _, c := range m.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// Sample returns the combined run/sample key, e.g. "3_10".
func (r MergedRow) Sample() string {
	return sampleid.SampleKey(r.RunID, r.SampleID)
}

// Value renders the named internal column as it appears in a CSV cell.
// Null and NaN values render as empty cells. The bool is false for unknown
// column names.
func (r MergedRow) Value(column string) (string, bool) {
	switch column {
	case ColRunID:
		return strconv.Itoa(r.RunID), true
	case ColSampleID:
		return r.SampleID, true
	case ColSample:
		return r.Sample(), true
	case ColTotalReads:
		return nullIntFormatter(r.TotalReads), true
	case ColLowQualityReads:
		return nullIntFormatter(r.LowQualityReads), true
	case ColNonViralReads:
		return nullIntFormatter(r.NonViralReads), true
	case ColViralReads:
		return nullIntFormatter(r.ViralReads), true
	case ColRuntime:
		return r.Runtime, true
	case ColCategory:
		return nullStringFormatter(r.Category), true
	case ColAssignment:
		return nullStringFormatter(r.Assignment), true
	case ColContigCount:
		return nullIntFormatter(r.ContigCount), true
	case ColMappedReads:
		return nullIntFormatter(r.MappedReads), true
	case ColCoverage:
		return nullFloatFormatter(r.Coverage), true
	case ColMeanDepth:
		return nullStringFormatter(r.MeanDepth), true
	case ColNTIdentity:
		return nullStringFormatter(r.NTIdentity), true
	case ColAAIdentity:
		return nullStringFormatter(r.AAIdentity), true
	case ColFractionOfTotal:
		return FormatFloat(r.FractionOfTotalReads), true
	case ColPercentageOfTotal:
		return FormatFloat(r.PercentageOfTotalReads), true
	case ColFractionOfViral:
		return FormatFloat(r.FractionOfViralReads), true
	case ColPercentageOfViral:
		return FormatFloat(r.PercentageOfViralReads), true
	}
	return "", false
}

// FormatFloat writes v the way pandas writes a float cell: the shortest
// representation, always with a decimal point ("10.0"), switching to
// exponent form below 1e-4 and from 1e16 up. NaN and infinities are empty.
func FormatFloat(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ""
	}
	if abs := math.Abs(v); abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		return strconv.FormatFloat(v, 'e', -1, 64)
	}
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// ParseRunID reads a run ID as a base-10 integer. Leading zeros are kept as
// decimal ("010" is 10) and integral floats written by pandas ("3.0") are
// accepted.
func ParseRunID(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("run ID is empty")
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, fmt.Errorf("run ID %q is not an integer", s)
	}
	return int(f), nil
}

func nullIntFormatter(n null.Int) string {
	if !n.Valid {
		return ""
	}

	return strconv.FormatInt(n.Int64, 10)
}

func nullStringFormatter(n null.String) string {
	if !n.Valid {
		return ""
	}

	return n.String
}

func nullFloatFormatter(n null.Float) string {
	if !n.Valid {
		return ""
	}

	return FormatFloat(n.Float64)
}
