// Package derive computes the read fractions of merged rows and declares
// which report fields are copied, calculated or left for manual curation.
package derive

import (
	"math"

	"github.com/gmaffy/gd-reports/merge"
	"gopkg.in/guregu/null.v3"
)

// Placeholder is written into every manual field.
const Placeholder = "fill me in"

// Report fields that are curated by hand after the run.
const (
	FieldPCRResult       = "pcr_result"
	FieldCtValue         = "ct_value"
	FieldCongruence      = "pcr_ngs_congruence"
	FieldComments        = "pcr_ngs_comments"
	FieldHumanVirusReads = "human_virus_reads"
	FieldPlantVirusReads = "plant_virus_reads"
	FieldPhageReads      = "phage_reads"
	FieldOtherViralReads = "other_viral_reads"
)

var ManualFields = []string{
	FieldPCRResult, FieldCtValue, FieldCongruence, FieldComments,
	FieldHumanVirusReads, FieldPlantVirusReads, FieldPhageReads, FieldOtherViralReads,
}

// FieldKind tells how a report field gets its value.
type FieldKind byte

const (
	Available  FieldKind = 'a'
	Manual     FieldKind = 'm'
	Calculated FieldKind = 'c'
)

// PCRField is one field of the PCR report. Source is the merged column that
// holds the data of an available field.
type PCRField struct {
	Name   string
	Kind   FieldKind
	Source string
}

// PCRFieldKinds declares every field of the PCR report.
var PCRFieldKinds = []PCRField{
	{Name: merge.ColRunID, Kind: Available, Source: merge.ColRunID},
	{Name: merge.ColSampleID, Kind: Available, Source: merge.ColSampleID},
	{Name: merge.ColTotalReads, Kind: Available, Source: merge.ColTotalReads},
	{Name: merge.ColLowQualityReads, Kind: Available, Source: merge.ColLowQualityReads},
	{Name: merge.ColNonViralReads, Kind: Available, Source: merge.ColNonViralReads},
	{Name: merge.ColViralReads, Kind: Available, Source: merge.ColViralReads},
	{Name: FieldPCRResult, Kind: Manual},
	{Name: FieldCtValue, Kind: Manual},
	{Name: "GD_assignment", Kind: Available, Source: merge.ColAssignment},
	{Name: "coverage%", Kind: Available, Source: merge.ColCoverage},
	{Name: "contigs", Kind: Available, Source: merge.ColContigCount},
	{Name: "number_of_reads", Kind: Available, Source: merge.ColMappedReads},
	{Name: merge.ColFractionOfTotal, Kind: Calculated},
	{Name: merge.ColFractionOfViral, Kind: Calculated},
	{Name: FieldCongruence, Kind: Manual},
	{Name: FieldComments, Kind: Manual},
	{Name: FieldHumanVirusReads, Kind: Manual},
	{Name: FieldPlantVirusReads, Kind: Manual},
	{Name: FieldPhageReads, Kind: Manual},
	{Name: FieldOtherViralReads, Kind: Manual},
	{Name: merge.ColRuntime, Kind: Available, Source: merge.ColRuntime},
}

// IsManual reports whether name is filled with the placeholder.
func IsManual(name string) bool {
	for _, f := range ManualFields {
		if f == name {
			return true
		}
	}
	return false
}

// MissingAvailable returns the source columns of available fields that the
// merged table lacks. Manual fields are never reported.
func MissingAvailable(m merge.Merged, fields []PCRField) []string {
	var missing []string
	for _, f := range fields {
		if f.Kind != Available {
			continue
		}
		if !m.HasColumn(f.Source) {
			missing = append(missing, f.Source)
		}
	}
	return missing
}

// Fraction divides num by denom. The result is NaN when num is null or denom
// is null or zero.
func Fraction(num, denom null.Int) float64 {
	if !num.Valid || !denom.Valid || denom.Int64 == 0 {
		return math.NaN()
	}
	return float64(num.Int64) / float64(denom.Int64)
}

// Percentage scales a fraction to percent, NaN stays NaN.
func Percentage(fraction float64) float64 {
	return fraction * 100
}

// Calculate returns a copy of m with the read fractions and percentages of
// every row filled in and the four derived columns added to the schema.
func Calculate(m merge.Merged) merge.Merged {
	out := merge.Merged{
		Columns: make([]string, 0, len(m.Columns)+4),
		Rows:    make([]merge.MergedRow, len(m.Rows)),
	}
	for _, col := range m.Columns {
		if col == merge.ColSample {
			continue
		}
		out.Columns = append(out.Columns, col)
	}
	out.Columns = append(out.Columns,
		merge.ColFractionOfTotal, merge.ColFractionOfViral,
		merge.ColPercentageOfTotal, merge.ColPercentageOfViral,
	)
	if m.HasColumn(merge.ColSample) {
		out.Columns = append(out.Columns, merge.ColSample)
	}

	for i, row := range m.Rows {
		row.FractionOfTotalReads = Fraction(row.MappedReads, row.TotalReads)
		row.PercentageOfTotalReads = Percentage(row.FractionOfTotalReads)
		row.FractionOfViralReads = Fraction(row.MappedReads, row.ViralReads)
		row.PercentageOfViralReads = Percentage(row.FractionOfViralReads)
		out.Rows[i] = row
	}
	return out
}
