package derive

import (
	"math"
	"testing"

	"github.com/gmaffy/gd-reports/merge"
	"gopkg.in/guregu/null.v3"
)

func TestFraction(t *testing.T) {
	if got := Fraction(null.IntFrom(100), null.IntFrom(1000)); got != 0.1 {
		t.Fatalf("Fraction(100, 1000) = %v", got)
	}
	if got := Fraction(null.IntFrom(100), null.IntFrom(0)); !math.IsNaN(got) {
		t.Fatalf("zero denominator should give NaN, got %v", got)
	}
	if got := Fraction(null.Int{}, null.IntFrom(1000)); !math.IsNaN(got) {
		t.Fatalf("null numerator should give NaN, got %v", got)
	}
	if got := Percentage(math.NaN()); !math.IsNaN(got) {
		t.Fatalf("NaN percentage should stay NaN, got %v", got)
	}
}

func TestCalculate(t *testing.T) {
	m := merge.Merged{
		Columns: []string{merge.ColRunID, merge.ColSampleID, merge.ColTotalReads, merge.ColViralReads, merge.ColAssignment, merge.ColMappedReads, merge.ColSample},
		Rows: []merge.MergedRow{
			{
				SampleMetadata: merge.SampleMetadata{RunID: 1, SampleID: "a", TotalReads: null.IntFrom(1000), ViralReads: null.IntFrom(200)},
				Assignment:     null.StringFrom("Flavivirus"),
				MappedReads:    null.IntFrom(100),
			},
			{
				SampleMetadata: merge.SampleMetadata{RunID: 1, SampleID: "b", TotalReads: null.IntFrom(0), ViralReads: null.IntFrom(0)},
				Assignment:     null.StringFrom("Orthomyxovirus"),
				MappedReads:    null.IntFrom(50),
			},
			{
				SampleMetadata: merge.SampleMetadata{RunID: 1, SampleID: "c", TotalReads: null.IntFrom(500), ViralReads: null.IntFrom(100)},
			},
		},
	}

	out := Calculate(m)

	a := out.Rows[0]
	if a.FractionOfTotalReads != 0.1 || a.PercentageOfTotalReads != 10 {
		t.Fatalf("unexpected total fractions: %v %v", a.FractionOfTotalReads, a.PercentageOfTotalReads)
	}
	if a.FractionOfViralReads != 0.5 || a.PercentageOfViralReads != 50 {
		t.Fatalf("unexpected viral fractions: %v %v", a.FractionOfViralReads, a.PercentageOfViralReads)
	}
	for _, row := range out.Rows[1:] {
		if !math.IsNaN(row.PercentageOfTotalReads) || !math.IsNaN(row.FractionOfViralReads) {
			t.Fatalf("expected NaN fractions for %s: %+v", row.Sample(), row)
		}
		if v, _ := row.Value(merge.ColPercentageOfTotal); v != "" {
			t.Fatalf("NaN should render empty, got %q", v)
		}
	}

	if out.Columns[len(out.Columns)-1] != merge.ColSample {
		t.Fatalf("sample should stay the last column: %v", out.Columns)
	}
	if !out.HasColumn(merge.ColPercentageOfViral) {
		t.Fatalf("derived columns missing: %v", out.Columns)
	}
	if m.Rows[0].FractionOfTotalReads != 0 {
		t.Fatal("Calculate should not modify its input")
	}
}

func TestMissingAvailable(t *testing.T) {
	m := merge.Merged{Columns: []string{
		merge.ColRunID, merge.ColSampleID, merge.ColTotalReads, merge.ColViralReads,
		merge.ColAssignment, merge.ColContigCount, merge.ColMappedReads, merge.ColCoverage,
	}}

	missing := MissingAvailable(m, PCRFieldKinds)
	want := []string{merge.ColLowQualityReads, merge.ColNonViralReads, merge.ColRuntime}
	if len(missing) != len(want) {
		t.Fatalf("missing = %v, want %v", missing, want)
	}
	for i := range want {
		if missing[i] != want[i] {
			t.Fatalf("missing = %v, want %v", missing, want)
		}
	}
}

func TestManualFields(t *testing.T) {
	manual := 0
	for _, f := range PCRFieldKinds {
		if f.Kind == Manual {
			manual++
			if !IsManual(f.Name) {
				t.Fatalf("%s is declared manual but not in ManualFields", f.Name)
			}
		}
	}
	if manual != len(ManualFields) {
		t.Fatalf("declared %d manual fields, ManualFields has %d", manual, len(ManualFields))
	}
	if IsManual(merge.ColRunID) {
		t.Fatal("run_id is not a manual field")
	}
}
