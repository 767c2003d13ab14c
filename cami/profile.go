// Package cami writes Genome Detective assignments as CAMI taxonomic
// profiles, one file per sample.
package cami

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/gmaffy/gd-reports/merge"
	"github.com/gmaffy/gd-reports/taxonomy"
	"github.com/gmaffy/gd-reports/utils"
	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

const (
	Version           = "0.9.3"
	DefaultTaxonomyID = "ncbi-taxonomy_2018-05-25"
	ranksComment      = "#the longest path in this sample: virus taxonomy is messy"
)

// DataTable holds the columns of the heatmap data table a profile needs.
type DataTable struct {
	Samples     []string
	Assignments []string
	Percentages []string
}

// ReadDataTable loads the sample, Assignment and percentage_of_total_reads
// columns of a heatmap data table.
func ReadDataTable(path string) (DataTable, error) {
	content, err := utils.ReadInput(path)
	if err != nil {
		return DataTable{}, fmt.Errorf("reading data table %s: %w", path, err)
	}
	reader := csv.NewReader(bytes.NewReader(content))
	reader.Comma = utils.DelimiterFor(path, content)
	records, err := reader.ReadAll()
	if err != nil {
		return DataTable{}, fmt.Errorf("parsing data table %s: %w", path, err)
	}
	if len(records) == 0 {
		return DataTable{}, &merge.SchemaError{Path: path, Column: merge.ColSample, Reason: "file has no header"}
	}
	needed := []string{merge.ColSample, merge.ColAssignment, merge.ColPercentageOfTotal}
	for _, col := range needed {
		found := false
		for _, have := range records[0] {
			if have == col {
				found = true
				break
			}
		}
		if !found {
			return DataTable{}, &merge.SchemaError{Path: path, Column: col}
		}
	}
	if len(records) == 1 {
		return DataTable{}, nil
	}

	tableDF := dataframe.LoadRecords(records,
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues(nil),
	)
	if tableDF.Err != nil {
		return DataTable{}, fmt.Errorf("loading data table %s: %w", path, tableDF.Err)
	}
	return DataTable{
		Samples:     tableDF.Col(merge.ColSample).Records(),
		Assignments: tableDF.Col(merge.ColAssignment).Records(),
		Percentages: tableDF.Col(merge.ColPercentageOfTotal).Records(),
	}, nil
}

// SampleKeys returns the distinct sample keys in table order.
func (t DataTable) SampleKeys() []string {
	seen := make(map[string]bool)
	var keys []string
	for _, s := range t.Samples {
		if !seen[s] {
			seen[s] = true
			keys = append(keys, s)
		}
	}
	return keys
}

// Entry is one body line of a profile.
type Entry struct {
	TaxID      int
	Rank       string
	TaxPath    []int
	TaxPathSN  []string
	Percentage string
}

type Profile struct {
	SampleID   string
	Ranks      []string
	TaxonomyID string
	Entries    []Entry
}

// lookupName strips an annotation such as " (segment 1)" from an assignment.
func lookupName(assignment string) string {
	if i := strings.Index(assignment, " ("); i >= 0 {
		return assignment[:i]
	}
	return assignment
}

// BuildProfile resolves every assignment of one sample. Rows keep table
// order; rows without an assignment are skipped. An unknown taxon stops the
// profile with an error wrapping taxonomy.ErrTaxonNotFound.
func BuildProfile(table DataTable, sampleKey string, resolver taxonomy.Resolver, taxonomyID string) (Profile, error) {
	if taxonomyID == "" {
		taxonomyID = DefaultTaxonomyID
	}
	profile := Profile{SampleID: sampleKey, TaxonomyID: taxonomyID}

	firstPercentage := make(map[string]string)
	for i, sample := range table.Samples {
		if sample != sampleKey {
			continue
		}
		if _, ok := firstPercentage[table.Assignments[i]]; !ok {
			firstPercentage[table.Assignments[i]] = table.Percentages[i]
		}
	}

	for i, sample := range table.Samples {
		assignment := table.Assignments[i]
		if sample != sampleKey || assignment == "" || assignment == "NaN" {
			continue
		}

		lineage, err := resolver.Lineage(lookupName(assignment))
		if err != nil {
			return Profile{}, fmt.Errorf("sample %s: %w", sampleKey, err)
		}
		if len(lineage) == 0 {
			return Profile{}, fmt.Errorf("sample %s: %q has an empty lineage: %w", sampleKey, assignment, taxonomy.ErrTaxonNotFound)
		}

		leaf := lineage[len(lineage)-1]
		entry := Entry{TaxID: leaf.TaxID, Rank: leaf.Rank, Percentage: firstPercentage[assignment]}
		ranks := make([]string, 0, len(lineage)-1)
		for _, taxon := range lineage[1:] {
			entry.TaxPath = append(entry.TaxPath, taxon.TaxID)
			entry.TaxPathSN = append(entry.TaxPathSN, taxon.Name)
			ranks = append(ranks, taxon.Rank)
		}
		// longest rank list, the first one wins on ties
		if len(ranks) > len(profile.Ranks) {
			profile.Ranks = ranks
		}
		profile.Entries = append(profile.Entries, entry)
	}
	return profile, nil
}

// WriteTo writes the header block followed by the body lines joined by
// newlines, without a trailing newline.
func (p Profile) WriteTo(w io.Writer) (int64, error) {
	var b strings.Builder
	b.WriteString("# Taxonomic Profiling Output\n")
	fmt.Fprintf(&b, "@SampleID:%s\n", p.SampleID)
	fmt.Fprintf(&b, "@Version:%s\n", Version)
	fmt.Fprintf(&b, "@Ranks:%s\t%s\n", strings.Join(p.Ranks, "|"), ranksComment)
	fmt.Fprintf(&b, "@TaxonomyID:%s\n", p.TaxonomyID)
	b.WriteString("@@TAXID\tRANK\tTAXPATH\tTAXPATHSN\tPERCENTAGE\n")

	lines := make([]string, len(p.Entries))
	for i, e := range p.Entries {
		ids := make([]string, len(e.TaxPath))
		for j, id := range e.TaxPath {
			ids[j] = strconv.Itoa(id)
		}
		lines[i] = strings.Join([]string{
			strconv.Itoa(e.TaxID), e.Rank, strings.Join(ids, "|"), strings.Join(e.TaxPathSN, "|"), e.Percentage,
		}, "\t")
	}
	b.WriteString(strings.Join(lines, "\n"))

	n, err := io.WriteString(w, b.String())
	return int64(n), err
}

// WriteProfile writes p to outputFile, creating its directory when needed.
func WriteProfile(outputFile string, p Profile) error {
	if err := utils.EnsureOutputDir(outputFile); err != nil {
		return err
	}
	f, err := os.Create(outputFile)
	if err != nil {
		return fmt.Errorf("create profile %s: %w", outputFile, err)
	}
	if _, err := p.WriteTo(f); err != nil {
		f.Close()
		return fmt.Errorf("write profile %s: %w", outputFile, err)
	}
	return f.Close()
}
