// Package sampleid pulls the run and sample identifiers out of Genome
// Detective result filenames such as "3_10_results.csv", where 3 is the run
// ID and 10 the sample ID.
package sampleid

import (
	"fmt"
	"path/filepath"
	"strings"
)

const expectedPattern = `
Expected underscores in the filename with the sample ID, e.g.
3_1_results.csv
Please provide sample names in this format.`

// FormatError reports a filename (or identifier) that does not follow the
// <run>_<sample>_results.<ext> pattern.
type FormatError struct {
	Path   string
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("%s: %s%s", e.Path, e.Reason, expectedPattern)
}

// Parse returns the run and sample IDs of a result file. Only the basename
// is inspected; sample IDs may themselves contain underscores.
func Parse(path string) (runID string, sampleID string, err error) {
	base := filepath.Base(path)
	fields := strings.Split(base, "_")
	if len(fields) < 3 {
		return "", "", &FormatError{Path: path, Reason: fmt.Sprintf("found %d underscores in %q, need at least 2", len(fields)-1, base)}
	}

	runID = fields[0]
	sampleID = strings.Join(fields[1:len(fields)-1], "_")
	return runID, sampleID, nil
}

// SampleKey combines run and sample ID the way the heatmaps and CAMI profiles
// label a sample, e.g. "3_10".
func SampleKey(runID int, sampleID string) string {
	return fmt.Sprintf("%d_%s", runID, sampleID)
}
