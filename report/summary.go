package report

import (
	"math"
	"sort"

	"github.com/gmaffy/gd-reports/merge"
	"github.com/montanaflynn/stats"
)

// RunSummary describes the merged rows of one sequencing run.
type RunSummary struct {
	RunID   int
	Samples int
	// Matched counts rows that carry an assignment.
	Matched int
	// MedianViralPercentage is the median percentage_of_viral_reads over
	// matched rows, NaN when none could be computed.
	MedianViralPercentage float64
}

// Summarize groups merged rows by run ID, in ascending run order.
func Summarize(m merge.Merged) []RunSummary {
	samples := make(map[int]map[string]bool)
	matched := make(map[int]int)
	percentages := make(map[int]stats.Float64Data)

	for _, row := range m.Rows {
		if samples[row.RunID] == nil {
			samples[row.RunID] = make(map[string]bool)
		}
		samples[row.RunID][row.SampleID] = true
		if !row.Assignment.Valid {
			continue
		}
		matched[row.RunID]++
		if !math.IsNaN(row.PercentageOfViralReads) {
			percentages[row.RunID] = append(percentages[row.RunID], row.PercentageOfViralReads)
		}
	}

	runs := make([]int, 0, len(samples))
	for run := range samples {
		runs = append(runs, run)
	}
	sort.Ints(runs)

	summaries := make([]RunSummary, 0, len(runs))
	for _, run := range runs {
		median, err := stats.Median(percentages[run])
		if err != nil {
			median = math.NaN()
		}
		summaries = append(summaries, RunSummary{
			RunID:                 run,
			Samples:               len(samples[run]),
			Matched:               matched[run],
			MedianViralPercentage: median,
		})
	}
	return summaries
}
