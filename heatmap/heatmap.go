// Package heatmap draws interactive heatmaps of the share of total reads per
// sample and assignment.
package heatmap

import (
	"fmt"
	"math"
	"os"
	"slices"

	"github.com/gmaffy/gd-reports/merge"
	"github.com/gmaffy/gd-reports/utils"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"golang.org/x/exp/maps"
	"gonum.org/v1/gonum/floats"
)

// DefaultColour is the colour of the highest percentage.
const DefaultColour = "#6b2d18"

const lowColour = "#ffffff"

// Titles of the three heatmaps.
const (
	TitleAssigned   = "GenomeDetective assignments"
	TitleDiscovered = "GenomeDetective discoveries"
	TitleAll        = "GenomeDetective assignments+discoveries"
)

// Cell is one plotted rectangle.
type Cell struct {
	Sample     string
	Assignment string
	Percentage float64
	Tooltip    string
}

// Grid is the data of one heatmap.
type Grid struct {
	Samples     []string
	Assignments []string
	Cells       []Cell
	Max         float64
}

// Subset returns the rows of the given category, or all rows for an empty
// category.
func Subset(rows []merge.MergedRow, category string) []merge.MergedRow {
	if category == "" {
		return rows
	}
	var out []merge.MergedRow
	for _, row := range rows {
		if row.Category.Valid && row.Category.String == category {
			out = append(out, row)
		}
	}
	return out
}

// NewGrid lays rows out with sorted samples on the x axis and reverse
// sorted assignments on the y axis. Rows without an assignment or with a NaN
// percentage are not plotted.
func NewGrid(rows []merge.MergedRow) Grid {
	samples := make(map[string]bool)
	assignments := make(map[string]bool)
	var grid Grid
	var values []float64

	for _, row := range rows {
		if !row.Assignment.Valid || row.Assignment.String == "" || math.IsNaN(row.PercentageOfTotalReads) {
			continue
		}
		sample := row.Sample()
		samples[sample] = true
		assignments[row.Assignment.String] = true
		grid.Cells = append(grid.Cells, Cell{
			Sample:     sample,
			Assignment: row.Assignment.String,
			Percentage: row.PercentageOfTotalReads,
			Tooltip:    tooltip(row),
		})
		values = append(values, row.PercentageOfTotalReads)
	}

	grid.Samples = maps.Keys(samples)
	slices.Sort(grid.Samples)
	grid.Assignments = maps.Keys(assignments)
	slices.Sort(grid.Assignments)
	slices.Reverse(grid.Assignments)
	if len(values) > 0 {
		grid.Max = floats.Max(values)
	}
	return grid
}

func tooltip(row merge.MergedRow) string {
	reads, _ := row.Value(merge.ColMappedReads)
	contigs, _ := row.Value(merge.ColContigCount)
	coverage, _ := row.Value(merge.ColCoverage)
	total, _ := row.Value(merge.ColTotalReads)
	viral, _ := row.Value(merge.ColViralReads)
	return fmt.Sprintf("%s reads of %s total (%s %%), %s viral (%s %%), %s contigs, coverage %s %%",
		reads,
		total, merge.FormatFloat(row.PercentageOfTotalReads),
		viral, merge.FormatFloat(row.PercentageOfViralReads),
		contigs, coverage)
}

// Chart builds the echarts heatmap of a grid.
func Chart(grid Grid, title, colour string) *charts.HeatMap {
	if colour == "" {
		colour = DefaultColour
	}
	height := "500px"
	if len(grid.Assignments) > 25 {
		height = "600px"
	}

	hm := charts.NewHeatMap()
	hm.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Width: "1000px", Height: height}),
		charts.WithTitleOpts(opts.Title{
			Title:      title,
			Right:      "5%",
			TitleStyle: &opts.TextStyle{Color: colour, FontSize: 16},
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithToolboxOpts(opts.Toolbox{
			Show: opts.Bool(true),
			Feature: &opts.ToolBoxFeature{
				SaveAsImage: &opts.ToolBoxFeatureSaveAsImage{Show: opts.Bool(true)},
				DataZoom:    &opts.ToolBoxFeatureDataZoom{Show: opts.Bool(true)},
				Restore:     &opts.ToolBoxFeatureRestore{Show: opts.Bool(true)},
			},
		}),
		charts.WithXAxisOpts(opts.XAxis{
			Type:      "category",
			Data:      grid.Samples,
			SplitArea: &opts.SplitArea{Show: opts.Bool(false)},
			AxisLabel: &opts.AxisLabel{Rotate: 45},
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Type:      "category",
			Data:      grid.Assignments,
			SplitArea: &opts.SplitArea{Show: opts.Bool(false)},
		}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Calculable: opts.Bool(true),
			Min:        0,
			Max:        float32(grid.Max),
			Text:       []string{"% of total reads", ""},
			InRange:    &opts.VisualMapInRange{Color: []string{lowColour, colour}},
		}),
	)

	data := make([]opts.HeatMapData, 0, len(grid.Cells))
	for _, cell := range grid.Cells {
		data = append(data, opts.HeatMapData{
			Name:  cell.Tooltip,
			Value: [3]interface{}{cell.Sample, cell.Assignment, cell.Percentage},
		})
	}
	hm.AddSeries("percentage of total reads", data)
	return hm
}

// Render writes the heatmap of rows to an HTML file.
func Render(rows []merge.MergedRow, title, colour, outputHTML string) error {
	if err := utils.EnsureOutputDir(outputHTML); err != nil {
		return err
	}
	page := components.NewPage()
	page.PageTitle = title
	page.AddCharts(Chart(NewGrid(rows), title, colour))

	f, err := os.Create(outputHTML)
	if err != nil {
		return fmt.Errorf("create heatmap %s: %w", outputHTML, err)
	}
	if err := page.Render(f); err != nil {
		f.Close()
		return fmt.Errorf("render heatmap %s: %w", outputHTML, err)
	}
	return f.Close()
}
