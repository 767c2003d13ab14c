package report

import (
	"fmt"

	"github.com/gmaffy/gd-reports/utils"
	"github.com/xuri/excelize/v2"
)

// DefaultSheet is the worksheet name of curation workbooks.
const DefaultSheet = "GenomeDetective-PCR"

// WriteXLSX writes the table to a single-sheet workbook so the placeholder
// fields can be filled in by hand.
func (t Table) WriteXLSX(outputFile, sheet string) error {
	if sheet == "" {
		sheet = DefaultSheet
	}
	if err := utils.EnsureOutputDir(outputFile); err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("name sheet %s: %w", sheet, err)
	}

	for i, record := range t.Records() {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		line := record
		if err := f.SetSheetRow(sheet, cell, &line); err != nil {
			return fmt.Errorf("write row %d of %s: %w", i+1, outputFile, err)
		}
	}
	if err := f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return fmt.Errorf("freeze header of %s: %w", outputFile, err)
	}

	if err := f.SaveAs(outputFile); err != nil {
		return fmt.Errorf("save %s: %w", outputFile, err)
	}
	return nil
}
