package exporter

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/ryoyaiwata8-sudo/mail-review/models"
)

const checkSheetName = "週次チェック"

// ExportExcel writes all evaluated results into one xlsx check sheet,
// same columns and row layout as the CSV export.
func ExportExcel(results []models.CaseResult, path string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", checkSheetName); err != nil {
		return err
	}

	header := make([]interface{}, len(csvColumns))
	for i, c := range csvColumns {
		header[i] = c
	}
	if err := f.SetSheetRow(checkSheetName, "A1", &header); err != nil {
		return err
	}

	rowN := 2
	for _, res := range results {
		for _, row := range resultRows(res) {
			values := make([]interface{}, len(row))
			for i, v := range row {
				values[i] = v
			}
			cell, err := excelize.CoordinatesToCellName(1, rowN)
			if err != nil {
				return err
			}
			if err := f.SetSheetRow(checkSheetName, cell, &values); err != nil {
				return err
			}
			rowN++
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("saving check sheet: %w", err)
	}
	return nil
}
