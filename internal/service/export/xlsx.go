package export

import (
	"fmt"
	"io"

	"SmartMoney/internal/domain/models"

	"github.com/xuri/excelize/v2"
)

const (
	SheetName = "SmartMoney"
	FileName  = "smartmoney_results.xlsx"
)

// Columns returns the header row in the order rows are written.
func Columns() []string {
	cols := []string{"Ticker", "Close"}
	cols = append(cols, models.NumericNames()...)
	cols = append(cols, models.FlagNames()...)
	return append(cols, "SmartScore", "Label")
}

func row(r models.ScoreRecord) []interface{} {
	out := make([]interface{}, 0, len(Columns()))
	out = append(out, r.Ticker, r.Close)
	for _, v := range r.NumericValues() {
		if v == nil {
			out = append(out, nil)
			continue
		}
		out = append(out, *v)
	}
	for _, f := range r.Flags.Values() {
		out = append(out, f)
	}
	return append(out, r.SmartScore, string(r.Label))
}

// WriteXLSX writes the result table as a single-sheet workbook.
func WriteXLSX(w io.Writer, records []models.ScoreRecord) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	header := make([]interface{}, 0, len(Columns()))
	for _, c := range Columns() {
		header = append(header, c)
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, r := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := row(r)
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			return fmt.Errorf("write row %s: %w", r.Ticker, err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
