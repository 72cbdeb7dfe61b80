package universe

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"SmartMoney/pkg/util"

	"github.com/xuri/excelize/v2"
)

var ErrEmpty = errors.New("universe file lists no tickers")

// Load reads a ticker universe. Spreadsheets (.xlsx) and CSV files are read
// from their first column; anything else is treated as one ticker per line.
// Blank rows, '#' comments and a Ticker/Symbol header row are skipped and
// the result is upper-cased and de-duplicated in file order.
func Load(path string) ([]string, error) {
	var (
		raw []string
		err error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		raw, err = readXLSX(path)
	case ".csv":
		raw, err = readCSVFile(path)
	default:
		raw, err = readTextFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("load universe %s: %w", path, err)
	}

	syms := util.NormalizeSymbols(filter(raw))
	if len(syms) == 0 {
		return nil, fmt.Errorf("load universe %s: %w", path, ErrEmpty)
	}
	return syms, nil
}

// Resolve prefers an explicit ticker list over the universe file.
func Resolve(tickers []string, path string) ([]string, error) {
	if syms := util.NormalizeSymbols(filter(tickers)); len(syms) > 0 {
		return syms, nil
	}
	if path == "" {
		return nil, ErrEmpty
	}
	return Load(path)
}

func filter(cells []string) []string {
	out := make([]string, 0, len(cells))
	for _, c := range cells {
		c = strings.TrimSpace(c)
		if c == "" || strings.HasPrefix(c, "#") {
			continue
		}
		if len(out) == 0 {
			switch strings.ToLower(c) {
			case "ticker", "tickers", "symbol", "symbols":
				continue
			}
		}
		out = append(out, c)
	}
	return out
}

func readXLSX(path string) ([]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(rows))
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		out = append(out, row[0])
	}
	return out, nil
}

func readCSVFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return readCSV(f)
}

func readCSV(r io.Reader) ([]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.Comment = '#'
	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(records))
	for _, rec := range records {
		if len(rec) > 0 {
			out = append(out, rec[0])
		}
	}
	return out, nil
}

func readTextFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		out = append(out, sc.Text())
	}
	return out, sc.Err()
}
