package universe

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/xuri/excelize/v2"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return p
}

func TestLoadText(t *testing.T) {
	p := writeFile(t, "tickers.txt", "# IDX watchlist\nbbca.jk\n\nTLKM.JK\nBBCA.JK\n  ASII.JK  \n")
	got, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	want := []string{"BBCA.JK", "TLKM.JK", "ASII.JK"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v want %v", got, want)
	}
}

func TestLoadCSVSkipsHeader(t *testing.T) {
	p := writeFile(t, "tickers.csv", "Ticker,Name\nBBRI.JK,Bank Rakyat\nUNVR.JK,Unilever\n")
	got, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	want := []string{"BBRI.JK", "UNVR.JK"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v want %v", got, want)
	}
}

func TestLoadXLSXFirstColumn(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	rows := [][]interface{}{{"BBCA.JK", "x"}, {"ANTM.JK"}, {""}, {"GOTO.JK"}}
	for i, r := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(sheet, cell, &r); err != nil {
			t.Fatalf("set row: %v", err)
		}
	}
	p := filepath.Join(t.TempDir(), "tickers.xlsx")
	if err := f.SaveAs(p); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	want := []string{"BBCA.JK", "ANTM.JK", "GOTO.JK"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v want %v", got, want)
	}
}

func TestLoadEmpty(t *testing.T) {
	p := writeFile(t, "empty.txt", "# nothing\n\n")
	if _, err := Load(p); !errors.Is(err, ErrEmpty) {
		t.Fatalf("want ErrEmpty, got %v", err)
	}
}

func TestResolvePrefersExplicitList(t *testing.T) {
	got, err := Resolve([]string{"aali.jk"}, "/does/not/exist.txt")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !reflect.DeepEqual(got, []string{"AALI.JK"}) {
		t.Fatalf("got %v", got)
	}
	if _, err := Resolve(nil, ""); !errors.Is(err, ErrEmpty) {
		t.Fatalf("want ErrEmpty, got %v", err)
	}
}
