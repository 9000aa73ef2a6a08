// Package translations loads the translation spreadsheet into rows keyed by
// locale column. All tabs of a workbook are pooled in tab order, then row order.
package translations

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"

	"bannercheck/internal/logger"
	"bannercheck/internal/sheets"
	"bannercheck/pkg/models"
)

var (
	// ErrNoLocaleColumns is returned when no table has a header row
	ErrNoLocaleColumns = errors.New("spreadsheet has no locale columns")

	// ErrUnsupportedSource is returned for a source that is neither a known file type nor a Sheets URL
	ErrUnsupportedSource = errors.New("unsupported spreadsheet source")
)

// Table is one tab of raw cell values, header row first
type Table struct {
	Name string
	Rows [][]string
}

// Load reads a spreadsheet from an .xlsx or .csv path, or a Google Sheets URL.
func Load(ctx context.Context, source string) ([]models.TranslationRow, error) {
	const op = "translations.Load"

	if sheets.IsSheetURL(source) {
		svc, err := sheets.NewSheetsService(ctx, source)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return NewSheetReader(svc).ReadRows(ctx)
	}

	switch strings.ToLower(filepath.Ext(source)) {
	case ".xlsx", ".xlsm":
		return LoadXLSX(source)
	case ".csv":
		return LoadCSV(source)
	default:
		return nil, fmt.Errorf("%s: %w: %s", op, ErrUnsupportedSource, source)
	}
}

// LoadXLSX reads every sheet of an Excel workbook
func LoadXLSX(path string) ([]models.TranslationRow, error) {
	const op = "translations.LoadXLSX"

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to open workbook: %w", op, err)
	}
	defer f.Close()

	var tables []Table
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to read sheet %q: %w", op, name, err)
		}
		tables = append(tables, Table{Name: name, Rows: rows})
	}
	return FromTables(tables)
}

// LoadCSV reads a single comma-separated table. The sheet name is the file's base name.
func LoadCSV(path string) ([]models.TranslationRow, error) {
	const op = "translations.LoadCSV"

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer file.Close()

	rows, err := readCSV(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return FromTables([]Table{{Name: name, Rows: rows}})
}

func readCSV(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	return reader.ReadAll()
}

// FromTables converts raw tables into translation rows. The first row of each
// table is its header; header cells are trimmed and lowercased, blank headers
// are ignored, and rows with no non-blank cell are dropped.
func FromTables(tables []Table) ([]models.TranslationRow, error) {
	log := logger.WithComponent("translations")

	var (
		out     []models.TranslationRow
		columns int
	)
	for _, table := range tables {
		rows, n := tableRows(table, log)
		columns += n
		out = append(out, rows...)
	}

	if columns == 0 {
		return nil, ErrNoLocaleColumns
	}

	log.Info().
		Int("tables", len(tables)).
		Int("rows", len(out)).
		Msg("Translation rows loaded")

	return out, nil
}

// tableRows returns the rows of one table and its number of named columns
func tableRows(table Table, log zerolog.Logger) ([]models.TranslationRow, int) {
	if len(table.Rows) == 0 {
		log.Debug().Str("sheet", table.Name).Msg("Skipping empty sheet")
		return nil, 0
	}

	header := make([]string, len(table.Rows[0]))
	columns := 0
	for i, h := range table.Rows[0] {
		header[i] = strings.ToLower(strings.TrimSpace(h))
		if header[i] != "" {
			columns++
		}
	}

	var rows []models.TranslationRow
	for i, raw := range table.Rows[1:] {
		rowNum := i + 2 // Account for header and 0-based indexing

		cells := make(map[string]string, len(header))
		blank := true
		for col, locale := range header {
			if locale == "" {
				continue
			}
			value := ""
			if col < len(raw) {
				value = raw[col]
			}
			if _, dup := cells[locale]; dup {
				continue // first column with a header wins
			}
			cells[locale] = value
			if strings.TrimSpace(value) != "" {
				blank = false
			}
		}
		if blank {
			continue
		}
		rows = append(rows, models.TranslationRow{Sheet: table.Name, Row: rowNum, Cells: cells})
	}

	log.Debug().
		Str("sheet", table.Name).
		Strs("columns", header).
		Int("rows", len(rows)).
		Msg("Sheet parsed")

	return rows, columns
}
