package translations

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"bannercheck/internal/logger"
	"bannercheck/internal/sheets"
	"bannercheck/pkg/models"
)

// TabReader returns the raw tabs of a spreadsheet
type TabReader interface {
	ReadAllTabs(ctx context.Context) ([]sheets.Tab, error)
}

// SheetReader reads translation rows from Google Sheets
type SheetReader struct {
	tabs TabReader
	log  zerolog.Logger
}

// NewSheetReader creates a new reader over a Sheets tab source
func NewSheetReader(tabs TabReader) *SheetReader {
	return &SheetReader{
		tabs: tabs,
		log:  logger.WithComponent("translations-reader"),
	}
}

// ReadRows pools all tabs of the spreadsheet into translation rows
func (sr *SheetReader) ReadRows(ctx context.Context) ([]models.TranslationRow, error) {
	const op = "ReadRows"

	tabs, err := sr.tabs.ReadAllTabs(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read spreadsheet: %w", op, err)
	}

	tables := make([]Table, 0, len(tabs))
	for _, tab := range tabs {
		rows := make([][]string, len(tab.Values))
		for i, row := range tab.Values {
			cells := make([]string, len(row))
			for j := range row {
				cells[j] = getString(row, j)
			}
			rows[i] = cells
		}
		sr.log.Debug().Str("sheet", tab.Title).Int("rows", len(rows)).Msg("Read tab")
		tables = append(tables, Table{Name: tab.Title, Rows: rows})
	}

	out, err := FromTables(tables)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

// getString safely extracts a string value from a row
func getString(row []interface{}, index int) string {
	if index >= len(row) || row[index] == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprintf("%v", row[index]))
}
