package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/xuri/excelize/v2"
)

// Format is an output encoding
type Format string

const (
	FormatTable Format = "table"
	FormatCSV   Format = "csv"
	FormatJSON  Format = "json"
	FormatXLSX  Format = "xlsx"
)

// ParseFormat validates a format name
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatTable, FormatCSV, FormatJSON, FormatXLSX:
		return f, nil
	case "":
		return FormatTable, nil
	default:
		return "", fmt.Errorf("unknown report format %q (want table, csv, json or xlsx)", s)
	}
}

// Write encodes the report in the given format
func (r *Report) Write(w io.Writer, format Format) error {
	switch format {
	case FormatTable, "":
		return r.WriteTable(w)
	case FormatCSV:
		return r.WriteCSV(w)
	case FormatJSON:
		return r.WriteJSON(w)
	case FormatXLSX:
		return r.WriteXLSX(w)
	default:
		return fmt.Errorf("unknown report format %q", format)
	}
}

// WriteTable prints an aligned summary table for terminals
func (r *Report) WriteTable(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "BANNER\tLOCALE\tFILE\tSIZE\tSIZE STATUS\tSCALE STATUS\tTEXT\tREASON")
	for _, row := range r.Rows {
		v := row.Values()
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			v[0], v[1], v[2], dash(row.Actual), v[7], v[8], v[12], dash(v[13]))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	s := r.Summary
	_, err := fmt.Fprintf(w, "\n%d banners x %d locales: %d pass, %d fail, %d skipped; %d missing files, %d size failures, %d unmatched banners\n",
		s.Banners, s.Locales, s.Pass, s.Fail, s.Skipped, s.Missing, s.SizeFailed, s.Unmatched)
	return err
}

// WriteCSV writes one header row and one line per pair
func (r *Report) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, row := range r.Rows {
		if err := cw.Write(row.Values()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteJSON writes the whole report, metadata and summary included
func (r *Report) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

const (
	resultsSheet = "Results"
	summarySheet = "Summary"
)

// WriteXLSX writes a workbook with a results sheet and a summary sheet
func (r *Report) WriteXLSX(w io.Writer) error {
	const op = "WriteXLSX"

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", resultsSheet); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := writeSheet(f, resultsSheet, Header, r.valueRows()); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if _, err := f.NewSheet(summarySheet); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := writeSheet(f, summarySheet, []string{"Metric", "Value"}, r.summaryRows()); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("%s: failed to write workbook: %w", op, err)
	}
	return nil
}

func (r *Report) valueRows() [][]string {
	out := make([][]string, len(r.Rows))
	for i, row := range r.Rows {
		out[i] = row.Values()
	}
	return out
}

func (r *Report) summaryRows() [][]string {
	s := r.Summary
	num := func(n int) string { return fmt.Sprintf("%d", n) }
	return [][]string{
		{"Run ID", r.RunID},
		{"Reference locale", r.Reference},
		{"Locales", strings.Join(r.Locales, ", ")},
		{"Text backend", r.Backend},
		{"Scale", num(r.Scale)},
		{"Size basis", r.Basis},
		{"Banners", num(s.Banners)},
		{"Pairs", num(s.Pairs)},
		{"Missing files", num(s.Missing)},
		{"Size correct", num(s.SizeCorrect)},
		{"Size failures", num(s.SizeFailed)},
		{"Pass", num(s.Pass)},
		{"Fail", num(s.Fail)},
		{"Skipped", num(s.Skipped)},
		{"Unmatched banners", num(s.Unmatched)},
		{"Text extraction failures", num(s.OCRFailures)},
		{"Empty expected translations", num(s.EmptyExpected)},
	}
}

// writeSheet writes a bold, frozen header row followed by rows
func writeSheet(f *excelize.File, sheet string, header []string, rows [][]string) error {
	if err := setRow(f, sheet, 1, header); err != nil {
		return err
	}
	for i, row := range rows {
		if err := setRow(f, sheet, i+2, row); err != nil {
			return err
		}
	}

	style, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"E6E6E6"}, Pattern: 1},
	})
	if err != nil {
		return err
	}
	last, err := excelize.ColumnNumberToName(len(header))
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last+"1", style); err != nil {
		return err
	}
	return f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

func setRow(f *excelize.File, sheet string, rowNum int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return err
	}
	row := make([]interface{}, len(values))
	for i, v := range values {
		row[i] = v
	}
	return f.SetSheetRow(sheet, cell, &row)
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
