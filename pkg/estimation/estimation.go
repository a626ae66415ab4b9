// Package estimation reads the effort and cost spreadsheet the backend
// generates for a project.
//
// The workbook layout is owned by the backend. Each sheet is read as a
// header row followed by data rows; nothing else about the layout is
// assumed, so new columns appear without code changes.
package estimation

import (
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	apperr "github.com/matzehuels/archview/pkg/errors"
)

// Workbook is a parsed spreadsheet.
type Workbook struct {
	Sheets []Sheet
}

// Sheet is one worksheet: a header row and the rows below it. Every row
// has exactly len(Header) cells. The header is padded with empty names when
// a data row is wider than it.
type Sheet struct {
	Name   string
	Header []string
	Rows   [][]string
}

// Parse reads an .xlsx workbook. Sheets without any rows are skipped.
func Parse(r io.Reader) (*Workbook, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrCodeInvalidFormat, err, "open spreadsheet")
	}
	defer f.Close()

	wb := &Workbook{}
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, apperr.Wrap(apperr.ErrCodeInvalidFormat, err, "read sheet %q", name)
		}
		if s, ok := newSheet(name, rows); ok {
			wb.Sheets = append(wb.Sheets, s)
		}
	}
	return wb, nil
}

func newSheet(name string, rows [][]string) (Sheet, bool) {
	for len(rows) > 0 && blank(rows[0]) {
		rows = rows[1:]
	}
	if len(rows) == 0 {
		return Sheet{}, false
	}

	width := 0
	for _, row := range rows {
		width = max(width, len(row))
	}
	header := make([]string, width)
	for i, h := range rows[0] {
		header[i] = strings.TrimSpace(h)
	}
	s := Sheet{Name: name, Header: header}
	for _, row := range rows[1:] {
		if blank(row) {
			continue
		}
		cells := make([]string, len(header))
		copy(cells, row)
		s.Rows = append(s.Rows, cells)
	}
	return s, true
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// Sheet returns the sheet with the given name (case-insensitive).
func (w *Workbook) Sheet(name string) (*Sheet, bool) {
	for i := range w.Sheets {
		if strings.EqualFold(w.Sheets[i].Name, name) {
			return &w.Sheets[i], true
		}
	}
	return nil, false
}

// Column returns the index of the header matching name (case-insensitive),
// or -1.
func (s *Sheet) Column(name string) int {
	for i, h := range s.Header {
		if strings.EqualFold(h, name) {
			return i
		}
	}
	return -1
}

// Totals sums the numeric cells of the named column. Empty and non-numeric
// cells are skipped; counted reports how many cells contributed.
func (s *Sheet) Totals(column string) (sum float64, counted int, err error) {
	idx := s.Column(column)
	if idx < 0 {
		return 0, 0, apperr.New(apperr.ErrCodeNotFound, "sheet %q has no column %q", s.Name, column)
	}
	for _, row := range s.Rows {
		if v, ok := Number(row[idx]); ok {
			sum += v
			counted++
		}
	}
	return sum, counted, nil
}

// NumericColumns returns the headers whose non-empty cells are all numbers.
func (s *Sheet) NumericColumns() []string {
	var cols []string
	for i, h := range s.Header {
		seen := 0
		numeric := true
		for _, row := range s.Rows {
			c := strings.TrimSpace(row[i])
			if c == "" {
				continue
			}
			seen++
			if _, ok := Number(c); !ok {
				numeric = false
				break
			}
		}
		if numeric && seen > 0 && h != "" {
			cols = append(cols, h)
		}
	}
	return cols
}

var (
	numberCleaner = strings.NewReplacer("$", "", "€", "", "£", "", " ", "")
	thousandsRe   = regexp.MustCompile(`^[-+]?\d{1,3}(,\d{3})+(\.\d*)?$`)
)

// Number parses a spreadsheet cell as a number, accepting a leading
// currency symbol. Commas are read as thousands separators when they group
// digits in threes ("1,250.5"); a single comma otherwise is a decimal comma
// ("1,5"). Any other use of commas is not a number.
func Number(cell string) (float64, bool) {
	c := numberCleaner.Replace(strings.TrimSpace(cell))
	if c == "" {
		return 0, false
	}
	if strings.Contains(c, ",") {
		switch {
		case thousandsRe.MatchString(c):
			c = strings.ReplaceAll(c, ",", "")
		case strings.Count(c, ",") == 1 && !strings.Contains(c, "."):
			c = strings.Replace(c, ",", ".", 1)
		default:
			return 0, false
		}
	}
	v, err := strconv.ParseFloat(c, 64)
	return v, err == nil
}
