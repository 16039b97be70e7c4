package parsers

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// Sheet names fixed by the workbook templates in use at the sales org.
const (
	SheetTransactions = "ResultadosVentascomisionesporc"
	SheetValidOrders  = "Hoja2"
	SheetBrackets     = "COMISIONES 2026"
	SheetPriceLists   = "NUEVAS LISTAS"
	SheetAdvisorTypes = "Catalogos"
)

// Header rows are located by scanning, not assumed at row 1.
const (
	headerScanRows = 80
	headerScanCols = 60
)

// Tax/impuesto lines carry no commission. Whole-word match, so "IVA 16%" is
// excluded while "Televisión" is kept.
var taxLineRe = regexp.MustCompile(`(?i)\b(iva|i\.?v\.?a\.?|impuesto|tax)\b`)

// IsTaxLine reports whether a product description is a tax line.
func IsTaxLine(product string) bool {
	s := strings.TrimSpace(product)
	if s == "" {
		return false
	}
	return taxLineRe.MatchString(s)
}

// NormOrderRef normalizes an order identifier cell. Integral numeric values
// render without a decimal point or group separators; everything else is the
// trimmed string. Empty cells render as "".
func NormOrderRef(v string) string {
	s := strings.TrimSpace(v)
	if s == "" {
		return ""
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		if f == float64(int64(f)) {
			return strconv.FormatInt(int64(f), 10)
		}
	}
	return s
}

// NormProductKey normalizes a product identifier for price-table lookups.
func NormProductKey(v string) string {
	return strings.ToUpper(strings.TrimSpace(v))
}

// OpenWorkbook opens an .xlsx/.xlsm workbook for reading.
func OpenWorkbook(path string) (*excelize.File, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening workbook %s: %w", path, err)
	}
	return f, nil
}

// sheetRows returns the raw cell matrix of a named sheet, or ErrSheetNotFound.
// Raw values keep numerics unformatted and dates as Excel serials, which the
// coercion helpers below understand.
func sheetRows(f *excelize.File, sheet string) ([][]string, error) {
	idx, err := f.GetSheetIndex(sheet)
	if err != nil || idx == -1 {
		return nil, fmt.Errorf("%w: %q", ErrSheetNotFound, sheet)
	}
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q: %w", sheet, err)
	}
	return rows, nil
}

// cellAt returns the trimmed cell at 1-based (row, col), "" when out of range.
func cellAt(rows [][]string, row, col int) string {
	if row < 1 || row > len(rows) {
		return ""
	}
	r := rows[row-1]
	if col < 1 || col > len(r) {
		return ""
	}
	return strings.TrimSpace(r[col-1])
}

// parseFloat coerces a raw cell into a float64.
func parseFloat(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// Date layouts seen in transaction exports when cells are stored as text.
var dateLayouts = []string{
	"2006-01-02",
	"02-01-2006",
	"02/01/2006",
	"2006-01-02 15:04:05",
	"01-02-06",
}

// parseWorkbookDate coerces a raw cell into a date. Numeric cells are Excel
// serial dates; text cells are tried against the known layouts.
func parseWorkbookDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	if serial, err := strconv.ParseFloat(s, 64); err == nil && serial > 0 {
		if t, err := excelize.ExcelDateToTime(serial, false); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
