package parsers

import (
	"fmt"
	"strings"

	"github.com/Grupo-LOROs/ComisionadorERA/src/logger"
	"github.com/xuri/excelize/v2"
)

// OrderParser extracts the set of order identifiers eligible for
// commissioning from the auxiliary cross-reference sheet. An order is valid
// only when both the "ov" and "cruce" cells of its row are populated; both
// values enter the set, since either may appear as a transaction's order id.
type OrderParser struct{}

func NewOrderParser() *OrderParser {
	return &OrderParser{}
}

// Parse returns the valid-order set from the workbook's cross-reference
// sheet. An empty set is not an error here; the caller decides.
func (p *OrderParser) Parse(f *excelize.File) (map[string]struct{}, error) {
	rows, err := sheetRows(f, SheetValidOrders)
	if err != nil {
		return nil, err
	}

	headerRow, ovCol, cruceCol := 0, 0, 0
	for r := 1; r <= headerScanRows && headerRow == 0; r++ {
		ov, cruce := 0, 0
		for c := 1; c <= headerScanCols; c++ {
			switch strings.ToLower(cellAt(rows, r, c)) {
			case "ov":
				ov = c
			case "cruce":
				cruce = c
			}
		}
		if ov > 0 && cruce > 0 {
			headerRow, ovCol, cruceCol = r, ov, cruce
		}
	}
	if headerRow == 0 {
		return nil, fmt.Errorf("%w: 'ov' and 'cruce' not found in %q", ErrHeaderNotFound, SheetValidOrders)
	}

	valid := make(map[string]struct{})
	for r := headerRow + 1; r <= len(rows); r++ {
		ov := NormOrderRef(cellAt(rows, r, ovCol))
		cruce := NormOrderRef(cellAt(rows, r, cruceCol))
		if ov != "" && cruce != "" {
			valid[ov] = struct{}{}
			valid[cruce] = struct{}{}
		}
	}

	logger.L.Info("Valid-order set extracted", "orders", len(valid))
	return valid, nil
}
