package parsers

import (
	"fmt"
	"strings"
	"time"

	"github.com/Grupo-LOROs/ComisionadorERA/src/logger"
	"github.com/Grupo-LOROs/ComisionadorERA/src/models"
	"github.com/xuri/excelize/v2"
)

// The transaction sheet uses fixed column letters:
// A=date, D=advisor, E=client, H=product, I=quantity, S=gross unit price,
// T=order id. The first row is the export's header.
const (
	txDateCol     = 1  // A
	txAdvisorCol  = 4  // D
	txClientCol   = 5  // E
	txProductCol  = 8  // H
	txQuantityCol = 9  // I
	txPriceCol    = 19 // S
	txOrderCol    = 20 // T
)

// ProgressFunc reports filter progress as (rows done, total rows).
type ProgressFunc func(done, total int)

// TransactionParser loads the raw transaction sheet and applies the filter
// pipeline: date coercion, tax-line exclusion, valid-order membership,
// numeric coercion, and price-table membership — in that order.
type TransactionParser struct {
	// Progress, when set, is invoked periodically during filtering.
	Progress ProgressFunc
}

func NewTransactionParser() *TransactionParser {
	return &TransactionParser{}
}

// Parse filters the workbook's transaction sheet against the price table and
// the valid-order set. Row-level coercion failures drop the row silently;
// only whole-dataset emptiness is an error.
func (p *TransactionParser) Parse(f *excelize.File, prices map[string]models.TierPrices, validOrders map[string]struct{}) (*models.FilteredDataset, error) {
	rows, err := sheetRows(f, SheetTransactions)
	if err != nil {
		return nil, err
	}

	var (
		kept     []models.TransactionRow
		advisors = make(map[string]struct{})
		orders   = make(map[string]struct{})
		dateMin  time.Time
		dateMax  time.Time

		droppedDate, droppedTax, droppedOrder, droppedNumeric, droppedProduct int
	)

	total := len(rows)
	for r := 2; r <= total; r++ {
		if p.Progress != nil && (r%512 == 0 || r == total) {
			p.Progress(r, total)
		}

		date, ok := parseWorkbookDate(cellAt(rows, r, txDateCol))
		if !ok {
			droppedDate++
			continue
		}

		product := cellAt(rows, r, txProductCol)
		if IsTaxLine(product) {
			droppedTax++
			continue
		}

		orderID := NormOrderRef(cellAt(rows, r, txOrderCol))
		if _, valid := validOrders[orderID]; !valid {
			droppedOrder++
			continue
		}

		quantity, okQ := parseFloat(cellAt(rows, r, txQuantityCol))
		gross, okP := parseFloat(cellAt(rows, r, txPriceCol))
		if !okQ || !okP || product == "" || quantity == 0 {
			droppedNumeric++
			continue
		}

		key := NormProductKey(product)
		if _, listed := prices[key]; !listed {
			droppedProduct++
			continue
		}

		row := models.TransactionRow{
			Date:           date,
			Advisor:        strings.TrimSpace(cellAt(rows, r, txAdvisorCol)),
			Client:         strings.TrimSpace(cellAt(rows, r, txClientCol)),
			OrderID:        orderID,
			Product:        product,
			ProductKey:     key,
			Quantity:       quantity,
			UnitPriceGross: gross,
		}
		kept = append(kept, row)
		advisors[row.Advisor] = struct{}{}
		orders[row.OrderID] = struct{}{}
		if dateMin.IsZero() || date.Before(dateMin) {
			dateMin = date
		}
		if dateMax.IsZero() || date.After(dateMax) {
			dateMax = date
		}
	}

	logger.L.Info("Transaction filter pipeline finished",
		"kept", len(kept),
		"droppedDate", droppedDate,
		"droppedTax", droppedTax,
		"droppedOrder", droppedOrder,
		"droppedNumeric", droppedNumeric,
		"droppedProduct", droppedProduct)

	if len(kept) == 0 {
		return nil, fmt.Errorf("%w: check that Producto in the export matches MODELO in the price list", ErrEmptyAfterFiltering)
	}

	return &models.FilteredDataset{
		SourcePath: f.Path,
		Rows:       kept,
		Audit: models.DatasetAudit{
			RowsAfterFilters: len(kept),
			DistinctAdvisors: len(advisors),
			DistinctOrders:   len(orders),
			DateMin:          dateMin,
			DateMax:          dateMax,
		},
	}, nil
}
