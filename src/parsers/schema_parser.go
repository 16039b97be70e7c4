package parsers

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Grupo-LOROs/ComisionadorERA/src/logger"
	"github.com/Grupo-LOROs/ComisionadorERA/src/models"
	"github.com/xuri/excelize/v2"
)

// Fixed layout of the rule workbook: brackets live in columns B..G, the price
// list keys off column B with tier prices at E, H, K and N.
const (
	bracketLowerCol = 2 // B
	bracketUpperCol = 3 // C
	bracketTier4Col = 4 // D..G: tier 4..1 rates
	bracketScanRows = 600

	priceModelCol = 2  // B
	priceTier4Col = 5  // E
	priceTier3Col = 8  // H
	priceTier2Col = 11 // K
	priceTier1Col = 14 // N

	typeAdvisorCol = 2 // B
	typeLabelCol   = 3 // C
)

// SchemaParser reads the rule workbook into a normalized RuleSet.
type SchemaParser struct{}

func NewSchemaParser() *SchemaParser {
	return &SchemaParser{}
}

// Parse loads commission brackets, the product price list and the optional
// advisor-type map from the rule workbook at path.
func (p *SchemaParser) Parse(path string) (*models.RuleSet, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: expected %q", ErrSchemaFileMissing, filepath.Base(path))
	}

	f, err := OpenWorkbook(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	brackets, err := p.parseBrackets(f)
	if err != nil {
		return nil, err
	}
	prices, err := p.parsePriceLists(f)
	if err != nil {
		return nil, err
	}
	types := p.parseAdvisorTypes(f)

	logger.L.Info("Rule workbook loaded",
		"path", filepath.Base(path),
		"brackets", len(brackets),
		"products", len(prices),
		"advisorTypes", len(types))

	return &models.RuleSet{
		SchemaPath:   path,
		Brackets:     brackets,
		Prices:       prices,
		AdvisorTypes: types,
	}, nil
}

func (p *SchemaParser) parseBrackets(f *excelize.File) ([]models.CommissionBracket, error) {
	rows, err := sheetRows(f, SheetBrackets)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchemaLayout, err)
	}

	headerRow := 0
	for r := 1; r <= headerScanRows; r++ {
		lower := strings.ToLower(cellAt(rows, r, bracketLowerCol))
		upper := strings.ToLower(cellAt(rows, r, bracketUpperCol))
		if lower == "limite inf" && upper == "limite sup" {
			headerRow = r
			break
		}
	}
	if headerRow == 0 {
		return nil, fmt.Errorf("%w: headers 'Limite inf'/'Limite sup' not found in %q", ErrSchemaLayout, SheetBrackets)
	}

	var brackets []models.CommissionBracket
	for r := headerRow + 1; r <= headerRow+bracketScanRows; r++ {
		lowerRaw := cellAt(rows, r, bracketLowerCol)
		upperRaw := cellAt(rows, r, bracketUpperCol)
		if lowerRaw == "" || upperRaw == "" {
			// Stop at the first gap once the table has started.
			if len(brackets) > 0 {
				break
			}
			continue
		}

		lower, okL := parseFloat(lowerRaw)
		upper, okU := parseFloat(upperRaw)
		r4, ok4 := parseFloat(cellAt(rows, r, bracketTier4Col))
		r3, ok3 := parseFloat(cellAt(rows, r, bracketTier4Col+1))
		r2, ok2 := parseFloat(cellAt(rows, r, bracketTier4Col+2))
		r1, ok1 := parseFloat(cellAt(rows, r, bracketTier4Col+3))
		if !okL || !okU || !ok4 || !ok3 || !ok2 || !ok1 {
			logger.L.Debug("Skipping bracket row with non-numeric cells", "row", r)
			continue
		}

		brackets = append(brackets, models.CommissionBracket{
			LowerBound: lower,
			UpperBound: upper,
			RateTier4:  r4,
			RateTier3:  r3,
			RateTier2:  r2,
			RateTier1:  r1,
		})
	}
	if len(brackets) == 0 {
		return nil, fmt.Errorf("%w: no brackets parsed from %q", ErrSchemaLayout, SheetBrackets)
	}

	// The sheet is not assumed to be pre-sorted.
	sort.Slice(brackets, func(i, j int) bool {
		return brackets[i].LowerBound < brackets[j].LowerBound
	})
	return brackets, nil
}

func (p *SchemaParser) parsePriceLists(f *excelize.File) (map[string]models.TierPrices, error) {
	rows, err := sheetRows(f, SheetPriceLists)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchemaLayout, err)
	}

	headerRow := 0
	for r := 1; r <= headerScanRows; r++ {
		if strings.ToUpper(cellAt(rows, r, priceModelCol)) == "MODELO" {
			headerRow = r
			break
		}
	}
	if headerRow == 0 {
		return nil, fmt.Errorf("%w: header 'MODELO' not found in %q", ErrSchemaLayout, SheetPriceLists)
	}

	prices := make(map[string]models.TierPrices)
	for r := headerRow + 1; r <= len(rows); r++ {
		key := NormProductKey(cellAt(rows, r, priceModelCol))
		if key == "" {
			continue
		}

		raw4 := cellAt(rows, r, priceTier4Col)
		raw3 := cellAt(rows, r, priceTier3Col)
		raw2 := cellAt(rows, r, priceTier2Col)
		raw1 := cellAt(rows, r, priceTier1Col)
		if raw4 == "" && raw3 == "" && raw2 == "" && raw1 == "" {
			continue
		}

		if _, dup := prices[key]; dup {
			// Last row wins; flagged for the schema owner to clean up.
			logger.L.Warn("Duplicate product in price list, keeping last occurrence", "product", key, "row", r)
		}
		prices[key] = models.TierPrices{
			Tier4: floatOrNaN(raw4),
			Tier3: floatOrNaN(raw3),
			Tier2: floatOrNaN(raw2),
			Tier1: floatOrNaN(raw1),
		}
	}
	if len(prices) == 0 {
		return nil, fmt.Errorf("%w: no products parsed from %q", ErrSchemaLayout, SheetPriceLists)
	}
	return prices, nil
}

// parseAdvisorTypes reads the optional advisor-type sheet. A missing sheet or
// header is not an error: the map is simply empty.
func (p *SchemaParser) parseAdvisorTypes(f *excelize.File) map[string]string {
	rows, err := sheetRows(f, SheetAdvisorTypes)
	if err != nil {
		return map[string]string{}
	}

	headerRow := 0
	for r := 1; r <= headerScanRows; r++ {
		advisor := strings.ToUpper(cellAt(rows, r, typeAdvisorCol))
		label := strings.ToUpper(cellAt(rows, r, typeLabelCol))
		if advisor == "ASESORES" && label == "TIPO" {
			headerRow = r
			break
		}
	}
	if headerRow == 0 {
		return map[string]string{}
	}

	types := make(map[string]string)
	for r := headerRow + 1; r <= len(rows); r++ {
		advisor := strings.ToUpper(cellAt(rows, r, typeAdvisorCol))
		if advisor == "" {
			continue
		}
		types[advisor] = cellAt(rows, r, typeLabelCol)
	}
	return types
}

func floatOrNaN(s string) float64 {
	if f, ok := parseFloat(s); ok {
		return f
	}
	return math.NaN()
}
