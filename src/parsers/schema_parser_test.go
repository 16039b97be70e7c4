package parsers

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/Grupo-LOROs/ComisionadorERA/src/logger"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestMain(m *testing.M) {
	logger.InitLogger("error")
	os.Exit(m.Run())
}

// writeRuleWorkbook builds a minimal rule workbook on disk and returns its
// path. mutate may edit the file before saving.
func writeRuleWorkbook(t *testing.T, mutate func(f *excelize.File)) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	_, err := f.NewSheet(SheetBrackets)
	require.NoError(t, err)
	// Headers offset from A1, as in the real workbook.
	require.NoError(t, f.SetCellValue(SheetBrackets, "B3", "Limite inf"))
	require.NoError(t, f.SetCellValue(SheetBrackets, "C3", "Limite sup"))
	setBracketRow(t, f, 4, 0, 99999.99, 0.010, 0.012, 0.014, 0.016)
	setBracketRow(t, f, 5, 100000, 199999.99, 0.020, 0.022, 0.024, 0.026)
	setBracketRow(t, f, 6, 200000, 9999999, 0.030, 0.032, 0.034, 0.036)

	_, err = f.NewSheet(SheetPriceLists)
	require.NoError(t, err)
	require.NoError(t, f.SetCellValue(SheetPriceLists, "B2", "MODELO"))
	setPriceRow(t, f, 3, "COLCHON-A", 1000, 1200, 1400, 1600)
	setPriceRow(t, f, 4, "colchon-b ", 2000, 2400, 2800, 3200)

	if mutate != nil {
		mutate(f)
	}

	path := filepath.Join(t.TempDir(), "rules.xlsm")
	require.NoError(t, f.SaveAs(path))
	return path
}

func setBracketRow(t *testing.T, f *excelize.File, row int, lower, upper, r4, r3, r2, r1 float64) {
	t.Helper()
	cells := map[string]float64{"B": lower, "C": upper, "D": r4, "E": r3, "F": r2, "G": r1}
	for col, v := range cells {
		cell, err := excelize.JoinCellName(col, row)
		require.NoError(t, err)
		require.NoError(t, f.SetCellValue(SheetBrackets, cell, v))
	}
}

func setPriceRow(t *testing.T, f *excelize.File, row int, model string, p4, p3, p2, p1 float64) {
	t.Helper()
	cell, err := excelize.JoinCellName("B", row)
	require.NoError(t, err)
	require.NoError(t, f.SetCellValue(SheetPriceLists, cell, model))
	for col, v := range map[string]float64{"E": p4, "H": p3, "K": p2, "N": p1} {
		cell, err := excelize.JoinCellName(col, row)
		require.NoError(t, err)
		require.NoError(t, f.SetCellValue(SheetPriceLists, cell, v))
	}
}

func TestSchemaParserParse(t *testing.T) {
	path := writeRuleWorkbook(t, nil)

	rules, err := NewSchemaParser().Parse(path)
	require.NoError(t, err)

	require.Len(t, rules.Brackets, 3)
	require.Equal(t, 0.0, rules.Brackets[0].LowerBound)
	require.Equal(t, 0.016, rules.Brackets[0].RateTier1)
	require.Equal(t, 200000.0, rules.Brackets[2].LowerBound)

	require.Len(t, rules.Prices, 2)
	// Keys are normalized: uppercased and trimmed.
	require.Contains(t, rules.Prices, "COLCHON-A")
	require.Contains(t, rules.Prices, "COLCHON-B")
	require.Equal(t, 1000.0, rules.Prices["COLCHON-A"].Tier4)
	require.Equal(t, 1600.0, rules.Prices["COLCHON-A"].Tier1)

	// No Catalogos sheet: type map is empty, not an error.
	require.Empty(t, rules.AdvisorTypes)
}

func TestSchemaParserBracketsUnsorted(t *testing.T) {
	path := writeRuleWorkbook(t, func(f *excelize.File) {
		// Swap the first two bracket rows.
		setBracketRow(t, f, 4, 100000, 199999.99, 0.020, 0.022, 0.024, 0.026)
		setBracketRow(t, f, 5, 0, 99999.99, 0.010, 0.012, 0.014, 0.016)
	})

	rules, err := NewSchemaParser().Parse(path)
	require.NoError(t, err)
	require.Equal(t, 0.0, rules.Brackets[0].LowerBound)
	require.Equal(t, 100000.0, rules.Brackets[1].LowerBound)
}

func TestSchemaParserDuplicateProductLastWins(t *testing.T) {
	path := writeRuleWorkbook(t, func(f *excelize.File) {
		setPriceRow(t, f, 5, "COLCHON-A", 9000, 9200, 9400, 9600)
	})

	rules, err := NewSchemaParser().Parse(path)
	require.NoError(t, err)
	require.Equal(t, 9000.0, rules.Prices["COLCHON-A"].Tier4)
}

func TestSchemaParserMissingPriceIsUnknown(t *testing.T) {
	path := writeRuleWorkbook(t, func(f *excelize.File) {
		require.NoError(t, f.SetCellValue(SheetPriceLists, "B6", "COLCHON-C"))
		require.NoError(t, f.SetCellValue(SheetPriceLists, "E6", 500.0))
		// H, K, N left empty: unknown, not zero.
	})

	rules, err := NewSchemaParser().Parse(path)
	require.NoError(t, err)
	p := rules.Prices["COLCHON-C"]
	require.Equal(t, 500.0, p.Tier4)
	require.True(t, math.IsNaN(p.Tier3))
	require.True(t, math.IsNaN(p.Tier1))
}

func TestSchemaParserAdvisorTypes(t *testing.T) {
	path := writeRuleWorkbook(t, func(f *excelize.File) {
		_, err := f.NewSheet(SheetAdvisorTypes)
		require.NoError(t, err)
		require.NoError(t, f.SetCellValue(SheetAdvisorTypes, "B2", "ASESORES"))
		require.NoError(t, f.SetCellValue(SheetAdvisorTypes, "C2", "TIPO"))
		require.NoError(t, f.SetCellValue(SheetAdvisorTypes, "B3", "Ana Lopez"))
		require.NoError(t, f.SetCellValue(SheetAdvisorTypes, "C3", "PISO"))
	})

	rules, err := NewSchemaParser().Parse(path)
	require.NoError(t, err)
	require.Equal(t, "PISO", rules.AdvisorTypes["ANA LOPEZ"])
	require.Equal(t, "PISO", rules.TypeFor(" ana lopez "))
	require.Equal(t, "", rules.TypeFor("nadie"))
}

func TestSchemaParserFileMissing(t *testing.T) {
	_, err := NewSchemaParser().Parse(filepath.Join(t.TempDir(), "nope.xlsm"))
	require.ErrorIs(t, err, ErrSchemaFileMissing)
	require.Contains(t, err.Error(), "nope.xlsm")
}

func TestSchemaParserMissingBracketSheet(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	path := filepath.Join(t.TempDir(), "rules.xlsm")
	require.NoError(t, f.SaveAs(path))

	_, err := NewSchemaParser().Parse(path)
	require.ErrorIs(t, err, ErrSchemaLayout)
}

func TestSchemaParserMissingHeaders(t *testing.T) {
	path := writeRuleWorkbook(t, func(f *excelize.File) {
		require.NoError(t, f.SetCellValue(SheetBrackets, "B3", "lower"))
	})

	_, err := NewSchemaParser().Parse(path)
	require.ErrorIs(t, err, ErrSchemaLayout)
}
