package processors

import (
	"testing"
	"time"

	"github.com/Grupo-LOROs/ComisionadorERA/src/models"
	"github.com/stretchr/testify/require"
)

func TestSummarizeGroupsAndSorts(t *testing.T) {
	day := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	dataset := &models.FilteredDataset{Rows: []models.TransactionRow{
		txRow(day, "Zoe Mora", "COLCHON-A", 1, 1000),
		txRow(day, "Ana Lopez", "COLCHON-A", 2, 1000),
		txRow(day, "Zoe Mora", "COLCHON-A", 3, 1000),
	}}
	result, err := NewCommissionProcessor().Process(dataset, testRules(), ProcessOptions{CompareByNet: true})
	require.NoError(t, err)

	summaries := NewSummaryProcessor().Summarize(result, testRules(), false)
	require.Len(t, summaries, 2)
	require.Equal(t, "Ana Lopez", summaries[0].Advisor)
	require.Equal(t, "Zoe Mora", summaries[1].Advisor)
	require.InDelta(t, 4*1160.0, summaries[1].TotalSales, 1e-9)
	require.Empty(t, summaries[0].TypeLabel)
}

func TestSummarizeMatchesDetailTotals(t *testing.T) {
	day := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	dataset := &models.FilteredDataset{Rows: []models.TransactionRow{
		txRow(day, "Ana Lopez", "COLCHON-A", 2, 1000),
		txRow(day, "Ana Lopez", "COLCHON-A", 1, 1300),
		txRow(day, "Beto Ruiz", "COLCHON-A", 5, 1450),
	}}
	result, err := NewCommissionProcessor().Process(dataset, testRules(), ProcessOptions{CompareByNet: true})
	require.NoError(t, err)

	summaries := NewSummaryProcessor().Summarize(result, testRules(), false)

	detailSales := map[string]float64{}
	detailCommission := map[string]float64{}
	for _, row := range result.Rows {
		detailSales[row.Advisor] += row.LineTotal
		detailCommission[row.Advisor] += row.LineCommission
	}
	for _, s := range summaries {
		require.InDelta(t, detailSales[s.Advisor], s.TotalSales, 1e-9)
		require.InDelta(t, detailCommission[s.Advisor], s.TotalCommission, 1e-9)
	}
}

func TestSummarizeIncludeType(t *testing.T) {
	day := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	dataset := &models.FilteredDataset{Rows: []models.TransactionRow{
		txRow(day, "Ana Lopez", "COLCHON-A", 1, 1000),
		txRow(day, "Sin Tipo", "COLCHON-A", 1, 1000),
	}}
	result, err := NewCommissionProcessor().Process(dataset, testRules(), ProcessOptions{CompareByNet: true})
	require.NoError(t, err)

	summaries := NewSummaryProcessor().Summarize(result, testRules(), true)
	require.Equal(t, "PISO", summaries[0].TypeLabel)
	// An unmapped advisor keeps an empty label; the summary row survives.
	require.Equal(t, "Sin Tipo", summaries[1].Advisor)
	require.Empty(t, summaries[1].TypeLabel)
}
