package processors

import (
	"sort"

	"github.com/Grupo-LOROs/ComisionadorERA/src/models"
)

// SummaryProcessor rolls the engine's per-row output up into one payout row
// per advisor. The summary is always derived from the same computed row set
// as the detail view; it is never recomputed from the raw dataset.
type SummaryProcessor struct{}

func NewSummaryProcessor() *SummaryProcessor {
	return &SummaryProcessor{}
}

// Summarize groups the computed rows by advisor, summing line totals and
// commissions, sorted by advisor name. When includeType is set and the rule
// set carries an advisor-type map, the type label is attached (empty when the
// advisor is unmapped, never an error).
func (p *SummaryProcessor) Summarize(result *models.EngineResult, rules *models.RuleSet, includeType bool) []models.AdvisorSummary {
	byAdvisor := make(map[string]*models.AdvisorSummary)
	for _, row := range result.Rows {
		s, ok := byAdvisor[row.Advisor]
		if !ok {
			s = &models.AdvisorSummary{Advisor: row.Advisor}
			byAdvisor[row.Advisor] = s
		}
		s.TotalSales += row.LineTotal
		s.TotalCommission += row.LineCommission
	}

	summaries := make([]models.AdvisorSummary, 0, len(byAdvisor))
	for _, s := range byAdvisor {
		if includeType {
			s.TypeLabel = rules.TypeFor(s.Advisor)
		}
		summaries = append(summaries, *s)
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].Advisor < summaries[j].Advisor
	})
	return summaries
}
