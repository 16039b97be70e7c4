package processors

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/Grupo-LOROs/ComisionadorERA/src/logger"
	"github.com/Grupo-LOROs/ComisionadorERA/src/models"
)

// IVAFactor undoes the 16% value-added-tax deduction: net = gross * 1.16.
const IVAFactor = 1.16

// ErrEmptyAfterDateFilter signals that the selected date window excluded
// every row of the dataset.
var ErrEmptyAfterDateFilter = errors.New("no rows inside the selected date window")

// ProcessOptions selects the optional date window and the price used for
// tier comparison.
type ProcessOptions struct {
	FilterByDate bool
	DateStart    time.Time
	DateEnd      time.Time
	// CompareByNet picks the net unit price (gross * 1.16) for tier
	// inference; otherwise the gross price is compared.
	CompareByNet bool
}

// CommissionProcessor computes per-row commissions from a filtered dataset
// and a rule set. Process is a pure function of its inputs: identical inputs
// yield identical output.
type CommissionProcessor struct{}

func NewCommissionProcessor() *CommissionProcessor {
	return &CommissionProcessor{}
}

// Process enriches every row with net price, line total, inferred price tier,
// the advisor's bracket rate for that tier, and the line commission.
func (p *CommissionProcessor) Process(dataset *models.FilteredDataset, rules *models.RuleSet, opts ProcessOptions) (*models.EngineResult, error) {
	start, end := opts.DateStart, opts.DateEnd
	if start.After(end) {
		start, end = end, start
	}

	rows := make([]models.ComputedRow, 0, len(dataset.Rows))
	for _, tx := range dataset.Rows {
		if opts.FilterByDate && (tx.Date.Before(start) || tx.Date.After(end)) {
			continue
		}

		row := models.ComputedRow{TransactionRow: tx}
		row.UnitPriceNet = tx.UnitPriceGross * IVAFactor
		row.LineTotal = row.UnitPriceNet * tx.Quantity

		if prices, ok := rules.Prices[tx.ProductKey]; ok {
			row.TierPrices = prices
		} else {
			row.TierPrices = models.UnknownTierPrices()
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		if opts.FilterByDate {
			return nil, fmt.Errorf("%w: %s to %s", ErrEmptyAfterDateFilter,
				start.Format("2006-01-02"), end.Format("2006-01-02"))
		}
		return nil, ErrEmptyAfterDateFilter
	}

	// Bracket assignment is per advisor over the accumulated sales of the
	// current (possibly date-windowed) row set.
	salesByAdvisor := make(map[string]float64)
	for _, row := range rows {
		salesByAdvisor[row.Advisor] += row.LineTotal
	}
	bracketByAdvisor := make(map[string]models.CommissionBracket, len(salesByAdvisor))
	for advisor, total := range salesByAdvisor {
		bracketByAdvisor[advisor] = PickBracket(rules.Brackets, total)
	}

	// Tier assignment is per row.
	for i := range rows {
		row := &rows[i]
		compare := row.UnitPriceNet
		if !opts.CompareByNet {
			compare = row.UnitPriceGross
		}
		row.Tier = InferLevel(compare, row.TierPrices.Tier4, row.TierPrices.Tier3, row.TierPrices.Tier2, row.TierPrices.Tier1)
		row.CommissionRate = RateForLevel(bracketByAdvisor[row.Advisor], row.Tier)
		row.LineCommission = row.CommissionRate * row.LineTotal
	}

	logger.L.Info("Commission engine run complete",
		"rows", len(rows),
		"advisors", len(salesByAdvisor),
		"filterByDate", opts.FilterByDate,
		"compareByNet", opts.CompareByNet)

	return &models.EngineResult{
		Rows:         rows,
		FilterByDate: opts.FilterByDate,
		DateStart:    start,
		DateEnd:      end,
		CompareByNet: opts.CompareByNet,
	}, nil
}

// InferLevel assigns the price tier for a line given its comparison price and
// the four tier thresholds (tier 4 is the lowest price band). The thresholds
// are compared as a clamped step function; prices above the tier-1 threshold
// still land on tier 1. If the price or any threshold is unknown, the
// conservative tier 4 is assigned.
func InferLevel(price, tier4, tier3, tier2, tier1 float64) int {
	if math.IsNaN(price) || math.IsNaN(tier4) || math.IsNaN(tier3) || math.IsNaN(tier2) || math.IsNaN(tier1) {
		return 4
	}
	switch {
	case price <= tier4:
		return 4
	case price <= tier3:
		return 3
	case price <= tier2:
		return 2
	default:
		return 1
	}
}

// PickBracket selects the bracket containing the advisor's accumulated sales.
// Below the lowest bound no bracket qualifies and every rate is zero; above
// the highest upper bound the highest bracket applies (ever-increasing sales
// never lose eligibility). Brackets must be sorted ascending by lower bound.
func PickBracket(brackets []models.CommissionBracket, totalSales float64) models.CommissionBracket {
	if len(brackets) == 0 {
		return models.CommissionBracket{UpperBound: math.Inf(1)}
	}
	if totalSales < brackets[0].LowerBound {
		return models.CommissionBracket{UpperBound: brackets[0].LowerBound}
	}
	for _, b := range brackets {
		if totalSales >= b.LowerBound && totalSales <= b.UpperBound {
			return b
		}
	}
	return brackets[len(brackets)-1]
}

// RateForLevel returns the bracket's rate for a price tier.
func RateForLevel(b models.CommissionBracket, level int) float64 {
	switch level {
	case 1:
		return b.RateTier1
	case 2:
		return b.RateTier2
	case 3:
		return b.RateTier3
	default:
		return b.RateTier4
	}
}
