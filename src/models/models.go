package models

import (
	"math"
	"sort"
	"strings"
	"time"
)

// CommissionBracket maps a range of accumulated monthly sales for one advisor
// to the four tier rates. Rates are fractions (0.02 == 2%).
type CommissionBracket struct {
	LowerBound float64 `json:"lower_bound"`
	UpperBound float64 `json:"upper_bound"`
	RateTier4  float64 `json:"rate_tier4"`
	RateTier3  float64 `json:"rate_tier3"`
	RateTier2  float64 `json:"rate_tier2"`
	RateTier1  float64 `json:"rate_tier1"`
}

// TierPrices holds the four per-product price thresholds. A missing threshold
// is NaN (unknown), never zero.
type TierPrices struct {
	Tier4 float64 `json:"tier4"`
	Tier3 float64 `json:"tier3"`
	Tier2 float64 `json:"tier2"`
	Tier1 float64 `json:"tier1"`
}

// UnknownTierPrices returns a TierPrices with all four thresholds unknown.
func UnknownTierPrices() TierPrices {
	nan := math.NaN()
	return TierPrices{Tier4: nan, Tier3: nan, Tier2: nan, Tier1: nan}
}

// RuleSet is the normalized content of the rule workbook. Constructed once at
// schema load and treated as immutable afterwards.
type RuleSet struct {
	SchemaPath   string                `json:"schema_path"`
	Brackets     []CommissionBracket   `json:"brackets"`
	Prices       map[string]TierPrices `json:"prices"`
	AdvisorTypes map[string]string     `json:"advisor_types"`
}

// TypeFor returns the advisor's type label, empty when unmapped.
func (r *RuleSet) TypeFor(advisor string) string {
	if r == nil || r.AdvisorTypes == nil {
		return ""
	}
	return r.AdvisorTypes[strings.ToUpper(strings.TrimSpace(advisor))]
}

// TransactionRow is one commissionable line from the transaction workbook
// after filtering and type normalization.
type TransactionRow struct {
	Date           time.Time `json:"date"`
	Advisor        string    `json:"advisor"`
	Client         string    `json:"client"`
	OrderID        string    `json:"order_id"`
	Product        string    `json:"product"`
	ProductKey     string    `json:"product_key"`
	Quantity       float64   `json:"quantity"`
	UnitPriceGross float64   `json:"unit_price_gross"`
}

// DatasetAudit carries diagnostic counters about a filtered dataset.
type DatasetAudit struct {
	RowsAfterFilters int       `json:"rows_valid_after_all_filters"`
	DistinctAdvisors int       `json:"unique_advisors"`
	DistinctOrders   int       `json:"unique_orders"`
	DateMin          time.Time `json:"date_min"`
	DateMax          time.Time `json:"date_max"`
}

// FilteredDataset is the output of the transaction filter pipeline: the rows
// that survived every filter plus the audit counters.
type FilteredDataset struct {
	SourcePath string           `json:"source_path"`
	Rows       []TransactionRow `json:"rows"`
	Audit      DatasetAudit     `json:"audit"`
}

// Dates returns the sorted distinct dates present in the dataset.
func (d *FilteredDataset) Dates() []time.Time {
	seen := make(map[time.Time]struct{}, len(d.Rows))
	for _, row := range d.Rows {
		day := time.Date(row.Date.Year(), row.Date.Month(), row.Date.Day(), 0, 0, 0, 0, time.UTC)
		seen[day] = struct{}{}
	}
	dates := make([]time.Time, 0, len(seen))
	for day := range seen {
		dates = append(dates, day)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates
}

// ComputedRow is a transaction row enriched by the commission engine.
type ComputedRow struct {
	TransactionRow
	UnitPriceNet   float64    `json:"unit_price_net"`
	LineTotal      float64    `json:"line_total"`
	TierPrices     TierPrices `json:"tier_prices"`
	Tier           int        `json:"tier"`
	CommissionRate float64    `json:"commission_rate"`
	LineCommission float64    `json:"line_commission"`
}

// EngineResult is the full per-row output of one engine run, together with
// the flags it ran under. Detail and summary views are both derived from the
// same Rows slice.
type EngineResult struct {
	Rows         []ComputedRow `json:"rows"`
	FilterByDate bool          `json:"filter_by_date"`
	DateStart    time.Time     `json:"date_start"`
	DateEnd      time.Time     `json:"date_end"`
	CompareByNet bool          `json:"compare_by_net"`
}

// AdvisorSummary is one payout row: an advisor's total sales and commission
// over the processed dataset.
type AdvisorSummary struct {
	Advisor         string  `json:"advisor"`
	TypeLabel       string  `json:"type_label,omitempty"`
	TotalSales      float64 `json:"total_sales"`
	TotalCommission float64 `json:"total_commission"`
}
