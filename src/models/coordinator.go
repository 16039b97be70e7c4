package models

import "time"

// CoordinatorEntry records one coordinator-calculator invocation: the inputs
// and every derived value. Entries are appended to a running session list.
type CoordinatorEntry struct {
	HireDate              time.Time `json:"hire_date"`
	PeriodDate            time.Time `json:"period_date"`
	TenureMonths          int       `json:"tenure_months"`
	MonthlyCollected      float64   `json:"monthly_collected"`
	MonthlyGrossProfit    float64   `json:"monthly_gross_profit"`
	GoalAttainment        float64   `json:"goal_attainment_ratio"`
	AdvisorRate           float64   `json:"advisor_rate"`
	AdvisorCommission     float64   `json:"advisor_commission"`
	CoordinatorRate       float64   `json:"coordinator_rate"`
	CoordinatorCommission float64   `json:"coordinator_commission"`
}
