package processors

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Grupo-LOROs/ComisionadorERA/src/models"
	"github.com/shopspring/decimal"
)

// ErrNumericParse signals malformed money input to the coordinator
// calculator.
var ErrNumericParse = errors.New("invalid numeric input")

// Monthly goal constants for the coordinator scheme, in the same currency as
// the transaction export.
const (
	// MonthlyTarget is the collected amount that closes the base advisor
	// rate and anchors the attainment ratio.
	MonthlyTarget = 500000.00
	// StretchCeiling is the upper collected amount for the middle advisor
	// rate; above it the top rate applies.
	StretchCeiling = 750000.00
)

// Advisor rates by monthly collected amount.
const (
	advisorRateBase    = 0.055
	advisorRateMiddle  = 0.065
	advisorRateTop     = 0.08
	coordinatorRateNew = 0.30 // tenure <= 5 months, regardless of attainment
	coordinatorRateLow = 0.20 // attainment < 80%
	coordinatorRateMid = 0.30 // attainment < 100%
	coordinatorRateTop = 0.40 // attainment >= 100%
)

// TenureMonths counts whole months from hire date to period date, inclusive
// of the hire month, floored at zero.
func TenureMonths(hire, period time.Time) int {
	months := (period.Year()-hire.Year())*12 + int(period.Month()) - int(hire.Month()) + 1
	if months < 0 {
		return 0
	}
	return months
}

// AdvisorRate returns the advisor's commission rate for a monthly collected
// amount.
func AdvisorRate(monthlyCollected float64) float64 {
	switch {
	case monthlyCollected <= MonthlyTarget:
		return advisorRateBase
	case monthlyCollected <= StretchCeiling:
		return advisorRateMiddle
	default:
		return advisorRateTop
	}
}

// CoordinatorRate returns the coordinator's override rate. Coordinators in
// their first five months get the flat mid rate regardless of attainment; the
// 0.80 attainment boundary goes to the higher tier.
func CoordinatorRate(tenureMonths int, attainment float64) float64 {
	if tenureMonths <= 5 {
		return coordinatorRateNew
	}
	switch {
	case attainment < 0.80:
		return coordinatorRateLow
	case attainment < 1.00:
		return coordinatorRateMid
	default:
		return coordinatorRateTop
	}
}

// roundMoney rounds half-up to 2 decimals. Payout reconciliation depends on
// the half-up convention; float64 banker's rounding is not acceptable here.
func roundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// CoordinatorInput is one calculator invocation.
type CoordinatorInput struct {
	HireDate           time.Time
	PeriodDate         time.Time
	MonthlyCollected   float64
	MonthlyGrossProfit float64
}

// CoordinatorCalculator computes advisor and coordinator commissions from
// tenure and goal attainment, keeping the session's entry list and a running
// total of coordinator commission. The total is only ever incremented, and
// reset on explicit Clear; it is never recomputed from the entry list.
type CoordinatorCalculator struct {
	mu           sync.Mutex
	entries      []models.CoordinatorEntry
	runningTotal decimal.Decimal
}

func NewCoordinatorCalculator() *CoordinatorCalculator {
	return &CoordinatorCalculator{}
}

// Add computes one entry, appends it and bumps the running total.
func (c *CoordinatorCalculator) Add(in CoordinatorInput) models.CoordinatorEntry {
	tenure := TenureMonths(in.HireDate, in.PeriodDate)
	attainment := in.MonthlyCollected / MonthlyTarget

	advisorRate := AdvisorRate(in.MonthlyCollected)
	advisorCommission := roundMoney(decimal.NewFromFloat(in.MonthlyGrossProfit).
		Mul(decimal.NewFromFloat(advisorRate)))

	coordinatorRate := CoordinatorRate(tenure, attainment)
	coordinatorCommission := roundMoney(advisorCommission.
		Mul(decimal.NewFromFloat(coordinatorRate)))

	entry := models.CoordinatorEntry{
		HireDate:              in.HireDate,
		PeriodDate:            in.PeriodDate,
		TenureMonths:          tenure,
		MonthlyCollected:      in.MonthlyCollected,
		MonthlyGrossProfit:    in.MonthlyGrossProfit,
		GoalAttainment:        attainment,
		AdvisorRate:           advisorRate,
		AdvisorCommission:     advisorCommission.InexactFloat64(),
		CoordinatorRate:       coordinatorRate,
		CoordinatorCommission: coordinatorCommission.InexactFloat64(),
	}

	c.mu.Lock()
	c.entries = append(c.entries, entry)
	c.runningTotal = c.runningTotal.Add(coordinatorCommission)
	c.mu.Unlock()
	return entry
}

// AddFromStrings parses money inputs as typed by a user before delegating to
// Add. Malformed input yields ErrNumericParse.
func (c *CoordinatorCalculator) AddFromStrings(hire, period time.Time, monthlyCollected, monthlyGrossProfit string) (models.CoordinatorEntry, error) {
	collected, err := parseMoney(monthlyCollected)
	if err != nil {
		return models.CoordinatorEntry{}, err
	}
	grossProfit, err := parseMoney(monthlyGrossProfit)
	if err != nil {
		return models.CoordinatorEntry{}, err
	}
	return c.Add(CoordinatorInput{
		HireDate:           hire,
		PeriodDate:         period,
		MonthlyCollected:   collected,
		MonthlyGrossProfit: grossProfit,
	}), nil
}

// Entries returns a copy of the session's entry list.
func (c *CoordinatorCalculator) Entries() []models.CoordinatorEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.CoordinatorEntry, len(c.entries))
	copy(out, c.entries)
	return out
}

// RunningTotal returns the accumulated coordinator commission.
func (c *CoordinatorCalculator) RunningTotal() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.runningTotal.InexactFloat64()
}

// Clear drops all entries and zeroes the running total.
func (c *CoordinatorCalculator) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = nil
	c.runningTotal = decimal.Zero
}

func parseMoney(s string) (float64, error) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrNumericParse, s)
	}
	return d.InexactFloat64(), nil
}
