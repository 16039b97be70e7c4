package utils

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMoney(t *testing.T) {
	require.Equal(t, "0.00", Money(0))
	require.Equal(t, "1,234.50", Money(1234.5))
	require.Equal(t, "999.99", Money(999.99))
	require.Equal(t, "1,000,000.00", Money(1e6))
	require.Equal(t, "-12,345.68", Money(-12345.678))
	// Unknown amounts render blank, never 0.00.
	require.Equal(t, "", Money(math.NaN()))
	require.Equal(t, "", Money(math.Inf(1)))
}

func TestPct(t *testing.T) {
	require.Equal(t, "5.5000%", Pct(0.055))
	require.Equal(t, "0.0000%", Pct(0))
	require.Equal(t, "", Pct(math.NaN()))
}

func TestFormatDate(t *testing.T) {
	require.Equal(t, "10-Jan-2026", FormatDate(time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)))
	require.Equal(t, "", FormatDate(time.Time{}))
}
