package finance

import (
	"sort"
	"time"
)

// Granularity selects the period bucketing of CalculatePeriods. Only monthly
// periods are defined; anything else falls back to monthly.
type Granularity string

// GranularityMonth buckets transactions by calendar month.
const GranularityMonth Granularity = "month"

// start maps a transaction date to the start of its period bucket.
func (g Granularity) start(t time.Time) time.Time {
	switch g {
	case GranularityMonth:
		return monthStart(t)
	default:
		// Only monthly periods are defined; unknown values bucket monthly.
		return monthStart(t)
	}
}

// PeriodOptions tunes CalculatePeriods. The zero value means monthly periods
// starting from zero cash.
type PeriodOptions struct {
	Granularity   Granularity
	BeginningCash float64
}

// CalculatePeriods groups a company's transactions into calendar-month
// periods and derives statements for each, ascending by period start. Each
// period's statements are computed over the cumulative transaction window
// from the first period through that period, so balance sheet lines are
// running balances; cash flow stays a per-period flow because each period's
// beginning cash is the previous period's ending cash rather than being
// re-derived from the cumulative window.
//
// The input slice is not modified. Months without transactions produce no
// entry.
func CalculatePeriods(transactions []Transaction, opts PeriodOptions) []PeriodStatement {
	if len(transactions) == 0 {
		return nil
	}

	sorted := append([]Transaction(nil), transactions...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	// Slice boundaries into the sorted ledger, one per period. The sorted
	// order makes every period's cumulative window a prefix.
	type periodEnd struct {
		start time.Time
		end   int
	}
	var ends []periodEnd
	for i, tx := range sorted {
		start := opts.Granularity.start(tx.Date)
		if len(ends) == 0 || !ends[len(ends)-1].start.Equal(start) {
			ends = append(ends, periodEnd{start: start})
		}
		ends[len(ends)-1].end = i + 1
	}

	statements := make([]PeriodStatement, 0, len(ends))
	carry := opts.BeginningCash
	for _, p := range ends {
		st := CalculateStatements(sorted[:p.end], carry)
		statements = append(statements, PeriodStatement{Period: p.start, Statements: st})
		carry = st.CashFlow.EndingCash
	}
	return statements
}

func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
