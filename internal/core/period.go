package core

import "time"

type (
	// Period is the (month, year) window the ledger is filtered to.
	Period struct {
		Month int // 1-12
		Year  int
	}

	// Totals are the aggregates over one filtered record set. Net is always
	// Income minus Expense; the counts stay consistent with the sums.
	Totals struct {
		Income       Money
		Expense      Money
		Net          Money
		IncomeCount  int
		ExpenseCount int
	}
)

// CurrentPeriod returns the calendar month and year of now, the filter
// default at startup.
func CurrentPeriod(now time.Time) Period {
	return Period{Month: int(now.Month()), Year: now.Year()}
}

func (p Period) Valid() bool {
	return p.Month >= 1 && p.Month <= 12 && p.Year >= 1000 && p.Year <= 9999
}

// FilterByPeriod returns the transactions whose stored Month and Year equal
// the period, preserving the input order. It deliberately trusts the stored
// fields rather than recomputing from Date: the write path owns keeping the
// two consistent.
func FilterByPeriod(ts []Transaction, p Period) []Transaction {
	out := make([]Transaction, 0, len(ts))
	for _, t := range ts {
		if t.Month == p.Month && t.Year == p.Year {
			out = append(out, t)
		}
	}
	return out
}

// Aggregate sums the filtered set. It is pure and side-effect free; an
// empty input yields all-zero totals.
func Aggregate(ts []Transaction) Totals {
	var agg Totals
	for _, t := range ts {
		switch t.Type {
		case Income:
			agg.Income.Cents += t.Amount.Cents
			agg.IncomeCount++
		case Expense:
			agg.Expense.Cents += t.Amount.Cents
			agg.ExpenseCount++
		}
	}
	agg.Net.Cents = agg.Income.Cents - agg.Expense.Cents
	return agg
}
