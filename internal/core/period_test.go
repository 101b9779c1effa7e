package core

import (
	"testing"
	"time"
)

func tx(id string, typ TransactionType, cents int64, month, year int) Transaction {
	return Transaction{
		ID:     id,
		Type:   typ,
		Amount: Money{Cents: cents},
		Month:  month,
		Year:   year,
	}
}

func TestFilterByPeriod(t *testing.T) {
	records := []Transaction{
		tx("1", Income, 100000, 3, 2025),
		tx("2", Expense, 40000, 3, 2025),
		tx("3", Income, 5000, 4, 2025),
	}

	got := FilterByPeriod(records, Period{Month: 3, Year: 2025})
	if len(got) != 2 {
		t.Fatalf("filtered len = %d, want 2", len(got))
	}
	// Relative order of the snapshot must be preserved
	if got[0].ID != "1" || got[1].ID != "2" {
		t.Fatalf("order = [%s %s], want [1 2]", got[0].ID, got[1].ID)
	}

	if got := FilterByPeriod(records, Period{Month: 5, Year: 2025}); len(got) != 0 {
		t.Fatalf("expected empty result, got %d records", len(got))
	}
}

func TestFilterTrustsStoredFields(t *testing.T) {
	// Stored month/year diverging from the date is a data bug, but the
	// filter must still follow the stored fields.
	skewed := Transaction{ID: "x", Type: Income, Date: NewDate(2025, 7, 1), Month: 3, Year: 2025}
	got := FilterByPeriod([]Transaction{skewed}, Period{Month: 3, Year: 2025})
	if len(got) != 1 {
		t.Fatalf("expected stored-field match, got %d", len(got))
	}
	if got := FilterByPeriod([]Transaction{skewed}, Period{Month: 7, Year: 2025}); len(got) != 0 {
		t.Fatalf("date must not be consulted, got %d", len(got))
	}
}

func TestAggregateEmpty(t *testing.T) {
	agg := Aggregate(nil)
	if agg.Income.Cents != 0 || agg.Expense.Cents != 0 || agg.Net.Cents != 0 {
		t.Fatalf("empty aggregate = %+v, want zeros", agg)
	}
	if agg.IncomeCount != 0 || agg.ExpenseCount != 0 {
		t.Fatalf("empty counts = %+v, want zeros", agg)
	}
}

func TestAggregateScenario(t *testing.T) {
	records := []Transaction{
		tx("1", Income, 100000, 3, 2025),
		tx("2", Expense, 40000, 3, 2025),
		tx("3", Income, 5000, 4, 2025),
	}

	filtered := FilterByPeriod(records, Period{Month: 3, Year: 2025})
	agg := Aggregate(filtered)

	if agg.Income.Cents != 100000 || agg.Expense.Cents != 40000 || agg.Net.Cents != 60000 {
		t.Fatalf("totals = %+v, want income 100000 expense 40000 net 60000", agg)
	}
	if agg.IncomeCount != 1 || agg.ExpenseCount != 1 {
		t.Fatalf("counts = %d/%d, want 1/1", agg.IncomeCount, agg.ExpenseCount)
	}

	// An updated snapshot fully supersedes the previous one
	records[1].Amount.Cents = 50000
	agg = Aggregate(FilterByPeriod(records, Period{Month: 3, Year: 2025}))
	if agg.Income.Cents != 100000 || agg.Expense.Cents != 50000 || agg.Net.Cents != 50000 {
		t.Fatalf("totals after update = %+v", agg)
	}
}

func TestNetIdentity(t *testing.T) {
	sets := [][]Transaction{
		nil,
		{tx("a", Income, 1, 1, 2025)},
		{tx("a", Income, 300, 1, 2025), tx("b", Expense, 700, 1, 2025)},
		{tx("a", Expense, 10, 1, 2025), tx("b", Expense, 20, 1, 2025), tx("c", Income, 5, 1, 2025)},
	}
	for i, set := range sets {
		agg := Aggregate(set)
		if agg.Net.Cents != agg.Income.Cents-agg.Expense.Cents {
			t.Errorf("set %d: net %d != income %d - expense %d", i, agg.Net.Cents, agg.Income.Cents, agg.Expense.Cents)
		}
		if agg.Income.Cents < 0 || agg.Expense.Cents < 0 {
			t.Errorf("set %d: negative totals %+v", i, agg)
		}
		if agg.Income.Cents > 0 && agg.IncomeCount == 0 {
			t.Errorf("set %d: income sum without income count", i)
		}
		if agg.Expense.Cents > 0 && agg.ExpenseCount == 0 {
			t.Errorf("set %d: expense sum without expense count", i)
		}
	}
}

func TestCurrentPeriod(t *testing.T) {
	p := CurrentPeriod(time.Date(2025, time.November, 30, 23, 59, 0, 0, time.UTC))
	if p.Month != 11 || p.Year != 2025 {
		t.Fatalf("CurrentPeriod = %+v", p)
	}
	if !p.Valid() {
		t.Fatal("current period should be valid")
	}
	if (Period{Month: 13, Year: 2025}).Valid() {
		t.Fatal("month 13 should be invalid")
	}
	if (Period{Month: 1, Year: 99}).Valid() {
		t.Fatal("two-digit year should be invalid")
	}
}
