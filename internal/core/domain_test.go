package core

import (
	"testing"
	"time"
)

func TestDraftValidate(t *testing.T) {
	tests := []struct {
		name    string
		draft   Draft
		wantErr error
	}{
		{
			name:  "valid income",
			draft: Draft{Type: Income, Amount: "120.50", Description: "dues march", Date: "2025-03-05"},
		},
		{
			name:  "valid without date",
			draft: Draft{Type: Expense, Amount: "40", Description: "cleaning"},
		},
		{
			name:    "missing amount",
			draft:   Draft{Type: Income, Description: "dues"},
			wantErr: ErrEmptyAmount,
		},
		{
			name:    "missing description",
			draft:   Draft{Type: Income, Amount: "10"},
			wantErr: ErrEmptyDescription,
		},
		{
			name:    "whitespace description",
			draft:   Draft{Type: Income, Amount: "10", Description: "   "},
			wantErr: ErrEmptyDescription,
		},
		{
			name:    "negative amount",
			draft:   Draft{Type: Expense, Amount: "-10", Description: "x"},
			wantErr: ErrInvalidAmount,
		},
		{
			name:    "bad type",
			draft:   Draft{Type: "transfer", Amount: "10", Description: "x"},
			wantErr: ErrInvalidType,
		},
		{
			name:    "bad date",
			draft:   Draft{Type: Income, Amount: "10", Description: "x", Date: "05/03/2025"},
			wantErr: ErrInvalidDate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.draft.Validate(); err != tt.wantErr {
				t.Fatalf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestDraftBuildDerivesMonthYear(t *testing.T) {
	now := time.Date(2025, time.April, 10, 15, 0, 0, 0, time.UTC)

	rec, err := Draft{Type: Income, Amount: "1000", Description: "dues", Date: "2025-03-01"}.Build(now)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if rec.Month != 3 || rec.Year != 2025 {
		t.Fatalf("month/year = %d/%d, want 3/2025", rec.Month, rec.Year)
	}
	if rec.Amount.Cents != 100000 {
		t.Fatalf("amount = %d cents, want 100000", rec.Amount.Cents)
	}

	// Empty date defaults to today and month/year follow it
	rec, err = Draft{Type: Expense, Amount: "5", Description: "bulb"}.Build(now)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if rec.Date.String() != "2025-04-10" || rec.Month != 4 || rec.Year != 2025 {
		t.Fatalf("defaulted date = %s (%d/%d)", rec.Date, rec.Month, rec.Year)
	}
}

func TestDefaultDraft(t *testing.T) {
	now := time.Date(2026, time.January, 2, 9, 30, 0, 0, time.UTC)
	d := DefaultDraft(now)
	if d.Type != Income || d.Amount != "" || d.Description != "" {
		t.Fatalf("unexpected defaults: %+v", d)
	}
	if d.Date != "2026-01-02" {
		t.Fatalf("default date = %q", d.Date)
	}
}

func TestDraftOf(t *testing.T) {
	tx := Transaction{
		ID:          "t1",
		Type:        Expense,
		Amount:      Money{Cents: 40050},
		Description: "elevator service",
		Date:        NewDate(2025, 3, 14),
	}
	d := DraftOf(tx)
	if d.Type != Expense || d.Amount != "400.50" || d.Description != "elevator service" || d.Date != "2025-03-14" {
		t.Fatalf("DraftOf = %+v", d)
	}
	if err := d.Validate(); err != nil {
		t.Fatalf("edit draft should validate: %v", err)
	}
}
