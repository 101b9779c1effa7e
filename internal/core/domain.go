package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

// AnonymousActor marks writes performed without an authenticated session.
const AnonymousActor = "anonymous"

// DateLayout is the wire format for transaction dates.
const DateLayout = "2006-01-02"

type (
	TransactionType string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// Transaction is one persisted income or expense entry. Month and Year
	// are stored redundantly alongside Date so period filtering never has to
	// recompute them at query time; the write path keeps them consistent.
	Transaction struct {
		ID          string
		Type        TransactionType
		Amount      Money
		Description string
		Date        Date
		Month       int // 1-12, derived from Date on every write
		Year        int // four digits, derived from Date on every write
		AddedBy     string
		UpdatedBy   string
		CreatedAt   time.Time
		UpdatedAt   time.Time
	}

	// Draft holds the raw form fields of a transaction being added or
	// edited. Amount stays a string until submission so a failed submission
	// can hand the form back exactly as the user typed it.
	Draft struct {
		Type        TransactionType
		Amount      string
		Description string
		Date        string // DateLayout, empty means today
	}

	// Record is the write payload a store receives on create or update.
	// Month and Year are always derived from Date by Draft.Build.
	Record struct {
		Type        TransactionType
		Amount      Money
		Description string
		Date        Date
		Month       int
		Year        int
	}
)

var (
	ErrEmptyAmount      = errors.New("amount is required")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrEmptyDescription = errors.New("description is required")
	ErrInvalidType      = errors.New("transaction type must be income or expense")
	ErrInvalidDate      = errors.New("invalid date")
)

func (t TransactionType) Valid() bool {
	return t == Income || t == Expense
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// Day returns the day of the month.
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the calendar month as 1-12.
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the four-digit year.
func (d Date) Year() int {
	return d.Time.Year()
}

// NewDate creates a Date from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a DateLayout string into a Date.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// DateOf truncates a timestamp to its calendar date.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

func (d Date) String() string {
	return d.Format(DateLayout)
}

func (m Money) Validate() error {
	if m.Cents < 0 {
		return ErrInvalidAmount
	}
	return nil
}

// DefaultDraft returns the form defaults used after a successful add:
// income type, empty amount and description, date set to today.
func DefaultDraft(now time.Time) Draft {
	return Draft{
		Type: Income,
		Date: DateOf(now).String(),
	}
}

// Validate checks the draft locally, before any store interaction. Both
// amount and description are required; the amount must parse as a
// non-negative number; an empty date means today and is accepted.
func (d Draft) Validate() error {
	if strings.TrimSpace(d.Amount) == "" {
		return ErrEmptyAmount
	}
	if _, err := ParseDecimalToCents(d.Amount); err != nil {
		return err
	}
	if strings.TrimSpace(d.Description) == "" {
		return ErrEmptyDescription
	}
	if !d.Type.Valid() {
		return ErrInvalidType
	}
	if strings.TrimSpace(d.Date) != "" {
		if _, err := ParseDate(d.Date); err != nil {
			return err
		}
	}
	return nil
}

// Build validates the draft and materializes the write payload, deriving
// Month and Year from the effective date. An empty date defaults to the
// calendar date of now.
func (d Draft) Build(now time.Time) (Record, error) {
	if err := d.Validate(); err != nil {
		return Record{}, err
	}
	cents, err := ParseDecimalToCents(d.Amount)
	if err != nil {
		return Record{}, err
	}
	date := DateOf(now)
	if strings.TrimSpace(d.Date) != "" {
		date, err = ParseDate(d.Date)
		if err != nil {
			return Record{}, err
		}
	}
	return Record{
		Type:        d.Type,
		Amount:      Money{Cents: cents},
		Description: strings.TrimSpace(d.Description),
		Date:        date,
		Month:       date.Month(),
		Year:        date.Year(),
	}, nil
}

// DraftOf pre-populates an edit form from a transaction snapshot. The form
// is not re-synced if the record later changes remotely; last loaded wins.
func DraftOf(t Transaction) Draft {
	return Draft{
		Type:        t.Type,
		Amount:      FormatCents(t.Amount.Cents),
		Description: t.Description,
		Date:        t.Date.String(),
	}
}
