package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Need ExpenseKind = "need"
	Want ExpenseKind = "want"
)

// Expense categories are a fixed set; anything else is rejected at the boundary.
const (
	CategoryFood          = "Food"
	CategoryTransport     = "Transport"
	CategoryHousing       = "Housing"
	CategoryUtilities     = "Utilities"
	CategoryEntertainment = "Entertainment"
	CategoryShopping      = "Shopping"
	CategoryEducation     = "Education"
	CategoryOther         = "Other"
)

type (
	ExpenseKind string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// IncomeEntry is a single logged income record. Immutable once created.
	IncomeEntry struct {
		ID     int64
		Date   Date
		Amount Money
		Source string
	}

	// ExpenseEntry is a single logged expense record. Immutable once created.
	ExpenseEntry struct {
		ID          int64
		Date        Date
		Amount      Money
		Category    string
		Description string
		Kind        ExpenseKind
	}

	// DebtObligation is a recurring monthly obligation; MinPayment is always due
	// regardless of the month window.
	DebtObligation struct {
		ID         int64
		Name       string
		Balance    Money
		MinPayment Money
	}

	// BudgetProfile holds the configured targets for one account.
	BudgetProfile struct {
		MonthlyMinIncome Money
		EmergencyGoal    Money
		CurrentEmergency Money
	}
)

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidInput    = errors.New("invalid input")
	ErrInvalidDate     = errors.New("invalid date")
	ErrInvalidCategory = errors.New("invalid category")
	ErrInvalidKind     = errors.New("invalid expense kind")
	ErrEmptySource     = errors.New("empty income source")
	ErrEmptyName       = errors.New("empty debt name")
	ErrEmptyDesc       = errors.New("empty description")
)

// Categories lists the allowed expense categories in presentation order.
func Categories() []string {
	return []string{
		CategoryFood, CategoryTransport, CategoryHousing, CategoryUtilities,
		CategoryEntertainment, CategoryShopping, CategoryEducation, CategoryOther,
	}
}

func validCategory(c string) bool {
	for _, known := range Categories() {
		if c == known {
			return true
		}
	}
	return false
}

// NewDate creates a Date from year, month, day at UTC midnight.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// Day returns the day of the month
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year
func (d Date) Year() int {
	return d.Time.Year()
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	return d.Format("2006-01-02")
}

func (m Money) Validate() error {
	if m.Cents < 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (k ExpenseKind) Validate() error {
	switch k {
	case Need, Want:
		return nil
	}
	return ErrInvalidKind
}

func (e IncomeEntry) Validate() error {
	if err := e.Date.Validate(); err != nil {
		return err
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(e.Source) == "" {
		return ErrEmptySource
	}
	if len(e.Source) > 200 {
		return errors.New("source too long (max 200 characters)")
	}
	return nil
}

func (e ExpenseEntry) Validate() error {
	if err := e.Date.Validate(); err != nil {
		return err
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if !validCategory(e.Category) {
		return ErrInvalidCategory
	}
	if strings.TrimSpace(e.Description) == "" {
		return ErrEmptyDesc
	}
	if len(e.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	return e.Kind.Validate()
}

func (d DebtObligation) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return ErrEmptyName
	}
	if len(d.Name) > 200 {
		return errors.New("name too long (max 200 characters)")
	}
	if err := d.Balance.Validate(); err != nil {
		return err
	}
	return d.MinPayment.Validate()
}

func (p BudgetProfile) Validate() error {
	if err := p.MonthlyMinIncome.Validate(); err != nil {
		return err
	}
	if err := p.EmergencyGoal.Validate(); err != nil {
		return err
	}
	return p.CurrentEmergency.Validate()
}
