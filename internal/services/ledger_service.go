package services

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"github.com/faloosh2002/financial-control-platform/internal/amqp"
	"github.com/faloosh2002/financial-control-platform/internal/auth"
	"github.com/faloosh2002/financial-control-platform/internal/core"
	"github.com/faloosh2002/financial-control-platform/internal/storage"
)

// Repository is the persistence surface the ledger service depends on.
// *storage.SQLiteRepository satisfies it.
type Repository interface {
	auth.AccountStore

	GetProfile(ctx context.Context, userID int64) (core.BudgetProfile, error)
	UpdateProfile(ctx context.Context, userID int64, p core.BudgetProfile) error

	AddIncome(ctx context.Context, userID int64, e core.IncomeEntry) (int64, error)
	ListIncomes(ctx context.Context, userID int64) ([]core.IncomeEntry, error)
	DeleteIncome(ctx context.Context, userID, id int64) error

	AddExpense(ctx context.Context, userID int64, e core.ExpenseEntry) (int64, error)
	ListExpenses(ctx context.Context, userID int64) ([]core.ExpenseEntry, error)
	DeleteExpense(ctx context.Context, userID, id int64) error

	AddDebt(ctx context.Context, userID int64, d core.DebtObligation) (int64, error)
	ListDebts(ctx context.Context, userID int64) ([]core.DebtObligation, error)
	DeleteDebt(ctx context.Context, userID, id int64) error

	LoadSnapshot(ctx context.Context, userID int64) (storage.Snapshot, error)
}

// EventPublisher publishes entry-recorded events. *amqp.Client satisfies it.
type EventPublisher interface {
	PublishEntryEvent(ctx context.Context, kind string, id, userID int64) error
}

// LedgerService orchestrates ledger writes across the repository and AMQP,
// and assembles budget analyses from stored snapshots.
type LedgerService struct {
	repo      Repository
	publisher EventPublisher
}

func NewLedgerService(repo Repository, publisher EventPublisher) *LedgerService {
	return &LedgerService{
		repo:      repo,
		publisher: publisher,
	}
}

// Dashboard is the full budget analysis for one user as of a given date.
type Dashboard struct {
	AsOf       string               `json:"as_of"`
	Totals     core.MonthlyTotals   `json:"totals"`
	Status     core.BudgetStatus    `json:"status"`
	Advisories []core.Advisory      `json:"advisories"`
	Allowances core.DailyAllowances `json:"allowances"`
}

// AddIncome validates and saves an income entry, then publishes an entry
// event. Publish failure never fails the request, the row is already saved.
func (s *LedgerService) AddIncome(ctx context.Context, userID int64, e core.IncomeEntry) (int64, error) {
	if err := e.Validate(); err != nil {
		return 0, err
	}

	id, err := s.repo.AddIncome(ctx, userID, e)
	if err != nil {
		return 0, fmt.Errorf("save income: %w", err)
	}

	s.publishEntryEvent(ctx, amqp.KindIncome, id, userID)
	return id, nil
}

func (s *LedgerService) ListIncomes(ctx context.Context, userID int64) ([]core.IncomeEntry, error) {
	return s.repo.ListIncomes(ctx, userID)
}

func (s *LedgerService) DeleteIncome(ctx context.Context, userID, id int64) error {
	return s.repo.DeleteIncome(ctx, userID, id)
}

func (s *LedgerService) AddExpense(ctx context.Context, userID int64, e core.ExpenseEntry) (int64, error) {
	if err := e.Validate(); err != nil {
		return 0, err
	}

	id, err := s.repo.AddExpense(ctx, userID, e)
	if err != nil {
		return 0, fmt.Errorf("save expense: %w", err)
	}

	s.publishEntryEvent(ctx, amqp.KindExpense, id, userID)
	return id, nil
}

func (s *LedgerService) ListExpenses(ctx context.Context, userID int64) ([]core.ExpenseEntry, error) {
	return s.repo.ListExpenses(ctx, userID)
}

func (s *LedgerService) DeleteExpense(ctx context.Context, userID, id int64) error {
	return s.repo.DeleteExpense(ctx, userID, id)
}

func (s *LedgerService) AddDebt(ctx context.Context, userID int64, d core.DebtObligation) (int64, error) {
	if err := d.Validate(); err != nil {
		return 0, err
	}

	id, err := s.repo.AddDebt(ctx, userID, d)
	if err != nil {
		return 0, fmt.Errorf("save debt: %w", err)
	}

	s.publishEntryEvent(ctx, amqp.KindDebt, id, userID)
	return id, nil
}

func (s *LedgerService) ListDebts(ctx context.Context, userID int64) ([]core.DebtObligation, error) {
	return s.repo.ListDebts(ctx, userID)
}

func (s *LedgerService) DeleteDebt(ctx context.Context, userID, id int64) error {
	return s.repo.DeleteDebt(ctx, userID, id)
}

func (s *LedgerService) Profile(ctx context.Context, userID int64) (core.BudgetProfile, error) {
	return s.repo.GetProfile(ctx, userID)
}

func (s *LedgerService) UpdateProfile(ctx context.Context, userID int64, p core.BudgetProfile) error {
	if err := p.Validate(); err != nil {
		return err
	}
	return s.repo.UpdateProfile(ctx, userID, p)
}

// BuildDashboard loads the user's snapshot and derives the full analysis
// as of the given date.
func (s *LedgerService) BuildDashboard(ctx context.Context, userID int64, asOf core.Date) (Dashboard, error) {
	snap, err := s.repo.LoadSnapshot(ctx, userID)
	if err != nil {
		return Dashboard{}, fmt.Errorf("load snapshot: %w", err)
	}

	totals := core.ComputeMonthlyTotals(snap.Incomes, snap.Expenses, snap.Debts, asOf)
	status := core.ComputeStatus(totals, snap.Profile)

	return Dashboard{
		AsOf:       asOf.String(),
		Totals:     totals,
		Status:     status,
		Advisories: core.ComputeAdvisories(totals, status, snap.Profile),
		Allowances: core.ComputeDailyAllowances(totals, status),
	}, nil
}

// CheckAffordability answers whether a hypothetical purchase fits within
// the current safe-to-spend figure. The purchase is never recorded.
func (s *LedgerService) CheckAffordability(ctx context.Context, userID int64, proposed core.Money, asOf core.Date) (core.AffordabilityCheck, error) {
	snap, err := s.repo.LoadSnapshot(ctx, userID)
	if err != nil {
		return core.AffordabilityCheck{}, fmt.Errorf("load snapshot: %w", err)
	}

	totals := core.ComputeMonthlyTotals(snap.Incomes, snap.Expenses, snap.Debts, asOf)
	status := core.ComputeStatus(totals, snap.Profile)

	return core.CheckAffordability(proposed, status)
}

func (s *LedgerService) publishEntryEvent(ctx context.Context, kind string, id, userID int64) {
	if s.publisher == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping entry event")
		return
	}

	if err := s.publisher.PublishEntryEvent(ctx, kind, id, userID); err != nil {
		slog.ErrorContext(ctx, "Failed to publish entry event",
			"kind", kind, "id", id, "error", err)
		// Don't fail the request - the entry is saved locally
	}
}

// SeedDemo creates the demo account with sample data if it doesn't exist.
func (s *LedgerService) SeedDemo(ctx context.Context) error {
	const demoEmail = "demo@example.com"

	if _, found, err := s.repo.FindAccountByEmail(ctx, demoEmail); err != nil {
		return fmt.Errorf("check demo account: %w", err)
	} else if found {
		slog.InfoContext(ctx, "Demo account already exists, skipping seed")
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("demo123"), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash demo password: %w", err)
	}

	account, err := s.repo.CreateAccount(ctx, "Demo User", demoEmail, string(hash))
	if err != nil {
		return fmt.Errorf("create demo account: %w", err)
	}

	if err := s.repo.UpdateProfile(ctx, account.ID, core.BudgetProfile{
		MonthlyMinIncome: core.Money{Cents: 200000},
		EmergencyGoal:    core.Money{Cents: 600000},
		CurrentEmergency: core.Money{Cents: 50000},
	}); err != nil {
		return fmt.Errorf("seed demo profile: %w", err)
	}

	incomes := []core.IncomeEntry{
		{Date: core.NewDate(2024, 8, 15), Amount: core.Money{Cents: 80000}, Source: "Agency A"},
		{Date: core.NewDate(2024, 8, 8), Amount: core.Money{Cents: 60000}, Source: "Agency B"},
	}
	for _, e := range incomes {
		if _, err := s.repo.AddIncome(ctx, account.ID, e); err != nil {
			return fmt.Errorf("seed demo income: %w", err)
		}
	}

	expenses := []core.ExpenseEntry{
		{Date: core.NewDate(2024, 8, 18), Amount: core.Money{Cents: 4500}, Category: core.CategoryFood, Description: "Groceries", Kind: core.Need},
		{Date: core.NewDate(2024, 8, 17), Amount: core.Money{Cents: 1500}, Category: core.CategoryTransport, Description: "Bus fare", Kind: core.Need},
		{Date: core.NewDate(2024, 8, 16), Amount: core.Money{Cents: 2500}, Category: core.CategoryEntertainment, Description: "Movie", Kind: core.Want},
	}
	for _, e := range expenses {
		if _, err := s.repo.AddExpense(ctx, account.ID, e); err != nil {
			return fmt.Errorf("seed demo expense: %w", err)
		}
	}

	debts := []core.DebtObligation{
		{Name: "Credit Card", Balance: core.Money{Cents: 250000}, MinPayment: core.Money{Cents: 7500}},
		{Name: "Student Loan", Balance: core.Money{Cents: 800000}, MinPayment: core.Money{Cents: 12000}},
	}
	for _, d := range debts {
		if _, err := s.repo.AddDebt(ctx, account.ID, d); err != nil {
			return fmt.Errorf("seed demo debt: %w", err)
		}
	}

	slog.InfoContext(ctx, "Seeded demo account", "user_id", account.ID)
	return nil
}
