package services

import (
	"context"
	"errors"
	"testing"

	"github.com/faloosh2002/financial-control-platform/internal/auth"
	"github.com/faloosh2002/financial-control-platform/internal/core"
	"github.com/faloosh2002/financial-control-platform/internal/storage"
)

type fakeRepo struct {
	accounts map[string]auth.Account
	nextID   int64
	profiles map[int64]core.BudgetProfile
	incomes  map[int64][]core.IncomeEntry
	expenses map[int64][]core.ExpenseEntry
	debts    map[int64][]core.DebtObligation
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		accounts: make(map[string]auth.Account),
		profiles: make(map[int64]core.BudgetProfile),
		incomes:  make(map[int64][]core.IncomeEntry),
		expenses: make(map[int64][]core.ExpenseEntry),
		debts:    make(map[int64][]core.DebtObligation),
	}
}

func (f *fakeRepo) CreateAccount(_ context.Context, name, email, hash string) (auth.Account, error) {
	f.nextID++
	a := auth.Account{ID: f.nextID, DisplayName: name, Email: email, PasswordHash: hash}
	f.accounts[email] = a
	return a, nil
}

func (f *fakeRepo) FindAccountByEmail(_ context.Context, email string) (auth.Account, bool, error) {
	a, ok := f.accounts[email]
	return a, ok, nil
}

func (f *fakeRepo) GetProfile(_ context.Context, userID int64) (core.BudgetProfile, error) {
	return f.profiles[userID], nil
}

func (f *fakeRepo) UpdateProfile(_ context.Context, userID int64, p core.BudgetProfile) error {
	f.profiles[userID] = p
	return nil
}

func (f *fakeRepo) AddIncome(_ context.Context, userID int64, e core.IncomeEntry) (int64, error) {
	f.nextID++
	e.ID = f.nextID
	f.incomes[userID] = append(f.incomes[userID], e)
	return e.ID, nil
}

func (f *fakeRepo) ListIncomes(_ context.Context, userID int64) ([]core.IncomeEntry, error) {
	return f.incomes[userID], nil
}

func (f *fakeRepo) DeleteIncome(_ context.Context, userID, id int64) error {
	return storage.ErrNotFound
}

func (f *fakeRepo) AddExpense(_ context.Context, userID int64, e core.ExpenseEntry) (int64, error) {
	f.nextID++
	e.ID = f.nextID
	f.expenses[userID] = append(f.expenses[userID], e)
	return e.ID, nil
}

func (f *fakeRepo) ListExpenses(_ context.Context, userID int64) ([]core.ExpenseEntry, error) {
	return f.expenses[userID], nil
}

func (f *fakeRepo) DeleteExpense(_ context.Context, userID, id int64) error {
	return storage.ErrNotFound
}

func (f *fakeRepo) AddDebt(_ context.Context, userID int64, d core.DebtObligation) (int64, error) {
	f.nextID++
	d.ID = f.nextID
	f.debts[userID] = append(f.debts[userID], d)
	return d.ID, nil
}

func (f *fakeRepo) ListDebts(_ context.Context, userID int64) ([]core.DebtObligation, error) {
	return f.debts[userID], nil
}

func (f *fakeRepo) DeleteDebt(_ context.Context, userID, id int64) error {
	return storage.ErrNotFound
}

func (f *fakeRepo) LoadSnapshot(_ context.Context, userID int64) (storage.Snapshot, error) {
	return storage.Snapshot{
		Profile:  f.profiles[userID],
		Incomes:  f.incomes[userID],
		Expenses: f.expenses[userID],
		Debts:    f.debts[userID],
	}, nil
}

type fakePublisher struct {
	published []string
	err       error
}

func (f *fakePublisher) PublishEntryEvent(_ context.Context, kind string, id, userID int64) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, kind)
	return nil
}

func TestAddIncomePublishesEvent(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	pub := &fakePublisher{}
	svc := NewLedgerService(repo, pub)

	id, err := svc.AddIncome(ctx, 1, core.IncomeEntry{
		Date:   core.NewDate(2024, 8, 15),
		Amount: core.Money{Cents: 80000},
		Source: "Agency A",
	})
	if err != nil {
		t.Fatalf("AddIncome: %v", err)
	}
	if id == 0 {
		t.Fatal("expected non-zero id")
	}
	if len(pub.published) != 1 || pub.published[0] != "income" {
		t.Fatalf("expected one income event, got %v", pub.published)
	}
}

func TestAddIncomeRejectsInvalid(t *testing.T) {
	svc := NewLedgerService(newFakeRepo(), &fakePublisher{})

	_, err := svc.AddIncome(context.Background(), 1, core.IncomeEntry{
		Date:   core.NewDate(2024, 8, 15),
		Amount: core.Money{Cents: -100},
		Source: "Agency A",
	})
	if !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestPublishFailureDoesNotFailWrite(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	pub := &fakePublisher{err: errors.New("broker down")}
	svc := NewLedgerService(repo, pub)

	if _, err := svc.AddExpense(ctx, 1, core.ExpenseEntry{
		Date:        core.NewDate(2024, 8, 18),
		Amount:      core.Money{Cents: 4500},
		Category:    core.CategoryFood,
		Description: "Groceries",
		Kind:        core.Need,
	}); err != nil {
		t.Fatalf("AddExpense should succeed despite publish failure: %v", err)
	}
	if len(repo.expenses[1]) != 1 {
		t.Fatalf("expense not saved")
	}
}

func TestNilPublisherSkipsEvents(t *testing.T) {
	svc := NewLedgerService(newFakeRepo(), nil)

	if _, err := svc.AddDebt(context.Background(), 1, core.DebtObligation{
		Name:       "Credit Card",
		Balance:    core.Money{Cents: 250000},
		MinPayment: core.Money{Cents: 7500},
	}); err != nil {
		t.Fatalf("AddDebt with nil publisher: %v", err)
	}
}

func TestBuildDashboard(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	svc := NewLedgerService(repo, nil)

	repo.profiles[1] = core.BudgetProfile{
		MonthlyMinIncome: core.Money{Cents: 200000},
		EmergencyGoal:    core.Money{Cents: 600000},
		CurrentEmergency: core.Money{Cents: 50000},
	}
	if _, err := svc.AddIncome(ctx, 1, core.IncomeEntry{
		Date: core.NewDate(2024, 8, 15), Amount: core.Money{Cents: 140000}, Source: "Agency A",
	}); err != nil {
		t.Fatalf("AddIncome: %v", err)
	}
	if _, err := svc.AddExpense(ctx, 1, core.ExpenseEntry{
		Date: core.NewDate(2024, 8, 18), Amount: core.Money{Cents: 8500},
		Category: core.CategoryFood, Description: "Groceries", Kind: core.Need,
	}); err != nil {
		t.Fatalf("AddExpense: %v", err)
	}

	dash, err := svc.BuildDashboard(ctx, 1, core.NewDate(2024, 8, 20))
	if err != nil {
		t.Fatalf("BuildDashboard: %v", err)
	}
	if dash.AsOf != "2024-08-20" {
		t.Errorf("AsOf = %q", dash.AsOf)
	}
	if dash.Totals.TotalIncome.Cents != 140000 {
		t.Errorf("TotalIncome = %d", dash.Totals.TotalIncome.Cents)
	}
	if dash.Totals.TotalExpenses.Cents != 8500 {
		t.Errorf("TotalExpenses = %d", dash.Totals.TotalExpenses.Cents)
	}
	if len(dash.Advisories) == 0 {
		t.Error("expected at least one advisory")
	}
}

func TestCheckAffordabilityThroughService(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	svc := NewLedgerService(repo, nil)

	repo.profiles[1] = core.BudgetProfile{
		MonthlyMinIncome: core.Money{Cents: 200000},
	}

	check, err := svc.CheckAffordability(ctx, 1, core.Money{Cents: 5000}, core.NewDate(2024, 8, 20))
	if err != nil {
		t.Fatalf("CheckAffordability: %v", err)
	}
	if !check.Affordable {
		t.Errorf("expected affordable, got %+v", check)
	}

	if _, err := svc.CheckAffordability(ctx, 1, core.Money{Cents: -1}, core.NewDate(2024, 8, 20)); !errors.Is(err, core.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestSeedDemoIdempotent(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	svc := NewLedgerService(repo, nil)

	if err := svc.SeedDemo(ctx); err != nil {
		t.Fatalf("SeedDemo: %v", err)
	}
	account, found, _ := repo.FindAccountByEmail(ctx, "demo@example.com")
	if !found {
		t.Fatal("demo account not created")
	}
	if got := len(repo.incomes[account.ID]); got != 2 {
		t.Errorf("incomes = %d, want 2", got)
	}
	if got := len(repo.expenses[account.ID]); got != 3 {
		t.Errorf("expenses = %d, want 3", got)
	}
	if got := len(repo.debts[account.ID]); got != 2 {
		t.Errorf("debts = %d, want 2", got)
	}

	// Second seed is a no-op.
	if err := svc.SeedDemo(ctx); err != nil {
		t.Fatalf("second SeedDemo: %v", err)
	}
	if got := len(repo.incomes[account.ID]); got != 2 {
		t.Errorf("incomes after reseed = %d, want 2", got)
	}
}
