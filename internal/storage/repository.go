package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/faloosh2002/financial-control-platform/internal/auth"
	"github.com/faloosh2002/financial-control-platform/internal/core"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a row does not exist or belongs to another user.
var ErrNotFound = errors.New("record not found")

// Snapshot is the full financial state of one account, loaded for analysis.
type Snapshot struct {
	Profile  core.BudgetProfile
	Incomes  []core.IncomeEntry
	Expenses []core.ExpenseEntry
	Debts    []core.DebtObligation
}

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// CreateAccount implements auth.AccountStore. The account and its zeroed
// profile are created in one transaction.
func (r *SQLiteRepository) CreateAccount(ctx context.Context, displayName, email, passwordHash string) (auth.Account, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return auth.Account{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO users (display_name, email, password_hash) VALUES (?, ?, ?)`,
		displayName, email, passwordHash)
	if err != nil {
		return auth.Account{}, fmt.Errorf("insert user: %w", err)
	}
	userID, err := res.LastInsertId()
	if err != nil {
		return auth.Account{}, fmt.Errorf("user id: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `INSERT INTO profiles (user_id) VALUES (?)`, userID); err != nil {
		return auth.Account{}, fmt.Errorf("insert profile: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return auth.Account{}, fmt.Errorf("commit: %w", err)
	}

	slog.InfoContext(ctx, "Account created", "user_id", userID, "email", email)
	return auth.Account{ID: userID, DisplayName: displayName, Email: email, PasswordHash: passwordHash}, nil
}

// FindAccountByEmail implements auth.AccountStore.
func (r *SQLiteRepository) FindAccountByEmail(ctx context.Context, email string) (auth.Account, bool, error) {
	var a auth.Account
	err := r.db.QueryRowContext(ctx,
		`SELECT id, display_name, email, password_hash FROM users WHERE email = ? COLLATE NOCASE`,
		email).Scan(&a.ID, &a.DisplayName, &a.Email, &a.PasswordHash)
	if err == sql.ErrNoRows {
		return auth.Account{}, false, nil
	}
	if err != nil {
		return auth.Account{}, false, fmt.Errorf("find account by email: %w", err)
	}
	return a, true, nil
}

func (r *SQLiteRepository) GetProfile(ctx context.Context, userID int64) (core.BudgetProfile, error) {
	var p core.BudgetProfile
	err := r.db.QueryRowContext(ctx,
		`SELECT monthly_min_income_cents, emergency_goal_cents, current_emergency_cents
		 FROM profiles WHERE user_id = ?`, userID).
		Scan(&p.MonthlyMinIncome.Cents, &p.EmergencyGoal.Cents, &p.CurrentEmergency.Cents)
	if err == sql.ErrNoRows {
		return core.BudgetProfile{}, ErrNotFound
	}
	if err != nil {
		return core.BudgetProfile{}, fmt.Errorf("get profile: %w", err)
	}
	return p, nil
}

func (r *SQLiteRepository) UpdateProfile(ctx context.Context, userID int64, p core.BudgetProfile) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE profiles
		 SET monthly_min_income_cents = ?, emergency_goal_cents = ?, current_emergency_cents = ?,
		     updated_at = CURRENT_TIMESTAMP
		 WHERE user_id = ?`,
		p.MonthlyMinIncome.Cents, p.EmergencyGoal.Cents, p.CurrentEmergency.Cents, userID)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}

	slog.InfoContext(ctx, "Profile updated", "user_id", userID,
		"monthly_min_income_cents", p.MonthlyMinIncome.Cents,
		"emergency_goal_cents", p.EmergencyGoal.Cents,
		"current_emergency_cents", p.CurrentEmergency.Cents)
	return nil
}

func (r *SQLiteRepository) AddIncome(ctx context.Context, userID int64, e core.IncomeEntry) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO incomes (user_id, entry_date, amount_cents, source) VALUES (?, ?, ?, ?)`,
		userID, e.Date.String(), e.Amount.Cents, e.Source)
	if err != nil {
		return 0, fmt.Errorf("insert income: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("income id: %w", err)
	}

	slog.InfoContext(ctx, "Income saved", "id", id, "user_id", userID,
		"amount_cents", e.Amount.Cents, "source", e.Source, "date", e.Date.String())
	return id, nil
}

func (r *SQLiteRepository) ListIncomes(ctx context.Context, userID int64) ([]core.IncomeEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, entry_date, amount_cents, source FROM incomes WHERE user_id = ? ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list incomes: %w", err)
	}
	defer rows.Close()

	var out []core.IncomeEntry
	for rows.Next() {
		var e core.IncomeEntry
		var dateStr string
		if err := rows.Scan(&e.ID, &dateStr, &e.Amount.Cents, &e.Source); err != nil {
			return nil, fmt.Errorf("scan income: %w", err)
		}
		if e.Date, err = core.ParseDate(dateStr); err != nil {
			return nil, fmt.Errorf("income %d has malformed date %q: %w", e.ID, dateStr, err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) DeleteIncome(ctx context.Context, userID, id int64) error {
	return r.deleteOwned(ctx, "incomes", userID, id)
}

// GetIncome loads a single income row; used by the backup worker.
func (r *SQLiteRepository) GetIncome(ctx context.Context, id int64) (core.IncomeEntry, int64, error) {
	var e core.IncomeEntry
	var userID int64
	var dateStr string
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, entry_date, amount_cents, source FROM incomes WHERE id = ?`, id).
		Scan(&e.ID, &userID, &dateStr, &e.Amount.Cents, &e.Source)
	if err == sql.ErrNoRows {
		return core.IncomeEntry{}, 0, ErrNotFound
	}
	if err != nil {
		return core.IncomeEntry{}, 0, fmt.Errorf("get income: %w", err)
	}
	if e.Date, err = core.ParseDate(dateStr); err != nil {
		return core.IncomeEntry{}, 0, fmt.Errorf("income %d has malformed date %q: %w", id, dateStr, err)
	}
	return e, userID, nil
}

func (r *SQLiteRepository) AddExpense(ctx context.Context, userID int64, e core.ExpenseEntry) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO expenses (user_id, entry_date, amount_cents, category, description, kind)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		userID, e.Date.String(), e.Amount.Cents, e.Category, e.Description, string(e.Kind))
	if err != nil {
		return 0, fmt.Errorf("insert expense: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("expense id: %w", err)
	}

	slog.InfoContext(ctx, "Expense saved", "id", id, "user_id", userID,
		"amount_cents", e.Amount.Cents, "category", e.Category, "kind", string(e.Kind),
		"date", e.Date.String())
	return id, nil
}

func (r *SQLiteRepository) ListExpenses(ctx context.Context, userID int64) ([]core.ExpenseEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, entry_date, amount_cents, category, description, kind
		 FROM expenses WHERE user_id = ? ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	var out []core.ExpenseEntry
	for rows.Next() {
		var e core.ExpenseEntry
		var dateStr, kind string
		if err := rows.Scan(&e.ID, &dateStr, &e.Amount.Cents, &e.Category, &e.Description, &kind); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		if e.Date, err = core.ParseDate(dateStr); err != nil {
			return nil, fmt.Errorf("expense %d has malformed date %q: %w", e.ID, dateStr, err)
		}
		e.Kind = core.ExpenseKind(kind)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) DeleteExpense(ctx context.Context, userID, id int64) error {
	return r.deleteOwned(ctx, "expenses", userID, id)
}

// GetExpense loads a single expense row; used by the backup worker.
func (r *SQLiteRepository) GetExpense(ctx context.Context, id int64) (core.ExpenseEntry, int64, error) {
	var e core.ExpenseEntry
	var userID int64
	var dateStr, kind string
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, entry_date, amount_cents, category, description, kind
		 FROM expenses WHERE id = ?`, id).
		Scan(&e.ID, &userID, &dateStr, &e.Amount.Cents, &e.Category, &e.Description, &kind)
	if err == sql.ErrNoRows {
		return core.ExpenseEntry{}, 0, ErrNotFound
	}
	if err != nil {
		return core.ExpenseEntry{}, 0, fmt.Errorf("get expense: %w", err)
	}
	if e.Date, err = core.ParseDate(dateStr); err != nil {
		return core.ExpenseEntry{}, 0, fmt.Errorf("expense %d has malformed date %q: %w", id, dateStr, err)
	}
	e.Kind = core.ExpenseKind(kind)
	return e, userID, nil
}

func (r *SQLiteRepository) AddDebt(ctx context.Context, userID int64, d core.DebtObligation) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO debts (user_id, name, balance_cents, min_payment_cents) VALUES (?, ?, ?, ?)`,
		userID, d.Name, d.Balance.Cents, d.MinPayment.Cents)
	if err != nil {
		return 0, fmt.Errorf("insert debt: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("debt id: %w", err)
	}

	slog.InfoContext(ctx, "Debt saved", "id", id, "user_id", userID,
		"name", d.Name, "balance_cents", d.Balance.Cents, "min_payment_cents", d.MinPayment.Cents)
	return id, nil
}

func (r *SQLiteRepository) ListDebts(ctx context.Context, userID int64) ([]core.DebtObligation, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, balance_cents, min_payment_cents FROM debts WHERE user_id = ? ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list debts: %w", err)
	}
	defer rows.Close()

	var out []core.DebtObligation
	for rows.Next() {
		var d core.DebtObligation
		if err := rows.Scan(&d.ID, &d.Name, &d.Balance.Cents, &d.MinPayment.Cents); err != nil {
			return nil, fmt.Errorf("scan debt: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) DeleteDebt(ctx context.Context, userID, id int64) error {
	return r.deleteOwned(ctx, "debts", userID, id)
}

// GetDebt loads a single debt row; used by the backup worker.
func (r *SQLiteRepository) GetDebt(ctx context.Context, id int64) (core.DebtObligation, int64, error) {
	var d core.DebtObligation
	var userID int64
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, name, balance_cents, min_payment_cents FROM debts WHERE id = ?`, id).
		Scan(&d.ID, &userID, &d.Name, &d.Balance.Cents, &d.MinPayment.Cents)
	if err == sql.ErrNoRows {
		return core.DebtObligation{}, 0, ErrNotFound
	}
	if err != nil {
		return core.DebtObligation{}, 0, fmt.Errorf("get debt: %w", err)
	}
	return d, userID, nil
}

// PendingEntry identifies one row that has not been backed up yet.
type PendingEntry struct {
	Kind string
	ID   int64
}

func tableForKind(kind string) (string, error) {
	switch kind {
	case "income":
		return "incomes", nil
	case "expense":
		return "expenses", nil
	case "debt":
		return "debts", nil
	}
	return "", fmt.Errorf("unknown entry kind %q", kind)
}

// ListPendingBackup returns up to limit entries across all ledger tables that
// are still waiting for a backup. Recovery path for lost AMQP messages.
func (r *SQLiteRepository) ListPendingBackup(ctx context.Context, limit int) ([]PendingEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT 'income' AS kind, id FROM incomes WHERE backed_up = 0
		 UNION ALL
		 SELECT 'expense', id FROM expenses WHERE backed_up = 0
		 UNION ALL
		 SELECT 'debt', id FROM debts WHERE backed_up = 0
		 LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list pending backup: %w", err)
	}
	defer rows.Close()

	var out []PendingEntry
	for rows.Next() {
		var p PendingEntry
		if err := rows.Scan(&p.Kind, &p.ID); err != nil {
			return nil, fmt.Errorf("scan pending entry: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// MarkBackedUp flags an entry as written to the backup spreadsheet.
func (r *SQLiteRepository) MarkBackedUp(ctx context.Context, kind string, id int64) error {
	table, err := tableForKind(kind)
	if err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx,
		fmt.Sprintf(`UPDATE %s SET backed_up = 1 WHERE id = ?`, table), id); err != nil {
		return fmt.Errorf("mark backed up: %w", err)
	}
	return nil
}

// LoadSnapshot loads the complete financial state of one account.
func (r *SQLiteRepository) LoadSnapshot(ctx context.Context, userID int64) (Snapshot, error) {
	profile, err := r.GetProfile(ctx, userID)
	if err != nil {
		return Snapshot{}, err
	}
	incomes, err := r.ListIncomes(ctx, userID)
	if err != nil {
		return Snapshot{}, err
	}
	expenses, err := r.ListExpenses(ctx, userID)
	if err != nil {
		return Snapshot{}, err
	}
	debts, err := r.ListDebts(ctx, userID)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{Profile: profile, Incomes: incomes, Expenses: expenses, Debts: debts}, nil
}

// deleteOwned removes a row only when it belongs to the given user.
func (r *SQLiteRepository) deleteOwned(ctx context.Context, table string, userID, id int64) error {
	res, err := r.db.ExecContext(ctx,
		fmt.Sprintf("DELETE FROM %s WHERE id = ? AND user_id = ?", table), id, userID)
	if err != nil {
		return fmt.Errorf("delete from %s: %w", table, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}

	slog.InfoContext(ctx, "Entry deleted", "table", table, "id", id, "user_id", userID)
	return nil
}
