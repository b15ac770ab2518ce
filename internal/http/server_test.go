package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/faloosh2002/financial-control-platform/internal/auth"
	"github.com/faloosh2002/financial-control-platform/internal/core"
	"github.com/faloosh2002/financial-control-platform/internal/services"
	"github.com/faloosh2002/financial-control-platform/internal/storage"
)

type memRepo struct {
	accounts map[string]auth.Account
	nextID   int64
	profiles map[int64]core.BudgetProfile
	incomes  map[int64][]core.IncomeEntry
	expenses map[int64][]core.ExpenseEntry
	debts    map[int64][]core.DebtObligation
}

func newMemRepo() *memRepo {
	return &memRepo{
		accounts: make(map[string]auth.Account),
		profiles: make(map[int64]core.BudgetProfile),
		incomes:  make(map[int64][]core.IncomeEntry),
		expenses: make(map[int64][]core.ExpenseEntry),
		debts:    make(map[int64][]core.DebtObligation),
	}
}

func (m *memRepo) CreateAccount(_ context.Context, name, email, hash string) (auth.Account, error) {
	m.nextID++
	a := auth.Account{ID: m.nextID, DisplayName: name, Email: email, PasswordHash: hash}
	m.accounts[email] = a
	return a, nil
}

func (m *memRepo) FindAccountByEmail(_ context.Context, email string) (auth.Account, bool, error) {
	a, ok := m.accounts[email]
	return a, ok, nil
}

func (m *memRepo) GetProfile(_ context.Context, userID int64) (core.BudgetProfile, error) {
	return m.profiles[userID], nil
}

func (m *memRepo) UpdateProfile(_ context.Context, userID int64, p core.BudgetProfile) error {
	m.profiles[userID] = p
	return nil
}

func (m *memRepo) AddIncome(_ context.Context, userID int64, e core.IncomeEntry) (int64, error) {
	m.nextID++
	e.ID = m.nextID
	m.incomes[userID] = append(m.incomes[userID], e)
	return e.ID, nil
}

func (m *memRepo) ListIncomes(_ context.Context, userID int64) ([]core.IncomeEntry, error) {
	return m.incomes[userID], nil
}

func (m *memRepo) DeleteIncome(_ context.Context, userID, id int64) error {
	for i, e := range m.incomes[userID] {
		if e.ID == id {
			m.incomes[userID] = append(m.incomes[userID][:i], m.incomes[userID][i+1:]...)
			return nil
		}
	}
	return storage.ErrNotFound
}

func (m *memRepo) AddExpense(_ context.Context, userID int64, e core.ExpenseEntry) (int64, error) {
	m.nextID++
	e.ID = m.nextID
	m.expenses[userID] = append(m.expenses[userID], e)
	return e.ID, nil
}

func (m *memRepo) ListExpenses(_ context.Context, userID int64) ([]core.ExpenseEntry, error) {
	return m.expenses[userID], nil
}

func (m *memRepo) DeleteExpense(_ context.Context, userID, id int64) error {
	for i, e := range m.expenses[userID] {
		if e.ID == id {
			m.expenses[userID] = append(m.expenses[userID][:i], m.expenses[userID][i+1:]...)
			return nil
		}
	}
	return storage.ErrNotFound
}

func (m *memRepo) AddDebt(_ context.Context, userID int64, d core.DebtObligation) (int64, error) {
	m.nextID++
	d.ID = m.nextID
	m.debts[userID] = append(m.debts[userID], d)
	return d.ID, nil
}

func (m *memRepo) ListDebts(_ context.Context, userID int64) ([]core.DebtObligation, error) {
	return m.debts[userID], nil
}

func (m *memRepo) DeleteDebt(_ context.Context, userID, id int64) error {
	for i, d := range m.debts[userID] {
		if d.ID == id {
			m.debts[userID] = append(m.debts[userID][:i], m.debts[userID][i+1:]...)
			return nil
		}
	}
	return storage.ErrNotFound
}

func (m *memRepo) LoadSnapshot(_ context.Context, userID int64) (storage.Snapshot, error) {
	return storage.Snapshot{
		Profile:  m.profiles[userID],
		Incomes:  m.incomes[userID],
		Expenses: m.expenses[userID],
		Debts:    m.debts[userID],
	}, nil
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	repo := newMemRepo()
	provider := auth.NewProvider(repo, "test-secret-0123456789abcdef", time.Hour)
	ledger := services.NewLedgerService(repo, nil)
	return NewServer(":0", ledger, provider)
}

func doJSON(t *testing.T, srv *Server, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func registerTestUser(t *testing.T, srv *Server) string {
	t.Helper()
	rr := doJSON(t, srv, http.MethodPost, "/api/register", "",
		`{"name":"Demo User","email":"demo@example.com","password":"demo123"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("register status=%d body=%s", rr.Code, rr.Body.String())
	}
	var resp sessionResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode register response: %v", err)
	}
	if resp.Token == "" {
		t.Fatal("empty token")
	}
	return resp.Token
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(t)
	for _, path := range []string{"/healthz", "/readyz"} {
		rr := doJSON(t, srv, http.MethodGet, path, "", "")
		if rr.Code != http.StatusOK {
			t.Fatalf("%s status=%d", path, rr.Code)
		}
	}
}

func TestRegisterAndLogin(t *testing.T) {
	srv := newTestServer(t)
	registerTestUser(t, srv)

	// Duplicate registration
	rr := doJSON(t, srv, http.MethodPost, "/api/register", "",
		`{"name":"Demo User","email":"demo@example.com","password":"demo123"}`)
	if rr.Code != http.StatusConflict {
		t.Fatalf("duplicate register status=%d", rr.Code)
	}

	// Successful login
	rr = doJSON(t, srv, http.MethodPost, "/api/login", "",
		`{"email":"demo@example.com","password":"demo123"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("login status=%d body=%s", rr.Code, rr.Body.String())
	}

	// Wrong password
	rr = doJSON(t, srv, http.MethodPost, "/api/login", "",
		`{"email":"demo@example.com","password":"wrong"}`)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("bad login status=%d", rr.Code)
	}

	// Weak password on registration
	rr = doJSON(t, srv, http.MethodPost, "/api/register", "",
		`{"name":"X","email":"x@example.com","password":"123"}`)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("weak password status=%d", rr.Code)
	}
}

func TestAuthRequired(t *testing.T) {
	srv := newTestServer(t)

	rr := doJSON(t, srv, http.MethodGet, "/api/incomes", "", "")
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("missing token status=%d", rr.Code)
	}

	rr = doJSON(t, srv, http.MethodGet, "/api/incomes", "garbage-token", "")
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("bad token status=%d", rr.Code)
	}
}

func TestIncomeLifecycle(t *testing.T) {
	srv := newTestServer(t)
	token := registerTestUser(t, srv)

	rr := doJSON(t, srv, http.MethodPost, "/api/incomes", token,
		`{"date":"2024-08-15","amount":"800","source":"Agency A"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create income status=%d body=%s", rr.Code, rr.Body.String())
	}
	var created createdResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode created: %v", err)
	}

	rr = doJSON(t, srv, http.MethodGet, "/api/incomes", token, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("list incomes status=%d", rr.Code)
	}
	var incomes []incomeDTO
	if err := json.Unmarshal(rr.Body.Bytes(), &incomes); err != nil {
		t.Fatalf("decode incomes: %v", err)
	}
	if len(incomes) != 1 || incomes[0].Amount.Cents != 80000 || incomes[0].Date != "2024-08-15" {
		t.Fatalf("unexpected incomes: %+v", incomes)
	}

	rr = doJSON(t, srv, http.MethodDelete, "/api/incomes/999", token, "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("delete missing income status=%d", rr.Code)
	}
	rr = doJSON(t, srv, http.MethodDelete, "/api/incomes/"+strconv.FormatInt(created.ID, 10), token, "")
	if rr.Code != http.StatusNoContent {
		t.Fatalf("delete income status=%d", rr.Code)
	}
}

func TestExpenseValidation(t *testing.T) {
	srv := newTestServer(t)
	token := registerTestUser(t, srv)

	cases := []struct {
		name string
		body string
		want int
	}{
		{"valid", `{"date":"2024-08-18","amount":"45","category":"Food","description":"Groceries","kind":"need"}`, http.StatusCreated},
		{"bad amount", `{"date":"2024-08-18","amount":"abc","category":"Food","description":"x","kind":"need"}`, http.StatusUnprocessableEntity},
		{"negative amount", `{"date":"2024-08-18","amount":"-5","category":"Food","description":"x","kind":"need"}`, http.StatusUnprocessableEntity},
		{"bad category", `{"date":"2024-08-18","amount":"5","category":"Misc","description":"x","kind":"need"}`, http.StatusUnprocessableEntity},
		{"bad kind", `{"date":"2024-08-18","amount":"5","category":"Food","description":"x","kind":"luxury"}`, http.StatusUnprocessableEntity},
		{"bad date", `{"date":"18-08-2024","amount":"5","category":"Food","description":"x","kind":"need"}`, http.StatusUnprocessableEntity},
		{"empty description", `{"date":"2024-08-18","amount":"5","category":"Food","description":"","kind":"need"}`, http.StatusUnprocessableEntity},
		{"not json", `not json at all`, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := doJSON(t, srv, http.MethodPost, "/api/expenses", token, tc.body)
			if rr.Code != tc.want {
				t.Fatalf("status=%d want %d body=%s", rr.Code, tc.want, rr.Body.String())
			}
		})
	}
}

func TestProfileRoundTrip(t *testing.T) {
	srv := newTestServer(t)
	token := registerTestUser(t, srv)

	rr := doJSON(t, srv, http.MethodPut, "/api/profile", token,
		`{"monthlyMinIncome":"2000","emergencyGoal":"6000","currentEmergency":"500"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("update profile status=%d body=%s", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, srv, http.MethodGet, "/api/profile", token, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("get profile status=%d", rr.Code)
	}
	var profile profileDTO
	if err := json.Unmarshal(rr.Body.Bytes(), &profile); err != nil {
		t.Fatalf("decode profile: %v", err)
	}
	if profile.MonthlyMinIncome.Cents != 200000 || profile.CurrentEmergency.Cents != 50000 {
		t.Fatalf("unexpected profile: %+v", profile)
	}
}

func TestDashboard(t *testing.T) {
	srv := newTestServer(t)
	token := registerTestUser(t, srv)

	doJSON(t, srv, http.MethodPut, "/api/profile", token,
		`{"monthlyMinIncome":"2000","emergencyGoal":"6000","currentEmergency":"500"}`)
	doJSON(t, srv, http.MethodPost, "/api/incomes", token,
		`{"date":"2024-08-15","amount":"1400","source":"Agency A"}`)
	doJSON(t, srv, http.MethodPost, "/api/expenses", token,
		`{"date":"2024-08-18","amount":"85","category":"Food","description":"Groceries","kind":"need"}`)
	doJSON(t, srv, http.MethodPost, "/api/debts", token,
		`{"name":"Credit Card","balance":"2500","minPayment":"75"}`)

	rr := doJSON(t, srv, http.MethodGet, "/api/dashboard?asof=2024-08-20", token, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("dashboard status=%d body=%s", rr.Code, rr.Body.String())
	}
	var dash services.Dashboard
	if err := json.Unmarshal(rr.Body.Bytes(), &dash); err != nil {
		t.Fatalf("decode dashboard: %v", err)
	}
	if dash.AsOf != "2024-08-20" {
		t.Errorf("AsOf = %q", dash.AsOf)
	}
	if dash.Totals.TotalIncome.Cents != 140000 {
		t.Errorf("TotalIncome = %d", dash.Totals.TotalIncome.Cents)
	}
	if dash.Totals.MinDebtPayments.Cents != 7500 {
		t.Errorf("MinDebtPayments = %d", dash.Totals.MinDebtPayments.Cents)
	}
	if len(dash.Advisories) == 0 {
		t.Error("expected advisories")
	}

	rr = doJSON(t, srv, http.MethodGet, "/api/dashboard?asof=not-a-date", token, "")
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("bad asof status=%d", rr.Code)
	}
}

func TestAffordability(t *testing.T) {
	srv := newTestServer(t)
	token := registerTestUser(t, srv)

	doJSON(t, srv, http.MethodPut, "/api/profile", token,
		`{"monthlyMinIncome":"2000","emergencyGoal":"6000","currentEmergency":"500"}`)

	rr := doJSON(t, srv, http.MethodPost, "/api/affordability", token, `{"amount":"100"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("affordability status=%d body=%s", rr.Code, rr.Body.String())
	}
	var check core.AffordabilityCheck
	if err := json.Unmarshal(rr.Body.Bytes(), &check); err != nil {
		t.Fatalf("decode check: %v", err)
	}
	if !check.Affordable {
		t.Errorf("expected affordable with no spending: %+v", check)
	}

	rr = doJSON(t, srv, http.MethodPost, "/api/affordability", token, `{"amount":"-1"}`)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("negative amount status=%d", rr.Code)
	}
}
