package core

import (
	"fmt"
	"math"
)

// Advisory severities.
const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
)

// Advisory codes.
const (
	AdviceOverspending  = "overspending"
	AdviceEmergencyFund = "build-emergency-fund"
	AdviceCutNeeds      = "cut-needs"
	AdviceCutWants      = "cut-wants"
	AdviceOnTrack       = "on-track"
)

type (
	Severity string

	// MonthlyTotals are the window-filtered sums over an account's records.
	MonthlyTotals struct {
		TotalIncome     Money `json:"totalIncome"`
		TotalExpenses   Money `json:"totalExpenses"`
		NeedsSpent      Money `json:"needsSpent"`
		WantsSpent      Money `json:"wantsSpent"`
		MinDebtPayments Money `json:"minDebtPayments"`
	}

	// BudgetStatus is derived from totals and the configured profile.
	BudgetStatus struct {
		SafeToSpend     Money   `json:"safeToSpend"`
		Shortfall       Money   `json:"shortfall"`
		EmergencyMonths float64 `json:"emergencyMonths"`
		// IncomeUnset flags that EmergencyMonths was computed with a one-unit
		// divisor because MonthlyMinIncome is zero.
		IncomeUnset bool  `json:"incomeUnset"`
		NeedsCap    Money `json:"needsCap"`
		WantsCap    Money `json:"wantsCap"`
	}

	// Advisory is one categorical recommendation. Amount and Target are whole
	// currency units; which one is meaningful depends on the code.
	Advisory struct {
		Code     string   `json:"code"`
		Severity Severity `json:"severity"`
		Message  string   `json:"message"`
		Amount   int64    `json:"amount,omitempty"`
		Target   int64    `json:"target,omitempty"`
	}

	// DailyAllowances are per-day/per-week guidance figures in whole currency
	// units. Negative values signal that the corresponding budget is exhausted.
	DailyAllowances struct {
		DailyWants    int64 `json:"dailyWants"`
		DailyNeeds    int64 `json:"dailyNeeds"`
		WeeklySavings int64 `json:"weeklySavings"`
	}

	// AffordabilityCheck is the result of a hypothetical purchase evaluation.
	// The proposed amount is never inserted into the expense totals.
	AffordabilityCheck struct {
		Affordable             bool  `json:"affordable"`
		ProposedAmount         Money `json:"proposedAmount"`
		SafeToSpend            Money `json:"safeToSpend"`
		RemainingAfterPurchase Money `json:"remainingAfterPurchase"`
	}
)

// inWindow reports whether d falls in [first day of asOf's month, asOf],
// both ends inclusive at day granularity.
func inWindow(d Date, asOf Date) bool {
	first := NewDate(asOf.Year(), asOf.Month(), 1)
	end := NewDate(asOf.Year(), asOf.Month(), asOf.Day())
	day := NewDate(d.Year(), d.Month(), d.Day())
	return !day.Before(first.Time) && !day.After(end.Time)
}

// ComputeMonthlyTotals sums the account's records over the current-month window
// ending at asOf. Debt minimum payments are not date-filtered; they are always
// due. Inputs are never mutated.
func ComputeMonthlyTotals(incomes []IncomeEntry, expenses []ExpenseEntry, debts []DebtObligation, asOf Date) MonthlyTotals {
	var t MonthlyTotals
	for _, in := range incomes {
		if inWindow(in.Date, asOf) {
			t.TotalIncome = t.TotalIncome.Add(in.Amount)
		}
	}
	for _, e := range expenses {
		if !inWindow(e.Date, asOf) {
			continue
		}
		t.TotalExpenses = t.TotalExpenses.Add(e.Amount)
		switch e.Kind {
		case Need:
			t.NeedsSpent = t.NeedsSpent.Add(e.Amount)
		case Want:
			t.WantsSpent = t.WantsSpent.Add(e.Amount)
		}
	}
	for _, d := range debts {
		t.MinDebtPayments = t.MinDebtPayments.Add(d.MinPayment)
	}
	return t
}

// ComputeStatus derives the headline budget indicators. SafeToSpend may be
// negative, signalling overspending. A zero MonthlyMinIncome substitutes one
// currency unit as the EmergencyMonths divisor and sets IncomeUnset instead of
// failing on a division by zero.
func ComputeStatus(totals MonthlyTotals, profile BudgetProfile) BudgetStatus {
	status := BudgetStatus{
		SafeToSpend: profile.MonthlyMinIncome.Sub(totals.TotalExpenses).Sub(totals.MinDebtPayments),
		NeedsCap:    Money{Cents: profile.MonthlyMinIncome.Cents * 50 / 100},
		WantsCap:    Money{Cents: profile.MonthlyMinIncome.Cents * 30 / 100},
	}

	if over := totals.TotalExpenses.Sub(totals.TotalIncome); over.Cents > 0 {
		status.Shortfall = over
	}

	divisor := profile.MonthlyMinIncome.Cents
	if divisor == 0 {
		divisor = 100 // one currency unit
		status.IncomeUnset = true
	}
	ratio := float64(profile.CurrentEmergency.Cents) / float64(divisor)
	status.EmergencyMonths = math.Round(ratio*10) / 10

	return status
}

// ComputeAdvisories evaluates the advisory conditions in order. Conditions are
// independent and do not short-circuit; on-track is emitted only when none of
// the four fired.
func ComputeAdvisories(totals MonthlyTotals, status BudgetStatus, profile BudgetProfile) []Advisory {
	var out []Advisory

	if totals.TotalExpenses.Cents > totals.TotalIncome.Cents {
		overage := totals.TotalExpenses.Sub(totals.TotalIncome)
		daily := ceilDivUnits(overage, 7)
		out = append(out, Advisory{
			Code:     AdviceOverspending,
			Severity: SeverityCritical,
			Message:  fmt.Sprintf("Spending exceeds income by $%d this month. Cut $%d per day to break even.", roundUnits(overage), daily),
			Amount:   roundUnits(overage),
			Target:   daily,
		})
	}

	halfIncome := Money{Cents: profile.MonthlyMinIncome.Cents * 50 / 100}
	if profile.CurrentEmergency.Cents < halfIncome.Cents {
		short := halfIncome.Sub(profile.CurrentEmergency)
		weekly := ceilDivUnits(short, 4)
		out = append(out, Advisory{
			Code:     AdviceEmergencyFund,
			Severity: SeverityWarning,
			Message:  fmt.Sprintf("Emergency fund is $%d short of a one-month safety net. Save $%d per week.", roundUnits(short), weekly),
			Amount:   roundUnits(short),
			Target:   weekly,
		})
	}

	if totals.NeedsSpent.Cents > status.NeedsCap.Cents {
		over := totals.NeedsSpent.Sub(status.NeedsCap)
		out = append(out, Advisory{
			Code:     AdviceCutNeeds,
			Severity: SeverityCritical,
			Message:  fmt.Sprintf("Essential spending is $%d over the needs budget.", roundUnits(over)),
			Amount:   roundUnits(over),
		})
	}

	if totals.WantsSpent.Cents > status.WantsCap.Cents {
		over := totals.WantsSpent.Sub(status.WantsCap)
		out = append(out, Advisory{
			Code:     AdviceCutWants,
			Severity: SeverityWarning,
			Message:  fmt.Sprintf("Discretionary spending is $%d over the wants budget.", roundUnits(over)),
			Amount:   roundUnits(over),
		})
	}

	if len(out) == 0 {
		out = append(out, Advisory{
			Code:     AdviceOnTrack,
			Severity: SeverityInfo,
			Message:  "Budget on track. Focus on growing the emergency fund.",
		})
	}

	return out
}

// ComputeDailyAllowances derives daily and weekly guidance figures in whole
// currency units. Values may be negative; a negative daily wants allowance
// means no discretionary spending is left this month.
func ComputeDailyAllowances(totals MonthlyTotals, status BudgetStatus) DailyAllowances {
	return DailyAllowances{
		DailyWants:    roundUnitsDiv(status.WantsCap.Sub(totals.WantsSpent), 30),
		DailyNeeds:    roundUnitsDiv(status.NeedsCap.Sub(totals.NeedsSpent), 30),
		WeeklySavings: roundUnitsDiv(status.SafeToSpend, 7),
	}
}

// CheckAffordability evaluates a hypothetical purchase against the current
// safe-to-spend amount. The comparison is exact on cents; no rounding.
func CheckAffordability(proposed Money, status BudgetStatus) (AffordabilityCheck, error) {
	if proposed.Cents < 0 {
		return AffordabilityCheck{}, fmt.Errorf("proposed amount must be non-negative: %w", ErrInvalidInput)
	}
	return AffordabilityCheck{
		Affordable:             proposed.Cents <= status.SafeToSpend.Cents,
		ProposedAmount:         proposed,
		SafeToSpend:            status.SafeToSpend,
		RemainingAfterPurchase: status.SafeToSpend.Sub(proposed),
	}, nil
}

// roundUnits rounds a cent amount to the nearest whole currency unit.
func roundUnits(m Money) int64 {
	return int64(math.Round(float64(m.Cents) / 100.0))
}

// roundUnitsDiv divides a cent amount by n and rounds to whole units.
func roundUnitsDiv(m Money, n int64) int64 {
	return int64(math.Round(float64(m.Cents) / 100.0 / float64(n)))
}

// ceilDivUnits divides a non-negative cent amount by n, rounding up to whole
// units.
func ceilDivUnits(m Money, n int64) int64 {
	d := n * 100
	return (m.Cents + d - 1) / d
}
