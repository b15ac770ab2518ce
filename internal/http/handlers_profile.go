package http

import (
	"log/slog"
	"net/http"

	"github.com/faloosh2002/financial-control-platform/internal/core"
)

type profileDTO struct {
	MonthlyMinIncome core.Money `json:"monthlyMinIncome"`
	EmergencyGoal    core.Money `json:"emergencyGoal"`
	CurrentEmergency core.Money `json:"currentEmergency"`
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := s.ledger.Profile(r.Context(), userIDFrom(r))
	if err != nil {
		slog.ErrorContext(r.Context(), "Get profile failed", "error", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profileDTO{
		MonthlyMinIncome: profile.MonthlyMinIncome,
		EmergencyGoal:    profile.EmergencyGoal,
		CurrentEmergency: profile.CurrentEmergency,
	})
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req profileDTO
	if err := decodeJSON(r, &req); err != nil {
		handleDecodeError(w, err)
		return
	}

	err := s.ledger.UpdateProfile(r.Context(), userIDFrom(r), core.BudgetProfile{
		MonthlyMinIncome: req.MonthlyMinIncome,
		EmergencyGoal:    req.EmergencyGoal,
		CurrentEmergency: req.CurrentEmergency,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}
