package http

import (
	"log/slog"
	"net/http"

	"github.com/faloosh2002/financial-control-platform/internal/core"
)

type affordabilityRequest struct {
	Amount core.Money `json:"amount"`
}

// handleDashboard returns the full budget analysis as of the asof query
// parameter (default: today).
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	asOf, err := parseAsOf(r)
	if err != nil {
		writeError(w, err)
		return
	}

	dash, err := s.ledger.BuildDashboard(r.Context(), userIDFrom(r), asOf)
	if err != nil {
		slog.ErrorContext(r.Context(), "Dashboard build failed", "error", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dash)
}

// handleAffordability evaluates a hypothetical purchase without recording it.
func (s *Server) handleAffordability(w http.ResponseWriter, r *http.Request) {
	var req affordabilityRequest
	if err := decodeJSON(r, &req); err != nil {
		handleDecodeError(w, err)
		return
	}

	asOf, err := parseAsOf(r)
	if err != nil {
		writeError(w, err)
		return
	}

	check, err := s.ledger.CheckAffordability(r.Context(), userIDFrom(r), req.Amount, asOf)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, check)
}
