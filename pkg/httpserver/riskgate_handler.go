package httpserver

import (
	"encoding/json"
	"net/http"

	"github.com/arbit-labs/clobarb/internal/circuitbreaker"
)

// RiskGateHandler exposes the risk gate's current state for operator dashboards.
type RiskGateHandler struct {
	breaker *circuitbreaker.Breaker
}

// NewRiskGateHandler builds a RiskGateHandler.
func NewRiskGateHandler(breaker *circuitbreaker.Breaker) *RiskGateHandler {
	return &RiskGateHandler{breaker: breaker}
}

type riskGateStatus struct {
	Tripped           bool   `json:"tripped"`
	OpenPositions     uint32 `json:"open_positions"`
	ConsecutiveErrors uint32 `json:"consecutive_errors"`
	DailyLossCents    uint64 `json:"daily_loss_cents"`
	CanExecute        bool   `json:"can_execute"`
}

// HandleStatus writes the risk gate's state as JSON.
func (h *RiskGateHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	status := riskGateStatus{
		Tripped:           h.breaker.IsTripped(),
		OpenPositions:     h.breaker.OpenPositions(),
		ConsecutiveErrors: h.breaker.ConsecutiveErrors(),
		DailyLossCents:    h.breaker.DailyLossCents(),
		CanExecute:        h.breaker.CanExecute(),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(status); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
