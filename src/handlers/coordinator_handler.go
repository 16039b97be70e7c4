package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Grupo-LOROs/ComisionadorERA/src/processors"
	"github.com/Grupo-LOROs/ComisionadorERA/src/utils"
)

type CoordinatorHandler struct {
	calculator *processors.CoordinatorCalculator
}

func NewCoordinatorHandler(calculator *processors.CoordinatorCalculator) *CoordinatorHandler {
	return &CoordinatorHandler{calculator: calculator}
}

type coordinatorEntryDTO struct {
	HireDate           string `json:"hire_date"`
	PeriodDate         string `json:"period_date"`
	MonthlyCollected   string `json:"monthly_collected"`
	MonthlyGrossProfit string `json:"monthly_gross_profit"`
}

// HandleAddEntry computes one coordinator commission entry and appends it to
// the session list.
func (h *CoordinatorHandler) HandleAddEntry(w http.ResponseWriter, r *http.Request) {
	var dto coordinatorEntryDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		utils.SendJSONError(w, fmt.Sprintf("invalid entry request: %v", err), http.StatusBadRequest)
		return
	}

	hire, err := time.Parse(requestDateFormat, dto.HireDate)
	if err != nil {
		utils.SendJSONError(w, fmt.Sprintf("invalid hire_date %q", dto.HireDate), http.StatusBadRequest)
		return
	}
	period, err := time.Parse(requestDateFormat, dto.PeriodDate)
	if err != nil {
		utils.SendJSONError(w, fmt.Sprintf("invalid period_date %q", dto.PeriodDate), http.StatusBadRequest)
		return
	}

	entry, err := h.calculator.AddFromStrings(hire, period, dto.MonthlyCollected, dto.MonthlyGrossProfit)
	if err != nil {
		if errors.Is(err, processors.ErrNumericParse) {
			utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}
		utils.SendJSONError(w, "an internal error occurred; please try again", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"entry":         entry,
		"running_total": h.calculator.RunningTotal(),
	})
}

// HandleListEntries returns the session's entries plus the running total.
func (h *CoordinatorHandler) HandleListEntries(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"entries":       h.calculator.Entries(),
		"running_total": h.calculator.RunningTotal(),
	})
}

// HandleClear drops all entries and resets the running total.
func (h *CoordinatorHandler) HandleClear(w http.ResponseWriter, r *http.Request) {
	h.calculator.Clear()
	w.WriteHeader(http.StatusNoContent)
}
