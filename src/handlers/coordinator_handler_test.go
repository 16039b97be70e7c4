package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Grupo-LOROs/ComisionadorERA/src/models"
	"github.com/Grupo-LOROs/ComisionadorERA/src/processors"
	"github.com/stretchr/testify/require"
)

func TestCoordinatorHandlerAddAndList(t *testing.T) {
	h := NewCoordinatorHandler(processors.NewCoordinatorCalculator())

	body := `{"hire_date":"2024-01-01","period_date":"2026-01-31","monthly_collected":"400,000.00","monthly_gross_profit":"1000.10"}`
	rec := httptest.NewRecorder()
	h.HandleAddEntry(rec, httptest.NewRequest(http.MethodPost, "/api/coordinator/entries", strings.NewReader(body)))
	require.Equal(t, http.StatusOK, rec.Code)

	var added struct {
		Entry        models.CoordinatorEntry `json:"entry"`
		RunningTotal float64                 `json:"running_total"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &added))
	require.Equal(t, 55.01, added.Entry.AdvisorCommission)
	require.Equal(t, 16.50, added.Entry.CoordinatorCommission)
	require.Equal(t, 16.50, added.RunningTotal)

	rec = httptest.NewRecorder()
	h.HandleListEntries(rec, httptest.NewRequest(http.MethodGet, "/api/coordinator/entries", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var listed struct {
		Entries      []models.CoordinatorEntry `json:"entries"`
		RunningTotal float64                   `json:"running_total"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	require.Len(t, listed.Entries, 1)

	rec = httptest.NewRecorder()
	h.HandleClear(rec, httptest.NewRequest(http.MethodDelete, "/api/coordinator/entries", nil))
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	h.HandleListEntries(rec, httptest.NewRequest(http.MethodGet, "/api/coordinator/entries", nil))
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	require.Empty(t, listed.Entries)
	require.Equal(t, 0.0, listed.RunningTotal)
}

func TestCoordinatorHandlerRejectsBadInput(t *testing.T) {
	h := NewCoordinatorHandler(processors.NewCoordinatorCalculator())

	cases := []string{
		`{"hire_date":"01/01/2024","period_date":"2026-01-31","monthly_collected":"1000","monthly_gross_profit":"1000"}`,
		`{"hire_date":"2024-01-01","period_date":"2026-01-31","monthly_collected":"mil","monthly_gross_profit":"1000"}`,
		`not json`,
	}
	for _, body := range cases {
		rec := httptest.NewRecorder()
		h.HandleAddEntry(rec, httptest.NewRequest(http.MethodPost, "/api/coordinator/entries", strings.NewReader(body)))
		require.Equal(t, http.StatusBadRequest, rec.Code, "body %s", body)
	}
}
