package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/Grupo-LOROs/ComisionadorERA/src/config"
	"github.com/Grupo-LOROs/ComisionadorERA/src/logger"
	"github.com/Grupo-LOROs/ComisionadorERA/src/models"
	"github.com/Grupo-LOROs/ComisionadorERA/src/reports"
	"github.com/Grupo-LOROs/ComisionadorERA/src/services"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	config.LoadConfig()
	logger.InitLogger("error")
	os.Exit(m.Run())
}

// stubService serves canned session state; every mutating call fails with err.
type stubService struct {
	session *services.Session
	err     error
}

func (s *stubService) LoadSchema(ctx context.Context, path string) (*models.RuleSet, error) {
	return nil, s.err
}

func (s *stubService) LoadTransactions(ctx context.Context, path string) (*models.FilteredDataset, error) {
	return nil, s.err
}

func (s *stubService) Process(ctx context.Context, req services.ProcessRequest) (*services.Session, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.session, nil
}

func (s *stubService) ExportSummary(ctx context.Context, p reports.CoverSheetParams) ([]byte, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []byte("%PDF-stub"), nil
}

func (s *stubService) Current() *services.Session {
	if s.session == nil {
		return &services.Session{}
	}
	return s.session
}

func processedSession(rowCount int) *services.Session {
	rows := make([]models.ComputedRow, rowCount)
	for i := range rows {
		rows[i].Advisor = "Ana Lopez"
		rows[i].LineTotal = 100
		rows[i].LineCommission = 1
	}
	return &services.Session{
		Result:  &models.EngineResult{Rows: rows},
		Summary: []models.AdvisorSummary{{Advisor: "Ana Lopez", TotalSales: 100.0 * float64(rowCount), TotalCommission: float64(rowCount)}},
		Dataset: &models.FilteredDataset{Audit: models.DatasetAudit{RowsAfterFilters: rowCount}},
	}
}

func TestHandleGetDetailPagination(t *testing.T) {
	h := NewSessionHandler(&stubService{session: processedSession(250)})

	req := httptest.NewRequest(http.MethodGet, "/api/detail?page=2&page_size=100", nil)
	rec := httptest.NewRecorder()
	h.HandleGetDetail(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Page       int               `json:"page"`
		PageSize   int               `json:"page_size"`
		TotalRows  int               `json:"total_rows"`
		TotalPages int               `json:"total_pages"`
		Rows       []json.RawMessage `json:"rows"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, 2, body.Page)
	require.Equal(t, 100, body.PageSize)
	require.Equal(t, 250, body.TotalRows)
	require.Equal(t, 3, body.TotalPages)
	require.Len(t, body.Rows, 100)
}

func TestHandleGetDetailClampsPageAndSize(t *testing.T) {
	h := NewSessionHandler(&stubService{session: processedSession(10)})

	// Unknown page size falls back to the default; an out-of-range page is
	// clamped to the last one.
	req := httptest.NewRequest(http.MethodGet, "/api/detail?page=99&page_size=123", nil)
	rec := httptest.NewRecorder()
	h.HandleGetDetail(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Page     int `json:"page"`
		PageSize int `json:"page_size"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, 1, body.Page)
	require.Equal(t, config.Cfg.DefaultPageSize, body.PageSize)
}

func TestHandleGetDetailNoResult(t *testing.T) {
	h := NewSessionHandler(&stubService{})
	rec := httptest.NewRecorder()
	h.HandleGetDetail(rec, httptest.NewRequest(http.MethodGet, "/api/detail", nil))
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestHandleGetSummaryETag(t *testing.T) {
	h := NewSessionHandler(&stubService{session: processedSession(5)})

	rec := httptest.NewRecorder()
	h.HandleGetSummary(rec, httptest.NewRequest(http.MethodGet, "/api/summary", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	etag := rec.Header().Get("ETag")
	require.NotEmpty(t, etag)

	req := httptest.NewRequest(http.MethodGet, "/api/summary", nil)
	req.Header.Set("If-None-Match", etag)
	rec = httptest.NewRecorder()
	h.HandleGetSummary(rec, req)
	require.Equal(t, http.StatusNotModified, rec.Code)
}

func TestHandleProcessErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{services.ErrBusy, http.StatusConflict},
		{services.ErrNoDataset, http.StatusConflict},
		{services.ErrNoValidOrders, http.StatusUnprocessableEntity},
	}
	for _, tc := range cases {
		h := NewSessionHandler(&stubService{err: tc.err})
		req := httptest.NewRequest(http.MethodPost, "/api/process", strings.NewReader(`{"filter_by_date":false}`))
		rec := httptest.NewRecorder()
		h.HandleProcess(rec, req)
		require.Equal(t, tc.want, rec.Code, "error %v", tc.err)
	}
}

func TestHandleProcessRejectsBadDates(t *testing.T) {
	h := NewSessionHandler(&stubService{session: processedSession(1)})
	body := `{"filter_by_date":true,"date_start":"10/01/2026","date_end":"2026-01-31"}`
	rec := httptest.NewRecorder()
	h.HandleProcess(rec, httptest.NewRequest(http.MethodPost, "/api/process", strings.NewReader(body)))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleExportCoverSheet(t *testing.T) {
	h := NewSessionHandler(&stubService{session: processedSession(1)})
	body := `{"date_start":"2026-01-01","date_end":"2026-01-31","payment_date":"2026-02-05"}`
	rec := httptest.NewRecorder()
	h.HandleExportCoverSheet(rec, httptest.NewRequest(http.MethodPost, "/api/export/cover-sheet", strings.NewReader(body)))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	require.True(t, strings.HasPrefix(rec.Body.String(), "%PDF"))
}
