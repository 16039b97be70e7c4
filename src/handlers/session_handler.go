package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/Grupo-LOROs/ComisionadorERA/src/config"
	"github.com/Grupo-LOROs/ComisionadorERA/src/logger"
	"github.com/Grupo-LOROs/ComisionadorERA/src/parsers"
	"github.com/Grupo-LOROs/ComisionadorERA/src/processors"
	"github.com/Grupo-LOROs/ComisionadorERA/src/reports"
	"github.com/Grupo-LOROs/ComisionadorERA/src/services"
	"github.com/Grupo-LOROs/ComisionadorERA/src/utils"
)

const requestDateFormat = "2006-01-02"

// Page sizes offered on the detail endpoint.
var pageSizes = map[int]bool{50: true, 100: true, 200: true, 500: true, 1000: true}

type SessionHandler struct {
	service services.SessionService
}

func NewSessionHandler(service services.SessionService) *SessionHandler {
	return &SessionHandler{service: service}
}

// HandleUploadSchema receives the rule workbook as a multipart upload and
// loads it into the session.
func (h *SessionHandler) HandleUploadSchema(w http.ResponseWriter, r *http.Request) {
	path, cleanup, err := h.receiveWorkbook(w, r)
	if err != nil {
		return // receiveWorkbook already responded
	}
	defer cleanup()

	rules, err := h.service.LoadSchema(r.Context(), path)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"brackets":      len(rules.Brackets),
		"products":      len(rules.Prices),
		"advisor_types": len(rules.AdvisorTypes),
	})
}

// HandleUploadTransactions receives the transaction workbook, runs the
// valid-order extraction and the filter pipeline, and responds with the
// dataset audit.
func (h *SessionHandler) HandleUploadTransactions(w http.ResponseWriter, r *http.Request) {
	path, cleanup, err := h.receiveWorkbook(w, r)
	if err != nil {
		return
	}
	defer cleanup()

	dataset, err := h.service.LoadTransactions(r.Context(), path)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	dates := dataset.Dates()
	dateStrings := make([]string, len(dates))
	for i, d := range dates {
		dateStrings[i] = d.Format(requestDateFormat)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"audit": dataset.Audit,
		"dates": dateStrings,
	})
}

type processRequestDTO struct {
	FilterByDate bool   `json:"filter_by_date"`
	DateStart    string `json:"date_start"`
	DateEnd      string `json:"date_end"`
	CompareByNet *bool  `json:"compare_by_net"`
	IncludeType  bool   `json:"include_type"`
}

// HandleProcess runs the commission engine over the loaded dataset.
func (h *SessionHandler) HandleProcess(w http.ResponseWriter, r *http.Request) {
	var dto processRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		utils.SendJSONError(w, fmt.Sprintf("invalid process request: %v", err), http.StatusBadRequest)
		return
	}

	req := services.ProcessRequest{
		FilterByDate: dto.FilterByDate,
		CompareByNet: true, // net comparison is the default, as in the scheme
		IncludeType:  dto.IncludeType,
	}
	if dto.CompareByNet != nil {
		req.CompareByNet = *dto.CompareByNet
	}
	if dto.FilterByDate {
		var err error
		if req.DateStart, err = time.Parse(requestDateFormat, dto.DateStart); err != nil {
			utils.SendJSONError(w, fmt.Sprintf("invalid date_start %q", dto.DateStart), http.StatusBadRequest)
			return
		}
		if req.DateEnd, err = time.Parse(requestDateFormat, dto.DateEnd); err != nil {
			utils.SendJSONError(w, fmt.Sprintf("invalid date_end %q", dto.DateEnd), http.StatusBadRequest)
			return
		}
	}

	session, err := h.service.Process(r.Context(), req)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"rows":    len(session.Result.Rows),
		"summary": session.Summary,
	})
}

// HandleGetDetail returns one page of the computed detail rows.
func (h *SessionHandler) HandleGetDetail(w http.ResponseWriter, r *http.Request) {
	session := h.service.Current()
	if session.Result == nil {
		respondServiceError(w, services.ErrNoResult)
		return
	}

	pageSize := config.Cfg.DefaultPageSize
	if v := r.URL.Query().Get("page_size"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && pageSizes[n] {
			pageSize = n
		}
	}
	page := 1
	if v := r.URL.Query().Get("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			page = n
		}
	}

	rows := session.Result.Rows
	totalPages := (len(rows) + pageSize - 1) / pageSize
	if totalPages == 0 {
		totalPages = 1
	}
	if page > totalPages {
		page = totalPages
	}
	start := (page - 1) * pageSize
	end := start + pageSize
	if end > len(rows) {
		end = len(rows)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"page":        page,
		"page_size":   pageSize,
		"total_rows":  len(rows),
		"total_pages": totalPages,
		"rows":        rows[start:end],
	})
}

// HandleGetSummary returns the payout summary with ETag support.
func (h *SessionHandler) HandleGetSummary(w http.ResponseWriter, r *http.Request) {
	session := h.service.Current()
	if session.Summary == nil {
		respondServiceError(w, services.ErrNoResult)
		return
	}

	w.Header().Set("Cache-Control", "no-cache, private")
	if etag, err := utils.GenerateETag(session.Summary); err == nil {
		quoted := fmt.Sprintf("%q", etag)
		w.Header().Set("ETag", quoted)
		for _, clientETag := range strings.Split(r.Header.Get("If-None-Match"), ",") {
			if strings.TrimSpace(clientETag) == quoted {
				w.WriteHeader(http.StatusNotModified)
				return
			}
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(session.Summary)
}

// HandleGetAudit returns the current dataset's diagnostic counters.
func (h *SessionHandler) HandleGetAudit(w http.ResponseWriter, r *http.Request) {
	session := h.service.Current()
	if session.Dataset == nil {
		respondServiceError(w, services.ErrNoDataset)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(session.Dataset.Audit)
}

type exportRequestDTO struct {
	DateStart   string `json:"date_start"`
	DateEnd     string `json:"date_end"`
	PaymentDate string `json:"payment_date"`
	IncludeType bool   `json:"include_type"`
}

// HandleExportCoverSheet renders and returns the payout cover-sheet PDF.
func (h *SessionHandler) HandleExportCoverSheet(w http.ResponseWriter, r *http.Request) {
	var dto exportRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		utils.SendJSONError(w, fmt.Sprintf("invalid export request: %v", err), http.StatusBadRequest)
		return
	}

	params := reports.CoverSheetParams{IncludeType: dto.IncludeType}
	var err error
	if params.DateStart, err = time.Parse(requestDateFormat, dto.DateStart); err != nil {
		utils.SendJSONError(w, fmt.Sprintf("invalid date_start %q", dto.DateStart), http.StatusBadRequest)
		return
	}
	if params.DateEnd, err = time.Parse(requestDateFormat, dto.DateEnd); err != nil {
		utils.SendJSONError(w, fmt.Sprintf("invalid date_end %q", dto.DateEnd), http.StatusBadRequest)
		return
	}
	if params.PaymentDate, err = time.Parse(requestDateFormat, dto.PaymentDate); err != nil {
		utils.SendJSONError(w, fmt.Sprintf("invalid payment_date %q", dto.PaymentDate), http.StatusBadRequest)
		return
	}

	pdfBytes, err := h.service.ExportSummary(r.Context(), params)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="caratula_comisiones.pdf"`)
	w.Write(pdfBytes)
}

// receiveWorkbook stores the uploaded workbook in a temp file and returns its
// path plus a cleanup func. On error it has already written the response.
func (h *SessionHandler) receiveWorkbook(w http.ResponseWriter, r *http.Request) (string, func(), error) {
	if err := r.ParseMultipartForm(config.Cfg.MaxUploadSizeBytes); err != nil {
		logger.L.Warn("Failed to parse multipart form or request too large", "error", err, "limit", config.Cfg.MaxUploadSizeBytes)
		utils.SendJSONError(w, fmt.Sprintf("failed to parse form or request too large (max %d MB)", config.Cfg.MaxUploadSizeBytes/(1024*1024)), http.StatusBadRequest)
		return "", nil, err
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		logger.L.Warn("Failed to retrieve file from request", "error", err)
		utils.SendJSONError(w, "failed to retrieve file from request; ensure the 'file' field is used", http.StatusBadRequest)
		return "", nil, err
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	if ext != ".xlsx" && ext != ".xlsm" {
		err := fmt.Errorf("unsupported file extension %q", ext)
		utils.SendJSONError(w, "only .xlsx/.xlsm workbooks are supported", http.StatusBadRequest)
		return "", nil, err
	}

	tmp, err := os.CreateTemp("", "comisionador-*"+ext)
	if err != nil {
		logger.L.Error("Failed to create temp file for upload", "error", err)
		utils.SendJSONError(w, "internal error storing the upload", http.StatusInternalServerError)
		return "", nil, err
	}
	if _, err := io.Copy(tmp, file); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		logger.L.Error("Failed to store uploaded workbook", "error", err)
		utils.SendJSONError(w, "internal error storing the upload", http.StatusInternalServerError)
		return "", nil, err
	}
	tmp.Close()

	logger.L.Info("Workbook upload received", "filename", fileHeader.Filename, "bytes", fileHeader.Size)
	return tmp.Name(), func() { os.Remove(tmp.Name()) }, nil
}

// respondServiceError maps core errors onto HTTP responses.
func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrBusy):
		utils.SendJSONError(w, err.Error(), http.StatusConflict)
	case errors.Is(err, services.ErrNoRuleSet),
		errors.Is(err, services.ErrNoDataset),
		errors.Is(err, services.ErrNoResult):
		utils.SendJSONError(w, err.Error(), http.StatusConflict)
	case errors.Is(err, parsers.ErrSchemaFileMissing),
		errors.Is(err, parsers.ErrSchemaLayout),
		errors.Is(err, parsers.ErrSheetNotFound),
		errors.Is(err, parsers.ErrHeaderNotFound),
		errors.Is(err, parsers.ErrEmptyAfterFiltering),
		errors.Is(err, processors.ErrEmptyAfterDateFilter),
		errors.Is(err, services.ErrNoValidOrders):
		utils.SendJSONError(w, err.Error(), http.StatusUnprocessableEntity)
	default:
		logger.L.Error("Internal error handling request", "error", err)
		utils.SendJSONError(w, "an internal error occurred; please try again", http.StatusInternalServerError)
	}
}
