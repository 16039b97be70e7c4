package services

import (
	"context"
	"errors"
	"time"

	"github.com/Grupo-LOROs/ComisionadorERA/src/models"
	"github.com/Grupo-LOROs/ComisionadorERA/src/reports"
)

var (
	// ErrBusy signals that another load/process operation is already in
	// flight for this session.
	ErrBusy = errors.New("an operation is already in progress")

	// ErrNoValidOrders signals an empty valid-order set in the transactions
	// workbook.
	ErrNoValidOrders = errors.New("no valid orders found (both 'ov' and 'cruce' must be populated)")

	// ErrNoRuleSet signals that transactions were loaded before a schema.
	ErrNoRuleSet = errors.New("no rule set loaded; load the schema workbook first")

	// ErrNoDataset signals a process request before any transactions load.
	ErrNoDataset = errors.New("no transaction dataset loaded")

	// ErrNoResult signals an export request before any process run.
	ErrNoResult = errors.New("no processed result available; run process first")
)

// ProcessRequest carries the flags of one engine run.
type ProcessRequest struct {
	FilterByDate bool
	DateStart    time.Time
	DateEnd      time.Time
	CompareByNet bool
	IncludeType  bool
}

// Session is the immutable state of one commissioning session. Every
// successful operation produces a new Session value that replaces the prior
// one wholesale; callers never observe a partially populated session.
type Session struct {
	Rules   *models.RuleSet
	Dataset *models.FilteredDataset
	Result  *models.EngineResult
	Summary []models.AdvisorSummary
}

// SessionService exposes the core operations the presentation shells consume.
// The context is accepted on long operations so cancellation can be added
// without redesign; it is not consulted today.
type SessionService interface {
	LoadSchema(ctx context.Context, path string) (*models.RuleSet, error)
	LoadTransactions(ctx context.Context, path string) (*models.FilteredDataset, error)
	Process(ctx context.Context, req ProcessRequest) (*Session, error)
	ExportSummary(ctx context.Context, p reports.CoverSheetParams) ([]byte, error)
	Current() *Session
}
