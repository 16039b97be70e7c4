package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Grupo-LOROs/ComisionadorERA/src/logger"
	"github.com/Grupo-LOROs/ComisionadorERA/src/models"
	"github.com/Grupo-LOROs/ComisionadorERA/src/parsers"
	"github.com/Grupo-LOROs/ComisionadorERA/src/processors"
	"github.com/Grupo-LOROs/ComisionadorERA/src/reports"
	"github.com/Grupo-LOROs/ComisionadorERA/src/utils"
	"github.com/patrickmn/go-cache"
)

const (
	ckCoverSheet = "cover_sheet_%s"

	DefaultCacheExpiration = 15 * time.Minute
	CacheCleanupInterval   = 30 * time.Minute
)

// Option configures a session service.
type Option func(*sessionServiceImpl)

// WithProgress installs a progress callback invoked during transaction
// filtering (used by the CLI progress bar).
func WithProgress(fn parsers.ProgressFunc) Option {
	return func(s *sessionServiceImpl) { s.progress = fn }
}

type sessionServiceImpl struct {
	schemaParser      *parsers.SchemaParser
	orderParser       *parsers.OrderParser
	transactionParser *parsers.TransactionParser
	engine            *processors.CommissionProcessor
	summarizer        *processors.SummaryProcessor
	exportCache       *cache.Cache
	progress          parsers.ProgressFunc

	mu      sync.Mutex
	busy    bool
	session *Session
}

// NewSessionService wires the parsers and processors behind a single-session
// service. exportCache may be nil to disable PDF caching.
func NewSessionService(exportCache *cache.Cache, opts ...Option) SessionService {
	s := &sessionServiceImpl{
		schemaParser:      parsers.NewSchemaParser(),
		orderParser:       parsers.NewOrderParser(),
		transactionParser: parsers.NewTransactionParser(),
		engine:            processors.NewCommissionProcessor(),
		summarizer:        processors.NewSummaryProcessor(),
		exportCache:       exportCache,
		session:           &Session{},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.transactionParser.Progress = s.progress
	return s
}

// begin marks the single operation slot taken. Only one load/process may be
// in flight per session.
func (s *sessionServiceImpl) begin() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy {
		return ErrBusy
	}
	s.busy = true
	return nil
}

func (s *sessionServiceImpl) end() {
	s.mu.Lock()
	s.busy = false
	s.mu.Unlock()
}

// swap installs a new session value. The handoff is a single assignment; the
// worker owned next exclusively until now.
func (s *sessionServiceImpl) swap(next *Session) {
	s.mu.Lock()
	s.session = next
	s.mu.Unlock()
}

// Current returns the session as of the last completed operation.
func (s *sessionServiceImpl) Current() *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session
}

func (s *sessionServiceImpl) LoadSchema(ctx context.Context, path string) (*models.RuleSet, error) {
	if err := s.begin(); err != nil {
		return nil, err
	}
	defer s.end()

	startedAt := time.Now()
	rules, err := s.schemaParser.Parse(path)
	if err != nil {
		return nil, err
	}

	// A new rule set invalidates any dataset filtered against the old one.
	s.swap(&Session{Rules: rules})
	logger.L.Info("LoadSchema complete", "path", path, "duration", time.Since(startedAt))
	return rules, nil
}

func (s *sessionServiceImpl) LoadTransactions(ctx context.Context, path string) (*models.FilteredDataset, error) {
	if err := s.begin(); err != nil {
		return nil, err
	}
	defer s.end()

	cur := s.Current()
	if cur.Rules == nil {
		return nil, ErrNoRuleSet
	}

	startedAt := time.Now()
	f, err := parsers.OpenWorkbook(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	validOrders, err := s.orderParser.Parse(f)
	if err != nil {
		return nil, err
	}
	if len(validOrders) == 0 {
		return nil, ErrNoValidOrders
	}

	dataset, err := s.transactionParser.Parse(f, cur.Rules.Prices, validOrders)
	if err != nil {
		return nil, err
	}

	// Prior outputs are stale once a new dataset lands; the prior session
	// stays untouched if anything above failed.
	s.swap(&Session{Rules: cur.Rules, Dataset: dataset})
	logger.L.Info("LoadTransactions complete",
		"path", path,
		"rows", dataset.Audit.RowsAfterFilters,
		"duration", time.Since(startedAt))
	return dataset, nil
}

func (s *sessionServiceImpl) Process(ctx context.Context, req ProcessRequest) (*Session, error) {
	if err := s.begin(); err != nil {
		return nil, err
	}
	defer s.end()

	cur := s.Current()
	if cur.Rules == nil {
		return nil, ErrNoRuleSet
	}
	if cur.Dataset == nil {
		return nil, ErrNoDataset
	}

	startedAt := time.Now()
	result, err := s.engine.Process(cur.Dataset, cur.Rules, processors.ProcessOptions{
		FilterByDate: req.FilterByDate,
		DateStart:    req.DateStart,
		DateEnd:      req.DateEnd,
		CompareByNet: req.CompareByNet,
	})
	if err != nil {
		return nil, err
	}
	summary := s.summarizer.Summarize(result, cur.Rules, req.IncludeType)

	next := &Session{Rules: cur.Rules, Dataset: cur.Dataset, Result: result, Summary: summary}
	s.swap(next)
	logger.L.Info("Process complete",
		"rows", len(result.Rows),
		"advisors", len(summary),
		"duration", time.Since(startedAt))
	return next, nil
}

func (s *sessionServiceImpl) ExportSummary(ctx context.Context, p reports.CoverSheetParams) ([]byte, error) {
	cur := s.Current()
	if cur.Result == nil || cur.Summary == nil {
		return nil, ErrNoResult
	}

	// The cover sheet always derives from the stored summary, keyed by its
	// content so stale cache entries are unreachable.
	var cacheKey string
	if s.exportCache != nil {
		etag, err := utils.GenerateETag(struct {
			Summary []models.AdvisorSummary
			Params  reports.CoverSheetParams
		}{cur.Summary, p})
		if err == nil {
			cacheKey = fmt.Sprintf(ckCoverSheet, etag)
			if cached, found := s.exportCache.Get(cacheKey); found {
				logger.L.Debug("Cover sheet cache hit", "key", cacheKey)
				return cached.([]byte), nil
			}
		}
	}

	pdfBytes, err := reports.BuildCoverSheet(cur.Summary, p)
	if err != nil {
		return nil, err
	}
	if s.exportCache != nil && cacheKey != "" {
		s.exportCache.Set(cacheKey, pdfBytes, DefaultCacheExpiration)
	}
	return pdfBytes, nil
}
