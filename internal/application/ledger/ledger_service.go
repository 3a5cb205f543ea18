package ledger

import (
	"context"
	"strings"
	"time"

	"github.com/erp/ledger/internal/domain/ledger"
	"github.com/erp/ledger/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Config holds the ledger settings the application services depend on
type Config struct {
	DefaultCountry             ledger.Country
	DefaultEntryLimit          int
	EnforceOpeningBalanceCheck bool
}

// DefaultConfig returns the settings used when none are configured
func DefaultConfig() Config {
	return Config{
		DefaultCountry:             ledger.DefaultCountry,
		DefaultEntryLimit:          ledger.DefaultQueryLimit,
		EnforceOpeningBalanceCheck: true,
	}
}

// Option configures the ledger application services
type Option func(*options)

type options struct {
	cfg     Config
	metrics Metrics
	now     func() time.Time
}

// WithConfig sets the ledger settings
func WithConfig(cfg Config) Option {
	return func(o *options) {
		o.cfg = cfg
	}
}

// WithMetrics sets the metrics recorder
func WithMetrics(m Metrics) Option {
	return func(o *options) {
		if m != nil {
			o.metrics = m
		}
	}
}

// WithClock overrides the clock used for date defaults
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

func buildOptions(opts []Option) options {
	o := options{cfg: DefaultConfig(), metrics: noopMetrics{}, now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if o.cfg.DefaultEntryLimit <= 0 {
		o.cfg.DefaultEntryLimit = ledger.DefaultQueryLimit
	}
	if !o.cfg.DefaultCountry.IsValid() {
		o.cfg.DefaultCountry = ledger.DefaultCountry
	}
	return o
}

// LedgerService exposes the chart of accounts, journal posting and trial balance
type LedgerService struct {
	chart   *ledger.ChartOfAccounts
	journal *ledger.JournalLedger
	trial   *ledger.TrialBalanceAggregator
	opts    options
	logger  *zap.Logger
}

// NewLedgerService creates a new LedgerService
func NewLedgerService(
	accounts ledger.AccountRepository,
	entries ledger.EntryRepository,
	logger *zap.Logger,
	opts ...Option,
) *LedgerService {
	o := buildOptions(opts)
	return &LedgerService{
		chart:   ledger.NewChartOfAccounts(accounts, entries),
		journal: ledger.NewJournalLedger(accounts, entries, ledger.WithClock(o.now)),
		trial:   ledger.NewTrialBalanceAggregator(accounts, entries),
		opts:    o,
		logger:  logger,
	}
}

// ListAccounts returns the tenant's accounts ordered by code
func (s *LedgerService) ListAccounts(ctx context.Context, tenantID uuid.UUID, q ListAccountsQuery) ([]AccountResponse, error) {
	filter := ledger.AccountFilter{}
	if q.Category != "" {
		filter.Category = ledger.Category(strings.ToLower(q.Category))
		if !filter.Category.IsValid() {
			return nil, ledger.ErrInvalidAccount.Withf("unknown category %q", q.Category)
		}
	}
	if q.Country != "" {
		filter.Country = ledger.Country(strings.ToUpper(q.Country))
		if !filter.Country.IsValid() {
			return nil, ledger.ErrInvalidAccount.Withf("unknown country %q", q.Country)
		}
	}

	accounts, err := s.chart.ListAccounts(ctx, tenantID, filter)
	if err != nil {
		return nil, err
	}
	out := make([]AccountResponse, len(accounts))
	for i := range accounts {
		out[i] = ToAccountResponse(&accounts[i])
	}
	return out, nil
}

// UpsertAccount creates an account, or updates name and category when AllowUpdate is set
func (s *LedgerService) UpsertAccount(ctx context.Context, tenantID uuid.UUID, req UpsertAccountRequest) (*AccountResponse, error) {
	country := ledger.Country(strings.ToUpper(req.Country))
	if req.Country == "" {
		country = s.opts.cfg.DefaultCountry
	}
	account, err := s.chart.UpsertAccount(ctx, tenantID, ledger.AccountInput{
		Code:     strings.TrimSpace(req.Code),
		Name:     req.Name,
		Category: ledger.Category(strings.ToLower(req.Category)),
		Country:  country,
	}, req.AllowUpdate)
	if err != nil {
		return nil, err
	}

	s.logger.Info("account saved",
		zap.String("tenant_id", tenantID.String()),
		zap.String("code", account.Code),
		zap.String("country", string(account.Country)),
	)
	resp := ToAccountResponse(account)
	return &resp, nil
}

// DeleteAccount removes an account that no journal entry references
func (s *LedgerService) DeleteAccount(ctx context.Context, tenantID uuid.UUID, country, code string) error {
	c := ledger.Country(strings.ToUpper(country))
	if country == "" {
		c = s.opts.cfg.DefaultCountry
	}
	if err := s.chart.DeleteAccount(ctx, tenantID, c, code); err != nil {
		return err
	}
	s.logger.Info("account deleted",
		zap.String("tenant_id", tenantID.String()),
		zap.String("code", code),
		zap.String("country", string(c)),
	)
	return nil
}

// PostEntries posts a balanced set of lines and returns the shared entry reference
func (s *LedgerService) PostEntries(ctx context.Context, tenantID uuid.UUID, req PostEntriesRequest) (*PostEntriesResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "journal_ledger", "post",
		telemetry.WithAttribute("journal", req.Journal),
		telemetry.WithAttribute("lines", len(req.Lines)),
	)
	defer span.End()

	posting := ledger.PostingRequest{
		Journal:    ledger.Journal(strings.ToUpper(req.Journal)),
		SourceType: ledger.SourceType(req.SourceType),
		SourceID:   req.SourceID,
		EntryRef:   strings.TrimSpace(req.EntryRef),
		Lines:      make([]ledger.EntryLine, len(req.Lines)),
	}
	if posting.SourceType == "" {
		posting.SourceType = ledger.SourceManual
	}
	if req.TransactionDate != nil {
		posting.TransactionDate = *req.TransactionDate
	}
	for i, l := range req.Lines {
		posting.Lines[i] = ledger.EntryLine{
			AccountCode: strings.TrimSpace(l.AccountCode),
			Debit:       l.Debit,
			Credit:      l.Credit,
			Description: l.Description,
		}
	}

	ref, err := s.journal.PostEntries(ctx, tenantID, posting)
	s.opts.metrics.ObservePosting(string(posting.Journal), len(posting.Lines), err)
	if err != nil {
		telemetry.RecordError(span, err)
		s.logger.Warn("journal posting rejected",
			zap.String("tenant_id", tenantID.String()),
			zap.String("journal", string(posting.Journal)),
			zap.Error(err),
		)
		return nil, err
	}

	telemetry.SetAttribute(span, "entry_ref", ref)
	s.logger.Info("journal entries posted",
		zap.String("tenant_id", tenantID.String()),
		zap.String("entry_ref", ref),
		zap.Int("lines", len(posting.Lines)),
	)
	return &PostEntriesResponse{EntryRef: ref, Lines: len(posting.Lines)}, nil
}

// ListEntries returns journal lines; the range defaults to the current calendar year
func (s *LedgerService) ListEntries(ctx context.Context, tenantID uuid.UUID, q ListEntriesQuery) ([]JournalEntryResponse, error) {
	from, to := s.yearRange(q.From, q.To)
	limit := q.Limit
	if limit <= 0 {
		limit = s.opts.cfg.DefaultEntryLimit
	}
	entries, err := s.journal.QueryEntries(ctx, tenantID, ledger.EntryFilter{
		From:        &from,
		To:          &to,
		AccountCode: strings.TrimSpace(q.AccountCode),
		Journal:     ledger.Journal(strings.ToUpper(q.Journal)),
		SourceType:  ledger.SourceType(q.SourceType),
		Limit:       limit,
		Descending:  q.Descending,
	})
	if err != nil {
		return nil, err
	}
	return toJournalEntryResponses(entries), nil
}

// TrialBalance computes the trial balance at the cutoff; nil means today
func (s *LedgerService) TrialBalance(ctx context.Context, tenantID uuid.UUID, cutoff *time.Time) (*ledger.TrialBalance, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "trial_balance", "compute")
	defer span.End()

	day := s.opts.now()
	if cutoff != nil {
		day = *cutoff
	}
	tb, err := s.trial.Compute(ctx, tenantID, day)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttributes(span, "accounts", len(tb.Accounts), "balanced", tb.Balanced)
	if !tb.Balanced {
		s.logger.Warn("trial balance does not balance",
			zap.String("tenant_id", tenantID.String()),
			zap.String("difference", tb.Difference().StringFixed(2)),
		)
	}
	return tb, nil
}

// ComputeTrialBalance returns the trial balance as a response DTO
func (s *LedgerService) ComputeTrialBalance(ctx context.Context, tenantID uuid.UUID, cutoff *time.Time) (*TrialBalanceResponse, error) {
	tb, err := s.TrialBalance(ctx, tenantID, cutoff)
	if err != nil {
		return nil, err
	}
	return ToTrialBalanceResponse(tb), nil
}

// yearRange fills a missing bound from the current calendar year
func (s *LedgerService) yearRange(from, to *time.Time) (time.Time, time.Time) {
	return defaultRange(s.opts.now(), from, to)
}

func defaultRange(now time.Time, from, to *time.Time) (time.Time, time.Time) {
	year := now.Year()
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)
	if from != nil {
		start = ledger.TruncateDay(*from)
	}
	if to != nil {
		end = ledger.TruncateDay(*to)
	}
	return start, end
}
