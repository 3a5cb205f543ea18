package ledger

import (
	"context"

	"github.com/erp/ledger/internal/domain/ledger"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/domain/shared/valueobject"
	"github.com/erp/ledger/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// OpeningBalanceService validates onboarding balances and regenerates the opening entry
type OpeningBalanceService struct {
	scope  TransactionScope
	opts   options
	logger *zap.Logger
}

// NewOpeningBalanceService creates a new OpeningBalanceService
func NewOpeningBalanceService(scope TransactionScope, logger *zap.Logger, opts ...Option) *OpeningBalanceService {
	return &OpeningBalanceService{
		scope:  scope,
		opts:   buildOptions(opts),
		logger: logger,
	}
}

// Validate checks that assets equal liabilities plus equity within one cent.
// The report is returned alongside ErrUnbalancedOpeningBalance when they differ.
func (s *OpeningBalanceService) Validate(req OpeningBalanceRequest) (*OpeningBalanceValidationResponse, error) {
	balances, err := ledger.ParseOpeningBalances(req.Balances)
	if err != nil {
		return nil, err
	}
	assets, liabilities := balances.Totals()
	report := &OpeningBalanceValidationResponse{
		TotalAssets:               assets,
		TotalLiabilitiesAndEquity: liabilities,
		Difference:                valueobject.RoundCents(assets.Sub(liabilities)),
		Balanced:                  valueobject.Balanced(assets, liabilities),
	}
	if err := ledger.ValidateOpeningBalances(balances); err != nil {
		return report, err
	}
	return report, nil
}

// Reinitialize replaces every opening-balance entry of the tenant in one transaction:
// the country chart is seeded, old opening entries are deleted and the new plan is posted.
// With EnforceOpeningBalanceCheck the balances must balance before anything is written.
func (s *OpeningBalanceService) Reinitialize(ctx context.Context, tenantID uuid.UUID, req OpeningBalanceRequest) (*OpeningBalanceResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "opening_balance", "reinitialize",
		telemetry.WithAttribute("tenant_id", tenantID.String()),
	)
	defer span.End()

	balances, err := ledger.ParseOpeningBalances(req.Balances)
	if err != nil {
		return nil, err
	}
	if s.opts.cfg.EnforceOpeningBalanceCheck {
		if err := ledger.ValidateOpeningBalances(balances); err != nil {
			return nil, err
		}
	}

	country := s.opts.cfg.DefaultCountry
	if req.Country != "" {
		country = ledger.ParseCountry(req.Country)
	}
	asOf := s.opts.now()
	if req.AsOf != nil {
		asOf = *req.AsOf
	}
	plan := ledger.PlanOpeningEntries(country, balances, asOf)

	resp := &OpeningBalanceResponse{Country: string(plan.Country)}
	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		chart := ledger.NewChartOfAccounts(repos.Accounts(), repos.Entries())
		if _, err := chart.SeedCountryChart(ctx, tenantID, plan.Country); err != nil {
			return err
		}

		removed, err := repos.Entries().DeleteBySource(ctx, tenantID, ledger.SourceOpeningBalance)
		if err != nil {
			return shared.WrapStoreError("delete opening entries", err)
		}
		resp.RemovedEntries = removed

		if plan.IsEmpty() {
			return nil
		}
		journal := ledger.NewJournalLedger(repos.Accounts(), repos.Entries(), ledger.WithClock(s.opts.now))
		ref, err := journal.PostEntries(ctx, tenantID, plan.Request)
		if err != nil {
			return err
		}
		resp.EntryRef = ref

		written, err := repos.Entries().Query(ctx, tenantID, ledger.EntryFilter{SourceType: ledger.SourceOpeningBalance})
		if err != nil {
			return shared.WrapStoreError("read opening entries", err)
		}
		resp.Entries = toJournalEntryResponses(written)
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		s.logger.Error("opening balance reinitialization failed",
			zap.String("tenant_id", tenantID.String()),
			zap.String("country", string(plan.Country)),
			zap.Error(err),
		)
		return nil, err
	}
	if resp.Entries == nil {
		resp.Entries = []JournalEntryResponse{}
	}

	s.logger.Info("opening balances reinitialized",
		zap.String("tenant_id", tenantID.String()),
		zap.String("country", resp.Country),
		zap.String("entry_ref", resp.EntryRef),
		zap.Int64("removed", resp.RemovedEntries),
		zap.Int("written", len(resp.Entries)),
	)
	return resp, nil
}
