package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/wallet-insights/internal/circuitbreaker"
	apperrors "github.com/wallet-insights/internal/errors"
	"github.com/wallet-insights/internal/logging"
	"github.com/wallet-insights/internal/types"
)

// ActivitySource provides stored wallet activity
type ActivitySource interface {
	GetProtocolInteractions(ctx context.Context, address string) ([]types.ProtocolInteraction, error)
	GetChainTransactions(ctx context.Context, address string) (map[types.ChainID][]types.ChainTransaction, error)
	GetWalletTransactions(ctx context.Context, address string, since time.Time) ([]types.WalletTransaction, error)
	GetHoldings(ctx context.Context, address string) ([]types.TokenHolding, error)
}

// ActivitySink stores wallet activity supplied by callers
type ActivitySink interface {
	InsertChainTransactions(ctx context.Context, address string, byChain map[types.ChainID][]types.ChainTransaction) error
	InsertWalletTransactions(ctx context.Context, address string, txs []types.WalletTransaction) error
	ReplaceHoldings(ctx context.Context, address string, holdings []types.TokenHolding) error
}

// InsightsCache caches derived wallet reports
type InsightsCache interface {
	GetInsights(ctx context.Context, address string) (*types.ProtocolInsights, bool, error)
	SetInsights(ctx context.Context, address string, insights *types.ProtocolInsights) error
	GetProfile(ctx context.Context, address string) (*types.SmartMoneyProfile, bool, error)
	SetProfile(ctx context.Context, address string, profile *types.SmartMoneyProfile) error
	InvalidateAddress(ctx context.Context, address string) error
}

// WalletActivityInput is a batch of records to ingest for one wallet
type WalletActivityInput struct {
	ChainTransactions map[types.ChainID][]types.ChainTransaction `json:"chainTransactions"`
	Transactions      []types.WalletTransaction                  `json:"transactions"`
	Holdings          []types.TokenHolding                       `json:"holdings"`
}

// Cohort is a set of profiled wallets and their recent transactions
type Cohort struct {
	Profiles []types.SmartMoneyProfile            `json:"profiles"`
	Recent   map[string][]types.WalletTransaction `json:"recent"`
	Failed   []string                             `json:"failed"`
}

// InsightsService runs the engine over stored wallet activity and caches the results
type InsightsService struct {
	source     ActivitySource
	sink       ActivitySink
	cache      InsightsCache
	aggregator *ActivityAggregator
	profiler   *WalletBehaviorProfiler
	batch      *BatchProfiler
	monitor    *ReportMonitor
	lookback   time.Duration
	logger     *logging.Logger
}

// NewInsightsService creates a new insights service. sink and cache may be nil.
func NewInsightsService(
	source ActivitySource,
	sink ActivitySink,
	cache InsightsCache,
	aggregator *ActivityAggregator,
	profiler *WalletBehaviorProfiler,
	batch *BatchProfiler,
) *InsightsService {
	return &InsightsService{
		source:     source,
		sink:       sink,
		cache:      cache,
		aggregator: aggregator,
		profiler:   profiler,
		batch:      batch,
		monitor:    NewReportMonitor(1000),
		lookback:   30 * 24 * time.Hour,
		logger:     logging.GetGlobalLogger().WithField("component", "insights_service"),
	}
}

// Stats reports cache effectiveness and report build times
func (s *InsightsService) Stats() ReportStats {
	return s.monitor.Stats()
}

// GetInsights returns the protocol insights of a stored wallet
func (s *InsightsService) GetInsights(ctx context.Context, address string) (*types.ProtocolInsights, error) {
	start := time.Now()
	address = strings.ToLower(address)

	if s.cache != nil {
		if cached, found, err := s.cache.GetInsights(ctx, address); err != nil {
			s.logger.WithField("address", address).WithError(err).Warn("insights cache read failed")
		} else if found {
			s.monitor.Record(ReportInsights, time.Since(start), true)
			return cached, nil
		}
	}

	interactions, err := s.source.GetProtocolInteractions(ctx, address)
	if err != nil {
		return nil, storeError("get protocol interactions", err)
	}
	chainTxs, err := s.source.GetChainTransactions(ctx, address)
	if err != nil {
		return nil, storeError("get chain transactions", err)
	}
	if len(interactions) == 0 && len(chainTxs) == 0 {
		return nil, apperrors.NewNotFoundError("wallet activity", address)
	}

	insights := s.aggregator.BuildProtocolInsights(address, interactions, chainTxs)

	if s.cache != nil {
		if err := s.cache.SetInsights(ctx, address, &insights); err != nil {
			s.logger.WithField("address", address).WithError(err).Warn("insights cache write failed")
		}
	}
	s.monitor.Record(ReportInsights, time.Since(start), false)
	return &insights, nil
}

// GetProfile returns the behavioral profile of a stored wallet
func (s *InsightsService) GetProfile(ctx context.Context, address string) (*types.SmartMoneyProfile, error) {
	start := time.Now()
	address = strings.ToLower(address)

	if s.cache != nil {
		if cached, found, err := s.cache.GetProfile(ctx, address); err != nil {
			s.logger.WithField("address", address).WithError(err).Warn("profile cache read failed")
		} else if found {
			s.monitor.Record(ReportProfile, time.Since(start), true)
			return cached, nil
		}
	}

	activity, err := s.loadWalletActivity(ctx, address)
	if err != nil {
		return nil, err
	}
	if len(activity.Transactions) == 0 && len(activity.Holdings) == 0 {
		return nil, apperrors.NewNotFoundError("wallet activity", address)
	}

	profile, err := s.profiler.Profile(address, activity.Transactions, activity.Holdings)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetProfile(ctx, address, &profile); err != nil {
			s.logger.WithField("address", address).WithError(err).Warn("profile cache write failed")
		}
	}
	s.monitor.Record(ReportProfile, time.Since(start), false)
	return &profile, nil
}

func (s *InsightsService) loadWalletActivity(ctx context.Context, address string) (WalletActivity, error) {
	txs, err := s.source.GetWalletTransactions(ctx, address, time.Time{})
	if err != nil {
		return WalletActivity{}, storeError("get wallet transactions", err)
	}
	holdings, err := s.source.GetHoldings(ctx, address)
	if err != nil {
		return WalletActivity{}, storeError("get holdings", err)
	}
	return WalletActivity{Address: address, Transactions: txs, Holdings: holdings}, nil
}

// ProfileCohort profiles stored wallets in parallel and collects each wallet's
// transactions within the recent lookback window. Repeated addresses are
// profiled once.
func (s *InsightsService) ProfileCohort(ctx context.Context, addresses []string) (*Cohort, error) {
	since := time.Now().Add(-s.lookback)

	wallets := make([]WalletActivity, 0, len(addresses))
	recent := make(map[string][]types.WalletTransaction, len(addresses))
	for _, address := range addresses {
		address = strings.ToLower(address)
		if _, dup := recent[address]; dup {
			continue
		}
		activity, err := s.loadWalletActivity(ctx, address)
		if err != nil {
			return nil, err
		}
		wallets = append(wallets, activity)

		var window []types.WalletTransaction
		for _, tx := range activity.Transactions {
			if !tx.Timestamp.Before(since) {
				window = append(window, tx)
			}
		}
		recent[address] = window
	}

	result, err := s.batch.ProfileWallets(ctx, wallets)
	if err != nil {
		return nil, err
	}
	return &Cohort{Profiles: result.Profiles, Recent: recent, Failed: result.Failed}, nil
}

// IngestActivity stores caller-supplied records and drops cached reports for the wallet
func (s *InsightsService) IngestActivity(ctx context.Context, address string, input WalletActivityInput) error {
	if s.sink == nil {
		return apperrors.NewServiceUnavailableError("activity storage")
	}
	address = strings.ToLower(address)

	if err := s.sink.InsertChainTransactions(ctx, address, input.ChainTransactions); err != nil {
		return storeError("insert chain transactions", err)
	}
	if err := s.sink.InsertWalletTransactions(ctx, address, input.Transactions); err != nil {
		return storeError("insert wallet transactions", err)
	}
	if err := s.sink.ReplaceHoldings(ctx, address, input.Holdings); err != nil {
		return storeError("replace holdings", err)
	}

	if s.cache != nil {
		if err := s.cache.InvalidateAddress(ctx, address); err != nil {
			s.logger.WithField("address", address).WithError(err).Warn("cache invalidation failed")
		}
	}
	return nil
}

// storeError maps an activity store failure onto its categorized error. An
// open breaker means the store is known to be down.
func storeError(op string, err error) error {
	if errors.Is(err, circuitbreaker.ErrCircuitOpen) || errors.Is(err, circuitbreaker.ErrTooManyRequests) {
		return apperrors.NewServiceUnavailableError("activity storage")
	}
	return apperrors.NewDatabaseError(op, err)
}
