package storage

import (
	"context"
	"errors"
	"time"

	"github.com/wallet-insights/internal/circuitbreaker"
	"github.com/wallet-insights/internal/types"
)

// ActivityStore is the read/write surface of the wallet activity store
type ActivityStore interface {
	GetProtocolInteractions(ctx context.Context, address string) ([]types.ProtocolInteraction, error)
	GetChainTransactions(ctx context.Context, address string) (map[types.ChainID][]types.ChainTransaction, error)
	GetWalletTransactions(ctx context.Context, address string, since time.Time) ([]types.WalletTransaction, error)
	GetHoldings(ctx context.Context, address string) ([]types.TokenHolding, error)
	InsertChainTransactions(ctx context.Context, address string, byChain map[types.ChainID][]types.ChainTransaction) error
	InsertWalletTransactions(ctx context.Context, address string, txs []types.WalletTransaction) error
	ReplaceHoldings(ctx context.Context, address string, holdings []types.TokenHolding) error
}

var _ ActivityStore = (*ActivityRepository)(nil)

// GuardedActivityStore fails fast with circuitbreaker.ErrCircuitOpen while the
// underlying store keeps failing
type GuardedActivityStore struct {
	store   ActivityStore
	breaker *circuitbreaker.CircuitBreaker
}

// NewGuardedActivityStore wraps store with a breaker. Caller cancellations do
// not count as store failures.
func NewGuardedActivityStore(store ActivityStore, config *circuitbreaker.Config) *GuardedActivityStore {
	if config == nil {
		config = circuitbreaker.DefaultConfig("activity_store")
	}
	if config.IsFailure == nil {
		config.IsFailure = func(err error) bool {
			return !errors.Is(err, context.Canceled)
		}
	}
	return &GuardedActivityStore{store: store, breaker: circuitbreaker.NewCircuitBreaker(config)}
}

// Breaker exposes the breaker for health reporting
func (g *GuardedActivityStore) Breaker() *circuitbreaker.CircuitBreaker {
	return g.breaker
}

func (g *GuardedActivityStore) GetProtocolInteractions(ctx context.Context, address string) (out []types.ProtocolInteraction, err error) {
	err = g.breaker.Execute(func() error {
		out, err = g.store.GetProtocolInteractions(ctx, address)
		return err
	})
	return out, err
}

func (g *GuardedActivityStore) GetChainTransactions(ctx context.Context, address string) (out map[types.ChainID][]types.ChainTransaction, err error) {
	err = g.breaker.Execute(func() error {
		out, err = g.store.GetChainTransactions(ctx, address)
		return err
	})
	return out, err
}

func (g *GuardedActivityStore) GetWalletTransactions(ctx context.Context, address string, since time.Time) (out []types.WalletTransaction, err error) {
	err = g.breaker.Execute(func() error {
		out, err = g.store.GetWalletTransactions(ctx, address, since)
		return err
	})
	return out, err
}

func (g *GuardedActivityStore) GetHoldings(ctx context.Context, address string) (out []types.TokenHolding, err error) {
	err = g.breaker.Execute(func() error {
		out, err = g.store.GetHoldings(ctx, address)
		return err
	})
	return out, err
}

func (g *GuardedActivityStore) InsertChainTransactions(ctx context.Context, address string, byChain map[types.ChainID][]types.ChainTransaction) error {
	return g.breaker.Execute(func() error {
		return g.store.InsertChainTransactions(ctx, address, byChain)
	})
}

func (g *GuardedActivityStore) InsertWalletTransactions(ctx context.Context, address string, txs []types.WalletTransaction) error {
	return g.breaker.Execute(func() error {
		return g.store.InsertWalletTransactions(ctx, address, txs)
	})
}

func (g *GuardedActivityStore) ReplaceHoldings(ctx context.Context, address string, holdings []types.TokenHolding) error {
	return g.breaker.Execute(func() error {
		return g.store.ReplaceHoldings(ctx, address, holdings)
	})
}
