package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wallet-insights/internal/circuitbreaker"
	"github.com/wallet-insights/internal/types"
)

var errStoreDown = errors.New("dial tcp: connection refused")

// flakyStore fails every call while down is set
type flakyStore struct {
	down  bool
	err   error
	calls int
}

func (f *flakyStore) result() error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	if f.down {
		return errStoreDown
	}
	return nil
}

func (f *flakyStore) GetProtocolInteractions(ctx context.Context, address string) ([]types.ProtocolInteraction, error) {
	if err := f.result(); err != nil {
		return nil, err
	}
	return []types.ProtocolInteraction{{Protocol: "Uniswap V2", InteractionCount: 3}}, nil
}

func (f *flakyStore) GetChainTransactions(ctx context.Context, address string) (map[types.ChainID][]types.ChainTransaction, error) {
	return nil, f.result()
}

func (f *flakyStore) GetWalletTransactions(ctx context.Context, address string, since time.Time) ([]types.WalletTransaction, error) {
	return nil, f.result()
}

func (f *flakyStore) GetHoldings(ctx context.Context, address string) ([]types.TokenHolding, error) {
	return nil, f.result()
}

func (f *flakyStore) InsertChainTransactions(ctx context.Context, address string, byChain map[types.ChainID][]types.ChainTransaction) error {
	return f.result()
}

func (f *flakyStore) InsertWalletTransactions(ctx context.Context, address string, txs []types.WalletTransaction) error {
	return f.result()
}

func (f *flakyStore) ReplaceHoldings(ctx context.Context, address string, holdings []types.TokenHolding) error {
	return f.result()
}

func guardedConfig() *circuitbreaker.Config {
	cfg := circuitbreaker.DefaultConfig("test_store")
	cfg.ConsecutiveFails = 2
	cfg.Timeout = time.Hour
	return cfg
}

func TestGuardedActivityStore_PassesThrough(t *testing.T) {
	store := &flakyStore{}
	guarded := NewGuardedActivityStore(store, guardedConfig())

	interactions, err := guarded.GetProtocolInteractions(context.Background(), "0xabc")
	require.NoError(t, err)
	assert.Len(t, interactions, 1)
	assert.NoError(t, guarded.ReplaceHoldings(context.Background(), "0xabc", nil))
	assert.Equal(t, 2, store.calls)
}

func TestGuardedActivityStore_OpensAndFailsFast(t *testing.T) {
	store := &flakyStore{down: true}
	guarded := NewGuardedActivityStore(store, guardedConfig())
	ctx := context.Background()

	_, err := guarded.GetHoldings(ctx, "0xabc")
	assert.ErrorIs(t, err, errStoreDown)
	err = guarded.InsertWalletTransactions(ctx, "0xabc", nil)
	assert.ErrorIs(t, err, errStoreDown)
	require.Equal(t, circuitbreaker.StateOpen, guarded.Breaker().GetState())

	_, err = guarded.GetWalletTransactions(ctx, "0xabc", time.Time{})
	assert.ErrorIs(t, err, circuitbreaker.ErrCircuitOpen)
	assert.Equal(t, 2, store.calls, "open breaker must not reach the store")
}

func TestGuardedActivityStore_CancellationIsNotAFailure(t *testing.T) {
	store := &flakyStore{err: context.Canceled}
	guarded := NewGuardedActivityStore(store, guardedConfig())

	for i := 0; i < 5; i++ {
		_, err := guarded.GetChainTransactions(context.Background(), "0xabc")
		assert.ErrorIs(t, err, context.Canceled)
	}
	assert.Equal(t, circuitbreaker.StateClosed, guarded.Breaker().GetState())
}
