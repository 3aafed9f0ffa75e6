package service

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/alitto/pond/v2"

	"github.com/wallet-insights/internal/logging"
	"github.com/wallet-insights/internal/types"
)

// WalletActivity is the profiling input for one wallet
type WalletActivity struct {
	Address      string                    `json:"address"`
	Transactions []types.WalletTransaction `json:"transactions"`
	Holdings     []types.TokenHolding      `json:"holdings"`
}

// BatchResult holds cohort profiles in input order plus the wallets that
// degraded to default scores
type BatchResult struct {
	Profiles []types.SmartMoneyProfile `json:"profiles"`
	Failed   []string                  `json:"failed"`
}

// BatchProfiler profiles many wallets in parallel on a shared worker pool.
// One wallet failing never affects the others.
type BatchProfiler struct {
	profiler *WalletBehaviorProfiler
	pool     pond.Pool
	logger   *logging.Logger
}

// NewBatchProfiler creates a batch profiler with the given number of workers
func NewBatchProfiler(profiler *WalletBehaviorProfiler, workers int) *BatchProfiler {
	if workers <= 0 {
		workers = 1
	}
	return &BatchProfiler{
		profiler: profiler,
		pool:     pond.NewPool(workers),
		logger:   logging.GetGlobalLogger().WithField("component", "batch_profiler"),
	}
}

// ProfileWallets profiles every wallet and returns once all tasks finished or ctx is done
func (b *BatchProfiler) ProfileWallets(ctx context.Context, wallets []WalletActivity) (BatchResult, error) {
	profiles := make([]types.SmartMoneyProfile, len(wallets))
	failed := make([]bool, len(wallets))

	group := b.pool.NewGroupContext(ctx)
	groupCtx := group.Context()

	var mu sync.Mutex
	completed := 0

	for i := range wallets {
		wallet := wallets[i]
		group.Submit(func() {
			if err := groupCtx.Err(); err != nil {
				return
			}
			profile, err := b.profiler.Profile(wallet.Address, wallet.Transactions, wallet.Holdings)
			if err != nil {
				failed[i] = true
			}
			profiles[i] = profile

			mu.Lock()
			completed++
			mu.Unlock()
		})
	}

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, pond.ErrGroupStopped) {
		b.logger.WithError(err).Warn("batch profiling encountered error")
	}
	if err := ctx.Err(); err != nil {
		return BatchResult{}, err
	}

	result := BatchResult{Profiles: profiles, Failed: []string{}}
	for i, f := range failed {
		if f {
			result.Failed = append(result.Failed, strings.ToLower(wallets[i].Address))
		}
	}

	b.logger.WithFields(map[string]interface{}{
		"wallets": len(wallets),
		"done":    completed,
		"failed":  len(result.Failed),
	}).Debug("batch profiling complete")

	return result, nil
}

// Close stops the worker pool and waits for running tasks
func (b *BatchProfiler) Close() {
	b.pool.StopAndWait()
}
