package service

import (
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wallet-insights/internal/types"
)

func newTestAnalyzer() *WalletCorrelationAnalyzer {
	return NewWalletCorrelationAnalyzer(DefaultScoringWeights())
}

func TestCorrelation(t *testing.T) {
	c := newTestAnalyzer()
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	a := []types.WalletTransaction{
		walletTx("Uniswap", types.TxBuy, 1, base),
		walletTx("Aave", types.TxStake, 1, base),
	}

	t.Run("identical activity", func(t *testing.T) {
		// 2 same-protocol pairs over 2 transactions
		assert.Equal(t, 100.0, c.Correlation(a, a))
	})

	t.Run("same protocols outside window", func(t *testing.T) {
		b := []types.WalletTransaction{
			walletTx("Uniswap", types.TxBuy, 1, base.Add(48*time.Hour)),
			walletTx("Aave", types.TxStake, 1, base.Add(-48*time.Hour)),
		}
		assert.Equal(t, 50.0, c.Correlation(a, b))
	})

	t.Run("half overlap within window", func(t *testing.T) {
		b := []types.WalletTransaction{
			walletTx("Uniswap", types.TxSell, 1, base.Add(23*time.Hour)),
			walletTx("Curve", types.TxSwap, 1, base),
		}
		// protocol 50, timing 1/2 = 50
		assert.Equal(t, 50.0, c.Correlation(a, b))
	})

	t.Run("empty side", func(t *testing.T) {
		assert.Equal(t, 0.0, c.Correlation(nil, a))
		assert.Equal(t, 0.0, c.Correlation(a, nil))
	})

	t.Run("timing overlap is capped", func(t *testing.T) {
		many := []types.WalletTransaction{
			walletTx("Uniswap", types.TxBuy, 1, base),
			walletTx("Uniswap", types.TxBuy, 1, base.Add(time.Minute)),
			walletTx("Uniswap", types.TxBuy, 1, base.Add(2*time.Minute)),
		}
		one := []types.WalletTransaction{walletTx("Uniswap", types.TxBuy, 1, base)}
		assert.Equal(t, 100.0, c.Correlation(many, one))
	})
}

func TestFindCorrelatedWallets(t *testing.T) {
	c := newTestAnalyzer()
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	target := []types.WalletTransaction{
		walletTx("Uniswap", types.TxBuy, 1, base),
		walletTx("Aave", types.TxStake, 1, base),
	}
	cohort := map[string][]types.WalletTransaction{
		"0xBBB": target,
		"0xaaa": target,
		"0xccc": {walletTx("Uniswap", types.TxSell, 1, base.Add(23*time.Hour)), walletTx("Curve", types.TxSwap, 1, base)},
		"0xddd": {walletTx("Blur", types.TxBuy, 1, base)},
	}

	results := c.FindCorrelatedWallets(target, cohort, 40)

	require.Len(t, results, 3)
	assert.Equal(t, types.WalletCorrelation{Address: "0xaaa", Score: 100}, results[0])
	assert.Equal(t, types.WalletCorrelation{Address: "0xbbb", Score: 100}, results[1])
	assert.Equal(t, types.WalletCorrelation{Address: "0xccc", Score: 50}, results[2])
}

func TestCorrelationProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)
	c := newTestAnalyzer()
	protocols := []string{"Uniswap", "Aave", "Curve", "Blur", ""}

	genTxs := gen.SliceOf(gen.IntRange(0, 200)).Map(func(seeds []int) []types.WalletTransaction {
		txs := make([]types.WalletTransaction, len(seeds))
		for i, s := range seeds {
			txs[i] = walletTx(protocols[s%len(protocols)], types.TxBuy, 1, testNow.Add(-time.Duration(s)*time.Hour))
		}
		return txs
	})

	properties.Property("correlation is within [0,100]", prop.ForAll(
		func(a, b []types.WalletTransaction) bool {
			score := c.Correlation(a, b)
			return score >= 0 && score <= 100
		},
		genTxs,
		genTxs,
	))

	properties.TestingRun(t)
}
