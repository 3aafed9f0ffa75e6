package service

import (
	"math"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/wallet-insights/internal/errors"
	"github.com/wallet-insights/internal/types"
)

func newTestProfiler() *WalletBehaviorProfiler {
	return NewWalletBehaviorProfiler(DefaultScoringWeights())
}

func TestProfile_BuySellRoundTrip(t *testing.T) {
	p := newTestProfiler()
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	txs := []types.WalletTransaction{
		walletTx("Uniswap", types.TxSell, 1200, start.Add(5*24*time.Hour)),
		walletTx("Uniswap", types.TxBuy, 1000, start),
	}
	holdings := []types.TokenHolding{
		types.NewTokenHolding("ETH", 1, 1000, 1200),
	}

	profile, err := p.Profile("0xABC", txs, holdings)
	require.NoError(t, err)

	assert.Equal(t, "0xabc", profile.Address)
	assert.Equal(t, 100.0, profile.WinRate)
	assert.InDelta(t, 5.0, profile.AvgHoldTime, 1e-9)
	assert.Equal(t, 0.0, profile.DiversificationScore)
	assert.Equal(t, 200.0, profile.TotalPnL)
	assert.InDelta(t, 20.0, profile.ROI, 1e-9)
	assert.Equal(t, []string{"DeFi"}, profile.Specialties)
	// 0.4*100 + 0.4*(20/5) + 0.2*0
	assert.InDelta(t, 41.6, profile.Profitability, 1e-9)
	assert.Equal(t, types.StyleModerate, profile.TradingStyle)
}

func TestProfile_NoData(t *testing.T) {
	profile, err := newTestProfiler().Profile(testWallet, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, DefaultProfile(testWallet), profile)
}

func TestProfile_NonFiniteDegradesToDefault(t *testing.T) {
	holdings := []types.TokenHolding{
		{Token: "X", Balance: 1, AvgBuyPrice: 1, CurrentPrice: 2, PnL: math.Inf(1)},
	}

	profile, err := newTestProfiler().Profile(testWallet, nil, holdings)
	require.Error(t, err)

	assert.Equal(t, apperrors.CategoryComputation, apperrors.Categorize(err).Category)
	assert.Equal(t, DefaultProfile(testWallet), profile)
}

func TestAvgHoldTime(t *testing.T) {
	p := newTestProfiler()
	day := 24 * time.Hour
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		txs  []types.WalletTransaction
		want float64
	}{
		{
			name: "no pairs",
			txs:  []types.WalletTransaction{walletTx("Uniswap", types.TxBuy, 1, start)},
			want: 0,
		},
		{
			name: "sell without buy is ignored",
			txs:  []types.WalletTransaction{walletTx("Uniswap", types.TxSell, 1, start)},
			want: 0,
		},
		{
			name: "fifo pairing",
			txs: []types.WalletTransaction{
				walletTx("Uniswap", types.TxBuy, 1, start),
				walletTx("Uniswap", types.TxBuy, 1, start.Add(2*day)),
				walletTx("Uniswap", types.TxSell, 1, start.Add(4*day)),
				walletTx("Uniswap", types.TxSell, 1, start.Add(10*day)),
			},
			// (4 + 8) / 2
			want: 6,
		},
		{
			name: "separate protocols",
			txs: []types.WalletTransaction{
				walletTx("Uniswap", types.TxBuy, 1, start),
				walletTx("Curve", types.TxBuy, 1, start.Add(day)),
				walletTx("Curve", types.TxSell, 1, start.Add(2*day)),
				walletTx("Uniswap", types.TxSell, 1, start.Add(3*day)),
			},
			want: 2,
		},
		{
			name: "falls back to destination address",
			txs: func() []types.WalletTransaction {
				buy := walletTx("", types.TxBuy, 1, start)
				buy.To = "0xAAA"
				sell := walletTx("", types.TxSell, 1, start.Add(day))
				sell.To = "0xaaa"
				return []types.WalletTransaction{buy, sell}
			}(),
			want: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, p.AvgHoldTime(tt.txs), 1e-9)
		})
	}
}

func TestDiversification(t *testing.T) {
	p := newTestProfiler()

	assert.Equal(t, 0.0, p.Diversification(nil))
	assert.Equal(t, 0.0, p.Diversification([]types.TokenHolding{types.NewTokenHolding("ETH", 2, 100, 150)}))

	four := []types.TokenHolding{
		types.NewTokenHolding("A", 1, 1, 10),
		types.NewTokenHolding("B", 1, 1, 10),
		types.NewTokenHolding("C", 1, 1, 10),
		types.NewTokenHolding("D", 1, 1, 10),
	}
	assert.InDelta(t, 75.0, p.Diversification(four), 1e-9)

	worthless := []types.TokenHolding{types.NewTokenHolding("A", 0, 1, 1)}
	assert.Equal(t, 0.0, p.Diversification(worthless))
}

func TestRiskScore(t *testing.T) {
	p := newTestProfiler()
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("empty", func(t *testing.T) {
		assert.Equal(t, 0.0, p.RiskScore(nil, nil))
	})

	t.Run("maximum risk is clamped", func(t *testing.T) {
		var txs []types.WalletTransaction
		for i := 0; i < 10; i++ {
			txs = append(txs, walletTx("Leverage Finance", types.TxBuy, 100, at))
		}
		holdings := []types.TokenHolding{types.NewTokenHolding("PEPE", 1000, 1, 5)}

		assert.Equal(t, 100.0, p.RiskScore(txs, holdings))
	})

	t.Run("components", func(t *testing.T) {
		txs := []types.WalletTransaction{
			walletTx("Margin Desk", types.TxBuy, 1, at),
			walletTx("Uniswap", types.TxBuy, 1, at),
		}
		holdings := []types.TokenHolding{
			types.NewTokenHolding("A", 1, 10, 10),
			types.NewTokenHolding("B", 1, 5, 10),
		}
		// concentration 0.5*40 + leverage 30*0.5 + volatility 30*0.5
		assert.InDelta(t, 50.0, p.RiskScore(txs, holdings), 1e-9)
	})
}

func TestTradingStyle(t *testing.T) {
	p := newTestProfiler()

	assert.Equal(t, types.StyleAggressive, p.TradingStyle(2, 80, 10))
	assert.Equal(t, types.StyleConservative, p.TradingStyle(60, 20, 80))
	assert.Equal(t, types.StyleModerate, p.TradingStyle(60, 20, 65))
	assert.Equal(t, types.StyleModerate, p.TradingStyle(7, 80, 10))
	assert.Equal(t, types.StyleModerate, p.TradingStyle(0, 0, 0))
}

func TestSpecialties(t *testing.T) {
	p := newTestProfiler()
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	txs := []types.WalletTransaction{
		walletTx("Stargate Bridge", types.TxBridge, 1, at),
		walletTx("OpenSea", types.TxBuy, 1, at),
		walletTx("OpenSea", types.TxBuy, 1, at),
		walletTx("Lido Stake", types.TxStake, 1, at),
		walletTx("Uniswap", types.TxSwap, 1, at),
		walletTx("Uniswap", types.TxSwap, 1, at),
		walletTx("Uniswap", types.TxSwap, 1, at),
		walletTx("Unknown", types.TxOther, 1, at),
		walletTx("", types.TxOther, 1, at),
	}

	assert.Equal(t, []string{"DeFi", "NFTs", "Cross-Chain"}, p.Specialties(txs))
	assert.Equal(t, []string{}, p.Specialties(nil))
	// first matching rule wins: "uniswap bridge" is DeFi
	assert.Equal(t, []string{"DeFi"}, p.Specialties([]types.WalletTransaction{walletTx("UniSwap Bridge", types.TxBridge, 1, at)}))
}

func TestProfitabilityAndROI(t *testing.T) {
	p := newTestProfiler()

	assert.Equal(t, 100.0, p.Profitability(100, 100000, 100))
	assert.Equal(t, 0.0, p.Profitability(0, -1000, 0))

	pnl, roi := p.ROI(nil)
	assert.Zero(t, pnl)
	assert.Zero(t, roi)

	pnl, roi = p.ROI([]types.TokenHolding{types.NewTokenHolding("AIR", 10, 0, 3)})
	assert.Equal(t, 30.0, pnl)
	assert.Zero(t, roi)
}

func TestWinRate(t *testing.T) {
	p := newTestProfiler()

	assert.Equal(t, 0.0, p.WinRate(nil))
	assert.Equal(t, 50.0, p.WinRate([]types.TokenHolding{
		types.NewTokenHolding("A", 1, 1, 2),
		types.NewTokenHolding("B", 1, 2, 1),
	}))
}

func genHoldings() gopter.Gen {
	return gen.SliceOf(gen.Float64Range(0, 1e6)).Map(func(values []float64) []types.TokenHolding {
		holdings := make([]types.TokenHolding, len(values))
		for i, v := range values {
			holdings[i] = types.NewTokenHolding("T", 1, v/2+1, v)
		}
		return holdings
	})
}

func TestProfilerProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)
	p := newTestProfiler()

	properties.Property("scores stay within bounds", prop.ForAll(
		func(holdings []types.TokenHolding, leveraged int) bool {
			var txs []types.WalletTransaction
			for i := 0; i < leveraged; i++ {
				txs = append(txs, walletTx("margin", types.TxBuy, 1, testNow))
			}
			profile, err := p.Profile(testWallet, txs, holdings)
			if err != nil {
				return false
			}
			for _, v := range []float64{profile.WinRate, profile.DiversificationScore, profile.RiskScore, profile.Profitability} {
				if v < 0 || v > 100 {
					return false
				}
			}
			return true
		},
		genHoldings(),
		gen.IntRange(0, 20),
	))

	properties.Property("equal positions diversify to 100(1-1/n)", prop.ForAll(
		func(n int) bool {
			holdings := make([]types.TokenHolding, n)
			for i := range holdings {
				holdings[i] = types.NewTokenHolding("T", 3, 1, 7)
			}
			want := 100 * (1 - 1/float64(n))
			return math.Abs(p.Diversification(holdings)-want) < 1e-6
		},
		gen.IntRange(1, 50),
	))

	properties.TestingRun(t)
}
