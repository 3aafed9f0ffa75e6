package service

import (
	"fmt"
	"math"
	"sort"
	"strings"

	apperrors "github.com/wallet-insights/internal/errors"
	"github.com/wallet-insights/internal/logging"
	"github.com/wallet-insights/internal/types"
)

const millisPerDay = 24 * 60 * 60 * 1000

// specialtyRule maps protocol name fragments to a specialty label.
// Rules are tried in order and the first match wins.
type specialtyRule struct {
	label     string
	fragments []string
}

var specialtyRules = []specialtyRule{
	{label: "DeFi", fragments: []string{"uni", "swap", "curve"}},
	{label: "NFTs", fragments: []string{"nft", "opensea", "blur"}},
	{label: "Cross-Chain", fragments: []string{"bridge", "layer"}},
	{label: "Staking", fragments: []string{"stake", "yield"}},
}

var leverageFragments = []string{"lever", "margin"}

// WalletBehaviorProfiler derives behavioral scores for a single wallet
type WalletBehaviorProfiler struct {
	weights ScoringWeights
	logger  *logging.Logger
}

// NewWalletBehaviorProfiler creates a new profiler
func NewWalletBehaviorProfiler(weights ScoringWeights) *WalletBehaviorProfiler {
	return &WalletBehaviorProfiler{
		weights: weights,
		logger:  logging.GetGlobalLogger().WithField("component", "wallet_profiler"),
	}
}

// DefaultProfile is the profile reported when a wallet's scores cannot be derived
func DefaultProfile(address string) types.SmartMoneyProfile {
	return types.SmartMoneyProfile{
		Address:      strings.ToLower(address),
		TradingStyle: types.StyleModerate,
		Specialties:  []string{},
	}
}

// Profile computes the full behavioral profile of a wallet. A failure while
// scoring degrades the result to DefaultProfile and returns a computation error.
func (p *WalletBehaviorProfiler) Profile(
	address string,
	txs []types.WalletTransaction,
	holdings []types.TokenHolding,
) (profile types.SmartMoneyProfile, err error) {
	defer func() {
		if r := recover(); r != nil {
			profile = DefaultProfile(address)
			err = apperrors.NewComputationError(address, fmt.Errorf("panic: %v", r))
			p.logger.WithField("address", address).WithError(err).Warn("wallet profiling panicked")
		}
	}()

	winRate := p.WinRate(holdings)
	avgHold := p.AvgHoldTime(txs)
	diversification := p.Diversification(holdings)
	risk := p.RiskScore(txs, holdings)
	totalPnL, roi := p.ROI(holdings)

	profile = types.SmartMoneyProfile{
		Address:              strings.ToLower(address),
		Profitability:        p.Profitability(winRate, roi, diversification),
		WinRate:              winRate,
		AvgHoldTime:          avgHold,
		DiversificationScore: diversification,
		RiskScore:            risk,
		TradingStyle:         p.TradingStyle(avgHold, risk, winRate),
		Specialties:          p.Specialties(txs),
		TotalPnL:             totalPnL,
		ROI:                  roi,
	}

	for name, v := range map[string]float64{
		"profitability":   profile.Profitability,
		"winRate":         winRate,
		"avgHoldTime":     avgHold,
		"diversification": diversification,
		"riskScore":       risk,
		"totalPnL":        totalPnL,
		"roi":             roi,
	} {
		if !isFinite(v) {
			err = apperrors.NewComputationError(address, fmt.Errorf("%s is not finite", name))
			p.logger.WithField("address", address).WithError(err).Warn("wallet profile degraded to defaults")
			return DefaultProfile(address), err
		}
	}

	return profile, nil
}

// WinRate is the percentage of holdings with positive PnL, 0 for no holdings
func (p *WalletBehaviorProfiler) WinRate(holdings []types.TokenHolding) float64 {
	profitable := 0
	for _, h := range holdings {
		if h.PnL > 0 {
			profitable++
		}
	}
	return percent(profitable, len(holdings))
}

// AvgHoldTime pairs buys with later sells per protocol (or destination address
// when no protocol is set) in FIFO order and returns the mean hold in days.
// Concurrent positions in the same protocol share one queue.
func (p *WalletBehaviorProfiler) AvgHoldTime(txs []types.WalletTransaction) float64 {
	ordered := make([]types.WalletTransaction, len(txs))
	copy(ordered, txs)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Timestamp.Before(ordered[j].Timestamp)
	})

	open := make(map[string][]int64)
	var total float64
	var pairs int

	for _, tx := range ordered {
		key := positionKey(tx)
		if key == "" {
			continue
		}
		switch tx.Type {
		case types.TxBuy:
			open[key] = append(open[key], tx.Timestamp.UnixMilli())
		case types.TxSell:
			queue := open[key]
			if len(queue) == 0 {
				continue
			}
			total += float64(tx.Timestamp.UnixMilli() - queue[0])
			pairs++
			open[key] = queue[1:]
		}
	}

	if pairs == 0 {
		return 0
	}
	return total / float64(pairs) / millisPerDay
}

func positionKey(tx types.WalletTransaction) string {
	if tx.Protocol != "" {
		return tx.Protocol
	}
	return strings.ToLower(tx.To)
}

// positionShares returns each holding's share of the total position value, or
// nil when the total is not positive
func positionShares(holdings []types.TokenHolding) []float64 {
	var totalValue float64
	for _, h := range holdings {
		totalValue += h.Balance * h.CurrentPrice
	}
	if !(totalValue > 0) {
		return nil
	}

	shares := make([]float64, len(holdings))
	for i, h := range holdings {
		shares[i] = h.Balance * h.CurrentPrice / totalValue
	}
	return shares
}

// Diversification is 100*(1-HHI) over position values. A single holding scores 0.
func (p *WalletBehaviorProfiler) Diversification(holdings []types.TokenHolding) float64 {
	shares := positionShares(holdings)
	if shares == nil {
		return 0
	}

	var hhi float64
	for _, s := range shares {
		hhi += s * s
	}
	return math.Max(0, 100-100*hhi)
}

// RiskScore combines concentration, leverage usage and PnL volatility, clamped to [0,100]
func (p *WalletBehaviorProfiler) RiskScore(txs []types.WalletTransaction, holdings []types.TokenHolding) float64 {
	w := p.weights

	var maxShare float64
	for _, s := range positionShares(holdings) {
		maxShare = math.Max(maxShare, s)
	}
	concentration := maxShare * w.RiskConcentrationWeight

	var leverage float64
	if len(txs) > 0 {
		flagged := 0
		for _, tx := range txs {
			if isLeverageProtocol(tx.Protocol) {
				flagged++
			}
		}
		leverage = math.Min(w.RiskLeverageWeight, w.RiskLeverageWeight*float64(flagged)/float64(len(txs)))
	}

	var volatility float64
	if len(holdings) > 0 {
		volatile := 0
		for _, h := range holdings {
			if math.Abs(h.PnLPercentage) > w.VolatilePnLPercent {
				volatile++
			}
		}
		volatility = w.RiskVolatilityWeight * float64(volatile) / float64(len(holdings))
	}

	return clamp(concentration+leverage+volatility, 0, 100)
}

func isLeverageProtocol(protocol string) bool {
	name := strings.ToLower(protocol)
	for _, fragment := range leverageFragments {
		if strings.Contains(name, fragment) {
			return true
		}
	}
	return false
}

// TradingStyle classifies a wallet from its hold time, risk and win rate
func (p *WalletBehaviorProfiler) TradingStyle(avgHoldDays, riskScore, winRate float64) types.TradingStyle {
	w := p.weights
	switch {
	case avgHoldDays < w.AggressiveMaxHoldDays && riskScore > w.AggressiveMinRisk:
		return types.StyleAggressive
	case avgHoldDays > w.ConservativeMinHoldDays && riskScore < w.ConservativeMaxRisk && winRate > w.ConservativeMinWinRate:
		return types.StyleConservative
	default:
		return types.StyleModerate
	}
}

// Specialties returns up to three specialty labels ranked by transaction count.
// Equal counts keep the order in which the specialties were first seen.
func (p *WalletBehaviorProfiler) Specialties(txs []types.WalletTransaction) []string {
	counts := make(map[string]int)
	var order []string

	for _, tx := range txs {
		label := classifySpecialty(tx.Protocol)
		if label == "" {
			continue
		}
		if _, seen := counts[label]; !seen {
			order = append(order, label)
		}
		counts[label]++
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})

	if len(order) > 3 {
		order = order[:3]
	}
	if order == nil {
		order = []string{}
	}
	return order
}

func classifySpecialty(protocol string) string {
	name := strings.ToLower(protocol)
	if name == "" {
		return ""
	}
	for _, rule := range specialtyRules {
		for _, fragment := range rule.fragments {
			if strings.Contains(name, fragment) {
				return rule.label
			}
		}
	}
	return ""
}

// Profitability weighs win rate, normalized ROI and diversification, clamped to [0,100]
func (p *WalletBehaviorProfiler) Profitability(winRate, roi, diversification float64) float64 {
	w := p.weights
	normalizer := w.ROINormalizer
	if normalizer <= 0 {
		normalizer = 1
	}
	score := w.ProfitabilityWinRateWeight*winRate +
		w.ProfitabilityROIWeight*math.Min(roi/normalizer, 100) +
		w.ProfitabilityDiversificationWeight*diversification
	return clamp(score, 0, 100)
}

// ROI returns total PnL and ROI percent over cost basis. ROI is 0 when nothing was invested.
func (p *WalletBehaviorProfiler) ROI(holdings []types.TokenHolding) (totalPnL, roi float64) {
	var invested float64
	for _, h := range holdings {
		totalPnL += h.PnL
		invested += h.Balance * h.AvgBuyPrice
	}
	if invested == 0 {
		return totalPnL, 0
	}
	return totalPnL, 100 * totalPnL / invested
}
