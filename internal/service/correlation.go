package service

import (
	"sort"
	"strings"
	"time"

	"github.com/wallet-insights/internal/types"
)

// WalletCorrelationAnalyzer measures how similarly two wallets trade
type WalletCorrelationAnalyzer struct {
	window time.Duration
}

// NewWalletCorrelationAnalyzer creates a new analyzer
func NewWalletCorrelationAnalyzer(weights ScoringWeights) *WalletCorrelationAnalyzer {
	return &WalletCorrelationAnalyzer{window: weights.CorrelationWindow}
}

// Correlation averages protocol overlap (from a's point of view) and timing
// overlap. The result is in [0,100].
func (c *WalletCorrelationAnalyzer) Correlation(a, b []types.WalletTransaction) float64 {
	return clamp((c.protocolOverlap(a, b)+c.timingOverlap(a, b))/2, 0, 100)
}

func distinctProtocols(txs []types.WalletTransaction) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tx := range txs {
		if tx.Protocol != "" {
			set[tx.Protocol] = struct{}{}
		}
	}
	return set
}

func (c *WalletCorrelationAnalyzer) protocolOverlap(a, b []types.WalletTransaction) float64 {
	protocolsA := distinctProtocols(a)
	if len(protocolsA) == 0 {
		return 0
	}
	protocolsB := distinctProtocols(b)

	common := 0
	for p := range protocolsA {
		if _, ok := protocolsB[p]; ok {
			common++
		}
	}
	return percent(common, len(protocolsA))
}

// timingOverlap counts same-protocol pairs within the window over all pairs.
// The count can exceed the smaller side, so the result is capped at 100.
func (c *WalletCorrelationAnalyzer) timingOverlap(a, b []types.WalletTransaction) float64 {
	smaller := min(len(a), len(b))
	if smaller == 0 {
		return 0
	}

	pairs := 0
	for _, ta := range a {
		if ta.Protocol == "" {
			continue
		}
		for _, tb := range b {
			if tb.Protocol != ta.Protocol {
				continue
			}
			gap := ta.Timestamp.Sub(tb.Timestamp)
			if gap < 0 {
				gap = -gap
			}
			if gap <= c.window {
				pairs++
			}
		}
	}
	return clamp(percent(pairs, smaller), 0, 100)
}

// FindCorrelatedWallets scores every cohort wallet against target and returns
// those at or above minScore, most similar first. Ties are ordered by address.
func (c *WalletCorrelationAnalyzer) FindCorrelatedWallets(
	target []types.WalletTransaction,
	cohort map[string][]types.WalletTransaction,
	minScore float64,
) []types.WalletCorrelation {
	results := make([]types.WalletCorrelation, 0, len(cohort))
	for address, txs := range cohort {
		score := c.Correlation(target, txs)
		if score < minScore {
			continue
		}
		results = append(results, types.WalletCorrelation{
			Address: strings.ToLower(address),
			Score:   round2(score),
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Address < results[j].Address
	})
	return results
}
