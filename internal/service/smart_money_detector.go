package service

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/wallet-insights/internal/types"
)

// SmartMoneySignalDetector looks for coordinated behavior across a cohort of profiled wallets
type SmartMoneySignalDetector struct {
	weights ScoringWeights
	now     func() time.Time
}

// NewSmartMoneySignalDetector creates a new detector
func NewSmartMoneySignalDetector(weights ScoringWeights) *SmartMoneySignalDetector {
	return &SmartMoneySignalDetector{weights: weights, now: time.Now}
}

// WithClock replaces the time source used for signal timestamps
func (d *SmartMoneySignalDetector) WithClock(now func() time.Time) *SmartMoneySignalDetector {
	d.now = now
	return d
}

// protocolActivity accumulates cohort activity for one protocol in first-seen order
type protocolActivity struct {
	name    string
	wallets []string
	seen    map[string]struct{}
	volume  float64
}

type protocolTally struct {
	byKey map[string]*protocolActivity
	order []*protocolActivity
}

func newProtocolTally() *protocolTally {
	return &protocolTally{byKey: make(map[string]*protocolActivity)}
}

func (t *protocolTally) add(protocol, wallet string, value float64) {
	key := strings.ToLower(strings.TrimSpace(protocol))
	if key == "" {
		return
	}
	a, ok := t.byKey[key]
	if !ok {
		a = &protocolActivity{name: strings.TrimSpace(protocol), seen: make(map[string]struct{})}
		t.byKey[key] = a
		t.order = append(t.order, a)
	}
	if _, dup := a.seen[wallet]; !dup {
		a.seen[wallet] = struct{}{}
		a.wallets = append(a.wallets, wallet)
	}
	if isFinite(value) {
		a.volume += value
	}
}

// cohortTransactions returns a profile's recent transactions, matching the map key case-insensitively
func cohortTransactions(address string, recent map[string][]types.WalletTransaction) []types.WalletTransaction {
	if txs, ok := recent[address]; ok {
		return txs
	}
	return recent[strings.ToLower(address)]
}

// distinctProfiles drops repeated wallets, comparing addresses case-insensitively
func distinctProfiles(profiles []types.SmartMoneyProfile) []types.SmartMoneyProfile {
	seen := make(map[string]struct{}, len(profiles))
	out := make([]types.SmartMoneyProfile, 0, len(profiles))
	for _, p := range profiles {
		key := strings.ToLower(p.Address)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, p)
	}
	return out
}

// DetectAccumulation emits a buy signal for each protocol that enough of the
// cohort bought with a significant combined volume, highest confidence first.
// Reverted buys are ignored.
func (d *SmartMoneySignalDetector) DetectAccumulation(
	profiles []types.SmartMoneyProfile,
	recent map[string][]types.WalletTransaction,
) []types.SmartMoneySignal {
	signals := make([]types.SmartMoneySignal, 0)
	profiles = distinctProfiles(profiles)
	cohort := len(profiles)
	if cohort == 0 {
		return signals
	}

	tally := newProtocolTally()
	for _, profile := range profiles {
		wallet := strings.ToLower(profile.Address)
		for _, tx := range cohortTransactions(profile.Address, recent) {
			if tx.Type != types.TxBuy || !tx.Success {
				continue
			}
			tally.add(tx.Protocol, wallet, tx.Value)
		}
	}

	w := d.weights
	now := d.now().UTC()
	for _, a := range tally.order {
		buyerPct := percent(len(a.wallets), cohort)
		if buyerPct < w.SignalMinBuyerPercent || !(a.volume > w.SignalMinVolume) {
			continue
		}
		signals = append(signals, types.SmartMoneySignal{
			Type:       types.SignalBuy,
			Token:      a.name,
			Confidence: math.Min(buyerPct*w.SignalConfidenceMultiplier, 100),
			Reason: fmt.Sprintf("%d of %d smart wallets (%.0f%%) accumulated %s with $%.0f combined volume",
				len(a.wallets), cohort, buyerPct, a.name, a.volume),
			SmartWallets: a.wallets,
			Volume:       a.volume,
			Timestamp:    now,
		})
	}

	sort.SliceStable(signals, func(i, j int) bool {
		return signals[i].Confidence > signals[j].Confidence
	})
	return signals
}

// TopPerformers returns the most profitable wallets that also clear the win
// rate and ROI bars, best first
func (d *SmartMoneySignalDetector) TopPerformers(profiles []types.SmartMoneyProfile) []types.SmartMoneyProfile {
	w := d.weights
	top := make([]types.SmartMoneyProfile, 0)
	for _, p := range profiles {
		if p.Profitability >= w.TopPerformerProfitability && p.WinRate >= w.TopPerformerWinRate && p.ROI > w.TopPerformerROI {
			top = append(top, p)
		}
	}

	sort.SliceStable(top, func(i, j int) bool {
		return top[i].Profitability > top[j].Profitability
	})
	if w.TopPerformerLimit > 0 && len(top) > w.TopPerformerLimit {
		top = top[:w.TopPerformerLimit]
	}
	return top
}

// PredictAirdropEligibility ranks protocols widely used by the cohort and
// estimates the querying wallet's chance of qualifying for each
func (d *SmartMoneySignalDetector) PredictAirdropEligibility(
	userTxs []types.WalletTransaction,
	profiles []types.SmartMoneyProfile,
	recent map[string][]types.WalletTransaction,
) []types.AirdropPrediction {
	predictions := make([]types.AirdropPrediction, 0)
	profiles = distinctProfiles(profiles)
	cohort := len(profiles)
	if cohort == 0 {
		return predictions
	}

	tally := newProtocolTally()
	for _, profile := range profiles {
		wallet := strings.ToLower(profile.Address)
		for _, tx := range cohortTransactions(profile.Address, recent) {
			tally.add(tx.Protocol, wallet, 0)
		}
	}

	used := make(map[string]bool)
	for _, tx := range userTxs {
		if key := strings.ToLower(strings.TrimSpace(tx.Protocol)); key != "" {
			used[key] = true
		}
	}

	w := d.weights
	adopted := make([]*protocolActivity, 0, len(tally.order))
	for _, a := range tally.order {
		if percent(len(a.wallets), cohort) >= w.AirdropMinAdoption {
			adopted = append(adopted, a)
		}
	}
	sort.SliceStable(adopted, func(i, j int) bool {
		return len(adopted[i].wallets) > len(adopted[j].wallets)
	})
	if w.AirdropLimit > 0 && len(adopted) > w.AirdropLimit {
		adopted = adopted[:w.AirdropLimit]
	}

	for _, a := range adopted {
		adoption := percent(len(a.wallets), cohort)
		interacted := used[strings.ToLower(a.name)]

		prediction := types.AirdropPrediction{
			Protocol:           a.name,
			SmartMoneyAdoption: round2(adoption),
			SmartWalletCount:   len(a.wallets),
			HasInteracted:      interacted,
		}
		if interacted {
			prediction.Probability = w.AirdropUsedProbability
			prediction.Reasoning = fmt.Sprintf("%d of %d smart wallets (%.0f%%) use %s and this wallet already interacted with it",
				len(a.wallets), cohort, adoption, a.name)
		} else {
			prediction.Probability = w.AirdropUnusedProbability
			prediction.Reasoning = fmt.Sprintf("%d of %d smart wallets (%.0f%%) use %s; interacting with it could improve eligibility",
				len(a.wallets), cohort, adoption, a.name)
		}
		predictions = append(predictions, prediction)
	}

	sort.SliceStable(predictions, func(i, j int) bool {
		return predictions[i].Probability > predictions[j].Probability
	})
	return predictions
}
