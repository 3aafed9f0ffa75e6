package service

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/wallet-insights/internal/catalog"
	"github.com/wallet-insights/internal/types"
)

// timelineNamespace scopes deterministic timeline entry ids
var timelineNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("wallet-insights/timeline"))

// ProtocolResolver resolves contract addresses to protocol metadata
type ProtocolResolver interface {
	Lookup(address string) (types.ProtocolMetadata, bool)
}

// ActivityAggregator turns raw interaction and transaction records into
// breakdown, timeline, monthly activity and focus area views
type ActivityAggregator struct {
	catalog ProtocolResolver
	weights ScoringWeights
	now     func() time.Time
}

// NewActivityAggregator creates a new activity aggregator
func NewActivityAggregator(resolver ProtocolResolver, weights ScoringWeights) *ActivityAggregator {
	return &ActivityAggregator{
		catalog: resolver,
		weights: weights,
		now:     time.Now,
	}
}

// WithClock replaces the time source used for generatedAt and the new-protocol window
func (a *ActivityAggregator) WithClock(now func() time.Time) *ActivityAggregator {
	a.now = now
	return a
}

// BuildProtocolBreakdown resolves every interaction against the catalog.
// Unknown contracts keep their reported name and fall into the other category.
func (a *ActivityAggregator) BuildProtocolBreakdown(interactions []types.ProtocolInteraction) []types.ProtocolBreakdownEntry {
	breakdown := make([]types.ProtocolBreakdownEntry, 0, len(interactions))

	for _, in := range interactions {
		entry := types.ProtocolBreakdownEntry{
			Protocol:         in.Protocol,
			ContractAddress:  strings.ToLower(in.ContractAddress),
			ChainID:          in.ChainID,
			ChainName:        in.ChainID.Name(),
			Category:         types.CategoryOther,
			InteractionCount: in.InteractionCount,
			FirstInteraction: in.FirstInteraction,
			LastInteraction:  in.LastInteraction,
			DaysActive:       daysActive(in.FirstInteraction, in.LastInteraction),
		}
		if entry.InteractionCount < 0 {
			entry.InteractionCount = 0
		}

		if meta, ok := a.catalog.Lookup(in.ContractAddress); ok {
			entry.Category = meta.Category
			entry.Tags = meta.Tags
			if entry.Protocol == "" {
				entry.Protocol = meta.Name
			}
		}
		if entry.Protocol == "" {
			entry.Protocol = entry.ContractAddress
		}

		breakdown = append(breakdown, entry)
	}

	return breakdown
}

func daysActive(first, last *time.Time) int {
	if first == nil || last == nil {
		return 0
	}
	days := math.Round(last.Sub(*first).Hours() / 24)
	if days < 0 {
		return 0
	}
	return int(days)
}

// BuildTimeline emits one entry per transaction sent to a cataloged contract,
// newest first, truncated to the configured limit.
// Transactions to uncataloged addresses or without a block time are dropped.
func (a *ActivityAggregator) BuildTimeline(chainTransactions map[types.ChainID][]types.ChainTransaction) []types.TimelineEntry {
	chains := make([]types.ChainID, 0, len(chainTransactions))
	for chainID := range chainTransactions {
		chains = append(chains, chainID)
	}
	sort.Slice(chains, func(i, j int) bool { return chains[i] < chains[j] })

	var timeline []types.TimelineEntry
	for _, chainID := range chains {
		chainName := chainID.Name()
		for _, tx := range chainTransactions[chainID] {
			if tx.BlockSignedAt == nil {
				continue
			}
			meta, ok := a.catalog.Lookup(tx.ToAddress)
			if !ok {
				continue
			}

			timeline = append(timeline, types.TimelineEntry{
				ID:          timelineEntryID(chainID, tx.TxHash),
				TxHash:      tx.TxHash,
				Date:        tx.BlockSignedAt.UTC(),
				Protocol:    meta.Name,
				Category:    meta.Category,
				ChainID:     chainID,
				ChainName:   chainName,
				Description: fmt.Sprintf("Interacted with %s on %s", meta.Name, chainName),
			})
		}
	}

	// Sort by date descending, hash descending on ties, then chain id
	sort.SliceStable(timeline, func(i, j int) bool {
		if !timeline[i].Date.Equal(timeline[j].Date) {
			return timeline[i].Date.After(timeline[j].Date)
		}
		if timeline[i].TxHash != timeline[j].TxHash {
			return timeline[i].TxHash > timeline[j].TxHash
		}
		return timeline[i].ChainID < timeline[j].ChainID
	})

	if limit := a.weights.TimelineLimit; limit > 0 && len(timeline) > limit {
		timeline = timeline[:limit]
	}
	if timeline == nil {
		timeline = []types.TimelineEntry{}
	}

	return timeline
}

func timelineEntryID(chainID types.ChainID, txHash string) string {
	name := fmt.Sprintf("%d:%s", int(chainID), strings.ToLower(txHash))
	return uuid.NewSHA1(timelineNamespace, []byte(name)).String()
}

// BuildMonthlyActivity buckets timeline entries by UTC calendar month and keeps
// the most recent buckets in ascending order
func (a *ActivityAggregator) BuildMonthlyActivity(timeline []types.TimelineEntry) []types.MonthlyActivity {
	type bucket struct {
		count     int
		protocols map[string]struct{}
	}
	buckets := make(map[string]*bucket)

	for _, entry := range timeline {
		key := entry.Date.UTC().Format("2006-01")
		b, ok := buckets[key]
		if !ok {
			b = &bucket{protocols: make(map[string]struct{})}
			buckets[key] = b
		}
		b.count++
		b.protocols[entry.Protocol] = struct{}{}
	}

	months := make([]string, 0, len(buckets))
	for key := range buckets {
		months = append(months, key)
	}
	sort.Strings(months)

	if limit := a.weights.MonthlyLimit; limit > 0 && len(months) > limit {
		months = months[len(months)-limit:]
	}

	monthly := make([]types.MonthlyActivity, 0, len(months))
	for _, key := range months {
		monthly = append(monthly, types.MonthlyActivity{
			Month:            key,
			InteractionCount: buckets[key].count,
			UniqueProtocols:  len(buckets[key].protocols),
		})
	}
	return monthly
}

// BuildFocusAreas reports engagement for every known category, including
// categories with no activity
func (a *ActivityAggregator) BuildFocusAreas(breakdown []types.ProtocolBreakdownEntry) []types.FocusArea {
	interactions := make(map[types.Category]int, len(types.AllCategories))
	protocols := make(map[types.Category]map[string]struct{}, len(types.AllCategories))
	for _, c := range types.AllCategories {
		protocols[c] = make(map[string]struct{})
	}

	for _, entry := range breakdown {
		category := entry.Category
		if !category.Valid() {
			category = types.CategoryOther
		}
		interactions[category] += entry.InteractionCount
		if entry.InteractionCount > 0 {
			protocols[category][entry.Protocol] = struct{}{}
		}
	}

	areas := make([]types.FocusArea, 0, len(types.AllCategories))
	for _, c := range types.AllCategories {
		areas = append(areas, types.FocusArea{
			Category:        c,
			Label:           catalog.CategoryLabel(c),
			Interactions:    interactions[c],
			UniqueProtocols: len(protocols[c]),
			Status:          a.focusStatus(interactions[c]),
			Recommendation:  catalog.Recommendation(c),
		})
	}
	return areas
}

func (a *ActivityAggregator) focusStatus(interactions int) types.FocusStatus {
	switch {
	case interactions >= a.weights.StrongFocusThreshold:
		return types.FocusStrong
	case interactions > 0:
		return types.FocusNeedsAttention
	default:
		return types.FocusMissing
	}
}

// BuildProtocolInsights runs every aggregation for a wallet and computes the summary
func (a *ActivityAggregator) BuildProtocolInsights(
	address string,
	interactions []types.ProtocolInteraction,
	chainTransactions map[types.ChainID][]types.ChainTransaction,
) types.ProtocolInsights {
	now := a.now().UTC()

	breakdown := a.BuildProtocolBreakdown(interactions)
	timeline := a.BuildTimeline(chainTransactions)
	focusAreas := a.BuildFocusAreas(breakdown)
	monthly := a.BuildMonthlyActivity(timeline)

	return types.ProtocolInsights{
		Address:         strings.ToLower(address),
		Summary:         a.summarize(now, breakdown, timeline, focusAreas),
		Breakdown:       breakdown,
		Timeline:        timeline,
		FocusAreas:      focusAreas,
		MonthlyActivity: monthly,
		GeneratedAt:     now,
	}
}

func (a *ActivityAggregator) summarize(
	now time.Time,
	breakdown []types.ProtocolBreakdownEntry,
	timeline []types.TimelineEntry,
	focusAreas []types.FocusArea,
) types.InsightsSummary {
	var summary types.InsightsSummary

	// earliest first interaction per protocol name
	firstSeen := make(map[string]*time.Time)
	for _, entry := range breakdown {
		summary.TotalInteractions += entry.InteractionCount

		prev, seen := firstSeen[entry.Protocol]
		if !seen {
			firstSeen[entry.Protocol] = entry.FirstInteraction
			continue
		}
		if entry.FirstInteraction != nil && (prev == nil || entry.FirstInteraction.Before(*prev)) {
			firstSeen[entry.Protocol] = entry.FirstInteraction
		}
	}
	summary.TotalProtocols = len(firstSeen)

	cutoff := now.Add(-a.weights.NewProtocolWindow)
	for _, first := range firstSeen {
		if first != nil && !first.Before(cutoff) {
			summary.NewProtocolsLast30Days++
		}
	}

	denominator := summary.TotalProtocols
	if denominator < 1 {
		denominator = 1
	}
	summary.AvgInteractionsPerProtocol = round2(float64(summary.TotalInteractions) / float64(denominator))

	best := 0
	for _, area := range focusAreas {
		if area.Interactions <= 0 {
			continue
		}
		summary.ActiveCategories++
		if area.Interactions > best {
			best = area.Interactions
			category := area.Category
			summary.MostActiveCategory = &category
		}
	}

	if len(timeline) > 0 {
		last := timeline[0].Date
		summary.LastActivity = &last
	}

	return summary
}
