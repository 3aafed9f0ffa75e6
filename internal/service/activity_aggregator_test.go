package service

import (
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wallet-insights/internal/types"
)

func TestBuildProtocolBreakdown(t *testing.T) {
	agg := newTestAggregator()
	first := testNow.Add(-10 * 24 * time.Hour)
	last := testNow.Add(-1 * 24 * time.Hour)

	breakdown := agg.BuildProtocolBreakdown([]types.ProtocolInteraction{
		{ContractAddress: "0x7A250D5630B4CF539739DF2C5DACB4C659F2488D", ChainID: types.ChainEthereum, InteractionCount: 4, FirstInteraction: &first, LastInteraction: &last},
		{Protocol: "Mystery", ContractAddress: uncataloged, ChainID: types.ChainBase, InteractionCount: 2},
		{ContractAddress: uncataloged, ChainID: types.ChainID(999), InteractionCount: -3},
	})

	require.Len(t, breakdown, 3)

	assert.Equal(t, "Uniswap V2", breakdown[0].Protocol)
	assert.Equal(t, uniswapV2, breakdown[0].ContractAddress)
	assert.Equal(t, types.CategoryDEX, breakdown[0].Category)
	assert.Equal(t, "Ethereum", breakdown[0].ChainName)
	assert.Equal(t, 9, breakdown[0].DaysActive)
	assert.Contains(t, breakdown[0].Tags, "amm")

	assert.Equal(t, "Mystery", breakdown[1].Protocol)
	assert.Equal(t, types.CategoryOther, breakdown[1].Category)
	assert.Equal(t, 0, breakdown[1].DaysActive)

	assert.Equal(t, uncataloged, breakdown[2].Protocol)
	assert.Equal(t, 0, breakdown[2].InteractionCount)
	assert.Equal(t, "Chain 999", breakdown[2].ChainName)
}

func TestBuildTimeline(t *testing.T) {
	agg := newTestAggregator()
	t1 := testNow.Add(-3 * time.Hour)
	t2 := testNow.Add(-2 * time.Hour)

	timeline := agg.BuildTimeline(map[types.ChainID][]types.ChainTransaction{
		types.ChainEthereum: {
			chainTx("0xaaa", uniswapV2, t1),
			chainTx("0xbbb", uncataloged, t2),
			{TxHash: "0xccc", ToAddress: uniswapV2},
		},
		types.ChainArbitrum: {
			chainTx("0xddd", stargate, t2),
		},
	})

	require.Len(t, timeline, 2)
	assert.Equal(t, "0xddd", timeline[0].TxHash)
	assert.Equal(t, "Stargate", timeline[0].Protocol)
	assert.Equal(t, types.CategoryBridge, timeline[0].Category)
	assert.Equal(t, "Interacted with Stargate on Arbitrum", timeline[0].Description)
	assert.Equal(t, "0xaaa", timeline[1].TxHash)
	assert.Equal(t, "Interacted with Uniswap V2 on Ethereum", timeline[1].Description)
	assert.NotEqual(t, timeline[0].ID, timeline[1].ID)
}

func TestBuildTimeline_TiesAndIDs(t *testing.T) {
	agg := newTestAggregator()
	at := testNow.Add(-time.Hour)

	input := map[types.ChainID][]types.ChainTransaction{
		types.ChainBase:     {chainTx("0x01", uniswapV2, at)},
		types.ChainEthereum: {chainTx("0x01", uniswapV2, at), chainTx("0x02", uniswapV2, at)},
	}
	timeline := agg.BuildTimeline(input)

	require.Len(t, timeline, 3)
	assert.Equal(t, "0x02", timeline[0].TxHash)
	assert.Equal(t, types.ChainEthereum, timeline[1].ChainID)
	assert.Equal(t, types.ChainBase, timeline[2].ChainID)

	again := agg.BuildTimeline(input)
	assert.Equal(t, timeline[0].ID, again[0].ID)
	assert.NotEqual(t, timeline[1].ID, timeline[2].ID)
}

func TestBuildTimeline_Empty(t *testing.T) {
	agg := newTestAggregator()

	timeline := agg.BuildTimeline(nil)
	assert.NotNil(t, timeline)
	assert.Empty(t, timeline)
}

func TestBuildMonthlyActivity(t *testing.T) {
	agg := newTestAggregator()
	timeline := []types.TimelineEntry{
		{Protocol: "Uniswap V2", Date: time.Date(2024, 5, 31, 23, 0, 0, 0, time.UTC)},
		{Protocol: "Stargate", Date: time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)},
		{Protocol: "Uniswap V2", Date: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)},
		{Protocol: "Aave V3", Date: time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)},
	}

	monthly := agg.BuildMonthlyActivity(timeline)

	require.Len(t, monthly, 2)
	assert.Equal(t, types.MonthlyActivity{Month: "2024-03", InteractionCount: 1, UniqueProtocols: 1}, monthly[0])
	assert.Equal(t, types.MonthlyActivity{Month: "2024-05", InteractionCount: 3, UniqueProtocols: 2}, monthly[1])
}

func TestBuildMonthlyActivity_KeepsMostRecentMonths(t *testing.T) {
	agg := newTestAggregator()
	var timeline []types.TimelineEntry
	for m := 0; m < 15; m++ {
		timeline = append(timeline, types.TimelineEntry{
			Protocol: "Uniswap V2",
			Date:     time.Date(2023, time.January+time.Month(m), 5, 0, 0, 0, 0, time.UTC),
		})
	}

	monthly := agg.BuildMonthlyActivity(timeline)

	require.Len(t, monthly, 12)
	assert.Equal(t, "2023-04", monthly[0].Month)
	assert.Equal(t, "2024-03", monthly[11].Month)
}

func TestBuildFocusAreas(t *testing.T) {
	agg := newTestAggregator()

	areas := agg.BuildFocusAreas([]types.ProtocolBreakdownEntry{
		{Protocol: "Uniswap V2", Category: types.CategoryDEX, InteractionCount: 6},
		{Protocol: "Uniswap V3", Category: types.CategoryDEX, InteractionCount: 4},
		{Protocol: "Stargate", Category: types.CategoryBridge, InteractionCount: 3},
		{Protocol: "Odd", Category: types.Category("gaming"), InteractionCount: 1},
		{Protocol: "Idle", Category: types.CategoryDeFi, InteractionCount: 0},
	})

	require.Len(t, areas, len(types.AllCategories))
	byCategory := make(map[types.Category]types.FocusArea)
	for _, a := range areas {
		byCategory[a.Category] = a
	}

	assert.Equal(t, types.FocusStrong, byCategory[types.CategoryDEX].Status)
	assert.Equal(t, 2, byCategory[types.CategoryDEX].UniqueProtocols)
	assert.Equal(t, types.FocusNeedsAttention, byCategory[types.CategoryBridge].Status)
	assert.Equal(t, types.FocusNeedsAttention, byCategory[types.CategoryOther].Status)
	assert.Equal(t, types.FocusMissing, byCategory[types.CategoryDeFi].Status)
	assert.Equal(t, 0, byCategory[types.CategoryDeFi].UniqueProtocols)
	assert.NotEmpty(t, byCategory[types.CategoryNFT].Label)
	assert.NotEmpty(t, byCategory[types.CategoryNFT].Recommendation)
}

func TestBuildFocusAreas_EmptyBreakdown(t *testing.T) {
	areas := newTestAggregator().BuildFocusAreas(nil)

	require.Len(t, areas, 8)
	for i, a := range areas {
		assert.Equal(t, types.AllCategories[i], a.Category)
		assert.Equal(t, types.FocusMissing, a.Status)
	}
}

func TestBuildProtocolInsights(t *testing.T) {
	agg := newTestAggregator()
	recent := testNow.Add(-5 * 24 * time.Hour)
	old := testNow.Add(-90 * 24 * time.Hour)

	insights := agg.BuildProtocolInsights("0xABCDEF0000000000000000000000000000000001",
		[]types.ProtocolInteraction{
			{ContractAddress: uniswapV2, ChainID: types.ChainEthereum, InteractionCount: 8, FirstInteraction: &old, LastInteraction: &recent},
			{ContractAddress: uniswapV2, ChainID: types.ChainBase, InteractionCount: 4, FirstInteraction: &recent, LastInteraction: &recent},
			{ContractAddress: stargate, ChainID: types.ChainArbitrum, InteractionCount: 3, FirstInteraction: &recent, LastInteraction: &recent},
		},
		map[types.ChainID][]types.ChainTransaction{
			types.ChainEthereum: {chainTx("0x01", uniswapV2, recent), chainTx("0x02", uniswapV2, old)},
		},
	)

	assert.Equal(t, "0xabcdef0000000000000000000000000000000001", insights.Address)
	assert.Equal(t, testNow, insights.GeneratedAt)

	s := insights.Summary
	assert.Equal(t, 2, s.TotalProtocols)
	assert.Equal(t, 15, s.TotalInteractions)
	assert.Equal(t, 2, s.ActiveCategories)
	assert.Equal(t, 1, s.NewProtocolsLast30Days)
	assert.Equal(t, 7.5, s.AvgInteractionsPerProtocol)
	require.NotNil(t, s.MostActiveCategory)
	assert.Equal(t, types.CategoryDEX, *s.MostActiveCategory)
	require.NotNil(t, s.LastActivity)
	assert.Equal(t, recent, *s.LastActivity)

	assert.Len(t, insights.Timeline, 2)
	assert.Len(t, insights.FocusAreas, 8)
	assert.Len(t, insights.MonthlyActivity, 2)
}

func TestBuildProtocolInsights_NoActivity(t *testing.T) {
	insights := newTestAggregator().BuildProtocolInsights(testWallet, nil, nil)

	s := insights.Summary
	assert.Zero(t, s.TotalProtocols)
	assert.Zero(t, s.AvgInteractionsPerProtocol)
	assert.Nil(t, s.MostActiveCategory)
	assert.Nil(t, s.LastActivity)
	assert.Empty(t, insights.Timeline)
	assert.Empty(t, insights.MonthlyActivity)
	assert.Len(t, insights.FocusAreas, 8)
}

func TestMostActiveCategory_TieKeepsEnumerationOrder(t *testing.T) {
	insights := newTestAggregator().BuildProtocolInsights(testWallet, []types.ProtocolInteraction{
		{ContractAddress: stargate, ChainID: types.ChainEthereum, InteractionCount: 5},
		{ContractAddress: uniswapV2, ChainID: types.ChainEthereum, InteractionCount: 5},
	}, nil)

	require.NotNil(t, insights.Summary.MostActiveCategory)
	assert.Equal(t, types.CategoryDEX, *insights.Summary.MostActiveCategory)
}

var (
	cataloged = []string{uniswapV2, uniswapV3, stargate, aaveV3, multicall3, uncataloged}
	chains    = []types.ChainID{types.ChainEthereum, types.ChainBase, types.ChainArbitrum}
)

type txSeed struct {
	Target int
	Hours  int
	Chain  int
}

func genChainTransactions() gopter.Gen {
	return gen.SliceOf(gen.Struct(reflect.TypeOf(txSeed{}), map[string]gopter.Gen{
		"Target": gen.IntRange(0, len(cataloged)-1),
		"Hours":  gen.IntRange(0, 24*800),
		"Chain":  gen.IntRange(0, len(chains)-1),
	})).Map(func(seeds []txSeed) map[types.ChainID][]types.ChainTransaction {
		out := make(map[types.ChainID][]types.ChainTransaction)
		for i, s := range seeds {
			at := testNow.Add(-time.Duration(s.Hours) * time.Hour)
			chain := chains[s.Chain]
			out[chain] = append(out[chain], chainTx(fmt.Sprintf("0x%04x", i), cataloged[s.Target], at))
		}
		return out
	})
}

func TestAggregatorProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.MaxSize = 150
	properties := gopter.NewProperties(parameters)
	agg := newTestAggregator()

	properties.Property("timeline is bounded and newest first", prop.ForAll(
		func(txs map[types.ChainID][]types.ChainTransaction) bool {
			timeline := agg.BuildTimeline(txs)
			return len(timeline) <= 50 && isNonIncreasing(timeline)
		},
		genChainTransactions(),
	))

	properties.Property("monthly activity is bounded and ascending", prop.ForAll(
		func(txs map[types.ChainID][]types.ChainTransaction) bool {
			monthly := agg.BuildMonthlyActivity(agg.BuildTimeline(txs))
			if len(monthly) > 12 {
				return false
			}
			for i := 1; i < len(monthly); i++ {
				if monthly[i-1].Month >= monthly[i].Month {
					return false
				}
			}
			return true
		},
		genChainTransactions(),
	))

	properties.Property("focus areas cover every category", prop.ForAll(
		func(counts []int) bool {
			var breakdown []types.ProtocolBreakdownEntry
			for i, c := range counts {
				breakdown = append(breakdown, types.ProtocolBreakdownEntry{
					Protocol:         fmt.Sprintf("p%d", i),
					Category:         types.AllCategories[i%len(types.AllCategories)],
					InteractionCount: c,
				})
			}
			areas := agg.BuildFocusAreas(breakdown)
			if len(areas) != len(types.AllCategories) {
				return false
			}
			for i, a := range areas {
				if a.Category != types.AllCategories[i] {
					return false
				}
				if (a.Interactions == 0) != (a.Status == types.FocusMissing) {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.IntRange(0, 30)),
	))

	properties.TestingRun(t)
}

func isNonIncreasing(timeline []types.TimelineEntry) bool {
	for i := 1; i < len(timeline); i++ {
		if timeline[i].Date.After(timeline[i-1].Date) {
			return false
		}
	}
	return true
}
