package catalog

import "github.com/wallet-insights/internal/types"

// CategoryInfo describes a category for display
type CategoryInfo struct {
	Category       types.Category `json:"category"`
	Label          string         `json:"label"`
	Recommendation string         `json:"recommendation"`
}

var categoryLabels = map[types.Category]string{
	types.CategoryDEX:            "DEX",
	types.CategoryBridge:         "Bridge",
	types.CategoryDeFi:           "DeFi",
	types.CategoryRestaking:      "Restaking",
	types.CategoryNFT:            "NFT",
	types.CategoryInfrastructure: "Infrastructure",
	types.CategoryTooling:        "Tooling",
	types.CategoryOther:          "Other",
}

var recommendations = map[types.Category]string{
	types.CategoryDEX:            "Swap on a major DEX to build a trading history",
	types.CategoryBridge:         "Bridge assets to an L2 to show cross-chain activity",
	types.CategoryDeFi:           "Supply or borrow on a lending protocol",
	types.CategoryRestaking:      "Restake ETH through a restaking protocol",
	types.CategoryNFT:            "Mint or trade an NFT on a marketplace",
	types.CategoryInfrastructure: "Register a name or deploy a smart account",
	types.CategoryTooling:        "Use on-chain tooling such as batch transfers or permits",
	types.CategoryOther:          "Explore newer protocols outside the main categories",
}

// CategoryLabel returns the display label of a category
func CategoryLabel(category types.Category) string {
	if label, ok := categoryLabels[category]; ok {
		return label
	}
	return categoryLabels[types.CategoryOther]
}

// Recommendation returns the fixed activity recommendation for a category
func Recommendation(category types.Category) string {
	if rec, ok := recommendations[category]; ok {
		return rec
	}
	return recommendations[types.CategoryOther]
}

// Categories lists every category in display order
func Categories() []CategoryInfo {
	out := make([]CategoryInfo, 0, len(types.AllCategories))
	for _, c := range types.AllCategories {
		out = append(out, CategoryInfo{
			Category:       c,
			Label:          CategoryLabel(c),
			Recommendation: Recommendation(c),
		})
	}
	return out
}
