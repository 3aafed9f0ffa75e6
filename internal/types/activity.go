package types

import "time"

// Category represents the kind of protocol a contract belongs to
type Category string

const (
	CategoryDEX            Category = "dex"
	CategoryBridge         Category = "bridge"
	CategoryDeFi           Category = "defi"
	CategoryRestaking      Category = "restaking"
	CategoryNFT            Category = "nft"
	CategoryInfrastructure Category = "infrastructure"
	CategoryTooling        Category = "tooling"
	CategoryOther          Category = "other"
)

// AllCategories is the fixed category enumeration in display order.
// Focus areas are always reported for every entry of this list.
var AllCategories = []Category{
	CategoryDEX,
	CategoryBridge,
	CategoryDeFi,
	CategoryRestaking,
	CategoryNFT,
	CategoryInfrastructure,
	CategoryTooling,
	CategoryOther,
}

// Valid reports whether c is one of the known categories
func (c Category) Valid() bool {
	for _, known := range AllCategories {
		if c == known {
			return true
		}
	}
	return false
}

// ProtocolMetadata describes a cataloged protocol contract
type ProtocolMetadata struct {
	Name     string   `json:"name"`
	Category Category `json:"category"`
	Tags     []string `json:"tags,omitempty"`
}

// ProtocolInteraction summarizes a wallet's usage of one protocol contract on one chain
type ProtocolInteraction struct {
	Protocol         string     `json:"protocol"`
	ContractAddress  string     `json:"contractAddress"`
	ChainID          ChainID    `json:"chainId"`
	InteractionCount int        `json:"interactionCount"`
	FirstInteraction *time.Time `json:"firstInteraction,omitempty"`
	LastInteraction  *time.Time `json:"lastInteraction,omitempty"`
}

// ChainTransaction is a raw provider transaction record for one chain.
// Field names follow the upstream provider payload.
type ChainTransaction struct {
	TxHash        string     `json:"tx_hash"`
	FromAddress   string     `json:"from_address,omitempty"`
	ToAddress     string     `json:"to_address"`
	BlockSignedAt *time.Time `json:"block_signed_at"`
	Successful    *bool      `json:"successful,omitempty"`
	Value         string     `json:"value,omitempty"`
}

// ProtocolBreakdownEntry is a protocol interaction resolved against the catalog
type ProtocolBreakdownEntry struct {
	Protocol         string     `json:"protocol"`
	ContractAddress  string     `json:"contractAddress"`
	ChainID          ChainID    `json:"chainId"`
	ChainName        string     `json:"chainName"`
	Category         Category   `json:"category"`
	Tags             []string   `json:"tags,omitempty"`
	InteractionCount int        `json:"interactionCount"`
	FirstInteraction *time.Time `json:"firstInteraction,omitempty"`
	LastInteraction  *time.Time `json:"lastInteraction,omitempty"`
	DaysActive       int        `json:"daysActive"`
}

// TimelineEntry is a single cataloged protocol interaction on the activity timeline
type TimelineEntry struct {
	ID          string    `json:"id"`
	TxHash      string    `json:"txHash"`
	Date        time.Time `json:"date"`
	Protocol    string    `json:"protocol"`
	Category    Category  `json:"category"`
	ChainID     ChainID   `json:"chainId"`
	ChainName   string    `json:"chainName"`
	Description string    `json:"description"`
}

// FocusStatus represents how well a category is covered by a wallet
type FocusStatus string

const (
	// FocusStrong means 10 or more interactions in the category
	FocusStrong FocusStatus = "strong"
	// FocusNeedsAttention means between 1 and 9 interactions
	FocusNeedsAttention FocusStatus = "needs_attention"
	// FocusMissing means no interactions at all
	FocusMissing FocusStatus = "missing"
)

// FocusArea is the aggregate engagement of a wallet with one category
type FocusArea struct {
	Category        Category    `json:"category"`
	Label           string      `json:"label"`
	Interactions    int         `json:"interactions"`
	UniqueProtocols int         `json:"uniqueProtocols"`
	Status          FocusStatus `json:"status"`
	Recommendation  string      `json:"recommendation"`
}

// MonthlyActivity buckets timeline entries by calendar month
type MonthlyActivity struct {
	Month            string `json:"month"` // YYYY-MM
	InteractionCount int    `json:"interactionCount"`
	UniqueProtocols  int    `json:"uniqueProtocols"`
}

// InsightsSummary holds the headline numbers of a wallet's protocol activity
type InsightsSummary struct {
	TotalProtocols             int        `json:"totalProtocols"`
	TotalInteractions          int        `json:"totalInteractions"`
	ActiveCategories           int        `json:"activeCategories"`
	NewProtocolsLast30Days     int        `json:"newProtocolsLast30Days"`
	AvgInteractionsPerProtocol float64    `json:"avgInteractionsPerProtocol"`
	MostActiveCategory         *Category  `json:"mostActiveCategory,omitempty"`
	LastActivity               *time.Time `json:"lastActivity,omitempty"`
}

// ProtocolInsights is the full activity report for a wallet
type ProtocolInsights struct {
	Address         string                   `json:"address"`
	Summary         InsightsSummary          `json:"summary"`
	Breakdown       []ProtocolBreakdownEntry `json:"breakdown"`
	Timeline        []TimelineEntry          `json:"timeline"`
	FocusAreas      []FocusArea              `json:"focusAreas"`
	MonthlyActivity []MonthlyActivity        `json:"monthlyActivity"`
	GeneratedAt     time.Time                `json:"generatedAt"`
}

// CriterionResult reports whether a single eligibility criterion was met
type CriterionResult struct {
	Description string `json:"description"`
	Met         bool   `json:"met"`
}

// EligibilityReport is the scored eligibility of a wallet for one tracked project
type EligibilityReport struct {
	ProjectID string            `json:"projectId"`
	Name      string            `json:"name"`
	Status    string            `json:"status"`
	Score     int               `json:"score"`
	Criteria  []CriterionResult `json:"criteria"`
}
