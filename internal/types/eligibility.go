package types

// CriterionKind selects the checker that evaluates a criterion
type CriterionKind string

const (
	// CriterionMinInteractions requires Params.Min total interactions
	CriterionMinInteractions CriterionKind = "min_interactions"
	// CriterionCategoryInteractions requires Params.Min interactions in Params.Category
	CriterionCategoryInteractions CriterionKind = "category_interactions"
	// CriterionMinProtocols requires Params.Min distinct protocols
	CriterionMinProtocols CriterionKind = "min_protocols"
	// CriterionMinActiveMonths requires Params.Min months with activity
	CriterionMinActiveMonths CriterionKind = "min_active_months"
	// CriterionUsedProtocol requires at least max(Params.Min,1) interactions with Params.Protocol
	CriterionUsedProtocol CriterionKind = "used_protocol"
	// CriterionMinChains requires activity on Params.Min distinct chains
	CriterionMinChains CriterionKind = "min_chains"
	// CriterionActiveCategories requires Params.Min categories with activity
	CriterionActiveCategories CriterionKind = "active_categories"
)

// CriterionParams carries the arguments of a criterion; each kind reads the fields it needs
type CriterionParams struct {
	Protocol string   `json:"protocol,omitempty"`
	Category Category `json:"category,omitempty"`
	Min      int      `json:"min,omitempty"`
}

// Criterion is a single declarative eligibility rule
type Criterion struct {
	Kind        CriterionKind   `json:"kind"`
	Description string          `json:"description"`
	Params      CriterionParams `json:"params"`
}

// Project is a tracked airdrop project and its eligibility rules
type Project struct {
	ID       string      `json:"id"`
	Name     string      `json:"name"`
	Status   string      `json:"status"`
	Criteria []Criterion `json:"criteria"`
}

// ActivitySnapshot is the aggregated view of a wallet that criteria are evaluated against
type ActivitySnapshot struct {
	TotalInteractions int              `json:"totalInteractions"`
	UniqueProtocols   int              `json:"uniqueProtocols"`
	ActiveCategories  int              `json:"activeCategories"`
	ActiveMonths      int              `json:"activeMonths"`
	Protocols         map[string]int   `json:"protocols"` // lowercase protocol name -> interactions
	Categories        map[Category]int `json:"categories"`
	Chains            map[ChainID]int  `json:"chains"`
}

// WalletCorrelation is the behavioral similarity of a wallet to a reference wallet
type WalletCorrelation struct {
	Address string  `json:"address"`
	Score   float64 `json:"score"` // 0-100
}
