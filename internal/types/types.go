// Package types provides common type definitions for the wallet insights system.
package types

import "fmt"

// UserTier represents the service tier level
type UserTier string

const (
	// TierFree represents the free service tier with limited features
	TierFree UserTier = "free"
	// TierPaid represents the paid service tier with full features
	TierPaid UserTier = "paid"
)

// ChainID represents a supported blockchain network by its EVM chain id
type ChainID int

const (
	// ChainEthereum represents the Ethereum mainnet
	ChainEthereum ChainID = 1
	// ChainOptimism represents the Optimism network
	ChainOptimism ChainID = 10
	// ChainBNB represents the BNB Chain (BSC)
	ChainBNB ChainID = 56
	// ChainPolygon represents the Polygon network
	ChainPolygon ChainID = 137
	// ChainZkSync represents zkSync Era
	ChainZkSync ChainID = 324
	// ChainBase represents the Base network
	ChainBase ChainID = 8453
	// ChainArbitrum represents the Arbitrum One network
	ChainArbitrum ChainID = 42161
	// ChainLinea represents the Linea network
	ChainLinea ChainID = 59144
	// ChainScroll represents the Scroll network
	ChainScroll ChainID = 534352
)

var chainNames = map[ChainID]string{
	ChainEthereum: "Ethereum",
	ChainOptimism: "Optimism",
	ChainBNB:      "BNB Chain",
	ChainPolygon:  "Polygon",
	ChainZkSync:   "zkSync Era",
	ChainBase:     "Base",
	ChainArbitrum: "Arbitrum",
	ChainLinea:    "Linea",
	ChainScroll:   "Scroll",
}

// Name returns the display name of the chain, or "Chain <id>" for unknown ids
func (c ChainID) Name() string {
	if name, ok := chainNames[c]; ok {
		return name
	}
	return fmt.Sprintf("Chain %d", int(c))
}

// Known reports whether the chain id is one of the supported networks
func (c ChainID) Known() bool {
	_, ok := chainNames[c]
	return ok
}

// ServiceError represents a structured error response
type ServiceError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func (e *ServiceError) Error() string {
	return e.Message
}
