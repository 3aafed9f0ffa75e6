package api

import (
	"net/http"

	"github.com/wallet-insights/internal/service"
	"github.com/wallet-insights/internal/types"
)

// defaultWhaleThreshold is applied when a whale request omits minValue
const defaultWhaleThreshold = "100000"

// insightsRequest carries raw activity records for one wallet
type insightsRequest struct {
	Address           string                                     `json:"address"`
	Interactions      []types.ProtocolInteraction                `json:"interactions"`
	ChainTransactions map[types.ChainID][]types.ChainTransaction `json:"chainTransactions"`
}

type eligibilityRequest struct {
	insightsRequest
	Projects []types.Project `json:"projects"`
}

type eligibilityResponse struct {
	Address  string                    `json:"address"`
	Snapshot types.ActivitySnapshot    `json:"snapshot"`
	Reports  []types.EligibilityReport `json:"reports"`
}

type whalesRequest struct {
	Transactions []types.WalletTransaction `json:"transactions"`
	MinValue     string                    `json:"minValue"`
}

// handleBuildInsights handles POST /api/insights - build a protocol report
// from request-supplied interactions and transactions
func (s *Server) handleBuildInsights(w http.ResponseWriter, r *http.Request) {
	var req insightsRequest
	if err := parseJSONBody(w, r, &req); err != nil {
		respondBadBody(w, err)
		return
	}
	address, ok := bodyAddress(w, req.Address)
	if !ok {
		return
	}

	insights := s.engine.Aggregator.BuildProtocolInsights(address, req.Interactions, req.ChainTransactions)
	respondJSON(w, http.StatusOK, insights)
}

// handleEligibility handles POST /api/eligibility - score a wallet against
// caller-supplied airdrop projects
func (s *Server) handleEligibility(w http.ResponseWriter, r *http.Request) {
	var req eligibilityRequest
	if err := parseJSONBody(w, r, &req); err != nil {
		respondBadBody(w, err)
		return
	}
	address, ok := bodyAddress(w, req.Address)
	if !ok {
		return
	}

	insights := s.engine.Aggregator.BuildProtocolInsights(address, req.Interactions, req.ChainTransactions)
	snapshot := service.BuildActivitySnapshot(insights)

	respondJSON(w, http.StatusOK, eligibilityResponse{
		Address:  address,
		Snapshot: snapshot,
		Reports:  s.engine.Scorer.EvaluateAll(req.Projects, snapshot),
	})
}

// handleProfile handles POST /api/profile - behavioral profile of one wallet
func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	var req service.WalletActivity
	if err := parseJSONBody(w, r, &req); err != nil {
		respondBadBody(w, err)
		return
	}
	address, ok := bodyAddress(w, req.Address)
	if !ok {
		return
	}

	profile, err := s.engine.Profiler.Profile(address, req.Transactions, normalizeHoldings(req.Holdings))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, profile)
}

// handleWhales handles POST /api/whales - keep transactions at or above minValue
func (s *Server) handleWhales(w http.ResponseWriter, r *http.Request) {
	var req whalesRequest
	if err := parseJSONBody(w, r, &req); err != nil {
		respondBadBody(w, err)
		return
	}
	if req.MinValue == "" {
		req.MinValue = defaultWhaleThreshold
	}

	whales, err := service.FilterWhaleTransactions(req.Transactions, req.MinValue)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"transactions": whales,
		"count":        len(whales),
		"minValue":     req.MinValue,
	})
}

// normalizeHoldings recomputes derived PnL fields so callers only need to
// send balances and prices
func normalizeHoldings(holdings []types.TokenHolding) []types.TokenHolding {
	out := make([]types.TokenHolding, len(holdings))
	for i, h := range holdings {
		out[i] = types.NewTokenHolding(h.Token, h.Balance, h.AvgBuyPrice, h.CurrentPrice)
	}
	return out
}
