package api

import (
	"net/http"

	"github.com/wallet-insights/internal/service"
	"github.com/wallet-insights/internal/types"
)

// cohortRequest carries the activity of a cohort of smart wallets
type cohortRequest struct {
	Wallets []service.WalletActivity `json:"wallets"`
}

type airdropRequest struct {
	UserTransactions []types.WalletTransaction `json:"userTransactions"`
	Wallets          []service.WalletActivity  `json:"wallets"`
}

type correlationRequest struct {
	A []types.WalletTransaction `json:"a"`
	B []types.WalletTransaction `json:"b"`
}

type correlationSearchRequest struct {
	Target   []types.WalletTransaction            `json:"target"`
	Cohort   map[string][]types.WalletTransaction `json:"cohort"`
	MinScore float64                              `json:"minScore"`
}

type storedCohortRequest struct {
	Addresses []string `json:"addresses"`
}

// profileCohort validates the cohort and profiles it on the batch pool. The
// returned map holds each wallet's transactions keyed by normalized address.
// It writes the error response and returns ok=false on failure.
func (s *Server) profileCohort(w http.ResponseWriter, r *http.Request, wallets []service.WalletActivity) (service.BatchResult, map[string][]types.WalletTransaction, bool) {
	if len(wallets) > s.config.MaxCohortSize {
		respondError(w, http.StatusRequestEntityTooLarge, ErrCodeTooLarge, "Too many wallets in request", map[string]interface{}{
			"max": s.config.MaxCohortSize,
		})
		return service.BatchResult{}, nil, false
	}

	recent := make(map[string][]types.WalletTransaction, len(wallets))
	normalized := make([]service.WalletActivity, len(wallets))
	for i, wallet := range wallets {
		address, ok := bodyAddress(w, wallet.Address)
		if !ok {
			return service.BatchResult{}, nil, false
		}
		if _, dup := recent[address]; dup {
			respondDuplicateWallet(w, address)
			return service.BatchResult{}, nil, false
		}
		normalized[i] = service.WalletActivity{
			Address:      address,
			Transactions: wallet.Transactions,
			Holdings:     normalizeHoldings(wallet.Holdings),
		}
		recent[address] = wallet.Transactions
	}

	result, err := s.engine.Batch.ProfileWallets(r.Context(), normalized)
	if err != nil {
		respondServiceError(w, r, err)
		return service.BatchResult{}, nil, false
	}
	return result, recent, true
}

// respondDuplicateWallet rejects a cohort that lists the same wallet twice
func respondDuplicateWallet(w http.ResponseWriter, address string) {
	respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Wallet appears more than once in cohort", map[string]interface{}{
		"address": address,
	})
}

// handleSignals handles POST /api/smart-money/signals - accumulation signals
// across a request-supplied cohort
func (s *Server) handleSignals(w http.ResponseWriter, r *http.Request) {
	var req cohortRequest
	if err := parseJSONBody(w, r, &req); err != nil {
		respondBadBody(w, err)
		return
	}

	result, recent, ok := s.profileCohort(w, r, req.Wallets)
	if !ok {
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"signals": s.engine.Detector.DetectAccumulation(result.Profiles, recent),
		"failed":  result.Failed,
	})
}

// handleTopPerformers handles POST /api/smart-money/top
func (s *Server) handleTopPerformers(w http.ResponseWriter, r *http.Request) {
	var req cohortRequest
	if err := parseJSONBody(w, r, &req); err != nil {
		respondBadBody(w, err)
		return
	}

	result, _, ok := s.profileCohort(w, r, req.Wallets)
	if !ok {
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"performers": s.engine.Detector.TopPerformers(result.Profiles),
		"failed":     result.Failed,
	})
}

// handleAirdrops handles POST /api/smart-money/airdrops - airdrop predictions
// for a wallet against the protocols a cohort uses
func (s *Server) handleAirdrops(w http.ResponseWriter, r *http.Request) {
	var req airdropRequest
	if err := parseJSONBody(w, r, &req); err != nil {
		respondBadBody(w, err)
		return
	}

	result, recent, ok := s.profileCohort(w, r, req.Wallets)
	if !ok {
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"predictions": s.engine.Detector.PredictAirdropEligibility(req.UserTransactions, result.Profiles, recent),
	})
}

// handleCorrelation handles POST /api/correlation - similarity of two wallets
func (s *Server) handleCorrelation(w http.ResponseWriter, r *http.Request) {
	var req correlationRequest
	if err := parseJSONBody(w, r, &req); err != nil {
		respondBadBody(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"score": s.engine.Correlation.Correlation(req.A, req.B),
	})
}

// handleCorrelationSearch handles POST /api/correlation/search - rank a cohort
// by similarity to a target wallet
func (s *Server) handleCorrelationSearch(w http.ResponseWriter, r *http.Request) {
	var req correlationSearchRequest
	if err := parseJSONBody(w, r, &req); err != nil {
		respondBadBody(w, err)
		return
	}
	if len(req.Cohort) > s.config.MaxCohortSize {
		respondError(w, http.StatusRequestEntityTooLarge, ErrCodeTooLarge, "Too many wallets in request", map[string]interface{}{
			"max": s.config.MaxCohortSize,
		})
		return
	}
	if req.MinScore < 0 || req.MinScore > 100 {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "minScore must be between 0 and 100", nil)
		return
	}

	cohort := make(map[string][]types.WalletTransaction, len(req.Cohort))
	for raw, txs := range req.Cohort {
		address, ok := bodyAddress(w, raw)
		if !ok {
			return
		}
		if _, dup := cohort[address]; dup {
			respondDuplicateWallet(w, address)
			return
		}
		cohort[address] = txs
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"wallets": s.engine.Correlation.FindCorrelatedWallets(req.Target, cohort, req.MinScore),
	})
}

// handleCohort handles POST /api/smart-money/cohort - profile stored wallets
// and run every detector over them
func (s *Server) handleCohort(w http.ResponseWriter, r *http.Request) {
	if !s.requireStorage(w) {
		return
	}

	var req storedCohortRequest
	if err := parseJSONBody(w, r, &req); err != nil {
		respondBadBody(w, err)
		return
	}
	if len(req.Addresses) > s.config.MaxCohortSize {
		respondError(w, http.StatusRequestEntityTooLarge, ErrCodeTooLarge, "Too many wallets in request", map[string]interface{}{
			"max": s.config.MaxCohortSize,
		})
		return
	}

	addresses := make([]string, 0, len(req.Addresses))
	for _, raw := range req.Addresses {
		address, ok := bodyAddress(w, raw)
		if !ok {
			return
		}
		addresses = append(addresses, address)
	}

	cohort, err := s.insights.ProfileCohort(r.Context(), addresses)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"profiles":   cohort.Profiles,
		"signals":    s.engine.Detector.DetectAccumulation(cohort.Profiles, cohort.Recent),
		"performers": s.engine.Detector.TopPerformers(cohort.Profiles),
		"failed":     cohort.Failed,
	})
}
