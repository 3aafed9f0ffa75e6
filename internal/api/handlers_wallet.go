package api

import (
	"net/http"

	"github.com/wallet-insights/internal/service"
)

// requireStorage answers 503 when the server runs without an activity store
func (s *Server) requireStorage(w http.ResponseWriter) bool {
	if s.insights == nil {
		respondError(w, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "Activity storage is not configured", nil)
		return false
	}
	return true
}

// handleWalletInsights handles GET /api/wallets/{address}/insights
func (s *Server) handleWalletInsights(w http.ResponseWriter, r *http.Request) {
	if !s.requireStorage(w) {
		return
	}
	address, ok := pathAddress(w, r)
	if !ok {
		return
	}

	insights, err := s.insights.GetInsights(r.Context(), address)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, insights)
}

// handleWalletProfile handles GET /api/wallets/{address}/profile
func (s *Server) handleWalletProfile(w http.ResponseWriter, r *http.Request) {
	if !s.requireStorage(w) {
		return
	}
	address, ok := pathAddress(w, r)
	if !ok {
		return
	}

	profile, err := s.insights.GetProfile(r.Context(), address)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, profile)
}

// handleIngestActivity handles POST /api/wallets/{address}/activity - store
// caller-supplied records for later reports
func (s *Server) handleIngestActivity(w http.ResponseWriter, r *http.Request) {
	if !s.requireStorage(w) {
		return
	}
	address, ok := pathAddress(w, r)
	if !ok {
		return
	}

	var input service.WalletActivityInput
	if err := parseJSONBody(w, r, &input); err != nil {
		respondBadBody(w, err)
		return
	}
	input.Holdings = normalizeHoldings(input.Holdings)

	if err := s.insights.IngestActivity(r.Context(), address, input); err != nil {
		respondServiceError(w, r, err)
		return
	}

	chainTxs := 0
	for _, txs := range input.ChainTransactions {
		chainTxs += len(txs)
	}
	respondJSON(w, http.StatusAccepted, map[string]interface{}{
		"address":           address,
		"chainTransactions": chainTxs,
		"transactions":      len(input.Transactions),
		"holdings":          len(input.Holdings),
	})
}

// handleStats handles GET /api/stats - report cache effectiveness
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if !s.requireStorage(w) {
		return
	}
	respondJSON(w, http.StatusOK, s.insights.Stats())
}
