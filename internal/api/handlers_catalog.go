package api

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/wallet-insights/internal/catalog"
	"github.com/wallet-insights/internal/types"
)

// handleListProtocols handles GET /api/protocols[?category=dex]
func (s *Server) handleListProtocols(w http.ResponseWriter, r *http.Request) {
	category := types.Category(strings.ToLower(r.URL.Query().Get("category")))

	var entries []catalog.Entry
	switch {
	case category == "":
		entries = s.engine.Catalog.Entries()
	case category.Valid():
		entries = s.engine.Catalog.ByCategory(category)
	default:
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Unknown category", map[string]interface{}{
			"category": category,
		})
		return
	}
	if entries == nil {
		entries = []catalog.Entry{}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"protocols": entries,
		"count":     len(entries),
	})
}

// handleGetProtocol handles GET /api/protocols/{address}
func (s *Server) handleGetProtocol(w http.ResponseWriter, r *http.Request) {
	address, ok := pathAddress(w, r)
	if !ok {
		return
	}

	meta, found := s.engine.Catalog.Lookup(address)
	if !found {
		respondError(w, http.StatusNotFound, ErrCodeNotFound, "Contract is not cataloged", map[string]interface{}{
			"address": address,
		})
		return
	}

	respondJSON(w, http.StatusOK, catalog.Entry{
		Address:  address,
		Name:     meta.Name,
		Category: meta.Category,
		Tags:     meta.Tags,
	})
}

// handleListCategories handles GET /api/categories
func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"categories": catalog.Categories(),
	})
}

// pathAddress reads and validates the {address} route variable. It writes a
// 400 response and returns false when the address is malformed.
func pathAddress(w http.ResponseWriter, r *http.Request) (string, bool) {
	raw := mux.Vars(r)["address"]
	address, ok := catalog.NormalizeAddress(raw)
	if !ok {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidAddress, "Invalid Ethereum address", map[string]interface{}{
			"address": raw,
		})
		return "", false
	}
	return address, true
}

// bodyAddress validates an address supplied in a request body
func bodyAddress(w http.ResponseWriter, raw string) (string, bool) {
	address, ok := catalog.NormalizeAddress(raw)
	if !ok {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidAddress, "Invalid Ethereum address", map[string]interface{}{
			"address": raw,
		})
		return "", false
	}
	return address, true
}
