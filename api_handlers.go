package main

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// APIHandler handles JSON API requests
type APIHandler struct {
	DB       *DB
	AISafety *AISafetyService
}

// Search handles API search requests
func (h *APIHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")

	limit := maxResults
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if n, err := strconv.Atoi(limitStr); err == nil && n > 0 {
			limit = n
		}
	}

	chemicals, err := h.DB.SearchChemicals(query, limit)
	if err != nil {
		log.Printf("Search error: %v", err)
		respondJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "Search failed",
		})
		return
	}

	summaries := make([]ChemicalSummary, 0, len(chemicals))
	for i := range chemicals {
		summaries = append(summaries, chemicals[i].Summary())
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"chemicals": summaries,
		"count":     len(summaries),
		"query":     query,
	})
}

// ListChemicals handles API requests for the full chemical list
func (h *APIHandler) ListChemicals(w http.ResponseWriter, r *http.Request) {
	filter := r.URL.Query().Get("filter")

	chemicals, err := h.DB.ListChemicals(filter, 0)
	if err != nil {
		log.Printf("List error: %v", err)
		respondJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "List failed",
		})
		return
	}

	records := make([]exportRecord, 0, len(chemicals))
	for i := range chemicals {
		records = append(records, toExportRecord(&chemicals[i]))
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"chemicals": records,
		"count":     len(records),
	})
}

// GetChemical handles API requests for a single chemical
func (h *APIHandler) GetChemical(w http.ResponseWriter, r *http.Request) {
	cas := chi.URLParam(r, "cas")

	chem, err := h.DB.GetChemicalByCAS(cas)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respondJSON(w, http.StatusNotFound, map[string]string{
				"error": "Chemical not found",
			})
			return
		}
		log.Printf("Database error: %v", err)
		respondJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "Internal server error",
		})
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"chemical": toExportRecord(chem),
	})
}

// GenerateSummary handles API requests for an AI safety summary
func (h *APIHandler) GenerateSummary(w http.ResponseWriter, r *http.Request) {
	cas := chi.URLParam(r, "cas")

	chem, err := h.DB.GetChemicalByCAS(cas)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respondJSON(w, http.StatusNotFound, map[string]string{
				"error": "Chemical not found",
			})
			return
		}
		log.Printf("Database error: %v", err)
		respondJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "Internal server error",
		})
		return
	}

	if h.AISafety == nil {
		respondJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "AI summaries not available: ANTHROPIC_API_KEY not set",
		})
		return
	}

	summary, err := h.AISafety.GenerateSafetySummary(r.Context(), chem)
	if err != nil {
		log.Printf("AI summary error: %v", err)
		respondJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "AI summary failed: " + err.Error(),
		})
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"chemical": toExportRecord(chem),
		"summary":  summary,
	})
}

// Count handles API requests for the record count
func (h *APIHandler) Count(w http.ResponseWriter, r *http.Request) {
	count, err := h.DB.CountChemicals()
	if err != nil {
		log.Printf("Count error: %v", err)
		respondJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "Count failed",
		})
		return
	}

	respondJSON(w, http.StatusOK, map[string]int64{"count": count})
}

// respondJSON is a helper function to send JSON responses
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("JSON encoding error: %v", err)
	}
}
