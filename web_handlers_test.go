package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

func setupTestRouter(t *testing.T) http.Handler {
	t.Helper()

	db, cleanup := SetupTestDB(t)
	t.Cleanup(cleanup)
	SeedTestChemicals(t, db)

	return newRouter(ServerConfig{DB: db})
}

func TestSearchPage(t *testing.T) {
	router := setupTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	body := rec.Body.String()
	if !strings.Contains(body, "ChemSafe") {
		t.Error("expected page title in body")
	}
	if !strings.Contains(body, `action="/search"`) {
		t.Error("expected search form in body")
	}
}

func TestSearchResults(t *testing.T) {
	router := setupTestRouter(t)

	t.Run("WithMatches", func(t *testing.T) {
		form := url.Values{"query": {"ethanol"}}
		req := httptest.NewRequest(http.MethodPost, "/search", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}

		body := rec.Body.String()
		if !strings.Contains(body, "1 result(s)") {
			t.Error("expected result count in body")
		}
		if !strings.Contains(body, "64-17-5") {
			t.Error("expected CAS number in results table")
		}
		if !strings.Contains(body, `/chemicals/64-17-5`) {
			t.Error("expected detail link in results table")
		}
	})

	t.Run("NoMatches", func(t *testing.T) {
		form := url.Values{"query": {"unobtainium"}}
		req := httptest.NewRequest(http.MethodPost, "/search", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "No chemicals matched") {
			t.Error("expected no-results message")
		}
	})
}

func TestChemicalDetailPage(t *testing.T) {
	router := setupTestRouter(t)

	t.Run("Found", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/chemicals/64-17-5", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}

		body := rec.Body.String()
		if !strings.Contains(body, "ethanol") {
			t.Error("expected chemical name in body")
		}
		if !strings.Contains(body, "64-17-5") {
			t.Error("expected CAS number in body")
		}
		if !strings.Contains(body, "H225") {
			t.Error("expected hazard statements in body")
		}
	})

	t.Run("NotFound", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/chemicals/50-00-0", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", rec.Code)
		}
	})
}

func TestWebGenerateSummaryUnavailable(t *testing.T) {
	router := setupTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/chemicals/64-17-5/summary", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 without an API key, got %d", rec.Code)
	}
}

func TestAPISearch(t *testing.T) {
	router := setupTestRouter(t)

	t.Run("ByName", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/search?q=benzene", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
			t.Errorf("expected JSON content type, got %q", ct)
		}

		var payload struct {
			Chemicals []ChemicalSummary `json:"chemicals"`
			Count     int               `json:"count"`
			Query     string            `json:"query"`
		}
		if err := json.NewDecoder(rec.Body).Decode(&payload); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}

		if payload.Count != 1 {
			t.Fatalf("expected 1 result, got %d", payload.Count)
		}
		if payload.Chemicals[0].CASNumber != "71-43-2" {
			t.Errorf("expected benzene CAS, got %q", payload.Chemicals[0].CASNumber)
		}
		if payload.Query != "benzene" {
			t.Errorf("expected query echoed back, got %q", payload.Query)
		}
	})

	t.Run("LimitApplies", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/search?q=&limit=2", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		var payload struct {
			Count int `json:"count"`
		}
		if err := json.NewDecoder(rec.Body).Decode(&payload); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if payload.Count != 2 {
			t.Errorf("expected limit of 2 applied, got %d", payload.Count)
		}
	})
}

func TestAPIListChemicals(t *testing.T) {
	router := setupTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/chemicals", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var payload struct {
		Chemicals []map[string]interface{} `json:"chemicals"`
		Count     int                      `json:"count"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if payload.Count != 4 {
		t.Errorf("expected 4 chemicals, got %d", payload.Count)
	}
}

func TestAPIGetChemical(t *testing.T) {
	router := setupTestRouter(t)

	t.Run("Found", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/chemicals/64-17-5", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}

		var payload struct {
			Chemical map[string]interface{} `json:"chemical"`
		}
		if err := json.NewDecoder(rec.Body).Decode(&payload); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if payload.Chemical["name"] != "ethanol" {
			t.Errorf("expected ethanol, got %v", payload.Chemical["name"])
		}
	})

	t.Run("NotFound", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/chemicals/50-00-0", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", rec.Code)
		}

		var payload map[string]string
		if err := json.NewDecoder(rec.Body).Decode(&payload); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if payload["error"] == "" {
			t.Error("expected an error message in the body")
		}
	})
}

func TestAPIGenerateSummaryUnavailable(t *testing.T) {
	router := setupTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/chemicals/64-17-5/summary", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 without an API key, got %d", rec.Code)
	}
}

func TestAPICount(t *testing.T) {
	router := setupTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/count", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var payload map[string]int64
	if err := json.NewDecoder(rec.Body).Decode(&payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if payload["count"] != 4 {
		t.Errorf("expected count 4, got %d", payload["count"])
	}
}
