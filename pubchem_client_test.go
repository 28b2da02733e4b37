package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func newTestClient(t *testing.T, handler http.Handler) *PubChemClient {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := NewPubChemClient(t.TempDir(), time.Hour, 3, nil)
	client.restBase = server.URL + "/rest/pug"
	client.viewBase = server.URL + "/rest/pug_view"
	client.baseDelay = time.Millisecond
	client.requestDelay = time.Millisecond
	return client
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func cidResponse(cids ...int64) map[string]interface{} {
	return map[string]interface{}{
		"IdentifierList": map[string]interface{}{"CID": cids},
	}
}

func TestGetCID(t *testing.T) {
	t.Run("DirectHit", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/rest/pug/compound/name/ethanol/cids/JSON" {
				writeJSON(w, cidResponse(702))
				return
			}
			http.NotFound(w, r)
		}))

		cid, err := client.GetCID(context.Background(), "ethanol")
		if err != nil {
			t.Fatalf("GetCID failed: %v", err)
		}
		if cid != 702 {
			t.Errorf("expected CID 702, got %d", cid)
		}
	})

	t.Run("VariationFallback", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/rest/pug/compound/name/oxidane/cids/JSON" {
				writeJSON(w, cidResponse(962))
				return
			}
			http.NotFound(w, r)
		}))

		cid, err := client.GetCID(context.Background(), "water")
		if err != nil {
			t.Fatalf("GetCID failed: %v", err)
		}
		if cid != 962 {
			t.Errorf("expected CID 962 via oxidane, got %d", cid)
		}
	})

	t.Run("NotFound", func(t *testing.T) {
		client := newTestClient(t, http.NotFoundHandler())

		_, err := client.GetCID(context.Background(), "unobtainium")
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("EmptyCIDListIsNotFound", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, cidResponse())
		}))

		_, err := client.GetCID(context.Background(), "ethanol")
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound for empty CID list, got %v", err)
		}
	})
}

func TestFetchJSONRetry(t *testing.T) {
	t.Run("RecoversFromServerErrors", func(t *testing.T) {
		calls := 0
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			if calls < 3 {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			writeJSON(w, cidResponse(702))
		}))

		cid, err := client.GetCID(context.Background(), "ethanol")
		if err != nil {
			t.Fatalf("expected retry to succeed: %v", err)
		}
		if cid != 702 {
			t.Errorf("expected CID 702, got %d", cid)
		}
		if calls != 3 {
			t.Errorf("expected 3 attempts, got %d", calls)
		}
	})

	t.Run("NotFoundIsNotRetried", func(t *testing.T) {
		calls := 0
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			http.NotFound(w, r)
		}))

		_, err := client.GetCID(context.Background(), "ethanol")
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
		// The literal name plus the two ethanol variations, one attempt each.
		if calls != 3 {
			t.Errorf("expected 1 attempt per candidate name, got %d calls", calls)
		}
	})

	t.Run("GivesUpAfterMaxRetries", func(t *testing.T) {
		calls := 0
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		client.maxRetries = 2

		_, err := client.GetCID(context.Background(), "unobtainium")
		if err == nil {
			t.Fatal("expected an error after exhausting retries")
		}
		if calls != 2 {
			t.Errorf("expected 2 attempts, got %d", calls)
		}
	})
}

func TestFetchJSONCache(t *testing.T) {
	calls := 0
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		writeJSON(w, cidResponse(702))
	}))

	for i := 0; i < 3; i++ {
		if _, err := client.GetCID(context.Background(), "ethanol"); err != nil {
			t.Fatalf("GetCID failed: %v", err)
		}
	}

	if calls != 1 {
		t.Errorf("expected 1 upstream call with cache hits after, got %d", calls)
	}
}

func TestFetchJSONRequestSpacing(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, cidResponse(702))
	}))
	client.requestDelay = 60 * time.Millisecond

	ctx := context.Background()
	if _, err := client.GetCID(ctx, "ethanol"); err != nil {
		t.Fatalf("GetCID failed: %v", err)
	}

	start := time.Now()
	if _, err := client.GetCID(ctx, "benzene"); err != nil {
		t.Fatalf("GetCID failed: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 50*time.Millisecond {
		t.Errorf("expected the second upstream request to pause, took %v", elapsed)
	}

	start = time.Now()
	if _, err := client.GetCID(ctx, "ethanol"); err != nil {
		t.Fatalf("GetCID failed: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 50*time.Millisecond {
		t.Errorf("expected the cached lookup to skip the pause, took %v", elapsed)
	}
}

func TestGetSynonyms(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rest/pug/compound/cid/702/synonyms/JSON" {
			http.NotFound(w, r)
			return
		}
		writeJSON(w, map[string]interface{}{
			"InformationList": map[string]interface{}{
				"Information": []map[string]interface{}{
					{"Synonym": []string{"ethanol", "ethyl alcohol", "64-17-5"}},
				},
			},
		})
	}))

	synonyms, err := client.GetSynonyms(context.Background(), 702)
	if err != nil {
		t.Fatalf("GetSynonyms failed: %v", err)
	}
	if len(synonyms) != 3 || synonyms[2] != "64-17-5" {
		t.Errorf("unexpected synonyms: %v", synonyms)
	}
}

func TestGetGHSData(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("heading") != "GHS Classification" {
			http.NotFound(w, r)
			return
		}
		writeJSON(w, pugViewRecord{Record: struct {
			Section []PugSection `json:"Section"`
		}{Section: []PugSection{
			{
				TOCHeading: "GHS Classification",
				Information: []PugInformation{
					{Name: "Pictogram(s)", Value: PugValue{StringWithMarkup: []PugMarkup{{String: "Flame"}}}},
					{Name: "Signal", Value: PugValue{StringWithMarkup: []PugMarkup{{String: "Danger"}}}},
					{Name: "GHS Hazard Statements", Value: PugValue{StringWithMarkup: []PugMarkup{
						{String: "H225: Highly flammable liquid and vapor H319: Causes serious eye irritation"},
					}}},
					{Name: "Precautionary Statement Codes", Value: PugValue{StringWithMarkup: []PugMarkup{
						{String: "P210: Keep away from heat"},
					}}},
				},
			},
		}}})
	}))

	ghs, err := client.GetGHSData(context.Background(), 702)
	if err != nil {
		t.Fatalf("GetGHSData failed: %v", err)
	}

	if len(ghs.Pictograms) != 1 || ghs.Pictograms[0] != "Flame" {
		t.Errorf("unexpected pictograms: %v", ghs.Pictograms)
	}
	if ghs.SignalWord != "Danger" {
		t.Errorf("expected signal word Danger, got %q", ghs.SignalWord)
	}
	if desc := ghs.HazardStatements["H225"]; !strings.Contains(desc, "flammable") {
		t.Errorf("expected H225 statement, got %q", desc)
	}
	if _, ok := ghs.HazardStatements["H319"]; !ok {
		t.Errorf("expected H319 statement, got %v", ghs.HazardStatements)
	}
	if desc := ghs.PrecautionaryStatements["P210"]; !strings.Contains(desc, "heat") {
		t.Errorf("expected P210 statement, got %q", desc)
	}
}

func TestFetchChemical(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/rest/pug/compound/name/ethanol/cids/JSON", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, cidResponse(702))
	})
	mux.HandleFunc("/rest/pug/compound/cid/702/synonyms/JSON", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]interface{}{
			"InformationList": map[string]interface{}{
				"Information": []map[string]interface{}{
					{"Synonym": []string{"ethyl alcohol", "64-17-5", "grain alcohol"}},
				},
			},
		})
	})
	mux.HandleFunc("/rest/pug/", func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "/property/") {
			http.NotFound(w, r)
			return
		}
		writeJSON(w, map[string]interface{}{
			"PropertyTable": map[string]interface{}{
				"Properties": []map[string]interface{}{{
					"MolecularFormula": "C2H6O",
					"MolecularWeight":  "46.07",
					"InChIKey":         "LFQSCWFLJHTTHZ-UHFFFAOYSA-N",
					"HBondDonorCount":  1,
				}},
			},
		})
	})
	mux.HandleFunc("/rest/pug_view/data/compound/702/JSON", func(w http.ResponseWriter, r *http.Request) {
		var sections []PugSection
		switch r.URL.Query().Get("heading") {
		case "GHS Classification":
			sections = []PugSection{{
				TOCHeading: "GHS Classification",
				Information: []PugInformation{
					{Name: "Signal", Value: PugValue{StringWithMarkup: []PugMarkup{{String: "Danger"}}}},
					{Name: "GHS Hazard Statements", Value: PugValue{StringWithMarkup: []PugMarkup{
						{String: "H225: Highly flammable liquid and vapor"},
					}}},
				},
			}}
		case "Safety and Hazards":
			sections = []PugSection{{
				TOCHeading: "Toxicity Data",
				Information: []PugInformation{
					{Name: "LD50", Value: PugValue{StringWithMarkup: []PugMarkup{
						{String: "LD50 Oral rat 5628 mg/kg"},
					}}},
				},
			}}
		default:
			sections = []PugSection{{
				TOCHeading: "Chemical and Physical Properties",
				Section: []PugSection{{
					TOCHeading: "Melting Point",
					Information: []PugInformation{
						{Value: PugValue{StringWithMarkup: []PugMarkup{{String: "-114.1 °C"}}}},
					},
				}},
			}}
		}
		writeJSON(w, pugViewRecord{Record: struct {
			Section []PugSection `json:"Section"`
		}{Section: sections}})
	})

	client := newTestClient(t, mux)

	chem, err := client.FetchChemical(context.Background(), "ethanol")
	if err != nil {
		t.Fatalf("FetchChemical failed: %v", err)
	}

	if chem.Name != "ethanol" {
		t.Errorf("expected name ethanol, got %q", chem.Name)
	}
	if !chem.PubChemCID.Valid || chem.PubChemCID.Int64 != 702 {
		t.Errorf("expected CID 702, got %+v", chem.PubChemCID)
	}
	if chem.CASNumber.String != "64-17-5" {
		t.Errorf("expected CAS from synonyms, got %q", chem.CASNumber.String)
	}
	if chem.MolecularFormula.String != "C2H6O" {
		t.Errorf("expected formula C2H6O, got %q", chem.MolecularFormula.String)
	}
	if !chem.MolecularWeight.Valid || chem.MolecularWeight.Float64 != 46.07 {
		t.Errorf("expected weight 46.07, got %+v", chem.MolecularWeight)
	}
	if chem.SignalWord.String != "Danger" {
		t.Errorf("expected signal word Danger, got %q", chem.SignalWord.String)
	}
	if !strings.Contains(chem.HazardStatements.String, "H225") {
		t.Errorf("expected H225 in hazard statements, got %q", chem.HazardStatements.String)
	}
	if chem.MeltingPoint.String != "-114.1 °C" {
		t.Errorf("expected melting point, got %q", chem.MeltingPoint.String)
	}
	if !chem.MeltingPointValue.Valid || chem.MeltingPointValue.Float64 != -114.1 {
		t.Errorf("expected derived melting point value -114.1, got %+v", chem.MeltingPointValue)
	}
	if chem.MeltingPointUnit.String != "°C" {
		t.Errorf("expected derived melting point unit °C, got %q", chem.MeltingPointUnit.String)
	}
	if chem.LD50.String != "LD50 Oral rat 5628 mg/kg" {
		t.Errorf("expected LD50 string, got %q", chem.LD50.String)
	}
	if chem.SourceName.String != "PubChem" {
		t.Errorf("expected source PubChem, got %q", chem.SourceName.String)
	}
}

func TestFetchChemicalNotFound(t *testing.T) {
	client := newTestClient(t, http.NotFoundHandler())

	_, err := client.FetchChemical(context.Background(), "unobtainium")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestApplyProperties(t *testing.T) {
	props := map[string]json.RawMessage{
		"MolecularFormula": json.RawMessage(`"C6H6"`),
		"MolecularWeight":  json.RawMessage(`"78.11"`),
		"ExactMass":        json.RawMessage(`78.0469`),
		"Charge":           json.RawMessage(`0`),
		"HeavyAtomCount":   json.RawMessage(`6`),
	}

	chem := &Chemical{Name: "benzene"}
	applyProperties(chem, props)

	if chem.MolecularFormula.String != "C6H6" {
		t.Errorf("expected formula C6H6, got %q", chem.MolecularFormula.String)
	}
	if !chem.MolecularWeight.Valid || chem.MolecularWeight.Float64 != 78.11 {
		t.Errorf("expected string-typed weight parsed, got %+v", chem.MolecularWeight)
	}
	if !chem.ExactMass.Valid || chem.ExactMass.Float64 != 78.0469 {
		t.Errorf("expected number-typed mass parsed, got %+v", chem.ExactMass)
	}
	if !chem.Charge.Valid || chem.Charge.Int64 != 0 {
		t.Errorf("expected charge 0 to be valid, got %+v", chem.Charge)
	}
	if chem.XLogP.Valid {
		t.Error("expected absent property to stay NULL")
	}

	// Nil table is a no-op.
	bare := &Chemical{Name: "bare"}
	applyProperties(bare, nil)
	if bare.MolecularFormula.Valid {
		t.Error("expected nil property table to leave fields NULL")
	}
}

func TestFirstValidCAS(t *testing.T) {
	tests := []struct {
		name     string
		synonyms []string
		want     string
	}{
		{"FoundAmongNames", []string{"ethyl alcohol", "64-17-5", "71-43-2"}, "64-17-5"},
		{"SkipsBadChecksum", []string{"64-17-6", "71-43-2"}, "71-43-2"},
		{"NoneFound", []string{"ethyl alcohol", "grain alcohol"}, ""},
		{"Empty", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := firstValidCAS(tt.synonyms); got != tt.want {
				t.Errorf("firstValidCAS(%v) = %q, want %q", tt.synonyms, got, tt.want)
			}
		})
	}
}

func TestFormatCodeMap(t *testing.T) {
	codes := map[string]string{
		"H319": "Causes serious eye irritation",
		"H225": "Highly flammable liquid and vapor",
	}
	got := formatCodeMap(codes)
	want := "H225: Highly flammable liquid and vapor; H319: Causes serious eye irritation"
	if got != want {
		t.Errorf("expected sorted code list %q, got %q", want, got)
	}

	if got := formatCodeMap(nil); got != "" {
		t.Errorf("expected empty string for no codes, got %q", got)
	}
}
