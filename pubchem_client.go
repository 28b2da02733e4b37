package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	pugRESTBase = "https://pubchem.ncbi.nlm.nih.gov/rest/pug"
	pugViewBase = "https://pubchem.ncbi.nlm.nih.gov/rest/pug_view"
)

// ErrNotFound marks a lookup PubChem answered with 404: the compound or the
// requested heading does not exist. Callers treat it as "no data", not as a
// failure.
var ErrNotFound = errors.New("not found in PubChem")

// PubChemClient fetches compound data from the PubChem PUG REST and PUG View
// APIs, with a disk cache in front and bounded retries behind.
type PubChemClient struct {
	httpClient *http.Client
	cache      *FileCache
	logger     *slog.Logger
	maxRetries   int
	baseDelay    time.Duration
	requestDelay time.Duration
	lastRequest  time.Time
	properties   []string
	restBase     string
	viewBase     string
}

// NewPubChemClient creates a client caching responses under cacheDir.
func NewPubChemClient(cacheDir string, cacheTTL time.Duration, maxRetries int, logger *slog.Logger) *PubChemClient {
	if cacheTTL <= 0 {
		cacheTTL = 24 * time.Hour
	}
	if maxRetries <= 0 {
		maxRetries = 3
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PubChemClient{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		cache:      NewFileCache(cacheDir, cacheTTL),
		logger:     logger,
		maxRetries:   maxRetries,
		baseDelay:    time.Second,
		requestDelay: 200 * time.Millisecond,
		properties:   DefaultPropertyList,
		restBase:     pugRESTBase,
		viewBase:     pugViewBase,
	}
}

// fetchJSON performs a GET with caching and retry. 404 maps to ErrNotFound
// and is never retried; 429 and 5xx are retried with exponential backoff and
// jitter, as are transport errors.
func (c *PubChemClient) fetchJSON(ctx context.Context, requestURL string) (json.RawMessage, error) {
	if cached, err := c.cache.Get(requestURL); err == nil {
		return cached, nil
	}

	// Fixed pause between successive upstream requests; cache hits above do
	// not count against the rate limit.
	if !c.lastRequest.IsZero() {
		if wait := c.requestDelay - time.Since(c.lastRequest); wait > 0 {
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}
	c.lastRequest = time.Now()

	var lastErr error
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		if attempt > 1 {
			delay := c.baseDelay * time.Duration(1<<(attempt-2))
			delay += time.Duration(rand.Int63n(int64(delay) / 2))
			c.logger.Debug("retrying PubChem request",
				"url", requestURL, "attempt", attempt, "delay", delay)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		body, retryable, err := c.doRequest(ctx, requestURL)
		if err == nil {
			c.cache.Set(requestURL, body)
			return body, nil
		}
		if !retryable {
			return nil, err
		}
		lastErr = err
	}

	return nil, fmt.Errorf("request failed after %d attempts: %w", c.maxRetries, lastErr)
}

func (c *PubChemClient) doRequest(ctx context.Context, requestURL string) (json.RawMessage, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, false, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, true, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, true, err
		}
		return body, false, nil
	case resp.StatusCode == http.StatusNotFound:
		return nil, false, ErrNotFound
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, true, fmt.Errorf("PubChem returned status %d", resp.StatusCode)
	default:
		return nil, false, fmt.Errorf("PubChem returned status %d", resp.StatusCode)
	}
}

// GetCID resolves a chemical name to its first PubChem compound ID. When the
// literal name misses, known synonym variations are tried in order.
func (c *PubChemClient) GetCID(ctx context.Context, name string) (int64, error) {
	candidates := append([]string{name}, NameVariations(name)...)

	for _, candidate := range candidates {
		cid, err := c.lookupCID(ctx, candidate)
		if err == nil {
			if candidate != name {
				c.logger.Info("resolved chemical via name variation",
					"name", name, "variation", candidate, "cid", cid)
			}
			return cid, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return 0, err
		}
	}

	return 0, fmt.Errorf("compound %q: %w", name, ErrNotFound)
}

func (c *PubChemClient) lookupCID(ctx context.Context, name string) (int64, error) {
	requestURL := fmt.Sprintf("%s/compound/name/%s/cids/JSON", c.restBase, url.PathEscape(name))

	body, err := c.fetchJSON(ctx, requestURL)
	if err != nil {
		return 0, err
	}

	var parsed struct {
		IdentifierList struct {
			CID []int64 `json:"CID"`
		} `json:"IdentifierList"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil || len(parsed.IdentifierList.CID) == 0 {
		return 0, ErrNotFound
	}

	return parsed.IdentifierList.CID[0], nil
}

// GetProperties fetches the computed property table for a compound.
func (c *PubChemClient) GetProperties(ctx context.Context, cid int64) (map[string]json.RawMessage, error) {
	requestURL := fmt.Sprintf("%s/compound/cid/%d/property/%s/JSON",
		c.restBase, cid, strings.Join(c.properties, ","))

	body, err := c.fetchJSON(ctx, requestURL)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		PropertyTable struct {
			Properties []map[string]json.RawMessage `json:"Properties"`
		} `json:"PropertyTable"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil || len(parsed.PropertyTable.Properties) == 0 {
		return nil, nil
	}

	return parsed.PropertyTable.Properties[0], nil
}

// GetSynonyms fetches the synonym list for a compound.
func (c *PubChemClient) GetSynonyms(ctx context.Context, cid int64) ([]string, error) {
	requestURL := fmt.Sprintf("%s/compound/cid/%d/synonyms/JSON", c.restBase, cid)

	body, err := c.fetchJSON(ctx, requestURL)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		InformationList struct {
			Information []struct {
				Synonym []string `json:"Synonym"`
			} `json:"Information"`
		} `json:"InformationList"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil || len(parsed.InformationList.Information) == 0 {
		return nil, nil
	}

	return parsed.InformationList.Information[0].Synonym, nil
}

type pugViewRecord struct {
	Record struct {
		Section []PugSection `json:"Section"`
	} `json:"Record"`
}

func (c *PubChemClient) getPugView(ctx context.Context, cid int64, heading string) ([]PugSection, error) {
	requestURL := fmt.Sprintf("%s/data/compound/%d/JSON", c.viewBase, cid)
	if heading != "" {
		requestURL += "?heading=" + url.QueryEscape(heading)
	}

	body, err := c.fetchJSON(ctx, requestURL)
	if err != nil {
		return nil, err
	}

	var parsed pugViewRecord
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, nil
	}

	return parsed.Record.Section, nil
}

// GHSData holds the GHS classification extracted for a compound.
type GHSData struct {
	Pictograms              []string
	SignalWord              string
	HazardStatements        map[string]string
	PrecautionaryStatements map[string]string
}

// GetGHSData fetches and extracts the GHS Classification section.
func (c *PubChemClient) GetGHSData(ctx context.Context, cid int64) (*GHSData, error) {
	sections, err := c.getPugView(ctx, cid, "GHS Classification")
	if err != nil {
		return nil, err
	}

	data := &GHSData{
		HazardStatements:        make(map[string]string),
		PrecautionaryStatements: make(map[string]string),
	}
	collectGHS(sections, data)
	return data, nil
}

func collectGHS(sections []PugSection, data *GHSData) {
	for i := range sections {
		s := &sections[i]
		for _, info := range s.Information {
			texts := info.Value.Strings()
			switch {
			case strings.Contains(info.Name, "Pictogram"):
				data.Pictograms = append(data.Pictograms, texts...)
			case info.Name == "Signal" || strings.Contains(info.Name, "Signal Word"):
				if data.SignalWord == "" && len(texts) > 0 {
					data.SignalWord = texts[0]
				}
			case strings.Contains(info.Name, "Hazard Statement"):
				for _, t := range texts {
					for code, desc := range ExtractHazardCodes(t) {
						data.HazardStatements[code] = desc
					}
				}
			case strings.Contains(info.Name, "Precautionary"):
				for _, t := range texts {
					for code, desc := range ExtractPrecautionaryCodes(t) {
						data.PrecautionaryStatements[code] = desc
					}
				}
			}
		}
		collectGHS(s.Section, data)
	}
}

// Headings of experimental property leaves in the full PUG View record.
var propertyHeadings = map[string]string{
	"Melting Point":        "melting_point",
	"Boiling Point":        "boiling_point",
	"Density":              "density",
	"Vapor Pressure":       "vapor_pressure",
	"Solubility":           "solubility",
	"Flash Point":          "flash_point",
	"Physical Description": "physical_state",
	"Color/Form":           "color",
}

// GetPhysicalProperties fetches experimental properties from the full record,
// returning the first reported string for each known heading.
func (c *PubChemClient) GetPhysicalProperties(ctx context.Context, cid int64) (map[string]string, error) {
	sections, err := c.getPugView(ctx, cid, "")
	if err != nil {
		return nil, err
	}

	props := make(map[string]string)
	collectPhysicalProperties(sections, props)
	return props, nil
}

func collectPhysicalProperties(sections []PugSection, props map[string]string) {
	for i := range sections {
		s := &sections[i]
		if key, ok := propertyHeadings[s.TOCHeading]; ok {
			if _, have := props[key]; !have {
				for _, info := range s.Information {
					if texts := info.Value.Strings(); len(texts) > 0 {
						props[key] = texts[0]
						break
					}
				}
			}
		}
		collectPhysicalProperties(s.Section, props)
	}
}

// GetToxicityData fetches the Safety and Hazards view and walks it for LD50,
// LC50 and general toxicity notes.
func (c *PubChemClient) GetToxicityData(ctx context.Context, cid int64, cfg ToxicityWalkConfig) (*ToxicityFindings, error) {
	sections, err := c.getPugView(ctx, cid, "Safety and Hazards")
	if err != nil {
		return nil, err
	}

	findings := WalkToxicitySections(sections, cfg)

	// The walker finds labelled slots; the regex extractors backfill from the
	// collected notes when a slot stayed empty.
	if findings.LD50 == "" || findings.LC50 == "" {
		joined := strings.Join(findings.Notes, "\n")
		if findings.LD50 == "" {
			if entries := ExtractLD50Values(joined); len(entries) > 0 {
				findings.LD50 = FormatToxicityEntries(entries)
			}
		}
		if findings.LC50 == "" {
			if entries := ExtractLC50Values(joined); len(entries) > 0 {
				findings.LC50 = FormatToxicityEntries(entries)
			}
		}
	}

	return &findings, nil
}

// FetchChemical resolves a name and assembles a full Chemical record from the
// property, synonym, GHS, physical property and toxicity endpoints. Partial
// failures past CID resolution degrade to missing fields rather than errors.
func (c *PubChemClient) FetchChemical(ctx context.Context, name string) (*Chemical, error) {
	cid, err := c.GetCID(ctx, name)
	if err != nil {
		return nil, err
	}

	chem := &Chemical{
		Name:       name,
		PubChemCID: nullInt(cid, true),
		SourceName: nullString("PubChem"),
		SourceURL:  nullString(fmt.Sprintf("https://pubchem.ncbi.nlm.nih.gov/compound/%d", cid)),
	}

	props, err := c.GetProperties(ctx, cid)
	if err != nil && !errors.Is(err, ErrNotFound) {
		c.logger.Warn("property fetch failed", "name", name, "cid", cid, "error", err)
	}
	applyProperties(chem, props)

	synonyms, err := c.GetSynonyms(ctx, cid)
	if err != nil && !errors.Is(err, ErrNotFound) {
		c.logger.Warn("synonym fetch failed", "name", name, "cid", cid, "error", err)
	}
	if len(synonyms) > 0 {
		if cas := firstValidCAS(synonyms); cas != "" {
			chem.CASNumber = nullString(cas)
		}
		limit := len(synonyms)
		if limit > 20 {
			limit = 20
		}
		chem.Synonyms = nullString(strings.Join(synonyms[:limit], "; "))
	}

	ghs, err := c.GetGHSData(ctx, cid)
	if err != nil && !errors.Is(err, ErrNotFound) {
		c.logger.Warn("GHS fetch failed", "name", name, "cid", cid, "error", err)
	}
	if ghs != nil {
		chem.GHSPictograms = nullString(strings.Join(ghs.Pictograms, "; "))
		chem.SignalWord = nullString(ghs.SignalWord)
		chem.HazardStatements = nullString(formatCodeMap(ghs.HazardStatements))
		chem.PrecautionaryStatements = nullString(formatCodeMap(ghs.PrecautionaryStatements))
	}

	physical, err := c.GetPhysicalProperties(ctx, cid)
	if err != nil && !errors.Is(err, ErrNotFound) {
		c.logger.Warn("physical property fetch failed", "name", name, "cid", cid, "error", err)
	}
	chem.MeltingPoint = nullString(physical["melting_point"])
	chem.BoilingPoint = nullString(physical["boiling_point"])
	chem.Density = nullString(physical["density"])
	chem.VaporPressure = nullString(physical["vapor_pressure"])
	chem.Solubility = nullString(physical["solubility"])
	chem.FlashPoint = nullString(physical["flash_point"])
	chem.PhysicalState = nullString(physical["physical_state"])
	chem.Color = nullString(physical["color"])
	chem.EnrichPhysicalValues()

	tox, err := c.GetToxicityData(ctx, cid, ToxicityWalkConfig{})
	if err != nil && !errors.Is(err, ErrNotFound) {
		c.logger.Warn("toxicity fetch failed", "name", name, "cid", cid, "error", err)
	}
	if tox != nil {
		chem.LD50 = nullString(tox.LD50)
		chem.LC50 = nullString(tox.LC50)
		chem.AcuteToxicityNotes = nullString(strings.Join(tox.Notes, "; "))
	}

	if issues := ValidateChemical(chem); len(issues) > 0 {
		c.logger.Warn("chemical record has validation issues",
			"name", name, "issues", strings.Join(issues, "; "))
	}

	return chem, nil
}

func firstValidCAS(synonyms []string) string {
	for _, s := range synonyms {
		if cas := ParseCASNumber(s); cas != "" {
			return cas
		}
	}
	return ""
}

func formatCodeMap(codes map[string]string) string {
	if len(codes) == 0 {
		return ""
	}
	keys := make([]string, 0, len(codes))
	for code := range codes {
		keys = append(keys, code)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, code := range keys {
		parts = append(parts, code+": "+codes[code])
	}
	return strings.Join(parts, "; ")
}

func applyProperties(chem *Chemical, props map[string]json.RawMessage) {
	if props == nil {
		return
	}

	chem.MolecularFormula = nullString(rawString(props["MolecularFormula"]))
	chem.IUPACName = nullString(rawString(props["IUPACName"]))
	chem.CanonicalSMILES = nullString(rawString(props["CanonicalSMILES"]))
	chem.IsomericSMILES = nullString(rawString(props["IsomericSMILES"]))
	chem.InChI = nullString(rawString(props["InChI"]))
	chem.InChIKey = nullString(rawString(props["InChIKey"]))

	chem.MolecularWeight = nullFloat(rawFloat(props["MolecularWeight"]))
	chem.XLogP = nullFloat(rawFloat(props["XLogP"]))
	chem.ExactMass = nullFloat(rawFloat(props["ExactMass"]))
	chem.MonoisotopicMass = nullFloat(rawFloat(props["MonoisotopicMass"]))
	chem.TPSA = nullFloat(rawFloat(props["TPSA"]))
	chem.Complexity = nullFloat(rawFloat(props["Complexity"]))

	chem.Charge = nullInt(rawInt(props["Charge"]))
	chem.HBondDonorCount = nullInt(rawInt(props["HBondDonorCount"]))
	chem.HBondAcceptorCount = nullInt(rawInt(props["HBondAcceptorCount"]))
	chem.RotatableBondCount = nullInt(rawInt(props["RotatableBondCount"]))
	chem.HeavyAtomCount = nullInt(rawInt(props["HeavyAtomCount"]))
	chem.IsotopeAtomCount = nullInt(rawInt(props["IsotopeAtomCount"]))
	chem.AtomStereoCount = nullInt(rawInt(props["AtomStereoCount"]))
	chem.DefinedAtomStereoCount = nullInt(rawInt(props["DefinedAtomStereoCount"]))
	chem.UndefinedAtomStereoCount = nullInt(rawInt(props["UndefinedAtomStereoCount"]))
	chem.BondStereoCount = nullInt(rawInt(props["BondStereoCount"]))
	chem.DefinedBondStereoCount = nullInt(rawInt(props["DefinedBondStereoCount"]))
	chem.UndefinedBondStereoCount = nullInt(rawInt(props["UndefinedBondStereoCount"]))
	chem.CovalentUnitCount = nullInt(rawInt(props["CovalentUnitCount"]))
}

// PubChem serves MolecularWeight and ExactMass as strings in newer API
// revisions and numbers in older ones; both shapes are accepted.
func rawString(raw json.RawMessage) string {
	if raw == nil {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return ""
}

func rawFloat(raw json.RawMessage) (float64, bool) {
	if raw == nil {
		return 0, false
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f, true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f, true
		}
	}
	return 0, false
}

func rawInt(raw json.RawMessage) (int64, bool) {
	if raw == nil {
		return 0, false
	}
	var n int64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, true
	}
	return 0, false
}
