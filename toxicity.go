package main

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ToxicityEntry is one extracted LD50 or LC50 data point.
type ToxicityEntry struct {
	Value   float64
	Unit    string
	Species string
	Route   string
	Raw     string
}

type toxicityPattern struct {
	re *regexp.Regexp
	// extract maps a submatch slice to an entry; returns false to skip.
	extract func(match []string) (ToxicityEntry, bool)
}

// Pattern families are ordered most-specific first. A raw text span is
// reported once; a later family never re-reports an identical span, but
// overlapping spans with different text are kept as distinct data points.
var ld50Patterns = []toxicityPattern{
	{
		re: regexp.MustCompile(`LD50.*?(\d+[\d\.]*).*?(mg/kg|g/kg|mg/L|g/L).*?\(([^)]+)\)`),
		extract: func(m []string) (ToxicityEntry, bool) {
			v, ok := parseToxValue(m[1])
			if !ok {
				return ToxicityEntry{}, false
			}
			return ToxicityEntry{Value: v, Unit: m[2], Species: strings.TrimSpace(m[3])}, true
		},
	},
	{
		re: regexp.MustCompile(`LD50\s+(\w+)\s+(\w+)\s+([\d\.]+)\s+(g/[lL]|mg/kg)`),
		extract: func(m []string) (ToxicityEntry, bool) {
			v, ok := parseToxValue(m[3])
			if !ok {
				return ToxicityEntry{}, false
			}
			return ToxicityEntry{Value: v, Unit: m[4], Species: m[1], Route: m[2]}, true
		},
	},
	{
		re: regexp.MustCompile(`LD50:\s*([\d\.]+)\s*(mg/kg|g/kg|mg/L|g/L).*?\(([^)]+)\)`),
		extract: func(m []string) (ToxicityEntry, bool) {
			v, ok := parseToxValue(m[1])
			if !ok {
				return ToxicityEntry{}, false
			}
			return ToxicityEntry{Value: v, Unit: m[2], Species: strings.TrimSpace(m[3])}, true
		},
	},
}

var lc50Patterns = []toxicityPattern{
	{
		re: regexp.MustCompile(`LC50.*?(\d+[\d\.]*).*?(ppm|mg/[lL]|g/[lL]|mg/m3|g/m3).*?\(([^)]+)\)`),
		extract: func(m []string) (ToxicityEntry, bool) {
			v, ok := parseToxValue(m[1])
			if !ok {
				return ToxicityEntry{}, false
			}
			return ToxicityEntry{Value: v, Unit: m[2], Species: strings.TrimSpace(m[3])}, true
		},
	},
	{
		re: regexp.MustCompile(`LC50\s+(\w+)\s+(\w+)\s+([\d\.]+)\s+(g/cu m|ppm)`),
		extract: func(m []string) (ToxicityEntry, bool) {
			v, ok := parseToxValue(m[3])
			if !ok {
				return ToxicityEntry{}, false
			}
			return ToxicityEntry{Value: v, Unit: m[4], Species: m[1], Route: m[2]}, true
		},
	},
	{
		re: regexp.MustCompile(`LC50.*?(\d+[\d\.]*)\s*(ppm|mg/[lL]|g/cu m)`),
		extract: func(m []string) (ToxicityEntry, bool) {
			v, ok := parseToxValue(m[1])
			if !ok {
				return ToxicityEntry{}, false
			}
			return ToxicityEntry{Value: v, Unit: m[2]}, true
		},
	},
}

func parseToxValue(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimRight(s, "."), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// ExtractLD50Values extracts LD50 entries from free text.
func ExtractLD50Values(text string) []ToxicityEntry {
	return extractToxicity(text, ld50Patterns)
}

// ExtractLC50Values extracts LC50 entries from free text.
func ExtractLC50Values(text string) []ToxicityEntry {
	return extractToxicity(text, lc50Patterns)
}

func extractToxicity(text string, patterns []toxicityPattern) []ToxicityEntry {
	var entries []ToxicityEntry
	if text == "" {
		return entries
	}

	seen := make(map[string]bool)
	for _, p := range patterns {
		for _, idx := range p.re.FindAllStringSubmatchIndex(text, -1) {
			span := text[idx[0]:idx[1]]
			if seen[span] {
				continue
			}

			groups := make([]string, 0, len(idx)/2)
			for g := 0; g < len(idx); g += 2 {
				if idx[g] < 0 {
					groups = append(groups, "")
				} else {
					groups = append(groups, text[idx[g]:idx[g+1]])
				}
			}

			entry, ok := p.extract(groups)
			if !ok {
				continue
			}
			entry.Raw = span
			seen[span] = true
			entries = append(entries, entry)
		}
	}

	return entries
}

// FormatToxicityEntries joins entries into a single "; "-separated summary.
func FormatToxicityEntries(entries []ToxicityEntry) string {
	parts := make([]string, 0, len(entries))
	for _, e := range entries {
		parts = append(parts, e.Raw)
	}
	return strings.Join(parts, "; ")
}

// PugSection is one node of a PUG View record tree.
type PugSection struct {
	TOCHeading  string          `json:"TOCHeading"`
	Description string          `json:"Description"`
	Information []PugInformation `json:"Information"`
	Section     []PugSection    `json:"Section"`
}

// PugInformation is one Information entry in a PUG View section.
type PugInformation struct {
	Name  string   `json:"Name"`
	Value PugValue `json:"Value"`
}

// PugValue holds the string content of a PUG View Information value.
type PugValue struct {
	StringWithMarkup []PugMarkup `json:"StringWithMarkup"`
	Number           []float64   `json:"Number"`
	Unit             string      `json:"Unit"`
}

// PugMarkup is a single markup-annotated string.
type PugMarkup struct {
	String string `json:"String"`
}

// Strings flattens a value to its plain strings, appending the unit to
// numeric values.
func (v PugValue) Strings() []string {
	var out []string
	for _, m := range v.StringWithMarkup {
		if m.String != "" {
			out = append(out, m.String)
		}
	}
	for _, n := range v.Number {
		s := fmt.Sprintf("%g", n)
		if v.Unit != "" {
			s += " " + v.Unit
		}
		out = append(out, s)
	}
	return out
}

// ToxicityWalkConfig controls which PUG View sections the toxicity walker
// inspects. Zero-value fields fall back to the defaults below.
type ToxicityWalkConfig struct {
	// BroadKeywords match by case-sensitive substring against TOCHeading.
	BroadKeywords []string
	// ExactHeadings match the TOCHeading exactly.
	ExactHeadings []string
	// MaxDepth bounds recursion into nested sections.
	MaxDepth int
}

var defaultBroadKeywords = []string{"LD50", "LC50", "Toxicity", "Acute"}

var defaultExactHeadings = []string{
	"Toxicity Data",
	"Acute Toxicity",
	"Toxicological Information",
	"Acute Effects",
	"Toxicity",
	"Health Hazards",
	"Acute Exposure",
	"Toxicological Effects",
	"Chronic Toxicity",
	"Toxicity Summary",
}

var ld50Synonyms = []string{
	"lethal dose", "median lethal dose", "acute toxicity", "toxic dose", "lethal concentration",
}

var lc50Synonyms = []string{
	"lethal concentration", "median lethal concentration", "acute inhalation toxicity",
}

func (c ToxicityWalkConfig) withDefaults() ToxicityWalkConfig {
	if c.BroadKeywords == nil {
		c.BroadKeywords = defaultBroadKeywords
	}
	if c.ExactHeadings == nil {
		c.ExactHeadings = defaultExactHeadings
	}
	if c.MaxDepth <= 0 {
		c.MaxDepth = 10
	}
	return c
}

// ToxicityFindings is the result of walking a PUG View record for toxicity
// data.
type ToxicityFindings struct {
	LD50  string
	LC50  string
	Notes []string
}

// WalkToxicitySections walks a PUG View section tree collecting toxicity
// strings. The first string mentioning LD50 (or one of its synonyms) fills
// the LD50 slot, likewise for LC50; every string from a matching section is
// collected once into Notes.
func WalkToxicitySections(sections []PugSection, cfg ToxicityWalkConfig) ToxicityFindings {
	cfg = cfg.withDefaults()
	f := ToxicityFindings{}
	seen := make(map[string]bool)
	for i := range sections {
		walkToxicity(&sections[i], cfg, 0, &f, seen)
	}
	return f
}

func walkToxicity(s *PugSection, cfg ToxicityWalkConfig, depth int, f *ToxicityFindings, seen map[string]bool) {
	if depth >= cfg.MaxDepth {
		return
	}

	if headingMatches(s.TOCHeading, cfg) {
		for _, info := range s.Information {
			for _, text := range info.Value.Strings() {
				if !seen[text] {
					seen[text] = true
					f.Notes = append(f.Notes, text)
				}
				if f.LD50 == "" && mentionsLD50(text) {
					f.LD50 = text
				}
				if f.LC50 == "" && mentionsLC50(text) {
					f.LC50 = text
				}
			}
		}
	}

	// Deeper sections may match even when this one did not.
	for i := range s.Section {
		walkToxicity(&s.Section[i], cfg, depth+1, f, seen)
	}
}

func headingMatches(heading string, cfg ToxicityWalkConfig) bool {
	for _, kw := range cfg.BroadKeywords {
		if strings.Contains(heading, kw) {
			return true
		}
	}
	for _, exact := range cfg.ExactHeadings {
		if heading == exact {
			return true
		}
	}
	return false
}

func mentionsLD50(text string) bool {
	if strings.Contains(text, "LD50") {
		return true
	}
	lower := strings.ToLower(text)
	for _, syn := range ld50Synonyms {
		if strings.Contains(lower, syn) {
			return true
		}
	}
	return false
}

func mentionsLC50(text string) bool {
	if strings.Contains(text, "LC50") {
		return true
	}
	lower := strings.ToLower(text)
	for _, syn := range lc50Synonyms {
		if strings.Contains(lower, syn) {
			return true
		}
	}
	return false
}
