package main

import (
	"reflect"
	"testing"
)

func TestExtractLD50Values(t *testing.T) {
	t.Run("ParenthesizedSpecies", func(t *testing.T) {
		entries := ExtractLD50Values("LD50 5628 mg/kg (rat, oral)")
		if len(entries) != 1 {
			t.Fatalf("expected 1 entry, got %d", len(entries))
		}
		e := entries[0]
		if e.Value != 5628 {
			t.Errorf("expected value 5628, got %v", e.Value)
		}
		if e.Unit != "mg/kg" {
			t.Errorf("expected unit mg/kg, got %q", e.Unit)
		}
		if e.Species != "rat, oral" {
			t.Errorf("expected species 'rat, oral', got %q", e.Species)
		}
	})

	t.Run("SpeciesRouteValueUnit", func(t *testing.T) {
		entries := ExtractLD50Values("LD50 Rat oral 5628 mg/kg")
		if len(entries) != 1 {
			t.Fatalf("expected 1 entry, got %d", len(entries))
		}
		e := entries[0]
		if e.Species != "Rat" || e.Route != "oral" {
			t.Errorf("expected Rat/oral, got %q/%q", e.Species, e.Route)
		}
		if e.Value != 5628 || e.Unit != "mg/kg" {
			t.Errorf("expected 5628 mg/kg, got %v %q", e.Value, e.Unit)
		}
	})

	t.Run("ColonSeparated", func(t *testing.T) {
		entries := ExtractLD50Values("LD50: 7060 mg/kg (rat)")
		if len(entries) != 1 {
			t.Fatalf("expected 1 entry, got %d", len(entries))
		}
		if entries[0].Value != 7060 || entries[0].Species != "rat" {
			t.Errorf("expected 7060/rat, got %v/%q", entries[0].Value, entries[0].Species)
		}
	})

	t.Run("TrailingDotValue", func(t *testing.T) {
		entries := ExtractLD50Values("LD50 Rat oral 250. mg/kg")
		if len(entries) != 1 {
			t.Fatalf("expected 1 entry, got %d", len(entries))
		}
		if entries[0].Value != 250 {
			t.Errorf("expected value 250, got %v", entries[0].Value)
		}
	})

	t.Run("RepeatedSpanReportedOnce", func(t *testing.T) {
		entries := ExtractLD50Values("LD50 Rat oral 100 mg/kg; LD50 Rat oral 100 mg/kg")
		if len(entries) != 1 {
			t.Fatalf("expected repeated span to be reported once, got %d entries", len(entries))
		}
	})

	t.Run("OverlappingDistinctSpansBothReported", func(t *testing.T) {
		entries := ExtractLD50Values("LD50 Mouse iv 2.0 g/L (mouse)")
		if len(entries) != 2 {
			t.Fatalf("expected 2 entries, got %d", len(entries))
		}
		if entries[0].Raw != "LD50 Mouse iv 2.0 g/L (mouse)" {
			t.Errorf("expected parenthesized span first, got %q", entries[0].Raw)
		}
		if entries[1].Raw != "LD50 Mouse iv 2.0 g/L" {
			t.Errorf("expected species/route span second, got %q", entries[1].Raw)
		}
	})

	t.Run("RerunOnJoinedOutputAddsNothing", func(t *testing.T) {
		first := ExtractLD50Values("LD50 Rat oral 100 mg/kg. LD50 Mouse oral 200 mg/kg")
		if len(first) != 2 {
			t.Fatalf("expected 2 entries, got %d", len(first))
		}
		second := ExtractLD50Values(FormatToxicityEntries(first))
		if len(second) != len(first) {
			t.Fatalf("expected rerun to yield %d entries, got %d", len(first), len(second))
		}
		for i := range first {
			if second[i].Raw != first[i].Raw {
				t.Errorf("entry %d changed on rerun: %q vs %q", i, first[i].Raw, second[i].Raw)
			}
		}
	})

	t.Run("IgnoresLC50Text", func(t *testing.T) {
		entries := ExtractLD50Values("LC50 Inhalation rat 8000 ppm")
		if len(entries) != 0 {
			t.Errorf("expected no entries, got %d", len(entries))
		}
	})

	t.Run("EmptyText", func(t *testing.T) {
		if entries := ExtractLD50Values(""); len(entries) != 0 {
			t.Errorf("expected no entries, got %d", len(entries))
		}
	})
}

func TestExtractLC50Values(t *testing.T) {
	t.Run("ParenthesizedSpecies", func(t *testing.T) {
		entries := ExtractLC50Values("LC50 5000 ppm (rat, 4 hr)")
		if len(entries) != 2 {
			t.Fatalf("expected 2 entries, got %d", len(entries))
		}
		e := entries[0]
		if e.Value != 5000 || e.Unit != "ppm" {
			t.Errorf("expected 5000 ppm, got %v %q", e.Value, e.Unit)
		}
		if e.Species != "rat, 4 hr" {
			t.Errorf("expected species 'rat, 4 hr', got %q", e.Species)
		}
		// The loose family's shorter span is distinct text, so it is kept as
		// its own data point.
		if entries[1].Raw != "LC50 5000 ppm" {
			t.Errorf("expected loose span second, got %q", entries[1].Raw)
		}
	})

	t.Run("SpecificFamilyClaimsSpanFirst", func(t *testing.T) {
		// The species/route family and the loose fallback both match the
		// same span; only the first family may report it.
		entries := ExtractLC50Values("LC50 Rat inhalation 8000 ppm")
		if len(entries) != 1 {
			t.Fatalf("expected 1 entry, got %d", len(entries))
		}
		e := entries[0]
		if e.Species != "Rat" || e.Route != "inhalation" {
			t.Errorf("expected Rat/inhalation, got %q/%q", e.Species, e.Route)
		}
	})

	t.Run("LooseFallback", func(t *testing.T) {
		entries := ExtractLC50Values("LC50 = 1200 ppm")
		if len(entries) != 1 {
			t.Fatalf("expected 1 entry, got %d", len(entries))
		}
		if entries[0].Value != 1200 || entries[0].Unit != "ppm" {
			t.Errorf("expected 1200 ppm, got %v %q", entries[0].Value, entries[0].Unit)
		}
		if entries[0].Species != "" {
			t.Errorf("expected empty species, got %q", entries[0].Species)
		}
	})

	t.Run("MixedTextOnlyLC50", func(t *testing.T) {
		text := "LD50 Oral rat 5628 mg/kg. LC50 Inhalation rat 8000 ppm"
		entries := ExtractLC50Values(text)
		if len(entries) != 1 {
			t.Fatalf("expected 1 entry, got %d", len(entries))
		}
		if entries[0].Value != 8000 {
			t.Errorf("expected value 8000, got %v", entries[0].Value)
		}
	})
}

func TestFormatToxicityEntries(t *testing.T) {
	entries := []ToxicityEntry{
		{Raw: "LD50 Rat oral 5628 mg/kg"},
		{Raw: "LD50 Mouse oral 3450 mg/kg"},
	}
	got := FormatToxicityEntries(entries)
	want := "LD50 Rat oral 5628 mg/kg; LD50 Mouse oral 3450 mg/kg"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}

	if got := FormatToxicityEntries(nil); got != "" {
		t.Errorf("expected empty string for no entries, got %q", got)
	}
}

func TestPugValueStrings(t *testing.T) {
	t.Run("MarkupStrings", func(t *testing.T) {
		v := PugValue{StringWithMarkup: []PugMarkup{
			{String: "Highly flammable"},
			{String: ""},
			{String: "Causes eye irritation"},
		}}
		got := v.Strings()
		want := []string{"Highly flammable", "Causes eye irritation"}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("expected %v, got %v", want, got)
		}
	})

	t.Run("NumbersWithUnit", func(t *testing.T) {
		v := PugValue{Number: []float64{5628}, Unit: "mg/kg"}
		got := v.Strings()
		if len(got) != 1 || got[0] != "5628 mg/kg" {
			t.Errorf("expected [5628 mg/kg], got %v", got)
		}
	})

	t.Run("NumberWithoutUnit", func(t *testing.T) {
		v := PugValue{Number: []float64{0.5}}
		got := v.Strings()
		if len(got) != 1 || got[0] != "0.5" {
			t.Errorf("expected [0.5], got %v", got)
		}
	})

	t.Run("Empty", func(t *testing.T) {
		if got := (PugValue{}).Strings(); len(got) != 0 {
			t.Errorf("expected no strings, got %v", got)
		}
	})
}

func TestHeadingMatches(t *testing.T) {
	cfg := ToxicityWalkConfig{}.withDefaults()

	tests := []struct {
		heading string
		want    bool
	}{
		{"Toxicity Data", true},
		{"Acute Toxicity Information", true},
		{"LD50 Values", true},
		{"Health Hazards", true},
		{"Boiling Point", false},
		{"Names and Identifiers", false},
	}

	for _, tt := range tests {
		t.Run(tt.heading, func(t *testing.T) {
			if got := headingMatches(tt.heading, cfg); got != tt.want {
				t.Errorf("headingMatches(%q) = %v, want %v", tt.heading, got, tt.want)
			}
		})
	}
}

func TestWalkToxicitySections(t *testing.T) {
	t.Run("NestedSections", func(t *testing.T) {
		sections := []PugSection{
			{
				TOCHeading: "Safety and Hazards",
				Section: []PugSection{
					{
						TOCHeading: "Toxicity Data",
						Information: []PugInformation{
							{Name: "Oral", Value: PugValue{StringWithMarkup: []PugMarkup{
								{String: "LD50 Oral rat 5628 mg/kg"},
							}}},
							{Name: "Inhalation", Value: PugValue{StringWithMarkup: []PugMarkup{
								{String: "LC50 Inhalation rat 8000 ppm"},
							}}},
						},
					},
				},
			},
			{TOCHeading: "Names and Identifiers"},
		}

		f := WalkToxicitySections(sections, ToxicityWalkConfig{})
		if f.LD50 != "LD50 Oral rat 5628 mg/kg" {
			t.Errorf("expected LD50 slot filled, got %q", f.LD50)
		}
		if f.LC50 != "LC50 Inhalation rat 8000 ppm" {
			t.Errorf("expected LC50 slot filled, got %q", f.LC50)
		}
		if len(f.Notes) != 2 {
			t.Errorf("expected 2 notes, got %d", len(f.Notes))
		}
	})

	t.Run("SynonymFillsLD50", func(t *testing.T) {
		sections := []PugSection{
			{
				TOCHeading: "Acute Toxicity",
				Information: []PugInformation{
					{Value: PugValue{StringWithMarkup: []PugMarkup{
						{String: "The median lethal dose in rats is 5 g/kg"},
					}}},
				},
			},
		}

		f := WalkToxicitySections(sections, ToxicityWalkConfig{})
		if f.LD50 != "The median lethal dose in rats is 5 g/kg" {
			t.Errorf("expected synonym match to fill LD50, got %q", f.LD50)
		}
	})

	t.Run("FirstMatchWins", func(t *testing.T) {
		sections := []PugSection{
			{
				TOCHeading: "Toxicity Data",
				Information: []PugInformation{
					{Value: PugValue{StringWithMarkup: []PugMarkup{
						{String: "LD50 Rat oral 100 mg/kg"},
						{String: "LD50 Mouse oral 200 mg/kg"},
					}}},
				},
			},
		}

		f := WalkToxicitySections(sections, ToxicityWalkConfig{})
		if f.LD50 != "LD50 Rat oral 100 mg/kg" {
			t.Errorf("expected first LD50 string to win, got %q", f.LD50)
		}
		if len(f.Notes) != 2 {
			t.Errorf("expected both strings in notes, got %d", len(f.Notes))
		}
	})

	t.Run("DuplicateStringsCollectedOnce", func(t *testing.T) {
		info := []PugInformation{
			{Value: PugValue{StringWithMarkup: []PugMarkup{
				{String: "LD50 Rat oral 100 mg/kg"},
			}}},
		}
		sections := []PugSection{
			{TOCHeading: "Toxicity Data", Information: info},
			{TOCHeading: "Acute Toxicity", Information: info},
		}

		f := WalkToxicitySections(sections, ToxicityWalkConfig{})
		if len(f.Notes) != 1 {
			t.Errorf("expected duplicate string collected once, got %d notes", len(f.Notes))
		}
	})

	t.Run("MaxDepthBoundsRecursion", func(t *testing.T) {
		sections := []PugSection{
			{
				TOCHeading: "Toxicity",
				Information: []PugInformation{
					{Value: PugValue{StringWithMarkup: []PugMarkup{
						{String: "top-level note"},
					}}},
				},
				Section: []PugSection{
					{
						TOCHeading: "Toxicity Data",
						Information: []PugInformation{
							{Value: PugValue{StringWithMarkup: []PugMarkup{
								{String: "nested note"},
							}}},
						},
					},
				},
			},
		}

		f := WalkToxicitySections(sections, ToxicityWalkConfig{MaxDepth: 1})
		if len(f.Notes) != 1 || f.Notes[0] != "top-level note" {
			t.Errorf("expected only the top-level note, got %v", f.Notes)
		}
	})
}
