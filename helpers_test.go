package main

import (
	"math"
	"strings"
	"testing"
)

// TestIsValidCAS tests CAS checksum validation
func TestIsValidCAS(t *testing.T) {
	testCases := []struct {
		name  string
		cas   string
		valid bool
	}{
		{"Ethanol", "64-17-5", true},
		{"Benzene", "71-43-2", true},
		{"Water", "7732-18-5", true},
		{"Sodium chloride", "7647-14-5", true},
		{"Acetone", "67-64-1", true},
		{"Wrong check digit", "64-17-6", false},
		{"Mutated digit", "74-17-5", false},
		{"Missing hyphens", "64175", false},
		{"Trailing text", "64-17-5x", false},
		{"Empty", "", false},
		{"Letters", "aa-bb-c", false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsValidCAS(tc.cas); got != tc.valid {
				t.Errorf("IsValidCAS(%q) = %v, want %v", tc.cas, got, tc.valid)
			}
		})
	}
}

// TestParseCASNumber tests extracting a valid CAS number from free text
func TestParseCASNumber(t *testing.T) {
	testCases := []struct {
		name     string
		text     string
		expected string
	}{
		{"Bare CAS", "64-17-5", "64-17-5"},
		{"Embedded in text", "Ethanol (CAS 64-17-5) is flammable", "64-17-5"},
		{"Invalid checksum ignored", "fake CAS 64-17-6 here", ""},
		{"No CAS present", "no registry number here", ""},
		{"Empty text", "", ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ParseCASNumber(tc.text); got != tc.expected {
				t.Errorf("ParseCASNumber(%q) = %q, want %q", tc.text, got, tc.expected)
			}
		})
	}
}

// TestParsePhysicalProperty tests numeric value and unit extraction
func TestParsePhysicalProperty(t *testing.T) {
	testCases := []struct {
		name      string
		text      string
		value     float64
		unit      string
		ok        bool
	}{
		{"Celsius with space", "78.2 °C", 78.2, "°C", true},
		{"No space", "1.2g/cm³", 1.2, "g/cm³", true},
		{"Negative value", "-114.1 °C", -114.1, "°C", true},
		{"Bare number", "42", 42, "", true},
		{"No number", "liquid", 0, "", false},
		{"Empty", "", 0, "", false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			value, unit, ok := ParsePhysicalProperty(tc.text)
			if ok != tc.ok {
				t.Fatalf("ParsePhysicalProperty(%q) ok = %v, want %v", tc.text, ok, tc.ok)
			}
			if !ok {
				return
			}
			if value != tc.value {
				t.Errorf("value = %v, want %v", value, tc.value)
			}
			if unit != tc.unit {
				t.Errorf("unit = %q, want %q", unit, tc.unit)
			}
		})
	}
}

// TestConvertToStandardUnit tests unit conversion fixed points
func TestConvertToStandardUnit(t *testing.T) {
	testCases := []struct {
		name          string
		value         float64
		unit          string
		kind          string
		expectedValue float64
		expectedUnit  string
	}{
		{"Celsius to Kelvin", 0, "°C", PropertyTemperature, 273.15, "K"},
		{"Boiling water", 100, "C", PropertyTemperature, 373.15, "K"},
		{"Fahrenheit to Kelvin", 32, "°F", PropertyTemperature, 273.15, "K"},
		{"Kelvin passthrough", 300, "K", PropertyTemperature, 300, "K"},
		{"Atmospheres to Pascal", 1, "atm", PropertyPressure, 101325, "Pa"},
		{"Torr to Pascal", 760, "torr", PropertyPressure, 101324.72, "Pa"},
		{"Bar to Pascal", 1, "bar", PropertyPressure, 100000, "Pa"},
		{"PSI to Pascal", 1, "psi", PropertyPressure, 6894.76, "Pa"},
		{"Density kg per cubic meter", 1000, "kg/m³", PropertyDensity, 1, "g/cm³"},
		{"Density g per mL", 0.789, "g/mL", PropertyDensity, 0.789, "g/cm³"},
		{"Unknown unit passthrough", 5, "furlongs", PropertyTemperature, 5, "furlongs"},
		{"Unknown kind passthrough", 5, "°C", "viscosity", 5, "°C"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			value, unit := ConvertToStandardUnit(tc.value, tc.unit, tc.kind)
			if math.Abs(value-tc.expectedValue) > 0.01 {
				t.Errorf("value = %v, want %v", value, tc.expectedValue)
			}
			if unit != tc.expectedUnit {
				t.Errorf("unit = %q, want %q", unit, tc.expectedUnit)
			}
		})
	}
}

// TestExtractHazardCodes tests H-statement extraction, including combined codes
func TestExtractHazardCodes(t *testing.T) {
	t.Run("MultipleStatements", func(t *testing.T) {
		text := "H225: Highly flammable liquid and vapor H319: Causes serious eye irritation"
		codes := ExtractHazardCodes(text)

		if len(codes) != 2 {
			t.Fatalf("Expected 2 codes, got %d: %v", len(codes), codes)
		}
		if !strings.Contains(codes["H225"], "flammable") {
			t.Errorf("H225 description = %q", codes["H225"])
		}
		if !strings.Contains(codes["H319"], "eye irritation") {
			t.Errorf("H319 description = %q", codes["H319"])
		}
	})

	t.Run("CombinedCode", func(t *testing.T) {
		text := "H315+H319: Causes skin and eye irritation"
		codes := ExtractHazardCodes(text)

		description, ok := codes["H315+H319"]
		if !ok {
			t.Fatalf("Expected combined code H315+H319, got %v", codes)
		}
		if !strings.Contains(description, "skin and eye") {
			t.Errorf("Combined description = %q", description)
		}
	})

	t.Run("TrailingSeparatorStripped", func(t *testing.T) {
		text := "H225: Highly flammable liquid and vapour; H319: Causes serious eye irritation"
		codes := ExtractHazardCodes(text)

		if codes["H225"] != "Highly flammable liquid and vapour" {
			t.Errorf("H225 description = %q, want bare statement text", codes["H225"])
		}
		if codes["H319"] != "Causes serious eye irritation" {
			t.Errorf("H319 description = %q", codes["H319"])
		}
	})

	t.Run("SemicolonSeparated", func(t *testing.T) {
		text := "H301 - Toxic if swallowed; H411 - Toxic to aquatic life"
		codes := ExtractHazardCodes(text)

		if len(codes) != 2 {
			t.Fatalf("Expected 2 codes, got %d: %v", len(codes), codes)
		}
	})

	t.Run("Empty", func(t *testing.T) {
		if codes := ExtractHazardCodes(""); len(codes) != 0 {
			t.Errorf("Expected no codes for empty text, got %v", codes)
		}
	})
}

// TestExtractPrecautionaryCodes tests P-statement extraction
func TestExtractPrecautionaryCodes(t *testing.T) {
	text := "P210: Keep away from heat P280: Wear protective gloves"
	codes := ExtractPrecautionaryCodes(text)

	if len(codes) != 2 {
		t.Fatalf("Expected 2 codes, got %d: %v", len(codes), codes)
	}
	if !strings.Contains(codes["P210"], "heat") {
		t.Errorf("P210 description = %q", codes["P210"])
	}
}

// TestCategorizeHazardStatement tests the code range categorization
func TestCategorizeHazardStatement(t *testing.T) {
	testCases := []struct {
		code     string
		expected string
	}{
		{"H225", HazardPhysical},
		{"H200", HazardPhysical},
		{"H290", HazardPhysical},
		{"H301", HazardHealth},
		{"H373", HazardHealth},
		{"H400", HazardEnvironmental},
		{"H420", HazardEnvironmental},
		{"H315+H319", HazardHealth},
		{"H999", HazardUnknown},
		{"P210", HazardUnknown},
		{"", HazardUnknown},
	}

	for _, tc := range testCases {
		t.Run(tc.code, func(t *testing.T) {
			if got := CategorizeHazardStatement(tc.code); got != tc.expected {
				t.Errorf("CategorizeHazardStatement(%q) = %q, want %q", tc.code, got, tc.expected)
			}
		})
	}
}

// TestNormalizeChemicalName tests name normalization for matching
func TestNormalizeChemicalName(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{"Lowercases", "Ethanol", "ethanol"},
		{"Strips n- prefix", "n-butanol", "butanol"},
		{"Strips tert- prefix", "tert-butyl alcohol", "butyl alcohol"},
		{"Collapses punctuation", "1,2-dichloroethane", "1 2 dichloroethane"},
		{"Collapses whitespace", "sodium   chloride", "sodium chloride"},
		{"Empty", "", ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := NormalizeChemicalName(tc.input); got != tc.expected {
				t.Errorf("NormalizeChemicalName(%q) = %q, want %q", tc.input, got, tc.expected)
			}
		})
	}
}

// TestNameVariations tests trivial name alternatives
func TestNameVariations(t *testing.T) {
	variations := NameVariations("Water")
	if len(variations) == 0 {
		t.Fatal("Expected variations for water")
	}

	found := false
	for _, v := range variations {
		if v == "oxidane" {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected oxidane among water variations, got %v", variations)
	}

	if v := NameVariations("unobtainium"); v != nil {
		t.Errorf("Expected no variations for unknown name, got %v", v)
	}
}

// TestFormatCitation tests the citation line
func TestFormatCitation(t *testing.T) {
	citation := FormatCitation("PubChem", "https://pubchem.ncbi.nlm.nih.gov")
	if !strings.Contains(citation, "PubChem") || !strings.Contains(citation, "https://pubchem.ncbi.nlm.nih.gov") {
		t.Errorf("Citation missing source details: %q", citation)
	}
}
