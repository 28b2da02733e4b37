package main

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Property kinds understood by ConvertToStandardUnit.
const (
	PropertyTemperature = "temperature"
	PropertyPressure    = "pressure"
	PropertyDensity     = "density"
)

// Hazard categories returned by CategorizeHazardStatement.
const (
	HazardPhysical      = "Physical"
	HazardHealth        = "Health"
	HazardEnvironmental = "Environmental"
	HazardUnknown       = "Unknown"
)

var (
	casPattern      = regexp.MustCompile(`(\d{1,7})-(\d{2})-(\d{1})`)
	casExactPattern = regexp.MustCompile(`^\d{1,7}-\d{2}-\d{1}$`)
	propertyPattern = regexp.MustCompile(`([-+]?\d*\.?\d+)\s*([^\d\s].*)?`)
	hazardPattern   = regexp.MustCompile(`(H\d{3}(?:\+H\d{3})*)(?:\s*[:;-]\s*|\s+)(.*?)(?:H\d{3}|\n|$)`)
	precautionPattern = regexp.MustCompile(`(P\d{3}(?:\+P\d{3})*)(?:\s*[:;-]\s*|\s+)(.*?)(?:P\d{3}|\n|$)`)
	nonWordPattern  = regexp.MustCompile(`[^\w\s]`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// ParseCASNumber extracts the first checksum-valid CAS registry number from
// text. Returns "" when no valid CAS number is present.
func ParseCASNumber(text string) string {
	if text == "" {
		return ""
	}

	match := casPattern.FindString(text)
	if match == "" {
		return ""
	}

	if IsValidCAS(match) {
		return match
	}

	return ""
}

// IsValidCAS validates a CAS registry number against its check digit. The
// digits before the final hyphen form a sequence d[0..n-1]; the checksum is
// sum(d[i] * (n-i)) mod 10 and must equal the final digit.
func IsValidCAS(casNumber string) bool {
	if !casExactPattern.MatchString(casNumber) {
		return false
	}

	parts := strings.Split(casNumber, "-")
	if len(parts) != 3 {
		return false
	}

	checkDigit, err := strconv.Atoi(parts[2])
	if err != nil {
		return false
	}

	digits := parts[0] + parts[1]
	sum := 0
	for i, r := range digits {
		sum += int(r-'0') * (len(digits) - i)
	}

	return sum%10 == checkDigit
}

// ParsePhysicalProperty parses a free-text physical property string like
// "100.5 °C" or "1.2g/cm³" into a numeric value and a unit string. The unit
// is trimmed but otherwise left alone. Returns (0, "", false) when no leading
// numeric token is found.
func ParsePhysicalProperty(text string) (float64, string, bool) {
	if text == "" {
		return 0, "", false
	}

	match := propertyPattern.FindStringSubmatch(text)
	if match == nil {
		return 0, "", false
	}

	value, err := strconv.ParseFloat(match[1], 64)
	if err != nil {
		return 0, "", false
	}

	unit := strings.TrimSpace(match[2])
	return value, unit, true
}

// ConvertToStandardUnit converts a parsed property value to the standard unit
// for its kind: Kelvin for temperature, Pascal for pressure, g/cm³ for
// density. Unrecognized kinds or units pass through unchanged.
func ConvertToStandardUnit(value float64, unit string, propertyKind string) (float64, string) {
	switch propertyKind {
	case PropertyTemperature:
		switch unit {
		case "°C", "C":
			return value + 273.15, "K"
		case "°F", "F":
			return (value-32)*5/9 + 273.15, "K"
		case "K":
			return value, "K"
		}

	case PropertyPressure:
		switch unit {
		case "atm":
			return value * 101325, "Pa"
		case "mmHg", "torr":
			return value * 133.322, "Pa"
		case "bar":
			return value * 100000, "Pa"
		case "psi":
			return value * 6894.76, "Pa"
		case "Pa":
			return value, "Pa"
		}

	case PropertyDensity:
		switch unit {
		case "kg/m³":
			return value / 1000, "g/cm³"
		case "g/cm³", "g/cc", "g/mL":
			return value, "g/cm³"
		}
	}

	return value, unit
}

// ExtractHazardCodes extracts GHS H-statements from text, mapping each code
// token (including +-combined codes like H315+H319) to its description.
func ExtractHazardCodes(text string) map[string]string {
	return extractStatementCodes(text, hazardPattern)
}

// ExtractPrecautionaryCodes extracts GHS P-statements from text.
func ExtractPrecautionaryCodes(text string) map[string]string {
	return extractStatementCodes(text, precautionPattern)
}

func extractStatementCodes(text string, pattern *regexp.Regexp) map[string]string {
	codes := make(map[string]string)
	if text == "" {
		return codes
	}

	// The trailing code token consumed by one match is the start of the next
	// statement, so matching restarts just before it.
	rest := text
	for {
		loc := pattern.FindStringSubmatchIndex(rest)
		if loc == nil {
			break
		}

		code := rest[loc[2]:loc[3]]
		description := strings.TrimRight(strings.TrimSpace(rest[loc[4]:loc[5]]), ";:- ")
		if description != "" {
			codes[code] = description
		}

		if loc[5] >= len(rest) {
			break
		}
		rest = rest[loc[5]:]
	}

	return codes
}

// CategorizeHazardStatement maps a GHS hazard code to its category by numeric
// range: H200-H290 Physical, H300-H373 Health, H400-H420 Environmental. For
// combined codes only the first code decides.
func CategorizeHazardStatement(code string) string {
	if code == "" || !strings.HasPrefix(code, "H") {
		return HazardUnknown
	}

	first := strings.SplitN(code[1:], "+", 2)[0]
	num, err := strconv.Atoi(first)
	if err != nil {
		return HazardUnknown
	}

	switch {
	case num >= 200 && num <= 290:
		return HazardPhysical
	case num >= 300 && num <= 373:
		return HazardHealth
	case num >= 400 && num <= 420:
		return HazardEnvironmental
	default:
		return HazardUnknown
	}
}

// NormalizeChemicalName lowercases a chemical name, strips common structural
// prefixes, and collapses punctuation and whitespace for consistent matching.
func NormalizeChemicalName(name string) string {
	if name == "" {
		return ""
	}

	normalized := strings.ToLower(name)

	prefixes := []string{"n-", "tert-", "sec-", "iso-", "cis-", "trans-"}
	for _, prefix := range prefixes {
		if strings.HasPrefix(normalized, prefix) {
			normalized = normalized[len(prefix):]
			break
		}
	}

	normalized = nonWordPattern.ReplaceAllString(normalized, " ")
	normalized = whitespacePattern.ReplaceAllString(normalized, " ")

	return strings.TrimSpace(normalized)
}

// FormatCitation builds a dated citation line for a data source.
func FormatCitation(sourceName, sourceURL string) string {
	return fmt.Sprintf("Data retrieved from %s (%s) on %s",
		sourceName, sourceURL, time.Now().Format("2006-01-02"))
}
