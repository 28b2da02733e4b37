package main

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// BarChart creates a horizontal bar chart
func BarChart(label string, value, max float64, width int, color lipgloss.Color) string {
	if max == 0 {
		max = value
	}

	percentage := value / max
	if percentage > 1 {
		percentage = 1
	}

	filledWidth := int(float64(width) * percentage)
	if filledWidth < 0 {
		filledWidth = 0
	}
	if filledWidth > width {
		filledWidth = width
	}

	filled := strings.Repeat("█", filledWidth)
	empty := strings.Repeat("░", width-filledWidth)

	barStyle := lipgloss.NewStyle().Foreground(color)
	emptyStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))

	return fmt.Sprintf("%s %s%s %.0f",
		label,
		barStyle.Render(filled),
		emptyStyle.Render(empty),
		value,
	)
}

// PercentageBar creates a percentage-based progress bar
func PercentageBar(label string, percentage float64, width int) string {
	if percentage > 100 {
		percentage = 100
	}
	if percentage < 0 {
		percentage = 0
	}

	filledWidth := int(float64(width) * percentage / 100)
	filled := strings.Repeat("█", filledWidth)
	empty := strings.Repeat("░", width-filledWidth)

	// Color based on percentage
	var color lipgloss.Color
	switch {
	case percentage >= 75:
		color = lipgloss.Color("82") // Green
	case percentage >= 50:
		color = lipgloss.Color("226") // Yellow
	case percentage >= 25:
		color = lipgloss.Color("214") // Orange
	default:
		color = lipgloss.Color("196") // Red
	}

	barStyle := lipgloss.NewStyle().Foreground(color)
	emptyStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))

	return fmt.Sprintf("%s %s%s %.1f%%",
		label,
		barStyle.Render(filled),
		emptyStyle.Render(empty),
		percentage,
	)
}

// Sparkline creates a simple sparkline from values
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}

	min, max := values[0], values[0]
	for _, v := range values {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}

	// Sparkline characters from bottom to top
	chars := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

	var result strings.Builder
	for _, v := range values {
		var idx int
		if max == min {
			idx = len(chars) / 2
		} else {
			normalized := (v - min) / (max - min)
			idx = int(normalized * float64(len(chars)-1))
		}
		result.WriteRune(chars[idx])
	}

	return result.String()
}

// InfoBox creates a styled info box with a value
func InfoBox(label string, value string, color lipgloss.Color) string {
	labelStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("240")).
		Width(18).
		Align(lipgloss.Left)

	valueStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(color).
		Width(12).
		Align(lipgloss.Right)

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(color).
		Padding(0, 1)

	content := lipgloss.JoinHorizontal(
		lipgloss.Top,
		labelStyle.Render(label),
		valueStyle.Render(value),
	)

	return boxStyle.Render(content)
}

// SignalWordBadge renders the GHS signal word with its conventional color.
func SignalWordBadge(signalWord string) string {
	if signalWord == "" {
		return ""
	}

	var color lipgloss.Color
	switch signalWord {
	case "Danger":
		color = lipgloss.Color("196") // Red
	case "Warning":
		color = lipgloss.Color("214") // Orange
	default:
		color = lipgloss.Color("240")
	}

	style := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("231")).
		Background(color).
		Padding(0, 1)

	return style.Render(strings.ToUpper(signalWord))
}

// hazardCategoryColors maps hazard categories to display colors.
var hazardCategoryColors = map[string]lipgloss.Color{
	HazardPhysical:      lipgloss.Color("214"), // Orange
	HazardHealth:        lipgloss.Color("196"), // Red
	HazardEnvironmental: lipgloss.Color("82"),  // Green
	HazardUnknown:       lipgloss.Color("240"), // Gray
}

// HazardCategoryChart renders per-category hazard statement counts as bars.
func HazardCategoryChart(codes map[string]string, width int) string {
	counts := map[string]int{}
	max := 0
	for code := range codes {
		category := CategorizeHazardStatement(code)
		counts[category]++
		if counts[category] > max {
			max = counts[category]
		}
	}

	if len(counts) == 0 {
		return "No hazard statements on record"
	}

	var b strings.Builder
	for _, category := range []string{HazardPhysical, HazardHealth, HazardEnvironmental, HazardUnknown} {
		n, ok := counts[category]
		if !ok {
			continue
		}
		color := hazardCategoryColors[category]
		b.WriteString(BarChart(fmt.Sprintf("%-14s", category), float64(n), float64(max), width, color))
		b.WriteString("\n")
	}

	return strings.TrimRight(b.String(), "\n")
}

// GHS acute oral toxicity category boundaries, in mg/kg.
var acuteToxicityBounds = []float64{5, 50, 300, 2000, 5000}

// ToxicitySeverityGauge places an oral LD50 value on the GHS acute toxicity
// scale. Lower values render toward the red end.
func ToxicitySeverityGauge(ld50MgPerKg float64, width int) string {
	if ld50MgPerKg <= 0 {
		return "No LD50 value on record"
	}

	// Log scale keeps category widths comparable.
	logMin := math.Log10(1)
	logMax := math.Log10(acuteToxicityBounds[len(acuteToxicityBounds)-1])
	logVal := math.Log10(ld50MgPerKg)

	pos := int(((logVal - logMin) / (logMax - logMin)) * float64(width))
	if pos < 0 {
		pos = 0
	}
	if pos >= width {
		pos = width - 1
	}

	gauge := make([]rune, width)
	for i := range gauge {
		gauge[i] = '─'
	}
	gauge[pos] = '◆'

	category := 5
	for i, bound := range acuteToxicityBounds {
		if ld50MgPerKg <= bound {
			category = i + 1
			break
		}
	}

	var color lipgloss.Color
	switch {
	case category <= 2:
		color = lipgloss.Color("196") // Red
	case category <= 4:
		color = lipgloss.Color("214") // Orange
	default:
		color = lipgloss.Color("82") // Green
	}

	style := lipgloss.NewStyle().Foreground(color)
	return fmt.Sprintf("%s  Category %d (%.4g mg/kg)", style.Render(string(gauge)), category, ld50MgPerKg)
}

// DistributionBar shows multiple segments
func DistributionBar(segments []struct {
	Label string
	Value float64
	Color lipgloss.Color
}, width int) string {
	total := 0.0
	for _, seg := range segments {
		total += seg.Value
	}

	if total == 0 {
		return "No data"
	}

	var bar strings.Builder
	remaining := width

	for i, seg := range segments {
		segWidth := int(math.Round((seg.Value / total) * float64(width)))

		// Adjust last segment to fill exactly
		if i == len(segments)-1 {
			segWidth = remaining
		}

		if segWidth > remaining {
			segWidth = remaining
		}

		style := lipgloss.NewStyle().Foreground(seg.Color)
		bar.WriteString(style.Render(strings.Repeat("█", segWidth)))
		remaining -= segWidth
	}

	return bar.String()
}
