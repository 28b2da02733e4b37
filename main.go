package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"chemsafe/cmd"
)

const (
	maxResults = 100
)

var logger *slog.Logger

// setupLogger creates and configures the application logger
func setupLogger(dataDir string) error {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	logPath := filepath.Join(dataDir, "chemsafe.log")

	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	// Create JSON handler for structured logging
	handler := slog.NewJSONHandler(logFile, &slog.HandlerOptions{
		Level:     slog.LevelInfo,
		AddSource: true, // Include file:line information
	})

	logger = slog.New(handler)
	logger.Info("Application started", "version", cmd.Version, "data_dir", dataDir)

	return nil
}

// renderMarkdown renders markdown content with glamour for terminal display
func renderMarkdown(content string, width int) (string, error) {
	// Account for borders, padding, and glamour's internal gutter
	const glamourGutter = 2
	const borderWidth = 4 // 2 for border characters, 2 for padding

	renderWidth := width - borderWidth - glamourGutter
	if renderWidth < 40 {
		renderWidth = 40 // Minimum width for readable content
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(renderWidth),
	)
	if err != nil {
		return "", err
	}

	rendered, err := renderer.Render(content)
	if err != nil {
		return "", err
	}

	return rendered, nil
}

type view int

const (
	searchView view = iota
	detailView
	savePromptView
)

type model struct {
	db            *DB
	scraper       *PubChemClient
	aiSafety      *AISafetyService
	currentView   view
	searchInput   textinput.Model
	saveInput     textinput.Model
	viewport      viewport.Model
	chemicals     []Chemical
	list          list.Model
	selectedItem  *Chemical
	summary       *SafetySummary
	width         int
	height        int
	err           error
	loading       bool
	fetching      bool
	generatingAI  bool
	saveSuccess   string
	viewportReady bool
}

type chemicalItem struct {
	chemical Chemical
}

func (i chemicalItem) Title() string {
	return i.chemical.Name
}

func (i chemicalItem) Description() string {
	c := i.chemical
	parts := []string{}
	if c.CASNumber.Valid {
		parts = append(parts, "CAS "+c.CASNumber.String)
	}
	if c.MolecularFormula.Valid {
		parts = append(parts, c.MolecularFormula.String)
	}
	if c.MolecularWeight.Valid {
		parts = append(parts, fmt.Sprintf("%.2f g/mol", c.MolecularWeight.Float64))
	}
	if c.SignalWord.Valid {
		parts = append(parts, c.SignalWord.String)
	}
	if len(parts) == 0 {
		return "no details on record"
	}
	return strings.Join(parts, " | ")
}

func (i chemicalItem) FilterValue() string {
	return i.chemical.Name + " " + i.chemical.CASNumber.String + " " + i.chemical.MolecularFormula.String
}

type searchMsg struct {
	chemicals []Chemical
	err       error
}

type fetchMsg struct {
	chemical *Chemical
	stored   bool
	err      error
}

type summaryMsg struct {
	summary *SafetySummary
	err     error
}

type saveMsg struct {
	filename string
	err      error
}

func searchChemicals(db *DB, query string) tea.Cmd {
	return func() tea.Msg {
		chemicals, err := db.SearchChemicals(query, maxResults)
		return searchMsg{chemicals: chemicals, err: err}
	}
}

func fetchChemical(scraper *PubChemClient, db *DB, name string) tea.Cmd {
	return func() tea.Msg {
		chemical, err := scraper.FetchChemical(context.Background(), name)
		if err != nil {
			return fetchMsg{err: err}
		}

		id, created, err := db.UpsertChemical(chemical)
		if err != nil {
			return fetchMsg{err: fmt.Errorf("fetched but failed to store: %w", err)}
		}
		chemical.ID = id

		return fetchMsg{chemical: chemical, stored: created}
	}
}

func generateSummary(aiSafety *AISafetyService, chemical *Chemical) tea.Cmd {
	return func() tea.Msg {
		summary, err := aiSafety.GenerateSafetySummary(context.Background(), chemical)
		return summaryMsg{summary: summary, err: err}
	}
}

func saveChemicalData(chemical *Chemical, summary *SafetySummary, filename string) tea.Cmd {
	return func() tea.Msg {
		data := map[string]interface{}{
			"chemical": toExportRecord(chemical),
		}

		if summary != nil {
			data["ai_summary"] = summary
		}

		jsonData, err := json.MarshalIndent(data, "", "  ")
		if err != nil {
			return saveMsg{err: fmt.Errorf("failed to marshal data: %w", err)}
		}

		if err := os.WriteFile(filename, jsonData, 0644); err != nil {
			return saveMsg{err: fmt.Errorf("failed to write file: %w", err)}
		}

		return saveMsg{filename: filename, err: nil}
	}
}

func initialModel(db *DB, scraper *PubChemClient, aiSafety *AISafetyService) model {
	ti := textinput.New()
	ti.Placeholder = "Search chemicals by name, CAS number, formula, or synonym..."
	ti.Focus()
	ti.CharLimit = 100
	ti.Width = 60

	si := textinput.New()
	si.Placeholder = "Enter filename (e.g., chemical_data.json)"
	si.CharLimit = 200
	si.Width = 60

	delegate := list.NewDefaultDelegate()
	delegate.SetHeight(2)

	l := list.New([]list.Item{}, delegate, 0, 0)
	l.Title = "ChemSafe"
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(false)
	l.Styles.Title = lipgloss.NewStyle().
		Background(lipgloss.Color("62")).
		Foreground(lipgloss.Color("230")).
		Padding(0, 1)

	vp := viewport.New(80, 20)
	vp.Style = lipgloss.NewStyle()

	return model{
		db:          db,
		scraper:     scraper,
		aiSafety:    aiSafety,
		currentView: searchView,
		searchInput: ti,
		saveInput:   si,
		viewport:    vp,
		list:        l,
		chemicals:   []Chemical{},
	}
}

func (m model) Init() tea.Cmd {
	return textinput.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(msg.Width-4, msg.Height-10)

		// Update viewport dimensions
		// Reserve 6 lines: 1 for newline, 1 for scroll indicator, up to 3 for status messages, 1 for help text
		m.viewport.Width = msg.Width
		m.viewport.Height = msg.Height - 6
		m.viewportReady = true

		// Refresh viewport content if in detail view
		if m.currentView == detailView {
			m.updateDetailViewport()
		}

		return m, nil

	case tea.KeyMsg:
		if m.currentView == detailView {
			return m.handleDetailViewKeys(msg)
		} else if m.currentView == savePromptView {
			return m.handleSavePromptKeys(msg)
		}
		return m.handleSearchViewKeys(msg)

	case tea.MouseMsg:
		if m.currentView == detailView {
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}

	case searchMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			if logger != nil {
				logger.Error("Chemical search failed", "error", msg.err, "query", m.searchInput.Value())
			}
			return m, nil
		}

		m.chemicals = msg.chemicals
		items := make([]list.Item, len(msg.chemicals))
		for i, chemical := range msg.chemicals {
			items[i] = chemicalItem{chemical: chemical}
		}
		m.list.SetItems(items)
		if logger != nil {
			logger.Info("Search completed", "results_count", len(msg.chemicals), "query", m.searchInput.Value())
		}
		return m, nil

	case fetchMsg:
		m.fetching = false
		if msg.err != nil {
			m.err = fmt.Errorf("PubChem fetch failed: %w", msg.err)
			if logger != nil {
				logger.Error("PubChem fetch failed", "error", msg.err, "query", m.searchInput.Value())
			}
			return m, nil
		}
		m.err = nil
		m.selectedItem = msg.chemical
		m.summary = nil
		m.currentView = detailView
		m.viewport.GotoTop()
		m.updateDetailViewport()
		if logger != nil {
			logger.Info("Chemical fetched from PubChem", "name", msg.chemical.Name, "cas", msg.chemical.CASNumber.String, "created", msg.stored)
		}
		return m, nil

	case summaryMsg:
		m.generatingAI = false
		if msg.err != nil {
			m.err = fmt.Errorf("AI summary failed: %w", msg.err)
			if logger != nil && m.selectedItem != nil {
				logger.Error("AI summary generation failed", "error", msg.err, "chemical", m.selectedItem.Name)
			}
			return m, nil
		}
		m.summary = msg.summary
		m.err = nil
		if m.currentView == detailView {
			m.updateDetailViewport()
		}
		if logger != nil && m.selectedItem != nil {
			logger.Info("AI summary generated", "chemical", m.selectedItem.Name, "model", msg.summary.Model)
		}
		return m, nil

	case saveMsg:
		if msg.err != nil {
			m.err = fmt.Errorf("save failed: %w", msg.err)
			m.currentView = detailView
			if logger != nil && m.selectedItem != nil {
				logger.Error("Failed to save chemical data", "error", msg.err, "chemical", m.selectedItem.Name, "filename", m.saveInput.Value())
			}
			return m, nil
		}
		m.saveSuccess = fmt.Sprintf("Saved to: %s", msg.filename)
		m.saveInput.SetValue("")
		m.currentView = detailView
		if logger != nil && m.selectedItem != nil {
			logger.Info("Chemical data saved", "chemical", m.selectedItem.Name, "filename", msg.filename)
		}
		return m, nil
	}

	if m.currentView == searchView {
		var cmd tea.Cmd
		m.searchInput, cmd = m.searchInput.Update(msg)
		cmds = append(cmds, cmd)

		var listCmd tea.Cmd
		m.list, listCmd = m.list.Update(msg)
		cmds = append(cmds, listCmd)
	}

	return m, tea.Batch(cmds...)
}

func (m model) handleSearchViewKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		return m, tea.Quit

	case tea.KeyEnter:
		if m.searchInput.Focused() {
			// Search the local database
			m.loading = true
			return m, searchChemicals(m.db, m.searchInput.Value())
		}
		// Select chemical from list
		if item, ok := m.list.SelectedItem().(chemicalItem); ok {
			m.selectedItem = &item.chemical
			m.summary = nil
			m.currentView = detailView
			m.viewport.GotoTop()
			m.updateDetailViewport()
		}
		return m, nil

	case tea.KeyTab:
		if m.searchInput.Focused() {
			m.searchInput.Blur()
		} else {
			m.searchInput.Focus()
		}
		return m, textinput.Blink

	case tea.KeyCtrlF:
		// Fetch from PubChem by the typed name and store the result
		name := strings.TrimSpace(m.searchInput.Value())
		if name != "" && !m.fetching {
			m.fetching = true
			m.err = nil
			return m, fetchChemical(m.scraper, m.db, name)
		}
		return m, nil
	}

	var cmd tea.Cmd
	if m.searchInput.Focused() {
		m.searchInput, cmd = m.searchInput.Update(msg)
	} else {
		m.list, cmd = m.list.Update(msg)
	}
	return m, cmd
}

func (m model) handleDetailViewKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg.Type {
	case tea.KeyEsc, tea.KeyCtrlC:
		m.currentView = searchView
		m.selectedItem = nil
		m.summary = nil
		m.err = nil
		m.saveSuccess = ""
		m.viewport.GotoTop()
		return m, nil

	case tea.KeyCtrlY:
		if m.selectedItem != nil && m.selectedItem.CASNumber.Valid {
			_ = clipboard.WriteAll(m.selectedItem.CASNumber.String)
		}
		return m, nil

	case tea.KeyCtrlA:
		// Generate AI safety summary
		if m.selectedItem != nil && !m.generatingAI && m.aiSafety != nil {
			m.generatingAI = true
			m.err = nil
			return m, generateSummary(m.aiSafety, m.selectedItem)
		}
		return m, nil

	case tea.KeyCtrlR:
		// Refresh the record from PubChem
		if m.selectedItem != nil && !m.fetching {
			m.fetching = true
			m.err = nil
			return m, fetchChemical(m.scraper, m.db, m.selectedItem.Name)
		}
		return m, nil

	case tea.KeyCtrlW:
		// Save chemical data to file
		if m.selectedItem != nil {
			m.currentView = savePromptView
			m.saveInput.Focus()
			m.err = nil
			m.saveSuccess = ""
			// Pre-fill with chemical name
			defaultName := strings.ReplaceAll(strings.ToLower(m.selectedItem.Name), " ", "_") + ".json"
			m.saveInput.SetValue(defaultName)
			return m, textinput.Blink
		}
		return m, nil

	// Scrolling keys
	case tea.KeyUp, tea.KeyDown, tea.KeyPgUp, tea.KeyPgDown, tea.KeyHome, tea.KeyEnd:
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m model) handleSavePromptKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc, tea.KeyCtrlC:
		m.currentView = detailView
		m.saveInput.SetValue("")
		return m, nil

	case tea.KeyEnter:
		filename := m.saveInput.Value()
		if filename == "" {
			m.err = fmt.Errorf("filename cannot be empty")
			return m, nil
		}
		return m, saveChemicalData(m.selectedItem, m.summary, filename)
	}

	var cmd tea.Cmd
	m.saveInput, cmd = m.saveInput.Update(msg)
	return m, cmd
}

func (m model) View() string {
	if m.currentView == detailView {
		return m.detailViewRender()
	} else if m.currentView == savePromptView {
		return m.savePromptView()
	}
	return m.searchViewRender()
}

func (m model) searchViewRender() string {
	var b strings.Builder

	// Header
	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("62")).
		MarginBottom(1)

	b.WriteString(headerStyle.Render("🧪 ChemSafe"))
	b.WriteString("\n\n")

	// Search input
	inputStyle := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("62")).
		Padding(0, 1)

	b.WriteString(inputStyle.Render(m.searchInput.View()))
	b.WriteString("\n\n")

	// Loading indicators
	if m.loading {
		b.WriteString("Searching...\n")
	}
	if m.fetching {
		b.WriteString("Fetching from PubChem...\n")
	}

	// Error display
	if m.err != nil {
		errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
		b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v\n", m.err)))
	}

	// Results summary stats
	if len(m.chemicals) > 0 {
		danger := 0
		warning := 0
		withToxicity := 0

		for _, chemical := range m.chemicals {
			switch chemical.SignalWord.String {
			case "Danger":
				danger++
			case "Warning":
				warning++
			}
			if chemical.LD50.Valid || chemical.LC50.Valid {
				withToxicity++
			}
		}

		statsStyle := lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			MarginBottom(1)

		stats := fmt.Sprintf("Results: %d chemicals | Danger: %d | Warning: %d | With toxicity data: %d",
			len(m.chemicals), danger, warning, withToxicity)
		b.WriteString(statsStyle.Render(stats))
		b.WriteString("\n")

		unclassified := len(m.chemicals) - danger - warning
		b.WriteString(DistributionBar([]struct {
			Label string
			Value float64
			Color lipgloss.Color
		}{
			{"Danger", float64(danger), lipgloss.Color("196")},
			{"Warning", float64(warning), lipgloss.Color("214")},
			{"Unclassified", float64(unclassified), lipgloss.Color("240")},
		}, 40))
		b.WriteString("\n")

		var weights []float64
		for _, chemical := range m.chemicals {
			if chemical.MolecularWeight.Valid {
				weights = append(weights, chemical.MolecularWeight.Float64)
			}
		}
		if len(weights) > 1 {
			b.WriteString(statsStyle.Render("Weights: "+Sparkline(weights)) + "\n")
		}

		b.WriteString(m.list.View())
	}

	// Help text
	helpStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241")).
		MarginTop(1)

	help := "\nTab: Switch focus | Enter: Search/Select | Ctrl+F: Fetch from PubChem | Esc/Ctrl+C: Quit"
	b.WriteString(helpStyle.Render(help))

	return b.String()
}

func (m model) detailViewContent() string {
	if m.selectedItem == nil {
		return "No chemical selected"
	}

	c := m.selectedItem

	var b strings.Builder

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("62")).
		MarginBottom(1)

	labelStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("33")).
		Width(20)

	valueStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("230"))

	sectionStyle := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("62")).
		Padding(1, 2).
		MarginBottom(1)

	str := func(s string) string {
		if s == "" {
			return "—"
		}
		return s
	}

	// Header
	b.WriteString(titleStyle.Render("🧪 " + c.Name))
	if c.SignalWord.Valid {
		b.WriteString("  ")
		b.WriteString(SignalWordBadge(c.SignalWord.String))
	}
	b.WriteString("\n\n")

	b.WriteString(PercentageBar("Data coverage:", c.Completeness(), 30))
	b.WriteString("\n\n")

	// Identification Section
	var idInfo strings.Builder
	idInfo.WriteString(labelStyle.Render("CAS Number:") + " " + valueStyle.Render(str(c.CASNumber.String)) + "\n")
	idInfo.WriteString(labelStyle.Render("Formula:") + " " + valueStyle.Render(str(c.MolecularFormula.String)) + "\n")
	if c.MolecularWeight.Valid {
		idInfo.WriteString(labelStyle.Render("Molecular Weight:") + " " + valueStyle.Render(fmt.Sprintf("%.3f g/mol", c.MolecularWeight.Float64)) + "\n")
	}
	idInfo.WriteString(labelStyle.Render("IUPAC Name:") + " " + valueStyle.Render(str(c.IUPACName.String)) + "\n")
	idInfo.WriteString(labelStyle.Render("SMILES:") + " " + valueStyle.Render(str(c.CanonicalSMILES.String)) + "\n")
	idInfo.WriteString(labelStyle.Render("InChIKey:") + " " + valueStyle.Render(str(c.InChIKey.String)) + "\n")
	if c.PubChemCID.Valid {
		idInfo.WriteString(labelStyle.Render("PubChem CID:") + " " + valueStyle.Render(fmt.Sprintf("%d", c.PubChemCID.Int64)) + "\n")
	}

	b.WriteString(sectionStyle.Render(idInfo.String()))
	b.WriteString("\n")

	// Physical Properties Section
	var physInfo strings.Builder
	physInfo.WriteString(labelStyle.Render("Physical State:") + " " + valueStyle.Render(str(c.PhysicalState.String)) + "\n")
	physInfo.WriteString(labelStyle.Render("Color:") + " " + valueStyle.Render(str(c.Color.String)) + "\n")
	physInfo.WriteString(labelStyle.Render("Melting Point:") + " " + valueStyle.Render(str(c.MeltingPoint.String)) + "\n")
	physInfo.WriteString(labelStyle.Render("Boiling Point:") + " " + valueStyle.Render(str(c.BoilingPoint.String)) + "\n")
	physInfo.WriteString(labelStyle.Render("Density:") + " " + valueStyle.Render(str(c.Density.String)) + "\n")
	physInfo.WriteString(labelStyle.Render("Vapor Pressure:") + " " + valueStyle.Render(str(c.VaporPressure.String)) + "\n")
	physInfo.WriteString(labelStyle.Render("Solubility:") + " " + valueStyle.Render(str(c.Solubility.String)) + "\n")
	physInfo.WriteString(labelStyle.Render("Flash Point:") + " " + valueStyle.Render(str(c.FlashPoint.String)) + "\n")

	b.WriteString(sectionStyle.Render(physInfo.String()))
	b.WriteString("\n")

	// GHS Hazards Section
	hazardTitle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("196")).
		Render("⚠ GHS Hazard Classification")
	b.WriteString(hazardTitle)
	b.WriteString("\n\n")

	if c.GHSPictograms.Valid {
		b.WriteString(labelStyle.Render("Pictograms:") + " " + valueStyle.Render(c.GHSPictograms.String) + "\n")
	}

	if c.HazardStatements.Valid {
		codes := ExtractHazardCodes(c.HazardStatements.String)
		if len(codes) > 0 {
			b.WriteString("\n")
			b.WriteString(HazardCategoryChart(codes, 30))
			b.WriteString("\n\n")
		}
		b.WriteString(labelStyle.Render("Hazards:") + "\n")
		for _, line := range strings.Split(c.HazardStatements.String, "; ") {
			b.WriteString("  " + valueStyle.Render(line) + "\n")
		}
	} else {
		b.WriteString(valueStyle.Render("No hazard statements on record") + "\n")
	}

	if c.PrecautionaryStatements.Valid {
		b.WriteString("\n")
		b.WriteString(labelStyle.Render("Precautions:") + "\n")
		for _, line := range strings.Split(c.PrecautionaryStatements.String, "; ") {
			b.WriteString("  " + valueStyle.Render(line) + "\n")
		}
	}
	b.WriteString("\n")

	// Toxicity Section
	toxTitle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("201")).
		Render("☠ Acute Toxicity")
	b.WriteString(toxTitle)
	b.WriteString("\n\n")

	if c.LD50.Valid {
		b.WriteString(labelStyle.Render("LD50:") + " " + valueStyle.Render(c.LD50.String) + "\n")
		if mgPerKg, ok := ld50MgPerKg(c.LD50.String); ok {
			b.WriteString("\n")
			b.WriteString(ToxicitySeverityGauge(mgPerKg, 40))
			b.WriteString("\n")
		}
	}
	if c.LC50.Valid {
		b.WriteString(labelStyle.Render("LC50:") + " " + valueStyle.Render(c.LC50.String) + "\n")
	}
	if c.AcuteToxicityNotes.Valid {
		b.WriteString(labelStyle.Render("Notes:") + " " + valueStyle.Render(c.AcuteToxicityNotes.String) + "\n")
	}
	if !c.LD50.Valid && !c.LC50.Valid && !c.AcuteToxicityNotes.Valid {
		b.WriteString(valueStyle.Render("No toxicity data on record") + "\n")
	}
	b.WriteString("\n")

	// Source citation
	if c.SourceName.Valid {
		citeStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
		b.WriteString(citeStyle.Render(FormatCitation(c.SourceName.String, c.SourceURL.String)))
		b.WriteString("\n\n")
	}

	// AI Safety Summary Section
	if m.summary != nil {
		aiTitle := lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("201")).
			Render("🤖 AI Safety Summary")

		b.WriteString(aiTitle)
		b.WriteString("\n\n")

		b.WriteString("Model: " + m.summary.Model + "\n")
		b.WriteString("Generated: " + m.summary.GeneratedAt.Format("2006-01-02 15:04") + "\n\n")

		rendered, err := renderMarkdown(m.summary.MarkdownContent, m.width)
		if err != nil {
			// Fallback to plain markdown if rendering fails
			b.WriteString(m.summary.MarkdownContent)
		} else {
			b.WriteString(rendered)
		}
		b.WriteString("\n")
	}

	return b.String()
}

// ld50DosePattern matches the first number directly followed by a dose unit,
// skipping the digits inside the "LD50" token itself.
var ld50DosePattern = regexp.MustCompile(`([\d][\d\.]*)\s*(mg/kg|g/kg)`)

// ld50MgPerKg extracts a numeric oral LD50 in mg/kg from a stored LD50 string.
func ld50MgPerKg(text string) (float64, bool) {
	m := ld50DosePattern.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}

	value, err := strconv.ParseFloat(strings.TrimRight(m[1], "."), 64)
	if err != nil {
		return 0, false
	}
	if m[2] == "g/kg" {
		return value * 1000, true
	}
	return value, true
}

func (m *model) updateDetailViewport() {
	if !m.viewportReady || m.selectedItem == nil {
		return
	}
	content := m.detailViewContent()
	m.viewport.SetContent(content)
}

func (m model) detailViewRender() string {
	if !m.viewportReady || m.selectedItem == nil {
		return "Loading..."
	}

	var b strings.Builder

	// Render viewport
	b.WriteString(m.viewport.View())
	b.WriteString("\n")

	// Add scroll indicator if content is scrollable
	if m.viewport.TotalLineCount() > m.viewport.Height {
		scrollPercent := int(m.viewport.ScrollPercent() * 100)
		scrollInfo := lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Render(fmt.Sprintf("─── %d%% ───", scrollPercent))
		b.WriteString(scrollInfo)
		b.WriteString("\n")
	}

	// Status indicators (always visible)
	statusStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("226")).
		Bold(true)

	if m.fetching {
		b.WriteString(statusStyle.Render("⏳ Refreshing from PubChem..."))
		b.WriteString("\n")
	}

	if m.generatingAI {
		b.WriteString(statusStyle.Render("⏳ Generating AI safety summary..."))
		b.WriteString("\n")
	}

	// Save success message
	if m.saveSuccess != "" {
		successStyle := lipgloss.NewStyle().
			Foreground(lipgloss.Color("82")).
			Bold(true)
		b.WriteString(successStyle.Render("✓ " + m.saveSuccess))
		b.WriteString("\n")
	}

	// Error display
	if m.err != nil {
		errorStyle := lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)
		b.WriteString(errorStyle.Render(fmt.Sprintf("❌ Error: %v", m.err)))
		b.WriteString("\n")
	}

	// Help text (always visible at bottom)
	helpStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))

	var help string
	if m.aiSafety != nil {
		help = "↑/↓/PgUp/PgDn: Scroll | Ctrl+W: Save | Ctrl+A: AI Summary | Ctrl+R: Refresh | Ctrl+Y: Copy CAS | Esc: Back"
	} else {
		help = "↑/↓/PgUp/PgDn: Scroll | Ctrl+W: Save | Ctrl+R: Refresh | Ctrl+Y: Copy CAS | Esc: Back"
	}
	b.WriteString(helpStyle.Render(help))

	return b.String()
}

func (m model) savePromptView() string {
	var b strings.Builder

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("62")).
		MarginBottom(1)

	b.WriteString(titleStyle.Render("💾 Save Chemical Data"))
	b.WriteString("\n\n")

	if m.selectedItem != nil {
		boxes := InfoBox("Chemical", m.selectedItem.Name, lipgloss.Color("62"))
		if m.selectedItem.CASNumber.Valid {
			boxes = lipgloss.JoinHorizontal(lipgloss.Top, boxes, " ", InfoBox("CAS", m.selectedItem.CASNumber.String, lipgloss.Color("33")))
		}
		b.WriteString(boxes)
		b.WriteString("\n\n")
	}

	// Input prompt
	inputStyle := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("62")).
		Padding(0, 1)

	b.WriteString("Filename: ")
	b.WriteString(inputStyle.Render(m.saveInput.View()))
	b.WriteString("\n\n")

	// Info text
	infoStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))

	info := "The file will contain:\n"
	info += "  • Chemical record (identifiers, properties, GHS hazards, toxicity)\n"
	if m.summary != nil {
		info += "  • AI-generated safety summary\n"
	}
	info += "\nFormat: JSON"
	b.WriteString(infoStyle.Render(info))
	b.WriteString("\n\n")

	// Error display
	if m.err != nil {
		errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
		b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v\n", m.err)))
	}

	// Help text
	helpStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241")).
		MarginTop(1)

	help := "Enter: Save | Esc: Cancel | Ctrl+C: Quit"
	b.WriteString(helpStyle.Render(help))

	return b.String()
}

// launchTUI starts the interactive TUI application
func launchTUI(dataDir string) {
	// Setup logger first
	if err := setupLogger(dataDir); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to setup logger: %v\n", err)
	}

	db, err := NewDB(dataDir, logger)
	if err != nil {
		if logger != nil {
			logger.Error("Failed to initialize database", "error", err, "data_dir", dataDir)
		}
		fmt.Fprintf(os.Stderr, "Error initializing database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	scraper := newScraper(dataDir)

	// Initialize AI safety service (optional - requires ANTHROPIC_API_KEY)
	apiKey := os.Getenv("ANTHROPIC_API_KEY")
	var aiSafety *AISafetyService
	if apiKey != "" {
		aiSafety, err = NewAISafetyService(apiKey, db, logger)
		if err != nil {
			if logger != nil {
				logger.Warn("AI safety service initialization failed", "error", err)
			}
			fmt.Fprintf(os.Stderr, "Warning: AI safety service initialization failed: %v\n", err)
			aiSafety = nil
		}
	}

	// Print configuration info
	fmt.Println("\n🧪 ChemSafe Configuration:")
	if apiKey != "" {
		fmt.Println("   • AI Safety Summaries: ✓ Available")
	} else {
		fmt.Println("   • AI Safety Summaries: ✗ Not configured (set ANTHROPIC_API_KEY)")
	}
	fmt.Println()

	p := tea.NewProgram(
		initialModel(db, scraper, aiSafety),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", err)
		os.Exit(1)
	}
}

// newScraper builds the PubChem client with its cache under dataDir.
func newScraper(dataDir string) *PubChemClient {
	return NewPubChemClient(filepath.Join(dataDir, "cache"), 24*time.Hour, 3, logger)
}

// initDB initializes the database for CLI commands
func initDB(dataDir string) (cmd.DBInterface, func(), error) {
	// Setup logger
	if err := setupLogger(dataDir); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Failed to setup logger: %v\n", err)
	}

	db, err := NewDB(dataDir, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	cleanup := func() {
		db.Close()
	}

	return &dbAdapter{db: db}, cleanup, nil
}

// initScraper initializes the PubChem client for CLI commands
func initScraper(dataDir string) (cmd.ScraperInterface, error) {
	return &scraperAdapter{client: newScraper(dataDir)}, nil
}

// startServer wires the HTTP server for the serve command
func startServer(db cmd.DBInterface, port int, dataDir string) error {
	adapter, ok := db.(*dbAdapter)
	if !ok {
		return fmt.Errorf("unexpected database implementation")
	}

	// AI summaries on the web UI are optional
	var aiSafety *AISafetyService
	if apiKey := os.Getenv("ANTHROPIC_API_KEY"); apiKey != "" {
		var err error
		aiSafety, err = NewAISafetyService(apiKey, adapter.db, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: AI safety service initialization failed: %v\n", err)
			aiSafety = nil
		}
	}

	return StartServer(ServerConfig{
		Port:     port,
		DB:       adapter.db,
		AISafety: aiSafety,
		DataDir:  dataDir,
	})
}

// exportChemicals writes records to a file for the export command
func exportChemicals(chemicals []cmd.ChemicalData, path, format string) error {
	records := make([]Chemical, len(chemicals))
	for i := range chemicals {
		records[i] = convertCmdToChemical(&chemicals[i])
	}
	return ExportChemicals(records, path, format)
}

// dbAdapter adapts *DB to cmd.DBInterface
type dbAdapter struct {
	db *DB
}

func (a *dbAdapter) SearchChemicals(query string, limit int) ([]cmd.ChemicalData, error) {
	chemicals, err := a.db.SearchChemicals(query, limit)
	if err != nil {
		return nil, err
	}

	result := make([]cmd.ChemicalData, len(chemicals))
	for i, c := range chemicals {
		result[i] = convertChemicalToCmd(c)
	}
	return result, nil
}

func (a *dbAdapter) GetChemicalByCAS(cas string) (*cmd.ChemicalData, error) {
	chemical, err := a.db.GetChemicalByCAS(cas)
	if err != nil {
		return nil, err
	}
	result := convertChemicalToCmd(*chemical)
	return &result, nil
}

func (a *dbAdapter) GetChemicalByName(name string) (*cmd.ChemicalData, error) {
	chemical, err := a.db.GetChemicalByName(name)
	if err != nil {
		return nil, err
	}
	result := convertChemicalToCmd(*chemical)
	return &result, nil
}

func (a *dbAdapter) ListChemicals(filter string, limit int) ([]cmd.ChemicalData, error) {
	chemicals, err := a.db.ListChemicals(filter, limit)
	if err != nil {
		return nil, err
	}

	result := make([]cmd.ChemicalData, len(chemicals))
	for i, c := range chemicals {
		result[i] = convertChemicalToCmd(c)
	}
	return result, nil
}

func (a *dbAdapter) CountChemicals() (int64, error) {
	return a.db.CountChemicals()
}

func (a *dbAdapter) DeleteChemical(cas string) error {
	return a.db.DeleteChemical(cas)
}

func (a *dbAdapter) DeleteChemicalByName(name string) error {
	return a.db.DeleteChemicalByName(name)
}

func (a *dbAdapter) StoreChemical(chemical *cmd.ChemicalData) (int64, bool, error) {
	record := convertCmdToChemical(chemical)
	return a.db.UpsertChemical(&record)
}

func (a *dbAdapter) ExecuteQuery(query string) ([]map[string]interface{}, error) {
	_, rows, err := a.db.ExecuteQuery(query)
	return rows, err
}

func (a *dbAdapter) Close() error {
	return a.db.Close()
}

// scraperAdapter adapts *PubChemClient to cmd.ScraperInterface
type scraperAdapter struct {
	client *PubChemClient
}

func (a *scraperAdapter) FetchChemical(name string) (*cmd.ChemicalData, error) {
	chemical, err := a.client.FetchChemical(context.Background(), name)
	if err != nil {
		return nil, err
	}
	result := convertChemicalToCmd(*chemical)
	return &result, nil
}

// convertChemicalToCmd converts Chemical to cmd.ChemicalData
func convertChemicalToCmd(c Chemical) cmd.ChemicalData {
	data := cmd.ChemicalData{
		ID:   c.ID,
		Name: c.Name,
	}

	data.CASNumber = nullStringPtr(c.CASNumber)
	data.MolecularFormula = nullStringPtr(c.MolecularFormula)
	data.MolecularWeight = nullFloatPtr(c.MolecularWeight)
	data.IUPACName = nullStringPtr(c.IUPACName)
	data.CanonicalSMILES = nullStringPtr(c.CanonicalSMILES)
	data.IsomericSMILES = nullStringPtr(c.IsomericSMILES)
	data.InChI = nullStringPtr(c.InChI)
	data.InChIKey = nullStringPtr(c.InChIKey)
	data.XLogP = nullFloatPtr(c.XLogP)
	data.ExactMass = nullFloatPtr(c.ExactMass)
	data.MonoisotopicMass = nullFloatPtr(c.MonoisotopicMass)
	data.TPSA = nullFloatPtr(c.TPSA)
	data.Complexity = nullFloatPtr(c.Complexity)
	data.Charge = nullIntPtr(c.Charge)
	data.HBondDonorCount = nullIntPtr(c.HBondDonorCount)
	data.HBondAcceptorCount = nullIntPtr(c.HBondAcceptorCount)
	data.RotatableBondCount = nullIntPtr(c.RotatableBondCount)
	data.HeavyAtomCount = nullIntPtr(c.HeavyAtomCount)
	data.MeltingPoint = nullStringPtr(c.MeltingPoint)
	data.BoilingPoint = nullStringPtr(c.BoilingPoint)
	data.Density = nullStringPtr(c.Density)
	data.VaporPressure = nullStringPtr(c.VaporPressure)
	data.Solubility = nullStringPtr(c.Solubility)
	data.FlashPoint = nullStringPtr(c.FlashPoint)
	data.PhysicalState = nullStringPtr(c.PhysicalState)
	data.Color = nullStringPtr(c.Color)
	data.HazardStatements = nullStringPtr(c.HazardStatements)
	data.PrecautionaryStatements = nullStringPtr(c.PrecautionaryStatements)
	data.GHSPictograms = nullStringPtr(c.GHSPictograms)
	data.SignalWord = nullStringPtr(c.SignalWord)
	data.LD50 = nullStringPtr(c.LD50)
	data.LC50 = nullStringPtr(c.LC50)
	data.AcuteToxicityNotes = nullStringPtr(c.AcuteToxicityNotes)
	data.SafetyNotes = nullStringPtr(c.SafetyNotes)
	data.Synonyms = nullStringPtr(c.Synonyms)
	data.PubChemCID = nullIntPtr(c.PubChemCID)
	data.SourceName = nullStringPtr(c.SourceName)
	data.SourceURL = nullStringPtr(c.SourceURL)

	return data
}

// convertCmdToChemical converts cmd.ChemicalData to Chemical
func convertCmdToChemical(d *cmd.ChemicalData) Chemical {
	c := Chemical{
		ID:   d.ID,
		Name: d.Name,
	}

	setStr := func(dst *sql.NullString, src *string) {
		if src != nil {
			*dst = sql.NullString{String: *src, Valid: true}
		}
	}
	setFloat := func(dst *sql.NullFloat64, src *float64) {
		if src != nil {
			*dst = sql.NullFloat64{Float64: *src, Valid: true}
		}
	}
	setInt := func(dst *sql.NullInt64, src *int64) {
		if src != nil {
			*dst = sql.NullInt64{Int64: *src, Valid: true}
		}
	}

	setStr(&c.CASNumber, d.CASNumber)
	setStr(&c.MolecularFormula, d.MolecularFormula)
	setFloat(&c.MolecularWeight, d.MolecularWeight)
	setStr(&c.IUPACName, d.IUPACName)
	setStr(&c.CanonicalSMILES, d.CanonicalSMILES)
	setStr(&c.IsomericSMILES, d.IsomericSMILES)
	setStr(&c.InChI, d.InChI)
	setStr(&c.InChIKey, d.InChIKey)
	setFloat(&c.XLogP, d.XLogP)
	setFloat(&c.ExactMass, d.ExactMass)
	setFloat(&c.MonoisotopicMass, d.MonoisotopicMass)
	setFloat(&c.TPSA, d.TPSA)
	setFloat(&c.Complexity, d.Complexity)
	setInt(&c.Charge, d.Charge)
	setInt(&c.HBondDonorCount, d.HBondDonorCount)
	setInt(&c.HBondAcceptorCount, d.HBondAcceptorCount)
	setInt(&c.RotatableBondCount, d.RotatableBondCount)
	setInt(&c.HeavyAtomCount, d.HeavyAtomCount)
	setStr(&c.MeltingPoint, d.MeltingPoint)
	setStr(&c.BoilingPoint, d.BoilingPoint)
	setStr(&c.Density, d.Density)
	setStr(&c.VaporPressure, d.VaporPressure)
	setStr(&c.Solubility, d.Solubility)
	setStr(&c.FlashPoint, d.FlashPoint)
	setStr(&c.PhysicalState, d.PhysicalState)
	setStr(&c.Color, d.Color)
	setStr(&c.HazardStatements, d.HazardStatements)
	setStr(&c.PrecautionaryStatements, d.PrecautionaryStatements)
	setStr(&c.GHSPictograms, d.GHSPictograms)
	setStr(&c.SignalWord, d.SignalWord)
	setStr(&c.LD50, d.LD50)
	setStr(&c.LC50, d.LC50)
	setStr(&c.AcuteToxicityNotes, d.AcuteToxicityNotes)
	setStr(&c.SafetyNotes, d.SafetyNotes)
	setStr(&c.Synonyms, d.Synonyms)
	setInt(&c.PubChemCID, d.PubChemCID)
	setStr(&c.SourceName, d.SourceName)
	setStr(&c.SourceURL, d.SourceURL)

	return c
}

func main() {
	// Set up cmd package callbacks
	cmd.LaunchTUI = launchTUI
	cmd.InitDB = initDB
	cmd.InitScraper = initScraper
	cmd.StartServer = startServer
	cmd.Export = exportChemicals
	cmd.ImportNames = ReadImportNames

	// Execute the CLI
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
