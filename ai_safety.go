package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// SafetySummary is an AI-generated safety briefing for a stored chemical.
type SafetySummary struct {
	CASNumber       string    `json:"cas_number"`
	ChemicalName    string    `json:"chemical_name"`
	GeneratedAt     time.Time `json:"generated_at"`
	Model           string    `json:"model"`
	MarkdownContent string    `json:"markdown_content"`
}

// AISafetyService generates safety summaries and answers natural-language
// questions about the chemical database with Claude.
type AISafetyService struct {
	client        *anthropic.Client
	db            *DB
	logger        *slog.Logger
	cacheTTL      time.Duration
	maxSQLRetries int
}

const safetySummaryModel = string(anthropic.ModelClaudeHaiku4_5_20251001)

// NewAISafetyService creates the service. The API key is required; retries
// for SQL self-correction are capped by AI_SQL_MAX_RETRIES.
func NewAISafetyService(apiKey string, db *DB, logger *slog.Logger) (*AISafetyService, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if apiKey == "" {
		logger.Error("AI safety service initialization failed: missing API key")
		return nil, fmt.Errorf("ANTHROPIC_API_KEY environment variable not set")
	}

	client := anthropic.NewClient(option.WithAPIKey(apiKey))

	maxRetries := 3
	if retryStr := os.Getenv("AI_SQL_MAX_RETRIES"); retryStr != "" {
		if r, err := fmt.Sscanf(retryStr, "%d", &maxRetries); err == nil && r == 1 {
			if maxRetries < 0 {
				maxRetries = 0
			} else if maxRetries > 5 {
				maxRetries = 5
			}
		}
	}

	logger.Info("AI safety service initialized", "cache_ttl_days", 30, "max_sql_retries", maxRetries)

	return &AISafetyService{
		client:        &client,
		db:            db,
		logger:        logger,
		cacheTTL:      30 * 24 * time.Hour,
		maxSQLRetries: maxRetries,
	}, nil
}

// GenerateSafetySummary produces a markdown safety briefing for a chemical,
// serving from the database cache when a fresh entry exists.
func (s *AISafetyService) GenerateSafetySummary(ctx context.Context, chem *Chemical) (*SafetySummary, error) {
	cacheKey := chem.CASNumber.String
	if cacheKey == "" {
		cacheKey = NormalizeChemicalName(chem.Name)
	}

	if s.db != nil {
		name, model, markdown, generatedAt, err := s.db.LoadAISummaryCache(cacheKey, s.cacheTTL)
		if err == nil {
			s.logger.Info("Returning cached safety summary",
				"chemical_name", name, "cache_age_days", int(time.Since(generatedAt).Hours()/24))
			return &SafetySummary{
				CASNumber:       cacheKey,
				ChemicalName:    name,
				GeneratedAt:     generatedAt,
				Model:           model,
				MarkdownContent: markdown,
			}, nil
		}
	}

	prompt := buildSafetyPrompt(chem)

	params := anthropic.MessageNewParams{
		Model:     anthropic.ModelClaudeHaiku4_5_20251001,
		MaxTokens: 4000,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}

	message, err := s.client.Messages.New(ctx, params)
	if err != nil {
		s.logger.Error("Claude API call failed for safety summary", "error", err, "chemical_name", chem.Name)
		return nil, fmt.Errorf("Claude API error: %w", err)
	}

	responseText := ""
	for _, block := range message.Content {
		if textBlock, ok := block.AsAny().(anthropic.TextBlock); ok {
			responseText += textBlock.Text
		}
	}
	if responseText == "" {
		s.logger.Error("No text content in Claude safety summary response", "chemical_name", chem.Name)
		return nil, fmt.Errorf("no text response from Claude")
	}

	summary := &SafetySummary{
		CASNumber:       cacheKey,
		ChemicalName:    chem.Name,
		GeneratedAt:     time.Now(),
		Model:           safetySummaryModel,
		MarkdownContent: responseText,
	}

	if s.db != nil {
		if err := s.db.SaveAISummaryCache(cacheKey, chem.Name, summary.Model, responseText, summary.GeneratedAt); err != nil {
			s.logger.Warn("Failed to cache safety summary", "error", err, "chemical_name", chem.Name)
		}
	}

	return summary, nil
}

func buildSafetyPrompt(chem *Chemical) string {
	var b strings.Builder

	b.WriteString("You are a laboratory safety officer. Write a concise safety briefing in markdown for the chemical below, based ONLY on the provided data. Cover: identification, GHS hazards in plain language, acute toxicity, handling precautions, and first-aid basics. If a field is missing, say so rather than inventing values.\n\n")

	fmt.Fprintf(&b, "Name: %s\n", chem.Name)
	if chem.CASNumber.Valid {
		fmt.Fprintf(&b, "CAS: %s\n", chem.CASNumber.String)
	}
	if chem.MolecularFormula.Valid {
		fmt.Fprintf(&b, "Formula: %s\n", chem.MolecularFormula.String)
	}
	if chem.MolecularWeight.Valid {
		fmt.Fprintf(&b, "Molecular weight: %g g/mol\n", chem.MolecularWeight.Float64)
	}
	if chem.PhysicalState.Valid {
		fmt.Fprintf(&b, "Physical state: %s\n", chem.PhysicalState.String)
	}
	if chem.FlashPoint.Valid {
		fmt.Fprintf(&b, "Flash point: %s\n", chem.FlashPoint.String)
	}
	if chem.SignalWord.Valid {
		fmt.Fprintf(&b, "GHS signal word: %s\n", chem.SignalWord.String)
	}
	if chem.HazardStatements.Valid {
		fmt.Fprintf(&b, "Hazard statements: %s\n", chem.HazardStatements.String)
	}
	if chem.PrecautionaryStatements.Valid {
		fmt.Fprintf(&b, "Precautionary statements: %s\n", chem.PrecautionaryStatements.String)
	}
	if chem.LD50.Valid {
		fmt.Fprintf(&b, "LD50: %s\n", chem.LD50.String)
	}
	if chem.LC50.Valid {
		fmt.Fprintf(&b, "LC50: %s\n", chem.LC50.String)
	}
	if chem.AcuteToxicityNotes.Valid {
		fmt.Fprintf(&b, "Toxicity notes: %s\n", chem.AcuteToxicityNotes.String)
	}

	return b.String()
}

// sqlQueryResult holds the parsed result from Claude's SQL generation.
type sqlQueryResult struct {
	QueryType   string `json:"query_type"` // "search" or "analysis"
	Explanation string `json:"explanation"`
	SQLQuery    string `json:"sql_query"`
	Analysis    string `json:"analysis"`
}

// generateSQLFromClaude asks Claude for SQL matching a natural-language
// question, with optional error context for self-correction retries.
func (s *AISafetyService) generateSQLFromClaude(ctx context.Context, query string, previousSQL string, sqlError string, attempt int) (*sqlQueryResult, error) {
	promptBase := `You are an AI data analyst helping users explore a local database of chemical safety records scraped from PubChem.

**Database Schema:**

Table **chemicals** - one row per chemical:
- id (BIGINT primary key), name, cas_number, molecular_formula, molecular_weight (DOUBLE)
- iupac_name, canonical_smiles, isomeric_smiles, inchi, inchikey
- xlogp, exact_mass, monoisotopic_mass, tpsa, complexity (DOUBLE)
- charge, h_bond_donor_count, h_bond_acceptor_count, rotatable_bond_count, heavy_atom_count (BIGINT)
- melting_point, boiling_point, density, vapor_pressure, solubility, flash_point (VARCHAR, free text)
- physical_state, color, signal_word, ghs_pictograms (VARCHAR)
- hazard_statements, precautionary_statements, ld50, lc50, acute_toxicity_notes, synonyms (TEXT)
- pubchem_cid (BIGINT), source_name, source_url, created_at, updated_at

**User Query:** "%s"

**Task:** Analyze the query type and generate appropriate SQL.

**Query Types:**
1. **search** - Find specific chemicals -> return cas_number column
2. **analysis** - Statistics/aggregations -> return analysis columns

**Response Format (JSON only):**

For SEARCH (returns chemical list):
{
  "query_type": "search",
  "explanation": "What you're searching for",
  "sql_query": "SELECT cas_number FROM chemicals WHERE [conditions] LIMIT 200"
}

For ANALYSIS (returns aggregated data):
{
  "query_type": "analysis",
  "explanation": "What analysis you're performing",
  "sql_query": "SELECT [columns], COUNT(*), AVG() FROM chemicals WHERE [conditions] GROUP BY [columns] ORDER BY [columns]"
}

**SQL Guidelines:**
- Hazard codes live inside hazard_statements as text; match with LIKE '%%H315%%'
- signal_word values are 'Danger' or 'Warning'
- Physical property columns are free text; use LIKE, not numeric comparison
- LIMIT 200 for searches
- Database engine is DuckDB (PostgreSQL-compatible syntax)

**Examples:**

"Find flammable liquids"
-> {"query_type": "search", "explanation": "Searching for chemicals with flammability hazards", "sql_query": "SELECT cas_number FROM chemicals WHERE hazard_statements LIKE '%%H22%%' OR hazard_statements LIKE '%%flammable%%' LIMIT 200"}

"How many chemicals carry the Danger signal word?"
-> {"query_type": "analysis", "explanation": "Counting chemicals by signal word", "sql_query": "SELECT signal_word, COUNT(*) as n FROM chemicals GROUP BY signal_word ORDER BY n DESC"}
`

	var prompt string
	if sqlError != "" && previousSQL != "" {
		prompt = fmt.Sprintf(`%s

**IMPORTANT - SQL ERROR CORRECTION (Attempt %d):**

Your previous SQL query failed with an error. Please analyze the error and generate a corrected query.

Previous SQL Query:
%s

Error Message:
%s

Return ONLY the corrected JSON with the fixed sql_query field.`, promptBase, attempt, previousSQL, sqlError)
	} else {
		prompt = promptBase + "\n\nReturn ONLY JSON, no other text."
	}

	prompt = fmt.Sprintf(prompt, query)

	params := anthropic.MessageNewParams{
		Model:     anthropic.ModelClaudeHaiku4_5_20251001,
		MaxTokens: 4000,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}

	message, err := s.client.Messages.New(ctx, params)
	if err != nil {
		s.logger.Error("Claude API call failed for SQL generation", "error", err, "query", query, "attempt", attempt)
		return nil, fmt.Errorf("Claude API error: %w", err)
	}

	responseText := ""
	for _, block := range message.Content {
		if textBlock, ok := block.AsAny().(anthropic.TextBlock); ok {
			responseText += textBlock.Text
		}
	}
	if responseText == "" {
		s.logger.Error("No text content in Claude response for SQL generation", "query", query, "attempt", attempt)
		return nil, fmt.Errorf("no text response from Claude")
	}

	// The JSON may come back wrapped in a markdown fence.
	jsonStr := responseText
	if strings.Contains(responseText, "```json") {
		start := strings.Index(responseText, "```json") + 7
		end := strings.Index(responseText[start:], "```")
		if end > 0 {
			jsonStr = responseText[start : start+end]
		}
	} else if strings.Contains(responseText, "```") {
		start := strings.Index(responseText, "```") + 3
		end := strings.Index(responseText[start:], "```")
		if end > 0 {
			jsonStr = responseText[start : start+end]
		}
	}

	var result sqlQueryResult
	jsonStr = strings.TrimSpace(jsonStr)
	if err := json.Unmarshal([]byte(jsonStr), &result); err != nil {
		s.logger.Error("Failed to parse Claude response as JSON for SQL generation",
			"error", err, "response_preview", truncateString(responseText, 200), "attempt", attempt)
		return nil, fmt.Errorf("failed to parse SQL response as JSON: %w", err)
	}

	if result.SQLQuery == "" {
		s.logger.Warn("Claude generated empty SQL query", "query", query, "attempt", attempt)
		return nil, fmt.Errorf("Claude generated empty SQL query")
	}

	s.logger.Info("Successfully generated SQL from Claude",
		"query", query, "query_type", result.QueryType, "attempt", attempt)

	return &result, nil
}

// QueryChemicalDatabase uses Claude to generate and execute SQL against the
// chemicals table, retrying with self-correction when a query fails. Returns
// formatted text and, for search queries, matching CAS numbers.
func (s *AISafetyService) QueryChemicalDatabase(ctx context.Context, db *DB, query string) (string, []string, error) {
	if db == nil {
		return "", nil, fmt.Errorf("database not available")
	}

	var lastError error
	var previousSQL string

	for attempt := 1; attempt <= s.maxSQLRetries; attempt++ {
		var sqlResult *sqlQueryResult
		var err error

		if attempt == 1 {
			s.logger.Info("Generating SQL for database query", "query", query, "attempt", attempt)
			sqlResult, err = s.generateSQLFromClaude(ctx, query, "", "", attempt)
		} else {
			s.logger.Info("Retrying SQL generation with error correction",
				"query", query, "attempt", attempt, "previous_error", lastError.Error())
			sqlResult, err = s.generateSQLFromClaude(ctx, query, previousSQL, lastError.Error(), attempt)
		}

		if err != nil {
			return "", nil, fmt.Errorf("SQL generation failed: %w", err)
		}

		previousSQL = sqlResult.SQLQuery

		s.logger.Info("Executing AI-generated SQL",
			"query_type", sqlResult.QueryType,
			"sql_preview", truncateString(sqlResult.SQLQuery, 150),
			"attempt", attempt)

		columns, rows, err := db.ExecuteQuery(sqlResult.SQLQuery)
		if err != nil {
			lastError = err
			s.logger.Warn("SQL execution failed, will retry if attempts remain",
				"error", err, "sql", sqlResult.SQLQuery, "attempt", attempt, "max_retries", s.maxSQLRetries)

			if attempt >= s.maxSQLRetries {
				return "", nil, fmt.Errorf("SQL execution failed after %d attempts: %w\n\nLast SQL:\n%s",
					attempt, err, sqlResult.SQLQuery)
			}
			continue
		}

		var casNumbers []string
		fullResponse := sqlResult.Explanation

		if sqlResult.QueryType == "search" {
			for _, row := range rows {
				for _, col := range columns {
					if v, ok := row[col].(string); ok && v != "" {
						casNumbers = append(casNumbers, v)
					}
					break
				}
			}

			fullResponse = fmt.Sprintf("%s\n\nFound %d chemicals.", sqlResult.Explanation, len(casNumbers))
		} else {
			fullResponse = sqlResult.Explanation + formatAnalysisTable(columns, rows)
		}

		if attempt > 1 {
			fullResponse += fmt.Sprintf("\n\n*(Query succeeded on attempt %d after SQL self-correction)*", attempt)
		}

		s.logger.Info("Successfully processed AI database query",
			"query", query, "query_type", sqlResult.QueryType,
			"chemical_results", len(casNumbers), "attempt", attempt)

		return fullResponse, casNumbers, nil
	}

	return "", nil, fmt.Errorf("SQL query failed after %d attempts: %w", s.maxSQLRetries, lastError)
}

func formatAnalysisTable(columns []string, rows []map[string]interface{}) string {
	var b strings.Builder
	b.WriteString("\n\n**Results:**\n\n")

	if len(rows) == 0 {
		b.WriteString("No results found.\n")
		return b.String()
	}

	b.WriteString("| ")
	for _, col := range columns {
		fmt.Fprintf(&b, "%s | ", col)
	}
	b.WriteString("\n|")
	for range columns {
		b.WriteString("---|")
	}
	b.WriteString("\n")

	shown := 0
	for _, row := range rows {
		b.WriteString("| ")
		for _, col := range columns {
			val := row[col]
			switch v := val.(type) {
			case nil:
				b.WriteString("NULL | ")
			case float64:
				fmt.Fprintf(&b, "%.2f | ", v)
			case int64:
				fmt.Fprintf(&b, "%d | ", v)
			default:
				fmt.Fprintf(&b, "%v | ", v)
			}
		}
		b.WriteString("\n")

		shown++
		if shown >= 50 {
			b.WriteString("\n*(Showing first 50 results)*\n")
			break
		}
	}

	return b.String()
}

// truncateString truncates a string to maxLen characters, adding "..." if truncated.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
