package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"charm.land/fantasy"
	"github.com/spf13/cobra"
)

// DBInterface is the view of the database the agent tools need. It is
// satisfied by an adapter in the cmd package; interface{} results keep this
// package free of the main package's record types.
type DBInterface interface {
	GetChemicalByCAS(cas string) (interface{}, error)
	GetChemicalByName(name string) (interface{}, error)
	CountChemicals() (int64, error)
	ExecuteQuery(query string) ([]map[string]interface{}, error)
	Close() error
}

// ScraperInterface fetches a chemical record from PubChem by name.
type ScraperInterface interface {
	FetchChemical(name string) (interface{}, error)
}

// InitDBFunc opens the database and returns it with a cleanup function.
type InitDBFunc func(dataDir string) (DBInterface, func(), error)

// InitScraperFunc creates a PubChem client.
type InitScraperFunc func(dataDir string) (ScraperInterface, error)

// commandTool adapts a command handler to the fantasy.AgentTool interface
// while keeping the hand-written JSON parameter schema.
type commandTool struct {
	name            string
	description     string
	schema          map[string]interface{}
	fn              func(ctx context.Context, params map[string]interface{}) (string, error)
	providerOptions fantasy.ProviderOptions
}

// Function returns the underlying handler for direct invocation.
func (t *commandTool) Function() func(ctx context.Context, params map[string]interface{}) (string, error) {
	return t.fn
}

func (t *commandTool) Info() fantasy.ToolInfo {
	params := map[string]interface{}{}
	if props, ok := t.schema["properties"].(map[string]interface{}); ok {
		for k, v := range props {
			params[k] = v
		}
	}
	required := []string{}
	if req, ok := t.schema["required"].([]string); ok {
		required = req
	}
	return fantasy.ToolInfo{
		Name:        t.name,
		Description: t.description,
		Parameters:  params,
		Required:    required,
	}
}

func (t *commandTool) Run(ctx context.Context, call fantasy.ToolCall) (fantasy.ToolResponse, error) {
	params := map[string]interface{}{}
	if call.Input != "" {
		if err := json.Unmarshal([]byte(call.Input), &params); err != nil {
			return fantasy.NewTextErrorResponse(fmt.Sprintf("invalid parameters: %s", err)), nil
		}
	}
	out, err := t.fn(ctx, params)
	if err != nil {
		return fantasy.ToolResponse{}, err
	}
	return fantasy.NewTextResponse(out), nil
}

func (t *commandTool) ProviderOptions() fantasy.ProviderOptions {
	return t.providerOptions
}

func (t *commandTool) SetProviderOptions(opts fantasy.ProviderOptions) {
	t.providerOptions = opts
}

// CreateToolsFromCommands creates Fantasy tools from all registered Cobra commands
// except for the specified exclusions (e.g., "serve", "ask")
func CreateToolsFromCommands(rootCmd interface{}, dataDir string, exclusions []string, initDB InitDBFunc, initScraper InitScraperFunc) []fantasy.AgentTool {
	root, ok := rootCmd.(*cobra.Command)
	if !ok {
		return nil
	}

	var tools []fantasy.AgentTool

	// Iterate through all registered commands
	for _, cobraCmd := range root.Commands() {
		// Check if command should be excluded
		skip := false
		for _, excl := range exclusions {
			if cobraCmd.Use == excl || strings.HasPrefix(cobraCmd.Use, excl) {
				skip = true
				break
			}
		}
		if skip {
			continue
		}

		// Create a tool for this command
		tool := createToolForCommand(cobraCmd, dataDir, initDB, initScraper)
		if tool != nil {
			tools = append(tools, tool)
		}
	}

	return tools
}

// createToolForCommand creates a Fantasy tool from a Cobra command
func createToolForCommand(cobraCmd *cobra.Command, dataDir string, initDB InitDBFunc, initScraper InitScraperFunc) *commandTool {
	// Extract the command name (first word in Use)
	cmdName := strings.Split(cobraCmd.Use, " ")[0]

	// Create tool description from command's Short description
	description := cobraCmd.Short
	if description == "" {
		description = fmt.Sprintf("Execute the %s command", cmdName)
	}

	// Create the tool function that calls the underlying functionality directly
	toolFunc := func(ctx context.Context, params map[string]interface{}) (string, error) {
		var result interface{}

		switch cmdName {
		case "search":
			// Extract the chemical name parameter
			name, ok := params["name"].(string)
			if !ok || name == "" {
				return "", fmt.Errorf("name parameter is required")
			}

			if initScraper == nil {
				return "", fmt.Errorf("PubChem client is not available")
			}
			scraper, err := initScraper(dataDir)
			if err != nil {
				return "", fmt.Errorf("failed to initialize PubChem client: %v", err)
			}

			chemical, err := scraper.FetchChemical(name)
			if err != nil {
				return "", fmt.Errorf("failed to fetch %q from PubChem: %v", name, err)
			}

			result = chemical

		case "query":
			// Extract the name or CAS number parameter
			key, ok := params["chemical"].(string)
			if !ok || key == "" {
				return "", fmt.Errorf("chemical parameter is required")
			}

			db, cleanup, err := initDB(dataDir)
			if err != nil {
				return "", fmt.Errorf("failed to initialize database: %v", err)
			}
			defer cleanup()

			// CAS lookup first, then fall back to the name
			chemical, err := db.GetChemicalByCAS(key)
			if err != nil {
				chemical, err = db.GetChemicalByName(key)
			}
			if err != nil {
				return "", fmt.Errorf("no chemical found for %q", key)
			}

			result = chemical

		case "sql":
			query, ok := params["query"].(string)
			if !ok || query == "" {
				return "", fmt.Errorf("query parameter is required")
			}

			db, cleanup, err := initDB(dataDir)
			if err != nil {
				return "", fmt.Errorf("failed to initialize database: %v", err)
			}
			defer cleanup()

			rows, err := db.ExecuteQuery(query)
			if err != nil {
				return "", fmt.Errorf("failed to execute query: %v", err)
			}

			result = rows

		case "count":
			db, cleanup, err := initDB(dataDir)
			if err != nil {
				return "", fmt.Errorf("failed to initialize database: %v", err)
			}
			defer cleanup()

			count, err := db.CountChemicals()
			if err != nil {
				return "", fmt.Errorf("failed to count chemicals: %v", err)
			}

			result = map[string]int64{"count": count}

		default:
			return "", fmt.Errorf("unsupported command: %s", cmdName)
		}

		// Convert result to JSON
		jsonBytes, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return "", fmt.Errorf("failed to encode result as JSON: %v", err)
		}

		return string(jsonBytes), nil
	}

	// Create parameter schema based on command
	var paramSchema map[string]interface{}

	switch cmdName {
	case "search":
		paramSchema = map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"name": map[string]interface{}{
					"type":        "string",
					"description": "Chemical name to fetch from PubChem (e.g., benzene, sodium chloride)",
				},
			},
			"required": []string{"name"},
		}
	case "query":
		paramSchema = map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"chemical": map[string]interface{}{
					"type":        "string",
					"description": "Chemical name or CAS number to look up",
				},
			},
			"required": []string{"chemical"},
		}
	case "sql":
		paramSchema = map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "SQL SELECT statement against the chemicals table",
				},
			},
			"required": []string{"query"},
		}
	case "count":
		paramSchema = map[string]interface{}{
			"type":       "object",
			"properties": map[string]interface{}{},
		}
	default:
		// Commands without a direct tool mapping are skipped
		return nil
	}

	return &commandTool{
		name:        cmdName,
		description: description,
		schema:      paramSchema,
		fn:          toolFunc,
	}
}
