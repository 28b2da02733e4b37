package cmd

import (
	"context"
	"fmt"

	"charm.land/fantasy"
	"github.com/spf13/cobra"

	"chemsafe/internal/agent"
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question using Claude AI via Fantasy",
	Long: `Ask a natural language question and get an AI-powered answer using Claude Haiku 4.5.
This command uses the Fantasy library to interact with Claude. The agent can
search PubChem, look up stored chemicals and query the local database.

Requires ANTHROPIC_API_KEY environment variable to be set.

Example:
  chemsafe ask "Which stored chemicals carry the Danger signal word?"
  chemsafe ask "What does an LD50 of 50 mg/kg mean in practice?"`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		question := args[0]

		// Wrap the initialization functions to match the agent package's interface
		initDBWrapper := func(dataDir string) (agent.DBInterface, func(), error) {
			db, cleanup, err := InitDB(dataDir)
			if err != nil {
				return nil, nil, err
			}
			return &dbInterfaceAdapter{db: db}, cleanup, nil
		}

		initScraperWrapper := func(dataDir string) (agent.ScraperInterface, error) {
			scraper, err := InitScraper(dataDir)
			if err != nil {
				return nil, err
			}
			return &scraperInterfaceAdapter{scraper: scraper}, nil
		}

		// Create the agent using the factory with options
		fantasyAgent, err := agent.NewAskAgent(
			rootCmd,
			agent.WithAPIKeyFromEnv(),
			agent.WithDataDir(dataDir),
			agent.WithDBInitializer(initDBWrapper),
			agent.WithScraperInitializer(initScraperWrapper),
		)
		if err != nil {
			HandleError(err, "Failed to create agent")
		}

		ctx := context.Background()

		result, err := fantasyAgent.Generate(ctx, fantasy.AgentCall{Prompt: question})
		if err != nil {
			HandleError(err, "Failed to generate response")
		}

		fmt.Println(result.Response.Content.Text())
	},
}

// dbInterfaceAdapter adapts cmd.DBInterface to agent.DBInterface
type dbInterfaceAdapter struct {
	db DBInterface
}

func (a *dbInterfaceAdapter) GetChemicalByCAS(cas string) (interface{}, error) {
	return a.db.GetChemicalByCAS(cas)
}

func (a *dbInterfaceAdapter) GetChemicalByName(name string) (interface{}, error) {
	return a.db.GetChemicalByName(name)
}

func (a *dbInterfaceAdapter) CountChemicals() (int64, error) {
	return a.db.CountChemicals()
}

func (a *dbInterfaceAdapter) ExecuteQuery(query string) ([]map[string]interface{}, error) {
	// Cast to DBInterfaceExtended to access ExecuteQuery
	dbExt, ok := a.db.(DBInterfaceExtended)
	if !ok {
		return nil, fmt.Errorf("database does not support ExecuteQuery")
	}
	return dbExt.ExecuteQuery(query)
}

func (a *dbInterfaceAdapter) Close() error {
	return a.db.Close()
}

// scraperInterfaceAdapter adapts cmd.ScraperInterface to agent.ScraperInterface
type scraperInterfaceAdapter struct {
	scraper ScraperInterface
}

func (a *scraperInterfaceAdapter) FetchChemical(name string) (interface{}, error) {
	return a.scraper.FetchChemical(name)
}

func init() {
	rootCmd.AddCommand(askCmd)
}
