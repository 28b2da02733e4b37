package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var storeResults bool

var searchCmd = &cobra.Command{
	Use:   "search [name...]",
	Short: "Fetch chemical data from PubChem",
	Long: `Fetch chemical safety data for one or more chemicals from PubChem.
Results are returned as JSON. With --store, records are also saved to the
local database.

Examples:
  chemsafe search benzene
  chemsafe search --store "hydrochloric acid" toluene
  chemsafe search --store ethanol`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		scraper, err := InitScraper(dataDir)
		if err != nil {
			HandleError(err, "Failed to initialize PubChem client")
		}

		var db DBInterface
		if storeResults {
			var cleanup func()
			db, cleanup, err = InitDB(dataDir)
			if err != nil {
				HandleError(err, "Failed to initialize database")
			}
			defer cleanup()
		}

		// A failure for one chemical does not stop the batch.
		var results []ChemicalData
		for _, name := range args {
			chemical, err := scraper.FetchChemical(name)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Warning: %s: %v\n", name, err)
				continue
			}

			if db != nil {
				id, created, err := db.StoreChemical(chemical)
				if err != nil {
					fmt.Fprintf(os.Stderr, "Warning: failed to store %s: %v\n", name, err)
				} else {
					chemical.ID = id
					action := "updated"
					if created {
						action = "stored"
					}
					fmt.Fprintf(os.Stderr, "%s %s\n", action, chemical.DisplayName())
				}
			}

			results = append(results, *chemical)
		}

		output, err := json.MarshalIndent(results, "", "  ")
		if err != nil {
			HandleError(err, "Failed to encode JSON")
		}

		fmt.Println(string(output))
	},
}

func init() {
	searchCmd.Flags().BoolVarP(&storeResults, "store", "s", false, "Save fetched records to the local database")
	rootCmd.AddCommand(searchCmd)
}
