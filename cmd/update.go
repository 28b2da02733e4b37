package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var updateCmd = &cobra.Command{
	Use:   "update [name-or-cas]",
	Short: "Refresh a stored chemical from PubChem",
	Long: `Re-fetch a stored chemical from PubChem and update the local record.

The chemical must already exist in the database; use search --store to add
new ones.

Examples:
  chemsafe update benzene
  chemsafe update 64-17-5`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		key := args[0]

		db, cleanup, err := InitDB(dataDir)
		if err != nil {
			HandleError(err, "Failed to initialize database")
		}
		defer cleanup()

		existing, err := lookupChemical(db, key)
		if err != nil {
			HandleError(err, fmt.Sprintf("Chemical %q not found", key))
		}

		scraper, err := InitScraper(dataDir)
		if err != nil {
			HandleError(err, "Failed to initialize PubChem client")
		}

		fmt.Fprintf(os.Stderr, "Fetching %s from PubChem...\n", existing.Name)
		chemical, err := scraper.FetchChemical(existing.Name)
		if err != nil {
			HandleError(err, fmt.Sprintf("Failed to fetch %q", existing.Name))
		}

		_, created, err := db.StoreChemical(chemical)
		if err != nil {
			HandleError(err, "Failed to store chemical")
		}

		if created {
			// The refreshed record did not match the stored one, usually
			// because PubChem reports a different CAS number.
			fmt.Printf("Stored %s as a new record\n", chemical.DisplayName())
		} else {
			fmt.Printf("Updated %s\n", chemical.DisplayName())
		}
	},
}

func init() {
	rootCmd.AddCommand(updateCmd)
}
