package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	importUpdate    bool
	importBatchSize int
)

var importCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Import chemicals from a name list",
	Long: `Import chemicals by fetching each name in a text or CSV file from PubChem
and storing the records locally. One name per line; for CSV files the first
column is used. Blank lines and #-comments are skipped.

Names already in the database are skipped unless --update is given. A fetch
failure for one name is logged and the import continues.

Examples:
  chemsafe import chemicals.txt
  chemsafe import --update --batch-size 10 lab_inventory.csv`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		path := args[0]

		names, err := ImportNames(path)
		if err != nil {
			HandleError(err, "Failed to read import file")
		}
		if len(names) == 0 {
			fmt.Fprintln(os.Stderr, "No chemical names found in file")
			return
		}

		db, cleanup, err := InitDB(dataDir)
		if err != nil {
			HandleError(err, "Failed to initialize database")
		}
		defer cleanup()

		scraper, err := InitScraper(dataDir)
		if err != nil {
			HandleError(err, "Failed to initialize PubChem client")
		}

		fmt.Printf("Importing %d chemicals from %s\n", len(names), path)

		imported, updated, skipped, failed := 0, 0, 0, 0
		for i, name := range names {
			// Existing records are skipped unless --update asks for a refresh.
			if !importUpdate {
				if _, err := db.GetChemicalByName(name); err == nil {
					skipped++
					continue
				}
			}

			chemical, err := scraper.FetchChemical(name)
			if err != nil {
				failed++
				fmt.Fprintf(os.Stderr, "Warning: %s: %v\n", name, err)
				continue
			}

			_, created, err := db.StoreChemical(chemical)
			if err != nil {
				failed++
				fmt.Fprintf(os.Stderr, "Warning: failed to store %s: %v\n", name, err)
				continue
			}

			if created {
				imported++
			} else {
				updated++
			}
			fmt.Printf("  [%d/%d] %s\n", i+1, len(names), chemical.DisplayName())

			if importBatchSize > 0 && (i+1)%importBatchSize == 0 && i+1 < len(names) {
				time.Sleep(time.Second)
			}
		}

		fmt.Printf("\nDone: %d imported, %d updated, %d skipped, %d failed\n",
			imported, updated, skipped, failed)
	},
}

func init() {
	importCmd.Flags().BoolVar(&importUpdate, "update", false, "Refresh existing records from PubChem")
	importCmd.Flags().IntVar(&importBatchSize, "batch-size", 5, "Pause after this many fetches (0 disables)")
	rootCmd.AddCommand(importCmd)
}
