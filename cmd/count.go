package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var countCmd = &cobra.Command{
	Use:   "count",
	Short: "Count chemicals in the database",
	Run: func(cmd *cobra.Command, args []string) {
		db, cleanup, err := InitDB(dataDir)
		if err != nil {
			HandleError(err, "Failed to initialize database")
		}
		defer cleanup()

		count, err := db.CountChemicals()
		if err != nil {
			HandleError(err, "Failed to count chemicals")
		}

		fmt.Println(count)
	},
}

func init() {
	rootCmd.AddCommand(countCmd)
}
