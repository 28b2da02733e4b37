package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var sqlString string

var sqlCmd = &cobra.Command{
	Use:   "sql",
	Short: "Run a raw SQL query (DuckDB)",
	Long: `Execute the requested QUERY against the DuckDB database.
The query can be any valid DuckDB SQL query, including SELECT, DESCRIBE, SHOW TABLES, etc.

Examples:
  chemsafe sql --query "SELECT name, cas_number FROM chemicals LIMIT 5"
  chemsafe sql --query "SELECT COUNT(*) as total FROM chemicals"
  chemsafe sql --query "SHOW TABLES"`,
	Run: func(cmd *cobra.Command, args []string) {
		if sqlString == "" {
			HandleError(fmt.Errorf("query is required"), "Missing query parameter")
		}

		db, cleanup, err := InitDB(dataDir)
		if err != nil {
			HandleError(err, "Failed to initialize database")
		}
		defer cleanup()

		// Cast to the extended interface to access ExecuteQuery
		dbExt, ok := db.(DBInterfaceExtended)
		if !ok {
			HandleError(fmt.Errorf("database does not support ExecuteQuery"), "Unsupported operation")
		}

		rows, err := dbExt.ExecuteQuery(sqlString)
		if err != nil {
			HandleError(err, "Failed to execute query")
		}

		output, err := json.MarshalIndent(rows, "", "  ")
		if err != nil {
			HandleError(err, "Failed to encode JSON")
		}

		fmt.Println(string(output))
	},
}

func init() {
	sqlCmd.Flags().StringVarP(&sqlString, "query", "q", "", "SQL query to execute (required)")
	_ = sqlCmd.MarkFlagRequired("query")
	rootCmd.AddCommand(sqlCmd)
}
