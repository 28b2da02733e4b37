package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	exportOutput string
	exportFormat string
	exportFilter string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export stored chemicals to a file",
	Long: `Export the local chemical database to CSV, JSON or Excel.

When --format is not given the format is inferred from the output file
extension (.csv, .json, .xlsx). The optional --filter restricts the export to
records whose name, CAS number or formula contains the given text.

Examples:
  chemsafe export -o chemicals.csv
  chemsafe export -o chemicals.xlsx --filter acid
  chemsafe export -o out.txt -f json`,
	Run: func(cmd *cobra.Command, args []string) {
		db, cleanup, err := InitDB(dataDir)
		if err != nil {
			HandleError(err, "Failed to initialize database")
		}
		defer cleanup()

		chemicals, err := db.ListChemicals(exportFilter, 0)
		if err != nil {
			HandleError(err, "Failed to list chemicals")
		}
		if len(chemicals) == 0 {
			fmt.Println("No chemicals to export")
			return
		}

		if err := Export(chemicals, exportOutput, exportFormat); err != nil {
			HandleError(err, "Export failed")
		}

		fmt.Printf("Exported %d chemicals to %s\n", len(chemicals), exportOutput)
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file path (required)")
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "", "Output format: csv, json or xlsx (default from extension)")
	exportCmd.Flags().StringVar(&exportFilter, "filter", "", "Only export records containing this text")
	exportCmd.MarkFlagRequired("output")
	rootCmd.AddCommand(exportCmd)
}
