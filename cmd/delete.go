package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var deleteForce bool

var deleteCmd = &cobra.Command{
	Use:   "delete [name-or-cas]",
	Short: "Delete a chemical from the database",
	Long: `Delete a stored chemical record by name or CAS number.

Asks for confirmation unless --force is given.

Examples:
  chemsafe delete benzene
  chemsafe delete --force 64-17-5`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		key := args[0]

		db, cleanup, err := InitDB(dataDir)
		if err != nil {
			HandleError(err, "Failed to initialize database")
		}
		defer cleanup()

		chemical, err := lookupChemical(db, key)
		if err != nil {
			HandleError(err, fmt.Sprintf("Chemical %q not found", key))
		}

		if !deleteForce {
			fmt.Printf("Delete %s? [y/N] ", chemical.DisplayName())
			reader := bufio.NewReader(os.Stdin)
			answer, _ := reader.ReadString('\n')
			answer = strings.ToLower(strings.TrimSpace(answer))
			if answer != "y" && answer != "yes" {
				fmt.Println("Aborted")
				return
			}
		}

		if chemical.CASNumber != nil {
			err = db.DeleteChemical(*chemical.CASNumber)
		} else {
			err = db.DeleteChemicalByName(chemical.Name)
		}
		if err != nil {
			HandleError(err, "Failed to delete chemical")
		}

		fmt.Printf("Deleted %s\n", chemical.DisplayName())
	},
}

func init() {
	deleteCmd.Flags().BoolVarP(&deleteForce, "force", "f", false, "Delete without confirmation")
	rootCmd.AddCommand(deleteCmd)
}
