package cmd

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/spf13/cobra"
)

var (
	queryProperty string
	queryFormat   string
	queryVerbose  bool
)

var queryCmd = &cobra.Command{
	Use:   "query [name-or-cas]",
	Short: "Look up a stored chemical record",
	Long: `Look up a chemical in the local database by name or CAS number.
With --property, only the named field is printed.

Examples:
  chemsafe query benzene
  chemsafe query 71-43-2
  chemsafe query benzene --property molecular_weight
  chemsafe query benzene --format table --verbose`,
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
			HandleError(err, "Failed to look up chemical")
		}

		if queryProperty != "" {
			value, ok := fieldByJSONName(chemical, queryProperty)
			if !ok {
				HandleError(fmt.Errorf("unknown property %q", queryProperty), "Invalid property name")
			}
			fmt.Println(value)
			return
		}

		switch queryFormat {
		case "table":
			printChemicalTable(chemical, queryVerbose)
		default:
			output, err := json.MarshalIndent(chemical, "", "  ")
			if err != nil {
				HandleError(err, "Failed to encode JSON")
			}
			fmt.Println(string(output))
		}
	},
}

// lookupChemical tries CAS first when the key looks like one, then name.
func lookupChemical(db DBInterface, key string) (*ChemicalData, error) {
	if looksLikeCAS(key) {
		if chemical, err := db.GetChemicalByCAS(key); err == nil {
			return chemical, nil
		}
	}
	return db.GetChemicalByName(key)
}

func looksLikeCAS(s string) bool {
	parts := strings.Split(s, "-")
	if len(parts) != 3 {
		return false
	}
	for _, p := range parts {
		if p == "" {
			return false
		}
		for _, r := range p {
			if r < '0' || r > '9' {
				return false
			}
		}
	}
	return true
}

// fieldByJSONName resolves a json tag like "molecular_weight" against the
// ChemicalData struct.
func fieldByJSONName(chemical *ChemicalData, name string) (interface{}, bool) {
	v := reflect.ValueOf(chemical).Elem()
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		tag := strings.SplitN(t.Field(i).Tag.Get("json"), ",", 2)[0]
		if tag != name {
			continue
		}

		field := v.Field(i)
		if field.Kind() == reflect.Ptr {
			if field.IsNil() {
				return "", true
			}
			return field.Elem().Interface(), true
		}
		return field.Interface(), true
	}

	return nil, false
}

func printChemicalTable(chemical *ChemicalData, verbose bool) {
	rows := [][2]string{
		{"Name", chemical.Name},
		{"CAS Number", strOrEmpty(chemical.CASNumber)},
		{"Formula", strOrEmpty(chemical.MolecularFormula)},
		{"Molecular Weight", floatOrEmpty(chemical.MolecularWeight)},
		{"Signal Word", strOrEmpty(chemical.SignalWord)},
		{"Hazard Statements", strOrEmpty(chemical.HazardStatements)},
		{"LD50", strOrEmpty(chemical.LD50)},
		{"LC50", strOrEmpty(chemical.LC50)},
	}

	if verbose {
		rows = append(rows,
			[2]string{"IUPAC Name", strOrEmpty(chemical.IUPACName)},
			[2]string{"Canonical SMILES", strOrEmpty(chemical.CanonicalSMILES)},
			[2]string{"InChIKey", strOrEmpty(chemical.InChIKey)},
			[2]string{"Melting Point", strOrEmpty(chemical.MeltingPoint)},
			[2]string{"Boiling Point", strOrEmpty(chemical.BoilingPoint)},
			[2]string{"Density", strOrEmpty(chemical.Density)},
			[2]string{"Vapor Pressure", strOrEmpty(chemical.VaporPressure)},
			[2]string{"Solubility", strOrEmpty(chemical.Solubility)},
			[2]string{"Flash Point", strOrEmpty(chemical.FlashPoint)},
			[2]string{"Physical State", strOrEmpty(chemical.PhysicalState)},
			[2]string{"Precautionary", strOrEmpty(chemical.PrecautionaryStatements)},
			[2]string{"Toxicity Notes", strOrEmpty(chemical.AcuteToxicityNotes)},
			[2]string{"Synonyms", strOrEmpty(chemical.Synonyms)},
			[2]string{"Source", strOrEmpty(chemical.SourceURL)},
		)
	}

	for _, row := range rows {
		if row[1] == "" && !verbose {
			continue
		}
		fmt.Printf("%-18s %s\n", row[0]+":", row[1])
	}
}

func strOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func floatOrEmpty(f *float64) string {
	if f == nil {
		return ""
	}
	return fmt.Sprintf("%g", *f)
}

func init() {
	queryCmd.Flags().StringVarP(&queryProperty, "property", "p", "", "Print only the named property (json field name)")
	queryCmd.Flags().StringVarP(&queryFormat, "format", "f", "json", "Output format: json or table")
	queryCmd.Flags().BoolVarP(&queryVerbose, "verbose", "v", false, "Include all fields in table output")
	rootCmd.AddCommand(queryCmd)
}
