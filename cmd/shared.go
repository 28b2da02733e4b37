package cmd

import (
	"fmt"
	"os"
)

// ChemicalData represents a chemical record (matches main.Chemical). Pointer
// fields keep absent values out of the JSON output.
type ChemicalData struct {
	ID                      int64    `json:"id,omitempty"`
	Name                    string   `json:"name"`
	CASNumber               *string  `json:"cas_number,omitempty"`
	MolecularFormula        *string  `json:"molecular_formula,omitempty"`
	MolecularWeight         *float64 `json:"molecular_weight,omitempty"`
	IUPACName               *string  `json:"iupac_name,omitempty"`
	CanonicalSMILES         *string  `json:"canonical_smiles,omitempty"`
	IsomericSMILES          *string  `json:"isomeric_smiles,omitempty"`
	InChI                   *string  `json:"inchi,omitempty"`
	InChIKey                *string  `json:"inchikey,omitempty"`
	XLogP                   *float64 `json:"xlogp,omitempty"`
	ExactMass               *float64 `json:"exact_mass,omitempty"`
	MonoisotopicMass        *float64 `json:"monoisotopic_mass,omitempty"`
	TPSA                    *float64 `json:"tpsa,omitempty"`
	Complexity              *float64 `json:"complexity,omitempty"`
	Charge                  *int64   `json:"charge,omitempty"`
	HBondDonorCount         *int64   `json:"h_bond_donor_count,omitempty"`
	HBondAcceptorCount      *int64   `json:"h_bond_acceptor_count,omitempty"`
	RotatableBondCount      *int64   `json:"rotatable_bond_count,omitempty"`
	HeavyAtomCount          *int64   `json:"heavy_atom_count,omitempty"`
	MeltingPoint            *string  `json:"melting_point,omitempty"`
	BoilingPoint            *string  `json:"boiling_point,omitempty"`
	Density                 *string  `json:"density,omitempty"`
	VaporPressure           *string  `json:"vapor_pressure,omitempty"`
	Solubility              *string  `json:"solubility,omitempty"`
	FlashPoint              *string  `json:"flash_point,omitempty"`
	PhysicalState           *string  `json:"physical_state,omitempty"`
	Color                   *string  `json:"color,omitempty"`
	HazardStatements        *string  `json:"hazard_statements,omitempty"`
	PrecautionaryStatements *string  `json:"precautionary_statements,omitempty"`
	GHSPictograms           *string  `json:"ghs_pictograms,omitempty"`
	SignalWord              *string  `json:"signal_word,omitempty"`
	LD50                    *string  `json:"ld50,omitempty"`
	LC50                    *string  `json:"lc50,omitempty"`
	AcuteToxicityNotes      *string  `json:"acute_toxicity_notes,omitempty"`
	SafetyNotes             *string  `json:"safety_notes,omitempty"`
	Synonyms                *string  `json:"synonyms,omitempty"`
	PubChemCID              *int64   `json:"pubchem_cid,omitempty"`
	SourceName              *string  `json:"source_name,omitempty"`
	SourceURL               *string  `json:"source_url,omitempty"`
}

// DisplayName returns a short identifying string for console output.
func (c *ChemicalData) DisplayName() string {
	if c.CASNumber != nil {
		return fmt.Sprintf("%s (CAS %s)", c.Name, *c.CASNumber)
	}
	return c.Name
}

// DBInterface wraps database operations for CLI commands
type DBInterface interface {
	SearchChemicals(query string, limit int) ([]ChemicalData, error)
	GetChemicalByCAS(cas string) (*ChemicalData, error)
	GetChemicalByName(name string) (*ChemicalData, error)
	ListChemicals(filter string, limit int) ([]ChemicalData, error)
	CountChemicals() (int64, error)
	DeleteChemical(cas string) error
	DeleteChemicalByName(name string) error
	StoreChemical(chemical *ChemicalData) (id int64, created bool, err error)
	Close() error
}

// DBInterfaceExtended adds raw SQL access for the sql, summarize and schema
// commands.
type DBInterfaceExtended interface {
	DBInterface
	ExecuteQuery(query string) ([]map[string]interface{}, error)
}

// ScraperInterface defines the interface for fetching chemical data from
// PubChem.
type ScraperInterface interface {
	FetchChemical(name string) (*ChemicalData, error)
}

// These variables are set by the main package.
var (
	LaunchTUI   func(dataDir string)
	InitDB      func(dataDir string) (DBInterface, func(), error)
	InitScraper func(dataDir string) (ScraperInterface, error)

	// Export writes records to a file in the given format.
	Export func(chemicals []ChemicalData, path, format string) error

	// ImportNames reads chemical names from a text or CSV file.
	ImportNames func(path string) ([]string, error)
)

// HandleError prints error and exits
func HandleError(err error, message string) {
	fmt.Fprintf(os.Stderr, "Error: %s: %v\n", message, err)
	os.Exit(1)
}
