package main

import (
	"database/sql"
	"os"
	"testing"
)

// SetupTestDB creates an empty test database in a temp directory
func SetupTestDB(t *testing.T) (*DB, func()) {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "chemsafe-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}

	db, err := NewDB(tmpDir, nil)
	if err != nil {
		os.RemoveAll(tmpDir)
		t.Fatalf("failed to initialize test database: %v", err)
	}

	cleanup := func() {
		db.Close()
		os.RemoveAll(tmpDir)
	}

	return db, cleanup
}

// MockChemical creates a test chemical with realistic data
func MockChemical(name, cas, formula string) *Chemical {
	return &Chemical{
		Name:             name,
		CASNumber:        sql.NullString{String: cas, Valid: cas != ""},
		MolecularFormula: sql.NullString{String: formula, Valid: formula != ""},
		MolecularWeight:  sql.NullFloat64{Float64: 46.07, Valid: true},
		IUPACName:        sql.NullString{String: "test-iupac-" + name, Valid: true},
		CanonicalSMILES:  sql.NullString{String: "CCO", Valid: true},
		InChIKey:         sql.NullString{String: "LFQSCWFLJHTTHZ-UHFFFAOYSA-N", Valid: true},
		MeltingPoint:     sql.NullString{String: "-114.1 °C", Valid: true},
		BoilingPoint:     sql.NullString{String: "78.2 °C", Valid: true},
		Density:          sql.NullString{String: "0.789 g/cm³", Valid: true},
		PhysicalState:    sql.NullString{String: "Liquid", Valid: true},
		SignalWord:       sql.NullString{String: "Danger", Valid: true},
		HazardStatements: sql.NullString{String: "H225: Highly flammable liquid and vapor; H319: Causes serious eye irritation", Valid: true},
		LD50:             sql.NullString{String: "7060 mg/kg (rat, oral)", Valid: true},
		Synonyms:         sql.NullString{String: name + "; test synonym", Valid: true},
		PubChemCID:       sql.NullInt64{Int64: 702, Valid: true},
		SourceName:       sql.NullString{String: "PubChem", Valid: true},
		SourceURL:        sql.NullString{String: "https://pubchem.ncbi.nlm.nih.gov/compound/702", Valid: true},
	}
}

// SeedTestChemicals stores a small set of records and returns their count
func SeedTestChemicals(t *testing.T, db *DB) int {
	t.Helper()

	records := []*Chemical{
		MockChemical("ethanol", "64-17-5", "C2H6O"),
		MockChemical("benzene", "71-43-2", "C6H6"),
		MockChemical("sodium chloride", "7647-14-5", "NaCl"),
		MockChemical("mystery compound", "", "C10H16O"),
	}

	for _, record := range records {
		if _, _, err := db.UpsertChemical(record); err != nil {
			t.Fatalf("failed to seed %s: %v", record.Name, err)
		}
	}

	return len(records)
}
