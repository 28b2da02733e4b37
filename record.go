package main

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// Chemical is a single chemical record as stored in the chemicals table.
// Optional columns use sql.Null* so missing PubChem data round-trips as NULL.
type Chemical struct {
	ID               int64
	Name             string
	CASNumber        sql.NullString
	MolecularFormula sql.NullString
	MolecularWeight  sql.NullFloat64
	IUPACName        sql.NullString
	CanonicalSMILES  sql.NullString
	IsomericSMILES   sql.NullString
	InChI            sql.NullString
	InChIKey         sql.NullString

	XLogP            sql.NullFloat64
	ExactMass        sql.NullFloat64
	MonoisotopicMass sql.NullFloat64
	TPSA             sql.NullFloat64
	Complexity       sql.NullFloat64

	Charge                   sql.NullInt64
	HBondDonorCount          sql.NullInt64
	HBondAcceptorCount       sql.NullInt64
	RotatableBondCount       sql.NullInt64
	HeavyAtomCount           sql.NullInt64
	IsotopeAtomCount         sql.NullInt64
	AtomStereoCount          sql.NullInt64
	DefinedAtomStereoCount   sql.NullInt64
	UndefinedAtomStereoCount sql.NullInt64
	BondStereoCount          sql.NullInt64
	DefinedBondStereoCount   sql.NullInt64
	UndefinedBondStereoCount sql.NullInt64
	CovalentUnitCount        sql.NullInt64

	MeltingPoint  sql.NullString
	BoilingPoint  sql.NullString
	Density       sql.NullString
	VaporPressure sql.NullString
	Solubility    sql.NullString
	FlashPoint    sql.NullString
	PhysicalState sql.NullString
	Color         sql.NullString

	MeltingPointValue  sql.NullFloat64
	MeltingPointUnit   sql.NullString
	BoilingPointValue  sql.NullFloat64
	BoilingPointUnit   sql.NullString
	DensityValue       sql.NullFloat64
	DensityUnit        sql.NullString
	VaporPressureValue sql.NullFloat64
	VaporPressureUnit  sql.NullString
	FlashPointValue    sql.NullFloat64
	FlashPointUnit     sql.NullString

	HazardStatements        sql.NullString
	PrecautionaryStatements sql.NullString
	GHSPictograms           sql.NullString
	SignalWord              sql.NullString

	LD50               sql.NullString
	LC50               sql.NullString
	AcuteToxicityNotes sql.NullString
	SafetyNotes        sql.NullString

	Synonyms   sql.NullString
	PubChemCID sql.NullInt64
	SourceName sql.NullString
	SourceURL  sql.NullString

	CreatedAt time.Time
	UpdatedAt time.Time
}

// DefaultPropertyList names the PubChem compound properties fetched for each
// record, in PubChem's own naming.
var DefaultPropertyList = []string{
	"MolecularFormula",
	"MolecularWeight",
	"IUPACName",
	"CanonicalSMILES",
	"IsomericSMILES",
	"InChI",
	"InChIKey",
	"XLogP",
	"ExactMass",
	"MonoisotopicMass",
	"TPSA",
	"Complexity",
	"Charge",
	"HBondDonorCount",
	"HBondAcceptorCount",
	"RotatableBondCount",
	"HeavyAtomCount",
	"IsotopeAtomCount",
	"AtomStereoCount",
	"DefinedAtomStereoCount",
	"UndefinedAtomStereoCount",
	"BondStereoCount",
	"DefinedBondStereoCount",
	"UndefinedBondStereoCount",
	"CovalentUnitCount",
}

// chemicalVariations maps common trivial names to the synonym PubChem indexes
// best. Tried in order when the literal name returns no compound.
var chemicalVariations = map[string][]string{
	"water":             {"oxidane", "dihydrogen monoxide", "H2O"},
	"ethanol":           {"ethyl alcohol", "grain alcohol"},
	"hydrochloric acid": {"hydrogen chloride", "muriatic acid"},
	"methanol":          {"methyl alcohol", "wood alcohol"},
	"acetone":           {"propanone", "2-propanone"},
	"benzene":           {"benzol", "cyclohexatriene"},
}

// NameVariations returns alternative lookup names for a chemical, keyed on
// its normalized form. The original name is not included.
func NameVariations(name string) []string {
	return chemicalVariations[NormalizeChemicalName(name)]
}

// ValidateChemical checks a record for data-quality problems. Validation is
// advisory: callers log the issues and store the record regardless.
func ValidateChemical(c *Chemical) []string {
	var issues []string

	if strings.TrimSpace(c.Name) == "" {
		issues = append(issues, "name is required")
	}

	if c.CASNumber.Valid && c.CASNumber.String != "" && !IsValidCAS(c.CASNumber.String) {
		issues = append(issues, fmt.Sprintf("invalid CAS number: %s", c.CASNumber.String))
	}

	if c.MolecularWeight.Valid && c.MolecularWeight.Float64 <= 0 {
		issues = append(issues, fmt.Sprintf("molecular weight must be positive, got %g", c.MolecularWeight.Float64))
	}

	intFields := []struct {
		name  string
		value sql.NullInt64
	}{
		{"h_bond_donor_count", c.HBondDonorCount},
		{"h_bond_acceptor_count", c.HBondAcceptorCount},
		{"rotatable_bond_count", c.RotatableBondCount},
		{"heavy_atom_count", c.HeavyAtomCount},
		{"isotope_atom_count", c.IsotopeAtomCount},
		{"atom_stereo_count", c.AtomStereoCount},
		{"bond_stereo_count", c.BondStereoCount},
		{"covalent_unit_count", c.CovalentUnitCount},
	}
	for _, f := range intFields {
		if f.value.Valid && f.value.Int64 < 0 {
			issues = append(issues, fmt.Sprintf("%s must not be negative, got %d", f.name, f.value.Int64))
		}
	}

	return issues
}

// EnrichPhysicalValues derives the numeric value and unit columns from the
// free-text physical property fields. A field that fails to parse leaves its
// value and unit NULL.
func (c *Chemical) EnrichPhysicalValues() {
	fields := []struct {
		text  sql.NullString
		value *sql.NullFloat64
		unit  *sql.NullString
	}{
		{c.MeltingPoint, &c.MeltingPointValue, &c.MeltingPointUnit},
		{c.BoilingPoint, &c.BoilingPointValue, &c.BoilingPointUnit},
		{c.Density, &c.DensityValue, &c.DensityUnit},
		{c.VaporPressure, &c.VaporPressureValue, &c.VaporPressureUnit},
		{c.FlashPoint, &c.FlashPointValue, &c.FlashPointUnit},
	}

	for _, f := range fields {
		if !f.text.Valid || f.text.String == "" {
			continue
		}
		if value, unit, ok := ParsePhysicalProperty(f.text.String); ok {
			*f.value = nullFloat(value, true)
			*f.unit = nullString(unit)
		}
	}
}

// ChemicalSummary is the compact listing shape used by search results and
// the API.
type ChemicalSummary struct {
	ID               int64
	Name             string
	CASNumber        string
	MolecularFormula string
	MolecularWeight  float64
	SignalWord       string
}

// Summary reduces a full record to its listing fields.
func (c *Chemical) Summary() ChemicalSummary {
	return ChemicalSummary{
		ID:               c.ID,
		Name:             c.Name,
		CASNumber:        c.CASNumber.String,
		MolecularFormula: c.MolecularFormula.String,
		MolecularWeight:  c.MolecularWeight.Float64,
		SignalWord:       c.SignalWord.String,
	}
}

// Completeness reports what share of the commonly reported fields a record
// has filled in, as a percentage.
func (c *Chemical) Completeness() float64 {
	fields := []bool{
		c.CASNumber.Valid,
		c.MolecularFormula.Valid,
		c.MolecularWeight.Valid,
		c.IUPACName.Valid,
		c.CanonicalSMILES.Valid,
		c.InChIKey.Valid,
		c.MeltingPoint.Valid,
		c.BoilingPoint.Valid,
		c.Density.Valid,
		c.Solubility.Valid,
		c.FlashPoint.Valid,
		c.PhysicalState.Valid,
		c.SignalWord.Valid,
		c.HazardStatements.Valid,
		c.PrecautionaryStatements.Valid,
		c.GHSPictograms.Valid,
		c.LD50.Valid,
		c.LC50.Valid,
		c.PubChemCID.Valid,
		c.Synonyms.Valid,
	}

	filled := 0
	for _, ok := range fields {
		if ok {
			filled++
		}
	}
	return float64(filled) / float64(len(fields)) * 100
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullFloat(v float64, ok bool) sql.NullFloat64 {
	return sql.NullFloat64{Float64: v, Valid: ok}
}

func nullInt(v int64, ok bool) sql.NullInt64 {
	return sql.NullInt64{Int64: v, Valid: ok}
}
