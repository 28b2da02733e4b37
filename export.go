package main

import (
	"bufio"
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Export formats accepted by ExportChemicals.
const (
	FormatCSV   = "csv"
	FormatJSON  = "json"
	FormatExcel = "xlsx"
)

var exportHeader = []string{
	"Name", "CAS Number", "Molecular Formula", "Molecular Weight",
	"IUPAC Name", "Canonical SMILES", "InChIKey",
	"Melting Point", "Boiling Point", "Density", "Flash Point",
	"Physical State", "Signal Word", "Hazard Statements",
	"Precautionary Statements", "GHS Pictograms",
	"LD50", "LC50", "Acute Toxicity Notes",
	"PubChem CID", "Source",
}

func exportRow(c *Chemical) []string {
	weight := ""
	if c.MolecularWeight.Valid {
		weight = fmt.Sprintf("%g", c.MolecularWeight.Float64)
	}
	cid := ""
	if c.PubChemCID.Valid {
		cid = fmt.Sprintf("%d", c.PubChemCID.Int64)
	}

	return []string{
		c.Name, c.CASNumber.String, c.MolecularFormula.String, weight,
		c.IUPACName.String, c.CanonicalSMILES.String, c.InChIKey.String,
		c.MeltingPoint.String, c.BoilingPoint.String, c.Density.String, c.FlashPoint.String,
		c.PhysicalState.String, c.SignalWord.String, c.HazardStatements.String,
		c.PrecautionaryStatements.String, c.GHSPictograms.String,
		c.LD50.String, c.LC50.String, c.AcuteToxicityNotes.String,
		cid, c.SourceName.String,
	}
}

// exportRecord is the JSON export shape. Pointer fields keep absent data out
// of the output entirely.
type exportRecord struct {
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
	TPSA                    *float64 `json:"tpsa,omitempty"`
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

func toExportRecord(c *Chemical) exportRecord {
	r := exportRecord{Name: c.Name}
	r.CASNumber = nullStringPtr(c.CASNumber)
	r.MolecularFormula = nullStringPtr(c.MolecularFormula)
	r.MolecularWeight = nullFloatPtr(c.MolecularWeight)
	r.IUPACName = nullStringPtr(c.IUPACName)
	r.CanonicalSMILES = nullStringPtr(c.CanonicalSMILES)
	r.IsomericSMILES = nullStringPtr(c.IsomericSMILES)
	r.InChI = nullStringPtr(c.InChI)
	r.InChIKey = nullStringPtr(c.InChIKey)
	r.XLogP = nullFloatPtr(c.XLogP)
	r.ExactMass = nullFloatPtr(c.ExactMass)
	r.TPSA = nullFloatPtr(c.TPSA)
	r.MeltingPoint = nullStringPtr(c.MeltingPoint)
	r.BoilingPoint = nullStringPtr(c.BoilingPoint)
	r.Density = nullStringPtr(c.Density)
	r.VaporPressure = nullStringPtr(c.VaporPressure)
	r.Solubility = nullStringPtr(c.Solubility)
	r.FlashPoint = nullStringPtr(c.FlashPoint)
	r.PhysicalState = nullStringPtr(c.PhysicalState)
	r.Color = nullStringPtr(c.Color)
	r.HazardStatements = nullStringPtr(c.HazardStatements)
	r.PrecautionaryStatements = nullStringPtr(c.PrecautionaryStatements)
	r.GHSPictograms = nullStringPtr(c.GHSPictograms)
	r.SignalWord = nullStringPtr(c.SignalWord)
	r.LD50 = nullStringPtr(c.LD50)
	r.LC50 = nullStringPtr(c.LC50)
	r.AcuteToxicityNotes = nullStringPtr(c.AcuteToxicityNotes)
	r.SafetyNotes = nullStringPtr(c.SafetyNotes)
	r.Synonyms = nullStringPtr(c.Synonyms)
	r.PubChemCID = nullIntPtr(c.PubChemCID)
	r.SourceName = nullStringPtr(c.SourceName)
	r.SourceURL = nullStringPtr(c.SourceURL)
	return r
}

// ExportChemicals writes records to path in the named format. The format
// defaults from the file extension when empty.
func ExportChemicals(chemicals []Chemical, path, format string) error {
	if format == "" {
		switch strings.ToLower(filepath.Ext(path)) {
		case ".json":
			format = FormatJSON
		case ".xlsx":
			format = FormatExcel
		default:
			format = FormatCSV
		}
	}

	switch format {
	case FormatCSV:
		return exportCSV(chemicals, path)
	case FormatJSON:
		return exportJSON(chemicals, path)
	case FormatExcel:
		return exportExcel(chemicals, path)
	default:
		return fmt.Errorf("unsupported export format: %s", format)
	}
}

func exportCSV(chemicals []Chemical, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(exportHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i := range chemicals {
		if err := w.Write(exportRow(&chemicals[i])); err != nil {
			return fmt.Errorf("failed to write row for %s: %w", chemicals[i].Name, err)
		}
	}

	w.Flush()
	return w.Error()
}

func exportJSON(chemicals []Chemical, path string) error {
	records := make([]exportRecord, 0, len(chemicals))
	for i := range chemicals {
		records = append(records, toExportRecord(&chemicals[i]))
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal records: %w", err)
	}

	return os.WriteFile(path, data, 0644)
}

func exportExcel(chemicals []Chemical, path string) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Chemicals"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	for col, title := range exportHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, title); err != nil {
			return err
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"DDEBF7"}},
	})
	if err == nil {
		endCell, _ := excelize.CoordinatesToCellName(len(exportHeader), 1)
		f.SetCellStyle(sheet, "A1", endCell, headerStyle)
	}

	for rowIdx := range chemicals {
		for col, value := range exportRow(&chemicals[rowIdx]) {
			cell, err := excelize.CoordinatesToCellName(col+1, rowIdx+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return err
			}
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}

	return nil
}

// ReadImportNames reads chemical names from a text or CSV file, one name per
// line (first column for CSV). Blank lines and #-comments are skipped.
func ReadImportNames(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	isCSV := strings.EqualFold(filepath.Ext(path), ".csv")

	var names []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if isCSV {
			if fields := strings.Split(line, ","); len(fields) > 0 {
				line = strings.TrimSpace(fields[0])
			}
			if line == "" || strings.EqualFold(line, "name") {
				continue
			}
		}

		names = append(names, line)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	return names, nil
}

func nullStringPtr(ns sql.NullString) *string {
	if ns.Valid && ns.String != "" {
		return &ns.String
	}
	return nil
}

func nullFloatPtr(nf sql.NullFloat64) *float64 {
	if nf.Valid {
		return &nf.Float64
	}
	return nil
}

func nullIntPtr(ni sql.NullInt64) *int64 {
	if ni.Valid {
		return &ni.Int64
	}
	return nil
}
