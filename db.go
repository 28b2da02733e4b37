package main

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
)

// DB wraps the DuckDB store for chemical records and the AI summary cache.
type DB struct {
	conn    *sql.DB
	dataDir string
	logger  *slog.Logger
}

// NewDB opens (or creates) the DuckDB database under dataDir and ensures the
// schema exists.
func NewDB(dataDir string, logger *slog.Logger) (*DB, error) {
	if logger == nil {
		logger = slog.Default()
	}

	dbPath := filepath.Join(dataDir, "chemsafe.duckdb")

	conn, err := sql.Open("duckdb", dbPath)
	if err != nil {
		logger.Error("Failed to open DuckDB database", "error", err, "db_path", dbPath)
		return nil, fmt.Errorf("failed to open duckdb: %w", err)
	}

	d := &DB{
		conn:    conn,
		dataDir: dataDir,
		logger:  logger,
	}

	if err := d.initializeSchema(); err != nil {
		conn.Close()
		logger.Error("Database schema initialization failed", "error", err, "db_path", dbPath)
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return d, nil
}

func (d *DB) initializeSchema() error {
	_, err := d.conn.Exec(`CREATE SEQUENCE IF NOT EXISTS chemicals_id_seq`)
	if err != nil {
		return fmt.Errorf("failed to create id sequence: %w", err)
	}

	_, err = d.conn.Exec(`
		CREATE TABLE IF NOT EXISTS chemicals (
			id BIGINT PRIMARY KEY DEFAULT nextval('chemicals_id_seq'),
			name VARCHAR NOT NULL,
			cas_number VARCHAR,
			molecular_formula VARCHAR,
			molecular_weight DOUBLE,
			iupac_name VARCHAR,
			canonical_smiles VARCHAR,
			isomeric_smiles VARCHAR,
			inchi VARCHAR,
			inchikey VARCHAR,
			xlogp DOUBLE,
			exact_mass DOUBLE,
			monoisotopic_mass DOUBLE,
			tpsa DOUBLE,
			complexity DOUBLE,
			charge BIGINT,
			h_bond_donor_count BIGINT,
			h_bond_acceptor_count BIGINT,
			rotatable_bond_count BIGINT,
			heavy_atom_count BIGINT,
			isotope_atom_count BIGINT,
			atom_stereo_count BIGINT,
			defined_atom_stereo_count BIGINT,
			undefined_atom_stereo_count BIGINT,
			bond_stereo_count BIGINT,
			defined_bond_stereo_count BIGINT,
			undefined_bond_stereo_count BIGINT,
			covalent_unit_count BIGINT,
			melting_point VARCHAR,
			melting_point_value DOUBLE,
			melting_point_unit VARCHAR,
			boiling_point VARCHAR,
			boiling_point_value DOUBLE,
			boiling_point_unit VARCHAR,
			density VARCHAR,
			density_value DOUBLE,
			density_unit VARCHAR,
			vapor_pressure VARCHAR,
			vapor_pressure_value DOUBLE,
			vapor_pressure_unit VARCHAR,
			solubility VARCHAR,
			flash_point VARCHAR,
			flash_point_value DOUBLE,
			flash_point_unit VARCHAR,
			physical_state VARCHAR,
			color VARCHAR,
			hazard_statements TEXT,
			precautionary_statements TEXT,
			ghs_pictograms VARCHAR,
			signal_word VARCHAR,
			ld50 TEXT,
			lc50 TEXT,
			acute_toxicity_notes TEXT,
			safety_notes TEXT,
			synonyms TEXT,
			pubchem_cid BIGINT,
			source_name VARCHAR,
			source_url VARCHAR,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create chemicals table: %w", err)
	}

	_, err = d.conn.Exec(`CREATE INDEX IF NOT EXISTS idx_chemicals_cas ON chemicals(cas_number)`)
	if err != nil {
		return fmt.Errorf("failed to create CAS index: %w", err)
	}
	_, err = d.conn.Exec(`CREATE INDEX IF NOT EXISTS idx_chemicals_name ON chemicals(name)`)
	if err != nil {
		return fmt.Errorf("failed to create name index: %w", err)
	}

	if err := d.createCacheTables(); err != nil {
		return err
	}

	d.logger.Info("Database schema ready", "data_dir", d.dataDir)
	return nil
}

// createCacheTables creates the AI summary cache table.
func (d *DB) createCacheTables() error {
	_, err := d.conn.Exec(`
		CREATE TABLE IF NOT EXISTS ai_summary_cache (
			cas_number VARCHAR PRIMARY KEY,
			chemical_name VARCHAR,
			generated_at TIMESTAMP,
			model VARCHAR,
			summary_markdown TEXT,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		d.logger.Error("Failed to create ai_summary_cache table", "error", err)
		return fmt.Errorf("failed to create ai_summary_cache table: %w", err)
	}

	return nil
}

func (d *DB) Close() error {
	return d.conn.Close()
}

const chemicalColumns = `
	id, name, cas_number, molecular_formula, molecular_weight,
	iupac_name, canonical_smiles, isomeric_smiles, inchi, inchikey,
	xlogp, exact_mass, monoisotopic_mass, tpsa, complexity,
	charge, h_bond_donor_count, h_bond_acceptor_count, rotatable_bond_count,
	heavy_atom_count, isotope_atom_count, atom_stereo_count,
	defined_atom_stereo_count, undefined_atom_stereo_count,
	bond_stereo_count, defined_bond_stereo_count, undefined_bond_stereo_count,
	covalent_unit_count,
	melting_point, melting_point_value, melting_point_unit,
	boiling_point, boiling_point_value, boiling_point_unit,
	density, density_value, density_unit,
	vapor_pressure, vapor_pressure_value, vapor_pressure_unit,
	solubility,
	flash_point, flash_point_value, flash_point_unit,
	physical_state, color,
	hazard_statements, precautionary_statements, ghs_pictograms, signal_word,
	ld50, lc50, acute_toxicity_notes, safety_notes,
	synonyms, pubchem_cid, source_name, source_url,
	created_at, updated_at`

// dataColumns excludes id and the timestamps; it is the column list shared by
// INSERT and UPDATE.
var dataColumns = []string{
	"name", "cas_number", "molecular_formula", "molecular_weight",
	"iupac_name", "canonical_smiles", "isomeric_smiles", "inchi", "inchikey",
	"xlogp", "exact_mass", "monoisotopic_mass", "tpsa", "complexity",
	"charge", "h_bond_donor_count", "h_bond_acceptor_count", "rotatable_bond_count",
	"heavy_atom_count", "isotope_atom_count", "atom_stereo_count",
	"defined_atom_stereo_count", "undefined_atom_stereo_count",
	"bond_stereo_count", "defined_bond_stereo_count", "undefined_bond_stereo_count",
	"covalent_unit_count",
	"melting_point", "melting_point_value", "melting_point_unit",
	"boiling_point", "boiling_point_value", "boiling_point_unit",
	"density", "density_value", "density_unit",
	"vapor_pressure", "vapor_pressure_value", "vapor_pressure_unit",
	"solubility",
	"flash_point", "flash_point_value", "flash_point_unit",
	"physical_state", "color",
	"hazard_statements", "precautionary_statements", "ghs_pictograms", "signal_word",
	"ld50", "lc50", "acute_toxicity_notes", "safety_notes",
	"synonyms", "pubchem_cid", "source_name", "source_url",
}

func chemicalArgs(c *Chemical) []interface{} {
	return []interface{}{
		c.Name, c.CASNumber, c.MolecularFormula, c.MolecularWeight,
		c.IUPACName, c.CanonicalSMILES, c.IsomericSMILES, c.InChI, c.InChIKey,
		c.XLogP, c.ExactMass, c.MonoisotopicMass, c.TPSA, c.Complexity,
		c.Charge, c.HBondDonorCount, c.HBondAcceptorCount, c.RotatableBondCount,
		c.HeavyAtomCount, c.IsotopeAtomCount, c.AtomStereoCount,
		c.DefinedAtomStereoCount, c.UndefinedAtomStereoCount,
		c.BondStereoCount, c.DefinedBondStereoCount, c.UndefinedBondStereoCount,
		c.CovalentUnitCount,
		c.MeltingPoint, c.MeltingPointValue, c.MeltingPointUnit,
		c.BoilingPoint, c.BoilingPointValue, c.BoilingPointUnit,
		c.Density, c.DensityValue, c.DensityUnit,
		c.VaporPressure, c.VaporPressureValue, c.VaporPressureUnit,
		c.Solubility,
		c.FlashPoint, c.FlashPointValue, c.FlashPointUnit,
		c.PhysicalState, c.Color,
		c.HazardStatements, c.PrecautionaryStatements, c.GHSPictograms, c.SignalWord,
		c.LD50, c.LC50, c.AcuteToxicityNotes, c.SafetyNotes,
		c.Synonyms, c.PubChemCID, c.SourceName, c.SourceURL,
	}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanChemical(row rowScanner) (*Chemical, error) {
	var c Chemical
	err := row.Scan(
		&c.ID, &c.Name, &c.CASNumber, &c.MolecularFormula, &c.MolecularWeight,
		&c.IUPACName, &c.CanonicalSMILES, &c.IsomericSMILES, &c.InChI, &c.InChIKey,
		&c.XLogP, &c.ExactMass, &c.MonoisotopicMass, &c.TPSA, &c.Complexity,
		&c.Charge, &c.HBondDonorCount, &c.HBondAcceptorCount, &c.RotatableBondCount,
		&c.HeavyAtomCount, &c.IsotopeAtomCount, &c.AtomStereoCount,
		&c.DefinedAtomStereoCount, &c.UndefinedAtomStereoCount,
		&c.BondStereoCount, &c.DefinedBondStereoCount, &c.UndefinedBondStereoCount,
		&c.CovalentUnitCount,
		&c.MeltingPoint, &c.MeltingPointValue, &c.MeltingPointUnit,
		&c.BoilingPoint, &c.BoilingPointValue, &c.BoilingPointUnit,
		&c.Density, &c.DensityValue, &c.DensityUnit,
		&c.VaporPressure, &c.VaporPressureValue, &c.VaporPressureUnit,
		&c.Solubility,
		&c.FlashPoint, &c.FlashPointValue, &c.FlashPointUnit,
		&c.PhysicalState, &c.Color,
		&c.HazardStatements, &c.PrecautionaryStatements, &c.GHSPictograms, &c.SignalWord,
		&c.LD50, &c.LC50, &c.AcuteToxicityNotes, &c.SafetyNotes,
		&c.Synonyms, &c.PubChemCID, &c.SourceName, &c.SourceURL,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// UpsertChemical inserts a record, or updates the existing one matched first
// by CAS number and otherwise by (name, molecular_formula). Records without a
// CAS number cannot conflict through a unique constraint, so matching is done
// with an explicit lookup. Returns the row id and whether a new row was
// created.
func (d *DB) UpsertChemical(c *Chemical) (int64, bool, error) {
	existingID, err := d.findExistingID(c)
	if err != nil {
		return 0, false, err
	}

	if existingID > 0 {
		setClauses := make([]string, 0, len(dataColumns)+1)
		for i, col := range dataColumns {
			setClauses = append(setClauses, fmt.Sprintf("%s = $%d", col, i+1))
		}
		setClauses = append(setClauses, "updated_at = CURRENT_TIMESTAMP")

		query := fmt.Sprintf("UPDATE chemicals SET %s WHERE id = $%d",
			strings.Join(setClauses, ", "), len(dataColumns)+1)

		args := append(chemicalArgs(c), existingID)
		if _, err := d.conn.Exec(query, args...); err != nil {
			d.logger.Error("Failed to update chemical", "error", err, "id", existingID, "name", c.Name)
			return 0, false, fmt.Errorf("failed to update chemical: %w", err)
		}

		d.logger.Info("Updated chemical record", "id", existingID, "name", c.Name)
		return existingID, false, nil
	}

	placeholders := make([]string, len(dataColumns))
	for i := range dataColumns {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}

	query := fmt.Sprintf("INSERT INTO chemicals (%s) VALUES (%s) RETURNING id",
		strings.Join(dataColumns, ", "), strings.Join(placeholders, ", "))

	var id int64
	if err := d.conn.QueryRow(query, chemicalArgs(c)...).Scan(&id); err != nil {
		d.logger.Error("Failed to insert chemical", "error", err, "name", c.Name)
		return 0, false, fmt.Errorf("failed to insert chemical: %w", err)
	}

	d.logger.Info("Inserted chemical record", "id", id, "name", c.Name)
	return id, true, nil
}

func (d *DB) findExistingID(c *Chemical) (int64, error) {
	var id int64

	if c.CASNumber.Valid && c.CASNumber.String != "" {
		err := d.conn.QueryRow(
			`SELECT id FROM chemicals WHERE cas_number = $1 LIMIT 1`,
			c.CASNumber.String,
		).Scan(&id)
		if err == nil {
			return id, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("lookup by CAS failed: %w", err)
		}
	}

	err := d.conn.QueryRow(
		`SELECT id FROM chemicals WHERE name = $1 AND molecular_formula IS NOT DISTINCT FROM $2 LIMIT 1`,
		c.Name, c.MolecularFormula,
	).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("lookup by name failed: %w", err)
	}

	return 0, nil
}

// SearchChemicals finds records whose name, CAS number, formula, IUPAC name
// or synonyms match the query substring, case-insensitively.
func (d *DB) SearchChemicals(query string, limit int) ([]Chemical, error) {
	if limit <= 0 {
		limit = 50
	}

	pattern := "%" + query + "%"
	sqlQuery := fmt.Sprintf(`
		SELECT %s FROM chemicals
		WHERE LOWER(name) LIKE LOWER($1)
			OR cas_number LIKE $1
			OR LOWER(molecular_formula) LIKE LOWER($1)
			OR LOWER(iupac_name) LIKE LOWER($1)
			OR LOWER(synonyms) LIKE LOWER($1)
		ORDER BY name
		LIMIT %d
	`, chemicalColumns, limit)

	rows, err := d.conn.Query(sqlQuery, pattern)
	if err != nil {
		d.logger.Error("Chemical search query failed", "error", err, "query", query, "limit", limit)
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var chemicals []Chemical
	for rows.Next() {
		c, err := scanChemical(rows)
		if err != nil {
			d.logger.Error("Failed to scan chemical row", "error", err, "query", query)
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		chemicals = append(chemicals, *c)
	}

	if err := rows.Err(); err != nil {
		d.logger.Error("Row iteration error in search", "error", err, "query", query)
		return nil, err
	}

	return chemicals, nil
}

// GetChemicalByCAS returns the record with the given CAS number.
func (d *DB) GetChemicalByCAS(casNumber string) (*Chemical, error) {
	query := fmt.Sprintf(`SELECT %s FROM chemicals WHERE cas_number = $1 LIMIT 1`, chemicalColumns)

	c, err := scanChemical(d.conn.QueryRow(query, casNumber))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("chemical %s: %w", casNumber, ErrNotFound)
		}
		d.logger.Error("Failed to get chemical by CAS", "error", err, "cas_number", casNumber)
		return nil, fmt.Errorf("failed to get chemical: %w", err)
	}

	return c, nil
}

// GetChemicalByID returns the record with the given row id.
func (d *DB) GetChemicalByID(id int64) (*Chemical, error) {
	query := fmt.Sprintf(`SELECT %s FROM chemicals WHERE id = $1 LIMIT 1`, chemicalColumns)

	c, err := scanChemical(d.conn.QueryRow(query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("chemical id %d: %w", id, ErrNotFound)
		}
		d.logger.Error("Failed to get chemical by id", "error", err, "id", id)
		return nil, fmt.Errorf("failed to get chemical: %w", err)
	}

	return c, nil
}

// GetChemicalByName returns the record whose name matches, trying an exact
// case-insensitive match before falling back to a substring search.
func (d *DB) GetChemicalByName(name string) (*Chemical, error) {
	query := fmt.Sprintf(`SELECT %s FROM chemicals WHERE LOWER(name) = LOWER($1) LIMIT 1`, chemicalColumns)

	c, err := scanChemical(d.conn.QueryRow(query, name))
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		d.logger.Error("Failed to get chemical by name", "error", err, "name", name)
		return nil, fmt.Errorf("failed to get chemical: %w", err)
	}

	matches, err := d.SearchChemicals(name, 1)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("chemical %q: %w", name, ErrNotFound)
	}

	return &matches[0], nil
}

// ListChemicals returns records matching an optional filter substring. A
// non-positive limit returns every matching row, so exports are never
// truncated.
func (d *DB) ListChemicals(filter string, limit int) ([]Chemical, error) {
	var (
		where string
		args  []interface{}
	)
	if filter != "" {
		where = `
			WHERE LOWER(name) LIKE LOWER($1)
				OR cas_number LIKE $1
				OR LOWER(molecular_formula) LIKE LOWER($1)
				OR LOWER(iupac_name) LIKE LOWER($1)
				OR LOWER(synonyms) LIKE LOWER($1)`
		args = append(args, "%"+filter+"%")
	}

	limitClause := ""
	if limit > 0 {
		limitClause = fmt.Sprintf(" LIMIT %d", limit)
	}

	query := fmt.Sprintf(`SELECT %s FROM chemicals%s ORDER BY name%s`,
		chemicalColumns, where, limitClause)

	rows, err := d.conn.Query(query, args...)
	if err != nil {
		d.logger.Error("Chemical list query failed", "error", err, "limit", limit)
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var chemicals []Chemical
	for rows.Next() {
		c, err := scanChemical(rows)
		if err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		chemicals = append(chemicals, *c)
	}

	return chemicals, rows.Err()
}

// CountChemicals returns the number of stored records.
func (d *DB) CountChemicals() (int64, error) {
	var count int64
	err := d.conn.QueryRow(`SELECT COUNT(*) FROM chemicals`).Scan(&count)
	if err != nil {
		d.logger.Error("Failed to count chemicals", "error", err)
		return 0, fmt.Errorf("count failed: %w", err)
	}
	return count, nil
}

// DeleteChemical removes the record with the given CAS number. Returns
// ErrNotFound when no row matched.
func (d *DB) DeleteChemical(casNumber string) error {
	result, err := d.conn.Exec(`DELETE FROM chemicals WHERE cas_number = $1`, casNumber)
	if err != nil {
		d.logger.Error("Failed to delete chemical", "error", err, "cas_number", casNumber)
		return fmt.Errorf("delete failed: %w", err)
	}

	affected, err := result.RowsAffected()
	if err == nil && affected == 0 {
		return fmt.Errorf("chemical %s: %w", casNumber, ErrNotFound)
	}

	d.logger.Info("Deleted chemical record", "cas_number", casNumber)
	return nil
}

// DeleteChemicalByName removes the record with the given name.
func (d *DB) DeleteChemicalByName(name string) error {
	result, err := d.conn.Exec(`DELETE FROM chemicals WHERE LOWER(name) = LOWER($1)`, name)
	if err != nil {
		d.logger.Error("Failed to delete chemical", "error", err, "name", name)
		return fmt.Errorf("delete failed: %w", err)
	}

	affected, err := result.RowsAffected()
	if err == nil && affected == 0 {
		return fmt.Errorf("chemical %q: %w", name, ErrNotFound)
	}

	d.logger.Info("Deleted chemical record", "name", name)
	return nil
}

// ExecuteQuery runs a SQL statement and returns its column names and rows as
// generic maps. Powers the sql, summarize and schema commands.
func (d *DB) ExecuteQuery(query string) ([]string, []map[string]interface{}, error) {
	rows, err := d.conn.Query(query)
	if err != nil {
		d.logger.Error("Ad-hoc query failed", "error", err, "query", query)
		return nil, nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read columns: %w", err)
	}

	var results []map[string]interface{}
	for rows.Next() {
		values := make([]interface{}, len(columns))
		pointers := make([]interface{}, len(columns))
		for i := range values {
			pointers[i] = &values[i]
		}

		if err := rows.Scan(pointers...); err != nil {
			return nil, nil, fmt.Errorf("scan failed: %w", err)
		}

		row := make(map[string]interface{}, len(columns))
		for i, col := range columns {
			row[col] = values[i]
		}
		results = append(results, row)
	}

	return columns, results, rows.Err()
}

// SaveAISummaryCache stores a generated safety summary keyed by CAS number.
func (d *DB) SaveAISummaryCache(casNumber, chemicalName, model, summaryMarkdown string, generatedAt time.Time) error {
	query := `
		INSERT INTO ai_summary_cache (cas_number, chemical_name, model, summary_markdown, generated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (cas_number) DO UPDATE SET
			chemical_name = EXCLUDED.chemical_name,
			model = EXCLUDED.model,
			summary_markdown = EXCLUDED.summary_markdown,
			generated_at = EXCLUDED.generated_at,
			created_at = now()
	`

	_, err := d.conn.Exec(query, casNumber, chemicalName, model, summaryMarkdown, generatedAt)
	if err != nil {
		d.logger.Error("Failed to save AI summary cache", "error", err, "cas_number", casNumber)
		return fmt.Errorf("failed to save AI summary cache: %w", err)
	}

	d.logger.Info("Saved AI safety summary to cache", "cas_number", casNumber, "chemical_name", chemicalName)
	return nil
}

// LoadAISummaryCache loads a cached safety summary, failing when missing or
// older than maxAge.
func (d *DB) LoadAISummaryCache(casNumber string, maxAge time.Duration) (chemicalName, model, summaryMarkdown string, generatedAt time.Time, err error) {
	query := `
		SELECT chemical_name, model, summary_markdown, generated_at
		FROM ai_summary_cache
		WHERE cas_number = $1
	`

	err = d.conn.QueryRow(query, casNumber).Scan(&chemicalName, &model, &summaryMarkdown, &generatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", "", "", time.Time{}, fmt.Errorf("no cache entry found")
		}
		d.logger.Error("Failed to load AI summary cache", "error", err, "cas_number", casNumber)
		return "", "", "", time.Time{}, fmt.Errorf("failed to load AI summary cache: %w", err)
	}

	if time.Since(generatedAt) > maxAge {
		return "", "", "", time.Time{}, fmt.Errorf("cache expired")
	}

	d.logger.Info("Loaded AI safety summary from cache",
		"cas_number", casNumber, "age_hours", int(time.Since(generatedAt).Hours()))

	return chemicalName, model, summaryMarkdown, generatedAt, nil
}
