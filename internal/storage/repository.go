// Package storage keeps a SQLite snapshot of the upstream dataset and an
// archive of received conflict alerts.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	json "github.com/goccy/go-json"

	"cruce/internal/conflict"
	"cruce/internal/core"
	"cruce/internal/log"
	"cruce/internal/source"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db     *sql.DB
	logger *log.Logger
}

var _ source.Source = (*SQLiteRepository)(nil)

const contractColumns = `nombre_declarante, correo_institucional, institucion_declarante,
	nombre_ente_publico, nivel_orden_gobierno, puesto, funcion_principal,
	empresa_relacionada, tipo_participacion, porcentaje_participacion, remuneracion,
	sector, fecha_toma_posesion, fecha_inicio_contrato, fecha_fin_contrato,
	monto_contrato, descripcion_contrato, institucion_compradora, mismo_ente, ingresos`

func NewSQLiteRepository(dbPath string, logger *log.Logger) (*SQLiteRepository, error) {
	if logger == nil {
		logger = log.Discard()
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, logger: logger.WithComponent(log.ComponentStorage)}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database answers.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Empty reports whether no contract has been imported yet.
func (r *SQLiteRepository) Empty(ctx context.Context) (bool, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM contracts`).Scan(&n); err != nil {
		return false, fmt.Errorf("count contracts: %w", err)
	}
	return n == 0, nil
}

// Import replaces the snapshot with fx in one transaction. Records missing the
// same-entity flag get it derived.
func (r *SQLiteRepository) Import(ctx context.Context, fx source.Fixture) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin import: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"contracts", "cross_roster", "conflict_roster"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	records := append([]core.ContractRecord(nil), fx.Contracts...)
	conflict.Derive(records)
	insert := `INSERT INTO contracts (nombre_normalizado, ` + contractColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	for _, c := range records {
		income, err := encodeIncome(c.Income)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, insert,
			normalizeName(c.DeclarantName), c.DeclarantName, c.InstitutionalEmail, c.DeclarantInstitution,
			c.PublicEntity, c.GovernmentLevel, c.Position, c.PrimaryFunction,
			c.RelatedCompany, c.ParticipationType, nullNumber(c.ParticipationPercentage), nullBool(c.Remunerated),
			c.Sector, nullString(c.AppointmentDate), nullString(c.ContractStartDate), nullString(c.ContractEndDate),
			nullNumber(c.Amount), c.Description, c.BuyingInstitution, c.SameEntity, income,
		); err != nil {
			return fmt.Errorf("insert contract: %w", err)
		}
	}

	for _, row := range fx.Cross {
		income, err := encodeIncome(row.Income)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO cross_roster
			(nombre_declarante, fecha_toma_posesion, total_contratos, contratos_antes, contratos_despues, monto_total, ingresos)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			row.DeclarantName, nullString(row.AppointmentDate), row.TotalContracts,
			row.ContractsBefore, row.ContractsAfter, row.TotalAmount, income,
		); err != nil {
			return fmt.Errorf("insert cross row: %w", err)
		}
	}

	for _, row := range fx.Conflicts {
		income, err := encodeIncome(row.Income)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO conflict_roster
			(nombre_declarante, fecha_toma_posesion, total_contratos, monto_total, ente_coincidente, ingresos)
			VALUES (?, ?, ?, ?, ?, ?)`,
			row.DeclarantName, nullString(row.AppointmentDate), row.TotalContracts,
			row.TotalAmount, row.CoincidentEntity, income,
		); err != nil {
			return fmt.Errorf("insert conflict row: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit import: %w", err)
	}
	r.logger.InfoContext(ctx, "Snapshot imported",
		log.FieldRecords, len(records),
		"cross_rows", len(fx.Cross),
		"conflict_rows", len(fx.Conflicts))
	return nil
}

func (r *SQLiteRepository) ContractsByName(ctx context.Context, name string) ([]core.ContractRecord, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, core.ErrEmptyName
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+contractColumns+` FROM contracts WHERE nombre_normalizado = ? ORDER BY id`,
		normalizeName(name))
	if err != nil {
		return nil, fmt.Errorf("query contracts: %w", err)
	}
	defer rows.Close()

	out := []core.ContractRecord{}
	for rows.Next() {
		c, err := scanContract(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate contracts: %w", err)
	}
	return out, nil
}

// Suggest lists sorted names containing query that have an appointment date.
func (r *SQLiteRepository) Suggest(ctx context.Context, query string) ([]string, error) {
	q := normalizeName(query)
	if len([]rune(q)) < source.MinSuggestLength {
		return []string{}, nil
	}
	return r.names(ctx, `SELECT DISTINCT nombre_declarante FROM contracts
		WHERE instr(nombre_normalizado, ?) > 0
		  AND fecha_toma_posesion IS NOT NULL AND trim(fecha_toma_posesion) <> ''
		ORDER BY nombre_declarante LIMIT ?`, q, source.MaxSuggestions)
}

func (r *SQLiteRepository) ListDeclarants(ctx context.Context) ([]string, error) {
	return r.names(ctx, `SELECT DISTINCT trim(nombre_declarante) FROM contracts
		WHERE trim(nombre_declarante) <> '' ORDER BY 1`)
}

func (r *SQLiteRepository) CrossRoster(ctx context.Context, key core.SortKey) ([]core.CrossRow, error) {
	order := "monto_total DESC"
	if key == core.SortByCount {
		order = "total_contratos DESC"
	}
	rows, err := r.db.QueryContext(ctx, `SELECT nombre_declarante, fecha_toma_posesion, total_contratos,
		contratos_antes, contratos_despues, monto_total, ingresos
		FROM cross_roster ORDER BY `+order+`, id`)
	if err != nil {
		return nil, fmt.Errorf("query cross roster: %w", err)
	}
	defer rows.Close()

	out := []core.CrossRow{}
	for rows.Next() {
		var (
			row    core.CrossRow
			toma   sql.NullString
			income sql.NullString
		)
		if err := rows.Scan(&row.DeclarantName, &toma, &row.TotalContracts,
			&row.ContractsBefore, &row.ContractsAfter, &row.TotalAmount, &income); err != nil {
			return nil, fmt.Errorf("scan cross row: %w", err)
		}
		row.AppointmentDate = stringPtr(toma)
		if row.Income, err = decodeIncome(income); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cross roster: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) ConflictRoster(ctx context.Context) ([]core.ConflictRow, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT nombre_declarante, fecha_toma_posesion, total_contratos,
		monto_total, ente_coincidente, ingresos
		FROM conflict_roster ORDER BY monto_total DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("query conflict roster: %w", err)
	}
	defer rows.Close()

	out := []core.ConflictRow{}
	for rows.Next() {
		var (
			row    core.ConflictRow
			toma   sql.NullString
			income sql.NullString
		)
		if err := rows.Scan(&row.DeclarantName, &toma, &row.TotalContracts,
			&row.TotalAmount, &row.CoincidentEntity, &income); err != nil {
			return nil, fmt.Errorf("scan conflict row: %w", err)
		}
		row.AppointmentDate = stringPtr(toma)
		if row.Income, err = decodeIncome(income); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate conflict roster: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) names(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query names: %w", err)
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("scan name: %w", err)
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate names: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanContract(s scanner) (core.ContractRecord, error) {
	var (
		c                        core.ContractRecord
		participation, amount    sql.NullFloat64
		remunerated              sql.NullBool
		toma, start, end, income sql.NullString
	)
	if err := s.Scan(
		&c.DeclarantName, &c.InstitutionalEmail, &c.DeclarantInstitution,
		&c.PublicEntity, &c.GovernmentLevel, &c.Position, &c.PrimaryFunction,
		&c.RelatedCompany, &c.ParticipationType, &participation, &remunerated,
		&c.Sector, &toma, &start, &end,
		&amount, &c.Description, &c.BuyingInstitution, &c.SameEntity, &income,
	); err != nil {
		return core.ContractRecord{}, fmt.Errorf("scan contract: %w", err)
	}
	c.ParticipationPercentage = numberFrom(participation)
	c.Amount = numberFrom(amount)
	if remunerated.Valid {
		c.Remunerated = core.Bool(remunerated.Bool)
	}
	c.AppointmentDate = stringPtr(toma)
	c.ContractStartDate = stringPtr(start)
	c.ContractEndDate = stringPtr(end)
	var err error
	if c.Income, err = decodeIncome(income); err != nil {
		return core.ContractRecord{}, err
	}
	return c, nil
}

func normalizeName(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// encodeIncome stores a profile with no present field as NULL.
func encodeIncome(p *core.IncomeProfile) (sql.NullString, error) {
	if p.IsEmpty() {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(p)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("encode income: %w", err)
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

func decodeIncome(s sql.NullString) (*core.IncomeProfile, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	var p core.IncomeProfile
	if err := json.Unmarshal([]byte(s.String), &p); err != nil {
		return nil, fmt.Errorf("decode income: %w", err)
	}
	return &p, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	return core.String(s.String)
}

func nullNumber(n core.Number) sql.NullFloat64 {
	return sql.NullFloat64{Float64: n.Value, Valid: n.Valid}
}

func numberFrom(n sql.NullFloat64) core.Number {
	return core.Number{Value: n.Float64, Valid: n.Valid}
}

func nullBool(b *bool) sql.NullBool {
	if b == nil {
		return sql.NullBool{}
	}
	return sql.NullBool{Bool: *b, Valid: true}
}
