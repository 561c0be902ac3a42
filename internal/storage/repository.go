package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"cuentas/internal/core"
	"cuentas/internal/ports"
)

// SQLiteRepository stores every collection in one SQLite file.
type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteRepository opens (creating if needed) the database at dbPath and migrates it.
func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	dsn := dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dsn); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, now: time.Now}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Stores exposes the repository through the service ports.
func (r *SQLiteRepository) Stores() ports.Stores {
	return ports.Stores{
		Water:       waterTable{r},
		Electricity: electricityTable{r},
		Internet:    internetTable{r},
		Users:       r,
		KV:          r,
	}
}

func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if errors.As(err, &se) {
		code := se.Code()
		return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// execOne runs a statement that must touch exactly one row.
func (r *SQLiteRepository) execOne(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ports.ErrNotFound
	}
	return nil
}

func periodConflict(u core.Utility, p core.Period, update bool) error {
	return &core.DuplicatePeriodError{Utility: u, Period: p, Update: update}
}

type rowScanner interface {
	Scan(dest ...any) error
}

// --- water ---

type waterTable struct{ r *SQLiteRepository }

const waterColumns = `id, year, month, total_invoiced_cents, discount_cents, total_to_pay_cents, status`

func scanWater(s rowScanner) (core.WaterRecord, error) {
	var w core.WaterRecord
	var status string
	err := s.Scan(&w.ID, &w.Period.Year, &w.Period.Month, &w.TotalInvoiced, &w.Discount, &w.TotalToPay, &status)
	w.Status = core.Status(status)
	return w, err
}

func (t waterTable) Create(ctx context.Context, w core.WaterRecord) (core.WaterRecord, error) {
	w.ID = uuid.NewString()
	_, err := t.r.db.ExecContext(ctx,
		`INSERT INTO water_records (`+waterColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		w.ID, w.Period.Year, int(w.Period.Month), int64(w.TotalInvoiced), int64(w.Discount), int64(w.TotalToPay), string(w.Status))
	if isUniqueViolation(err) {
		return core.WaterRecord{}, periodConflict(core.Water, w.Period, false)
	}
	if err != nil {
		return core.WaterRecord{}, fmt.Errorf("insert water record: %w", err)
	}
	slog.InfoContext(ctx, "Water record saved to SQLite", "id", w.ID, "year", w.Period.Year, "month", int(w.Period.Month))
	return w, nil
}

func (t waterTable) Update(ctx context.Context, w core.WaterRecord) error {
	err := t.r.execOne(ctx,
		`UPDATE water_records SET year = ?, month = ?, total_invoiced_cents = ?, discount_cents = ?,
		 total_to_pay_cents = ?, status = ?, updated_at = ? WHERE id = ?`,
		w.Period.Year, int(w.Period.Month), int64(w.TotalInvoiced), int64(w.Discount), int64(w.TotalToPay),
		string(w.Status), t.r.now().UTC(), w.ID)
	if isUniqueViolation(err) {
		return periodConflict(core.Water, w.Period, true)
	}
	if err != nil {
		return fmt.Errorf("update water record %s: %w", w.ID, err)
	}
	return nil
}

func (t waterTable) Delete(ctx context.Context, id string) error {
	if err := t.r.execOne(ctx, `DELETE FROM water_records WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete water record %s: %w", id, err)
	}
	return nil
}

func (t waterTable) Get(ctx context.Context, id string) (core.WaterRecord, error) {
	w, err := scanWater(t.r.db.QueryRowContext(ctx, `SELECT `+waterColumns+` FROM water_records WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return core.WaterRecord{}, ports.ErrNotFound
	}
	if err != nil {
		return core.WaterRecord{}, fmt.Errorf("get water record %s: %w", id, err)
	}
	return w, nil
}

func (t waterTable) List(ctx context.Context) ([]core.WaterRecord, error) {
	rows, err := t.r.db.QueryContext(ctx, `SELECT `+waterColumns+` FROM water_records ORDER BY year DESC, month DESC`)
	if err != nil {
		return nil, fmt.Errorf("list water records: %w", err)
	}
	defer rows.Close()

	var out []core.WaterRecord
	for rows.Next() {
		w, err := scanWater(rows)
		if err != nil {
			return nil, fmt.Errorf("scan water record: %w", err)
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

// --- electricity ---

type electricityTable struct{ r *SQLiteRepository }

const electricityColumns = `id, year, month, total_invoiced_cents, kwh_consumption, previous_meter, current_meter,
	consumption_meter, kwh_cost_cents, discount_cents, total_to_pay_cents, status`

func scanElectricity(s rowScanner) (core.ElectricityRecord, error) {
	var e core.ElectricityRecord
	var status string
	err := s.Scan(&e.ID, &e.Period.Year, &e.Period.Month, &e.TotalInvoiced, &e.KWhConsumption, &e.PreviousMeter,
		&e.CurrentMeter, &e.ConsumptionMeter, &e.KWhCost, &e.Discount, &e.TotalToPay, &status)
	e.Status = core.Status(status)
	return e, err
}

func (t electricityTable) Create(ctx context.Context, e core.ElectricityRecord) (core.ElectricityRecord, error) {
	e.ID = uuid.NewString()
	_, err := t.r.db.ExecContext(ctx,
		`INSERT INTO electricity_records (`+electricityColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Period.Year, int(e.Period.Month), int64(e.TotalInvoiced), e.KWhConsumption, e.PreviousMeter,
		e.CurrentMeter, e.ConsumptionMeter, int64(e.KWhCost), int64(e.Discount), int64(e.TotalToPay), string(e.Status))
	if isUniqueViolation(err) {
		return core.ElectricityRecord{}, periodConflict(core.Electricity, e.Period, false)
	}
	if err != nil {
		return core.ElectricityRecord{}, fmt.Errorf("insert electricity record: %w", err)
	}
	slog.InfoContext(ctx, "Electricity record saved to SQLite", "id", e.ID, "year", e.Period.Year, "month", int(e.Period.Month))
	return e, nil
}

func (t electricityTable) Update(ctx context.Context, e core.ElectricityRecord) error {
	err := t.r.execOne(ctx,
		`UPDATE electricity_records SET year = ?, month = ?, total_invoiced_cents = ?, kwh_consumption = ?,
		 previous_meter = ?, current_meter = ?, consumption_meter = ?, kwh_cost_cents = ?, discount_cents = ?,
		 total_to_pay_cents = ?, status = ?, updated_at = ? WHERE id = ?`,
		e.Period.Year, int(e.Period.Month), int64(e.TotalInvoiced), e.KWhConsumption, e.PreviousMeter, e.CurrentMeter,
		e.ConsumptionMeter, int64(e.KWhCost), int64(e.Discount), int64(e.TotalToPay), string(e.Status),
		t.r.now().UTC(), e.ID)
	if isUniqueViolation(err) {
		return periodConflict(core.Electricity, e.Period, true)
	}
	if err != nil {
		return fmt.Errorf("update electricity record %s: %w", e.ID, err)
	}
	return nil
}

func (t electricityTable) Delete(ctx context.Context, id string) error {
	if err := t.r.execOne(ctx, `DELETE FROM electricity_records WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete electricity record %s: %w", id, err)
	}
	return nil
}

func (t electricityTable) Get(ctx context.Context, id string) (core.ElectricityRecord, error) {
	e, err := scanElectricity(t.r.db.QueryRowContext(ctx, `SELECT `+electricityColumns+` FROM electricity_records WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return core.ElectricityRecord{}, ports.ErrNotFound
	}
	if err != nil {
		return core.ElectricityRecord{}, fmt.Errorf("get electricity record %s: %w", id, err)
	}
	return e, nil
}

func (t electricityTable) List(ctx context.Context) ([]core.ElectricityRecord, error) {
	rows, err := t.r.db.QueryContext(ctx, `SELECT `+electricityColumns+` FROM electricity_records ORDER BY year DESC, month DESC`)
	if err != nil {
		return nil, fmt.Errorf("list electricity records: %w", err)
	}
	defer rows.Close()

	var out []core.ElectricityRecord
	for rows.Next() {
		e, err := scanElectricity(rows)
		if err != nil {
			return nil, fmt.Errorf("scan electricity record: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// --- internet ---

type internetTable struct{ r *SQLiteRepository }

const internetColumns = `id, year, month, monthly_cost_cents, discount_cents, total_to_pay_cents, status`

func scanInternet(s rowScanner) (core.InternetRecord, error) {
	var i core.InternetRecord
	var status string
	err := s.Scan(&i.ID, &i.Period.Year, &i.Period.Month, &i.MonthlyCost, &i.Discount, &i.TotalToPay, &status)
	i.Status = core.Status(status)
	return i, err
}

func (t internetTable) Create(ctx context.Context, i core.InternetRecord) (core.InternetRecord, error) {
	i.ID = uuid.NewString()
	_, err := t.r.db.ExecContext(ctx,
		`INSERT INTO internet_records (`+internetColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		i.ID, i.Period.Year, int(i.Period.Month), int64(i.MonthlyCost), int64(i.Discount), int64(i.TotalToPay), string(i.Status))
	if isUniqueViolation(err) {
		return core.InternetRecord{}, periodConflict(core.Internet, i.Period, false)
	}
	if err != nil {
		return core.InternetRecord{}, fmt.Errorf("insert internet record: %w", err)
	}
	slog.InfoContext(ctx, "Internet record saved to SQLite", "id", i.ID, "year", i.Period.Year, "month", int(i.Period.Month))
	return i, nil
}

func (t internetTable) Update(ctx context.Context, i core.InternetRecord) error {
	err := t.r.execOne(ctx,
		`UPDATE internet_records SET year = ?, month = ?, monthly_cost_cents = ?, discount_cents = ?,
		 total_to_pay_cents = ?, status = ?, updated_at = ? WHERE id = ?`,
		i.Period.Year, int(i.Period.Month), int64(i.MonthlyCost), int64(i.Discount), int64(i.TotalToPay),
		string(i.Status), t.r.now().UTC(), i.ID)
	if isUniqueViolation(err) {
		return periodConflict(core.Internet, i.Period, true)
	}
	if err != nil {
		return fmt.Errorf("update internet record %s: %w", i.ID, err)
	}
	return nil
}

func (t internetTable) Delete(ctx context.Context, id string) error {
	if err := t.r.execOne(ctx, `DELETE FROM internet_records WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete internet record %s: %w", id, err)
	}
	return nil
}

func (t internetTable) Get(ctx context.Context, id string) (core.InternetRecord, error) {
	i, err := scanInternet(t.r.db.QueryRowContext(ctx, `SELECT `+internetColumns+` FROM internet_records WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return core.InternetRecord{}, ports.ErrNotFound
	}
	if err != nil {
		return core.InternetRecord{}, fmt.Errorf("get internet record %s: %w", id, err)
	}
	return i, nil
}

func (t internetTable) List(ctx context.Context) ([]core.InternetRecord, error) {
	rows, err := t.r.db.QueryContext(ctx, `SELECT `+internetColumns+` FROM internet_records ORDER BY year DESC, month DESC`)
	if err != nil {
		return nil, fmt.Errorf("list internet records: %w", err)
	}
	defer rows.Close()

	var out []core.InternetRecord
	for rows.Next() {
		i, err := scanInternet(rows)
		if err != nil {
			return nil, fmt.Errorf("scan internet record: %w", err)
		}
		out = append(out, i)
	}
	return out, rows.Err()
}
