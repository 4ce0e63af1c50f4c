package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"jangbu/internal/core"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a record id does not exist.
var ErrNotFound = errors.New("record not found")

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
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

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

const expenseColumns = "id, date, time, store_name, address, amount, category, reason, image_url, owner, created_at, updated_at"

func (r *SQLiteRepository) CreateExpense(ctx context.Context, e core.Expense) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO expenses (`+expenseColumns+`) VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`,
		e.ID, e.Date, e.Time, e.StoreName, e.Address, e.Amount, string(e.Category),
		e.Reason, e.ImageURL, e.Owner,
		e.CreatedAt.Format(time.RFC3339), e.UpdatedAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("insert expense: %w", err)
	}

	slog.InfoContext(ctx, "Expense saved",
		"id", e.ID,
		"store_name", e.StoreName,
		"amount", e.Amount,
		"date", e.Date)

	return nil
}

func (r *SQLiteRepository) GetExpense(ctx context.Context, id string) (core.Expense, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE id = ?`, id)
	e, err := scanExpense(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Expense{}, ErrNotFound
		}
		return core.Expense{}, fmt.Errorf("get expense: %w", err)
	}
	return e, nil
}

func (r *SQLiteRepository) ListExpenses(ctx context.Context, owner string) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE owner = ? ORDER BY date DESC, time DESC`, owner)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	var out []core.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expenses: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) ListExpensesByDateRange(ctx context.Context, owner, start, end string) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+expenseColumns+` FROM expenses
		 WHERE owner = ? AND date >= ? AND date <= ?
		 ORDER BY date DESC, time DESC`, owner, start, end)
	if err != nil {
		return nil, fmt.Errorf("list expenses by range: %w", err)
	}
	defer rows.Close()

	var out []core.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expenses: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) UpdateExpense(ctx context.Context, e core.Expense) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE expenses SET date = ?, time = ?, store_name = ?, address = ?, amount = ?,
		 category = ?, reason = ?, image_url = ?, updated_at = ? WHERE id = ?`,
		e.Date, e.Time, e.StoreName, e.Address, e.Amount, string(e.Category),
		e.Reason, e.ImageURL, e.UpdatedAt.Format(time.RFC3339), e.ID)
	if err != nil {
		return fmt.Errorf("update expense: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) DeleteExpense(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) DeleteAllExpenses(ctx context.Context, owner string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM expenses WHERE owner = ?`, owner); err != nil {
		return fmt.Errorf("delete all expenses: %w", err)
	}
	slog.InfoContext(ctx, "All expenses deleted", "owner", owner)
	return nil
}

const incomeColumns = "id, date, category, amount, source, method, note, owner, created_at, updated_at"

func (r *SQLiteRepository) CreateIncome(ctx context.Context, in core.Income) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO incomes (`+incomeColumns+`) VALUES (?,?,?,?,?,?,?,?,?,?)`,
		in.ID, in.Date, in.Category, in.Amount, in.Source, in.Method, in.Note, in.Owner,
		in.CreatedAt.Format(time.RFC3339), in.UpdatedAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("insert income: %w", err)
	}

	slog.InfoContext(ctx, "Income saved",
		"id", in.ID,
		"category", in.Category,
		"amount", in.Amount,
		"date", in.Date)

	return nil
}

func (r *SQLiteRepository) GetIncome(ctx context.Context, id string) (core.Income, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+incomeColumns+` FROM incomes WHERE id = ?`, id)
	in, err := scanIncome(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Income{}, ErrNotFound
		}
		return core.Income{}, fmt.Errorf("get income: %w", err)
	}
	return in, nil
}

func (r *SQLiteRepository) ListIncomes(ctx context.Context, owner string) ([]core.Income, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+incomeColumns+` FROM incomes WHERE owner = ? ORDER BY date DESC`, owner)
	if err != nil {
		return nil, fmt.Errorf("list incomes: %w", err)
	}
	defer rows.Close()

	var out []core.Income
	for rows.Next() {
		in, err := scanIncome(rows)
		if err != nil {
			return nil, fmt.Errorf("scan income: %w", err)
		}
		out = append(out, in)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate incomes: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) UpdateIncome(ctx context.Context, in core.Income) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE incomes SET date = ?, category = ?, amount = ?, source = ?, method = ?,
		 note = ?, updated_at = ? WHERE id = ?`,
		in.Date, in.Category, in.Amount, in.Source, in.Method, in.Note,
		in.UpdatedAt.Format(time.RFC3339), in.ID)
	if err != nil {
		return fmt.Errorf("update income: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) DeleteIncome(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM incomes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete income: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) DeleteAllIncomes(ctx context.Context, owner string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM incomes WHERE owner = ?`, owner); err != nil {
		return fmt.Errorf("delete all incomes: %w", err)
	}
	slog.InfoContext(ctx, "All incomes deleted", "owner", owner)
	return nil
}

// GetSettings returns the owner's settings row, or the defaults when none
// has been saved yet.
func (r *SQLiteRepository) GetSettings(ctx context.Context, owner string) (core.Settings, error) {
	var s core.Settings
	err := r.db.QueryRowContext(ctx,
		`SELECT owner, budget, start_date, end_date, pin, api_key FROM settings WHERE owner = ?`, owner).
		Scan(&s.Owner, &s.Budget, &s.StartDate, &s.EndDate, &s.PIN, &s.APIKey)
	if errors.Is(err, sql.ErrNoRows) {
		return core.DefaultSettings(owner), nil
	}
	if err != nil {
		return core.Settings{}, fmt.Errorf("get settings: %w", err)
	}
	return s, nil
}

func (r *SQLiteRepository) SaveSettings(ctx context.Context, s core.Settings) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO settings (owner, budget, start_date, end_date, pin, api_key, updated_at)
		 VALUES (?,?,?,?,?,?,?)
		 ON CONFLICT(owner) DO UPDATE SET
		   budget = excluded.budget,
		   start_date = excluded.start_date,
		   end_date = excluded.end_date,
		   pin = excluded.pin,
		   api_key = excluded.api_key,
		   updated_at = excluded.updated_at`,
		s.Owner, s.Budget, s.StartDate, s.EndDate, s.PIN, s.APIKey,
		time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

// AdjustBudget applies a signed delta to the stored budget in one statement,
// clamping at zero. Income mutations call this so the read-modify-write race
// never reaches the database.
func (r *SQLiteRepository) AdjustBudget(ctx context.Context, owner string, delta int64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE settings SET budget = MAX(0, budget + ?), updated_at = ? WHERE owner = ?`,
		delta, time.Now().UTC().Format(time.RFC3339), owner)
	if err != nil {
		return fmt.Errorf("adjust budget: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("adjust budget: %w", err)
	}
	if n == 0 {
		// No settings row yet: seed one carrying the delta.
		s := core.DefaultSettings(owner)
		if delta > 0 {
			s.Budget = delta
		}
		return r.SaveSettings(ctx, s)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExpense(row rowScanner) (core.Expense, error) {
	var (
		e                    core.Expense
		category             string
		createdAt, updatedAt string
	)
	err := row.Scan(&e.ID, &e.Date, &e.Time, &e.StoreName, &e.Address, &e.Amount,
		&category, &e.Reason, &e.ImageURL, &e.Owner, &createdAt, &updatedAt)
	if err != nil {
		return core.Expense{}, err
	}
	e.Category = core.Category(category)
	e.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	e.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return e, nil
}

func scanIncome(row rowScanner) (core.Income, error) {
	var (
		in                   core.Income
		createdAt, updatedAt string
	)
	err := row.Scan(&in.ID, &in.Date, &in.Category, &in.Amount, &in.Source, &in.Method,
		&in.Note, &in.Owner, &createdAt, &updatedAt)
	if err != nil {
		return core.Income{}, err
	}
	in.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	in.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return in, nil
}
