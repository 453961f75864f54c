package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// Fixed width so text comparison orders rows chronologically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

type SQLRepository struct {
	db  *sqlx.DB
	now func() time.Time
}

// Open connects to sqlite3 or postgres and applies per-driver settings.
func Open(driver, dsn string) (*sqlx.DB, error) {
	switch driver {
	case DriverSQLite, DriverPostgres:
	default:
		return nil, fmt.Errorf("storage: unsupported driver %q", driver)
	}
	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if driver == DriverSQLite {
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	return db, nil
}

func NewSQLRepository(db *sqlx.DB) (*SQLRepository, error) {
	if db == nil {
		return nil, errors.New("storage: nil db")
	}
	if db.DriverName() == DriverSQLite {
		if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
			return nil, fmt.Errorf("enable foreign keys: %w", err)
		}
	}
	return &SQLRepository{db: db, now: time.Now}, nil
}

// SetClock overrides the timestamp source used for new rows.
func (r *SQLRepository) SetClock(now func() time.Time) {
	if now != nil {
		r.now = now
	}
}

func (r *SQLRepository) DB() *sqlx.DB {
	return r.db
}

func (r *SQLRepository) Close() error {
	return r.db.Close()
}

type taskRow struct {
	ID         string         `db:"id"`
	UserID     string         `db:"user_id"`
	Title      string         `db:"title"`
	Status     string         `db:"status"`
	Energy     sql.NullString `db:"energy"`
	BatchIndex int            `db:"batch_index"`
	CreatedAt  string         `db:"created_at"`
}

func (row taskRow) entity() (Task, error) {
	created, err := parseTime(row.CreatedAt)
	if err != nil {
		return Task{}, err
	}
	return Task{
		ID:         row.ID,
		UserID:     row.UserID,
		Title:      row.Title,
		Status:     row.Status,
		Energy:     row.Energy.String,
		BatchIndex: row.BatchIndex,
		CreatedAt:  created,
	}, nil
}

const taskColumns = `id, user_id, title, status, energy, batch_index, created_at`

// CreateTasks inserts every title in one transaction. The rows share a
// timestamp and keep their input order through batch_index.
func (r *SQLRepository) CreateTasks(ctx context.Context, userID string, titles []string) ([]Task, error) {
	if len(titles) == 0 {
		return nil, nil
	}
	for _, title := range titles {
		if strings.TrimSpace(title) == "" {
			return nil, ErrEmptyTitle
		}
	}
	created := r.now().UTC()
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin insert tasks: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := tx.Rebind(`INSERT INTO tasks (id, user_id, title, status, batch_index, created_at) VALUES (?, ?, ?, 'pending', ?, ?)`)
	out := make([]Task, 0, len(titles))
	for i, title := range titles {
		task := Task{
			ID:         uuid.NewString(),
			UserID:     userID,
			Title:      title,
			Status:     "pending",
			BatchIndex: i,
			CreatedAt:  created,
		}
		if _, err := tx.ExecContext(ctx, query, task.ID, task.UserID, task.Title, task.BatchIndex, formatTime(created)); err != nil {
			return nil, fmt.Errorf("insert task %d: %w", i, err)
		}
		out = append(out, task)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit insert tasks: %w", err)
	}
	return out, nil
}

func (r *SQLRepository) ListTasks(ctx context.Context, userID string, filter TaskListFilter) ([]Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE user_id = ?`
	args := []any{userID}
	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, filter.Status)
	}
	query += ` ORDER BY created_at DESC, batch_index ASC`
	query += applyPagination(&args, filter.Limit, filter.Offset)

	var rows []taskRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, err
	}
	out := make([]Task, 0, len(rows))
	for _, row := range rows {
		task, err := row.entity()
		if err != nil {
			return nil, err
		}
		out = append(out, task)
	}
	return out, nil
}

func (r *SQLRepository) GetTask(ctx context.Context, userID, id string) (Task, error) {
	var row taskRow
	err := r.db.GetContext(ctx, &row, r.db.Rebind(`SELECT `+taskColumns+` FROM tasks WHERE id = ? AND user_id = ?`), id, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Task{}, ErrNotFound
		}
		return Task{}, err
	}
	return row.entity()
}

func (r *SQLRepository) UpdateTask(ctx context.Context, userID, id string, patch TaskPatch) (Task, error) {
	if patch.empty() {
		return Task{}, ErrEmptyPatch
	}
	sets := make([]string, 0, 3)
	args := make([]any, 0, 5)
	if patch.Title != nil {
		if strings.TrimSpace(*patch.Title) == "" {
			return Task{}, ErrEmptyTitle
		}
		sets = append(sets, "title = ?")
		args = append(args, *patch.Title)
	}
	if patch.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, *patch.Status)
	}
	if patch.Energy != nil {
		sets = append(sets, "energy = ?")
		args = append(args, nullString(*patch.Energy))
	}
	args = append(args, id, userID)
	query := `UPDATE tasks SET ` + strings.Join(sets, ", ") + ` WHERE id = ? AND user_id = ?`
	res, err := r.db.ExecContext(ctx, r.db.Rebind(query), args...)
	if err != nil {
		return Task{}, err
	}
	if err := checkRowsAffected(res); err != nil {
		return Task{}, err
	}
	return r.GetTask(ctx, userID, id)
}

func (r *SQLRepository) DeleteTask(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM tasks WHERE id = ? AND user_id = ?`), id, userID)
	if err != nil {
		return err
	}
	return checkRowsAffected(res)
}

type energyLogRow struct {
	ID        string `db:"id"`
	UserID    string `db:"user_id"`
	Level     int    `db:"level"`
	CreatedAt string `db:"created_at"`
}

func (r *SQLRepository) CreateEnergyLog(ctx context.Context, userID string, level int) (EnergyLog, error) {
	if level < 0 || level > 100 {
		return EnergyLog{}, fmt.Errorf("%w: %d", ErrInvalidLevel, level)
	}
	entry := EnergyLog{
		ID:        uuid.NewString(),
		UserID:    userID,
		Level:     level,
		CreatedAt: r.now().UTC(),
	}
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`INSERT INTO energy_logs (id, user_id, level, created_at) VALUES (?, ?, ?, ?)`),
		entry.ID, entry.UserID, entry.Level, formatTime(entry.CreatedAt))
	if err != nil {
		return EnergyLog{}, err
	}
	return entry, nil
}

// ListEnergyLogs returns the most recent entries, at most MaxEnergyLogs,
// ordered oldest first.
func (r *SQLRepository) ListEnergyLogs(ctx context.Context, userID string, limit int) ([]EnergyLog, error) {
	if limit <= 0 || limit > MaxEnergyLogs {
		limit = MaxEnergyLogs
	}
	query := `SELECT id, user_id, level, created_at FROM (
		SELECT id, user_id, level, created_at FROM energy_logs
		WHERE user_id = ? ORDER BY created_at DESC LIMIT ?
	) AS recent ORDER BY created_at ASC`
	var rows []energyLogRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), userID, limit); err != nil {
		return nil, err
	}
	out := make([]EnergyLog, 0, len(rows))
	for _, row := range rows {
		created, err := parseTime(row.CreatedAt)
		if err != nil {
			return nil, err
		}
		out = append(out, EnergyLog{ID: row.ID, UserID: row.UserID, Level: row.Level, CreatedAt: created})
	}
	return out, nil
}

type userRow struct {
	ID           string `db:"id"`
	Email        string `db:"email"`
	PasswordHash string `db:"password_hash"`
	CreatedAt    string `db:"created_at"`
}

func (row userRow) entity() (User, error) {
	created, err := parseTime(row.CreatedAt)
	if err != nil {
		return User{}, err
	}
	return User{ID: row.ID, Email: row.Email, PasswordHash: row.PasswordHash, CreatedAt: created}, nil
}

func (r *SQLRepository) CreateUser(ctx context.Context, in User) error {
	email := normalizeEmail(in.Email)
	if _, err := r.GetUserByEmail(ctx, email); err == nil {
		return fmt.Errorf("%w: %s", ErrConflict, email)
	} else if !errors.Is(err, ErrNotFound) {
		return err
	}
	created := in.CreatedAt
	if created.IsZero() {
		created = r.now()
	}
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`INSERT INTO users (id, email, password_hash, created_at) VALUES (?, ?, ?, ?)`),
		in.ID, email, in.PasswordHash, formatTime(created))
	return err
}

func (r *SQLRepository) GetUser(ctx context.Context, id string) (User, error) {
	return r.getUser(ctx, `SELECT id, email, password_hash, created_at FROM users WHERE id = ?`, id)
}

func (r *SQLRepository) GetUserByEmail(ctx context.Context, email string) (User, error) {
	return r.getUser(ctx, `SELECT id, email, password_hash, created_at FROM users WHERE email = ?`, normalizeEmail(email))
}

func (r *SQLRepository) getUser(ctx context.Context, query string, arg string) (User, error) {
	var row userRow
	if err := r.db.GetContext(ctx, &row, r.db.Rebind(query), arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	return row.entity()
}

type authCodeRow struct {
	Code      string `db:"code"`
	UserID    string `db:"user_id"`
	ExpiresAt string `db:"expires_at"`
	CreatedAt string `db:"created_at"`
}

func (r *SQLRepository) CreateAuthCode(ctx context.Context, in AuthCode) error {
	created := in.CreatedAt
	if created.IsZero() {
		created = r.now()
	}
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`INSERT INTO auth_codes (code, user_id, expires_at, created_at) VALUES (?, ?, ?, ?)`),
		in.Code, in.UserID, formatTime(in.ExpiresAt), formatTime(created))
	return err
}

// ConsumeAuthCode deletes the code and returns it. An expired code is
// deleted too and reported as ErrExpired.
func (r *SQLRepository) ConsumeAuthCode(ctx context.Context, code string, now time.Time) (AuthCode, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return AuthCode{}, fmt.Errorf("begin consume code: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var row authCodeRow
	if err := tx.GetContext(ctx, &row, tx.Rebind(`SELECT code, user_id, expires_at, created_at FROM auth_codes WHERE code = ?`), code); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return AuthCode{}, ErrNotFound
		}
		return AuthCode{}, err
	}
	if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM auth_codes WHERE code = ?`), code); err != nil {
		return AuthCode{}, err
	}
	if err := tx.Commit(); err != nil {
		return AuthCode{}, fmt.Errorf("commit consume code: %w", err)
	}

	expires, err := parseTime(row.ExpiresAt)
	if err != nil {
		return AuthCode{}, err
	}
	created, err := parseTime(row.CreatedAt)
	if err != nil {
		return AuthCode{}, err
	}
	out := AuthCode{Code: row.Code, UserID: row.UserID, ExpiresAt: expires, CreatedAt: created}
	if !now.Before(expires) {
		return out, ErrExpired
	}
	return out, nil
}

func applyPagination(args *[]any, limit, offset int) string {
	if limit <= 0 {
		return ""
	}
	*args = append(*args, limit)
	clause := ` LIMIT ?`
	if offset > 0 {
		*args = append(*args, offset)
		clause += ` OFFSET ?`
	}
	return clause
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(value string) (time.Time, error) {
	out, err := time.Parse(timeLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", value, err)
	}
	return out, nil
}

func nullString(value string) sql.NullString {
	return sql.NullString{String: value, Valid: value != ""}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func checkRowsAffected(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

var _ Repository = (*SQLRepository)(nil)
