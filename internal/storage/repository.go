// Package storage persists subscriptions, owners and reminder runs in SQLite.
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
	"github.com/shopspring/decimal"

	"subcal/internal/core"
	applog "subcal/internal/log"

	_ "modernc.org/sqlite"
)

const subscriptionColumns = `id, owner_id, name, amount, currency, cycle, due_day, color, initial,
	autopay, payment_source, start_date, end_date, created_at`

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
	// SQLite serialises writers; one connection avoids SQLITE_BUSY under load.
	db.SetMaxOpenConns(1)

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

// Ping checks the database connection.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// ListSubscriptions returns the owner's subscriptions ordered by due day.
func (r *SQLiteRepository) ListSubscriptions(ctx context.Context, ownerID string) ([]core.Subscription, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+subscriptionColumns+` FROM subscriptions
		WHERE owner_id = ? ORDER BY due_day, created_at, id`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	defer rows.Close()

	subs := []core.Subscription{}
	for rows.Next() {
		owned, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, owned.Subscription)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate subscriptions: %w", err)
	}
	return subs, nil
}

// CreateSubscription stores s for the owner, assigning an id and creation
// time. The caller is expected to have validated s.
func (r *SQLiteRepository) CreateSubscription(ctx context.Context, ownerID string, s core.Subscription) (core.Subscription, error) {
	s.ID = uuid.NewString()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO subscriptions (`+subscriptionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, ownerID, s.Name, s.Amount.StringFixed(2), s.Currency, string(s.Cycle), s.DueDay,
		s.Color, s.Initial, s.Autopay, s.PaymentSource,
		nullDate(s.StartDate), nullDate(s.EndDate), s.CreatedAt)
	if err != nil {
		return core.Subscription{}, fmt.Errorf("create subscription: %w", err)
	}

	slog.InfoContext(ctx, "Subscription saved to SQLite", applog.NewFields().
		WithComponent(applog.ComponentStorage).
		WithOwner(ownerID).
		WithSubscription(s.ID, s.Name, s.Amount.StringFixed(2), string(s.Cycle), s.DueDay).
		ToSlice()...)
	return s, nil
}

// DeleteSubscription removes the owner's subscription. A missing row or one
// owned by someone else yields core.ErrNotFound.
func (r *SQLiteRepository) DeleteSubscription(ctx context.Context, ownerID, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM subscriptions WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete subscription: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete subscription: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

// ListDueOnDays returns every owner's subscriptions whose due day is one of
// days, ordered by owner then due day. Activity windows are not filtered.
func (r *SQLiteRepository) ListDueOnDays(ctx context.Context, days ...int) ([]core.OwnedSubscription, error) {
	if len(days) == 0 {
		return []core.OwnedSubscription{}, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(days)), ",")
	args := make([]any, len(days))
	for i, d := range days {
		args[i] = d
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+subscriptionColumns+` FROM subscriptions
		WHERE due_day IN (`+placeholders+`) ORDER BY owner_id, due_day, created_at, id`, args...)
	if err != nil {
		return nil, fmt.Errorf("list due subscriptions: %w", err)
	}
	defer rows.Close()

	out := []core.OwnedSubscription{}
	for rows.Next() {
		owned, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, owned)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate due subscriptions: %w", err)
	}
	return out, nil
}

// UpsertOwner records the owner, updating the email when a non-empty one is
// given.
func (r *SQLiteRepository) UpsertOwner(ctx context.Context, ownerID, email string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO owners (id, email) VALUES (?, ?)
		ON CONFLICT(id) DO UPDATE SET email = CASE WHEN excluded.email <> '' THEN excluded.email ELSE owners.email END`,
		ownerID, strings.TrimSpace(email))
	if err != nil {
		return fmt.Errorf("upsert owner: %w", err)
	}
	return nil
}

// OwnerEmail returns the stored email, or "" for unknown owners.
func (r *SQLiteRepository) OwnerEmail(ctx context.Context, ownerID string) (string, error) {
	var email string
	err := r.db.QueryRowContext(ctx, `SELECT email FROM owners WHERE id = ?`, ownerID).Scan(&email)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get owner email: %w", err)
	}
	return email, nil
}

// ClaimReminderRun marks date as dispatched. It returns false when another
// run already claimed the same date.
func (r *SQLiteRepository) ClaimReminderRun(ctx context.Context, date core.Date) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO reminder_runs (run_date) VALUES (?)`, date.String())
	if err != nil {
		return false, fmt.Errorf("claim reminder run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("claim reminder run: %w", err)
	}
	return n == 1, nil
}

// FinishReminderRun records the outcome of a claimed run.
func (r *SQLiteRepository) FinishReminderRun(ctx context.Context, date core.Date, owners, reminders int) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE reminder_runs SET owners = ?, reminders = ?, finished_at = ? WHERE run_date = ?`,
		owners, reminders, time.Now().UTC(), date.String())
	if err != nil {
		return fmt.Errorf("finish reminder run: %w", err)
	}
	return nil
}

// ReleaseReminderRun drops a claim so a failed run can be retried.
func (r *SQLiteRepository) ReleaseReminderRun(ctx context.Context, date core.Date) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM reminder_runs WHERE run_date = ? AND finished_at IS NULL`, date.String())
	if err != nil {
		return fmt.Errorf("release reminder run: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSubscription(row rowScanner) (core.OwnedSubscription, error) {
	var (
		o             core.OwnedSubscription
		amount, cycle string
		start, end    sql.NullString
		autopay       bool
	)
	err := row.Scan(&o.ID, &o.OwnerID, &o.Name, &amount, &o.Currency, &cycle, &o.DueDay,
		&o.Color, &o.Initial, &autopay, &o.PaymentSource, &start, &end, &o.CreatedAt)
	if err != nil {
		return o, fmt.Errorf("scan subscription: %w", err)
	}

	if o.Amount, err = decimal.NewFromString(amount); err != nil {
		return o, fmt.Errorf("subscription %s: parse amount %q: %w", o.ID, amount, err)
	}
	o.Cycle = core.Cycle(cycle)
	o.Autopay = autopay
	if o.StartDate, err = core.ParseDate(start.String); err != nil {
		return o, fmt.Errorf("subscription %s: start date: %w", o.ID, err)
	}
	if o.EndDate, err = core.ParseDate(end.String); err != nil {
		return o, fmt.Errorf("subscription %s: end date: %w", o.ID, err)
	}
	o.CreatedAt = o.CreatedAt.UTC()
	return o, nil
}

func nullDate(d core.Date) sql.NullString {
	if d.IsEmpty() {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}
