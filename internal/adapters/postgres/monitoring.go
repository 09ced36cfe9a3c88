package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"breachmonitor/internal/domain"
)

// Insert relies on the UNIQUE constraint; a conflicting row affects nothing.
func (db *DB) Insert(ctx context.Context, identity domain.Identity) error {
	tag, err := db.Pool.Exec(ctx, `
		INSERT INTO monitored_identities (identity)
		VALUES ($1)
		ON CONFLICT (identity) DO NOTHING
	`, identity.String())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAlreadyMonitored
	}
	return nil
}

func (db *DB) List(ctx context.Context) ([]domain.MonitoringEntry, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT identity, last_breach_count, last_checked_at
		FROM monitored_identities
		ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []domain.MonitoringEntry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (db *DB) Get(ctx context.Context, identity domain.Identity) (domain.MonitoringEntry, error) {
	row := db.Pool.QueryRow(ctx, `
		SELECT identity, last_breach_count, last_checked_at
		FROM monitored_identities
		WHERE identity = $1
	`, identity.String())
	e, err := scanEntry(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.MonitoringEntry{}, domain.ErrNotMonitored
	}
	return e, err
}

// RecordCheck locks the row, reads the previous count and overwrites the state
// in one transaction.
func (db *DB) RecordCheck(ctx context.Context, identity domain.Identity, breachCount *int, checkedAt time.Time) (previous int, err error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	tx, err := db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			err = tx.Commit(ctx)
		}
	}()

	err = tx.QueryRow(ctx, `
		SELECT last_breach_count FROM monitored_identities
		WHERE identity = $1
		FOR UPDATE
	`, identity.String()).Scan(&previous)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, domain.ErrNotMonitored
	}
	if err != nil {
		return 0, err
	}
	if _, err = tx.Exec(ctx, `
		UPDATE monitored_identities
		SET last_breach_count = COALESCE($2, last_breach_count), last_checked_at = $3
		WHERE identity = $1
	`, identity.String(), breachCount, checkedAt.UTC().Format(time.RFC3339Nano)); err != nil {
		return 0, err
	}
	return previous, nil
}

func scanEntry(row pgx.Row) (domain.MonitoringEntry, error) {
	var (
		e       domain.MonitoringEntry
		id      string
		checked *string
	)
	if err := row.Scan(&id, &e.LastBreachCount, &checked); err != nil {
		return domain.MonitoringEntry{}, err
	}
	e.Identity = domain.Identity(id)
	if checked != nil {
		t, err := time.Parse(time.RFC3339Nano, *checked)
		if err != nil {
			return domain.MonitoringEntry{}, err
		}
		e.LastCheckedAt = &t
	}
	return e, nil
}
