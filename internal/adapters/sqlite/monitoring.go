package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"breachmonitor/internal/domain"
)

func (db *DB) Insert(ctx context.Context, identity domain.Identity) error {
	res, err := db.Conn.ExecContext(ctx, `
		INSERT INTO monitored_identities (identity)
		VALUES (?)
		ON CONFLICT (identity) DO NOTHING
	`, identity.String())
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrAlreadyMonitored
	}
	return nil
}

func (db *DB) List(ctx context.Context) ([]domain.MonitoringEntry, error) {
	rows, err := db.Conn.QueryContext(ctx, `
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
	row := db.Conn.QueryRowContext(ctx, `
		SELECT identity, last_breach_count, last_checked_at
		FROM monitored_identities
		WHERE identity = ?
	`, identity.String())
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.MonitoringEntry{}, domain.ErrNotMonitored
	}
	return e, err
}

// RecordCheck reads the previous count and overwrites the state in one
// transaction.
func (db *DB) RecordCheck(ctx context.Context, identity domain.Identity, breachCount *int, checkedAt time.Time) (previous int, err error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	tx, err := db.Conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	err = tx.QueryRowContext(ctx, `SELECT last_breach_count FROM monitored_identities WHERE identity = ?`, identity.String()).Scan(&previous)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, domain.ErrNotMonitored
	}
	if err != nil {
		return 0, err
	}
	if _, err = tx.ExecContext(ctx, `
		UPDATE monitored_identities
		SET last_breach_count = COALESCE(?, last_breach_count), last_checked_at = ?
		WHERE identity = ?
	`, breachCount, checkedAt.UTC().Format(time.RFC3339Nano), identity.String()); err != nil {
		return 0, err
	}
	return previous, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (domain.MonitoringEntry, error) {
	var (
		e       domain.MonitoringEntry
		id      string
		checked sql.NullString
	)
	if err := row.Scan(&id, &e.LastBreachCount, &checked); err != nil {
		return domain.MonitoringEntry{}, err
	}
	e.Identity = domain.Identity(id)
	if checked.Valid {
		t, err := time.Parse(time.RFC3339Nano, checked.String)
		if err != nil {
			return domain.MonitoringEntry{}, err
		}
		e.LastCheckedAt = &t
	}
	return e, nil
}
