package database

import (
	"context"
	"time"

	"btc-price-alert/internal/types"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

func (s *Store) Name() string { return "sqlite" }

// Append saves an alert log entry
func (s *Store) Append(ctx context.Context, e types.Entry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.At.IsZero() {
		e.At = time.Now()
	}

	query := `INSERT INTO alert_log (id, price, info, created_at) VALUES (?, ?, ?, ?);`
	if _, err := s.db.ExecContext(ctx, query, e.ID, e.Price, e.Info, e.At.UnixNano()); err != nil {
		return errors.Wrap(err, "failed to insert alert log entry")
	}
	return nil
}

// Entries returns logged alerts, oldest first
func (s *Store) Entries(ctx context.Context) ([]types.Entry, error) {
	query := `SELECT id, price, info, created_at FROM alert_log ORDER BY created_at, rowid;`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query alert log")
	}
	defer rows.Close()

	var entries []types.Entry
	for rows.Next() {
		var e types.Entry
		var at int64
		if err := rows.Scan(&e.ID, &e.Price, &e.Info, &at); err != nil {
			return nil, errors.Wrap(err, "failed to scan row")
		}
		e.At = time.Unix(0, at).UTC()
		entries = append(entries, e)
	}

	return entries, rows.Err()
}
