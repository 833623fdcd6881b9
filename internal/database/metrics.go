package database

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// SaveMetric stores the current value of a counter
func (s *Store) SaveMetric(ctx context.Context, name string, value float64) error {
	query := `INSERT OR REPLACE INTO metrics (metric_name, metric_value) VALUES (?, ?);`
	if _, err := s.db.ExecContext(ctx, query, name, value); err != nil {
		return errors.Wrapf(err, "failed to save metric %s", name)
	}
	log.Debugf("Metric saved: %s = %f", name, value)
	return nil
}

// GetMetric loads a stored counter, defaulting to 0 when it was never saved
func (s *Store) GetMetric(ctx context.Context, name string) (float64, error) {
	var value float64
	query := `SELECT metric_value FROM metrics WHERE metric_name = ?;`
	err := s.db.QueryRowContext(ctx, query, name).Scan(&value)
	if err == sql.ErrNoRows {
		log.Debugf("Metric %s not found in the database, defaulting to 0", name)
		return 0, nil
	} else if err != nil {
		return 0, errors.Wrapf(err, "failed to get metric %s", name)
	}
	return value, nil
}
