package implementation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	hardware_models "github.com/haxx668/backendmonitoring/src/production/MQT.Models/hardware"
	interfaces "github.com/haxx668/backendmonitoring/src/production/MQT.Repository/Interfaces"
)

type SQLHistoryRepository struct {
	db *sql.DB
}

func NewSQLHistoryRepository(db *sql.DB) *SQLHistoryRepository {
	return &SQLHistoryRepository{db: db}
}

// Archive consolidates the monitoring buffer of idalat into one history row.
// A concurrent Archive for the same alat blocks on the deleted rows and then
// sees zero affected rows, so it rolls back instead of recording twice.
func (r *SQLHistoryRepository) Archive(ctx context.Context, idalat string, duration int) (*hardware_models.HistoryRecord, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var createdAt time.Time
	err = tx.QueryRowContext(ctx,
		`SELECT updated_at FROM monitoring WHERE idalat = $1 ORDER BY updated_at ASC LIMIT 1`,
		idalat,
	).Scan(&createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, interfaces.ErrNotFound
		}
		return nil, err
	}

	record := &hardware_models.HistoryRecord{
		IDAlat:    idalat,
		CreatedAt: createdAt.UTC(),
		Duration:  duration,
	}

	err = tx.QueryRowContext(ctx,
		`INSERT INTO history (idalat, created_at, duration) VALUES ($1, $2, $3) RETURNING id`,
		record.IDAlat, record.CreatedAt, record.Duration,
	).Scan(&record.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to insert history: %w", err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM monitoring WHERE idalat = $1`, idalat)
	if err != nil {
		return nil, fmt.Errorf("failed to clear monitoring: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if rowsAffected == 0 {
		return nil, interfaces.ErrNoRowsAffected
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit history: %w", err)
	}

	return record, nil
}

func (r *SQLHistoryRepository) ListByAlat(ctx context.Context, idalat string) ([]hardware_models.HistoryRecord, error) {
	query := `
		SELECT id, idalat, created_at, duration
		FROM history
		WHERE idalat = $1
		ORDER BY created_at ASC, id ASC
	`

	rows, err := r.db.QueryContext(ctx, query, idalat)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]hardware_models.HistoryRecord, 0)
	for rows.Next() {
		var h hardware_models.HistoryRecord
		if err := rows.Scan(&h.ID, &h.IDAlat, &h.CreatedAt, &h.Duration); err != nil {
			return nil, err
		}
		h.CreatedAt = h.CreatedAt.UTC()
		records = append(records, h)
	}

	return records, rows.Err()
}
