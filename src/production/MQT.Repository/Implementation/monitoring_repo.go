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

type SQLMonitoringRepository struct {
	db *sql.DB
}

func NewSQLMonitoringRepository(db *sql.DB) *SQLMonitoringRepository {
	return &SQLMonitoringRepository{db: db}
}

// Insert stores one reading and fills in its generated id.
// Timestamps are stored in UTC so ordering is consistent across drivers.
// A ReadingID that is already stored yields ErrDuplicate.
func (r *SQLMonitoringRepository) Insert(ctx context.Context, reading *hardware_models.MonitoringReading) error {
	query := `
		INSERT INTO monitoring (reading_id, idalat, payload, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (reading_id) DO NOTHING
		RETURNING id
	`

	payload, err := marshalPayload(reading.Payload)
	if err != nil {
		return err
	}
	if reading.UpdatedAt.IsZero() {
		reading.UpdatedAt = time.Now()
	}
	reading.UpdatedAt = reading.UpdatedAt.UTC()

	readingID := sql.NullString{String: reading.ReadingID, Valid: reading.ReadingID != ""}

	err = r.db.QueryRowContext(ctx, query, readingID, reading.IDAlat, payload, reading.UpdatedAt).Scan(&reading.ID)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: reading %s already stored", interfaces.ErrDuplicate, reading.ReadingID)
	}
	return err
}

func (r *SQLMonitoringRepository) Latest(ctx context.Context, idalat string) (*hardware_models.MonitoringReading, error) {
	query := `
		SELECT id, idalat, payload, updated_at
		FROM monitoring
		WHERE idalat = $1
		ORDER BY updated_at DESC, id DESC
		LIMIT 1
	`

	var reading hardware_models.MonitoringReading
	var payload []byte

	err := r.db.QueryRowContext(ctx, query, idalat).Scan(&reading.ID, &reading.IDAlat, &payload, &reading.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, interfaces.ErrNotFound
		}
		return nil, err
	}

	if reading.Payload, err = unmarshalPayload(payload); err != nil {
		return nil, err
	}
	reading.UpdatedAt = reading.UpdatedAt.UTC()

	return &reading, nil
}
