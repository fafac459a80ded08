package interfaces

import (
	"context"

	hardware_models "github.com/haxx668/backendmonitoring/src/production/MQT.Models/hardware"
)

type HistoryRepository interface {
	// Archive moves the buffered readings of idalat into one history record:
	// the earliest updated_at becomes created_at, then the buffer is cleared.
	// All steps share one transaction. ErrNotFound when the buffer is empty,
	// ErrNoRowsAffected when the clear removed nothing.
	Archive(ctx context.Context, idalat string, duration int) (*hardware_models.HistoryRecord, error)

	// ListByAlat returns records ordered by created_at ascending
	ListByAlat(ctx context.Context, idalat string) ([]hardware_models.HistoryRecord, error)
}
