package interfaces

import (
	"context"

	hardware_models "github.com/haxx668/backendmonitoring/src/production/MQT.Models/hardware"
)

type MonitoringRepository interface {
	// Insert stores a reading. A reading whose ReadingID is already stored
	// returns ErrDuplicate and leaves the buffer unchanged.
	Insert(ctx context.Context, reading *hardware_models.MonitoringReading) error

	// Latest returns the newest reading by updated_at, ErrNotFound when the buffer is empty
	Latest(ctx context.Context, idalat string) (*hardware_models.MonitoringReading, error)
}

// LatestReadingCache caches the newest reading per alat.
// Every Invalidate bumps the alat's generation; Set only writes when the
// generation is still the one read before the reading was loaded.
type LatestReadingCache interface {
	Get(ctx context.Context, idalat string) (*hardware_models.MonitoringReading, bool, error)
	Generation(ctx context.Context, idalat string) (int64, error)
	Set(ctx context.Context, reading *hardware_models.MonitoringReading, generation int64) (bool, error)
	Invalidate(ctx context.Context, idalat string) error
	Ping(ctx context.Context) error
}
