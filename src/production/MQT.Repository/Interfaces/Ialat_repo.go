package interfaces

import (
	"context"

	hardware_models "github.com/haxx668/backendmonitoring/src/production/MQT.Models/hardware"
)

type AlatRepository interface {
	// Create inserts an alat; ErrDuplicate when idalat is taken
	Create(ctx context.Context, alat hardware_models.Alat) error

	Exists(ctx context.Context, idalat string) (bool, error)
	ListByOwner(ctx context.Context, username string) ([]hardware_models.AlatSummary, error)
}
