package interfaces

import (
	"context"

	hardware_models "github.com/haxx668/backendmonitoring/src/production/MQT.Models/hardware"
)

// RawReadingArchive keeps every ingested payload, including the ones
// that are later consolidated out of the monitoring buffer
type RawReadingArchive interface {
	InsertOne(ctx context.Context, r hardware_models.RawReading) error
	Ping(ctx context.Context) error
}
