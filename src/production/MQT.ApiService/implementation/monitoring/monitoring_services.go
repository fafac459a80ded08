package monitoring

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	metrics "github.com/haxx668/backendmonitoring/src/production/MQT.ApiService/metrics"
	logger "github.com/haxx668/backendmonitoring/src/production/MQT.Logger"
	api_models "github.com/haxx668/backendmonitoring/src/production/MQT.Models/api"
	hardware_models "github.com/haxx668/backendmonitoring/src/production/MQT.Models/hardware"
	interfaces "github.com/haxx668/backendmonitoring/src/production/MQT.Repository/Interfaces"
)

var (
	ErrValidation     = errors.New("validation failed")
	ErrNoReadings     = errors.New("no data found for this alat")
	ErrNothingDeleted = errors.New("no rows affected")
	ErrNoHistory      = errors.New("no history found for this alat")
)

// NotPoweredOnMessage is returned instead of a reading when the buffer is empty
const NotPoweredOnMessage = "Alat belum dihidupkan"

// MonitoringService serves the live buffer and its consolidation into history.
// cache, archive and metrics are optional.
type MonitoringService struct {
	monitoringRepo interfaces.MonitoringRepository
	historyRepo    interfaces.HistoryRepository
	cache          interfaces.LatestReadingCache
	archive        interfaces.RawReadingArchive
	metrics        *metrics.Metrics
	logger         *logger.Logger
}

// Option configures optional collaborators
type Option func(*MonitoringService)

func WithCache(c interfaces.LatestReadingCache) Option {
	return func(s *MonitoringService) { s.cache = c }
}

func WithArchive(a interfaces.RawReadingArchive) Option {
	return func(s *MonitoringService) { s.archive = a }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *MonitoringService) { s.metrics = m }
}

func NewMonitoringService(
	monitoringRepo interfaces.MonitoringRepository,
	historyRepo interfaces.HistoryRepository,
	log *logger.Logger,
	opts ...Option,
) *MonitoringService {
	if log == nil {
		log = logger.Nop()
	}
	s := &MonitoringService{
		monitoringRepo: monitoringRepo,
		historyRepo:    historyRepo,
		logger:         log.WithComponent("monitoring"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetLatest returns the newest buffered reading. found is false when the
// alat has not sent anything since the last consolidation.
func (s *MonitoringService) GetLatest(ctx context.Context, idalat string) (reading *hardware_models.MonitoringReading, found bool, err error) {
	generation, cacheUsable := int64(0), false
	if s.cache != nil {
		cached, hit, err := s.cache.Get(ctx, idalat)
		if err != nil {
			s.logger.WithError(err).WithField("idalat", idalat).Warn("latest cache read failed")
		} else if hit {
			return cached, true, nil
		}

		// read before the buffer so a later invalidation blocks the write-back
		if generation, err = s.cache.Generation(ctx, idalat); err != nil {
			s.logger.WithError(err).WithField("idalat", idalat).Warn("latest cache generation read failed")
		} else {
			cacheUsable = true
		}
	}

	reading, err = s.monitoringRepo.Latest(ctx, idalat)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to fetch latest reading: %w", err)
	}

	if cacheUsable {
		if _, err := s.cache.Set(ctx, reading, generation); err != nil {
			s.logger.WithError(err).WithField("idalat", idalat).Warn("latest cache write failed")
		}
	}

	return reading, true, nil
}

// SaveHistory consolidates the buffered readings of an alat into one history
// record stamped with the earliest reading, then empties the buffer
func (s *MonitoringService) SaveHistory(ctx context.Context, req api_models.SaveHistoryRequest) (*hardware_models.HistoryRecord, error) {
	idalat := strings.TrimSpace(req.IDAlat)
	if idalat == "" {
		return nil, fmt.Errorf("%w: idalat is required", ErrValidation)
	}
	if req.Duration < 0 {
		return nil, fmt.Errorf("%w: duration must not be negative", ErrValidation)
	}

	record, err := s.historyRepo.Archive(ctx, idalat, req.Duration)
	switch {
	case err == nil:
	case errors.Is(err, interfaces.ErrNotFound):
		s.metrics.HistorySaved("no_readings")
		return nil, ErrNoReadings
	case errors.Is(err, interfaces.ErrNoRowsAffected):
		s.metrics.HistorySaved("nothing_deleted")
		return nil, ErrNothingDeleted
	default:
		s.metrics.HistorySaved("error")
		return nil, fmt.Errorf("failed to save history: %w", err)
	}

	s.metrics.HistorySaved("ok")
	s.invalidate(ctx, idalat)

	s.logger.Logger.Info().
		Str("idalat", idalat).
		Time("created_at", record.CreatedAt).
		Int("duration", record.Duration).
		Msg("history saved")

	return record, nil
}

// ListHistory returns the formatted history of an alat, oldest first
func (s *MonitoringService) ListHistory(ctx context.Context, idalat string) ([]hardware_models.HistoryEntry, error) {
	records, err := s.historyRepo.ListByAlat(ctx, idalat)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch history: %w", err)
	}
	if len(records) == 0 {
		return nil, ErrNoHistory
	}

	entries := make([]hardware_models.HistoryEntry, 0, len(records))
	for _, r := range records {
		entries = append(entries, r.Entry())
	}
	return entries, nil
}

// ReadingInput is one reading to append to the buffer. A zero UpdatedAt
// means now. ReadingID is optional; when set, a repeated delivery of the
// same reading is stored once.
type ReadingInput struct {
	ReadingID string
	IDAlat    string
	Topic     string
	Payload   map[string]interface{}
	UpdatedAt time.Time
}

// RecordReading appends one reading to the buffer. The raw payload is
// mirrored to the archive when one is configured; a failing archive does
// not fail the write. duplicate is true when ReadingID was already stored,
// in which case nothing changes.
func (s *MonitoringService) RecordReading(ctx context.Context, in ReadingInput) (reading *hardware_models.MonitoringReading, duplicate bool, err error) {
	idalat := strings.TrimSpace(in.IDAlat)
	if idalat == "" {
		return nil, false, fmt.Errorf("%w: idalat is required", ErrValidation)
	}
	if in.Payload == nil {
		return nil, false, fmt.Errorf("%w: payload is required", ErrValidation)
	}
	updatedAt := in.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}

	reading = &hardware_models.MonitoringReading{
		ReadingID: strings.TrimSpace(in.ReadingID),
		IDAlat:    idalat,
		Payload:   in.Payload,
		UpdatedAt: updatedAt,
	}
	if err := s.monitoringRepo.Insert(ctx, reading); err != nil {
		if errors.Is(err, interfaces.ErrDuplicate) {
			s.logger.Logger.Debug().Str("idalat", idalat).Str("reading_id", reading.ReadingID).Msg("duplicate reading ignored")
			return reading, true, nil
		}
		return nil, false, fmt.Errorf("failed to store reading: %w", err)
	}
	s.metrics.ReadingStored()
	s.invalidate(ctx, idalat)

	if s.archive != nil {
		raw := hardware_models.RawReading{
			IDAlat:     idalat,
			Topic:      in.Topic,
			Payload:    in.Payload,
			ReceivedAt: reading.UpdatedAt,
		}
		if err := s.archive.InsertOne(ctx, raw); err != nil {
			s.logger.WithError(err).WithField("idalat", idalat).Warn("raw archive write failed")
		}
	}

	return reading, false, nil
}

func (s *MonitoringService) invalidate(ctx context.Context, idalat string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, idalat); err != nil {
		s.logger.WithError(err).WithField("idalat", idalat).Warn("latest cache invalidation failed")
	}
}
