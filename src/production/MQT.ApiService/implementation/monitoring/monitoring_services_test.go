package monitoring

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	metrics "github.com/haxx668/backendmonitoring/src/production/MQT.ApiService/metrics"
	api_models "github.com/haxx668/backendmonitoring/src/production/MQT.Models/api"
	hardware_models "github.com/haxx668/backendmonitoring/src/production/MQT.Models/hardware"
	interfaces "github.com/haxx668/backendmonitoring/src/production/MQT.Repository/Interfaces"
)

// memStore backs both the monitoring and the history repository
type memStore struct {
	mu       sync.Mutex
	nextID   int64
	readings []hardware_models.MonitoringReading
	history  []hardware_models.HistoryRecord

	failLatest error
}

func (m *memStore) Insert(_ context.Context, r *hardware_models.MonitoringReading) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r.ReadingID != "" {
		for _, existing := range m.readings {
			if existing.ReadingID == r.ReadingID {
				return interfaces.ErrDuplicate
			}
		}
	}
	m.nextID++
	r.ID = m.nextID
	r.UpdatedAt = r.UpdatedAt.UTC()
	m.readings = append(m.readings, *r)
	return nil
}

func (m *memStore) Latest(_ context.Context, idalat string) (*hardware_models.MonitoringReading, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failLatest != nil {
		return nil, m.failLatest
	}
	var latest *hardware_models.MonitoringReading
	for i := range m.readings {
		r := m.readings[i]
		if r.IDAlat != idalat {
			continue
		}
		if latest == nil || !r.UpdatedAt.Before(latest.UpdatedAt) {
			latest = &r
		}
	}
	if latest == nil {
		return nil, interfaces.ErrNotFound
	}
	return latest, nil
}

func (m *memStore) Archive(_ context.Context, idalat string, duration int) (*hardware_models.HistoryRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var earliest time.Time
	kept := m.readings[:0]
	found := false
	for _, r := range m.readings {
		if r.IDAlat != idalat {
			kept = append(kept, r)
			continue
		}
		if !found || r.UpdatedAt.Before(earliest) {
			earliest = r.UpdatedAt
		}
		found = true
	}
	if !found {
		return nil, interfaces.ErrNotFound
	}
	m.readings = kept
	m.nextID++
	rec := hardware_models.HistoryRecord{ID: m.nextID, IDAlat: idalat, CreatedAt: earliest, Duration: duration}
	m.history = append(m.history, rec)
	return &rec, nil
}

func (m *memStore) ListByAlat(_ context.Context, idalat string) ([]hardware_models.HistoryRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]hardware_models.HistoryRecord, 0)
	for _, h := range m.history {
		if h.IDAlat == idalat {
			out = append(out, h)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

type memCache struct {
	entries       map[string]hardware_models.MonitoringReading
	generations   map[string]int64
	gets, sets    int
	invalidations []string
}

func newMemCache() *memCache {
	return &memCache{
		entries:     make(map[string]hardware_models.MonitoringReading),
		generations: make(map[string]int64),
	}
}

func (c *memCache) Get(_ context.Context, idalat string) (*hardware_models.MonitoringReading, bool, error) {
	c.gets++
	r, ok := c.entries[idalat]
	if !ok {
		return nil, false, nil
	}
	return &r, true, nil
}

func (c *memCache) Generation(_ context.Context, idalat string) (int64, error) {
	return c.generations[idalat], nil
}

func (c *memCache) Set(_ context.Context, r *hardware_models.MonitoringReading, generation int64) (bool, error) {
	if c.generations[r.IDAlat] != generation {
		return false, nil
	}
	c.sets++
	c.entries[r.IDAlat] = *r
	return true, nil
}

func (c *memCache) Invalidate(_ context.Context, idalat string) error {
	c.invalidations = append(c.invalidations, idalat)
	c.generations[idalat]++
	delete(c.entries, idalat)
	return nil
}

func (c *memCache) Ping(context.Context) error { return nil }

type memArchive struct {
	docs []hardware_models.RawReading
	err  error
}

func (a *memArchive) InsertOne(_ context.Context, r hardware_models.RawReading) error {
	if a.err != nil {
		return a.err
	}
	a.docs = append(a.docs, r)
	return nil
}

func (a *memArchive) Ping(context.Context) error { return nil }

// racingStore runs onLatest after loading a reading and before returning it,
// standing in for a request that commits in between
type racingStore struct {
	*memStore
	onLatest func()
}

func (r *racingStore) Latest(ctx context.Context, idalat string) (*hardware_models.MonitoringReading, error) {
	reading, err := r.memStore.Latest(ctx, idalat)
	if r.onLatest != nil {
		hook := r.onLatest
		r.onLatest = nil
		hook()
	}
	return reading, err
}

type stubHistory struct {
	memStore
	archiveErr error
}

func (s *stubHistory) Archive(context.Context, string, int) (*hardware_models.HistoryRecord, error) {
	return nil, s.archiveErr
}

var t0 = time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)

func seed(t *testing.T, svc *MonitoringService, idalat string, offsets ...time.Duration) {
	t.Helper()
	for i, off := range offsets {
		_, _, err := svc.RecordReading(context.Background(), ReadingInput{
			IDAlat:    idalat,
			Payload:   map[string]interface{}{"bpm": 90 + i},
			UpdatedAt: t0.Add(off),
		})
		require.NoError(t, err)
	}
}

func TestGetLatestSoftMiss(t *testing.T) {
	store := &memStore{}
	svc := NewMonitoringService(store, store, nil)

	reading, found, err := svc.GetLatest(context.Background(), "A1")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, reading)
}

func TestGetLatestReturnsNewest(t *testing.T) {
	store := &memStore{}
	svc := NewMonitoringService(store, store, nil)
	seed(t, svc, "A1", 0, 2*time.Second, time.Second)
	seed(t, svc, "B2", 10*time.Second)

	reading, found, err := svc.GetLatest(context.Background(), "A1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, t0.Add(2*time.Second), reading.UpdatedAt)
	assert.Equal(t, 91, reading.Payload["bpm"])
}

func TestGetLatestStorageError(t *testing.T) {
	store := &memStore{failLatest: errors.New("db down")}
	svc := NewMonitoringService(store, store, nil)

	_, _, err := svc.GetLatest(context.Background(), "A1")
	assert.ErrorContains(t, err, "db down")
}

func TestGetLatestUsesCache(t *testing.T) {
	store := &memStore{}
	cache := newMemCache()
	svc := NewMonitoringService(store, store, nil, WithCache(cache))
	seed(t, svc, "A1", 0)

	_, found, err := svc.GetLatest(context.Background(), "A1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 1, cache.sets)

	// served from the cache even if the store now fails
	store.failLatest = errors.New("db down")
	_, found, err = svc.GetLatest(context.Background(), "A1")
	require.NoError(t, err)
	assert.True(t, found)
}

func TestSaveHistoryConsolidatesBuffer(t *testing.T) {
	store := &memStore{}
	cache := newMemCache()
	m := metrics.New()
	svc := NewMonitoringService(store, store, nil, WithCache(cache), WithMetrics(m))
	seed(t, svc, "A1", 5*time.Second, 0, 10*time.Second)
	seed(t, svc, "B2", time.Second)

	record, err := svc.SaveHistory(context.Background(), api_models.SaveHistoryRequest{IDAlat: "A1", Duration: 12})
	require.NoError(t, err)
	assert.Equal(t, t0, record.CreatedAt)
	assert.Equal(t, 12, record.Duration)
	assert.Contains(t, cache.invalidations, "A1")

	_, found, err := svc.GetLatest(context.Background(), "A1")
	require.NoError(t, err)
	assert.False(t, found)

	_, found, err = svc.GetLatest(context.Background(), "B2")
	require.NoError(t, err)
	assert.True(t, found)

	expected := `
		# HELP monitoring_history_saved_total History consolidations by result
		# TYPE monitoring_history_saved_total counter
		monitoring_history_saved_total{result="ok"} 1
	`
	assert.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), "monitoring_history_saved_total"))
}

func TestGetLatestDoesNotCacheReadingDeletedMidRequest(t *testing.T) {
	mem := &memStore{}
	store := &racingStore{memStore: mem}
	cache := newMemCache()
	svc := NewMonitoringService(store, mem, nil, WithCache(cache))
	seed(t, svc, "A1", 0)

	store.onLatest = func() {
		_, err := svc.SaveHistory(context.Background(), api_models.SaveHistoryRequest{IDAlat: "A1", Duration: 5})
		require.NoError(t, err)
	}

	// this request loaded the reading before the history save removed it
	_, found, err := svc.GetLatest(context.Background(), "A1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Zero(t, cache.sets)

	reading, found, err := svc.GetLatest(context.Background(), "A1")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, reading)
}

func TestGetLatestCachesAfterRecordReading(t *testing.T) {
	store := &memStore{}
	cache := newMemCache()
	svc := NewMonitoringService(store, store, nil, WithCache(cache))
	seed(t, svc, "A1", 0)

	_, _, err := svc.GetLatest(context.Background(), "A1")
	require.NoError(t, err)
	seed(t, svc, "A1", time.Minute)

	// the newer reading dropped the entry and is cached on the next read
	reading, found, err := svc.GetLatest(context.Background(), "A1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, t0.Add(time.Minute), reading.UpdatedAt)
	assert.Equal(t, 2, cache.sets)
	assert.Equal(t, t0.Add(time.Minute), cache.entries["A1"].UpdatedAt)
}

func TestSaveHistoryErrors(t *testing.T) {
	store := &memStore{}
	svc := NewMonitoringService(store, store, nil)

	_, err := svc.SaveHistory(context.Background(), api_models.SaveHistoryRequest{Duration: 3})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.SaveHistory(context.Background(), api_models.SaveHistoryRequest{IDAlat: "A1", Duration: -1})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.SaveHistory(context.Background(), api_models.SaveHistoryRequest{IDAlat: "A1", Duration: 3})
	assert.ErrorIs(t, err, ErrNoReadings)

	stub := &stubHistory{archiveErr: interfaces.ErrNoRowsAffected}
	svc = NewMonitoringService(stub, stub, nil)
	_, err = svc.SaveHistory(context.Background(), api_models.SaveHistoryRequest{IDAlat: "A1", Duration: 3})
	assert.ErrorIs(t, err, ErrNothingDeleted)

	stub.archiveErr = errors.New("deadlock detected")
	_, err = svc.SaveHistory(context.Background(), api_models.SaveHistoryRequest{IDAlat: "A1", Duration: 3})
	assert.ErrorContains(t, err, "deadlock detected")
	assert.NotErrorIs(t, err, ErrNothingDeleted)
}

func TestSaveHistoryCountsResults(t *testing.T) {
	store := &memStore{}
	m := metrics.New()
	svc := NewMonitoringService(store, store, nil, WithMetrics(m))
	seed(t, svc, "A1", 0)

	_, err := svc.SaveHistory(context.Background(), api_models.SaveHistoryRequest{IDAlat: "A1", Duration: 1})
	require.NoError(t, err)
	_, err = svc.SaveHistory(context.Background(), api_models.SaveHistoryRequest{IDAlat: "A1", Duration: 1})
	require.ErrorIs(t, err, ErrNoReadings)

	series, err := testutil.GatherAndCount(m.Registry(), "monitoring_history_saved_total")
	require.NoError(t, err)
	assert.Equal(t, 2, series)
}

func TestListHistory(t *testing.T) {
	store := &memStore{}
	svc := NewMonitoringService(store, store, nil)

	_, err := svc.ListHistory(context.Background(), "A1")
	assert.ErrorIs(t, err, ErrNoHistory)

	seed(t, svc, "A1", time.Hour)
	_, err = svc.SaveHistory(context.Background(), api_models.SaveHistoryRequest{IDAlat: "A1", Duration: 30})
	require.NoError(t, err)
	seed(t, svc, "A1", 0)
	_, err = svc.SaveHistory(context.Background(), api_models.SaveHistoryRequest{IDAlat: "A1", Duration: 10})
	require.NoError(t, err)

	entries, err := svc.ListHistory(context.Background(), "A1")
	require.NoError(t, err)
	assert.Equal(t, []hardware_models.HistoryEntry{
		{CreatedAt: "2024-05-01 08:00:00", Duration: 10},
		{CreatedAt: "2024-05-01 09:00:00", Duration: 30},
	}, entries)
}

func TestRecordReadingArchivesRaw(t *testing.T) {
	store := &memStore{}
	archive := &memArchive{}
	cache := newMemCache()
	svc := NewMonitoringService(store, store, nil, WithArchive(archive), WithCache(cache))

	reading, duplicate, err := svc.RecordReading(context.Background(), ReadingInput{
		IDAlat:  " A1 ",
		Topic:   "monitoring/A1",
		Payload: map[string]interface{}{"spo2": 98},
	})
	require.NoError(t, err)
	assert.False(t, duplicate)
	assert.Equal(t, "A1", reading.IDAlat)
	assert.False(t, reading.UpdatedAt.IsZero())

	require.Len(t, archive.docs, 1)
	assert.Equal(t, "monitoring/A1", archive.docs[0].Topic)
	assert.Equal(t, []string{"A1"}, cache.invalidations)

	// archive failures are logged, not returned
	archive.err = errors.New("mongo down")
	_, _, err = svc.RecordReading(context.Background(), ReadingInput{IDAlat: "A1", Payload: map[string]interface{}{}, UpdatedAt: t0})
	assert.NoError(t, err)

	_, _, err = svc.RecordReading(context.Background(), ReadingInput{IDAlat: "A1", UpdatedAt: t0})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestRecordReadingIgnoresRedelivery(t *testing.T) {
	store := &memStore{}
	archive := &memArchive{}
	m := metrics.New()
	svc := NewMonitoringService(store, store, nil, WithArchive(archive), WithMetrics(m))

	in := ReadingInput{ReadingID: "r-1", IDAlat: "A1", Payload: map[string]interface{}{"bpm": 88}, UpdatedAt: t0}
	_, duplicate, err := svc.RecordReading(context.Background(), in)
	require.NoError(t, err)
	assert.False(t, duplicate)

	_, duplicate, err = svc.RecordReading(context.Background(), in)
	require.NoError(t, err)
	assert.True(t, duplicate)

	assert.Len(t, store.readings, 1)
	assert.Len(t, archive.docs, 1)
	expected := `
		# HELP monitoring_readings_stored_total Readings written to the monitoring buffer
		# TYPE monitoring_readings_stored_total counter
		monitoring_readings_stored_total 1
	`
	assert.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), "monitoring_readings_stored_total"))
}
