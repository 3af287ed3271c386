package gtfsstats

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bluele/gcache"
	"github.com/rs/zerolog/log"

	"tidbyt.dev/gtfsstats/downloader"
	"tidbyt.dev/gtfsstats/metrics"
	"tidbyt.dev/gtfsstats/parse"
	"tidbyt.dev/gtfsstats/storage"
	"tidbyt.dev/gtfsstats/traffic"
)

const (
	DefaultCacheSize = 16

	BackendMemory = "memory"
	BackendSQLite = "sqlite"
)

// Names of the files making up a snapshot.
type Files struct {
	StopTimes string `yaml:"stop_times" validate:"required"`
	Trips     string `yaml:"trips" validate:"required"`
	Stops     string `yaml:"stops" validate:"required"`
	Shapes    string `yaml:"shapes" validate:"required"`
}

func DefaultFiles() Files {
	return Files{
		StopTimes: "stop_times.csv",
		Trips:     "trips.csv",
		Stops:     "stops.csv",
		Shapes:    "shapes.csv",
	}
}

func (f Files) byName() map[string]string {
	return map[string]string{
		parse.FileStopTimes: f.StopTimes,
		parse.FileTrips:     f.Trips,
		parse.FileStops:     f.Stops,
		parse.FileShapes:    f.Shapes,
	}
}

// Manager loads snapshots and traffic datasets, and caches them.
//
// Sources are assumed not to change while the process runs: cached
// entries are never invalidated. Everything returned is shared
// between callers and must be treated as read-only.
type Manager struct {
	Files Files

	// Distance unit of shape_dist_traveled: auto, meters or
	// kilometers.
	DistanceUnit string

	// Field delimiter of the snapshot files.
	Delimiter rune

	// Where raw rows are staged: BackendMemory or BackendSQLite.
	Backend string

	Metrics *metrics.Collector

	cache gcache.Cache
}

func NewManager() *Manager {
	return &Manager{
		Files:        DefaultFiles(),
		DistanceUnit: "auto",
		Delimiter:    parse.DefaultDelimiter,
		Backend:      BackendMemory,
		Metrics:      metrics.NewCollector(),
		cache:        gcache.New(DefaultCacheSize).LRU().Build(),
	}
}

func (m *Manager) snapshotKey(src downloader.Source) string {
	return fmt.Sprintf(
		"snapshot|%s|%s|%s|%s|%s|%s|%c|%s",
		src.Location(),
		m.Files.StopTimes,
		m.Files.Trips,
		m.Files.Stops,
		m.Files.Shapes,
		m.DistanceUnit,
		m.Delimiter,
		m.Backend,
	)
}

func (m *Manager) newStorage() (storage.Storage, error) {
	switch m.Backend {
	case "", BackendMemory:
		return storage.NewMemoryStorage(), nil
	case BackendSQLite:
		return storage.NewSQLiteStorage()
	}
	return nil, fmt.Errorf("unknown storage backend '%s'", m.Backend)
}

// Loads the snapshot at src, or returns the cached copy.
//
// Missing or malformed files don't fail the load; they are listed in
// the snapshot's Report. Errors are returned when src can't be read
// or the snapshot can't be staged.
func (m *Manager) LoadSnapshot(ctx context.Context, src downloader.Source) (*Snapshot, error) {
	key := m.snapshotKey(src)

	if cached, err := m.cache.Get(key); err == nil {
		m.Metrics.CacheHits.WithLabelValues("snapshot").Inc()
		return cached.(*Snapshot), nil
	}
	m.Metrics.CacheMisses.WithLabelValues("snapshot").Inc()

	snapshot, err := m.loadSnapshot(ctx, src)
	m.Metrics.Loads.WithLabelValues("snapshot").Inc()
	if err != nil {
		m.Metrics.LoadErrors.WithLabelValues("snapshot").Inc()
		return nil, err
	}

	err = m.cache.Set(key, snapshot)
	if err != nil {
		return nil, fmt.Errorf("caching snapshot: %w", err)
	}

	return snapshot, nil
}

func (m *Manager) loadSnapshot(ctx context.Context, src downloader.Source) (*Snapshot, error) {
	start := time.Now()

	distance, err := parse.DistancePolicyFor(m.DistanceUnit)
	if err != nil {
		return nil, err
	}

	files := map[string][]byte{}
	for name, file := range m.Files.byName() {
		data, err := src.Get(ctx, file)
		if errors.Is(err, downloader.ErrNotFound) {
			files[name] = nil
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("getting %s: %w", file, err)
		}
		files[name] = data
	}

	s, err := m.newStorage()
	if err != nil {
		return nil, err
	}

	writer, err := s.GetWriter("snapshot")
	if err != nil {
		return nil, fmt.Errorf("getting writer: %w", err)
	}

	report, err := parse.ParseStatic(writer, files, parse.Options{
		Delimiter: m.Delimiter,
		Distance:  distance,
	})
	if err != nil {
		return nil, fmt.Errorf("parsing: %w", err)
	}

	reader, err := s.GetReader("snapshot")
	if err != nil {
		return nil, fmt.Errorf("getting reader: %w", err)
	}

	snapshot, err := NewSnapshot(reader, report)
	if err != nil {
		return nil, fmt.Errorf("creating snapshot: %w", err)
	}
	snapshot.Location = src.Location()

	m.Metrics.ObserveReport(report)
	m.Metrics.Segments.Set(float64(len(snapshot.Segments)))
	m.Metrics.LoadDuration.Observe(time.Since(start).Seconds())

	log.Info().
		Str("location", snapshot.Location).
		Str("backend", m.Backend).
		Int("segments", len(snapshot.Segments)).
		Dur("elapsed", time.Since(start)).
		Msg("Loaded snapshot")

	return snapshot, nil
}

// Loads the traffic counts in dir, or returns the cached copy.
func (m *Manager) LoadTraffic(ctx context.Context, dir string) (*traffic.Dataset, error) {
	key := "traffic|" + downloader.NewDirectory(dir).Location()

	if cached, err := m.cache.Get(key); err == nil {
		m.Metrics.CacheHits.WithLabelValues("traffic").Inc()
		return cached.(*traffic.Dataset), nil
	}
	m.Metrics.CacheMisses.WithLabelValues("traffic").Inc()

	start := time.Now()
	dataset, err := traffic.LoadDirectory(ctx, dir)
	m.Metrics.Loads.WithLabelValues("traffic").Inc()
	if err != nil {
		m.Metrics.LoadErrors.WithLabelValues("traffic").Inc()
		return nil, fmt.Errorf("loading traffic: %w", err)
	}
	m.Metrics.ObserveReport(dataset.Report)
	m.Metrics.LoadDuration.Observe(time.Since(start).Seconds())

	err = m.cache.Set(key, dataset)
	if err != nil {
		return nil, fmt.Errorf("caching traffic: %w", err)
	}

	return dataset, nil
}
