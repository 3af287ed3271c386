package testutil

// Helpers and configuration for tests.

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"tidbyt.dev/gtfsstats"
	"tidbyt.dev/gtfsstats/parse"
	"tidbyt.dev/gtfsstats/storage"
)

// Backends every storage-dependent test runs against.
var Backends = []string{gtfsstats.BackendMemory, gtfsstats.BackendSQLite}

// Header-only content for files a test leaves out.
var emptyFiles = map[string][]string{
	parse.FileStopTimes: {"trip_id;arrival_time;departure_time;stop_id;stop_sequence;shape_dist_traveled"},
	parse.FileTrips:     {"route_id;service_id;trip_id;direction_id;shape_id"},
	parse.FileStops:     {"stop_id;stop_name;stop_lat;stop_lon"},
	parse.FileShapes:    {"shape_id;shape_pt_lat;shape_pt_lon;shape_pt_sequence"},
}

func BuildStorage(t testing.TB, backend string) storage.Storage {
	var s storage.Storage
	var err error
	if backend == gtfsstats.BackendSQLite {
		s, err = storage.NewSQLiteStorage()
		require.NoError(t, err)
	} else if backend == gtfsstats.BackendMemory {
		s = storage.NewMemoryStorage()
	}
	require.NotEqual(t, nil, s, "unknown backend %q", backend)

	return s
}

// Parses files, keyed by logical name (parse.FileStopTimes etc.),
// into a Snapshot. Files left out are replaced by their header.
func LoadSnapshot(
	t testing.TB,
	backend string,
	files map[string][]string,
) *gtfsstats.Snapshot {

	s := BuildStorage(t, backend)

	writer, err := s.GetWriter("test")
	require.NoError(t, err)

	raw := map[string][]byte{}
	for name, header := range emptyFiles {
		content := files[name]
		if content == nil {
			content = header
		}
		raw[name] = []byte(strings.Join(content, "\n"))
	}

	report, err := parse.ParseStatic(writer, raw, parse.Options{})
	require.NoError(t, err)

	reader, err := s.GetReader("test")
	require.NoError(t, err)

	snapshot, err := gtfsstats.NewSnapshot(reader, report)
	require.NoError(t, err)

	return snapshot
}

// Writes files, keyed by logical name, to a temporary directory under
// their default file names. Returns the directory.
func BuildDir(t testing.TB, files map[string][]string) string {
	dir := t.TempDir()
	names := map[string]string{
		parse.FileStopTimes: gtfsstats.DefaultFiles().StopTimes,
		parse.FileTrips:     gtfsstats.DefaultFiles().Trips,
		parse.FileStops:     gtfsstats.DefaultFiles().Stops,
		parse.FileShapes:    gtfsstats.DefaultFiles().Shapes,
	}

	for name, content := range files {
		filename, found := names[name]
		if !found {
			filename = name
		}
		err := os.WriteFile(filepath.Join(dir, filename), []byte(strings.Join(content, "\n")), 0644)
		require.NoError(t, err)
	}

	return dir
}
