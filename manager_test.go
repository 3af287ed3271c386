package gtfsstats_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tidbyt.dev/gtfsstats"
	"tidbyt.dev/gtfsstats/downloader"
	"tidbyt.dev/gtfsstats/parse"
	"tidbyt.dev/gtfsstats/testutil"
)

type MockServer struct {
	Files    map[string][]byte
	Requests []string
	Server   *httptest.Server
}

func (m *MockServer) handler(w http.ResponseWriter, r *http.Request) {
	m.Requests = append(m.Requests, r.URL.Path)
	if file, found := m.Files[r.URL.Path]; found {
		w.Write(file)
	} else {
		w.WriteHeader(http.StatusNotFound)
	}
}

func serverFixture(t *testing.T, files map[string][]string) *MockServer {
	m := &MockServer{
		Files:    map[string][]byte{},
		Requests: []string{},
	}

	names := map[string]string{
		parse.FileStopTimes: "stop_times.csv",
		parse.FileTrips:     "trips.csv",
		parse.FileStops:     "stops.csv",
		parse.FileShapes:    "shapes.csv",
	}
	for name, content := range files {
		m.Files["/gtfs/"+names[name]] = []byte(strings.Join(content, "\n"))
	}

	m.Server = httptest.NewServer(http.HandlerFunc(m.handler))
	t.Cleanup(m.Server.Close)

	return m
}

func TestManagerLoadDirectory(t *testing.T) {
	for _, backend := range testutil.Backends {
		t.Run(backend, func(t *testing.T) {
			dir := testutil.BuildDir(t, fixtureFiles())

			m := gtfsstats.NewManager()
			m.Backend = backend

			s, err := m.LoadSnapshot(context.Background(), downloader.NewDirectory(dir))
			require.NoError(t, err)

			assert.Len(t, s.Segments, 9)
			assert.Len(t, s.Trips, 3)
			assert.Len(t, s.Stops, 3)
			assert.Len(t, s.Shapes["sh1"], 5)
			assert.Empty(t, s.Report.RejectedFiles)
			assert.Empty(t, s.Report.RejectedRows)
			assert.Equal(t, 9, s.Report.Accepted[parse.FileStopTimes])

			abs, err := filepath.Abs(dir)
			require.NoError(t, err)
			assert.Equal(t, abs, s.Location)

			// Same segments as a directly parsed snapshot
			assert.Equal(t, loadFixture(t, backend).Segments, s.Segments)
		})
	}
}

func TestManagerCachesSnapshots(t *testing.T) {
	dir := testutil.BuildDir(t, fixtureFiles())
	src := downloader.NewDirectory(dir)

	m := gtfsstats.NewManager()
	s1, err := m.LoadSnapshot(context.Background(), src)
	require.NoError(t, err)

	// Files changing on disk go unnoticed
	require.NoError(t, os.Remove(filepath.Join(dir, "stop_times.csv")))

	s2, err := m.LoadSnapshot(context.Background(), src)
	require.NoError(t, err)
	assert.Same(t, s1, s2)

	// A different unit policy is a different snapshot
	m.DistanceUnit = "meters"
	s3, err := m.LoadSnapshot(context.Background(), src)
	require.NoError(t, err)
	assert.NotSame(t, s1, s3)
	assert.Empty(t, s3.Segments)
	assert.True(t, s3.Report.FileRejected(parse.FileStopTimes))
}

func TestManagerMissingFiles(t *testing.T) {
	files := fixtureFiles()
	delete(files, parse.FileShapes)
	files[parse.FileStops] = []string{"stop_id;stop_name"}

	m := gtfsstats.NewManager()
	s, err := m.LoadSnapshot(context.Background(), downloader.NewDirectory(testutil.BuildDir(t, files)))
	require.NoError(t, err)

	// Segments are still derived
	assert.Len(t, s.Segments, 9)
	assert.Empty(t, s.Shapes)
	assert.Empty(t, s.Stops)

	reasons := map[string]parse.Reason{}
	for _, f := range s.Report.RejectedFiles {
		reasons[f.File] = f.Reason
	}
	assert.Equal(t, map[string]parse.Reason{
		parse.FileShapes: parse.ReasonMissingFile,
		parse.FileStops:  parse.ReasonMissingColumns,
	}, reasons)
}

func TestManagerLoadHTTP(t *testing.T) {
	server := serverFixture(t, fixtureFiles())

	m := gtfsstats.NewManager()
	src := downloader.NewHTTP(server.Server.URL+"/gtfs", nil)

	s, err := m.LoadSnapshot(context.Background(), src)
	require.NoError(t, err)
	assert.Len(t, s.Segments, 9)
	assert.Equal(t, server.Server.URL+"/gtfs", s.Location)
	assert.Len(t, server.Requests, 4)

	// Cached: no more requests
	_, err = m.LoadSnapshot(context.Background(), src)
	require.NoError(t, err)
	assert.Len(t, server.Requests, 4)
}

func TestManagerLoadHTTPNotFound(t *testing.T) {
	files := fixtureFiles()
	delete(files, parse.FileTrips)
	server := serverFixture(t, files)

	m := gtfsstats.NewManager()
	s, err := m.LoadSnapshot(context.Background(), downloader.NewHTTP(server.Server.URL+"/gtfs", nil))
	require.NoError(t, err)

	assert.True(t, s.Report.FileRejected(parse.FileTrips))
	assert.Empty(t, s.Trips)

	// Segments lack route metadata
	require.Len(t, s.Segments, 9)
	assert.Equal(t, "", s.Segments[0].RouteID)
}

func TestManagerLoadErrors(t *testing.T) {
	m := gtfsstats.NewManager()
	m.Backend = "postgres"
	_, err := m.LoadSnapshot(context.Background(), downloader.NewDirectory(testutil.BuildDir(t, fixtureFiles())))
	assert.Error(t, err)

	m = gtfsstats.NewManager()
	m.DistanceUnit = "miles"
	_, err = m.LoadSnapshot(context.Background(), downloader.NewDirectory(testutil.BuildDir(t, fixtureFiles())))
	assert.Error(t, err)

	// Server errors other than 404 fail the load
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	m = gtfsstats.NewManager()
	_, err = m.LoadSnapshot(context.Background(), downloader.NewHTTP(server.URL, nil))
	assert.Error(t, err)
}

func TestManagerLoadTraffic(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, "2023.csv"),
		[]byte("Fecha;Hora;Estacion;Ligeros;Pesados\n02/01/2023;7;E01;10;2\n"),
		0644,
	))

	m := gtfsstats.NewManager()
	ds1, err := m.LoadTraffic(context.Background(), dir)
	require.NoError(t, err)
	require.Len(t, ds1.Counts, 1)
	assert.Equal(t, 12, ds1.Counts[0].Total)

	ds2, err := m.LoadTraffic(context.Background(), dir)
	require.NoError(t, err)
	assert.Same(t, ds1, ds2)

	_, err = m.LoadTraffic(context.Background(), filepath.Join(dir, "nope"))
	assert.Error(t, err)
}
