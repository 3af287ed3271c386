package parse

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tidbyt.dev/gtfsstats/model"
	"tidbyt.dev/gtfsstats/storage"
)

func buildFiles(files map[string][]string) map[string][]byte {
	out := map[string][]byte{}
	for name, content := range files {
		out[name] = []byte(strings.Join(content, "\n"))
	}
	return out
}

// A small snapshot with every file present.
func fixtureSimple() map[string][]string {
	return map[string][]string{
		FileTrips: {
			"trip_id;route_id;service_id;direction_id;shape_id",
			"t;r;1840;0;sh",
		},
		FileStops: {
			"stop_id;stop_name;stop_lat;stop_lon",
			"s1;One;43.31;-1.97",
			"s2;Two;43.32;-1.98",
		},
		FileShapes: {
			"shape_id;shape_pt_sequence;shape_pt_lat;shape_pt_lon",
			"sh;1;43.31;-1.97",
			"sh;2;43.32;-1.98",
		},
		FileStopTimes: {
			"trip_id;arrival_time;departure_time;stop_id;stop_sequence;shape_dist_traveled",
			"t;12:00:00;12:00:00;s1;1;0",
			"t;12:01:00;12:01:30;s2;2;0,5",
		},
	}
}

func TestParseValidSnapshot(t *testing.T) {
	s := storage.NewMemoryStorage()
	writer, err := s.GetWriter("test")
	require.NoError(t, err)

	report, err := ParseStatic(writer, buildFiles(fixtureSimple()), Options{})
	require.NoError(t, err)

	assert.Equal(t, map[string]int{
		FileTrips:     1,
		FileStops:     2,
		FileShapes:    2,
		FileStopTimes: 2,
	}, report.Accepted)
	assert.Equal(t, 0, len(report.RejectedFiles))
	assert.Equal(t, 0, len(report.RejectedRows))
	assert.Equal(t, 12*time.Hour+time.Minute, report.MaxArrival)

	reader, err := s.GetReader("test")
	require.NoError(t, err)

	trips, err := reader.Trips()
	require.NoError(t, err)
	assert.Equal(t, []*model.Trip{{ID: "t", RouteID: "r", ServiceID: "1840", ShapeID: "sh"}}, trips)

	stopTimes, err := reader.StopTimes()
	require.NoError(t, err)
	assert.Equal(t, []*model.StopTime{
		{TripID: "t", StopID: "s1", StopSequence: 1, Arrival: 12 * time.Hour, Departure: 12 * time.Hour},
		{TripID: "t", StopID: "s2", StopSequence: 2, Arrival: 12*time.Hour + time.Minute, Departure: 12*time.Hour + 90*time.Second, ShapeDistTraveled: 500},
	}, stopTimes)
}

func TestParseDistanceOption(t *testing.T) {
	s := storage.NewMemoryStorage()
	writer, err := s.GetWriter("test")
	require.NoError(t, err)

	_, err = ParseStatic(writer, buildFiles(fixtureSimple()), Options{Distance: Meters})
	require.NoError(t, err)

	reader, err := s.GetReader("test")
	require.NoError(t, err)
	stopTimes, err := reader.StopTimes()
	require.NoError(t, err)
	require.Equal(t, 2, len(stopTimes))
	assert.InDelta(t, 0.5, stopTimes[1].ShapeDistTraveled, 1e-9)
}

func TestParseDelimiterOption(t *testing.T) {
	commaFiles := map[string][]byte{}
	for name, lines := range fixtureSimple() {
		commaFiles[name] = []byte(strings.ReplaceAll(strings.ReplaceAll(strings.Join(lines, "\n"), ",", "."), ";", ","))
	}

	// Loads with different delimiters may run side by side.
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		for _, tc := range []struct {
			files     map[string][]byte
			delimiter rune
		}{
			{commaFiles, ','},
			{buildFiles(fixtureSimple()), ';'},
		} {
			wg.Add(1)
			go func(files map[string][]byte, delimiter rune) {
				defer wg.Done()

				s := storage.NewMemoryStorage()
				writer, err := s.GetWriter("test")
				if !assert.NoError(t, err) {
					return
				}

				report, err := ParseStatic(writer, files, Options{Delimiter: delimiter})
				if !assert.NoError(t, err) {
					return
				}
				assert.Equal(t, 2, report.Accepted[FileStopTimes], string(delimiter))
				assert.Empty(t, report.RejectedFiles, string(delimiter))
			}(tc.files, tc.delimiter)
		}
	}
	wg.Wait()
}

func TestParseMissingFile(t *testing.T) {
	for _, file := range []string{FileTrips, FileStops, FileShapes, FileStopTimes} {
		t.Run(file, func(t *testing.T) {
			s := storage.NewMemoryStorage()
			writer, err := s.GetWriter("test")
			require.NoError(t, err)

			files := buildFiles(fixtureSimple())
			delete(files, file)

			report, err := ParseStatic(writer, files, Options{})
			require.NoError(t, err)
			assert.Equal(t, []RejectedFile{{
				File:   file,
				Reason: ReasonMissingFile,
				Detail: "file not found",
			}}, report.RejectedFiles)
			assert.Equal(t, 0, report.Accepted[file])
			assert.True(t, report.FileRejected(file))
		})
	}
}

func TestParseMissingColumns(t *testing.T) {
	s := storage.NewMemoryStorage()
	writer, err := s.GetWriter("test")
	require.NoError(t, err)

	files := fixtureSimple()
	files[FileStopTimes] = []string{
		"trip_id;arrival_time;stop_id;stop_sequence",
		"t;12:00:00;s1;1",
	}

	report, err := ParseStatic(writer, buildFiles(files), Options{})
	require.NoError(t, err)
	assert.Equal(t, []RejectedFile{{
		File:   FileStopTimes,
		Reason: ReasonMissingColumns,
		Detail: "departure_time,shape_dist_traveled",
	}}, report.RejectedFiles)

	// Other files still load.
	assert.Equal(t, 1, report.Accepted[FileTrips])

	reader, err := s.GetReader("test")
	require.NoError(t, err)
	stopTimes, err := reader.StopTimes()
	require.NoError(t, err)
	assert.Equal(t, 0, len(stopTimes))
}

func TestParseEmptyFile(t *testing.T) {
	s := storage.NewMemoryStorage()
	writer, err := s.GetWriter("test")
	require.NoError(t, err)

	files := buildFiles(fixtureSimple())
	files[FileShapes] = []byte{}

	report, err := ParseStatic(writer, files, Options{})
	require.NoError(t, err)
	require.Equal(t, 1, len(report.RejectedFiles))
	assert.Equal(t, FileShapes, report.RejectedFiles[0].File)
	assert.Equal(t, ReasonMalformed, report.RejectedFiles[0].Reason)
}

func TestParseByteOrderMark(t *testing.T) {
	s := storage.NewMemoryStorage()
	writer, err := s.GetWriter("test")
	require.NoError(t, err)

	files := buildFiles(fixtureSimple())
	files[FileTrips] = append([]byte("\xef\xbb\xbf"), files[FileTrips]...)

	report, err := ParseStatic(writer, files, Options{})
	require.NoError(t, err)
	assert.Equal(t, 0, len(report.RejectedFiles))
	assert.Equal(t, 1, report.Accepted[FileTrips])
}
