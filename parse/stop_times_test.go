package parse

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tidbyt.dev/gtfsstats/model"
	"tidbyt.dev/gtfsstats/storage"
)

func TestParseStopTimes(t *testing.T) {
	for _, tc := range []struct {
		name      string
		content   string
		rejected  map[Reason]int
		stopTimes []*model.StopTime
	}{
		{
			"minimal",
			`
trip_id;arrival_time;departure_time;stop_id;stop_sequence;shape_dist_traveled
t;10:00:00;10:00:01;s;1;0`,
			map[Reason]int{},
			[]*model.StopTime{
				{
					TripID:       "t",
					StopID:       "s",
					StopSequence: 1,
					Arrival:      10 * time.Hour,
					Departure:    10*time.Hour + time.Second,
				},
			},
		},

		{
			"comma decimal in kilometers",
			`
trip_id;arrival_time;departure_time;stop_id;stop_sequence;shape_dist_traveled
t;08:00:00;08:00:00;s1;1;0
t;08:01:00;08:01:00;s2;2;0,85
t;08:02:00;08:02:00;s3;3;1250`,
			map[Reason]int{},
			[]*model.StopTime{
				{TripID: "t", StopID: "s1", StopSequence: 1, Arrival: 8 * time.Hour, Departure: 8 * time.Hour},
				{TripID: "t", StopID: "s2", StopSequence: 2, Arrival: 8*time.Hour + time.Minute, Departure: 8*time.Hour + time.Minute, ShapeDistTraveled: 850},
				{TripID: "t", StopID: "s3", StopSequence: 3, Arrival: 8*time.Hour + 2*time.Minute, Departure: 8*time.Hour + 2*time.Minute, ShapeDistTraveled: 1250},
			},
		},

		{
			"sorted by trip and sequence",
			`
trip_id;arrival_time;departure_time;stop_id;stop_sequence;shape_dist_traveled
b;09:00:00;09:00:00;s2;2;100
a;10:00:00;10:00:00;s1;1;0
b;08:00:00;08:00:00;s1;1;0`,
			map[Reason]int{},
			[]*model.StopTime{
				{TripID: "a", StopID: "s1", StopSequence: 1, Arrival: 10 * time.Hour, Departure: 10 * time.Hour},
				{TripID: "b", StopID: "s1", StopSequence: 1, Arrival: 8 * time.Hour, Departure: 8 * time.Hour},
				{TripID: "b", StopID: "s2", StopSequence: 2, Arrival: 9 * time.Hour, Departure: 9 * time.Hour, ShapeDistTraveled: 100},
			},
		},

		{
			"times above 24h",
			`
trip_id;arrival_time;departure_time;stop_id;stop_sequence;shape_dist_traveled
t;25:00:00;25:00:01;s;1;20`,
			map[Reason]int{},
			[]*model.StopTime{
				{
					TripID:            "t",
					StopID:            "s",
					StopSequence:      1,
					Arrival:           25 * time.Hour,
					Departure:         25*time.Hour + time.Second,
					ShapeDistTraveled: 20,
				},
			},
		},

		{
			"one time missing",
			`
trip_id;arrival_time;departure_time;stop_id;stop_sequence;shape_dist_traveled
t;;10:00:01;s1;1;0
t;10:05:00;;s2;2;0`,
			map[Reason]int{},
			[]*model.StopTime{
				{TripID: "t", StopID: "s1", StopSequence: 1, Arrival: 10*time.Hour + time.Second, Departure: 10*time.Hour + time.Second},
				{TripID: "t", StopID: "s2", StopSequence: 2, Arrival: 10*time.Hour + 5*time.Minute, Departure: 10*time.Hour + 5*time.Minute},
			},
		},

		{
			"bad rows rejected",
			`
trip_id;arrival_time;departure_time;stop_id;stop_sequence;shape_dist_traveled
t;10:00:00;10:00:00;s1;1;0
t;10:00:derp;10:01:00;s2;2;100
t;;;s2;2;100
t;10:02:00;10:02:00;s3;x;200
t;10:03:00;10:03:00;s4;4;
t;10:04:00;10:04:00;s5;5;abc
;10:05:00;10:05:00;s6;6;300
t;10:06:00;10:06:00;s7;1;400
t;10:07:00;10:70:00;s8;8;500`,
			map[Reason]int{
				ReasonInvalidTime:       3,
				ReasonInvalidSequence:   1,
				ReasonInvalidShapeDist:  2,
				ReasonMissingID:         1,
				ReasonDuplicateSequence: 1,
			},
			[]*model.StopTime{
				{TripID: "t", StopID: "s1", StopSequence: 1, Arrival: 10 * time.Hour, Departure: 10 * time.Hour},
			},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			s := storage.NewMemoryStorage()
			writer, err := s.GetWriter("test")
			require.NoError(t, err)

			report := NewReport()
			require.NoError(t, writer.BeginStopTimes())
			require.NoError(t, ParseStopTimes(
				writer,
				NewCSVReader(bytes.NewBufferString(tc.content), DefaultDelimiter),
				KilometerHeuristic,
				report,
			))
			require.NoError(t, writer.EndStopTimes())

			assert.Equal(t, tc.rejected, report.RowsRejected(FileStopTimes))
			assert.Equal(t, len(tc.stopTimes), report.Accepted[FileStopTimes])

			expectedMaxArrival := time.Duration(0)
			for _, st := range tc.stopTimes {
				if st.Arrival > expectedMaxArrival {
					expectedMaxArrival = st.Arrival
				}
			}
			assert.Equal(t, expectedMaxArrival, report.MaxArrival)

			reader, err := s.GetReader("test")
			require.NoError(t, err)
			stopTimes, err := reader.StopTimes()
			require.NoError(t, err)
			assert.Equal(t, tc.stopTimes, stopTimes)
		})
	}
}

func TestParseStopTimesRowNumbers(t *testing.T) {
	s := storage.NewMemoryStorage()
	writer, err := s.GetWriter("test")
	require.NoError(t, err)

	report := NewReport()
	require.NoError(t, writer.BeginStopTimes())
	require.NoError(t, ParseStopTimes(writer, NewCSVReader(bytes.NewBufferString(`
trip_id;arrival_time;departure_time;stop_id;stop_sequence;shape_dist_traveled
t;10:00:00;10:00:00;s1;1;0
t;10:00:00;10:00:00;s2;2;nope`), DefaultDelimiter), Meters, report))
	require.NoError(t, writer.EndStopTimes())

	require.Equal(t, 1, len(report.RejectedRows))
	assert.Equal(t, FileStopTimes, report.RejectedRows[0].File)
	assert.Equal(t, 2, report.RejectedRows[0].Row)
	assert.Equal(t, ReasonInvalidShapeDist, report.RejectedRows[0].Reason)
}

func TestParseStopTimesNonFiniteDistance(t *testing.T) {
	s := storage.NewMemoryStorage()
	writer, err := s.GetWriter("test")
	require.NoError(t, err)

	report := NewReport()
	require.NoError(t, writer.BeginStopTimes())
	require.NoError(t, ParseStopTimes(writer, NewCSVReader(bytes.NewBufferString(`
trip_id;arrival_time;departure_time;stop_id;stop_sequence;shape_dist_traveled
t;08:00:00;08:00:00;a;1;0
t;08:01:00;08:01:00;b;2;NaN
t;08:02:00;08:02:00;c;3;Inf
t;08:03:00;08:03:00;d;4;-inf
t;08:04:00;08:04:00;e;5;1500`), DefaultDelimiter), KilometerHeuristic, report))
	require.NoError(t, writer.EndStopTimes())

	assert.Equal(t, map[Reason]int{ReasonInvalidShapeDist: 3}, report.RowsRejected(FileStopTimes))
	assert.Equal(t, 2, report.Accepted[FileStopTimes])

	reader, err := s.GetReader("test")
	require.NoError(t, err)
	stopTimes, err := reader.StopTimes()
	require.NoError(t, err)
	require.Len(t, stopTimes, 2)
	assert.Equal(t, 0.0, stopTimes[0].ShapeDistTraveled)
	assert.Equal(t, 1500.0, stopTimes[1].ShapeDistTraveled)
}
