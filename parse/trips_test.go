package parse

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tidbyt.dev/gtfsstats/model"
	"tidbyt.dev/gtfsstats/storage"
)

func TestParseTrips(t *testing.T) {
	for _, tc := range []struct {
		name     string
		content  string
		rejected map[Reason]int
		trips    []*model.Trip
	}{
		{
			"minimal",
			`
trip_id;route_id;service_id
t;r;1840`,
			map[Reason]int{},
			[]*model.Trip{
				{ID: "t", RouteID: "r", ServiceID: "1840"},
			},
		},

		{
			"all fields",
			`
trip_id;route_id;service_id;direction_id;shape_id;trip_headsign
t1;r;1840;0;sh1;Downtown
t2;r;1841;1;sh2;Uptown`,
			map[Reason]int{},
			[]*model.Trip{
				{ID: "t1", RouteID: "r", ServiceID: "1840", DirectionID: 0, ShapeID: "sh1"},
				{ID: "t2", RouteID: "r", ServiceID: "1841", DirectionID: 1, ShapeID: "sh2"},
			},
		},

		{
			"bad rows rejected",
			`
trip_id;route_id;service_id;direction_id
t1;r;1840;0
t1;r;1841;0
;r;1840;0
t2;;1840;0
t3;r;1840;2
t4;r;1840;x`,
			map[Reason]int{
				ReasonDuplicateID:      1,
				ReasonMissingID:        2,
				ReasonInvalidDirection: 2,
			},
			[]*model.Trip{
				{ID: "t1", RouteID: "r", ServiceID: "1840"},
			},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			s := storage.NewMemoryStorage()
			writer, err := s.GetWriter("test")
			require.NoError(t, err)

			report := NewReport()
			require.NoError(t, ParseTrips(writer, NewCSVReader(bytes.NewBufferString(tc.content), DefaultDelimiter), report))
			require.NoError(t, writer.Close())

			assert.Equal(t, tc.rejected, report.RowsRejected(FileTrips))

			reader, err := s.GetReader("test")
			require.NoError(t, err)
			trips, err := reader.Trips()
			require.NoError(t, err)
			assert.Equal(t, tc.trips, trips)
		})
	}
}
