package gtfsstats_test

// Helpers and fixtures for tests.
//
// Tests loading a snapshot run against both the in-memory and the
// sqlite backend.

import (
	"testing"

	"tidbyt.dev/gtfsstats"
	"tidbyt.dev/gtfsstats/parse"
	"tidbyt.dev/gtfsstats/testutil"
)

// Three trips over three stops:
//
//	t1 (R1, 1840): s1 08:00 → s2 08:01 (500m) → s3 08:03:30 (1000m)
//	t2 (R1, 1841): s1 09:00 → s2 09:02 (500m) → s3 09:04 (1000m)
//	t3 (R2, 1840): s3 23:50 → s2 23:50 (400m) → s1 24:10 (400m)
//
// t1 dwells 30s at s2. t3 reaches s2 in zero time.
func fixtureFiles() map[string][]string {
	return map[string][]string{
		parse.FileTrips: {
			"trip_id;route_id;service_id;direction_id;shape_id",
			"t1;R1;1840;0;sh1",
			"t2;R1;1841;0;sh1",
			"t3;R2;1840;1;sh2",
		},
		parse.FileStops: {
			"stop_id;stop_name;stop_lat;stop_lon",
			"s1;Boulevard;43,3200;-1,9800",
			"s2;Easo;43,3150;-1,9780",
			"s3;Amara;43,3100;-1,9760",
		},
		parse.FileShapes: {
			"shape_id;shape_pt_sequence;shape_pt_lat;shape_pt_lon",
			"sh1;1;43.3200;-1.9800",
			"sh1;2;43.3175;-1.9790",
			"sh1;3;43.3150;-1.9780",
			"sh1;4;43.3125;-1.9770",
			"sh1;5;43.3100;-1.9760",
			"sh2;1;43.3100;-1.9760",
			"sh2;2;43.3200;-1.9800",
		},
		parse.FileStopTimes: {
			"trip_id;arrival_time;departure_time;stop_id;stop_sequence;shape_dist_traveled",
			"t1;08:00:00;08:00:00;s1;1;0",
			"t1;08:01:00;08:01:30;s2;2;0,5",
			"t1;08:03:30;08:03:30;s3;3;1500",
			"t2;09:00:00;09:00:00;s1;1;0",
			"t2;09:02:00;09:02:00;s2;2;500",
			"t2;09:04:00;09:04:00;s3;3;1,5",
			"t3;23:50:00;23:50:00;s3;1;0",
			"t3;23:50:00;23:50:00;s2;2;400",
			"t3;24:10:00;24:10:00;s1;3;800",
		},
	}
}

func loadFixture(t *testing.T, backend string) *gtfsstats.Snapshot {
	return testutil.LoadSnapshot(t, backend, fixtureFiles())
}
