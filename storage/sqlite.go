package storage

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"tidbyt.dev/gtfsstats/model"
)

// SQLite backed Storage. Every snapshot lives in its own in-memory
// database; nothing is written to disk.
type SQLiteStorage struct {
	feeds map[string]*sql.DB
}

type SQLiteFeedWriter struct {
	db                  *sql.DB
	stopTimeInsertQuery *sql.Stmt
	stopTimeInsertTx    *sql.Tx
}

type SQLiteFeedReader struct {
	db *sql.DB
}

func NewSQLiteStorage() (*SQLiteStorage, error) {
	return &SQLiteStorage{
		feeds: map[string]*sql.DB{},
	}, nil
}

func (s *SQLiteStorage) GetReader(feedID string) (FeedReader, error) {
	db, found := s.feeds[feedID]
	if !found {
		return nil, fmt.Errorf("snapshot %s does not exist", feedID)
	}
	return &SQLiteFeedReader{db: db}, nil
}

func (s *SQLiteStorage) GetWriter(feedID string) (FeedWriter, error) {
	if old, found := s.feeds[feedID]; found {
		old.Close()
		delete(s.feeds, feedID)
	}

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Each connection to :memory: is a separate database.
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)

	for name, query := range map[string]string{
		"trips": `
CREATE TABLE trips (
    id TEXT PRIMARY KEY,
    route_id TEXT NOT NULL,
    service_id TEXT NOT NULL,
    direction_id INTEGER NOT NULL,
    shape_id TEXT NOT NULL
);
CREATE INDEX trips_route_id ON trips (route_id);
`,
		"stops": `
CREATE TABLE stops (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    lat REAL NOT NULL,
    lon REAL NOT NULL
);`,
		"shapes": `
CREATE TABLE shapes (
    shape_id TEXT NOT NULL,
    sequence INTEGER NOT NULL,
    lat REAL NOT NULL,
    lon REAL NOT NULL
);
CREATE INDEX shapes_shape_id ON shapes (shape_id, sequence);
`,
		"stop_times": `
CREATE TABLE stop_times (
    trip_id TEXT NOT NULL,
    stop_id TEXT NOT NULL,
    stop_sequence INTEGER NOT NULL,
    arrival_time INTEGER NOT NULL,
    departure_time INTEGER NOT NULL,
    shape_dist_traveled REAL NOT NULL
);
CREATE INDEX stop_times_trip_id ON stop_times (trip_id, stop_sequence);
CREATE INDEX stop_times_stop_id ON stop_times (stop_id);
`,
	} {
		_, err := db.Exec(query)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("creating table %s: %w", name, err)
		}
	}

	s.feeds[feedID] = db

	return &SQLiteFeedWriter{db: db}, nil
}

func (f *SQLiteFeedWriter) WriteTrip(trip *model.Trip) error {
	_, err := f.db.Exec(`
INSERT INTO trips (id, route_id, service_id, direction_id, shape_id)
VALUES (?, ?, ?, ?, ?)`,
		trip.ID,
		trip.RouteID,
		trip.ServiceID,
		trip.DirectionID,
		trip.ShapeID,
	)
	if err != nil {
		return fmt.Errorf("inserting trip: %w", err)
	}
	return nil
}

func (f *SQLiteFeedWriter) WriteStop(stop *model.Stop) error {
	_, err := f.db.Exec(`
INSERT INTO stops (id, name, lat, lon)
VALUES (?, ?, ?, ?)`,
		stop.ID,
		stop.Name,
		stop.Lat,
		stop.Lon,
	)
	if err != nil {
		return fmt.Errorf("inserting stop: %w", err)
	}
	return nil
}

func (f *SQLiteFeedWriter) WriteShapePoint(point *model.ShapePoint) error {
	_, err := f.db.Exec(`
INSERT INTO shapes (shape_id, sequence, lat, lon)
VALUES (?, ?, ?, ?)`,
		point.ShapeID,
		point.Sequence,
		point.Lat,
		point.Lon,
	)
	if err != nil {
		return fmt.Errorf("inserting shape point: %w", err)
	}
	return nil
}

func (f *SQLiteFeedWriter) BeginStopTimes() error {
	// transaction with prepared statement.
	var err error
	f.stopTimeInsertTx, err = f.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning stop_time insert transaction: %w", err)
	}

	f.stopTimeInsertQuery, err = f.stopTimeInsertTx.Prepare(`
INSERT INTO stop_times (trip_id, stop_id, stop_sequence, arrival_time, departure_time, shape_dist_traveled)
VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		f.stopTimeInsertTx.Rollback()
		f.stopTimeInsertTx = nil
		return fmt.Errorf("preparing stop_time insert: %w", err)
	}

	return nil
}

func (f *SQLiteFeedWriter) WriteStopTime(stopTime *model.StopTime) error {
	if f.stopTimeInsertQuery == nil {
		return fmt.Errorf("stop_time written outside BeginStopTimes/EndStopTimes")
	}

	_, err := f.stopTimeInsertQuery.Exec(
		stopTime.TripID,
		stopTime.StopID,
		stopTime.StopSequence,
		int64(stopTime.Arrival/time.Second),
		int64(stopTime.Departure/time.Second),
		stopTime.ShapeDistTraveled,
	)
	if err != nil {
		f.stopTimeInsertQuery.Close()
		f.stopTimeInsertTx.Rollback()
		f.stopTimeInsertTx = nil
		f.stopTimeInsertQuery = nil
		return fmt.Errorf("inserting stop_time: %w", err)
	}

	return nil
}

func (f *SQLiteFeedWriter) EndStopTimes() error {
	if f.stopTimeInsertTx == nil {
		return nil
	}

	// commit transaction and clean up
	f.stopTimeInsertQuery.Close()
	err := f.stopTimeInsertTx.Commit()
	if err != nil {
		return fmt.Errorf("committing stop_time insert transaction: %w", err)
	}
	f.stopTimeInsertTx = nil
	f.stopTimeInsertQuery = nil

	return nil
}

func (f *SQLiteFeedWriter) Close() error {
	if f.stopTimeInsertTx != nil {
		return f.EndStopTimes()
	}
	return nil
}

func (f *SQLiteFeedReader) Trips() ([]*model.Trip, error) {
	rows, err := f.db.Query(`
SELECT id, route_id, service_id, direction_id, shape_id
FROM trips
ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying trips: %w", err)
	}
	defer rows.Close()

	trips := []*model.Trip{}
	for rows.Next() {
		t := &model.Trip{}
		err := rows.Scan(&t.ID, &t.RouteID, &t.ServiceID, &t.DirectionID, &t.ShapeID)
		if err != nil {
			return nil, fmt.Errorf("scanning trip: %w", err)
		}
		trips = append(trips, t)
	}

	return trips, rows.Err()
}

func (f *SQLiteFeedReader) Stops() ([]*model.Stop, error) {
	rows, err := f.db.Query(`
SELECT id, name, lat, lon
FROM stops
ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying stops: %w", err)
	}
	defer rows.Close()

	stops := []*model.Stop{}
	for rows.Next() {
		s := &model.Stop{}
		err := rows.Scan(&s.ID, &s.Name, &s.Lat, &s.Lon)
		if err != nil {
			return nil, fmt.Errorf("scanning stop: %w", err)
		}
		stops = append(stops, s)
	}

	return stops, rows.Err()
}

func (f *SQLiteFeedReader) ShapePoints() ([]*model.ShapePoint, error) {
	rows, err := f.db.Query(`
SELECT shape_id, sequence, lat, lon
FROM shapes
ORDER BY shape_id, sequence`)
	if err != nil {
		return nil, fmt.Errorf("querying shapes: %w", err)
	}
	defer rows.Close()

	points := []*model.ShapePoint{}
	for rows.Next() {
		p := &model.ShapePoint{}
		err := rows.Scan(&p.ShapeID, &p.Sequence, &p.Lat, &p.Lon)
		if err != nil {
			return nil, fmt.Errorf("scanning shape point: %w", err)
		}
		points = append(points, p)
	}

	return points, rows.Err()
}

func (f *SQLiteFeedReader) StopTimes() ([]*model.StopTime, error) {
	rows, err := f.db.Query(`
SELECT trip_id, stop_id, stop_sequence, arrival_time, departure_time, shape_dist_traveled
FROM stop_times
ORDER BY trip_id, stop_sequence`)
	if err != nil {
		return nil, fmt.Errorf("querying stop times: %w", err)
	}
	defer rows.Close()

	stopTimes := []*model.StopTime{}
	for rows.Next() {
		st := &model.StopTime{}
		var arrival, departure int64
		err := rows.Scan(
			&st.TripID,
			&st.StopID,
			&st.StopSequence,
			&arrival,
			&departure,
			&st.ShapeDistTraveled,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning stop time: %w", err)
		}
		st.Arrival = time.Duration(arrival) * time.Second
		st.Departure = time.Duration(departure) * time.Second
		stopTimes = append(stopTimes, st)
	}

	return stopTimes, rows.Err()
}

func (f *SQLiteFeedReader) RoutesByStop() (map[string][]string, error) {
	rows, err := f.db.Query(`
SELECT DISTINCT st.stop_id, t.route_id
FROM stop_times st
INNER JOIN trips t ON st.trip_id = t.id
WHERE t.route_id != ''
ORDER BY st.stop_id, t.route_id`)
	if err != nil {
		return nil, fmt.Errorf("querying routes by stop: %w", err)
	}
	defer rows.Close()

	routes := map[string][]string{}
	for rows.Next() {
		var stopID, routeID string
		if err := rows.Scan(&stopID, &routeID); err != nil {
			return nil, fmt.Errorf("scanning route by stop: %w", err)
		}
		routes[stopID] = append(routes[stopID], routeID)
	}

	return routes, rows.Err()
}
