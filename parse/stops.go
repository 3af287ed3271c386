package parse

import (
	"fmt"

	"github.com/gocarina/gocsv"
	"github.com/pkg/errors"

	"tidbyt.dev/gtfsstats/model"
	"tidbyt.dev/gtfsstats/storage"
)

type StopCSV struct {
	ID   string `csv:"stop_id"`
	Name string `csv:"stop_name"`
	Lat  string `csv:"stop_lat"`
	Lon  string `csv:"stop_lon"`
}

// Parses a latitude/longitude pair, rejecting values outside the
// valid range.
func parseCoordinate(rawLat, rawLon string) (float64, float64, error) {
	lat, err := ParseDecimal(rawLat)
	if err != nil {
		return 0, 0, errors.Wrap(err, "parsing latitude")
	}
	lon, err := ParseDecimal(rawLon)
	if err != nil {
		return 0, 0, errors.Wrap(err, "parsing longitude")
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return 0, 0, fmt.Errorf("coordinate out of range: %f,%f", lat, lon)
	}
	return lat, lon, nil
}

func ParseStops(writer storage.FeedWriter, data gocsv.CSVReader, report *Report) error {
	stopCsv := []*StopCSV{}
	if err := gocsv.UnmarshalCSV(data, &stopCsv); err != nil {
		report.RejectFile(FileStops, ReasonMalformed, err.Error())
		return nil
	}

	stopIDs := map[string]bool{}
	for i, st := range stopCsv {
		row := i + 1

		if st.ID == "" {
			report.RejectRow(FileStops, row, ReasonMissingID, fmt.Errorf("empty stop_id"))
			continue
		}
		if stopIDs[st.ID] {
			report.RejectRow(FileStops, row, ReasonDuplicateID, fmt.Errorf("repeated stop_id '%s'", st.ID))
			continue
		}

		lat, lon, err := parseCoordinate(st.Lat, st.Lon)
		if err != nil {
			report.RejectRow(FileStops, row, ReasonInvalidCoordinate, errors.Wrapf(err, "stop '%s' (row %d)", st.ID, row))
			continue
		}

		stopIDs[st.ID] = true

		err = writer.WriteStop(&model.Stop{
			ID:   st.ID,
			Name: st.Name,
			Lat:  lat,
			Lon:  lon,
		})
		if err != nil {
			return fmt.Errorf("writing stop '%s': %w", st.ID, err)
		}
		report.Accept(FileStops)
	}

	return nil
}
