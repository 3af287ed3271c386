package parse

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gocarina/gocsv"

	"tidbyt.dev/gtfsstats/model"
	"tidbyt.dev/gtfsstats/storage"
)

type TripCSV struct {
	ID          string `csv:"trip_id"`
	RouteID     string `csv:"route_id"`
	ServiceID   string `csv:"service_id"`
	DirectionID string `csv:"direction_id"`
	ShapeID     string `csv:"shape_id"`
}

func ParseTrips(writer storage.FeedWriter, data gocsv.CSVReader, report *Report) error {
	tripCsv := []*TripCSV{}
	if err := gocsv.UnmarshalCSV(data, &tripCsv); err != nil {
		report.RejectFile(FileTrips, ReasonMalformed, err.Error())
		return nil
	}

	trips := map[string]bool{}
	for i, t := range tripCsv {
		row := i + 1

		if t.ID == "" {
			report.RejectRow(FileTrips, row, ReasonMissingID, fmt.Errorf("empty trip_id"))
			continue
		}
		if t.RouteID == "" {
			report.RejectRow(FileTrips, row, ReasonMissingID, fmt.Errorf("empty route_id for trip '%s'", t.ID))
			continue
		}
		if trips[t.ID] {
			report.RejectRow(FileTrips, row, ReasonDuplicateID, fmt.Errorf("repeated trip_id '%s'", t.ID))
			continue
		}

		var direction int8
		if d := strings.TrimSpace(t.DirectionID); d != "" {
			n, err := strconv.Atoi(d)
			if err != nil || (n != 0 && n != 1) {
				report.RejectRow(FileTrips, row, ReasonInvalidDirection, fmt.Errorf("invalid direction_id '%s'", t.DirectionID))
				continue
			}
			direction = int8(n)
		}

		trips[t.ID] = true

		err := writer.WriteTrip(&model.Trip{
			ID:          t.ID,
			RouteID:     t.RouteID,
			ServiceID:   t.ServiceID,
			DirectionID: direction,
			ShapeID:     t.ShapeID,
		})
		if err != nil {
			return fmt.Errorf("writing trip '%s': %w", t.ID, err)
		}
		report.Accept(FileTrips)
	}

	return nil
}
