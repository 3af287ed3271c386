package parse

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/pkg/errors"

	"tidbyt.dev/gtfsstats/model"
	"tidbyt.dev/gtfsstats/storage"
)

type StopTimeCSV struct {
	TripID            string `csv:"trip_id"`
	StopID            string `csv:"stop_id"`
	StopSequence      string `csv:"stop_sequence"`
	ArrivalTime       string `csv:"arrival_time"`
	DepartureTime     string `csv:"departure_time"`
	ShapeDistTraveled string `csv:"shape_dist_traveled"`
}

// Parses stop_times into writer, which must be between BeginStopTimes
// and EndStopTimes. Rows are written ordered by trip and sequence.
//
// When only one of arrival_time and departure_time is set, the other
// takes its value. Rows referencing trips or stops that don't exist
// are kept.
func ParseStopTimes(
	writer storage.FeedWriter,
	data gocsv.CSVReader,
	distance DistancePolicy,
	report *Report,
) error {
	stopTimeCsv := []*StopTimeCSV{}
	if err := gocsv.UnmarshalCSV(data, &stopTimeCsv); err != nil {
		report.RejectFile(FileStopTimes, ReasonMalformed, err.Error())
		return nil
	}

	stopTimes := []*model.StopTime{}
	seen := map[string]map[uint32]bool{}

	for i, st := range stopTimeCsv {
		row := i + 1

		if st.TripID == "" || st.StopID == "" {
			report.RejectRow(FileStopTimes, row, ReasonMissingID, fmt.Errorf("empty trip_id or stop_id"))
			continue
		}

		seq, err := strconv.ParseUint(strings.TrimSpace(st.StopSequence), 10, 32)
		if err != nil {
			report.RejectRow(FileStopTimes, row, ReasonInvalidSequence, errors.Wrapf(err, "parsing stop_sequence (row %d)", row))
			continue
		}

		arrivalRaw, departureRaw := strings.TrimSpace(st.ArrivalTime), strings.TrimSpace(st.DepartureTime)
		if arrivalRaw == "" {
			arrivalRaw = departureRaw
		}
		if departureRaw == "" {
			departureRaw = arrivalRaw
		}

		arrival, err := parseStopTimeTime(arrivalRaw)
		if err != nil {
			report.RejectRow(FileStopTimes, row, ReasonInvalidTime, errors.Wrapf(err, "parsing arrival_time (row %d)", row))
			continue
		}

		departure, err := parseStopTimeTime(departureRaw)
		if err != nil {
			report.RejectRow(FileStopTimes, row, ReasonInvalidTime, errors.Wrapf(err, "parsing departure_time (row %d)", row))
			continue
		}

		dist, err := ParseShapeDist(st.ShapeDistTraveled)
		if err != nil {
			report.RejectRow(FileStopTimes, row, ReasonInvalidShapeDist, errors.Wrapf(err, "parsing shape_dist_traveled (row %d)", row))
			continue
		}

		if seen[st.TripID] == nil {
			seen[st.TripID] = map[uint32]bool{}
		}
		if seen[st.TripID][uint32(seq)] {
			report.RejectRow(FileStopTimes, row, ReasonDuplicateSequence, fmt.Errorf("repeated stop_sequence %d for trip '%s'", seq, st.TripID))
			continue
		}
		seen[st.TripID][uint32(seq)] = true

		if arrival > report.MaxArrival {
			report.MaxArrival = arrival
		}

		stopTimes = append(stopTimes, &model.StopTime{
			TripID:            st.TripID,
			StopID:            st.StopID,
			StopSequence:      uint32(seq),
			Arrival:           arrival,
			Departure:         departure,
			ShapeDistTraveled: distance(dist),
		})
	}

	sort.SliceStable(stopTimes, func(i, j int) bool {
		if stopTimes[i].TripID != stopTimes[j].TripID {
			return stopTimes[i].TripID < stopTimes[j].TripID
		}
		return stopTimes[i].StopSequence < stopTimes[j].StopSequence
	})

	for _, st := range stopTimes {
		err := writer.WriteStopTime(st)
		if err != nil {
			return errors.Wrapf(err, "writing stop_time for trip '%s'", st.TripID)
		}
		report.Accept(FileStopTimes)
	}

	return nil
}
