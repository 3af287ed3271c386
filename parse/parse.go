package parse

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/rs/zerolog/log"
	"github.com/spkg/bom"

	"tidbyt.dev/gtfsstats/storage"
)

// Logical names of the files making up a snapshot. These are also
// the keys used in Report.
const (
	FileStopTimes = "stop_times"
	FileTrips     = "trips"
	FileStops     = "stops"
	FileShapes    = "shapes"
)

// Input files are semicolon separated unless configured otherwise.
const DefaultDelimiter = ';'

var requiredColumns = map[string][]string{
	FileStopTimes: {"trip_id", "stop_id", "stop_sequence", "arrival_time", "departure_time", "shape_dist_traveled"},
	FileTrips:     {"trip_id", "route_id", "service_id"},
	FileStops:     {"stop_id", "stop_lat", "stop_lon"},
	FileShapes:    {"shape_id", "shape_pt_sequence", "shape_pt_lat", "shape_pt_lon"},
}

type Options struct {
	// Field delimiter. Zero means DefaultDelimiter.
	Delimiter rune

	// Unit correction for shape_dist_traveled. Nil means
	// KilometerHeuristic.
	Distance DistancePolicy
}

// Builds the CSV reader used for all input files. Quotes are parsed
// lazily and a leading BOM is dropped.
func NewCSVReader(in io.Reader, delimiter rune) *csv.Reader {
	r := csv.NewReader(bom.NewReader(in))
	r.Comma = delimiter
	r.LazyQuotes = true
	r.TrimLeadingSpace = true
	r.FieldsPerRecord = -1
	return r
}

// Checks that the header of data has every column in required. The
// names of missing columns are returned.
func missingColumns(data []byte, delimiter rune, required []string) ([]string, error) {
	header, err := NewCSVReader(bytes.NewReader(data), delimiter).Read()
	if err == io.EOF {
		return nil, fmt.Errorf("empty file")
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	present := map[string]bool{}
	for _, h := range header {
		present[strings.TrimSpace(h)] = true
	}

	missing := []string{}
	for _, col := range required {
		if !present[col] {
			missing = append(missing, col)
		}
	}
	return missing, nil
}

// Parses the raw files of a snapshot into writer. Files are keyed by
// FileStopTimes, FileTrips, FileStops and FileShapes; a nil entry
// means the file could not be found.
//
// Bad input never fails the load: files and rows that can't be used
// are left out and recorded in the returned Report. An error is only
// returned if writing to storage fails.
func ParseStatic(writer storage.FeedWriter, files map[string][]byte, opts Options) (*Report, error) {
	if opts.Delimiter == 0 {
		opts.Delimiter = DefaultDelimiter
	}
	if opts.Distance == nil {
		opts.Distance = KilometerHeuristic
	}

	report := NewReport()

	// Returns the file if it can be parsed, otherwise records
	// why it can't.
	usable := func(name string) gocsv.CSVReader {
		data := files[name]
		if data == nil {
			report.RejectFile(name, ReasonMissingFile, "file not found")
			return nil
		}

		missing, err := missingColumns(data, opts.Delimiter, requiredColumns[name])
		if err != nil {
			report.RejectFile(name, ReasonMalformed, err.Error())
			return nil
		}
		if len(missing) > 0 {
			report.RejectFile(name, ReasonMissingColumns, strings.Join(missing, ","))
			return nil
		}

		return NewCSVReader(bytes.NewReader(data), opts.Delimiter)
	}

	if data := usable(FileTrips); data != nil {
		if err := ParseTrips(writer, data, report); err != nil {
			return nil, fmt.Errorf("parsing trips: %w", err)
		}
	}

	if data := usable(FileStops); data != nil {
		if err := ParseStops(writer, data, report); err != nil {
			return nil, fmt.Errorf("parsing stops: %w", err)
		}
	}

	if data := usable(FileShapes); data != nil {
		if err := ParseShapes(writer, data, report); err != nil {
			return nil, fmt.Errorf("parsing shapes: %w", err)
		}
	}

	if data := usable(FileStopTimes); data != nil {
		err := writer.BeginStopTimes()
		if err != nil {
			return nil, fmt.Errorf("beginning stop_times: %w", err)
		}
		err = ParseStopTimes(writer, data, opts.Distance, report)
		if err != nil {
			return nil, fmt.Errorf("parsing stop_times: %w", err)
		}
		err = writer.EndStopTimes()
		if err != nil {
			return nil, fmt.Errorf("ending stop_times: %w", err)
		}
	}

	err := writer.Close()
	if err != nil {
		return nil, fmt.Errorf("closing feed writer: %w", err)
	}

	log.Info().
		Int("stop_times", report.Accepted[FileStopTimes]).
		Int("trips", report.Accepted[FileTrips]).
		Int("stops", report.Accepted[FileStops]).
		Int("shape_points", report.Accepted[FileShapes]).
		Int("rejected_rows", len(report.RejectedRows)).
		Int("rejected_files", len(report.RejectedFiles)).
		Msg("Parsed snapshot")

	return report, nil
}
