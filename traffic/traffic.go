package traffic

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gocarina/gocsv"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/text/encoding/charmap"

	"tidbyt.dev/gtfsstats/parse"
)

const (
	// Holds station metadata rather than counts.
	StationsFile = "estaciones.csv"

	ColumnDate    = "Fecha"
	ColumnHour    = "Hora"
	ColumnStation = "Estacion"

	DayTypeWeekday = "Weekday"
	DayTypeWeekend = "Weekend"
)

var requiredColumns = []string{ColumnDate, ColumnHour, ColumnStation}

// Accepted layouts of the date column, day first.
var dateLayouts = []string{
	"02/01/2006",
	"2/1/2006",
	"02-01-2006",
	"2-1-2006",
	"2006-01-02",
	"02/01/2006 15:04:05",
	"02/01/2006 15:04",
}

// Vehicles counted at one station during one hour.
type Count struct {
	Date    time.Time `json:"date"`
	Hour    int       `json:"hour"`
	Station string    `json:"station"`
	Light   int       `json:"light"`
	Heavy   int       `json:"heavy"`
	Total   int       `json:"total"`
}

func (c *Count) Weekend() bool {
	return c.Date.Weekday() == time.Saturday || c.Date.Weekday() == time.Sunday
}

func (c *Count) DayType() string {
	if c.Weekend() {
		return DayTypeWeekend
	}
	return DayTypeWeekday
}

type Station struct {
	Code string  `json:"code"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

type StationCSV struct {
	Code string `csv:"ETD code"`
	X    string `csv:"X"`
	Y    string `csv:"Y"`
}

// All counts and stations found in a directory.
type Dataset struct {
	Counts   []Count       `json:"-"`
	Stations []Station     `json:"stations"`
	Report   *parse.Report `json:"report"`
}

// Returns data as UTF-8. Input that isn't valid UTF-8 is taken to be
// Latin-1.
func toUTF8(data []byte) ([]byte, error) {
	if utf8.Valid(data) {
		return data, nil
	}
	out, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		return nil, fmt.Errorf("decoding latin1: %w", err)
	}
	return out, nil
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if d, err := time.Parse(layout, s); err == nil {
			return d, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date '%s'", s)
}

// Parses the hour from values like "7", "07:00" or "07:00:00".
func parseHour(s string) (int, error) {
	head := strings.SplitN(strings.TrimSpace(s), ":", 2)[0]
	h, err := strconv.Atoi(head)
	if err != nil {
		return 0, fmt.Errorf("non-integer hour '%s'", s)
	}
	if h < 0 || h > 23 {
		return 0, fmt.Errorf("hour out of range '%s'", s)
	}
	return h, nil
}

// Parses a vehicle count. Empty means 0.
func parseCount(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err == nil {
		if n < 0 {
			return 0, fmt.Errorf("negative count '%s'", s)
		}
		return n, nil
	}
	f, ferr := parse.ParseDecimal(s)
	if ferr != nil || f < 0 || f != float64(int(f)) {
		return 0, fmt.Errorf("invalid count '%s'", s)
	}
	return int(f), nil
}

func laneClass(column string) string {
	lower := strings.ToLower(column)
	switch {
	case strings.Contains(lower, "ligeros"):
		return "light"
	case strings.Contains(lower, "pesados"):
		return "heavy"
	}
	return ""
}

// Parses one count file. Rows that can't be used are recorded in
// report under name. A file lacking required columns is rejected as
// a whole.
func ParseCounts(name string, data []byte, report *parse.Report) ([]Count, error) {
	data, err := toUTF8(data)
	if err != nil {
		report.RejectFile(name, parse.ReasonMalformed, err.Error())
		return nil, nil
	}

	r := parse.NewCSVReader(bytes.NewReader(data), parse.DefaultDelimiter)

	header, err := r.Read()
	if err == io.EOF {
		report.RejectFile(name, parse.ReasonMalformed, "empty file")
		return nil, nil
	}
	if err != nil {
		report.RejectFile(name, parse.ReasonMalformed, err.Error())
		return nil, nil
	}

	index := map[string]int{}
	lanes := map[int]string{}
	for i, col := range header {
		col = strings.TrimSpace(col)
		index[col] = i
		if class := laneClass(col); class != "" {
			lanes[i] = class
		}
	}

	missing := []string{}
	for _, col := range requiredColumns {
		if _, found := index[col]; !found {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		report.RejectFile(name, parse.ReasonMissingColumns, strings.Join(missing, ","))
		return nil, nil
	}

	field := func(record []string, col string) string {
		i := index[col]
		if i >= len(record) {
			return ""
		}
		return record[i]
	}

	counts := []Count{}
	for row := 1; ; row++ {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			report.RejectRow(name, row, parse.ReasonMalformed, err)
			continue
		}

		date, err := parseDate(field(record, ColumnDate))
		if err != nil {
			report.RejectRow(name, row, parse.ReasonInvalidDate, err)
			continue
		}

		hour, err := parseHour(field(record, ColumnHour))
		if err != nil {
			report.RejectRow(name, row, parse.ReasonInvalidHour, err)
			continue
		}

		station := strings.TrimSpace(field(record, ColumnStation))
		if station == "" {
			report.RejectRow(name, row, parse.ReasonMissingID, fmt.Errorf("empty %s", ColumnStation))
			continue
		}

		c := Count{Date: date, Hour: hour, Station: station}
		valid := true
		for i, class := range lanes {
			v := ""
			if i < len(record) {
				v = record[i]
			}
			n, err := parseCount(v)
			if err != nil {
				report.RejectRow(name, row, parse.ReasonInvalidCount, errors.Wrapf(err, "column %s", header[i]))
				valid = false
				break
			}
			if class == "light" {
				c.Light += n
			} else {
				c.Heavy += n
			}
		}
		if !valid {
			continue
		}

		c.Total = c.Light + c.Heavy
		counts = append(counts, c)
		report.Accept(name)
	}

	return counts, nil
}

// Parses station metadata. Rows with unparseable coordinates are
// rejected.
func ParseStations(data []byte, report *parse.Report) ([]Station, error) {
	data, err := toUTF8(data)
	if err != nil {
		report.RejectFile(StationsFile, parse.ReasonMalformed, err.Error())
		return nil, nil
	}

	rows := []*StationCSV{}
	err = gocsv.UnmarshalCSV(parse.NewCSVReader(bytes.NewReader(data), parse.DefaultDelimiter), &rows)
	if err != nil {
		report.RejectFile(StationsFile, parse.ReasonMalformed, err.Error())
		return nil, nil
	}

	stations := []Station{}
	for i, row := range rows {
		if row.Code == "" {
			report.RejectRow(StationsFile, i+1, parse.ReasonMissingID, fmt.Errorf("empty ETD code"))
			continue
		}
		x, errX := parse.ParseDecimal(row.X)
		y, errY := parse.ParseDecimal(row.Y)
		if errX != nil || errY != nil {
			report.RejectRow(StationsFile, i+1, parse.ReasonInvalidCoordinate, fmt.Errorf("station '%s' has invalid X/Y", row.Code))
			continue
		}
		stations = append(stations, Station{Code: row.Code, X: x, Y: y})
		report.Accept(StationsFile)
	}

	return stations, nil
}

// Loads every .csv file in dir. estaciones.csv holds station
// metadata, all other files hold counts.
func LoadDirectory(ctx context.Context, dir string) (*Dataset, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", dir, err)
	}

	names := []string{}
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".csv") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	ds := &Dataset{
		Counts:   []Count{},
		Stations: []Station{},
		Report:   parse.NewReport(),
	}

	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", name, err)
		}

		if strings.EqualFold(name, StationsFile) {
			stations, err := ParseStations(data, ds.Report)
			if err != nil {
				return nil, err
			}
			ds.Stations = append(ds.Stations, stations...)
			continue
		}

		counts, err := ParseCounts(name, data, ds.Report)
		if err != nil {
			return nil, err
		}
		ds.Counts = append(ds.Counts, counts...)
	}

	log.Info().
		Str("dir", dir).
		Int("files", len(names)).
		Int("counts", len(ds.Counts)).
		Int("stations", len(ds.Stations)).
		Int("rejected_rows", len(ds.Report.RejectedRows)).
		Msg("Loaded traffic counts")

	return ds, nil
}
