package parse

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/pkg/errors"

	"tidbyt.dev/gtfsstats/model"
	"tidbyt.dev/gtfsstats/storage"
)

type ShapeCSV struct {
	ID       string `csv:"shape_id"`
	Sequence string `csv:"shape_pt_sequence"`
	Lat      string `csv:"shape_pt_lat"`
	Lon      string `csv:"shape_pt_lon"`
}

func ParseShapes(writer storage.FeedWriter, data gocsv.CSVReader, report *Report) error {
	shapeCsv := []*ShapeCSV{}
	if err := gocsv.UnmarshalCSV(data, &shapeCsv); err != nil {
		report.RejectFile(FileShapes, ReasonMalformed, err.Error())
		return nil
	}

	seen := map[string]map[uint32]bool{}
	for i, sh := range shapeCsv {
		row := i + 1

		if sh.ID == "" {
			report.RejectRow(FileShapes, row, ReasonMissingID, fmt.Errorf("empty shape_id"))
			continue
		}

		seq, err := strconv.ParseUint(strings.TrimSpace(sh.Sequence), 10, 32)
		if err != nil {
			report.RejectRow(FileShapes, row, ReasonInvalidSequence, errors.Wrapf(err, "parsing shape_pt_sequence (row %d)", row))
			continue
		}

		if seen[sh.ID] == nil {
			seen[sh.ID] = map[uint32]bool{}
		}
		if seen[sh.ID][uint32(seq)] {
			report.RejectRow(FileShapes, row, ReasonDuplicateSequence, fmt.Errorf("repeated shape_pt_sequence %d for shape '%s'", seq, sh.ID))
			continue
		}

		lat, lon, err := parseCoordinate(sh.Lat, sh.Lon)
		if err != nil {
			report.RejectRow(FileShapes, row, ReasonInvalidCoordinate, errors.Wrapf(err, "shape '%s' (row %d)", sh.ID, row))
			continue
		}

		seen[sh.ID][uint32(seq)] = true

		err = writer.WriteShapePoint(&model.ShapePoint{
			ShapeID:  sh.ID,
			Sequence: uint32(seq),
			Lat:      lat,
			Lon:      lon,
		})
		if err != nil {
			return fmt.Errorf("writing shape point: %w", err)
		}
		report.Accept(FileShapes)
	}

	return nil
}
