package parse

import (
	"time"

	"github.com/rs/zerolog/log"
)

// Why a file or row was left out of a snapshot.
type Reason string

const (
	ReasonMissingFile       Reason = "missing_file"
	ReasonMissingColumns    Reason = "missing_columns"
	ReasonMalformed         Reason = "malformed"
	ReasonMissingID         Reason = "missing_id"
	ReasonDuplicateID       Reason = "duplicate_id"
	ReasonInvalidTime       Reason = "invalid_time"
	ReasonInvalidSequence   Reason = "invalid_sequence"
	ReasonDuplicateSequence Reason = "duplicate_sequence"
	ReasonInvalidShapeDist  Reason = "invalid_shape_dist"
	ReasonInvalidCoordinate Reason = "invalid_coordinate"
	ReasonInvalidDirection  Reason = "invalid_direction"
	ReasonInvalidDate       Reason = "invalid_date"
	ReasonInvalidHour       Reason = "invalid_hour"
	ReasonInvalidCount      Reason = "invalid_count"
)

type RejectedFile struct {
	File   string `json:"file"`
	Reason Reason `json:"reason"`
	Detail string `json:"detail,omitempty"`
}

// Row is the 1-based data row, not counting the header.
type RejectedRow struct {
	File   string `json:"file"`
	Row    int    `json:"row"`
	Reason Reason `json:"reason"`
	Detail string `json:"detail,omitempty"`
}

// Outcome of loading a snapshot: rows accepted per file, plus every
// file and row that was rejected and why.
type Report struct {
	Accepted      map[string]int `json:"accepted"`
	RejectedFiles []RejectedFile `json:"rejected_files"`
	RejectedRows  []RejectedRow  `json:"rejected_rows"`

	// Latest arrival offset seen in stop_times.
	MaxArrival time.Duration `json:"max_arrival"`
}

func NewReport() *Report {
	return &Report{
		Accepted:      map[string]int{},
		RejectedFiles: []RejectedFile{},
		RejectedRows:  []RejectedRow{},
	}
}

func (r *Report) Accept(file string) {
	r.Accepted[file]++
}

func (r *Report) RejectFile(file string, reason Reason, detail string) {
	log.Warn().Str("file", file).Str("reason", string(reason)).Msgf("Skipping file: %s", detail)
	r.RejectedFiles = append(r.RejectedFiles, RejectedFile{
		File:   file,
		Reason: reason,
		Detail: detail,
	})
}

func (r *Report) RejectRow(file string, row int, reason Reason, err error) {
	detail := ""
	if err != nil {
		detail = err.Error()
	}
	log.Debug().Str("file", file).Int("row", row).Str("reason", string(reason)).Msg(detail)
	r.RejectedRows = append(r.RejectedRows, RejectedRow{
		File:   file,
		Row:    row,
		Reason: reason,
		Detail: detail,
	})
}

// True if the named file was rejected as a whole.
func (r *Report) FileRejected(file string) bool {
	for _, f := range r.RejectedFiles {
		if f.File == file {
			return true
		}
	}
	return false
}

// Rejected row counts by reason, for a single file.
func (r *Report) RowsRejected(file string) map[Reason]int {
	counts := map[Reason]int{}
	for _, row := range r.RejectedRows {
		if row.File == file {
			counts[row.Reason]++
		}
	}
	return counts
}
