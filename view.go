package gtfsstats

import (
	"time"

	"tidbyt.dev/gtfsstats/model"
)

// An inclusive range of times of day. Arrivals past midnight are
// compared modulo 24h.
type TimeWindow struct {
	Start time.Duration
	End   time.Duration
}

func (w TimeWindow) Contains(offset time.Duration) bool {
	tod := offset % (24 * time.Hour)
	if tod < 0 {
		tod += 24 * time.Hour
	}
	if w.Start <= w.End {
		return tod >= w.Start && tod <= w.End
	}
	// Window wraps around midnight.
	return tod >= w.Start || tod <= w.End
}

// The filters selected for a single view. Zero values select
// everything.
type ViewRequest struct {
	RouteID     string
	ServiceIDs  []string
	StopIDs     []string
	DirectionID *int8
	Arrival     *TimeWindow

	// Field to sort and describe. Defaults to FieldTime.
	Field Field

	// Leave out segments where Field is not strictly positive.
	PositiveOnly bool
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// True if seg passes every filter of the request.
func (r *ViewRequest) Matches(seg *model.Segment) bool {
	if r.RouteID != "" && seg.RouteID != r.RouteID {
		return false
	}
	if len(r.ServiceIDs) > 0 && !contains(r.ServiceIDs, seg.ServiceID) {
		return false
	}
	if len(r.StopIDs) > 0 && !contains(r.StopIDs, seg.StopID) {
		return false
	}
	if r.DirectionID != nil && seg.DirectionID != *r.DirectionID {
		return false
	}
	if r.Arrival != nil && !r.Arrival.Contains(seg.Arrival) {
		return false
	}
	if r.PositiveOnly {
		field := r.Field
		if field == "" {
			field = FieldTime
		}
		if field.Value(seg) <= 0 {
			return false
		}
	}
	return true
}

// Segments matching req, in trip and stop sequence order. The result
// is a copy and may be modified; no match gives an empty slice.
func (s *Snapshot) View(req ViewRequest) []model.Segment {
	out := []model.Segment{}
	for i := range s.Segments {
		if req.Matches(&s.Segments[i]) {
			out = append(out, s.Segments[i])
		}
	}
	return out
}
