package parse

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Parses a GTFS HH:MM:SS time into an offset from the start of the
// service day. Hours may exceed 24.
func parseStopTimeTime(s string) (time.Duration, error) {
	split := strings.Split(strings.TrimSpace(s), ":")
	if len(split) != 3 {
		return 0, fmt.Errorf("found %d parts in '%s'", len(split), s)
	}

	hms := [3]int{}
	for i, str := range split {
		j, err := strconv.Atoi(str)
		if err != nil {
			return 0, fmt.Errorf("non-integer in '%s' pos %d", s, i)
		}
		hms[i] = j
	}

	if hms[0] < 0 || hms[0] > 99 {
		return 0, fmt.Errorf("invalid hour in '%s'", s)
	}

	if hms[1] < 0 || hms[1] > 59 {
		return 0, fmt.Errorf("invalid minute in '%s'", s)
	}

	if hms[2] < 0 || hms[2] > 59 {
		return 0, fmt.Errorf("invalid second in '%s'", s)
	}

	return time.Duration(hms[0])*time.Hour +
		time.Duration(hms[1])*time.Minute +
		time.Duration(hms[2])*time.Second, nil
}

// Parses a time of day given as HH:MM or HH:MM:SS.
func ParseClock(s string) (time.Duration, error) {
	if strings.Count(s, ":") == 1 {
		s += ":00"
	}
	return parseStopTimeTime(s)
}
