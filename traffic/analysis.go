package traffic

import (
	"math"
	"sort"
	"time"

	"github.com/montanaflynn/stats"

	"tidbyt.dev/gtfsstats/statistics"
)

// Headline figures over a set of counts.
type Summary struct {
	Records       int     `json:"records"`
	Stations      int     `json:"stations"`
	TotalVehicles int     `json:"total_vehicles"`
	AvgPerStation float64 `json:"avg_per_station"`
	PeakHour      int     `json:"peak_hour"`
	PeakHourMean  float64 `json:"peak_hour_mean"`
}

// Groups totals by key, keeping first-seen order of keys.
func groupTotals[K comparable](counts []Count, key func(*Count) (K, bool)) ([]K, map[K][]float64) {
	order := []K{}
	groups := map[K][]float64{}
	for i := range counts {
		k, ok := key(&counts[i])
		if !ok {
			continue
		}
		if _, found := groups[k]; !found {
			order = append(order, k)
		}
		groups[k] = append(groups[k], float64(counts[i].Total))
	}
	return order, groups
}

// Summarizes counts. AvgPerStation is the mean of per-station means,
// and the peak hour is the hour with the highest mean total; ties go
// to the earlier hour.
func Summarize(counts []Count) Summary {
	s := Summary{Records: len(counts)}
	if len(counts) == 0 {
		return s
	}

	for i := range counts {
		s.TotalVehicles += counts[i].Total
	}

	stations, byStation := groupTotals(counts, func(c *Count) (string, bool) { return c.Station, true })
	means := make([]float64, 0, len(stations))
	for _, st := range stations {
		means = append(means, statistics.Mean(byStation[st]))
	}
	s.Stations = len(stations)
	s.AvgPerStation = statistics.Mean(means)

	hours, byHour := groupTotals(counts, func(c *Count) (int, bool) { return c.Hour, true })
	sort.Ints(hours)
	s.PeakHourMean = math.Inf(-1)
	for _, h := range hours {
		if m := statistics.Mean(byHour[h]); m > s.PeakHourMean {
			s.PeakHour = h
			s.PeakHourMean = m
		}
	}

	return s
}

type StationDistribution struct {
	Station string           `json:"station"`
	Stats   statistics.Stats `json:"stats"`
}

// Distribution of hourly totals per station, for the given stations
// (all when empty), ordered by station.
func StationDistributions(counts []Count, stations []string) []StationDistribution {
	want := stringSet(stations)
	names, groups := groupTotals(counts, func(c *Count) (string, bool) {
		return c.Station, len(want) == 0 || want[c.Station]
	})
	sort.Strings(names)

	out := make([]StationDistribution, 0, len(names))
	for _, n := range names {
		out = append(out, StationDistribution{Station: n, Stats: statistics.Describe(groups[n])})
	}
	return out
}

// The n stations with the highest median hourly total, highest first.
func TopStations(counts []Count, n int) []string {
	dists := StationDistributions(counts, nil)
	sort.SliceStable(dists, func(i, j int) bool {
		return statistics.Value(dists[i].Stats.Median) > statistics.Value(dists[j].Stats.Median)
	})

	out := []string{}
	for i := 0; i < len(dists) && i < n; i++ {
		out = append(out, dists[i].Station)
	}
	return out
}

type HourlyPoint struct {
	Hour    int     `json:"hour"`
	Year    int     `json:"year"`
	Station string  `json:"station"`
	Mean    float64 `json:"mean"`
}

// Mean total per hour, year and station, restricted to the given
// years and stations (all when empty). Ordered by station, year and
// hour.
func HourlyProfile(counts []Count, years []int, stations []string) []HourlyPoint {
	type key struct {
		hour, year int
		station    string
	}

	wantYear := intSet(years)
	wantStation := stringSet(stations)
	keys, groups := groupTotals(counts, func(c *Count) (key, bool) {
		if len(wantYear) > 0 && !wantYear[c.Date.Year()] {
			return key{}, false
		}
		if len(wantStation) > 0 && !wantStation[c.Station] {
			return key{}, false
		}
		return key{c.Hour, c.Date.Year(), c.Station}, true
	})

	sort.Slice(keys, func(i, j int) bool {
		if keys[i].station != keys[j].station {
			return keys[i].station < keys[j].station
		}
		if keys[i].year != keys[j].year {
			return keys[i].year < keys[j].year
		}
		return keys[i].hour < keys[j].hour
	})

	out := make([]HourlyPoint, 0, len(keys))
	for _, k := range keys {
		out = append(out, HourlyPoint{
			Hour:    k.hour,
			Year:    k.year,
			Station: k.station,
			Mean:    statistics.Mean(groups[k]),
		})
	}
	return out
}

type DayMean struct {
	Day  string  `json:"day"`
	Mean float64 `json:"mean"`
}

// Monday first.
var weekOrder = []time.Weekday{
	time.Monday,
	time.Tuesday,
	time.Wednesday,
	time.Thursday,
	time.Friday,
	time.Saturday,
	time.Sunday,
}

// Mean total per day of the week for one station in a given year and
// month, Monday to Sunday. Days without counts are left out.
func WeeklyProfile(counts []Count, station string, year int, month time.Month) []DayMean {
	_, groups := groupTotals(counts, func(c *Count) (time.Weekday, bool) {
		return c.Date.Weekday(), c.Station == station && c.Date.Year() == year && c.Date.Month() == month
	})

	out := []DayMean{}
	for _, d := range weekOrder {
		if values, found := groups[d]; found {
			out = append(out, DayMean{Day: d.String(), Mean: statistics.Mean(values)})
		}
	}
	return out
}

type MonthMean struct {
	Month int     `json:"month"`
	Mean  float64 `json:"mean"`
}

// Mean total per month for one station in a given year.
func MonthlyProfile(counts []Count, station string, year int) []MonthMean {
	months, groups := groupTotals(counts, func(c *Count) (int, bool) {
		return int(c.Date.Month()), c.Station == station && c.Date.Year() == year
	})
	sort.Ints(months)

	out := make([]MonthMean, 0, len(months))
	for _, m := range months {
		out = append(out, MonthMean{Month: m, Mean: statistics.Mean(groups[m])})
	}
	return out
}

type YearStats struct {
	Year  int     `json:"year"`
	Mean  float64 `json:"mean"`
	Std   float64 `json:"std"`
	Count int     `json:"count"`

	// 95% confidence interval of the mean.
	Lower float64 `json:"ci_lower"`
	Upper float64 `json:"ci_upper"`
}

// Per-year mean, sample std and count for one station.
func YearlyStats(counts []Count, station string) []YearStats {
	years, groups := groupTotals(counts, func(c *Count) (int, bool) {
		return c.Date.Year(), c.Station == station
	})
	sort.Ints(years)

	out := make([]YearStats, 0, len(years))
	for _, y := range years {
		values := groups[y]
		ys := YearStats{
			Year:  y,
			Mean:  statistics.Mean(values),
			Std:   statistics.SampleStd(values),
			Count: len(values),
		}
		margin := 1.96 * ys.Std / math.Sqrt(float64(ys.Count))
		ys.Lower = ys.Mean - margin
		ys.Upper = ys.Mean + margin
		out = append(out, ys)
	}
	return out
}

// Meteorological season of a month, northern hemisphere.
func Season(m time.Month) string {
	switch m {
	case time.December, time.January, time.February:
		return "Winter"
	case time.March, time.April, time.May:
		return "Spring"
	case time.June, time.July, time.August:
		return "Summer"
	}
	return "Autumn"
}

var seasonOrder = []string{"Winter", "Spring", "Summer", "Autumn"}

type SeasonMean struct {
	Season string  `json:"season"`
	Mean   float64 `json:"mean"`
}

// Mean total per season of a year, Winter to Autumn.
func SeasonProfile(counts []Count, year int) []SeasonMean {
	_, groups := groupTotals(counts, func(c *Count) (string, bool) {
		return Season(c.Date.Month()), c.Date.Year() == year
	})

	out := []SeasonMean{}
	for _, s := range seasonOrder {
		if values, found := groups[s]; found {
			out = append(out, SeasonMean{Season: s, Mean: statistics.Mean(values)})
		}
	}
	return out
}

type HourDayType struct {
	Hour    int     `json:"hour"`
	DayType string  `json:"day_type"`
	Mean    float64 `json:"mean"`
}

// Hourly means split by weekday and weekend, along with the bounds of
// low (25th percentile) and high (75th percentile) traffic.
type DayTypeProfile struct {
	Hours []HourDayType `json:"hours"`
	Low   float64       `json:"low"`
	High  float64       `json:"high"`
}

// Builds the day type profile of one station. A month of 0 selects
// all months.
func DayTypeProfileFor(counts []Count, station string, month time.Month) DayTypeProfile {
	type key struct {
		hour    int
		dayType string
	}

	keys, groups := groupTotals(counts, func(c *Count) (key, bool) {
		if c.Station != station || (month != 0 && c.Date.Month() != month) {
			return key{}, false
		}
		return key{c.Hour, c.DayType()}, true
	})
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].hour != keys[j].hour {
			return keys[i].hour < keys[j].hour
		}
		return keys[i].dayType < keys[j].dayType
	})

	p := DayTypeProfile{Hours: []HourDayType{}}
	all := []float64{}
	for _, k := range keys {
		all = append(all, groups[k]...)
		p.Hours = append(p.Hours, HourDayType{
			Hour:    k.hour,
			DayType: k.dayType,
			Mean:    statistics.Mean(groups[k]),
		})
	}

	if len(all) > 0 {
		p.Low, _ = stats.Percentile(all, 25)
		p.High, _ = stats.Percentile(all, 75)
	}

	return p
}

type StationShare struct {
	Station      string  `json:"station"`
	HeavyPercent float64 `json:"heavy_percent"`
}

// Mean share of heavy vehicles per station, in percent, ordered by
// station. Hours with no vehicles are left out.
func HeavyShare(counts []Count) []StationShare {
	shares := map[string][]float64{}
	for i := range counts {
		c := &counts[i]
		if c.Total == 0 {
			continue
		}
		shares[c.Station] = append(shares[c.Station], float64(c.Heavy)/float64(c.Total)*100)
	}

	names := make([]string, 0, len(shares))
	for n := range shares {
		names = append(names, n)
	}
	sort.Strings(names)

	out := make([]StationShare, 0, len(names))
	for _, n := range names {
		out = append(out, StationShare{Station: n, HeavyPercent: statistics.Mean(shares[n])})
	}
	return out
}

// Distinct years with counts, ascending.
func Years(counts []Count) []int {
	years, _ := groupTotals(counts, func(c *Count) (int, bool) { return c.Date.Year(), true })
	sort.Ints(years)
	return years
}

func stringSet(list []string) map[string]bool {
	set := map[string]bool{}
	for _, s := range list {
		set[s] = true
	}
	return set
}

func intSet(list []int) map[int]bool {
	set := map[int]bool{}
	for _, i := range list {
		set[i] = true
	}
	return set
}
