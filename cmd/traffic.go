package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"tidbyt.dev/gtfsstats/traffic"
)

var trafficCmd = &cobra.Command{
	Use:   "traffic",
	Short: "Hourly vehicle count analyses",
}

var (
	trafficStations []string
	trafficStation  string
	trafficYears    []int
	trafficYear     int
	trafficMonth    int
	topN            int
)

func trafficSubcommand(use string, short string, run func(*traffic.Dataset) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := LoadTraffic()
			if err != nil {
				return err
			}
			return run(ds)
		},
	}
}

func init() {
	summary := trafficSubcommand("summary", "Totals and peak hour", trafficSummary)
	stations := trafficSubcommand("stations", "Distribution of hourly totals per station", trafficStationStats)
	top := trafficSubcommand("top", "Stations with the highest median hourly total", trafficTop)
	hourly := trafficSubcommand("hourly", "Mean total per hour of day", trafficHourly)
	weekly := trafficSubcommand("weekly", "Mean total per day of week", trafficWeekly)
	monthly := trafficSubcommand("monthly", "Mean total per month", trafficMonthly)
	yearly := trafficSubcommand("yearly", "Mean total per year with 95% confidence interval", trafficYearly)
	seasons := trafficSubcommand("seasons", "Mean total per season", trafficSeasons)
	daytype := trafficSubcommand("daytype", "Weekday and weekend hourly means", trafficDayType)
	heavy := trafficSubcommand("heavy", "Share of heavy vehicles per station", trafficHeavy)

	stations.Flags().StringSliceVarP(&trafficStations, "station", "", []string{}, "Restrict to stations")
	top.Flags().IntVarP(&topN, "n", "n", 5, "Number of stations")
	hourly.Flags().StringSliceVarP(&trafficStations, "station", "", []string{}, "Restrict to stations")
	hourly.Flags().IntSliceVarP(&trafficYears, "year", "", []int{}, "Restrict to years")
	for _, cmd := range []*cobra.Command{weekly, monthly, yearly, daytype} {
		cmd.Flags().StringVarP(&trafficStation, "station", "", "", "Station code")
		cmd.MarkFlagRequired("station")
	}
	for _, cmd := range []*cobra.Command{weekly, monthly, seasons} {
		cmd.Flags().IntVarP(&trafficYear, "year", "", 0, "Year (defaults to latest)")
	}
	for _, cmd := range []*cobra.Command{weekly, daytype} {
		cmd.Flags().IntVarP(&trafficMonth, "month", "", 0, "Month, 1-12 (0 for all)")
	}

	for _, cmd := range []*cobra.Command{summary, stations, top, hourly, weekly, monthly, yearly, seasons, daytype, heavy} {
		trafficCmd.AddCommand(cmd)
	}
	rootCmd.AddCommand(trafficCmd)
}

func year(ds *traffic.Dataset) int {
	if trafficYear != 0 {
		return trafficYear
	}
	years := traffic.Years(ds.Counts)
	if len(years) == 0 {
		return 0
	}
	return years[len(years)-1]
}

func month() (time.Month, error) {
	if trafficMonth < 0 || trafficMonth > 12 {
		return 0, fmt.Errorf("month must be between 1 and 12")
	}
	return time.Month(trafficMonth), nil
}

func trafficSummary(ds *traffic.Dataset) error {
	s := traffic.Summarize(ds.Counts)
	if outputJSON {
		return printJSON(s)
	}

	years := []string{}
	for _, y := range traffic.Years(ds.Counts) {
		years = append(years, fmt.Sprintf("%d", y))
	}

	fmt.Printf("Records: %d\n", s.Records)
	fmt.Printf("Stations: %d\n", s.Stations)
	fmt.Printf("Years: %s\n", strings.Join(years, ", "))
	fmt.Printf("Total vehicles: %d\n", s.TotalVehicles)
	fmt.Printf("Average per station: %.0f\n", s.AvgPerStation)
	fmt.Printf("Peak hour: %02d:00 (%.1f vehicles/h)\n", s.PeakHour, s.PeakHourMean)

	if n := len(ds.Report.RejectedFiles); n > 0 {
		fmt.Printf("Skipped files: %d\n", n)
	}
	if n := len(ds.Report.RejectedRows); n > 0 {
		fmt.Printf("Rejected rows: %d\n", n)
	}
	return nil
}

func trafficStationStats(ds *traffic.Dataset) error {
	dists := traffic.StationDistributions(ds.Counts, trafficStations)
	if outputJSON {
		return printJSON(dists)
	}
	for _, d := range dists {
		fmt.Printf("%s: %s\n", d.Station, formatStats(d.Stats))
	}
	return nil
}

func trafficTop(ds *traffic.Dataset) error {
	top := traffic.TopStations(ds.Counts, topN)
	if outputJSON {
		return printJSON(top)
	}
	for i, s := range top {
		fmt.Printf("%d. %s\n", i+1, s)
	}
	return nil
}

func trafficHourly(ds *traffic.Dataset) error {
	points := traffic.HourlyProfile(ds.Counts, trafficYears, trafficStations)
	if outputJSON {
		return printJSON(points)
	}
	for _, p := range points {
		fmt.Printf("%d %s %02d:00 %.1f\n", p.Year, p.Station, p.Hour, p.Mean)
	}
	return nil
}

func trafficWeekly(ds *traffic.Dataset) error {
	m, err := month()
	if err != nil {
		return err
	}
	days := traffic.WeeklyProfile(ds.Counts, trafficStation, year(ds), m)
	if outputJSON {
		return printJSON(days)
	}
	for _, d := range days {
		fmt.Printf("%s: %.1f\n", d.Day, d.Mean)
	}
	return nil
}

func trafficMonthly(ds *traffic.Dataset) error {
	months := traffic.MonthlyProfile(ds.Counts, trafficStation, year(ds))
	if outputJSON {
		return printJSON(months)
	}
	for _, m := range months {
		fmt.Printf("%s: %.1f\n", time.Month(m.Month), m.Mean)
	}
	return nil
}

func trafficYearly(ds *traffic.Dataset) error {
	years := traffic.YearlyStats(ds.Counts, trafficStation)
	if outputJSON {
		return printJSON(years)
	}
	for _, y := range years {
		fmt.Printf("%d: %.1f [%.1f, %.1f] (n=%d)\n", y.Year, y.Mean, y.Lower, y.Upper, y.Count)
	}
	return nil
}

func trafficSeasons(ds *traffic.Dataset) error {
	seasons := traffic.SeasonProfile(ds.Counts, year(ds))
	if outputJSON {
		return printJSON(seasons)
	}
	for _, s := range seasons {
		fmt.Printf("%s: %.1f\n", s.Season, s.Mean)
	}
	return nil
}

func trafficDayType(ds *traffic.Dataset) error {
	m, err := month()
	if err != nil {
		return err
	}
	p := traffic.DayTypeProfileFor(ds.Counts, trafficStation, m)
	if outputJSON {
		return printJSON(p)
	}
	for _, h := range p.Hours {
		fmt.Printf("%02d:00 %s: %.1f\n", h.Hour, h.DayType, h.Mean)
	}
	fmt.Printf("\nInterquartile range: %.1f - %.1f\n", p.Low, p.High)
	return nil
}

func trafficHeavy(ds *traffic.Dataset) error {
	shares := traffic.HeavyShare(ds.Counts)
	if outputJSON {
		return printJSON(shares)
	}
	for _, s := range shares {
		fmt.Printf("%s: %.2f%%\n", s.Station, s.HeavyPercent)
	}
	return nil
}
