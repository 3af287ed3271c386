package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"tidbyt.dev/gtfsstats"
	"tidbyt.dev/gtfsstats/model"
	"tidbyt.dev/gtfsstats/statistics"
)

var segmentsCmd = &cobra.Command{
	Use:   "segments",
	Short: "Lists stop-to-stop segments",
	Args:  cobra.NoArgs,
	RunE:  segments,
}

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Summarizes segments per route and service",
	Args:  cobra.NoArgs,
	RunE:  summary,
}

var byStop bool

func init() {
	addViewFlags(segmentsCmd)
	addViewFlags(summaryCmd)
	summaryCmd.Flags().BoolVarP(&byStop, "by-stop", "", false, "Summarize per route and stop instead")

	rootCmd.AddCommand(segmentsCmd)
	rootCmd.AddCommand(summaryCmd)
}

func segments(cmd *cobra.Command, args []string) error {
	req, err := viewRequest()
	if err != nil {
		return err
	}

	snapshot, err := LoadSnapshot()
	if err != nil {
		return err
	}

	segments := snapshot.View(req)
	if outputJSON {
		return printJSON(segments)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TRIP\tROUTE\tSERVICE\tSEQ\tSTOP\tARRIVAL\tTIME\tDISTANCE\tSPEED\tQUALITY")
	for _, s := range segments {
		fmt.Fprintf(
			w, "%s\t%s\t%s\t%d\t%s\t%s\t%.0f\t%.1f\t%.2f\t%s\n",
			s.TripID, s.RouteID, s.ServiceID, s.StopSequence, s.StopID,
			model.FormatOffset(s.Arrival),
			s.TimeBetweenStops, s.DistanceBetweenStops, s.AvgSpeed,
			s.Quality,
		)
	}
	w.Flush()

	stats := gtfsstats.DescribeField(segments, req.Field, req.PositiveOnly)
	fmt.Printf("\n%s: %s\n", req.Field, formatStats(stats))

	return nil
}

func formatStats(s statistics.Stats) string {
	if s.Count == 0 {
		return "no values"
	}
	return fmt.Sprintf(
		"count=%d mean=%.2f median=%.2f std=%.2f min=%.2f max=%.2f",
		s.Count,
		statistics.Value(s.Mean),
		statistics.Value(s.Median),
		s.Std,
		statistics.Value(s.Min),
		statistics.Value(s.Max),
	)
}

func summary(cmd *cobra.Command, args []string) error {
	req, err := viewRequest()
	if err != nil {
		return err
	}

	snapshot, err := LoadSnapshot()
	if err != nil {
		return err
	}

	segments := snapshot.View(req)

	if byStop {
		summaries := gtfsstats.SummarizeRouteStops(segments)
		if outputJSON {
			return printJSON(summaries)
		}
		for _, s := range summaries {
			fmt.Printf("%s %s\n  time:  %s\n  speed: %s\n", s.RouteID, s.StopID, formatStats(s.Time), formatStats(s.Speed))
		}
		return nil
	}

	summaries := gtfsstats.SummarizeRouteServices(segments, snapshot.Trips)
	if outputJSON {
		return printJSON(summaries)
	}
	for _, s := range summaries {
		fmt.Printf(
			"%s %s: %d trips, avg travel time %.0fs\n  time:  %s\n  speed: %s\n",
			s.RouteID, s.ServiceID, s.TripCount, s.AvgTravelTime,
			formatStats(s.Time), formatStats(s.Speed),
		)
	}

	return nil
}
