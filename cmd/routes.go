package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"tidbyt.dev/gtfsstats"
)

var profileCmd = &cobra.Command{
	Use:   "profile <route_id>",
	Short: "Shows the mean speed at each stop of a route",
	Args:  cobra.ExactArgs(1),
	RunE:  profile,
}

var corridorCmd = &cobra.Command{
	Use:   "corridor <route_id> <from_stop_id> <to_stop_id>",
	Short: "Compares bus and bicycle over a stretch of a route",
	Args:  cobra.ExactArgs(3),
	RunE:  corridor,
}

var speedmapCmd = &cobra.Command{
	Use:   "speedmap",
	Short: "Lists mean speed between consecutive stops along each shape",
	Args:  cobra.NoArgs,
	RunE:  speedmap,
}

var durationsCmd = &cobra.Command{
	Use:   "durations",
	Short: "Compares trip durations of route patterns across services",
	Args:  cobra.NoArgs,
	RunE:  durations,
}

var bicycleKmh float64

func init() {
	corridorCmd.Flags().Float64VarP(&bicycleKmh, "bike", "b", 0, "Cycling speed in km/h (defaults to config)")
	addViewFlags(speedmapCmd)
	addViewFlags(durationsCmd)

	rootCmd.AddCommand(profileCmd)
	rootCmd.AddCommand(corridorCmd)
	rootCmd.AddCommand(speedmapCmd)
	rootCmd.AddCommand(durationsCmd)
}

func profile(cmd *cobra.Command, args []string) error {
	snapshot, err := LoadSnapshot()
	if err != nil {
		return err
	}

	profile := gtfsstats.RouteProfile(snapshot.Segments, snapshot.Stops, args[0])
	if outputJSON {
		return printJSON(profile)
	}
	if len(profile) == 0 {
		return fmt.Errorf("no profile for route '%s'", args[0])
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SEQ\tSTOP\tNAME\tKM/H\tSAMPLES\tNEXT\tNEXT KM/H")
	for _, p := range profile {
		fmt.Fprintf(
			w, "%d\t%s\t%s\t%.1f\t%d\t%s\t%.1f\n",
			p.StopSequence, p.StopID, p.StopName, p.SpeedKmh, p.Samples,
			p.NextStopName, p.NextStopSpeedKmh,
		)
	}
	return w.Flush()
}

func corridor(cmd *cobra.Command, args []string) error {
	snapshot, err := LoadSnapshot()
	if err != nil {
		return err
	}

	profile := gtfsstats.RouteProfile(snapshot.Segments, snapshot.Stops, args[0])
	c := gtfsstats.CorridorSpeed(profile, args[1], args[2])
	if !c.Available {
		return fmt.Errorf("no speed data between '%s' and '%s' on route '%s'", args[1], args[2], args[0])
	}

	bike := bicycleKmh
	if bike <= 0 {
		bike = cfg.BicycleKmh
	}
	m := gtfsstats.CompareModes(c, bike)

	if outputJSON {
		return printJSON(struct {
			Corridor   gtfsstats.Corridor       `json:"corridor"`
			Comparison gtfsstats.ModeComparison `json:"comparison"`
		}{c, m})
	}

	fmt.Printf("%d segments, ~%.1f km\n", c.Segments, m.DistanceKm)
	fmt.Printf("bus:     %.1f km/h, %.1f min\n", m.BusKmh, m.BusMinutes)
	fmt.Printf("bicycle: %.1f km/h, %.1f min\n", m.BicycleKmh, m.BicycleMinutes)
	fmt.Printf("faster:  %s\n", m.Faster)

	return nil
}

func speedmap(cmd *cobra.Command, args []string) error {
	req, err := viewRequest()
	if err != nil {
		return err
	}

	snapshot, err := LoadSnapshot()
	if err != nil {
		return err
	}

	speeds := snapshot.SpeedMap(req)
	if outputJSON {
		return printJSON(speeds)
	}

	for _, s := range speeds {
		fmt.Printf("%s %s -> %s: %.2f m/s (%d samples, %s)\n", s.ShapeID, s.PrevStopID, s.StopID, s.AvgSpeed, s.Samples, s.Color)
	}

	return nil
}

func durations(cmd *cobra.Command, args []string) error {
	req, err := viewRequest()
	if err != nil {
		return err
	}

	snapshot, err := LoadSnapshot()
	if err != nil {
		return err
	}

	result := gtfsstats.CompareServiceDurations(
		gtfsstats.TripDurations(snapshot.View(req)),
		cfg.ServiceLabels,
	)
	if outputJSON {
		return printJSON(result)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ROUTE\tDISTANCE\tSERVICE\tTRIPS\tMEAN\tSTD\tMIN\tMAX\tMEDIAN")
	for _, d := range result {
		service := d.ServiceID
		if d.ServiceLabel != "" {
			service = fmt.Sprintf("%s (%s)", d.ServiceID, d.ServiceLabel)
		}
		fmt.Fprintf(
			w, "%s\t%.0f\t%s\t%d\t%.0f\t%.0f\t%.0f\t%.0f\t%.0f\n",
			d.RouteID, d.MaxDistance, service, d.Count, d.Mean, d.Std, d.Min, d.Max, d.Median,
		)
	}
	return w.Flush()
}
