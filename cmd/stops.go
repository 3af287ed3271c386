package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"tidbyt.dev/gtfsstats"
)

var stopsCmd = &cobra.Command{
	Use:   "stops",
	Short: "Lists stops with the routes visiting them",
	Args:  cobra.NoArgs,
	RunE:  stops,
}

func init() {
	addViewFlags(stopsCmd)
	rootCmd.AddCommand(stopsCmd)
}

func stops(cmd *cobra.Command, args []string) error {
	req, err := viewRequest()
	if err != nil {
		return err
	}

	snapshot, err := LoadSnapshot()
	if err != nil {
		return err
	}

	index := gtfsstats.RouteStopIndex(snapshot.View(req))
	stops := gtfsstats.StopRoutesList(snapshot.StopList(), index)

	if outputJSON {
		return printJSON(stops)
	}

	for _, stop := range stops {
		fmt.Printf("%s: %s (%.5f, %.5f) [%s]\n", stop.StopID, stop.Name, stop.Lat, stop.Lon, strings.Join(stop.Routes, ", "))
	}

	return nil
}
