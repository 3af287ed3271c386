package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"tidbyt.dev/gtfsstats"
	"tidbyt.dev/gtfsstats/config"
	"tidbyt.dev/gtfsstats/downloader"
	"tidbyt.dev/gtfsstats/parse"
	"tidbyt.dev/gtfsstats/traffic"
)

var rootCmd = &cobra.Command{
	Use:               "gtfsstats",
	Short:             "GTFS segment statistics",
	Long:              "Derives stop-to-stop timing, distance and speed statistics from GTFS stop time snapshots",
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

var (
	configPath   string
	dataLocation string
	trafficDir   string
	distanceUnit string
	storageName  string
	headers      []string
	debug        bool
	outputJSON   bool

	cfg *config.Config
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to YAML config file")
	rootCmd.PersistentFlags().StringVarP(&dataLocation, "data", "d", "", "Snapshot directory or base URL")
	rootCmd.PersistentFlags().StringVarP(&trafficDir, "traffic", "", "", "Directory of traffic count files")
	rootCmd.PersistentFlags().StringVarP(&distanceUnit, "unit", "u", "", "Unit of shape_dist_traveled: auto, meters or kilometers")
	rootCmd.PersistentFlags().StringVarP(&storageName, "storage", "", "", "Staging backend: memory or sqlite")
	rootCmd.PersistentFlags().StringSliceVarP(
		&headers,
		"header",
		"",
		[]string{},
		"HTTP header sent when data is a URL",
	)
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVarP(&outputJSON, "json", "j", false, "Output JSON")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// Loads config and applies flag overrides.
func setup(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.Load(configPath)
	if err != nil {
		return err
	}

	if dataLocation != "" {
		cfg.Data = dataLocation
	}
	if trafficDir != "" {
		cfg.TrafficDir = trafficDir
	}
	if distanceUnit != "" {
		cfg.Distance.Unit = distanceUnit
	}
	if storageName != "" {
		cfg.Storage = storageName
	}
	if debug {
		cfg.Log.Debug = true
	}

	parsed, err := parseHeaders(headers)
	if err != nil {
		return fmt.Errorf("invalid header: %w", err)
	}
	if cfg.Headers == nil {
		cfg.Headers = map[string]string{}
	}
	for k, v := range parsed {
		cfg.Headers[k] = v
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	setupLogging(cfg.Log)

	return nil
}

func setupLogging(c config.LogConfig) {
	if c.Format != "json" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	if c.Debug {
		log.Logger = log.Logger.Level(zerolog.DebugLevel)
	} else {
		log.Logger = log.Logger.Level(zerolog.InfoLevel)
	}
}

func parseHeaders(headers []string) (map[string]string, error) {
	parsed := map[string]string{}
	for _, header := range headers {
		parts := strings.SplitN(header, ":", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("'%s' is not on form <key>:<value>", header)
		}
		parsed[strings.TrimSpace(parts[0])] = strings.TrimSpace(parts[1])
	}
	return parsed, nil
}

func source() downloader.Source {
	src := downloader.NewSource(cfg.Data)
	if h, ok := src.(*downloader.HTTP); ok {
		h.Headers = cfg.Headers
	}
	return src
}

func LoadSnapshot() (*gtfsstats.Snapshot, error) {
	snapshot, err := cfg.NewManager().LoadSnapshot(context.Background(), source())
	if err != nil {
		return nil, err
	}

	if n := len(snapshot.Report.RejectedFiles); n > 0 {
		log.Warn().Int("files", n).Msg("Some files were skipped, see 'gtfsstats report'")
	}

	return snapshot, nil
}

func LoadTraffic() (*traffic.Dataset, error) {
	if cfg.TrafficDir == "" {
		return nil, fmt.Errorf("traffic directory is required")
	}
	return cfg.NewManager().LoadTraffic(context.Background(), cfg.TrafficDir)
}

// Filters shared by the commands viewing segments.
var (
	routeID    string
	serviceIDs []string
	stopIDs    []string
	direction  int
	fromTime   string
	toTime     string
	fieldName  string
	positive   bool
)

func addViewFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&routeID, "route", "r", "", "Restrict to a specific route")
	cmd.Flags().StringSliceVarP(&serviceIDs, "service", "s", []string{}, "Restrict to services")
	cmd.Flags().StringSliceVarP(&stopIDs, "stop", "", []string{}, "Restrict to stops")
	cmd.Flags().IntVarP(&direction, "direction", "", -1, "Restrict to a specific direction")
	cmd.Flags().StringVarP(&fromTime, "from", "", "", "Earliest arrival time of day (HH:MM)")
	cmd.Flags().StringVarP(&toTime, "to", "", "", "Latest arrival time of day (HH:MM)")
	cmd.Flags().StringVarP(&fieldName, "field", "f", "", "Field: time_between_stops, avg_speed or distance_between_stops")
	cmd.Flags().BoolVarP(&positive, "positive", "p", false, "Only segments where the field is positive")
}

func viewRequest() (gtfsstats.ViewRequest, error) {
	req := gtfsstats.ViewRequest{
		RouteID:      routeID,
		ServiceIDs:   serviceIDs,
		StopIDs:      stopIDs,
		PositiveOnly: positive,
	}

	field, err := gtfsstats.ParseField(fieldName)
	if err != nil {
		return req, err
	}
	req.Field = field

	if direction == 0 || direction == 1 {
		d := int8(direction)
		req.DirectionID = &d
	} else if direction != -1 {
		return req, fmt.Errorf("direction must be 0 or 1")
	}

	if fromTime != "" || toTime != "" {
		start, err := parse.ParseClock(fromTime)
		if err != nil {
			return req, fmt.Errorf("invalid --from: %w", err)
		}
		end, err := parse.ParseClock(toTime)
		if err != nil {
			return req, fmt.Errorf("invalid --to: %w", err)
		}
		req.Arrival = &gtfsstats.TimeWindow{Start: start, End: end}
	}

	return req, nil
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
