package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"tidbyt.dev/gtfsstats"
	"tidbyt.dev/gtfsstats/model"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Shows what was loaded, skipped and flagged",
	Args:  cobra.NoArgs,
	RunE:  report,
}

var showRows bool

func init() {
	reportCmd.Flags().BoolVarP(&showRows, "rows", "", false, "List every rejected row")
	rootCmd.AddCommand(reportCmd)
}

func report(cmd *cobra.Command, args []string) error {
	snapshot, err := LoadSnapshot()
	if err != nil {
		return err
	}

	r := snapshot.Report
	quality := gtfsstats.QualityCounts(snapshot.Segments)

	if outputJSON {
		return printJSON(struct {
			Location string                `json:"location"`
			Segments int                   `json:"segments"`
			Quality  map[model.Quality]int `json:"quality"`
			Report   interface{}           `json:"report"`
		}{snapshot.Location, len(snapshot.Segments), quality, r})
	}

	fmt.Printf("Location: %s\n", snapshot.Location)
	fmt.Printf("Latest arrival: %s\n", model.FormatOffset(r.MaxArrival))

	files := make([]string, 0, len(r.Accepted))
	for f := range r.Accepted {
		files = append(files, f)
	}
	sort.Strings(files)
	fmt.Println("\nAccepted rows:")
	for _, f := range files {
		fmt.Printf("  %s: %d\n", f, r.Accepted[f])
	}

	if len(r.RejectedFiles) > 0 {
		fmt.Println("\nSkipped files:")
		for _, f := range r.RejectedFiles {
			fmt.Printf("  %s: %s %s\n", f.File, f.Reason, f.Detail)
		}
	}

	if len(r.RejectedRows) > 0 {
		fmt.Println("\nRejected rows:")
		for _, f := range files {
			for reason, n := range r.RowsRejected(f) {
				fmt.Printf("  %s: %d %s\n", f, n, reason)
			}
		}
		if showRows {
			for _, row := range r.RejectedRows {
				fmt.Printf("  %s row %d: %s (%s)\n", row.File, row.Row, row.Reason, row.Detail)
			}
		}
	}

	fmt.Printf("\nSegments: %d\n", len(snapshot.Segments))
	for _, q := range []model.Quality{
		model.QualityOK,
		model.QualityFirstStop,
		model.QualityZeroTime,
		model.QualityNegativeTime,
		model.QualityNegativeDistance,
	} {
		fmt.Printf("  %s: %d\n", q, quality[q])
	}

	return nil
}
