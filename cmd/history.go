package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"orderload/internal/storage"
)

var (
	historyLimit int
	historyJSON  bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List archived load test runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := storage.DefaultPath()
		if err != nil {
			return fmt.Errorf("resolve history path: %w", err)
		}

		st, err := storage.Open(path)
		if err != nil {
			return fmt.Errorf("open history: %w", err)
		}
		defer st.Close()

		recs, err := st.List(historyLimit)
		if err != nil {
			return fmt.Errorf("list history: %w", err)
		}

		if historyJSON {
			data, err := json.MarshalIndent(recs, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(data))
			return nil
		}

		if len(recs) == 0 {
			fmt.Println("No runs recorded yet.")
			return nil
		}
		printHistory(os.Stdout, recs)
		return nil
	},
}

func printHistory(w io.Writer, recs []storage.RunRecord) {
	header := color.New(color.FgHiCyan, color.Bold)
	header.Fprintf(w, "%-8s  %-16s  %8s  %7s  %8s  %7s  %7s  %7s  %7s\n",
		"ID", "STARTED", "DURATION", "WORKERS", "RATE/MIN", "TOTAL", "ERRORS", "P95 MS", "REQ/S")
	for _, r := range recs {
		fmt.Fprintf(w, "%-8s  %-16s  %7ds  %7d  %8d  %7d  %7d  %7d  %7.2f\n",
			r.ID[:8], r.StartedAt.Format("2006-01-02 15:04"), int(r.ElapsedSec),
			r.Config.Workers, r.Config.RatePerMin,
			r.Summary.Total, r.Summary.Errors, r.Summary.P95Ms, r.Throughput)
	}
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "maximum number of runs to show (0 for all)")
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "print runs as JSON")

	rootCmd.AddCommand(historyCmd)
}
