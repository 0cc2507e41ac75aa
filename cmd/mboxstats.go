package cmd

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dhcgn/emlbox/config"
	"github.com/dhcgn/emlbox/filter"
	"github.com/dhcgn/emlbox/mbox"
	"github.com/dhcgn/emlbox/progress"
	"github.com/dhcgn/emlbox/stats"
)

const csvReportLimit = 1000

var headersToTrack = []string{"Delivered-To", "Subject", "From", "To"}

func newMboxStatsCmd() *cobra.Command {
	var (
		reportDir string
		topN      int
		countOnly bool
	)

	cmd := &cobra.Command{
		Use:   "mbox-stats <mbox file>",
		Short: "Analyse the mbox file and show statistics",
		Args:  cobra.MatchAll(cobra.ExactArgs(1), filePathArg(0)),
		RunE: func(cmd *cobra.Command, args []string) error {
			mboxPath := args[0]
			out := cmd.OutOrStdout()

			cfg, logger, cleanup, err := setup(cmd)
			if err != nil {
				return err
			}
			defer func() {
				_ = cleanup()
			}()

			if countOnly {
				total, err := mbox.CountMessages(mboxPath)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%d messages in %s\n", total, mboxPath)
				return nil
			}

			f, err := filter.New(cfg.Filter)
			if err != nil {
				return fmt.Errorf("create filter: %w", err)
			}

			fmt.Fprintln(out, "Analyzing mbox file:", mboxPath)

			counter := make(map[string]stats.Counter, len(headersToTrack))
			for _, h := range headersToTrack {
				counter[h] = stats.Counter{}
			}

			messageCount := 0
			skippedCount := 0
			sink := progress.New(-1, "Analyzing", cfg.ProgressEnabled())

			err = mbox.Read(mboxPath, logger, func(m *mbox.MboxMessage) error {
				if !f.Allows(m.RawHeader, m.Body) {
					skippedCount++
					return nil
				}

				messageCount++
				for _, headerName := range headersToTrack {
					counter[headerName].Add(headerValue(m, headerName))
				}

				if messageCount%250 == 0 {
					sink.Step(fmt.Sprintf("%d messages", messageCount))
				}
				return nil
			})
			sink.Stop()
			if err != nil {
				return fmt.Errorf("error reading mbox file: %w", err)
			}

			printStats(out, counter, messageCount, skippedCount, topN)

			if err := saveCSVReports(counter, headersToTrack, reportDir, csvReportLimit); err != nil {
				return fmt.Errorf("error saving CSV reports: %w", err)
			}

			fmt.Fprintf(out, "\nReports saved to directory: %s\n", reportDir)
			return nil
		},
	}

	cmd.Flags().StringVarP(&reportDir, "output", "o", ".", "Output directory for CSV reports")
	cmd.Flags().IntVarP(&topN, "top", "t", 10, "Number of top items to display in statistics")
	cmd.Flags().BoolVar(&countOnly, "count-only", false, "Only count the messages in the archive")
	config.RegisterFilterFlags(cmd)
	return cmd
}

// headerValue returns the display value tallied for a header.
func headerValue(m *mbox.MboxMessage, name string) string {
	switch name {
	case "From":
		return m.Sender()
	case "Subject":
		return m.Text(name)
	default:
		return m.Headers.Get(name)
	}
}

func printStats(w io.Writer, counter map[string]stats.Counter, messageCount, skippedCount, topN int) {
	total := messageCount + skippedCount
	var filterPercent float64
	if total > 0 {
		filterPercent = float64(skippedCount) / float64(total) * 100
	}
	fmt.Fprintf(w, "Processed %d messages (skipped %d by filters, %.2f%%)\n\n", messageCount, skippedCount, filterPercent)

	for _, header := range headersToTrack {
		fmt.Fprintf(w, "Top %d %s:\n", topN, header)
		stats.PrettyPrintTop(w, counter[header], topN)
		fmt.Fprintln(w)
	}
}

func saveCSVReports(counter map[string]stats.Counter, headers []string, dir string, limit int) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	for _, header := range headers {
		filePath := filepath.Join(dir, fmt.Sprintf("report_%s.csv", normalizeHeaderName(header)))
		if err := writeCSVReport(filePath, counter[header], limit); err != nil {
			return fmt.Errorf("write %s: %w", filePath, err)
		}
	}
	return nil
}

func writeCSVReport(path string, counts stats.Counter, limit int) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write([]string{"Value", "Count"}); err != nil {
		return err
	}
	for _, p := range counts.Top(limit) {
		if err := writer.Write([]string{p.Key, strconv.Itoa(p.Value)}); err != nil {
			return err
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return err
	}
	return file.Close()
}

func normalizeHeaderName(header string) string {
	name := strings.ToLower(header)
	name = strings.ReplaceAll(name, "-", "_")
	name = strings.ReplaceAll(name, " ", "_")
	return name
}
