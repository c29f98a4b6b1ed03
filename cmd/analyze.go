package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/khanhnv2901/techradar-cli/internal/detect"
	"github.com/khanhnv2901/techradar-cli/internal/fetcher"
	"github.com/khanhnv2901/techradar-cli/internal/store"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <url> [url...]",
	Short: "Fetch one or more pages and report the technologies behind them",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		defer syncLogger()

		asJSON, _ := cmd.Flags().GetBool("json")
		save, _ := cmd.Flags().GetBool("save")
		concurrency, _ := cmd.Flags().GetInt("concurrency")
		if concurrency <= 0 {
			concurrency = 3
		}

		var history *store.History
		if save {
			var err error
			if history, err = openHistory(); err != nil {
				return err
			}
		}

		client := fetcher.New(fetcherConfig(), logger)
		analyzer := detect.New(client, logger)

		type outcome struct {
			target string
			report *detect.Report
			err    error
		}

		// Worker pool over the targets; each target is one full analysis run.
		sem := make(chan struct{}, concurrency)
		var wg sync.WaitGroup
		outcomes := make([]outcome, len(args))

		for i, target := range args {
			wg.Add(1)
			go func(i int, target string) {
				defer wg.Done()
				sem <- struct{}{}
				defer func() { <-sem }()

				report, err := analyzer.Analyze(cmd.Context(), target)
				outcomes[i] = outcome{target: target, report: report, err: err}
			}(i, target)
		}
		wg.Wait()

		failed := 0
		for _, out := range outcomes {
			if out.err != nil {
				failed++
				fmt.Fprintf(os.Stderr, "%s %s: %v\n", colorError("✗"), out.target, out.err)
				continue
			}
			if history != nil {
				if _, err := history.Append(cmd.Context(), out.report); err != nil {
					fmt.Fprintf(os.Stderr, "%s save %s: %v\n", colorWarn("!"), out.target, err)
				}
			}
			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				if err := enc.Encode(out.report); err != nil {
					return err
				}
				continue
			}
			printReport(out.report)
		}

		if failed == len(args) {
			return fmt.Errorf("all %d target(s) failed", failed)
		}
		return nil
	},
}

func init() {
	analyzeCmd.Flags().Bool("json", false, "output JSON instead of human-readable text")
	analyzeCmd.Flags().Bool("save", false, "append results to the local scan history")
	analyzeCmd.Flags().Int("concurrency", 3, "targets analyzed in parallel")
}

func printReport(r *detect.Report) {
	fmt.Printf("%s %s\n", colorInfo("▸"), r.URL)
	if r.Title != "" {
		fmt.Printf("  Title: %s\n", r.Title)
	}
	if r.CMS != "" {
		fmt.Printf("  CMS: %s\n", colorSuccess(r.CMS))
	}
	if r.IsWordPress {
		fmt.Printf("  %s\n", colorWarn("WordPress site: framework detection suppressed"))
	}
	printGroup("JS frameworks", r.JavascriptFrameworks)
	printGroup("CSS frameworks", r.CSSFrameworks)
	printGroup("Analytics", r.Analytics)
	printGroup("Marketing", r.Marketing)
	printGroup("Monitoring", r.Monitoring)
	printGroup("Payments", r.Payments)
	printGroup("Build tools", r.BuildTools)
	printGroup("Compression", r.Compression)
	if r.Server != "" {
		fmt.Printf("  Server: %s\n", r.Server)
	}
	if r.Platform != "" {
		fmt.Printf("  Platform: %s\n", r.Platform)
	}
	printGroup("CDN", r.CDN)
	printGroup("Hosting", r.Hosting)
}

func printGroup(label string, values []string) {
	if len(values) == 0 {
		return
	}
	fmt.Printf("  %s: %s\n", label, strings.Join(values, ", "))
}
