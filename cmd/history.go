package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List analysis results saved with --save",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		defer syncLogger()

		h, err := openHistory()
		if err != nil {
			return err
		}

		scans, err := h.List(cmd.Context())
		if err != nil {
			return err
		}

		asJSON, _ := cmd.Flags().GetBool("json")
		if asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(scans)
		}

		if len(scans) == 0 {
			fmt.Println("no saved scans")
			return nil
		}
		for _, scan := range scans {
			fmt.Printf("%s %s  %s\n",
				colorInfo(scan.ID),
				scan.AnalyzedAt.Local().Format("2006-01-02 15:04"),
				scan.Report.URL,
			)
			if scan.Report.CMS != "" {
				fmt.Printf("  CMS: %s\n", scan.Report.CMS)
			}
		}
		return nil
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print one saved scan in full",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		defer syncLogger()

		h, err := openHistory()
		if err != nil {
			return err
		}

		scan, err := h.FindByID(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		printReport(scan.Report)
		return nil
	},
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all saved scans",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		defer syncLogger()

		h, err := openHistory()
		if err != nil {
			return err
		}
		if err := h.Clear(cmd.Context()); err != nil {
			return err
		}
		fmt.Printf("%s scan history cleared\n", colorSuccess("✓"))
		return nil
	},
}

func init() {
	historyCmd.Flags().Bool("json", false, "output JSON instead of human-readable text")
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyClearCmd)
}
