package main

import (
	"github.com/spf13/cobra"

	"github.com/jackzampolin/tabscan/internal/llmcall"
	"github.com/jackzampolin/tabscan/internal/output"
)

var (
	traceRun    string
	traceImage  string
	traceHash   string
	traceFailed bool
)

var traceCmd = &cobra.Command{
	Use:   "trace FILE",
	Short: "Show attempts recorded with --trace",
	Long: `Show attempts recorded with --trace, optionally filtered.

Examples:
  tabscan batch ./scans --headers "Date,Qty" --trace calls.jsonl
  tabscan trace calls.jsonl --failed --image page-07.jpg`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		calls, err := llmcall.ReadFile(args[0], llmcall.QueryFilter{
			RunID:      traceRun,
			Image:      traceImage,
			PromptHash: traceHash,
			FailedOnly: traceFailed,
		})
		if err != nil {
			return err
		}
		return output.Print(calls)
	},
}

func init() {
	traceCmd.Flags().StringVar(&traceRun, "run", "", "only calls from this run ID")
	traceCmd.Flags().StringVar(&traceImage, "image", "", "only calls for this image name")
	traceCmd.Flags().StringVar(&traceHash, "prompt-hash", "", "only calls sent with this prompt hash")
	traceCmd.Flags().BoolVar(&traceFailed, "failed", false, "only rejected attempts")

	rootCmd.AddCommand(traceCmd)
}
