package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/tabscan/internal/batch"
	"github.com/jackzampolin/tabscan/internal/config"
	"github.com/jackzampolin/tabscan/internal/imagesrc"
	"github.com/jackzampolin/tabscan/internal/output"
	"github.com/jackzampolin/tabscan/internal/sheet"
)

var (
	batchHeaders   string
	batchProfile   string
	batchOut       string
	batchRetries   int
	batchPacing    time.Duration
	batchRecursive bool
)

var batchCmd = &cobra.Command{
	Use:   "batch DIR",
	Short: "Recognize every image in a directory into one workbook",
	Long: `Recognize every image in DIR (jpg, jpeg, png, bmp, webp) with the same
header row and collect the rows in one xlsx workbook. A trailing column records
the source image of each row. Failed images are reported and skipped.

Examples:
  tabscan batch ./scans --headers "Date,Item,Qty,Price"
  tabscan batch ./scans --profile ledger --out ledger.xlsx`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv()
		if err != nil {
			return err
		}
		defer e.Close()
		if batchHeaders == "" && batchProfile == "" {
			return batch.ErrFreeform
		}
		mode, err := e.modeFromFlags(batchHeaders, batchProfile)
		if err != nil {
			return err
		}

		recursive := e.cfg.Batch.Recursive
		if cmd.Flags().Changed("recursive") {
			recursive = batchRecursive
		}
		paths, err := imagesrc.Scan(args[0], recursive)
		if err != nil {
			return err
		}
		if len(paths) == 0 {
			return fmt.Errorf("no images found in %s", args[0])
		}

		rec, err := e.recognizer()
		if err != nil {
			return err
		}
		writer, err := sheet.NewWriter(mode.Headers, sheet.Options{
			SheetName:    e.cfg.Batch.SheetName,
			SourceColumn: e.cfg.Batch.SourceColumn,
		})
		if err != nil {
			return err
		}
		defer writer.Close()

		retries := batchRetries
		if retries <= 0 {
			retries = e.cfg.Recognition.MaxRetries
		}
		pacing := e.cfg.Pacing()
		if cmd.Flags().Changed("pacing") {
			pacing = batchPacing
		}

		runner, err := batch.NewRunner(batch.Config{
			Recognizer: rec,
			Mode:       mode,
			Sink:       writer,
			Logger:     e.logger,
			MaxRetries: retries,
			Pacing:     pacing,
			RunID:      e.runID,
		})
		if err != nil {
			return err
		}

		// Pacing follows edits to the config file unless --pacing pinned it.
		if e.mgr.File() != "" && !cmd.Flags().Changed("pacing") {
			e.mgr.OnChange(func(c *config.Config) {
				runner.SetPacing(c.Pacing())
				e.logger.Info("config reloaded", "pacing", c.Pacing())
			})
			e.mgr.WatchConfig()
		}

		out := batchOut
		if out == "" {
			if err := e.home.EnsureExists(); err != nil {
				return err
			}
			out = e.home.OutputPath(time.Now())
		}

		report, runErr := runner.Run(cmd.Context(), paths, out)
		if err := output.Print(report); err != nil {
			return err
		}
		if runErr != nil {
			return runErr
		}
		if !report.Produced() {
			return fmt.Errorf("no image produced a table; nothing was written")
		}
		return nil
	},
}

func init() {
	batchCmd.Flags().StringVar(&batchHeaders, "headers", "", "comma-separated header row shared by all images")
	batchCmd.Flags().StringVar(&batchProfile, "profile", "", "profile file or saved profile name")
	batchCmd.Flags().StringVar(&batchOut, "out", "", "workbook path (default: <home>/outputs/tables_<timestamp>.xlsx)")
	batchCmd.Flags().IntVar(&batchRetries, "retries", 0, "maximum model calls per image (default from config)")
	batchCmd.Flags().DurationVar(&batchPacing, "pacing", batch.DefaultPacing, "minimum gap between images")
	batchCmd.Flags().BoolVar(&batchRecursive, "recursive", true, "descend into subdirectories")

	rootCmd.AddCommand(batchCmd)
}
