package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/tabscan/internal/config"
	"github.com/jackzampolin/tabscan/internal/imagesrc"
	"github.com/jackzampolin/tabscan/internal/output"
	"github.com/jackzampolin/tabscan/internal/sheet"
	"github.com/jackzampolin/tabscan/internal/table"
)

var (
	recognizeHeaders string
	recognizeProfile string
	recognizeRetries int
	recognizeCSV     string
	recognizeXLSX    string
)

type recognizeResult struct {
	Image    string   `json:"image" yaml:"image"`
	Mode     string   `json:"mode" yaml:"mode"`
	Accepted bool     `json:"accepted" yaml:"accepted"`
	Attempts int      `json:"attempts" yaml:"attempts"`
	Reason   string   `json:"reason,omitempty" yaml:"reason,omitempty"`
	Columns  int      `json:"columns,omitempty" yaml:"columns,omitempty"`
	Rows     int      `json:"rows,omitempty" yaml:"rows,omitempty"`
	Headers  []string `json:"headers,omitempty" yaml:"headers,omitempty"`
	CSV      string   `json:"csv,omitempty" yaml:"csv,omitempty"`
	CSVPath  string   `json:"csv_path,omitempty" yaml:"csv_path,omitempty"`
	XLSXPath string   `json:"xlsx_path,omitempty" yaml:"xlsx_path,omitempty"`
}

var recognizeCmd = &cobra.Command{
	Use:   "recognize IMAGE",
	Short: "Recognize the table in one image",
	Long: `Recognize the table in one image and print it as CSV.

Without --headers or --profile the model chooses the header row. Each reply
is parsed and validated; on failure the model is asked again with the problem
described, up to --retries calls.

Examples:
  tabscan recognize receipt.jpg
  tabscan recognize page.png --headers "Date,Item,Qty,Price"
  tabscan recognize page.png --profile ledger --xlsx ledger.xlsx`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv()
		if err != nil {
			return err
		}
		defer e.Close()

		img, err := imagesrc.Load(args[0])
		if err != nil {
			return err
		}
		mode, err := e.modeFromFlags(recognizeHeaders, recognizeProfile)
		if err != nil {
			return err
		}
		rec, err := e.recognizer()
		if err != nil {
			return err
		}

		retries := recognizeRetries
		if retries <= 0 {
			retries = e.cfg.Recognition.MaxRetries
		}

		outcome := rec.Run(cmd.Context(), img, mode, retries)
		result := recognizeResult{
			Image:    img.Name,
			Mode:     mode.Kind.String(),
			Accepted: outcome.Accepted(),
			Attempts: outcome.Attempts,
			Reason:   outcome.Reason,
		}
		if !outcome.Accepted() {
			if err := output.Print(result); err != nil {
				return err
			}
			return outcome.Err
		}

		data := outcome.Table
		result.Columns = data.ColumnCount
		result.Rows = data.RowCount()
		result.Headers = data.Headers

		csvText, err := table.Format(data.Headers, data.Rows)
		if err != nil {
			return fmt.Errorf("failed to format csv: %w", err)
		}
		if recognizeCSV != "" {
			if err := os.WriteFile(recognizeCSV, []byte(csvText), 0o644); err != nil {
				return fmt.Errorf("failed to write csv: %w", err)
			}
			result.CSVPath = recognizeCSV
		} else {
			result.CSV = csvText
		}

		if recognizeXLSX != "" {
			headers := data.Headers
			if len(mode.Headers) > 0 {
				headers = mode.Headers
			}
			if err := writeWorkbook(e.cfg, recognizeXLSX, headers, data); err != nil {
				return err
			}
			result.XLSXPath = recognizeXLSX
		}

		return output.Print(result)
	},
}

func writeWorkbook(cfg *config.Config, path string, headers []string, data *table.Data) error {
	w, err := sheet.NewWriter(headers, sheet.Options{
		SheetName:    cfg.Batch.SheetName,
		SourceColumn: cfg.Batch.SourceColumn,
	})
	if err != nil {
		return err
	}
	defer w.Close()
	if err := w.Append(data.Rows, data.Source); err != nil {
		return err
	}
	return w.Save(path)
}

func init() {
	recognizeCmd.Flags().StringVar(&recognizeHeaders, "headers", "", "comma-separated header row to enforce")
	recognizeCmd.Flags().StringVar(&recognizeProfile, "profile", "", "profile file or saved profile name")
	recognizeCmd.Flags().IntVar(&recognizeRetries, "retries", 0, "maximum model calls (default from config)")
	recognizeCmd.Flags().StringVar(&recognizeCSV, "csv", "", "write the table to this CSV file")
	recognizeCmd.Flags().StringVar(&recognizeXLSX, "xlsx", "", "write the table to this xlsx file")

	rootCmd.AddCommand(recognizeCmd)
}
