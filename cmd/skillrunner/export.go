package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jingkaihe/skillrunner/pkg/export"
	"github.com/jingkaihe/skillrunner/pkg/presenter"
	"github.com/spf13/cobra"
)

// ExportConfig holds configuration for the export commands
type ExportConfig struct {
	Format string
	Output string
}

// NewExportConfig creates a new ExportConfig with default values
func NewExportConfig() *ExportConfig {
	return &ExportConfig{
		Format: string(export.FormatMarkdown),
		Output: "",
	}
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export schedule and weather tables",
	Long:  `Export the schedule or the weekly weather forecast as a Markdown, CSV or TSV table.`,
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Help()
	},
}

var exportScheduleCmd = &cobra.Command{
	Use:   "schedule <date>",
	Short: "Export a day's schedule",
	Long: `Export the schedule for a date key as a table.

Examples:
  skillrunner export schedule today
  skillrunner export schedule tomorrow --format csv --output schedule.csv`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		config := getExportConfigFromFlags(cmd)
		if err := runExport(os.Stdout, exportSchedule, args[0], config); err != nil {
			presenter.Error(err, "Failed to export schedule")
			os.Exit(1)
		}
	},
}

var exportWeatherCmd = &cobra.Command{
	Use:   "weather <start-date>",
	Short: "Export the weather forecast for a week",
	Long: `Export the weather forecast for the week starting at a date as a table.

Examples:
  skillrunner export weather 2026-02-03
  skillrunner export weather 2026-02-10 --format tsv`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		config := getExportConfigFromFlags(cmd)
		if err := runExport(os.Stdout, exportWeather, args[0], config); err != nil {
			presenter.Error(err, "Failed to export weather forecast")
			os.Exit(1)
		}
	},
}

func init() {
	defaults := NewExportConfig()
	formats := make([]string, 0, len(export.Formats))
	for _, f := range export.Formats {
		formats = append(formats, string(f))
	}

	for _, c := range []*cobra.Command{exportScheduleCmd, exportWeatherCmd} {
		c.Flags().StringP("format", "f", defaults.Format, "Output format ("+strings.Join(formats, ", ")+")")
		c.Flags().StringP("output", "o", defaults.Output, "Output file path (default: <kind>-<date>.<ext>)")
		exportCmd.AddCommand(c)
	}
}

func getExportConfigFromFlags(cmd *cobra.Command) *ExportConfig {
	config := NewExportConfig()
	if format, err := cmd.Flags().GetString("format"); err == nil {
		config.Format = format
	}
	if output, err := cmd.Flags().GetString("output"); err == nil {
		config.Output = output
	}
	return config
}

type exportKind struct {
	run     func(date string, f export.Format, path string) (string, error)
	message string
}

var (
	exportSchedule = exportKind{run: export.ExportSchedule, message: "Schedule written to: %s"}
	exportWeather  = exportKind{run: export.ExportWeather, message: "Weather forecast written to: %s"}
)

func runExport(w io.Writer, kind exportKind, date string, config *ExportConfig) error {
	format, err := export.ParseFormat(config.Format)
	if err != nil {
		return err
	}
	path, err := kind.run(date, format, config.Output)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, kind.message+"\n", path)
	return err
}
