package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunExportSchedule(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schedule.tsv")

	var out bytes.Buffer
	require.NoError(t, runExport(&out, exportSchedule, "tomorrow", &ExportConfig{Format: "tsv", Output: path}))

	assert.Equal(t, "Schedule written to: "+path+"\n", out.String())
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Time\tEvent\tLocation\n10:00\tTeam standup\tOffice\n14:00\tClient presentation\tConference Room A\n", string(data))
}

func TestRunExportWeatherDefaultPath(t *testing.T) {
	t.Chdir(t.TempDir())

	var out bytes.Buffer
	require.NoError(t, runExport(&out, exportWeather, "2026-02-03", NewExportConfig()))

	assert.Equal(t, "Weather forecast written to: weather-2026-02-03.md\n", out.String())
	_, err := os.Stat("weather-2026-02-03.md")
	assert.NoError(t, err)
}

func TestRunExportInvalidFormat(t *testing.T) {
	var out bytes.Buffer
	err := runExport(&out, exportSchedule, "today", &ExportConfig{Format: "xml"})
	assert.Error(t, err)
	assert.Empty(t, out.String())
}

func TestExportCommandFlags(t *testing.T) {
	cmd := exportScheduleCmd
	require.NoError(t, cmd.Flags().Set("format", "csv"))
	require.NoError(t, cmd.Flags().Set("output", "out.csv"))
	t.Cleanup(func() {
		_ = cmd.Flags().Set("format", "md")
		_ = cmd.Flags().Set("output", "")
	})

	config := getExportConfigFromFlags(cmd)
	assert.Equal(t, "csv", config.Format)
	assert.Equal(t, "out.csv", config.Output)
}
