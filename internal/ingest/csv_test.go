package ingest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCSVWithHeader(t *testing.T) {
	input := strings.Join([]string{
		"timestamp,value",
		"2025-03-01T10:00:00Z,41.5",
		"2025-03-01T10:05:00Z,42.0",
	}, "\n")

	series, err := LoadCSV(strings.NewReader(input), "CPU Usage")
	require.NoError(t, err)
	assert.Equal(t, "CPU Usage", series.MetricName)
	require.Len(t, series.Points, 2)
	assert.Equal(t, 41.5, series.Points[0].Value)
}

func TestLoadCSVWithoutHeader(t *testing.T) {
	input := "2025-03-01 10:00:00,5.0\n2025-03-01 11:00:00,6.0\n"

	series, err := LoadCSV(strings.NewReader(input), "Memory")
	require.NoError(t, err)
	require.Len(t, series.Points, 2)
}

func TestLoadCSVUnixTimestamps(t *testing.T) {
	input := "1740830400,10.5\n1740834000,11.5\n"

	series, err := LoadCSV(strings.NewReader(input), "CPU Usage")
	require.NoError(t, err)
	require.Len(t, series.Points, 2)
	assert.Equal(t, time.Unix(1740830400, 0).UTC(), series.Points[0].Timestamp)
}

func TestLoadCSVSortsRows(t *testing.T) {
	input := strings.Join([]string{
		"2025-03-01T12:00:00Z,3",
		"2025-03-01T10:00:00Z,1",
		"2025-03-01T11:00:00Z,2",
	}, "\n")

	series, err := LoadCSV(strings.NewReader(input), "CPU Usage")
	require.NoError(t, err)
	require.Len(t, series.Points, 3)
	assert.Equal(t, 1.0, series.Points[0].Value)
	assert.Equal(t, 3.0, series.Points[2].Value)
}

func TestLoadCSVMalformedDataRow(t *testing.T) {
	input := "timestamp,value\n2025-03-01T10:00:00Z,oops\n"

	_, err := LoadCSV(strings.NewReader(input), "CPU Usage")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad value")
}

func TestLoadCSVEmpty(t *testing.T) {
	_, err := LoadCSV(strings.NewReader("timestamp,value\n"), "CPU Usage")
	require.Error(t, err)
}

func TestLoadCSVFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "series.csv")
	require.NoError(t, os.WriteFile(path, []byte("2025-03-01T10:00:00Z,1\n"), 0o644))

	series, err := LoadCSVFile(path, "CPU Usage")
	require.NoError(t, err)
	require.Len(t, series.Points, 1)

	_, err = LoadCSVFile(filepath.Join(t.TempDir(), "missing.csv"), "CPU Usage")
	require.Error(t, err)
}
