// Package ingest loads metric series from local files.
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/atalahmeh-tc/zabbix-ai-alert-predictor/internal/models"
	"github.com/atalahmeh-tc/zabbix-ai-alert-predictor/internal/utils"
)

// fallbackLayouts are tried after RFC3339 for each row.
var fallbackLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// LoadCSVFile reads a timestamp,value CSV file into a MetricSeries.
func LoadCSVFile(path, metricName string) (models.MetricSeries, error) {
	f, err := os.Open(path)
	if err != nil {
		return models.MetricSeries{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return LoadCSV(f, metricName)
}

// LoadCSV reads timestamp,value rows into a MetricSeries. A header row is
// tolerated; malformed data rows are an error rather than silently dropped.
func LoadCSV(r io.Reader, metricName string) (models.MetricSeries, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	series := models.MetricSeries{MetricName: metricName}
	line := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return models.MetricSeries{}, fmt.Errorf("read csv: %w", err)
		}
		line++
		if len(record) < 2 {
			return models.MetricSeries{}, fmt.Errorf("csv line %d: want timestamp,value, got %d fields", line, len(record))
		}

		ts, tsErr := parseTimestamp(record[0])
		value, valErr := strconv.ParseFloat(record[1], 64)
		if tsErr != nil || valErr != nil {
			if line == 1 {
				// Header row.
				continue
			}
			if tsErr != nil {
				return models.MetricSeries{}, fmt.Errorf("csv line %d: bad timestamp %q", line, record[0])
			}
			return models.MetricSeries{}, fmt.Errorf("csv line %d: bad value %q", line, record[1])
		}

		series.Points = append(series.Points, models.RawPoint{Timestamp: ts, Value: value})
	}

	if len(series.Points) == 0 {
		return models.MetricSeries{}, fmt.Errorf("csv contains no data rows")
	}

	sort.Slice(series.Points, func(i, j int) bool {
		return series.Points[i].Timestamp.Before(series.Points[j].Timestamp)
	})
	return series, nil
}

func parseTimestamp(raw string) (time.Time, error) {
	if ts, err := utils.ParseRFC3339(raw); err == nil {
		return ts.UTC(), nil
	}
	for _, layout := range fallbackLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts.UTC(), nil
		}
	}
	if unix, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return time.Unix(unix, 0).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", raw)
}
