// Package forecast fits an additive trend+seasonal model on an hourly
// resampled series and projects it forward, flagging threshold breaches.
package forecast

import (
	"fmt"
	"math"
	"time"

	"github.com/atalahmeh-tc/zabbix-ai-alert-predictor/internal/models"
	"github.com/atalahmeh-tc/zabbix-ai-alert-predictor/internal/resample"
)

// DefaultHorizonPeriods projects 30 days of hourly points.
const DefaultHorizonPeriods = 720

const (
	hoursPerDay  = 24
	hoursPerWeek = 168
	// zScore95 bounds the forecast interval at roughly 95%.
	zScore95 = 1.96
)

// Forecast resamples the source series to hourly cadence, fits an additive
// model (linear trend plus daily and weekly Fourier seasonality), and
// returns forecast points for every historical hour plus horizonPeriods
// future hours, together with the first projected threshold breach.
func Forecast(series models.MetricSeries, horizonPeriods int, threshold float64) ([]models.ForecastPoint, models.BreachEvent, error) {
	if horizonPeriods <= 0 {
		horizonPeriods = DefaultHorizonPeriods
	}

	hourly := resample.Resample(series, resample.ForecastCadence)
	if !resample.Sufficient(hourly) {
		return nil, models.BreachEvent{}, fmt.Errorf("forecast: %d hourly buckets is too short to fit", hourly.Len())
	}

	origin := hourly.Buckets[0].Start
	n := hourly.Len()
	dailyOrder, weeklyOrder := seasonalOrders(n)

	rows := make([][]float64, n)
	targets := make([]float64, n)
	for i, b := range hourly.Buckets {
		rows[i] = featureRow(hoursSince(origin, b.Start), dailyOrder, weeklyOrder)
		targets[i] = b.Mean
	}

	beta, err := solveLeastSquares(rows, targets)
	if err != nil {
		return nil, models.BreachEvent{}, fmt.Errorf("forecast: fit model: %w", err)
	}

	residSq := 0.0
	for i, row := range rows {
		diff := targets[i] - dot(row, beta)
		residSq += diff * diff
	}
	dof := n - len(beta)
	if dof < 1 {
		dof = 1
	}
	sigma := math.Sqrt(residSq / float64(dof))

	cutoff := hourly.Buckets[n-1].Start
	points := make([]models.ForecastPoint, 0, n+horizonPeriods)
	for _, b := range hourly.Buckets {
		points = append(points, modelPoint(b.Start, hoursSince(origin, b.Start), beta, dailyOrder, weeklyOrder, sigma))
	}
	for i := 1; i <= horizonPeriods; i++ {
		ts := cutoff.Add(time.Duration(i) * time.Hour)
		points = append(points, modelPoint(ts, hoursSince(origin, ts), beta, dailyOrder, weeklyOrder, sigma))
	}

	breach := DetectBreach(points, cutoff, threshold)
	return points, breach, nil
}

// GrowthRatePctPerDay derives the growth rate from the trend component:
// total trend change divided by the number of distinct trend values, scaled
// to percent and rounded to two decimals.
func GrowthRatePctPerDay(points []models.ForecastPoint) float64 {
	if len(points) < 2 {
		return 0
	}
	distinct := make(map[float64]struct{}, len(points))
	for _, p := range points {
		distinct[roundTo(p.Trend, 9)] = struct{}{}
	}
	change := points[len(points)-1].Trend - points[0].Trend
	return roundTo(change/float64(len(distinct))*100, 2)
}

func modelPoint(ts time.Time, t float64, beta []float64, dailyOrder, weeklyOrder int, sigma float64) models.ForecastPoint {
	row := featureRow(t, dailyOrder, weeklyOrder)
	yhat := dot(row, beta)
	margin := zScore95 * sigma
	return models.ForecastPoint{
		Timestamp: ts,
		Yhat:      yhat,
		YhatLower: yhat - margin,
		YhatUpper: yhat + margin,
		Trend:     beta[0] + beta[1]*t,
	}
}

// seasonalOrders shrinks the Fourier orders when history is too short to
// identify the corresponding period.
func seasonalOrders(n int) (daily, weekly int) {
	switch {
	case n < 8:
		return 0, 0
	case n < 2*hoursPerDay:
		return 2, 0
	case n < 2*hoursPerWeek:
		return 3, 0
	default:
		return 3, 2
	}
}

func featureRow(t float64, dailyOrder, weeklyOrder int) []float64 {
	row := make([]float64, 0, 2+2*dailyOrder+2*weeklyOrder)
	row = append(row, 1, t)
	for k := 1; k <= dailyOrder; k++ {
		omega := 2 * math.Pi * float64(k) * t / hoursPerDay
		row = append(row, math.Sin(omega), math.Cos(omega))
	}
	for k := 1; k <= weeklyOrder; k++ {
		omega := 2 * math.Pi * float64(k) * t / hoursPerWeek
		row = append(row, math.Sin(omega), math.Cos(omega))
	}
	return row
}

func hoursSince(origin, ts time.Time) float64 {
	return ts.Sub(origin).Hours()
}

func dot(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

func roundTo(v float64, places int) float64 {
	factor := math.Pow(10, float64(places))
	return math.Round(v*factor) / factor
}
