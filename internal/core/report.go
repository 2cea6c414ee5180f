package core

import (
	"context"
	"time"

	"warehousemon/internal/store"

	"github.com/rs/zerolog/log"
)

// GenerateDailyReports aggregates the previous day's analytics samples into
// one report per warehouse. Intended to run just after local midnight.
//
// Warehouses with zero samples for the day produce no report; absence of
// data is not a day of zeros.
func (e *Engine) GenerateDailyReports(ctx context.Context) error {
	date := time.Now().In(e.loc).AddDate(0, 0, -1).Format("2006-01-02")
	return e.generateReportsFor(ctx, date)
}

func (e *Engine) generateReportsFor(ctx context.Context, date string) error {
	generated := 0
	for id, cfg := range e.configs.All() {
		samples, err := e.readSamples(ctx, id, date)
		if err != nil {
			log.Error().
				Str("warehouse_id", id).
				Str("date", date).
				Err(err).
				Msg("Failed to read analytics for report")
			continue
		}
		if len(samples) == 0 {
			continue
		}

		report := buildReport(id, date, samples)
		err = e.writer.do("save report", id, func(ctx context.Context) error {
			return e.store.SaveReport(ctx, report)
		})
		if err == nil {
			generated++
			log.Debug().
				Str("warehouse_id", id).
				Str("name", cfg.Name).
				Str("date", date).
				Int("reading_count", report.ReadingCount).
				Msg("Daily report generated")
		}
	}

	log.Info().Str("date", date).Int("reports", generated).Msg("Daily report run complete")
	return nil
}

func (e *Engine) readSamples(ctx context.Context, warehouseID, date string) ([]store.AnalyticsSample, error) {
	ctx, cancel := context.WithTimeout(ctx, e.monitor.WriteTimeout)
	defer cancel()
	return e.store.AnalyticsForDate(ctx, warehouseID, date)
}

// buildReport computes the aggregate over a non-empty sample set.
func buildReport(warehouseID, date string, samples []store.AnalyticsSample) store.DailyReport {
	report := store.DailyReport{
		WarehouseID:    warehouseID,
		Date:           date,
		MinTemperature: samples[0].Temperature,
		MaxTemperature: samples[0].Temperature,
		MinHumidity:    samples[0].Humidity,
		MaxHumidity:    samples[0].Humidity,
		ReadingCount:   len(samples),
		GeneratedAt:    time.Now().UnixMilli(),
	}

	var tempSum, humSum float64
	for _, s := range samples {
		tempSum += s.Temperature
		humSum += s.Humidity

		if s.Temperature < report.MinTemperature {
			report.MinTemperature = s.Temperature
		}
		if s.Temperature > report.MaxTemperature {
			report.MaxTemperature = s.Temperature
		}
		if s.Humidity < report.MinHumidity {
			report.MinHumidity = s.Humidity
		}
		if s.Humidity > report.MaxHumidity {
			report.MaxHumidity = s.Humidity
		}

		if s.HasAlert {
			report.AlertCount++
			if s.Severity == store.SeverityCritical {
				report.CriticalAlerts++
			}
		}
	}

	n := float64(len(samples))
	report.AvgTemperature = tempSum / n
	report.AvgHumidity = humSum / n
	return report
}

// MidnightDelay returns how long until the next local midnight, used to
// schedule the first daily report run.
func (e *Engine) MidnightDelay(now time.Time) time.Duration {
	local := now.In(e.loc)
	next := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, e.loc).AddDate(0, 0, 1)
	return next.Sub(local)
}
