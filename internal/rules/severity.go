package rules

import (
	"fmt"

	"warehousemon/internal/store"
)

// Deviation thresholds, in percent of the allowed range. Boundaries are
// strict: a deviation of exactly 50% of the range is HIGH, not CRITICAL.
const (
	criticalPct = 50.0
	highPct     = 25.0
	warningPct  = 10.0
)

// SeverityFor maps a deviation onto a severity tier given the allowed
// range of the violated dimension.
func SeverityFor(deviation, allowedRange float64) store.Severity {
	pct := deviation / allowedRange * 100

	switch {
	case pct > criticalPct:
		return store.SeverityCritical
	case pct > highPct:
		return store.SeverityHigh
	case pct > warningPct:
		return store.SeverityWarning
	default:
		return store.SeverityInfo
	}
}

// Classify evaluates a validated reading against a warehouse configuration
// and returns zero, one or two alerts. Temperature and humidity are
// evaluated independently; a reading can violate both at once.
//
// The function is pure and deterministic given its inputs.
func Classify(cfg *store.WarehouseConfig, r store.SensorReading) []store.Alert {
	var alerts []store.Alert

	tempRange := cfg.MaxTemp - cfg.MinTemp
	if r.Temperature < cfg.MinTemp {
		deviation := cfg.MinTemp - r.Temperature
		alerts = append(alerts, store.Alert{
			Type: store.AlertTemperatureLow,
			Message: fmt.Sprintf("Temperature too low: %.2f°C (Min: %.2f°C, Deviation: %.2f°C)",
				r.Temperature, cfg.MinTemp, deviation),
			Severity:      SeverityFor(deviation, tempRange),
			Timestamp:     r.Timestamp,
			WarehouseID:   cfg.ID,
			WarehouseName: cfg.Name,
		})
	} else if r.Temperature > cfg.MaxTemp {
		deviation := r.Temperature - cfg.MaxTemp
		alerts = append(alerts, store.Alert{
			Type: store.AlertTemperatureHigh,
			Message: fmt.Sprintf("Temperature too high: %.2f°C (Max: %.2f°C, Deviation: %.2f°C)",
				r.Temperature, cfg.MaxTemp, deviation),
			Severity:      SeverityFor(deviation, tempRange),
			Timestamp:     r.Timestamp,
			WarehouseID:   cfg.ID,
			WarehouseName: cfg.Name,
		})
	}

	humidityRange := cfg.MaxHumidity - cfg.MinHumidity
	if r.Humidity < cfg.MinHumidity {
		deviation := cfg.MinHumidity - r.Humidity
		alerts = append(alerts, store.Alert{
			Type: store.AlertHumidityLow,
			Message: fmt.Sprintf("Humidity too low: %.2f%% (Min: %.2f%%, Deviation: %.2f%%)",
				r.Humidity, cfg.MinHumidity, deviation),
			Severity:      SeverityFor(deviation, humidityRange),
			Timestamp:     r.Timestamp,
			WarehouseID:   cfg.ID,
			WarehouseName: cfg.Name,
		})
	} else if r.Humidity > cfg.MaxHumidity {
		deviation := r.Humidity - cfg.MaxHumidity
		alerts = append(alerts, store.Alert{
			Type: store.AlertHumidityHigh,
			Message: fmt.Sprintf("Humidity too high: %.2f%% (Max: %.2f%%, Deviation: %.2f%%)",
				r.Humidity, cfg.MaxHumidity, deviation),
			Severity:      SeverityFor(deviation, humidityRange),
			Timestamp:     r.Timestamp,
			WarehouseID:   cfg.ID,
			WarehouseName: cfg.Name,
		})
	}

	return alerts
}

// OverallSeverity returns the maximum tier across the produced alerts, or
// NONE when the reading raised no alert. Used for the warehouse status and
// the analytics sample.
func OverallSeverity(alerts []store.Alert) store.Severity {
	overall := store.SeverityNone
	for _, a := range alerts {
		if a.Severity.Rank() > overall.Rank() {
			overall = a.Severity
		}
	}
	return overall
}
