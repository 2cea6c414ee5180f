package rules

import (
	"fmt"

	"warehousemon/internal/store"
)

// Physical plausibility bounds for sensor readings. Wider than any
// admissible configuration range so borderline-but-real values still
// reach the classifier.
const (
	ReadingTempFloor   = -60.0
	ReadingTempCeil    = 60.0
	ReadingHumidityMin = 0.0
	ReadingHumidityMax = 100.0

	// FutureSkewMs is the clock-skew tolerance for reading timestamps.
	FutureSkewMs = 60_000
)

// ValidateReading rejects physically implausible or future-dated sensor
// readings. nowMs is the evaluation time in epoch milliseconds, passed in
// so the check stays deterministic under test.
//
// Invalid readings are dropped by the caller and never retried: a
// resubmitted malformed reading is presumed equally invalid.
func ValidateReading(r store.SensorReading, nowMs int64) error {
	if r.Temperature < ReadingTempFloor || r.Temperature > ReadingTempCeil {
		return fmt.Errorf("unrealistic temperature reading: %.2f", r.Temperature)
	}

	if r.Humidity < ReadingHumidityMin || r.Humidity > ReadingHumidityMax {
		return fmt.Errorf("invalid humidity reading: %.2f", r.Humidity)
	}

	if r.Timestamp > nowMs+FutureSkewMs {
		return fmt.Errorf("reading timestamp %d is in the future", r.Timestamp)
	}

	return nil
}
