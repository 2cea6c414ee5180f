// Package rules contains the pure decision logic of the monitoring
// pipeline: configuration validation, reading validation, and the
// severity classifier.
//
// Nothing in this package touches the store or the logger; every function
// is deterministic given its inputs so the policy can be tested without a
// running system.
package rules

import (
	"fmt"
	"strings"

	"warehousemon/internal/store"
)

// Physical bounds for admissible threshold configurations.
const (
	ConfigTempFloor   = -50.0
	ConfigTempCeil    = 50.0
	ConfigHumidityMin = 0.0
	ConfigHumidityMax = 100.0
)

// ValidateConfig checks a warehouse threshold configuration before it is
// admitted into the monitoring set. A nil return means the config is
// admissible. Rejections carry the reason; the caller logs and drops the
// config without failing the pipeline.
func ValidateConfig(cfg *store.WarehouseConfig) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}

	if strings.TrimSpace(cfg.Name) == "" {
		return fmt.Errorf("warehouse name is empty")
	}

	if cfg.MinTemp >= cfg.MaxTemp {
		return fmt.Errorf("invalid temperature range: min %.2f >= max %.2f", cfg.MinTemp, cfg.MaxTemp)
	}

	if cfg.MinHumidity >= cfg.MaxHumidity {
		return fmt.Errorf("invalid humidity range: min %.2f >= max %.2f", cfg.MinHumidity, cfg.MaxHumidity)
	}

	if cfg.MinTemp < ConfigTempFloor || cfg.MaxTemp > ConfigTempCeil {
		return fmt.Errorf("temperature range out of realistic bounds [%.0f, %.0f]", ConfigTempFloor, ConfigTempCeil)
	}

	if cfg.MinHumidity < ConfigHumidityMin || cfg.MaxHumidity > ConfigHumidityMax {
		return fmt.Errorf("humidity range out of valid bounds [%.0f, %.0f]", ConfigHumidityMin, ConfigHumidityMax)
	}

	return nil
}

// DiffConfigs returns a human-readable list of threshold changes between
// two admitted configurations, for the audit trail. Fields that did not
// change produce no entry.
func DiffConfigs(old, updated *store.WarehouseConfig) []string {
	var changes []string

	if old.Name != updated.Name {
		changes = append(changes, fmt.Sprintf("Name changed from '%s' to '%s'", old.Name, updated.Name))
	}
	if old.MinTemp != updated.MinTemp {
		changes = append(changes, fmt.Sprintf("Min temperature changed from %g to %g", old.MinTemp, updated.MinTemp))
	}
	if old.MaxTemp != updated.MaxTemp {
		changes = append(changes, fmt.Sprintf("Max temperature changed from %g to %g", old.MaxTemp, updated.MaxTemp))
	}
	if old.MinHumidity != updated.MinHumidity {
		changes = append(changes, fmt.Sprintf("Min humidity changed from %g to %g", old.MinHumidity, updated.MinHumidity))
	}
	if old.MaxHumidity != updated.MaxHumidity {
		changes = append(changes, fmt.Sprintf("Max humidity changed from %g to %g", old.MaxHumidity, updated.MaxHumidity))
	}

	return changes
}
