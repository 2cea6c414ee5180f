package rules

import (
	"testing"

	"warehousemon/internal/store"
)

func validConfig() *store.WarehouseConfig {
	return &store.WarehouseConfig{
		ID:          "w1",
		Name:        "Cold Storage A",
		MinTemp:     0,
		MaxTemp:     10,
		MinHumidity: 30,
		MaxHumidity: 70,
		UserID:      "u1",
	}
}

func TestValidateConfig(t *testing.T) {
	t.Run("Valid config", func(t *testing.T) {
		if err := ValidateConfig(validConfig()); err != nil {
			t.Errorf("Expected valid config, got: %v", err)
		}
	})

	t.Run("Nil config", func(t *testing.T) {
		if err := ValidateConfig(nil); err == nil {
			t.Error("Expected error for nil config")
		}
	})

	t.Run("Blank name", func(t *testing.T) {
		cfg := validConfig()
		cfg.Name = "   "
		if err := ValidateConfig(cfg); err == nil {
			t.Error("Expected error for blank name")
		}
	})

	t.Run("Temperature min >= max", func(t *testing.T) {
		cfg := validConfig()
		cfg.MinTemp = 10
		cfg.MaxTemp = 10
		if err := ValidateConfig(cfg); err == nil {
			t.Error("Expected error for minTemp >= maxTemp")
		}

		cfg.MinTemp = 15
		if err := ValidateConfig(cfg); err == nil {
			t.Error("Expected error for inverted temperature range")
		}
	})

	t.Run("Humidity min >= max", func(t *testing.T) {
		cfg := validConfig()
		cfg.MinHumidity = 70
		if err := ValidateConfig(cfg); err == nil {
			t.Error("Expected error for minHumidity >= maxHumidity")
		}
	})

	t.Run("Temperature range out of bounds", func(t *testing.T) {
		cfg := validConfig()
		cfg.MinTemp = -51
		if err := ValidateConfig(cfg); err == nil {
			t.Error("Expected error for minTemp below -50")
		}

		cfg = validConfig()
		cfg.MaxTemp = 51
		if err := ValidateConfig(cfg); err == nil {
			t.Error("Expected error for maxTemp above 50")
		}
	})

	t.Run("Humidity range out of bounds", func(t *testing.T) {
		cfg := validConfig()
		cfg.MinHumidity = -1
		if err := ValidateConfig(cfg); err == nil {
			t.Error("Expected error for negative humidity")
		}

		cfg = validConfig()
		cfg.MaxHumidity = 101
		if err := ValidateConfig(cfg); err == nil {
			t.Error("Expected error for humidity above 100")
		}
	})
}

func TestDiffConfigs(t *testing.T) {
	t.Run("No changes", func(t *testing.T) {
		a, b := validConfig(), validConfig()
		if changes := DiffConfigs(a, b); len(changes) != 0 {
			t.Errorf("Expected no changes, got: %v", changes)
		}
	})

	t.Run("Only changed fields listed", func(t *testing.T) {
		a, b := validConfig(), validConfig()
		b.MaxTemp = 12
		b.Name = "Cold Storage B"

		changes := DiffConfigs(a, b)
		if len(changes) != 2 {
			t.Fatalf("Expected 2 changes, got %d: %v", len(changes), changes)
		}
	})
}
