// Package simulator generates synthetic sensor readings for development and
// demo environments, publishing them through the same path real sensors use.
package simulator

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/rs/zerolog/log"

	"warehousemon/internal/store"
)

// inRangeProbability is the share of generated readings that stay within the
// warehouse's configured thresholds. The rest intentionally violate one
// dimension so that the alerting pipeline has something to show.
const inRangeProbability = 0.85

// Physical sensor bounds. Out-of-range excursions stay inside these so every
// generated reading survives ingestion validation.
const (
	sensorMinTemp     = -60.0
	sensorMaxTemp     = 60.0
	sensorMinHumidity = 0.0
	sensorMaxHumidity = 100.0
)

// Simulator publishes one synthetic reading per active warehouse on every
// run. It never writes to the store directly.
type Simulator struct {
	warehouses func() []*store.WarehouseConfig
	publisher  store.ReadingPublisher
	rng        *rand.Rand
	now        func() time.Time
}

// New creates a simulator over the given warehouse snapshot provider and
// reading publisher.
func New(warehouses func() []*store.WarehouseConfig, publisher store.ReadingPublisher) *Simulator {
	return &Simulator{
		warehouses: warehouses,
		publisher:  publisher,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
		now:        time.Now,
	}
}

// Run generates and publishes one reading for every active warehouse.
// Publish failures are logged per warehouse and never abort the run.
func (s *Simulator) Run(ctx context.Context) error {
	published := 0
	for _, cfg := range s.warehouses() {
		reading := s.generate(cfg)
		if err := s.publisher.PublishReading(ctx, cfg.ID, reading); err != nil {
			log.Warn().Str("warehouse_id", cfg.ID).Err(err).Msg("Failed to publish simulated reading")
			continue
		}
		published++
	}
	log.Debug().Int("published", published).Msg("Simulated readings published")
	return nil
}

// generate produces one reading for a warehouse. Most readings cluster
// around the range center; out-of-range readings violate exactly one
// dimension while the other stays nominal.
func (s *Simulator) generate(cfg *store.WarehouseConfig) store.SensorReading {
	temp := s.inRange(cfg.MinTemp, cfg.MaxTemp)
	hum := s.inRange(cfg.MinHumidity, cfg.MaxHumidity)

	if s.rng.Float64() >= inRangeProbability {
		if s.rng.Float64() < 0.5 {
			temp = s.outOfRange(cfg.MinTemp, cfg.MaxTemp, sensorMinTemp, sensorMaxTemp)
		} else {
			hum = s.outOfRange(cfg.MinHumidity, cfg.MaxHumidity, sensorMinHumidity, sensorMaxHumidity)
		}
	}

	return store.SensorReading{
		Temperature: round2(temp),
		Humidity:    round2(hum),
		Timestamp:   s.now().UnixMilli(),
		SensorID:    "sim-" + cfg.ID,
	}
}

// inRange samples a gaussian around the range center and clamps the result
// into the configured bounds.
func (s *Simulator) inRange(min, max float64) float64 {
	center := (min + max) / 2
	spread := (max - min) * 0.2
	v := center + s.rng.NormFloat64()*spread
	return math.Min(math.Max(v, min), max)
}

// outOfRange produces a value past one of the bounds, between 10% and 40%
// of the range beyond it, clamped to the physical sensor bounds.
func (s *Simulator) outOfRange(min, max, floor, ceil float64) float64 {
	excess := (max - min) * (0.1 + 0.3*s.rng.Float64())
	if s.rng.Float64() < 0.5 {
		return math.Max(min-excess, floor)
	}
	return math.Min(max+excess, ceil)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
