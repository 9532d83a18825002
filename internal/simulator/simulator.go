// Package simulator produces synthetic energy samples on a fixed interval.
package simulator

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/rs/zerolog"

	"github.com/ecohome/ecohome/internal/energy"
	"github.com/ecohome/ecohome/internal/state"
	"github.com/ecohome/ecohome/internal/types"
)

const (
	DefaultInterval = 5 * time.Second
	DefaultMinKWh   = 5.0
	DefaultMaxKWh   = 7.0
)

// Dispatcher applies state actions
type Dispatcher interface {
	Dispatch(state.Action) state.Change
}

// Options configures a Simulator
type Options struct {
	Interval time.Duration
	MinKWh   float64
	MaxKWh   float64
	Tariff   energy.Tariff
	Clock    Clock
	Random   Random
}

// Simulator appends one randomized sample per interval
type Simulator struct {
	store    Dispatcher
	logger   zerolog.Logger
	interval time.Duration
	minKWh   float64
	maxKWh   float64
	tariff   energy.Tariff
	clock    Clock
	random   Random
}

// New creates a simulator. Zero-valued options fall back to a 5s interval,
// a [5.0, 7.0) kWh range, the default tariff, the real clock and a
// time-seeded random source.
func New(store Dispatcher, opts Options, logger zerolog.Logger) *Simulator {
	s := &Simulator{
		store:    store,
		logger:   logger.With().Str("component", "simulator").Logger(),
		interval: opts.Interval,
		minKWh:   opts.MinKWh,
		maxKWh:   opts.MaxKWh,
		tariff:   opts.Tariff,
		clock:    opts.Clock,
		random:   opts.Random,
	}
	if s.interval <= 0 {
		s.interval = DefaultInterval
	}
	if s.maxKWh <= s.minKWh {
		s.minKWh, s.maxKWh = DefaultMinKWh, DefaultMaxKWh
	}
	if s.tariff == (energy.Tariff{}) {
		s.tariff = energy.DefaultTariff()
	}
	if s.clock == nil {
		s.clock = RealClock{}
	}
	if s.random == nil {
		s.random = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return s
}

// Sample builds the sample for time now. Consumption is truncated rather
// than rounded to one decimal so it never reaches the upper bound.
func (s *Simulator) Sample(now time.Time) types.EnergySample {
	consumption := energy.Truncate1(s.minKWh + s.random.Float64()*(s.maxKWh-s.minKWh))
	if consumption < s.minKWh {
		consumption = s.minKWh
	}
	return types.EnergySample{
		Time:           TimeLabel(now),
		ConsumptionKWh: consumption,
		Cost:           s.tariff.Cost(consumption),
	}
}

// Step produces one sample and dispatches it
func (s *Simulator) Step() types.EnergySample {
	sample := s.Sample(s.clock.Now())
	change := s.store.Dispatch(state.AppendSample{Sample: sample})

	s.logger.Debug().
		Str("time", sample.Time).
		Float64("consumption_kwh", sample.ConsumptionKWh).
		Float64("cost", sample.Cost).
		Int("window", len(change.Next.Samples)).
		Msg("Energy sample appended")

	return sample
}

// Run ticks until ctx is cancelled
func (s *Simulator) Run(ctx context.Context) {
	t := s.clock.NewTicker(s.interval)
	defer t.Stop()

	s.logger.Info().
		Dur("interval", s.interval).
		Float64("min_kwh", s.minKWh).
		Float64("max_kwh", s.maxKWh).
		Msg("Simulation started")

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("Simulation stopped")
			return
		case <-t.C():
			s.Step()
		}
	}
}

// TimeLabel formats t as hour:minute without padding the hour
func TimeLabel(t time.Time) string {
	return fmt.Sprintf("%d:%02d", t.Hour(), t.Minute())
}
