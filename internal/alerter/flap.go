package alerter

import (
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// FlapDetector tracks devices being switched on and off in quick
// succession. It only observes: toggles are never blocked.
type FlapDetector struct {
	log       zerolog.Logger
	threshold int           // toggles within window that count as flapping
	window    time.Duration // sliding window for threshold
	now       func() time.Time
	mu        sync.Mutex
	history   map[int][]time.Time // device id -> toggle timestamps
	flapping  map[int]bool
}

// NewFlapDetector creates a detector. A threshold below 2 disables it.
func NewFlapDetector(log zerolog.Logger, threshold int, window time.Duration) *FlapDetector {
	return &FlapDetector{
		log:       log.With().Str("component", "flap-detector").Logger(),
		threshold: threshold,
		window:    window,
		now:       time.Now,
		history:   make(map[int][]time.Time),
		flapping:  make(map[int]bool),
	}
}

// RecordToggle records a toggle of device id and reports whether it is
// flapping and whether that started with this toggle.
func (f *FlapDetector) RecordToggle(id int) (flapping bool, justStarted bool) {
	if f == nil || f.threshold < 2 {
		return false, false
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	now := f.now()
	pruned := f.prune(f.history[id], now)
	pruned = append(pruned, now)
	f.history[id] = pruned

	if len(pruned) < f.threshold {
		if f.flapping[id] {
			delete(f.flapping, id)
			f.log.Info().Int("device_id", id).Msg("Device stopped flapping")
		}
		return false, false
	}

	wasFlapping := f.flapping[id]
	f.flapping[id] = true
	if !wasFlapping {
		f.log.Warn().
			Int("device_id", id).
			Int("toggles", len(pruned)).
			Dur("window", f.window).
			Msg("Device toggling rapidly")
		return true, true
	}
	return true, false
}

// Flapping returns the ids of devices still toggling rapidly, ascending.
// Devices whose toggles have aged out of the window are cleared.
func (f *FlapDetector) Flapping() []int {
	if f == nil {
		return []int{}
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	now := f.now()
	ids := []int{}
	for id, stamps := range f.history {
		pruned := f.prune(stamps, now)
		if len(pruned) == 0 {
			delete(f.history, id)
		} else {
			f.history[id] = pruned
		}
		if len(pruned) < f.threshold {
			delete(f.flapping, id)
			continue
		}
		if f.flapping[id] {
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)
	return ids
}

func (f *FlapDetector) prune(stamps []time.Time, now time.Time) []time.Time {
	cutoff := now.Add(-f.window)
	pruned := make([]time.Time, 0, len(stamps)+1)
	for _, ts := range stamps {
		if ts.After(cutoff) {
			pruned = append(pruned, ts)
		}
	}
	return pruned
}
