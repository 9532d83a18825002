package simulator

import "time"

// Clock abstracts wall-clock time so tests can drive the simulator
type Clock interface {
	Now() time.Time
	NewTicker(d time.Duration) Ticker
}

// Ticker is the subset of time.Ticker the simulator uses
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// Random is a source of uniform values in [0, 1)
type Random interface {
	Float64() float64
}

// RealClock is backed by the time package
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

func (RealClock) NewTicker(d time.Duration) Ticker {
	return realTicker{time.NewTicker(d)}
}

type realTicker struct {
	t *time.Ticker
}

func (r realTicker) C() <-chan time.Time { return r.t.C }
func (r realTicker) Stop()               { r.t.Stop() }
