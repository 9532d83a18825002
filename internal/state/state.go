// Package state holds the dashboard state and the pure transitions over it.
//
// A State value is never modified in place: Rules.Apply returns a fresh
// State that shares no slices with its input, so snapshots handed to HTTP
// handlers and subscribers stay valid after later dispatches.
package state

import (
	"github.com/ecohome/ecohome/internal/energy"
	"github.com/ecohome/ecohome/internal/types"
)

// DefaultWindow is the number of energy samples kept
const DefaultWindow = 12

// State is everything the dashboard renders
type State struct {
	Devices  []types.Device        `json:"devices"`
	Samples  []types.EnergySample  `json:"samples"`
	Rooms    []types.RoomAggregate `json:"rooms"`
	Alerts   []types.Alert         `json:"alerts"`
	Insights types.Insights        `json:"insights"`
	Totals   types.Totals          `json:"totals"`
}

// Device returns the device with the given id
func (s State) Device(id int) (types.Device, bool) {
	for _, d := range s.Devices {
		if d.ID == id {
			return d, true
		}
	}
	return types.Device{}, false
}

// LatestSample returns the newest energy sample
func (s State) LatestSample() (types.EnergySample, bool) {
	if len(s.Samples) == 0 {
		return types.EnergySample{}, false
	}
	return s.Samples[len(s.Samples)-1], true
}

// Rules parameterizes the transitions
type Rules struct {
	Tariff    energy.Tariff
	Baselines energy.Baselines
	Window    int
}

// DefaultRules returns the stock tariff, baselines and a 12-sample window
func DefaultRules() Rules {
	return Rules{
		Tariff:    energy.DefaultTariff(),
		Baselines: energy.DefaultBaselines(),
		Window:    DefaultWindow,
	}
}

// Seed is the initial content of a session
type Seed struct {
	Devices  []types.Device
	Samples  []types.EnergySample
	Alerts   []types.Alert
	Insights types.Insights
}

// New builds the initial state. Device power is normalized from status so
// the on/off invariant holds from the start, and the sample window is
// trimmed to the newest entries.
func (r Rules) New(seed Seed) State {
	devices := make([]types.Device, len(seed.Devices))
	for i, d := range seed.Devices {
		devices[i] = r.normalize(d)
	}

	samples := append([]types.EnergySample(nil), seed.Samples...)
	if r.Window > 0 && len(samples) > r.Window {
		samples = samples[len(samples)-r.Window:]
	}

	s := State{
		Devices:  devices,
		Samples:  samples,
		Alerts:   append([]types.Alert(nil), seed.Alerts...),
		Insights: types.Insights{
			Metrics: append([]types.Insight(nil), seed.Insights.Metrics...),
			Tips:    append([]string(nil), seed.Insights.Tips...),
		},
	}
	return r.recompute(s)
}

func (r Rules) normalize(d types.Device) types.Device {
	if d.Status == types.StatusOn {
		d.PowerW = r.Baselines.For(d)
	} else {
		d.Status = types.StatusOff
		d.PowerW = 0
	}
	return d
}

// recompute refreshes every value derived from the device list
func (r Rules) recompute(s State) State {
	s.Totals = r.Tariff.Totals(s.Devices)
	s.Rooms = energy.Rooms(s.Devices)
	return s
}
