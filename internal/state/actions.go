package state

import "github.com/ecohome/ecohome/internal/types"

// Action is a state transition request
type Action interface {
	Kind() string
}

// ToggleDevice flips the on/off status of one device
type ToggleDevice struct {
	ID int
}

func (ToggleDevice) Kind() string { return "toggle_device" }

// AppendSample pushes a new sample into the rolling window
type AppendSample struct {
	Sample types.EnergySample
}

func (AppendSample) Kind() string { return "append_sample" }

// Apply returns the state that results from a. The boolean is false when
// the action matched nothing, in which case the returned state is s.
func (r Rules) Apply(s State, a Action) (State, bool) {
	switch a := a.(type) {
	case ToggleDevice:
		return r.toggle(s, a.ID)
	case AppendSample:
		return r.appendSample(s, a.Sample), true
	default:
		return s, false
	}
}

func (r Rules) toggle(s State, id int) (State, bool) {
	idx := -1
	for i, d := range s.Devices {
		if d.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return s, false
	}

	devices := append([]types.Device(nil), s.Devices...)
	d := devices[idx]
	d.Status = d.Status.Flip()
	if d.IsOn() {
		d.PowerW = r.Baselines.For(d)
	} else {
		d.PowerW = 0
	}
	devices[idx] = d

	next := s
	next.Devices = devices
	return r.recompute(next), true
}

func (r Rules) appendSample(s State, sample types.EnergySample) State {
	window := r.Window
	if window <= 0 {
		window = DefaultWindow
	}

	samples := make([]types.EnergySample, 0, window)
	keep := s.Samples
	if len(keep) >= window {
		keep = keep[len(keep)-window+1:]
	}
	samples = append(samples, keep...)
	samples = append(samples, sample)

	next := s
	next.Samples = samples
	return next
}
