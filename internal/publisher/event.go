package publisher

import (
	"strconv"
	"time"

	"github.com/ecohome/ecohome/internal/state"
	"github.com/ecohome/ecohome/internal/types"
)

// Kind names the payload an event carries
type Kind string

const (
	KindDevice Kind = "device"
	KindSample Kind = "sample"
	KindTotals Kind = "totals"
)

// Event is one outbound state-change notification
type Event struct {
	Kind    Kind                `json:"kind"`
	Time    time.Time           `json:"time"`
	Session string              `json:"session,omitempty"`
	Device  *types.Device       `json:"device,omitempty"`
	Sample  *types.EnergySample `json:"sample,omitempty"`
	Totals  *types.Totals       `json:"totals,omitempty"`
}

// Key identifies the entity an event is about, e.g. "device/3" or "totals"
func (e Event) Key() string {
	if e.Kind == KindDevice && e.Device != nil {
		return string(KindDevice) + "/" + strconv.Itoa(e.Device.ID)
	}
	return string(e.Kind)
}

// EventsFor derives the events a store change produces. A toggle yields
// the updated device followed by the new totals; an appended sample yields
// the sample. Changes that altered nothing yield no events.
func EventsFor(change state.Change, now time.Time) []Event {
	if !change.Changed {
		return nil
	}

	switch a := change.Action.(type) {
	case state.ToggleDevice:
		device, ok := change.Next.Device(a.ID)
		if !ok {
			return nil
		}
		totals := change.Next.Totals
		return []Event{
			{Kind: KindDevice, Time: now, Device: &device},
			{Kind: KindTotals, Time: now, Totals: &totals},
		}
	case state.AppendSample:
		sample, ok := change.Next.LatestSample()
		if !ok {
			return nil
		}
		return []Event{{Kind: KindSample, Time: now, Sample: &sample}}
	}
	return nil
}
