// Package publisher fans state-change events out to MQTT and Kafka.
package publisher

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/ecohome/ecohome/internal/state"
)

// DefaultQueueSize bounds the events waiting for delivery
const DefaultQueueSize = 256

// Sink is an outbound event destination
type Sink interface {
	Name() string
	Publish(ctx context.Context, ev Event) error
	Close() error
}

// Recorder counts deliveries per sink
type Recorder interface {
	Published(sink string)
	Failed(sink string)
}

type nopRecorder struct{}

func (nopRecorder) Published(string) {}
func (nopRecorder) Failed(string)    {}

// Publisher queues events from store changes and delivers them to every sink
type Publisher struct {
	sinks    []Sink
	recorder Recorder
	logger   zerolog.Logger
	session  string
	timeout  time.Duration
	now      func() time.Time
	queue    chan Event
}

// New creates a publisher. A nil recorder counts nothing.
func New(logger zerolog.Logger, recorder Recorder, session string, sinks ...Sink) *Publisher {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &Publisher{
		sinks:    sinks,
		recorder: recorder,
		logger:   logger.With().Str("component", "publisher").Logger(),
		session:  session,
		timeout:  10 * time.Second,
		now:      time.Now,
		queue:    make(chan Event, DefaultQueueSize),
	}
}

// Handle enqueues the events for change. It has the state.Subscriber
// signature and never blocks: events are dropped when the queue is full.
func (p *Publisher) Handle(change state.Change) {
	for _, ev := range EventsFor(change, p.now()) {
		ev.Session = p.session
		select {
		case p.queue <- ev:
		default:
			p.logger.Warn().
				Str("kind", string(ev.Kind)).
				Msg("Event queue full, dropping event")
			for _, sink := range p.sinks {
				p.recorder.Failed(sink.Name())
			}
		}
	}
}

// Run delivers queued events until ctx is cancelled, then closes the sinks
func (p *Publisher) Run(ctx context.Context) {
	names := make([]string, 0, len(p.sinks))
	for _, sink := range p.sinks {
		names = append(names, sink.Name())
	}
	p.logger.Info().Strs("sinks", names).Msg("Publisher started")

	for {
		select {
		case <-ctx.Done():
			p.close()
			p.logger.Info().Msg("Publisher stopped")
			return
		case ev := <-p.queue:
			p.Deliver(ctx, ev)
		}
	}
}

// Deliver sends ev to every sink. A failing sink does not stop the others.
func (p *Publisher) Deliver(ctx context.Context, ev Event) {
	for _, sink := range p.sinks {
		sendCtx, cancel := context.WithTimeout(ctx, p.timeout)
		err := sink.Publish(sendCtx, ev)
		cancel()

		if err != nil {
			p.recorder.Failed(sink.Name())
			p.logger.Error().
				Err(err).
				Str("sink", sink.Name()).
				Str("kind", string(ev.Kind)).
				Msg("Failed to publish event")
			continue
		}

		p.recorder.Published(sink.Name())
		p.logger.Debug().
			Str("sink", sink.Name()).
			Str("key", ev.Key()).
			Msg("Event published")
	}
}

func (p *Publisher) close() {
	for _, sink := range p.sinks {
		if err := sink.Close(); err != nil {
			p.logger.Warn().Err(err).Str("sink", sink.Name()).Msg("Failed to close sink")
		}
	}
}
