package state

import (
	"sync"

	"github.com/rs/zerolog"
)

// Change describes one applied dispatch
type Change struct {
	Action  Action
	Prev    State
	Next    State
	Changed bool
	Seq     uint64 // apply order, starting at 0
}

// Subscriber is notified after every dispatch
type Subscriber func(Change)

// Store serializes dispatches over a single State value
type Store struct {
	rules  Rules
	logger zerolog.Logger

	mu      sync.RWMutex
	current State

	nextSeq uint64

	// subscribers see changes in Seq order
	notifyMu   sync.Mutex
	notifyCond *sync.Cond
	notifySeq  uint64

	subMu       sync.RWMutex
	subscribers []Subscriber
}

// NewStore creates a store seeded with the initial state
func NewStore(rules Rules, seed Seed, logger zerolog.Logger) *Store {
	s := &Store{
		rules:   rules,
		logger:  logger.With().Str("component", "store").Logger(),
		current: rules.New(seed),
	}
	s.notifyCond = sync.NewCond(&s.notifyMu)
	return s
}

// Snapshot returns the current state
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Rules returns the transition parameters the store was built with
func (s *Store) Rules() Rules {
	return s.rules
}

// Subscribe registers fn to run after every dispatch. fn must not
// dispatch to the same store.
func (s *Store) Subscribe(fn Subscriber) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

// Dispatch applies a and returns the resulting change. Subscribers run
// synchronously on the caller's goroutine after the state lock is released.
// A dispatch waits for every earlier one to finish notifying, so
// subscribers always observe changes in apply order.
func (s *Store) Dispatch(a Action) Change {
	s.mu.Lock()
	prev := s.current
	next, changed := s.rules.Apply(prev, a)
	s.current = next
	seq := s.nextSeq
	s.nextSeq++
	s.mu.Unlock()

	s.awaitTurn(seq)
	defer s.finishTurn()

	change := Change{Action: a, Prev: prev, Next: next, Changed: changed, Seq: seq}

	if changed {
		s.logger.Debug().
			Str("action", a.Kind()).
			Float64("total_power_w", next.Totals.PowerW).
			Int("samples", len(next.Samples)).
			Msg("State updated")
	} else {
		s.logger.Debug().
			Str("action", a.Kind()).
			Msg("Action matched nothing, state unchanged")
	}

	s.subMu.RLock()
	subs := append([]Subscriber(nil), s.subscribers...)
	s.subMu.RUnlock()
	for _, fn := range subs {
		fn(change)
	}

	return change
}

func (s *Store) awaitTurn(seq uint64) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()
	for s.notifySeq != seq {
		s.notifyCond.Wait()
	}
}

func (s *Store) finishTurn() {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()
	s.notifySeq++
	s.notifyCond.Broadcast()
}
