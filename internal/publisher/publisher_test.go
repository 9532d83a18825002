package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecohome/ecohome/internal/state"
	"github.com/ecohome/ecohome/internal/types"
)

var testNow = time.Date(2024, 5, 1, 14, 30, 0, 0, time.UTC)

func newStore() *state.Store {
	return state.NewStore(state.DefaultRules(), state.Seed{
		Devices: []types.Device{
			{ID: 1, Name: "Bedroom AC", Category: types.CategoryClimate, Status: types.StatusOn, Room: "Bedroom"},
			{ID: 5, Name: "Office Lights", Category: types.CategoryLighting, Status: types.StatusOff, Room: "Office"},
		},
	}, zerolog.Nop())
}

// fakeToken is an already completed mqtt.Token
type fakeToken struct {
	err  error
	done chan struct{}
}

func newToken(err error) *fakeToken {
	t := &fakeToken{err: err, done: make(chan struct{})}
	close(t.done)
	return t
}

func (t *fakeToken) Wait() bool                     { return true }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t *fakeToken) Done() <-chan struct{}          { return t.done }
func (t *fakeToken) Error() error                   { return t.err }

type fakeMessage struct {
	topic   string
	payload []byte
}

func (m fakeMessage) Duplicate() bool   { return false }
func (m fakeMessage) Qos() byte         { return 0 }
func (m fakeMessage) Retained() bool    { return false }
func (m fakeMessage) Topic() string     { return m.topic }
func (m fakeMessage) MessageID() uint16 { return 1 }
func (m fakeMessage) Payload() []byte   { return m.payload }
func (m fakeMessage) Ack()              {}

type published struct {
	topic    string
	qos      byte
	retained bool
	payload  []byte
}

type fakeMQTT struct {
	mu           sync.Mutex
	published    []published
	publishErr   error
	subscribed   string
	subscribes   int
	handler      mqtt.MessageHandler
	disconnected bool
}

func (f *fakeMQTT) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, published{topic, qos, retained, payload.([]byte)})
	return newToken(f.publishErr)
}

func (f *fakeMQTT) Subscribe(topic string, _ byte, callback mqtt.MessageHandler) mqtt.Token {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subscribes++
	f.subscribed = topic
	f.handler = callback
	return newToken(nil)
}

func (f *fakeMQTT) Disconnect(uint) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.disconnected = true
}

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

type countingRecorder struct {
	mu        sync.Mutex
	published map[string]int
	failed    map[string]int
}

func newRecorder() *countingRecorder {
	return &countingRecorder{published: map[string]int{}, failed: map[string]int{}}
}

func (r *countingRecorder) Published(sink string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.published[sink]++
}

func (r *countingRecorder) Failed(sink string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failed[sink]++
}

func TestEventsFor(t *testing.T) {
	store := newStore()

	toggle := store.Dispatch(state.ToggleDevice{ID: 5})
	events := EventsFor(toggle, testNow)
	require.Len(t, events, 2)
	assert.Equal(t, KindDevice, events[0].Kind)
	assert.Equal(t, 45.0, events[0].Device.PowerW)
	assert.Equal(t, "device/5", events[0].Key())
	assert.Equal(t, KindTotals, events[1].Kind)
	assert.Equal(t, 1245.0, events[1].Totals.PowerW)
	assert.Equal(t, "totals", events[1].Key())

	sample := store.Dispatch(state.AppendSample{Sample: types.EnergySample{Time: "14:30", ConsumptionKWh: 6.2, Cost: 0.93}})
	events = EventsFor(sample, testNow)
	require.Len(t, events, 1)
	assert.Equal(t, KindSample, events[0].Kind)
	assert.Equal(t, "14:30", events[0].Sample.Time)

	assert.Empty(t, EventsFor(store.Dispatch(state.ToggleDevice{ID: 42}), testNow))
}

func TestMQTTSinkTopics(t *testing.T) {
	client := &fakeMQTT{}
	sink := NewMQTTSink(client, MQTTOptions{Prefix: "home/", QoS: 1, Retained: true}, zerolog.Nop())

	device := types.Device{ID: 3, Name: "Kitchen Fridge", Status: types.StatusOn, PowerW: 150}
	sample := types.EnergySample{Time: "9:05", ConsumptionKWh: 5.5, Cost: 0.83}
	totals := types.Totals{PowerW: 150}

	ctx := context.Background()
	require.NoError(t, sink.Publish(ctx, Event{Kind: KindDevice, Time: testNow, Device: &device}))
	require.NoError(t, sink.Publish(ctx, Event{Kind: KindSample, Time: testNow, Sample: &sample}))
	require.NoError(t, sink.Publish(ctx, Event{Kind: KindTotals, Time: testNow, Totals: &totals}))

	require.Len(t, client.published, 3)
	assert.Equal(t, "home/devices/3", client.published[0].topic)
	assert.Equal(t, "home/energy", client.published[1].topic)
	assert.Equal(t, "home/totals", client.published[2].topic)
	assert.Equal(t, byte(1), client.published[0].qos)
	assert.True(t, client.published[0].retained)

	var decoded Event
	require.NoError(t, json.Unmarshal(client.published[0].payload, &decoded))
	assert.Equal(t, KindDevice, decoded.Kind)
	assert.Equal(t, 3, decoded.Device.ID)
	assert.Nil(t, decoded.Sample)
}

func TestMQTTSinkPublishError(t *testing.T) {
	client := &fakeMQTT{publishErr: errors.New("not connected")}
	sink := NewMQTTSink(client, MQTTOptions{Prefix: "ecohome"}, zerolog.Nop())

	totals := types.Totals{}
	err := sink.Publish(context.Background(), Event{Kind: KindTotals, Totals: &totals})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ecohome/totals")

	require.NoError(t, sink.Close())
	assert.True(t, client.disconnected)
}

func TestMQTTSinkCommands(t *testing.T) {
	client := &fakeMQTT{}
	sink := NewMQTTSink(client, MQTTOptions{Prefix: "ecohome"}, zerolog.Nop())
	store := newStore()

	require.NoError(t, sink.SubscribeCommands(store))
	assert.Equal(t, "ecohome/devices/+/toggle", client.subscribed)
	require.NotNil(t, client.handler)

	client.handler(nil, fakeMessage{topic: "ecohome/devices/5/toggle"})
	d, ok := store.Snapshot().Device(5)
	require.True(t, ok)
	assert.True(t, d.IsOn())

	// malformed and unknown ids leave the state alone
	before := store.Snapshot()
	client.handler(nil, fakeMessage{topic: "ecohome/devices/abc/toggle"})
	client.handler(nil, fakeMessage{topic: "other/devices/1/toggle"})
	client.handler(nil, fakeMessage{topic: "ecohome/devices/99/toggle"})
	assert.Equal(t, before, store.Snapshot())
}

func TestMQTTSinkResubscribesOnConnect(t *testing.T) {
	client := &fakeMQTT{}
	sink := NewMQTTSink(client, MQTTOptions{Prefix: "ecohome"}, zerolog.Nop())
	store := newStore()

	// nothing to restore before commands are enabled
	sink.Resubscribe(client)
	assert.Equal(t, 0, client.subscribes)

	require.NoError(t, sink.SubscribeCommands(store))
	require.Equal(t, 1, client.subscribes)

	// broker dropped the session twice; each reconnect restores it
	reconnected := &fakeMQTT{}
	sink.Resubscribe(reconnected)
	sink.Resubscribe(reconnected)
	assert.Equal(t, 2, reconnected.subscribes)
	assert.Equal(t, "ecohome/devices/+/toggle", reconnected.subscribed)

	require.NotNil(t, reconnected.handler)
	reconnected.handler(nil, fakeMessage{topic: "ecohome/devices/5/toggle"})
	d, ok := store.Snapshot().Device(5)
	require.True(t, ok)
	assert.True(t, d.IsOn())
}

func TestKafkaSink(t *testing.T) {
	w := &fakeWriter{}
	sink := NewKafkaSink(w, "ecohome.events")

	device := types.Device{ID: 2, Name: "Bedroom AC"}
	require.NoError(t, sink.Publish(context.Background(), Event{Kind: KindDevice, Time: testNow, Device: &device}))

	require.Len(t, w.msgs, 1)
	assert.Equal(t, "device/2", string(w.msgs[0].Key))
	assert.Equal(t, testNow, w.msgs[0].Time)
	assert.Equal(t, "kind", w.msgs[0].Headers[0].Key)
	assert.Equal(t, "device", string(w.msgs[0].Headers[0].Value))

	w.err = errors.New("broker down")
	err := sink.Publish(context.Background(), Event{Kind: KindTotals})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ecohome.events")

	require.NoError(t, sink.Close())
	assert.True(t, w.closed)
}

func TestNewKafkaWriter(t *testing.T) {
	w := NewKafkaWriter([]string{"kafka:9092"}, "ecohome.events")
	assert.Equal(t, "ecohome.events", w.Topic)
	assert.Equal(t, kafka.RequireOne, w.RequiredAcks)
	assert.IsType(t, &kafka.Hash{}, w.Balancer)
	assert.Equal(t, DefaultBatchTimeout, w.BatchTimeout)
	assert.False(t, w.Async)
}

func TestPublisherFansOut(t *testing.T) {
	client := &fakeMQTT{}
	w := &fakeWriter{err: errors.New("broker down")}
	rec := newRecorder()

	p := New(zerolog.Nop(), rec, "session-1",
		NewMQTTSink(client, MQTTOptions{Prefix: "ecohome"}, zerolog.Nop()),
		NewKafkaSink(w, "ecohome.events"),
	)

	store := newStore()
	store.Subscribe(p.Handle)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	store.Dispatch(state.ToggleDevice{ID: 1})
	store.Dispatch(state.ToggleDevice{ID: 77})

	assert.Eventually(t, func() bool {
		rec.mu.Lock()
		defer rec.mu.Unlock()
		return rec.published["mqtt"] == 2 && rec.failed["kafka"] == 2
	}, time.Second, 5*time.Millisecond)

	cancel()
	<-done
	assert.True(t, client.disconnected)
	assert.True(t, w.closed)

	client.mu.Lock()
	defer client.mu.Unlock()
	var ev Event
	require.NoError(t, json.Unmarshal(client.published[0].payload, &ev))
	assert.Equal(t, "session-1", ev.Session)
}

func TestPublisherDropsWhenQueueFull(t *testing.T) {
	rec := newRecorder()
	p := New(zerolog.Nop(), rec, "", NewKafkaSink(&fakeWriter{}, "t"))
	p.queue = make(chan Event, 1)

	store := newStore()
	store.Subscribe(p.Handle)
	store.Dispatch(state.ToggleDevice{ID: 1})

	assert.Len(t, p.queue, 1)
	assert.Equal(t, 1, rec.failed["kafka"])
}

func TestPublisherKeepsApplyOrder(t *testing.T) {
	client := &fakeMQTT{}
	p := New(zerolog.Nop(), nil, "", NewMQTTSink(client, MQTTOptions{Prefix: "ecohome", Retained: true}, zerolog.Nop()))

	store := newStore()
	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	store.Subscribe(func(state.Change) {
		once.Do(func() {
			close(entered)
			<-release
		})
	})
	store.Subscribe(p.Handle)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		store.Dispatch(state.ToggleDevice{ID: 5})
	}()
	<-entered
	go func() {
		defer wg.Done()
		store.Dispatch(state.ToggleDevice{ID: 1})
	}()
	require.Eventually(t, func() bool {
		return store.Snapshot().Totals.PowerW == 45
	}, time.Second, time.Millisecond)
	close(release)
	wg.Wait()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()
	require.Eventually(t, func() bool {
		client.mu.Lock()
		defer client.mu.Unlock()
		return len(client.published) == 4
	}, time.Second, 5*time.Millisecond)
	cancel()
	<-done

	client.mu.Lock()
	defer client.mu.Unlock()
	var last Event
	for _, pub := range client.published {
		if pub.topic == "ecohome/totals" {
			require.NoError(t, json.Unmarshal(pub.payload, &last))
		}
	}
	require.NotNil(t, last.Totals)
	assert.Equal(t, store.Snapshot().Totals.PowerW, last.Totals.PowerW)
	assert.Equal(t, 45.0, last.Totals.PowerW)
}
