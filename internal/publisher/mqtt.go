package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"

	"github.com/ecohome/ecohome/internal/state"
)

// MQTTClient is the part of mqtt.Client the sink uses
type MQTTClient interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Subscribe(topic string, qos byte, callback mqtt.MessageHandler) mqtt.Token
	Disconnect(quiesce uint)
}

// Dispatcher applies toggle commands received over MQTT
type Dispatcher interface {
	Dispatch(a state.Action) state.Change
}

// MQTTOptions holds the broker connection settings
type MQTTOptions struct {
	Broker   string
	ClientID string
	Username string
	Password string
	Prefix   string
	QoS      byte
	Retained bool
}

// DialMQTT connects a sink to the broker. Command subscriptions made with
// SubscribeCommands are restored every time paho reconnects.
func DialMQTT(opts MQTTOptions, logger zerolog.Logger) (*MQTTSink, error) {
	sink := NewMQTTSink(nil, opts, logger)
	log := sink.logger

	co := mqtt.NewClientOptions()
	co.AddBroker(opts.Broker)
	co.SetClientID(opts.ClientID)
	co.SetUsername(opts.Username)
	co.SetPassword(opts.Password)
	co.SetAutoReconnect(true)
	co.SetKeepAlive(60 * time.Second)
	co.SetPingTimeout(10 * time.Second)
	co.SetOnConnectHandler(func(c mqtt.Client) {
		log.Info().Str("broker", opts.Broker).Msg("Connected to MQTT broker")
		sink.Resubscribe(c)
	})
	co.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		log.Warn().Err(err).Str("broker", opts.Broker).Msg("MQTT connection lost")
	})

	client := mqtt.NewClient(co)
	sink.client = client
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("connecting to MQTT broker %s: %w", opts.Broker, token.Error())
	}
	return sink, nil
}

// MQTTSink publishes events as JSON under a topic prefix
type MQTTSink struct {
	client   MQTTClient
	prefix   string
	qos      byte
	retained bool
	logger   zerolog.Logger

	mu       sync.Mutex
	commands mqtt.MessageHandler // nil until SubscribeCommands
}

// NewMQTTSink wraps a connected client
func NewMQTTSink(client MQTTClient, opts MQTTOptions, logger zerolog.Logger) *MQTTSink {
	return &MQTTSink{
		client:   client,
		prefix:   strings.TrimSuffix(opts.Prefix, "/"),
		qos:      opts.QoS,
		retained: opts.Retained,
		logger:   logger.With().Str("component", "mqtt").Logger(),
	}
}

func (s *MQTTSink) Name() string { return "mqtt" }

// Topic returns the topic ev is published on
func (s *MQTTSink) Topic(ev Event) string {
	switch ev.Kind {
	case KindDevice:
		if ev.Device != nil {
			return s.prefix + "/devices/" + strconv.Itoa(ev.Device.ID)
		}
	case KindSample:
		return s.prefix + "/energy"
	}
	return s.prefix + "/" + string(ev.Kind)
}

// Publish sends ev and waits for the broker acknowledgement or ctx
func (s *MQTTSink) Publish(ctx context.Context, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", ev.Kind, err)
	}

	topic := s.Topic(ev)
	token := s.client.Publish(topic, s.qos, s.retained, payload)
	select {
	case <-token.Done():
	case <-ctx.Done():
		return fmt.Errorf("publish to %s: %w", topic, ctx.Err())
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}
	return nil
}

// CommandTopic is the wildcard topic toggle commands arrive on
func (s *MQTTSink) CommandTopic() string {
	return s.prefix + "/devices/+/toggle"
}

// SubscribeCommands dispatches a ToggleDevice for every message on
// <prefix>/devices/<id>/toggle. The payload is ignored.
func (s *MQTTSink) SubscribeCommands(d Dispatcher) error {
	handler := func(_ mqtt.Client, msg mqtt.Message) {
		id, err := s.commandDeviceID(msg.Topic())
		if err != nil {
			s.logger.Warn().Err(err).Str("topic", msg.Topic()).Msg("Ignoring malformed command")
			return
		}
		change := d.Dispatch(state.ToggleDevice{ID: id})
		s.logger.Info().
			Int("device_id", id).
			Bool("changed", change.Changed).
			Msg("Toggle command received")
	}

	s.mu.Lock()
	s.commands = handler
	s.mu.Unlock()

	return s.subscribe(s.client, handler)
}

// Resubscribe restores the command subscription on client. It is the
// on-connect hook: a clean-session reconnect drops every subscription.
func (s *MQTTSink) Resubscribe(client MQTTClient) {
	s.mu.Lock()
	handler := s.commands
	s.mu.Unlock()
	if handler == nil {
		return
	}
	if err := s.subscribe(client, handler); err != nil {
		s.logger.Error().Err(err).Msg("Failed to restore toggle command subscription")
	}
}

func (s *MQTTSink) subscribe(client MQTTClient, handler mqtt.MessageHandler) error {
	token := client.Subscribe(s.CommandTopic(), s.qos, handler)
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("subscribe %s: %w", s.CommandTopic(), token.Error())
	}
	s.logger.Info().Str("topic", s.CommandTopic()).Msg("Subscribed to toggle commands")
	return nil
}

func (s *MQTTSink) commandDeviceID(topic string) (int, error) {
	rest := strings.TrimPrefix(topic, s.prefix+"/devices/")
	if rest == topic || !strings.HasSuffix(rest, "/toggle") {
		return 0, fmt.Errorf("unexpected command topic")
	}
	id, err := strconv.Atoi(strings.TrimSuffix(rest, "/toggle"))
	if err != nil {
		return 0, fmt.Errorf("invalid device id: %w", err)
	}
	return id, nil
}

// Close disconnects from the broker
func (s *MQTTSink) Close() error {
	s.client.Disconnect(250)
	return nil
}
