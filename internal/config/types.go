package config

import "time"

// Config represents the complete EcoHome configuration
type Config struct {
	Server     ServerConfig       `yaml:"server"`
	Simulation SimulationConfig   `yaml:"simulation"`
	Tariff     TariffConfig       `yaml:"tariff"`
	Baselines  map[string]float64 `yaml:"baselines,omitempty"`
	Devices    []DeviceConfig     `yaml:"devices"`
	Samples    []SampleConfig     `yaml:"samples,omitempty"`
	Alerts     []AlertConfig      `yaml:"alerts,omitempty"`
	Insights   InsightsConfig     `yaml:"insights,omitempty"`
	MQTT       MQTTConfig         `yaml:"mqtt,omitempty"`
	Kafka      KafkaConfig        `yaml:"kafka,omitempty"`
}

// ServerConfig contains HTTP listener settings
type ServerConfig struct {
	Port          string        `yaml:"port"`
	LogBufferSize int           `yaml:"log_buffer_size"`
	FlapThreshold int           `yaml:"flap_threshold"` // toggles within flap_window; < 2 disables
	FlapWindow    time.Duration `yaml:"flap_window"`
}

// SimulationConfig controls the synthetic sample generator
type SimulationConfig struct {
	Interval time.Duration `yaml:"interval"`
	Window   int           `yaml:"window"`
	MinKWh   float64       `yaml:"min_kwh"`
	MaxKWh   float64       `yaml:"max_kwh"`
	Seed     int64         `yaml:"seed,omitempty"` // 0 = time-seeded
}

// TariffConfig prices consumption
type TariffConfig struct {
	RatePerKWh    float64 `yaml:"rate_per_kwh"`
	HoursPerMonth float64 `yaml:"hours_per_month"`
	SavingsRatio  float64 `yaml:"savings_ratio"`
	Currency      string  `yaml:"currency"`
}

// DeviceConfig seeds one simulated device
type DeviceConfig struct {
	ID        int     `yaml:"id"`
	Name      string  `yaml:"name"`
	Category  string  `yaml:"category"`
	Status    string  `yaml:"status"` // "on" or "off"
	Room      string  `yaml:"room"`
	Icon      string  `yaml:"icon,omitempty"`
	BaselineW float64 `yaml:"baseline_w,omitempty"`
}

// SampleConfig seeds one point of the energy window
type SampleConfig struct {
	Time           string  `yaml:"time"`
	ConsumptionKWh float64 `yaml:"consumption_kwh"`
	Cost           float64 `yaml:"cost,omitempty"` // derived from the tariff when zero
}

// AlertConfig defines one static alert. Either Time or Age sets its label.
type AlertConfig struct {
	ID       int           `yaml:"id"`
	Severity string        `yaml:"severity"`
	Message  string        `yaml:"message"`
	Time     string        `yaml:"time,omitempty"`
	Age      time.Duration `yaml:"age,omitempty"`
}

// InsightsConfig holds the analytics tab content
type InsightsConfig struct {
	Metrics []InsightMetric `yaml:"metrics,omitempty"`
	Tips    []string        `yaml:"tips,omitempty"`
}

// InsightMetric is one labelled figure
type InsightMetric struct {
	Label string `yaml:"label"`
	Value string `yaml:"value"`
}

// MQTTConfig defines the optional MQTT sink
type MQTTConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Broker      string `yaml:"broker"`
	ClientID    string `yaml:"client_id"`
	Username    string `yaml:"username,omitempty"`
	PasswordEnv string `yaml:"password_env,omitempty"`
	TopicPrefix string `yaml:"topic_prefix"`
	QoS         byte   `yaml:"qos"`
	Retained    bool   `yaml:"retained"`
	Commands    bool   `yaml:"commands"` // accept toggle commands
}

// KafkaConfig defines the optional Kafka sink
type KafkaConfig struct {
	Enabled bool     `yaml:"enabled"`
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}
