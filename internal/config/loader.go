package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ecohome/ecohome/internal/energy"
	"github.com/ecohome/ecohome/internal/state"
	"github.com/ecohome/ecohome/internal/types"
)

// LoadConfig loads configuration from a YAML file. An empty path yields
// the built-in defaults. Keys missing from the file keep their stock
// value; keys present keep the file's value, zero included.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}

	cfg := defaultSettings()
	if err := loadYAML(path, cfg); err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}

	// A file without a device list keeps the built-in seed
	if len(cfg.Devices) == 0 {
		seed := Default()
		cfg.Devices = seed.Devices
		if len(cfg.Samples) == 0 {
			cfg.Samples = seed.Samples
		}
		if len(cfg.Alerts) == 0 {
			cfg.Alerts = seed.Alerts
		}
		if len(cfg.Insights.Metrics) == 0 && len(cfg.Insights.Tips) == 0 {
			cfg.Insights = seed.Insights
		}
	}

	fillBaselines(cfg)

	if err := ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadYAML loads a YAML file into a struct
func loadYAML(path string, out interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, out)
}

// ApplyEnv applies environment overrides
func (c *Config) ApplyEnv() {
	if port := os.Getenv("API_PORT"); port != "" {
		c.Server.Port = port
	}
}

// MQTTPassword resolves the MQTT password from the configured variable
func (c *Config) MQTTPassword() string {
	if c.MQTT.PasswordEnv == "" {
		return ""
	}
	return os.Getenv(c.MQTT.PasswordEnv)
}

// ValidateConfig validates the configuration
func ValidateConfig(cfg *Config) error {
	if len(cfg.Devices) == 0 {
		return fmt.Errorf("no devices configured")
	}

	seen := make(map[int]bool)
	for _, device := range cfg.Devices {
		if device.ID <= 0 {
			return fmt.Errorf("device %q: id must be > 0", device.Name)
		}
		if seen[device.ID] {
			return fmt.Errorf("device %d: duplicate id", device.ID)
		}
		seen[device.ID] = true

		if device.Name == "" {
			return fmt.Errorf("device %d: name is required", device.ID)
		}
		if device.Room == "" {
			return fmt.Errorf("device %d: room is required", device.ID)
		}
		if !types.Category(device.Category).Valid() {
			return fmt.Errorf("device %d: category must be 'lighting', 'climate-control' or 'appliance'", device.ID)
		}
		if device.Status != "" && !types.Status(device.Status).Valid() {
			return fmt.Errorf("device %d: status must be 'on' or 'off'", device.ID)
		}
		if device.BaselineW < 0 {
			return fmt.Errorf("device %d: baseline_w must be >= 0", device.ID)
		}
	}

	if cfg.Server.FlapThreshold < 0 {
		return fmt.Errorf("server.flap_threshold must be >= 0")
	}
	if cfg.Server.FlapWindow < 0 {
		return fmt.Errorf("server.flap_window must be >= 0")
	}

	for category, watts := range cfg.Baselines {
		if !types.Category(category).Valid() {
			return fmt.Errorf("baselines: unknown category %s", category)
		}
		if watts < 0 {
			return fmt.Errorf("baselines: %s must be >= 0", category)
		}
	}

	if cfg.Simulation.Interval <= 0 {
		return fmt.Errorf("simulation.interval must be > 0")
	}
	if cfg.Simulation.Window < 1 {
		return fmt.Errorf("simulation.window must be >= 1")
	}
	if cfg.Simulation.MinKWh <= 0 || cfg.Simulation.MinKWh >= cfg.Simulation.MaxKWh {
		return fmt.Errorf("simulation: min_kwh must be > 0 and below max_kwh")
	}

	if cfg.Tariff.RatePerKWh < 0 {
		return fmt.Errorf("tariff.rate_per_kwh must be >= 0")
	}
	if cfg.Tariff.SavingsRatio < 0 || cfg.Tariff.SavingsRatio > 1 {
		return fmt.Errorf("tariff.savings_ratio must be between 0 and 1")
	}
	if cfg.Tariff.HoursPerMonth <= 0 {
		return fmt.Errorf("tariff.hours_per_month must be > 0")
	}

	for i, sample := range cfg.Samples {
		if sample.Time == "" {
			return fmt.Errorf("sample %d: time is required", i)
		}
		if sample.ConsumptionKWh <= 0 {
			return fmt.Errorf("sample %s: consumption_kwh must be > 0", sample.Time)
		}
	}

	alertIDs := make(map[int]bool)
	for _, alert := range cfg.Alerts {
		if alertIDs[alert.ID] {
			return fmt.Errorf("alert %d: duplicate id", alert.ID)
		}
		alertIDs[alert.ID] = true
		if !types.Severity(alert.Severity).Valid() {
			return fmt.Errorf("alert %d: severity must be 'warning', 'info' or 'success'", alert.ID)
		}
		if alert.Message == "" {
			return fmt.Errorf("alert %d: message is required", alert.ID)
		}
	}

	if cfg.MQTT.Enabled {
		if cfg.MQTT.Broker == "" {
			return fmt.Errorf("mqtt: broker is required when enabled")
		}
		if cfg.MQTT.QoS > 2 {
			return fmt.Errorf("mqtt: qos must be 0, 1 or 2")
		}
	}

	if cfg.Kafka.Enabled && len(cfg.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka: at least one broker is required when enabled")
	}

	return nil
}

// TariffParams returns the pricing parameters
func (c *Config) TariffParams() energy.Tariff {
	return energy.Tariff{
		RatePerKWh:    c.Tariff.RatePerKWh,
		HoursPerMonth: c.Tariff.HoursPerMonth,
		SavingsRatio:  c.Tariff.SavingsRatio,
	}
}

// Rules returns the state transition parameters
func (c *Config) Rules() state.Rules {
	baselines := energy.Baselines{}
	for category, watts := range c.Baselines {
		baselines[types.Category(category)] = watts
	}
	return state.Rules{
		Tariff:    c.TariffParams(),
		Baselines: baselines,
		Window:    c.Simulation.Window,
	}
}

// Seed converts the configured devices, samples and insights into the
// initial session content. Alerts are built by the alerter package.
func (c *Config) Seed() state.Seed {
	tariff := c.TariffParams()
	seed := state.Seed{}

	for _, d := range c.Devices {
		status := types.Status(d.Status)
		if status == "" {
			status = types.StatusOff
		}
		seed.Devices = append(seed.Devices, types.Device{
			ID:        d.ID,
			Name:      d.Name,
			Category:  types.Category(d.Category),
			Status:    status,
			Room:      d.Room,
			Icon:      d.Icon,
			BaselineW: d.BaselineW,
		})
	}

	for _, s := range c.Samples {
		cost := s.Cost
		if cost == 0 {
			cost = tariff.Cost(s.ConsumptionKWh)
		}
		seed.Samples = append(seed.Samples, types.EnergySample{
			Time:           s.Time,
			ConsumptionKWh: s.ConsumptionKWh,
			Cost:           cost,
		})
	}

	for _, m := range c.Insights.Metrics {
		seed.Insights.Metrics = append(seed.Insights.Metrics, types.Insight{Label: m.Label, Value: m.Value})
	}
	seed.Insights.Tips = append(seed.Insights.Tips, c.Insights.Tips...)

	return seed
}
