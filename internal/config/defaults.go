package config

import "time"

const (
	DefaultPort          = "8088"
	DefaultLogBufferSize = 1000
	DefaultMQTTPrefix    = "ecohome"
	DefaultMQTTClientID  = "ecohome"
	DefaultKafkaTopic    = "ecohome.events"
	DefaultFlapThreshold = 5
	DefaultFlapWindow    = time.Minute
)

// Default returns the built-in configuration: six devices over five rooms,
// a morning-to-evening sample curve and the stock alerts and insights.
func Default() *Config {
	cfg := defaultSettings()
	seed := &Config{
		Devices: []DeviceConfig{
			{ID: 1, Name: "Living Room Lights", Category: "lighting", Status: "on", Room: "Living Room", Icon: "lightbulb"},
			{ID: 2, Name: "Bedroom AC", Category: "climate-control", Status: "on", Room: "Bedroom", Icon: "thermometer"},
			{ID: 3, Name: "Kitchen Fridge", Category: "appliance", Status: "on", Room: "Kitchen", Icon: "power", BaselineW: 150},
			{ID: 4, Name: "Water Heater", Category: "appliance", Status: "on", Room: "Bathroom", Icon: "droplet", BaselineW: 3000},
			{ID: 5, Name: "Office Lights", Category: "lighting", Status: "off", Room: "Office", Icon: "lightbulb"},
			{ID: 6, Name: "Living Room TV", Category: "appliance", Status: "on", Room: "Living Room", Icon: "power"},
		},
		Samples: []SampleConfig{
			{Time: "00:00", ConsumptionKWh: 2.1, Cost: 0.31},
			{Time: "04:00", ConsumptionKWh: 1.8, Cost: 0.27},
			{Time: "08:00", ConsumptionKWh: 4.2, Cost: 0.63},
			{Time: "12:00", ConsumptionKWh: 5.8, Cost: 0.87},
			{Time: "16:00", ConsumptionKWh: 6.5, Cost: 0.98},
			{Time: "20:00", ConsumptionKWh: 7.2, Cost: 1.08},
		},
		Alerts: []AlertConfig{
			{ID: 1, Severity: "warning", Message: "Water Heater running at peak hours - Consider scheduling", Age: 2 * time.Minute},
			{ID: 2, Severity: "info", Message: "Bedroom AC filter maintenance due in 3 days", Age: time.Hour},
			{ID: 3, Severity: "success", Message: "Energy usage 23% below average today!", Age: 3 * time.Hour},
		},
		Insights: InsightsConfig{
			Metrics: []InsightMetric{
				{Label: "Peak Efficiency Hours", Value: "23:00 - 06:00"},
				{Label: "Average Daily Usage", Value: "38.4 kWh"},
				{Label: "Carbon Footprint", Value: "12.8 kg CO₂"},
			},
			Tips: []string{
				"Schedule water heater during off-peak hours to save $45/month",
				"Enable smart cooling: AC efficiency can improve by 15%",
				"Replace living room lights with LED to reduce consumption by 80%",
			},
		},
	}
	cfg.Devices = seed.Devices
	cfg.Samples = seed.Samples
	cfg.Alerts = seed.Alerts
	cfg.Insights = seed.Insights
	return cfg
}

// defaultSettings returns every scalar section at its stock value with
// no devices, samples, alerts or insights. Files are decoded on top of it,
// so a key present in the file wins even when it is zero.
func defaultSettings() *Config {
	return &Config{
		Server: ServerConfig{
			Port:          DefaultPort,
			LogBufferSize: DefaultLogBufferSize,
			FlapThreshold: DefaultFlapThreshold,
			FlapWindow:    DefaultFlapWindow,
		},
		Simulation: SimulationConfig{
			Interval: 5 * time.Second,
			Window:   12,
			MinKWh:   5.0,
			MaxKWh:   7.0,
		},
		Tariff: TariffConfig{
			RatePerKWh:    0.15,
			HoursPerMonth: 24 * 30,
			SavingsRatio:  0.23,
			Currency:      "$",
		},
		Baselines: defaultBaselines(),
		MQTT: MQTTConfig{
			TopicPrefix: DefaultMQTTPrefix,
			ClientID:    DefaultMQTTClientID,
		},
		Kafka: KafkaConfig{
			Topic: DefaultKafkaTopic,
		},
	}
}

func defaultBaselines() map[string]float64 {
	return map[string]float64{"lighting": 45, "climate-control": 1200, "appliance": 120}
}

// fillBaselines adds the stock draw for every category the file left out
func fillBaselines(cfg *Config) {
	if cfg.Baselines == nil {
		cfg.Baselines = map[string]float64{}
	}
	for category, watts := range defaultBaselines() {
		if _, ok := cfg.Baselines[category]; !ok {
			cfg.Baselines[category] = watts
		}
	}
}
