package types

// EnergySample is one point of the rolling consumption window
type EnergySample struct {
	Time           string  `json:"time"`
	ConsumptionKWh float64 `json:"consumption_kwh"`
	Cost           float64 `json:"cost"`
}

// RoomAggregate is the summed power of all devices in a room
type RoomAggregate struct {
	Room   string  `json:"room"`
	PowerW float64 `json:"power_w"`
}

// Totals holds the values derived from the device list
type Totals struct {
	PowerW        float64 `json:"power_w"`
	MonthlyCost   float64 `json:"monthly_cost"`
	Savings       float64 `json:"savings"`
	ActiveDevices int     `json:"active_devices"`
	DeviceCount   int     `json:"device_count"`
}

// Insight is a labelled figure on the analytics tab
type Insight struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Insights is the static analytics content
type Insights struct {
	Metrics []Insight `json:"metrics"`
	Tips    []string  `json:"tips"`
}
