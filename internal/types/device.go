package types

import "strings"

// Category groups devices that share a default baseline power
type Category string

const (
	CategoryLighting  Category = "lighting"
	CategoryClimate   Category = "climate-control"
	CategoryAppliance Category = "appliance"
)

// Categories lists every known device category
var Categories = []Category{CategoryLighting, CategoryClimate, CategoryAppliance}

// Valid reports whether c is a known category
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Status is the on/off state of a device
type Status string

const (
	StatusOn  Status = "on"
	StatusOff Status = "off"
)

// Valid reports whether s is "on" or "off"
func (s Status) Valid() bool {
	return s == StatusOn || s == StatusOff
}

// Flip returns the opposite status
func (s Status) Flip() Status {
	if s == StatusOn {
		return StatusOff
	}
	return StatusOn
}

// Upper returns the status label as shown on device cards
func (s Status) Upper() string {
	return strings.ToUpper(string(s))
}

// Device is a simulated controllable load
type Device struct {
	ID       int      `json:"id"`
	Name     string   `json:"name"`
	Category Category `json:"category"`
	Status   Status   `json:"status"`
	PowerW   float64  `json:"power_w"`
	Room     string   `json:"room"`
	Icon     string   `json:"icon"`
	// BaselineW overrides the category baseline when non-zero
	BaselineW float64 `json:"baseline_w,omitempty"`
}

// IsOn reports whether the device is switched on
func (d Device) IsOn() bool {
	return d.Status == StatusOn
}
