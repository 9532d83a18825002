// Package energy holds the tariff arithmetic behind the dashboard totals.
package energy

import (
	"math"

	"github.com/ecohome/ecohome/internal/types"
)

const (
	DefaultRatePerKWh    = 0.15
	DefaultHoursPerMonth = 24 * 30
	DefaultSavingsRatio  = 0.23
)

// Tariff converts instantaneous power into monthly cost figures
type Tariff struct {
	RatePerKWh    float64
	HoursPerMonth float64
	SavingsRatio  float64
}

// DefaultTariff returns the flat 0.15/kWh tariff over a 30-day month
func DefaultTariff() Tariff {
	return Tariff{
		RatePerKWh:    DefaultRatePerKWh,
		HoursPerMonth: DefaultHoursPerMonth,
		SavingsRatio:  DefaultSavingsRatio,
	}
}

// MonthlyCost estimates the monthly bill if powerW were drawn continuously
func (t Tariff) MonthlyCost(powerW float64) float64 {
	return Round2(powerW * t.HoursPerMonth * t.RatePerKWh / 1000)
}

// Savings estimates the monthly saving as a fixed share of the bill
func (t Tariff) Savings(powerW float64) float64 {
	return Round2(powerW * t.SavingsRatio * t.HoursPerMonth * t.RatePerKWh / 1000)
}

// Cost prices a consumption figure
func (t Tariff) Cost(kwh float64) float64 {
	return Round2(kwh * t.RatePerKWh)
}

// TotalPower sums the power draw of every device
func TotalPower(devices []types.Device) float64 {
	var total float64
	for _, d := range devices {
		total += d.PowerW
	}
	return total
}

// Totals derives the dashboard headline figures from a device list
func (t Tariff) Totals(devices []types.Device) types.Totals {
	total := TotalPower(devices)
	active := 0
	for _, d := range devices {
		if d.IsOn() {
			active++
		}
	}
	return types.Totals{
		PowerW:        total,
		MonthlyCost:   t.MonthlyCost(total),
		Savings:       t.Savings(total),
		ActiveDevices: active,
		DeviceCount:   len(devices),
	}
}

// Rooms sums device power per room, in order of first appearance
func Rooms(devices []types.Device) []types.RoomAggregate {
	index := make(map[string]int)
	rooms := make([]types.RoomAggregate, 0)
	for _, d := range devices {
		i, ok := index[d.Room]
		if !ok {
			i = len(rooms)
			index[d.Room] = i
			rooms = append(rooms, types.RoomAggregate{Room: d.Room})
		}
		rooms[i].PowerW += d.PowerW
	}
	return rooms
}

// Round2 rounds to two decimal places
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Truncate1 drops everything past the first decimal place
func Truncate1(v float64) float64 {
	return math.Floor(v*10) / 10
}
