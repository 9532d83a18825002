package energy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ecohome/ecohome/internal/types"
)

func seedDevices() []types.Device {
	return []types.Device{
		{ID: 1, Name: "Living Room Lights", Category: types.CategoryLighting, Status: types.StatusOn, PowerW: 45, Room: "Living Room"},
		{ID: 2, Name: "Bedroom AC", Category: types.CategoryClimate, Status: types.StatusOn, PowerW: 1200, Room: "Bedroom"},
		{ID: 3, Name: "Kitchen Fridge", Category: types.CategoryAppliance, Status: types.StatusOn, PowerW: 150, Room: "Kitchen", BaselineW: 150},
		{ID: 4, Name: "Water Heater", Category: types.CategoryAppliance, Status: types.StatusOn, PowerW: 3000, Room: "Bathroom", BaselineW: 3000},
		{ID: 5, Name: "Office Lights", Category: types.CategoryLighting, Status: types.StatusOff, PowerW: 0, Room: "Office"},
		{ID: 6, Name: "Living Room TV", Category: types.CategoryAppliance, Status: types.StatusOn, PowerW: 120, Room: "Living Room"},
	}
}

func TestTotalsForSeed(t *testing.T) {
	totals := DefaultTariff().Totals(seedDevices())

	assert.Equal(t, 4515.0, totals.PowerW)
	assert.Equal(t, 487.62, totals.MonthlyCost)
	assert.Equal(t, 112.15, totals.Savings)
	assert.Equal(t, 5, totals.ActiveDevices)
	assert.Equal(t, 6, totals.DeviceCount)
}

func TestMonthlyCostAndSavingsFormula(t *testing.T) {
	tariff := DefaultTariff()
	for _, power := range []float64{0, 45, 120, 1200, 4515, 4560, 9999} {
		assert.Equal(t, Round2(power*24*30*0.15/1000), tariff.MonthlyCost(power), "power %v", power)
		assert.Equal(t, Round2(power*0.23*720*0.15/1000), tariff.Savings(power), "power %v", power)
	}
}

func TestCost(t *testing.T) {
	tariff := DefaultTariff()
	assert.Equal(t, 0.75, tariff.Cost(5.0))
	assert.Equal(t, 0.93, tariff.Cost(6.2))
	assert.Equal(t, 0.87, tariff.Cost(5.8))
}

func TestRooms(t *testing.T) {
	rooms := Rooms(seedDevices())

	assert.Equal(t, []types.RoomAggregate{
		{Room: "Living Room", PowerW: 165},
		{Room: "Bedroom", PowerW: 1200},
		{Room: "Kitchen", PowerW: 150},
		{Room: "Bathroom", PowerW: 3000},
		{Room: "Office", PowerW: 0},
	}, rooms)
}

func TestRoomsEmpty(t *testing.T) {
	assert.Empty(t, Rooms(nil))
}

func TestBaselines(t *testing.T) {
	b := DefaultBaselines()
	tests := []struct {
		name   string
		device types.Device
		want   float64
	}{
		{"lighting", types.Device{Category: types.CategoryLighting}, 45},
		{"climate", types.Device{Category: types.CategoryClimate}, 1200},
		{"appliance fallback", types.Device{Category: types.CategoryAppliance}, 120},
		{"explicit heater", types.Device{Category: types.CategoryAppliance, BaselineW: 3000}, 3000},
		{"explicit overrides category", types.Device{Category: types.CategoryLighting, BaselineW: 60}, 60},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, b.For(tc.device))
		})
	}
}

func TestTruncate1(t *testing.T) {
	assert.Equal(t, 5.0, Truncate1(5.0))
	assert.Equal(t, 6.9, Truncate1(6.999))
	assert.Equal(t, 5.4, Truncate1(5.45))
}
