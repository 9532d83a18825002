package webui

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecohome/ecohome/internal/state"
	"github.com/ecohome/ecohome/internal/types"
)

func seedState() state.State {
	return state.DefaultRules().New(state.Seed{
		Devices: []types.Device{
			{ID: 1, Name: "Living Room Lights", Category: types.CategoryLighting, Status: types.StatusOn, Room: "Living Room", Icon: "lightbulb"},
			{ID: 2, Name: "Bedroom AC", Category: types.CategoryClimate, Status: types.StatusOn, Room: "Bedroom", Icon: "thermometer"},
			{ID: 3, Name: "Kitchen Fridge", Category: types.CategoryAppliance, Status: types.StatusOn, Room: "Kitchen", Icon: "power", BaselineW: 150},
			{ID: 4, Name: "Water Heater", Category: types.CategoryAppliance, Status: types.StatusOn, Room: "Bathroom", Icon: "droplet", BaselineW: 3000},
			{ID: 5, Name: "Office Lights", Category: types.CategoryLighting, Status: types.StatusOff, Room: "Office", Icon: "lightbulb"},
			{ID: 6, Name: "Living Room TV", Category: types.CategoryAppliance, Status: types.StatusOn, Room: "Living Room", Icon: "power"},
		},
		Samples: []types.EnergySample{
			{Time: "00:00", ConsumptionKWh: 2.1, Cost: 0.31},
			{Time: "04:00", ConsumptionKWh: 1.8, Cost: 0.27},
			{Time: "08:00", ConsumptionKWh: 4.2, Cost: 0.63},
			{Time: "12:00", ConsumptionKWh: 5.8, Cost: 0.87},
			{Time: "16:00", ConsumptionKWh: 6.5, Cost: 0.98},
			{Time: "20:00", ConsumptionKWh: 7.2, Cost: 1.08},
		},
		Alerts: []types.Alert{
			{ID: 1, Severity: types.SeverityWarning, Message: "Water Heater running at peak hours - Consider scheduling", Time: "2 min ago"},
		},
		Insights: types.Insights{
			Metrics: []types.Insight{{Label: "Average Daily Usage", Value: "38.4 kWh"}},
			Tips:    []string{"Enable smart cooling: AC efficiency can improve by 15%"},
		},
	})
}

func TestParseTab(t *testing.T) {
	tests := map[string]Tab{
		"":          TabDashboard,
		"dashboard": TabDashboard,
		"devices":   TabDevices,
		"Analytics": TabAnalytics,
		"settings":  TabDashboard,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseTab(in), "input %q", in)
	}
	assert.Equal(t, "Devices", TabDevices.Title())
}

func TestFormatting(t *testing.T) {
	assert.Equal(t, "4.52 kW", FormatKW(4515))
	assert.Equal(t, "4.56 kW", FormatKW(4560))
	assert.Equal(t, "0.00 kW", FormatKW(0))
	assert.Equal(t, "$487.62", FormatCurrency("$", 487.62))
	assert.Equal(t, "$0.90", FormatCurrency("$", 0.9))
	assert.Equal(t, "1200W", FormatWatts(1200))
	assert.Equal(t, "0W", FormatWatts(0))
}

func TestNewPageData(t *testing.T) {
	data := NewPageData(seedState(), TabDashboard, "$")

	assert.Equal(t, StatCards{
		TotalPower:  "4.52 kW",
		MonthlyCost: "$487.62",
		Savings:     "$112.15",
		Active:      "5/6",
	}, data.Stats)

	require.Len(t, data.Devices, 6)
	assert.Equal(t, "OFF", data.Devices[4].Status)
	assert.Equal(t, "0W", data.Devices[4].Power)
	assert.True(t, data.Devices[3].On)
	assert.Equal(t, "3000W", data.Devices[3].Power)

	require.Len(t, data.Samples, 6)
	assert.Equal(t, 100, data.Samples[5].Height)
	assert.Equal(t, 25, data.Samples[1].Height)
	assert.Equal(t, "$0.98", data.Samples[4].Cost)

	require.Len(t, data.Rooms, 5)
	shares := map[string]string{}
	for _, r := range data.Rooms {
		shares[r.Room] = r.Share
	}
	assert.Equal(t, map[string]string{
		"Living Room": "4%",
		"Bedroom":     "27%",
		"Kitchen":     "3%",
		"Bathroom":    "66%",
		"Office":      "0%",
	}, shares)
}

func TestNewPageDataAllOff(t *testing.T) {
	s := state.DefaultRules().New(state.Seed{
		Devices: []types.Device{{ID: 1, Name: "Lamp", Category: types.CategoryLighting, Status: types.StatusOff, Room: "Den"}},
	})
	data := NewPageData(s, TabDashboard, "$")
	assert.Equal(t, "0.00 kW", data.Stats.TotalPower)
	assert.Equal(t, "0/1", data.Stats.Active)
	require.Len(t, data.Rooms, 1)
	assert.Equal(t, "0%", data.Rooms[0].Share)
	assert.Empty(t, data.Samples)
}

func TestTemplatesRender(t *testing.T) {
	s := seedState()

	tests := []struct {
		tab  Tab
		want []string
	}{
		{TabDashboard, []string{"4.52 kW", "$487.62", "$112.15", "5/6", "2 min ago", "Bathroom: 66%"}},
		{TabDevices, []string{`action="/devices/5/toggle"`, "Office Lights", "OFF", "3000W"}},
		{TabAnalytics, []string{"Daily Energy Pattern", "Average Daily Usage", "38.4 kWh", "Enable smart cooling"}},
	}

	for _, tc := range tests {
		t.Run(string(tc.tab), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, Templates.ExecuteTemplate(&buf, "base", NewPageData(s, tc.tab, "$")))
			for _, w := range tc.want {
				assert.Contains(t, buf.String(), w)
			}
		})
	}
}
