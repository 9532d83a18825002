package webui

import (
	"fmt"
	"math"
	"strings"

	"github.com/ecohome/ecohome/internal/state"
	"github.com/ecohome/ecohome/internal/types"
	"github.com/ecohome/ecohome/internal/version"
)

// Tab selects which section of the page is rendered
type Tab string

const (
	TabDashboard Tab = "dashboard"
	TabDevices   Tab = "devices"
	TabAnalytics Tab = "analytics"
)

// Tabs lists the tabs in header order
var Tabs = []Tab{TabDashboard, TabDevices, TabAnalytics}

// ParseTab maps a query value onto a tab. Anything unknown is the dashboard.
func ParseTab(v string) Tab {
	switch Tab(strings.ToLower(strings.TrimSpace(v))) {
	case TabDevices:
		return TabDevices
	case TabAnalytics:
		return TabAnalytics
	default:
		return TabDashboard
	}
}

// Title is the label shown on the tab button
func (t Tab) Title() string {
	if t == "" {
		return ""
	}
	return strings.ToUpper(string(t[:1])) + string(t[1:])
}

// FormatKW renders watts as kilowatts with two decimals, rounding half away
// from zero on the watt value so 4515 W reads "4.52 kW".
func FormatKW(watts float64) string {
	return fmt.Sprintf("%.2f kW", math.Round(watts/10)/100)
}

// FormatCurrency renders an amount with two decimals behind symbol
func FormatCurrency(symbol string, amount float64) string {
	return fmt.Sprintf("%s%.2f", symbol, amount)
}

// FormatWatts renders a device power draw, e.g. "1200W"
func FormatWatts(watts float64) string {
	return fmt.Sprintf("%gW", watts)
}

// StatCards holds the formatted dashboard headline figures
type StatCards struct {
	TotalPower  string
	MonthlyCost string
	Savings     string
	Active      string
}

// DeviceView is one card on the devices tab
type DeviceView struct {
	ID       int
	Name     string
	Room     string
	Category string
	Icon     string
	On       bool
	Status   string
	Power    string
}

// SampleView is one bar of the energy chart
type SampleView struct {
	Time        string
	Consumption string
	Cost        string
	Height      int // percent of the largest sample
}

// RoomView is one slice of the per-room breakdown
type RoomView struct {
	Room  string
	Power string
	Share string
	Width int
}

// PageData holds everything the base template renders
type PageData struct {
	Tab      Tab
	Tabs     []Tab
	Currency string
	Stats    StatCards
	Devices  []DeviceView
	Samples  []SampleView
	Rooms    []RoomView
	Alerts   []types.Alert
	Insights types.Insights
	Logs     []LogEntry
	Uptime   string
	Version  version.Info
}

// NewPageData renders a state snapshot into display strings
func NewPageData(s state.State, tab Tab, currency string) PageData {
	data := PageData{
		Tab:      tab,
		Tabs:     Tabs,
		Currency: currency,
		Stats: StatCards{
			TotalPower:  FormatKW(s.Totals.PowerW),
			MonthlyCost: FormatCurrency(currency, s.Totals.MonthlyCost),
			Savings:     FormatCurrency(currency, s.Totals.Savings),
			Active:      fmt.Sprintf("%d/%d", s.Totals.ActiveDevices, s.Totals.DeviceCount),
		},
		Alerts:   s.Alerts,
		Insights: s.Insights,
	}

	for _, d := range s.Devices {
		data.Devices = append(data.Devices, DeviceView{
			ID:       d.ID,
			Name:     d.Name,
			Room:     d.Room,
			Category: string(d.Category),
			Icon:     d.Icon,
			On:       d.IsOn(),
			Status:   d.Status.Upper(),
			Power:    FormatWatts(d.PowerW),
		})
	}

	peak := 0.0
	for _, sample := range s.Samples {
		peak = math.Max(peak, sample.ConsumptionKWh)
	}
	for _, sample := range s.Samples {
		height := 0
		if peak > 0 {
			height = int(math.Round(sample.ConsumptionKWh / peak * 100))
		}
		data.Samples = append(data.Samples, SampleView{
			Time:        sample.Time,
			Consumption: fmt.Sprintf("%.1f", sample.ConsumptionKWh),
			Cost:        FormatCurrency(currency, sample.Cost),
			Height:      height,
		})
	}

	for _, room := range s.Rooms {
		share := 0.0
		if s.Totals.PowerW > 0 {
			share = room.PowerW / s.Totals.PowerW * 100
		}
		data.Rooms = append(data.Rooms, RoomView{
			Room:  room.Room,
			Power: FormatWatts(room.PowerW),
			Share: fmt.Sprintf("%.0f%%", share),
			Width: int(math.Round(share)),
		})
	}

	return data
}
