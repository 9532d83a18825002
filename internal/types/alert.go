package types

// Severity is the display category of an alert
type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
)

// Severities lists the known severities in display order
var Severities = []Severity{SeverityWarning, SeverityInfo, SeveritySuccess}

// Valid reports whether s is a known severity
func (s Severity) Valid() bool {
	for _, known := range Severities {
		if s == known {
			return true
		}
	}
	return false
}

// Alert is a static notice shown on the dashboard
type Alert struct {
	ID       int      `json:"id"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
	Time     string   `json:"time"` // relative label, e.g. "2 min ago"
}
