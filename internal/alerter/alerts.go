package alerter

import (
	"fmt"
	"time"

	"github.com/ecohome/ecohome/internal/config"
	"github.com/ecohome/ecohome/internal/types"
	"github.com/rs/zerolog"
)

// Build turns configured alerts into the static dashboard list, in
// configured order. An explicit time label wins over an age.
func Build(entries []config.AlertConfig, logger zerolog.Logger) []types.Alert {
	alerts := make([]types.Alert, 0, len(entries))
	for _, e := range entries {
		label := e.Time
		if label == "" {
			label = Label(e.Age)
		}
		alerts = append(alerts, types.Alert{
			ID:       e.ID,
			Severity: types.Severity(e.Severity),
			Message:  e.Message,
			Time:     label,
		})
	}

	counts := Counts(alerts)
	logger.Info().
		Int("alert_count", len(alerts)).
		Int("warning", counts[types.SeverityWarning]).
		Int("info", counts[types.SeverityInfo]).
		Int("success", counts[types.SeveritySuccess]).
		Msg("Alerts loaded")

	return alerts
}

// Label renders an age as a relative time
func Label(age time.Duration) string {
	switch {
	case age < time.Minute:
		return "just now"
	case age < time.Hour:
		return fmt.Sprintf("%d min ago", int(age/time.Minute))
	case age < 2*time.Hour:
		return "1 hour ago"
	case age < 24*time.Hour:
		return fmt.Sprintf("%d hours ago", int(age/time.Hour))
	case age < 48*time.Hour:
		return "1 day ago"
	default:
		return fmt.Sprintf("%d days ago", int(age/(24*time.Hour)))
	}
}

// Counts tallies alerts per severity
func Counts(alerts []types.Alert) map[types.Severity]int {
	counts := make(map[types.Severity]int, len(types.Severities))
	for _, s := range types.Severities {
		counts[s] = 0
	}
	for _, a := range alerts {
		counts[a.Severity]++
	}
	return counts
}

// Filter returns the alerts of one severity
func Filter(alerts []types.Alert, severity types.Severity) []types.Alert {
	out := make([]types.Alert, 0)
	for _, a := range alerts {
		if a.Severity == severity {
			out = append(out, a)
		}
	}
	return out
}
