// Package zones reports upcoming zone maintenance windows.
package zones

import (
	"fmt"
	"time"

	"github.com/yaroslav/gcompute/models"
)

const (
	day = 24 * time.Hour

	// WarningHorizon is how far ahead maintenance is announced.
	WarningHorizon = 14 * day
)

// timestampLayouts are the ISO 8601 forms the API uses. Layouts without an
// offset are read as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05.999999999Z0700",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseTimestamp parses an ISO 8601 timestamp, with or without an offset.
func ParseTimestamp(value string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", value)
}

// NextMaintenanceStart returns the earliest beginTime among the windows of
// zone that have not ended by now. Windows with unreadable timestamps are
// ignored.
func NextMaintenanceStart(zone models.Zone, now time.Time) (time.Time, bool) {
	var (
		next  time.Time
		found bool
	)
	for _, mw := range zone.MaintenanceWindows {
		if mw.EndTime != "" {
			end, err := ParseTimestamp(mw.EndTime)
			if err != nil || end.Before(now) {
				continue
			}
		}
		if mw.BeginTime == "" {
			continue
		}
		begin, err := ParseTimestamp(mw.BeginTime)
		if err != nil {
			continue
		}
		if !found || begin.Before(next) {
			next, found = begin, true
		}
	}
	return next, found
}

// status classifies the next maintenance of a zone.
type status int

const (
	statusNone status = iota
	statusActive
	statusSoon
)

// upcoming returns how the next maintenance relates to now and, when it is
// still ahead and within WarningHorizon, a phrase such as "3 days".
func upcoming(zone models.Zone, now time.Time) (status, string) {
	start, ok := NextMaintenanceStart(zone, now)
	if !ok {
		return statusNone, ""
	}
	if start.Before(now) {
		return statusActive, ""
	}

	delta := start.Sub(now)
	if delta >= WarningHorizon {
		return statusNone, ""
	}
	switch days := int(delta / day); days {
	case 0:
		return statusSoon, "less than 24 hours"
	case 1:
		return statusSoon, "1 day"
	default:
		return statusSoon, fmt.Sprintf("%d days", days)
	}
}

// MaintenanceWarning returns the warning logged when the user picks a zone
// that is in or near maintenance, or "" when no warning is due.
func MaintenanceWarning(zone models.Zone, now time.Time) string {
	switch st, when := upcoming(zone, now); st {
	case statusActive:
		return fmt.Sprintf("%s is unavailable due to maintenance.", zone.Name)
	case statusSoon:
		return fmt.Sprintf("%s will become unavailable due to maintenance in %s.", zone.Name, when)
	}
	return ""
}

// PromptText returns the menu text of a zone, noting maintenance that is
// under way or due within WarningHorizon.
func PromptText(zone models.Zone, now time.Time) string {
	name := shortName(zone.Name)
	switch st, when := upcoming(zone, now); st {
	case statusActive:
		return fmt.Sprintf("%s  (currently in maintenance)", name)
	case statusSoon:
		return fmt.Sprintf("%s  (maintenance starts in %s)", name, when)
	}
	return name
}

func shortName(name string) string {
	for i := len(name) - 1; i >= 0; i-- {
		if name[i] == '/' {
			return name[i+1:]
		}
	}
	return name
}
