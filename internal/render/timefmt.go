package render

import (
	"strings"
	"time"
)

// FormatTime reformats a 24-hour "HH:MM" value to "H:MM AM/PM". Values that
// already carry an AM/PM marker, or that do not parse, pass through
// unchanged.
func FormatTime(v string) string {
	trimmed := strings.TrimSpace(v)
	if trimmed == "" {
		return v
	}
	if strings.ContainsAny(trimmed, "mM") {
		return v
	}
	t, err := time.Parse("15:04", trimmed)
	if err != nil {
		return v
	}
	return t.Format("3:04 PM")
}
