package models

import (
	"strconv"
	"strings"
	"time"
)

// Reminder offset keys written by older clients, relative to the due date
var reminderOffsets = map[string]time.Duration{
	"on_time":    0,
	"5m_before":  5 * time.Minute,
	"30m_before": 30 * time.Minute,
	"1h_before":  time.Hour,
	"1d_before":  24 * time.Hour,
}

// ParseLegacyReminder converts a textual reminder to epoch seconds.
// Numeric strings are taken as epochs; offset keys need a due date.
// Anything else, including "none", yields nil.
func ParseLegacyReminder(raw string, due *int64) *int64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	if v, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return &v
	}
	offset, ok := reminderOffsets[raw]
	if !ok || due == nil {
		return nil
	}
	v := *due - int64(offset/time.Second)
	return &v
}
