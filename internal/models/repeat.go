package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// RepeatType names a recurrence pattern
type RepeatType string

const (
	RepeatNone    RepeatType = "none"
	RepeatDaily   RepeatType = "daily"
	RepeatWeekly  RepeatType = "weekly"
	RepeatMonthly RepeatType = "monthly"
	RepeatYearly  RepeatType = "yearly"
	RepeatWeekday RepeatType = "weekday"
	RepeatCustom  RepeatType = "custom"
)

// RepeatRule describes how a task recurs. It is stored as JSON and
// returned verbatim.
type RepeatRule struct {
	Type        RepeatType `json:"type" yaml:"type"`
	Interval    int        `json:"interval,omitempty" yaml:"interval,omitempty"`
	DaysOfWeek  []int      `json:"daysOfWeek,omitempty" yaml:"days_of_week,omitempty"`
	DayOfMonth  int        `json:"dayOfMonth,omitempty" yaml:"day_of_month,omitempty"`
	MonthOfYear int        `json:"monthOfYear,omitempty" yaml:"month_of_year,omitempty"`
	EndDate     *int64     `json:"endDate,omitempty" yaml:"end_date,omitempty"`
}

// ParseRepeatType accepts a repeat type name, case-insensitively
func ParseRepeatType(s string) (RepeatType, error) {
	switch t := RepeatType(strings.ToLower(strings.TrimSpace(s))); t {
	case RepeatNone, RepeatDaily, RepeatWeekly, RepeatMonthly, RepeatYearly, RepeatWeekday, RepeatCustom:
		return t, nil
	}
	return "", fmt.Errorf("unknown repeat type %q", s)
}

// EncodeRepeat serialises a rule for storage. A nil rule or type none
// stores NULL.
func EncodeRepeat(r *RepeatRule) (*string, error) {
	if r == nil || r.Type == "" || r.Type == RepeatNone {
		return nil, nil
	}
	b, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	s := string(b)
	return &s, nil
}

// DecodeRepeat parses a stored rule. Empty input yields nil.
func DecodeRepeat(s string) (*RepeatRule, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var r RepeatRule
	if err := json.Unmarshal([]byte(s), &r); err != nil {
		return nil, err
	}
	return &r, nil
}
