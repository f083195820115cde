package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriorityFromInt(t *testing.T) {
	tests := []struct {
		in   int
		want Priority
	}{
		{0, PriorityNone},
		{1, PriorityLow},
		{2, PriorityMedium},
		{3, PriorityHigh},
		{4, PriorityNone},
		{-1, PriorityNone},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, PriorityFromInt(tt.in), "input %d", tt.in)
	}
	assert.Equal(t, "medium", PriorityMedium.String())
}

func TestTaskToggleCompleted(t *testing.T) {
	task := NewTask("t", SmartInbox)
	at := time.Unix(1000, 0)

	task.ToggleCompleted(at)
	assert.True(t, task.Completed)
	require.NotNil(t, task.CompletedAt)
	assert.Equal(t, int64(1000), *task.CompletedAt)
	assert.Equal(t, int64(1000), task.UpdatedAt)

	task.ToggleCompleted(at.Add(time.Second))
	assert.False(t, task.Completed)
	assert.Nil(t, task.CompletedAt)
	assert.Equal(t, int64(1001), task.UpdatedAt)
}

func TestTaskNormalize(t *testing.T) {
	at := time.Unix(500, 0)

	task := Task{Completed: true, Priority: 7}
	task.Normalize(at)
	assert.Equal(t, PriorityNone, task.Priority)
	require.NotNil(t, task.CompletedAt)
	assert.Equal(t, int64(500), *task.CompletedAt)
	assert.NotNil(t, task.Tags)

	kept := int64(42)
	task = Task{Completed: true, CompletedAt: &kept}
	task.Normalize(at)
	assert.Equal(t, int64(42), *task.CompletedAt)

	task = Task{CompletedAt: &kept}
	task.Normalize(at)
	assert.Nil(t, task.CompletedAt)
}

func TestResolveList(t *testing.T) {
	tests := map[string]ListKind{
		SmartInbox:     KindInbox,
		SmartToday:     KindToday,
		SmartWeek:      KindWeek,
		SmartAll:       KindAll,
		SmartCompleted: KindCompleted,
		SmartTrash:     KindTrash,
		"work":         KindUser,
		"smart_other":  KindUser,
	}
	for id, want := range tests {
		ref := ResolveList(id)
		assert.Equal(t, want, ref.Kind, id)
		assert.Equal(t, id, ref.ID)
	}
	assert.True(t, IsSmartID(SmartTrash))
	assert.False(t, IsSmartID("work"))
}

func TestSmartLists(t *testing.T) {
	lists := SmartLists()
	require.Len(t, lists, 6)
	for i, l := range lists {
		assert.Equal(t, i, l.Order)
		assert.True(t, l.IsSmart)
		assert.Equal(t, SmartListColor, l.Color)
		assert.True(t, IsSmartID(l.ID))
	}
	assert.Equal(t, "Next 7 Days", lists[2].Name)
}

func TestParseLegacyReminder(t *testing.T) {
	due := int64(10000)

	tests := []struct {
		raw  string
		due  *int64
		want *int64
	}{
		{"9999", nil, ptr(9999)},
		{"on_time", &due, ptr(10000)},
		{"5m_before", &due, ptr(10000 - 300)},
		{"30m_before", &due, ptr(10000 - 1800)},
		{"1h_before", &due, ptr(10000 - 3600)},
		{"1d_before", &due, ptr(10000 - 86400)},
		{"1h_before", nil, nil},
		{"none", &due, nil},
		{"", &due, nil},
		{"soon", &due, nil},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseLegacyReminder(tt.raw, tt.due), tt.raw)
	}
}

func ptr(v int64) *int64 { return &v }

func TestRepeatRule(t *testing.T) {
	s, err := EncodeRepeat(nil)
	require.NoError(t, err)
	assert.Nil(t, s)

	s, err = EncodeRepeat(&RepeatRule{Type: RepeatNone})
	require.NoError(t, err)
	assert.Nil(t, s)

	s, err = EncodeRepeat(&RepeatRule{Type: RepeatMonthly, Interval: 2, DayOfMonth: 15})
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.JSONEq(t, `{"type":"monthly","interval":2,"dayOfMonth":15}`, *s)

	r, err := DecodeRepeat(`{"type":"weekly","daysOfWeek":[1,5],"endDate":1800000000}`)
	require.NoError(t, err)
	assert.Equal(t, RepeatWeekly, r.Type)
	assert.Equal(t, []int{1, 5}, r.DaysOfWeek)
	require.NotNil(t, r.EndDate)
	assert.Equal(t, int64(1800000000), *r.EndDate)

	_, err = DecodeRepeat("not json")
	assert.Error(t, err)

	typ, err := ParseRepeatType(" Weekday ")
	require.NoError(t, err)
	assert.Equal(t, RepeatWeekday, typ)
	_, err = ParseRepeatType("fortnightly")
	assert.Error(t, err)
}
