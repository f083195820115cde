package timeparse

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var zone = time.FixedZone("UTC+8", 8*60*60)

func TestParse_Layouts(t *testing.T) {
	p := New(zone)
	base := time.Date(2026, time.March, 10, 10, 0, 0, 0, zone)

	got, err := p.Parse("2026-03-12", base)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, time.March, 12, 0, 0, 0, 0, zone).Unix(), got.Unix())

	got, err = p.Parse("2026-03-12 17:30", base)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, time.March, 12, 17, 30, 0, 0, zone).Unix(), got.Unix())

	got, err = p.Parse("2026-03-12T09:00:00Z", base)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, time.March, 12, 9, 0, 0, 0, time.UTC).Unix(), got.Unix())
}

func TestParse_NaturalLanguage(t *testing.T) {
	p := New(zone)
	base := time.Date(2026, time.March, 10, 10, 0, 0, 0, zone)

	got, err := p.Parse("tomorrow", base)
	require.NoError(t, err)
	got = got.In(zone)
	assert.Equal(t, 2026, got.Year())
	assert.Equal(t, time.March, got.Month())
	assert.Equal(t, 11, got.Day())
}

func TestParse_NoDate(t *testing.T) {
	p := New(zone)
	base := time.Date(2026, time.March, 10, 10, 0, 0, 0, zone)

	_, err := p.Parse("   ", base)
	assert.ErrorIs(t, err, ErrNoDate)

	_, err = p.Parse("xyzzy", base)
	assert.ErrorIs(t, err, ErrNoDate)
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "", Format(nil, zone))

	midnight := time.Date(2026, time.March, 12, 0, 0, 0, 0, zone).Unix()
	assert.Equal(t, "2026-03-12", Format(&midnight, zone))

	evening := time.Date(2026, time.March, 12, 17, 30, 0, 0, zone).Unix()
	assert.Equal(t, "2026-03-12 17:30", Format(&evening, zone))
}
