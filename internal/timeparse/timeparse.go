package timeparse

import (
	"errors"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

// ErrNoDate is returned when the input contains nothing recognisable as a date
var ErrNoDate = errors.New("no date found")

// Layouts tried before natural language, in order
var layouts = []string{
	time.RFC3339,
	"2006-01-02 15:04",
	"2006-01-02",
}

// Parser turns user input such as "tomorrow 5pm" or "2026-03-10" into a time
type Parser struct {
	w   *when.Parser
	loc *time.Location
}

// New returns a Parser that interprets dates without an offset in loc
func New(loc *time.Location) *Parser {
	if loc == nil {
		loc = time.Local
	}
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return &Parser{w: w, loc: loc}
}

// Parse resolves text relative to base
func (p *Parser) Parse(text string, base time.Time) (time.Time, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return time.Time{}, ErrNoDate
	}

	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, text, p.loc); err == nil {
			return t, nil
		}
	}

	r, err := p.w.Parse(text, base.In(p.loc))
	if err != nil {
		return time.Time{}, err
	}
	if r == nil {
		return time.Time{}, ErrNoDate
	}
	return r.Time, nil
}

// ParseUnix is Parse returning Unix seconds
func (p *Parser) ParseUnix(text string, base time.Time) (int64, error) {
	t, err := p.Parse(text, base)
	if err != nil {
		return 0, err
	}
	return t.Unix(), nil
}

// Format renders a Unix timestamp for display, or "" for nil
func Format(ts *int64, loc *time.Location) string {
	if ts == nil {
		return ""
	}
	t := time.Unix(*ts, 0).In(loc)
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 {
		return t.Format("2006-01-02")
	}
	return t.Format("2006-01-02 15:04")
}
