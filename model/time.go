package model

import (
	"fmt"
	"strings"
	"time"
)

// Catalogues and bulk metadata files report acquisition times in several
// layouts, none of them the one the web map expects. Everything is parsed
// leniently and re-rendered in CanonicalTimeLayout, always in UTC.

// CanonicalTimeLayout is the layout of every timestamp written to the summary
const CanonicalTimeLayout = "2006-01-02 15:04:05.000000"

// Layouts seen in the wild. A layout without a fractional part still accepts
// one when parsing.
const (
	LandsatDayOfYearLayout = "2006:002:15:04:05"
	SpaceTimeLayout        = "2006-01-02 15:04:05"
	ISOTimeLayout          = "2006-01-02T15:04:05"
	ISOSpaceOffsetLayout   = "2006-01-02T15:04:05 -0700"
	SpaceOffsetLayout      = "2006-01-02 15:04:05 -0700"
	SlashDateLayout        = "2006/01/02"
	DashDateLayout         = "2006-01-02"
)

// DefaultTimeLayouts are tried when no layouts are configured for a field
var DefaultTimeLayouts = []string{
	SpaceTimeLayout,
	time.RFC3339Nano,
	ISOTimeLayout,
	ISOSpaceOffsetLayout,
	SpaceOffsetLayout,
	LandsatDayOfYearLayout,
	DashDateLayout,
	SlashDateLayout,
}

// ParseTime is a drop-in replacement for time.Parse, matching against each
// layout in turn. Zoned values are converted to UTC; unzoned ones are taken as UTC.
func ParseTime(value string, layouts ...string) (time.Time, error) {
	if len(layouts) == 0 {
		layouts = DefaultTimeLayouts
	}
	value = strings.TrimSpace(value)
	for _, layout := range layouts {
		if output, err := time.Parse(layout, value); err == nil {
			return output.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("Date could not be parsed by any expected time format: `%s`", value)
}

// FormatCanonical renders t in CanonicalTimeLayout
func FormatCanonical(t time.Time) string {
	return t.UTC().Format(CanonicalTimeLayout)
}

// CanonicalizeTime parses value and renders it in CanonicalTimeLayout.
// Applying it to its own output returns the same string.
func CanonicalizeTime(value string, layouts ...string) (string, error) {
	t, err := ParseTime(value, layouts...)
	if err != nil {
		return "", err
	}
	return FormatCanonical(t), nil
}
