// Package timeutil provides clock-time helpers for HH:MM wall-clock windows.
package timeutil

import (
	"fmt"
	"strconv"
	"strings"
)

// MinSignificantGapMinutes is the smallest gap between two busy windows that
// is still worth offering as assignable free time.
const MinSignificantGapMinutes = 60

// ToMinutes converts an "HH:MM" clock string into minutes since midnight.
func ToMinutes(t string) (int, error) {
	parts := strings.SplitN(strings.TrimSpace(t), ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid time format %q: expected HH:MM", t)
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid time format %q: %w", t, err)
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid time format %q: %w", t, err)
	}
	if hours < 0 || hours > 23 || minutes < 0 || minutes > 59 {
		return 0, fmt.Errorf("invalid time format %q: out of range", t)
	}
	return hours*60 + minutes, nil
}

// MustMinutes is ToMinutes for values already validated upstream. It panics on
// malformed input and is intended for literals in tests.
func MustMinutes(t string) int {
	v, err := ToMinutes(t)
	if err != nil {
		panic(err)
	}
	return v
}

// DurationHours returns the span between start and end in fractional hours.
// A negative result signals end before start; callers must treat that as a
// data error rather than clamping.
func DurationHours(start, end string) (float64, error) {
	startMin, err := ToMinutes(start)
	if err != nil {
		return 0, err
	}
	endMin, err := ToMinutes(end)
	if err != nil {
		return 0, err
	}
	return float64(endMin-startMin) / 60.0, nil
}

// Overlaps reports whether two half-open windows [aStart,aEnd) and
// [bStart,bEnd) intersect. Touching endpoints do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd int) bool {
	return aStart < bEnd && bStart < aEnd
}

// OverlapsClock is Overlaps for HH:MM strings.
func OverlapsClock(aStart, aEnd, bStart, bEnd string) (bool, error) {
	as, err := ToMinutes(aStart)
	if err != nil {
		return false, err
	}
	ae, err := ToMinutes(aEnd)
	if err != nil {
		return false, err
	}
	bs, err := ToMinutes(bStart)
	if err != nil {
		return false, err
	}
	be, err := ToMinutes(bEnd)
	if err != nil {
		return false, err
	}
	return Overlaps(as, ae, bs, be), nil
}

// HasSignificantGap reports whether the pause between earlierEnd and
// laterStart is at least MinSignificantGapMinutes.
func HasSignificantGap(earlierEnd, laterStart string) (bool, error) {
	end, err := ToMinutes(earlierEnd)
	if err != nil {
		return false, err
	}
	start, err := ToMinutes(laterStart)
	if err != nil {
		return false, err
	}
	return start-end >= MinSignificantGapMinutes, nil
}

// FormatMinutes renders minutes since midnight back into a zero-padded HH:MM
// string, the canonical representation across the API.
func FormatMinutes(m int) string {
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}
