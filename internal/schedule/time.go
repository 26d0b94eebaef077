package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Time is a number of seconds after midnight of the service day. Values
// past 24:00:00 denote trips running after midnight.
type Time int

// NewTime builds a Time from hours, minutes and seconds.
func NewTime(hours, minutes, seconds int) Time {
	return Time(hours*3600 + minutes*60 + seconds)
}

// FromDuration converts an offset from service-day midnight to a Time,
// truncating to whole seconds.
func FromDuration(d time.Duration) Time {
	return Time(d / time.Second)
}

// ParseTime parses HH:MM:SS or HH:MM. Hours may exceed 23.
func ParseTime(value string) (Time, error) {
	parts := strings.Split(strings.TrimSpace(value), ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, fmt.Errorf("%w: time %q is not HH:MM[:SS]", ErrInvalid, value)
	}

	fields := make([]int, 3)
	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("%w: time %q is not HH:MM[:SS]", ErrInvalid, value)
		}
		fields[i] = n
	}
	if fields[1] > 59 || fields[2] > 59 {
		return 0, fmt.Errorf("%w: time %q has minutes or seconds out of range", ErrInvalid, value)
	}
	return NewTime(fields[0], fields[1], fields[2]), nil
}

// Add returns t shifted by the given number of seconds.
func (t Time) Add(seconds int) Time {
	return t + Time(seconds)
}

// Sub returns t - u in seconds.
func (t Time) Sub(u Time) int {
	return int(t - u)
}

// Seconds returns t as a plain number of seconds.
func (t Time) Seconds() int {
	return int(t)
}

func (t Time) String() string {
	sign := ""
	s := int(t)
	if s < 0 {
		sign = "-"
		s = -s
	}
	return fmt.Sprintf("%s%02d:%02d:%02d", sign, s/3600, (s%3600)/60, s%60)
}
