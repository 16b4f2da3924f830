package calendar

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DefaultStart is used whenever a show has no time or a token cannot be read.
var DefaultStart = Clock{Hour: 20}

// DefaultDuration is the length assumed when no end time is given.
const DefaultDuration = 2 * time.Hour

var (
	clockPattern = regexp.MustCompile(`(\d{1,2}):(\d{2})\s*(AM|PM)?`)
	rangePattern = regexp.MustCompile(`[–-]\s*`)
)

// Clock is a wall-clock time of day.
type Clock struct {
	Hour   int
	Minute int
}

// String renders the clock as 24-hour "HH:MM".
func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

func (c Clock) minutes() int { return c.Hour*60 + c.Minute }

// add returns the clock d later, wrapped to a 24 hour day.
func (c Clock) add(d time.Duration) Clock {
	m := (c.minutes() + int(d/time.Minute)) % (24 * 60)
	return Clock{Hour: m / 60, Minute: m % 60}
}

// ParseClock reads a single time token.  Accepted forms are 12-hour
// ("8:00 PM", "8:00pm", "12:15 AM", "0:30 AM") and 24-hour ("20:00", "9:30").
// A zero hour with a meridiem reads as midnight or noon.  The
// second return value is false when the token does not hold a usable time.
func ParseClock(token string) (Clock, bool) {
	cleaned := strings.ToUpper(strings.TrimSpace(token))
	m := clockPattern.FindStringSubmatch(cleaned)
	if m == nil {
		return Clock{}, false
	}
	hour, _ := strconv.Atoi(m[1])
	minute, _ := strconv.Atoi(m[2])
	if minute > 59 {
		return Clock{}, false
	}
	switch m[3] {
	case "":
		if hour > 23 {
			return Clock{}, false
		}
	case "AM", "PM":
		if hour > 12 {
			return Clock{}, false
		}
		if m[3] == "PM" && hour < 12 {
			hour += 12
		} else if m[3] == "AM" && hour == 12 {
			hour = 0
		}
	}
	return Clock{Hour: hour, Minute: minute}, true
}

// To24Hour converts a time token to "HH:MM", falling back to DefaultStart
// when the token cannot be read.
func To24Hour(token string) string {
	c, ok := ParseClock(token)
	if !ok {
		return DefaultStart.String()
	}
	return c.String()
}

// ParseRange splits a show's free-text time into start and end clocks.
//
// An empty string yields DefaultStart and DefaultStart+DefaultDuration.  A
// single token is the start and the end is DefaultDuration later.  Two tokens
// separated by an en-dash or hyphen are read independently.  A token that
// cannot be read becomes DefaultStart; parsing never fails.
func ParseRange(s string) (start, end Clock) {
	var parts []string
	for _, p := range rangePattern.Split(s, -1) {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	switch {
	case len(parts) >= 2:
		return clockOrDefault(parts[0]), clockOrDefault(parts[1])
	case len(parts) == 1:
		start = clockOrDefault(parts[0])
		return start, start.add(DefaultDuration)
	default:
		return DefaultStart, DefaultStart.add(DefaultDuration)
	}
}

func clockOrDefault(token string) Clock {
	if c, ok := ParseClock(token); ok {
		return c
	}
	return DefaultStart
}
