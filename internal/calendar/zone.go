package calendar

import (
	"fmt"
	"sort"
	"time"

	"github.com/teambition/rrule-go"
)

// observanceEpoch is the reference year for VTIMEZONE onsets, as emitted by
// most calendar producers.
var observanceEpoch = time.Date(1970, time.January, 1, 0, 0, 0, 0, time.UTC)

// Observance is one STANDARD or DAYLIGHT block of a VTIMEZONE.  A zero Month
// means the observance has no yearly transition (zones without DST).
type Observance struct {
	Name       string
	OffsetFrom time.Duration
	OffsetTo   time.Duration
	Month      time.Month
	// Week is the ordinal Sunday of Month the transition happens on
	// (1 = first, -1 = last).
	Week int
	// Hour is the local wall-clock hour of the transition.
	Hour int
}

// Zone is a named time zone with the rules a calendar client needs to map
// local wall-clock times to instants.
type Zone struct {
	TZID     string
	Standard Observance
	Daylight *Observance
}

func usZone(tzid, std, dst string, stdOffset time.Duration) Zone {
	dstOffset := stdOffset + time.Hour
	return Zone{
		TZID: tzid,
		Standard: Observance{
			Name: std, OffsetFrom: dstOffset, OffsetTo: stdOffset,
			Month: time.November, Week: 1, Hour: 2,
		},
		Daylight: &Observance{
			Name: dst, OffsetFrom: stdOffset, OffsetTo: dstOffset,
			Month: time.March, Week: 2, Hour: 2,
		},
	}
}

var zones = map[string]Zone{
	"America/New_York":    usZone("America/New_York", "EST", "EDT", -5*time.Hour),
	"America/Chicago":     usZone("America/Chicago", "CST", "CDT", -6*time.Hour),
	"America/Denver":      usZone("America/Denver", "MST", "MDT", -7*time.Hour),
	"America/Los_Angeles": usZone("America/Los_Angeles", "PST", "PDT", -8*time.Hour),
	"America/Phoenix": {
		TZID:     "America/Phoenix",
		Standard: Observance{Name: "MST", OffsetFrom: -7 * time.Hour, OffsetTo: -7 * time.Hour},
	},
}

// LookupZone returns the built-in rules for tzid.
func LookupZone(tzid string) (Zone, error) {
	z, ok := zones[tzid]
	if !ok {
		return Zone{}, fmt.Errorf("calendar: unsupported time zone %q (known: %v)", tzid, KnownZones())
	}
	return z, nil
}

// KnownZones lists the zone identifiers LookupZone accepts.
func KnownZones() []string {
	out := make([]string, 0, len(zones))
	for id := range zones {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func (o Observance) option() rrule.ROption {
	return rrule.ROption{
		Freq:      rrule.YEARLY,
		Dtstart:   observanceEpoch.Add(time.Duration(o.Hour) * time.Hour),
		Bymonth:   []int{int(o.Month)},
		Byweekday: []rrule.Weekday{rrule.SU.Nth(o.Week)},
	}
}

// recurrence returns the yearly rule of the observance, or nil when the
// observance never recurs.
func (o Observance) recurrence() (*rrule.RRule, error) {
	if o.Month == 0 {
		return nil, nil
	}
	return rrule.NewRRule(o.option())
}

// Onset is the first occurrence of the observance on or after 1970-01-01, in
// local wall-clock terms (the UTC location only carries the civil value).
func (o Observance) Onset() (time.Time, error) {
	r, err := o.recurrence()
	if err != nil {
		return time.Time{}, err
	}
	if r == nil {
		return observanceEpoch, nil
	}
	return r.After(observanceEpoch, true), nil
}

// RRule is the RRULE value for the observance, empty when it never recurs.
// DTSTART is carried by the observance itself, not the rule.
func (o Observance) RRule() string {
	if o.Month == 0 {
		return ""
	}
	opt := o.option()
	opt.Dtstart = time.Time{}
	return opt.RRuleString()
}

// Transition returns the local wall-clock moment the observance starts in
// the given year.  ok is false for observances without a yearly rule.
func (o Observance) Transition(year int) (t time.Time, ok bool, err error) {
	r, err := o.recurrence()
	if err != nil || r == nil {
		return time.Time{}, false, err
	}
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	return r.After(from, true), true, nil
}

// formatOffset renders an offset as the iCalendar UTC-OFFSET "+HHMM"/"-HHMM".
func formatOffset(d time.Duration) string {
	sign := "+"
	if d < 0 {
		sign = "-"
		d = -d
	}
	h := int(d / time.Hour)
	m := int((d % time.Hour) / time.Minute)
	return fmt.Sprintf("%s%02d%02d", sign, h, m)
}
