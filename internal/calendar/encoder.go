// Package calendar turns show records into iCalendar (RFC 5545) documents
// for the "Add to Calendar" action on the shows page.
//
// Times are always written as local wall-clock values tagged with the
// configured zone's TZID, and every document embeds that zone's VTIMEZONE
// with its daylight-saving rules, so calendar clients show the venue's local
// time and the correct duration year-round.  Encoding is deterministic: the
// same show always produces byte-identical output.
package calendar

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/thebandproject/bandsite/internal/model"
)

// ContentType is the media type of encoded documents.
const ContentType = "text/calendar; charset=utf-8"

const localLayout = "20060102T150405"

// ErrEncoding is the parent of every encoder failure.
var ErrEncoding = errors.New("calendar: encoding failed")

// ErrInvalidDate means the show's date is not a usable YYYY-MM-DD date.
// Callers should omit the calendar action rather than report an error.
var ErrInvalidDate = fmt.Errorf("%w: invalid show date", ErrEncoding)

// Options configures an Encoder.
type Options struct {
	// BandName is used in the event summary ("<BandName> at <venue>").
	BandName string
	// ProductID is the PRODID of generated calendars.
	ProductID string
	// TZID selects the zone the show times are expressed in.
	TZID string
	// UIDDomain is the right-hand side of generated event UIDs.
	UIDDomain string
	// FileSlug prefixes download file names ("<slug>-<date>.ics").
	FileSlug string
}

// Document is an encoded calendar ready to be served as a download.
type Document struct {
	Name string
	Body []byte
}

// Schedule is the resolved start and end of a show.  Both values hold local
// wall-clock time in the encoder's zone; their location is UTC and carries
// no meaning.
type Schedule struct {
	Start time.Time
	End   time.Time
}

// Encoder builds calendar documents for shows.  It is safe for concurrent use.
type Encoder struct {
	opts Options
	zone Zone
}

// NewEncoder validates opts and returns an Encoder.
func NewEncoder(opts Options) (*Encoder, error) {
	if opts.BandName == "" {
		return nil, errors.New("calendar: band name is required")
	}
	if opts.ProductID == "" {
		opts.ProductID = "-//" + opts.BandName + "//NONSGML v1.0//EN"
	}
	if opts.FileSlug == "" {
		opts.FileSlug = slugify(opts.BandName)
	}
	if opts.UIDDomain == "" {
		opts.UIDDomain = "localhost"
	}
	z, err := LookupZone(opts.TZID)
	if err != nil {
		return nil, err
	}
	return &Encoder{opts: opts, zone: z}, nil
}

// Zone returns the zone the encoder writes times in.
func (e *Encoder) Zone() Zone { return e.zone }

// ScheduleFor resolves the start and end of a show.  The only failure is an
// unusable date; every time-of-day problem degrades to the defaults
// described on ParseRange.  An end at or before the start rolls over to the
// following day.
func ScheduleFor(s model.Show) (Schedule, error) {
	day, err := s.Day()
	if err != nil {
		return Schedule{}, ErrInvalidDate
	}
	start, end := ParseRange(s.Time)
	y, m, d := day.Date()
	endDay := d
	if end.minutes() <= start.minutes() {
		endDay++
	}
	return Schedule{
		Start: time.Date(y, m, d, start.Hour, start.Minute, 0, 0, time.UTC),
		End:   time.Date(y, m, endDay, end.Hour, end.Minute, 0, 0, time.UTC),
	}, nil
}

// Encode produces a single-event calendar for the show.
func (e *Encoder) Encode(s model.Show) (Document, error) {
	sched, err := ScheduleFor(s)
	if err != nil {
		return Document{}, err
	}
	cal := e.newCalendar()
	e.addEvent(cal, s, sched)
	return Document{
		Name: e.FileName(s),
		Body: []byte(cal.Serialize(ical.WithNewLineWindows)),
	}, nil
}

// EncodeFeed produces one calendar holding every show that can be encoded.
// Shows with unusable dates are left out; the number of events written is
// returned alongside the document.
func (e *Encoder) EncodeFeed(shows []model.Show) (Document, int) {
	cal := e.newCalendar()
	cal.CalendarProperties = append(cal.CalendarProperties, ical.CalendarProperty{
		BaseProperty: ical.BaseProperty{IANAToken: "X-WR-CALNAME", Value: e.opts.BandName + " Shows"},
	})
	n := 0
	for _, s := range shows {
		sched, err := ScheduleFor(s)
		if err != nil {
			continue
		}
		e.addEvent(cal, s, sched)
		n++
	}
	return Document{
		Name: e.opts.FileSlug + "-shows.ics",
		Body: []byte(cal.Serialize(ical.WithNewLineWindows)),
	}, n
}

// DataURI encodes the show as a data: URI usable directly as a link target.
func (e *Encoder) DataURI(s model.Show) (string, error) {
	doc, err := e.Encode(s)
	if err != nil {
		return "", err
	}
	return "data:text/calendar;charset=utf8," + strings.ReplaceAll(url.QueryEscape(string(doc.Body)), "+", "%20"), nil
}

// FileName is the download name for a show's calendar file.
func (e *Encoder) FileName(s model.Show) string {
	return e.opts.FileSlug + "-" + s.Date + ".ics"
}

// Summary is the event title for a show.
func (e *Encoder) Summary(s model.Show) string {
	return e.opts.BandName + " at " + s.Venue
}

func (e *Encoder) newCalendar() *ical.Calendar {
	cal := ical.NewCalendarFor(e.opts.BandName)
	cal.SetProductId(e.opts.ProductID)
	cal.Components = append(cal.Components, e.timezone())
	return cal
}

func (e *Encoder) timezone() *ical.VTimezone {
	tz := &ical.VTimezone{}
	tz.SetProperty(ical.ComponentProperty("TZID"), e.zone.TZID)
	if d := e.zone.Daylight; d != nil {
		dl := &ical.Daylight{}
		setObservance(&dl.ComponentBase, *d)
		tz.Components = append(tz.Components, dl)
	}
	std := &ical.Standard{}
	setObservance(&std.ComponentBase, e.zone.Standard)
	tz.Components = append(tz.Components, std)
	return tz
}

func setObservance(cb *ical.ComponentBase, o Observance) {
	onset, err := o.Onset()
	if err != nil {
		onset = observanceEpoch
	}
	cb.SetProperty(ical.ComponentProperty("TZOFFSETFROM"), formatOffset(o.OffsetFrom))
	cb.SetProperty(ical.ComponentProperty("TZOFFSETTO"), formatOffset(o.OffsetTo))
	cb.SetProperty(ical.ComponentProperty("TZNAME"), o.Name)
	cb.SetProperty(ical.ComponentPropertyDtStart, onset.Format(localLayout))
	if rule := o.RRule(); rule != "" {
		cb.SetProperty(ical.ComponentPropertyRrule, rule)
	}
}

func (e *Encoder) addEvent(cal *ical.Calendar, s model.Show, sched Schedule) {
	tzid := &ical.KeyValues{Key: "TZID", Value: []string{e.zone.TZID}}

	ev := cal.AddEvent(e.uid(s))
	ev.SetProperty(ical.ComponentPropertyDtStart, sched.Start.Format(localLayout), tzid)
	ev.SetProperty(ical.ComponentPropertyDtEnd, sched.End.Format(localLayout), tzid)
	ev.SetProperty(ical.ComponentPropertySummary, e.Summary(s))
	ev.SetProperty(ical.ComponentPropertyDescription, Description(s))
	ev.SetProperty(ical.ComponentPropertyLocation, Location(s))
	if s.TicketURL != "" {
		ev.SetProperty(ical.ComponentPropertyUrl, s.TicketURL)
	}
}

func (e *Encoder) uid(s model.Show) string {
	id := s.ID
	if id == "" {
		id = "show"
	}
	return id + "-" + s.Date + "@" + e.opts.UIDDomain
}

// Location is "address, venue, city, state" when the show has an address and
// "venue, city, state" otherwise.  Empty parts are skipped.
func Location(s model.Show) string {
	place := joinNonEmpty(", ", s.Venue, s.City, s.State)
	if s.Address != "" {
		return s.Address + ", " + place
	}
	return place
}

// Description mirrors Location with the street address on its own line.
func Description(s model.Show) string {
	place := joinNonEmpty(", ", s.Venue, s.City, s.State)
	if s.Address != "" {
		return s.Address + "\n" + place
	}
	return place
}

func joinNonEmpty(sep string, parts ...string) string {
	out := parts[:0:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, sep)
}

func slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
