package model

import (
	"errors"
	"regexp"
	"time"
)

// ShowDateLayout is the only accepted layout for Show.Date.
const ShowDateLayout = "2006-01-02"

// ErrInvalidShowDate is returned by Show.Day when the date is not a real
// YYYY-MM-DD calendar date.
var ErrInvalidShowDate = errors.New("invalid show date")

var showDatePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// Show represents one performance of the band.  Shows are created and
// edited outside this service (static dataset or the document store) and
// are read-only here.
//
// Fields:
//  ID         – stable identifier.
//  Date       – calendar date as "YYYY-MM-DD".
//  Venue      – venue name, always public.
//  City       – city, always public.
//  State      – state/region code, always public.
//  Address    – full street address.  Only used for calendar export and
//               never written to public JSON.
//  Time       – free text: "8:00 PM" or "6:00 PM – 7:15 PM".
//  Doors      – free text doors-open time, display only.
//  TicketURL  – optional external ticket link.
//  IsUpcoming – whether the show is part of the default listing.
type Show struct {
	ID         string `json:"id" yaml:"id" bson:"id"`
	Date       string `json:"date" yaml:"date" bson:"date"`
	Venue      string `json:"venue" yaml:"venue" bson:"venue"`
	City       string `json:"city" yaml:"city" bson:"city"`
	State      string `json:"state" yaml:"state" bson:"state"`
	Address    string `json:"-" yaml:"address,omitempty" bson:"address,omitempty"`
	Time       string `json:"time,omitempty" yaml:"time,omitempty" bson:"time,omitempty"`
	Doors      string `json:"doors,omitempty" yaml:"doors,omitempty" bson:"doors,omitempty"`
	TicketURL  string `json:"ticketUrl,omitempty" yaml:"ticketUrl,omitempty" bson:"ticketUrl,omitempty"`
	IsUpcoming bool   `json:"isUpcoming" yaml:"isUpcoming" bson:"isUpcoming"`
}

// Day parses Date into a UTC midnight time.  Anything that is not a strict
// YYYY-MM-DD real calendar date yields ErrInvalidShowDate.
func (s Show) Day() (time.Time, error) {
	if !showDatePattern.MatchString(s.Date) {
		return time.Time{}, ErrInvalidShowDate
	}
	d, err := time.Parse(ShowDateLayout, s.Date)
	if err != nil {
		return time.Time{}, ErrInvalidShowDate
	}
	return d, nil
}
