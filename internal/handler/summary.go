package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/samber/lo"

	"github.com/thebandproject/bandsite/internal/config"
	"github.com/thebandproject/bandsite/internal/model"
	"github.com/thebandproject/bandsite/internal/service"
)

// SummaryHandler serves a machine-readable overview of the band for
// crawlers and LLM agents.
type SummaryHandler struct {
	shows   *service.ShowService
	band    config.BandConfig
	baseURL string
	now     func() time.Time
}

// NewSummaryHandler wires the handler.  An empty baseURL falls back to the
// request's own origin.
func NewSummaryHandler(shows *service.ShowService, band config.BandConfig, baseURL string) *SummaryHandler {
	return &SummaryHandler{
		shows:   shows,
		band:    band,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		now:     time.Now,
	}
}

type summaryShow struct {
	Date      string `json:"date"`
	Venue     string `json:"venue"`
	City      string `json:"city"`
	State     string `json:"state"`
	Time      string `json:"time,omitempty"`
	TicketURL string `json:"ticketUrl,omitempty"`
}

type summaryLinks struct {
	Website    string `json:"website"`
	Contact    string `json:"contact"`
	Shows      string `json:"shows"`
	Background string `json:"background"`
	Gear       string `json:"gear"`
}

type summary struct {
	BandName      string        `json:"bandName"`
	Description   string        `json:"description"`
	Genre         []string      `json:"genre"`
	BaseLocation  string        `json:"baseLocation"`
	Influences    []string      `json:"influences"`
	UpcomingShows []summaryShow `json:"upcomingShows"`
	OfficialLinks summaryLinks  `json:"officialLinks"`
	LastUpdated   string        `json:"lastUpdated"`
}

// Get handles GET /llm-summary.json.
func (h *SummaryHandler) Get(c echo.Context) error {
	base := h.baseURL
	if base == "" {
		base = c.Scheme() + "://" + c.Request().Host
	}
	l := h.shows.Upcoming(c.Request().Context(), service.ShowFilter{})

	out := summary{
		BandName:     h.band.Name,
		Description:  h.band.Description,
		Genre:        lo.Ternary(h.band.Genres == nil, []string{}, h.band.Genres),
		BaseLocation: h.band.BaseLocation,
		Influences:   lo.Ternary(h.band.Influences == nil, []string{}, h.band.Influences),
		UpcomingShows: lo.Map(l.Shows, func(s model.Show, _ int) summaryShow {
			return summaryShow{Date: s.Date, Venue: s.Venue, City: s.City, State: s.State, Time: s.Time, TicketURL: s.TicketURL}
		}),
		OfficialLinks: summaryLinks{
			Website:    base,
			Contact:    base + "/contact",
			Shows:      base + "/shows",
			Background: base + "/background",
			Gear:       base + "/gear",
		},
		LastUpdated: h.now().UTC().Format("2006-01-02T15:04:05.000Z07:00"),
	}
	c.Response().Header().Set(echo.HeaderCacheControl, listingCacheControl)
	return c.JSON(http.StatusOK, out)
}
