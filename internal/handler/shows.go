package handler

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/thebandproject/bandsite/internal/calendar"
	"github.com/thebandproject/bandsite/internal/logging"
	"github.com/thebandproject/bandsite/internal/metrics"
	"github.com/thebandproject/bandsite/internal/model"
	"github.com/thebandproject/bandsite/internal/repository"
	"github.com/thebandproject/bandsite/internal/service"
)

// listingCacheControl lets the CDN serve the listing for an hour and
// revalidate in the background for a day.
const listingCacheControl = "public, s-maxage=3600, stale-while-revalidate=86400"

// ShowHandler serves the shows listing and calendar downloads.
type ShowHandler struct {
	shows   *service.ShowService
	enc     *calendar.Encoder
	baseURL string
	log     logrus.FieldLogger
	metrics *metrics.Metrics
}

// NewShowHandler wires the handler.  baseURL prefixes calendar links; empty
// yields site-relative links.
func NewShowHandler(shows *service.ShowService, enc *calendar.Encoder, baseURL string, log logrus.FieldLogger, m *metrics.Metrics) *ShowHandler {
	return &ShowHandler{
		shows:   shows,
		enc:     enc,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		log:     log,
		metrics: m,
	}
}

// PublicShow is a show as listed publicly.  The street address never leaves
// the server except inside calendar files.
type PublicShow struct {
	model.Show
	// CalendarURL is set only for shows that can be exported.
	CalendarURL string `json:"calendarUrl,omitempty"`
}

// List handles GET /api/shows?state=NJ.  The body is a bare JSON array.
func (h *ShowHandler) List(c echo.Context) error {
	l := h.shows.Upcoming(c.Request().Context(), service.ShowFilter{State: c.QueryParam("state")})
	out := make([]PublicShow, 0, len(l.Shows))
	for _, s := range l.Shows {
		out = append(out, PublicShow{Show: s, CalendarURL: h.calendarURL(s)})
	}
	c.Response().Header().Set(echo.HeaderCacheControl, listingCacheControl)
	return c.JSON(http.StatusOK, out)
}

// States handles GET /api/shows/states.
func (h *ShowHandler) States(c echo.Context) error {
	states := h.shows.States(c.Request().Context())
	if states == nil {
		states = []string{}
	}
	c.Response().Header().Set(echo.HeaderCacheControl, listingCacheControl)
	return c.JSON(http.StatusOK, echo.Map{"states": states})
}

// Calendar handles GET /api/shows/:id/calendar.ics.  Unknown shows and shows
// without a usable date are 404.
func (h *ShowHandler) Calendar(c echo.Context) error {
	ctx := c.Request().Context()
	s, err := h.shows.Get(ctx, c.Param("id"))
	if errors.Is(err, repository.ErrShowNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "show not found"})
	}
	if err != nil {
		logging.FromContext(ctx, h.log).WithError(err).Error("calendar: loading show")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
	doc, err := h.enc.Encode(s)
	if errors.Is(err, calendar.ErrInvalidDate) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "no calendar for this show"})
	}
	if err != nil {
		logging.FromContext(ctx, h.log).WithError(err).WithField("show_id", s.ID).Error("calendar: encoding")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
	h.metrics.CalendarExport("show")
	return attachment(c, doc)
}

// Feed handles GET /api/shows/calendar.ics, one calendar with every upcoming
// show (optionally filtered by state).
func (h *ShowHandler) Feed(c echo.Context) error {
	l := h.shows.Upcoming(c.Request().Context(), service.ShowFilter{State: c.QueryParam("state")})
	doc, _ := h.enc.EncodeFeed(l.Shows)
	h.metrics.CalendarExport("feed")
	return attachment(c, doc)
}

func (h *ShowHandler) calendarURL(s model.Show) string {
	if s.ID == "" {
		return ""
	}
	if _, err := calendar.ScheduleFor(s); err != nil {
		return ""
	}
	return h.baseURL + "/api/shows/" + url.PathEscape(s.ID) + "/calendar.ics"
}

func attachment(c echo.Context, doc calendar.Document) error {
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+doc.Name+`"`)
	return c.Blob(http.StatusOK, calendar.ContentType, doc.Body)
}
