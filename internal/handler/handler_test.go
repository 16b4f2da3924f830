package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thebandproject/bandsite/internal/calendar"
	"github.com/thebandproject/bandsite/internal/config"
	"github.com/thebandproject/bandsite/internal/model"
	"github.com/thebandproject/bandsite/internal/queue"
	"github.com/thebandproject/bandsite/internal/ratelimit"
	"github.com/thebandproject/bandsite/internal/repository"
	"github.com/thebandproject/bandsite/internal/service"
)

type stubSubmitter struct {
	err      error
	clientID string
}

func (s *stubSubmitter) Submit(_ context.Context, _ []byte, clientID string) (service.ContactResult, error) {
	s.clientID = clientID
	return service.ContactResult{}, s.err
}

func postContact(e *echo.Echo, body string, hdr map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/contact", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestContactSubmit_ErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantBody   map[string]interface{}
		retryAfter string
	}{
		{"accepted", nil, http.StatusOK, map[string]interface{}{"success": true}, ""},
		{"rate limited", &service.RateLimitError{RetryAfter: 90*time.Second + time.Millisecond}, http.StatusTooManyRequests,
			map[string]interface{}{"error": msgTooManyRequests}, "91"},
		{"validation", &service.ValidationError{Field: "email", Message: "Invalid email address"}, http.StatusBadRequest,
			map[string]interface{}{"error": "Invalid email address"}, ""},
		{"malformed", fmt.Errorf("%w: eof", service.ErrMalformedRequest), http.StatusInternalServerError,
			map[string]interface{}{"error": msgProcessFailed}, ""},
		{"unexpected", assert.AnError, http.StatusInternalServerError,
			map[string]interface{}{"error": msgProcessFailed}, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			log, _ := test.NewNullLogger()
			stub := &stubSubmitter{err: tc.err}
			e := echo.New()
			e.POST("/api/contact", NewContactHandler(stub, log).Submit)

			rec := postContact(e, `{}`, map[string]string{echo.HeaderXForwardedFor: "203.0.113.9, 10.0.0.1"})
			assert.Equal(t, tc.wantStatus, rec.Code)
			assert.Equal(t, tc.wantBody, decode(t, rec))
			assert.Equal(t, tc.retryAfter, rec.Header().Get(echo.HeaderRetryAfter))
			assert.Equal(t, "203.0.113.9", stub.clientID)
		})
	}
}

func TestContactSubmit_Pipeline(t *testing.T) {
	log, _ := test.NewNullLogger()
	limiter, err := ratelimit.New(ratelimit.NewMemoryStore(), 5, time.Hour)
	require.NoError(t, err)
	store := repository.NewMemoryMessageStore(100)
	svc, err := service.NewContactService(service.ContactDeps{
		Limiter:  limiter,
		Store:    store,
		Notifier: queue.NewLogNotifier(log),
		Log:      log,
	})
	require.NoError(t, err)

	e := echo.New()
	e.POST("/api/contact", NewContactHandler(svc, log).Submit)
	hdr := map[string]string{echo.HeaderXRealIP: "198.51.100.20"}

	rec := postContact(e, `{"name":"Ann","email":"not-an-email","message":"hi"}`, hdr)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid email address", decode(t, rec)["error"])

	rec = postContact(e, `{"name":"Ann"`, hdr)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	for i := 0; i < 3; i++ {
		rec = postContact(e, `{"name":"Ann","email":"ann@example.com","message":"Book us"}`, hdr)
		require.Equal(t, http.StatusOK, rec.Code, "attempt %d", i)
	}
	// Rejected attempts count too: five used.
	rec = postContact(e, `{"name":"Ann","email":"ann@example.com","message":"Book us"}`, hdr)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "3600", rec.Header().Get(echo.HeaderRetryAfter))

	// Another client is unaffected.
	rec = postContact(e, `{"name":"Bo","email":"bo@example.com","message":"Hello"}`,
		map[string]string{echo.HeaderXRealIP: "198.51.100.21"})
	assert.Equal(t, http.StatusOK, rec.Code)

	assert.Len(t, store.Messages(), 4)
}

func newShowsEcho(t *testing.T, fallback []model.Show) *echo.Echo {
	t.Helper()
	log, _ := test.NewNullLogger()
	enc, err := calendar.NewEncoder(calendar.Options{
		BandName:  "The Band Project",
		TZID:      "America/New_York",
		UIDDomain: "example.com",
	})
	require.NoError(t, err)
	h := NewShowHandler(service.NewShowService(nil, fallback, log, nil), enc, "https://band.example/", log, nil)

	e := echo.New()
	e.GET("/api/shows", h.List)
	e.GET("/api/shows/states", h.States)
	e.GET("/api/shows/calendar.ics", h.Feed)
	e.GET("/api/shows/:id/calendar.ics", h.Calendar)
	return e
}

var testShows = []model.Show{
	{ID: "hall", Date: "2026-05-09", Venue: "The Hall", City: "Ridgewood", State: "NJ",
		Address: "12 Main St", Time: "8:00 PM", IsUpcoming: true},
	{ID: "tba", Date: "TBA", Venue: "Somewhere", City: "Albany", State: "ny", IsUpcoming: true},
	{ID: "club", Date: "2026-03-01", Venue: "Club", City: "Hoboken", State: "NJ", Time: "9:00 PM", IsUpcoming: true},
	{ID: "past", Date: "2025-01-01", Venue: "Old", City: "Trenton", State: "NJ", IsUpcoming: false},
}

func TestShowsList(t *testing.T) {
	e := newShowsEcho(t, testShows)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/shows", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, listingCacheControl, rec.Header().Get(echo.HeaderCacheControl))

	require.True(t, strings.HasPrefix(strings.TrimSpace(rec.Body.String()), "["), "listing is a bare array")
	var shows []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &shows))
	require.Len(t, shows, 3)

	assert.Equal(t, "club", shows[0]["id"])
	assert.Equal(t, "hall", shows[1]["id"])
	assert.Equal(t, "tba", shows[2]["id"])

	assert.Equal(t, "https://band.example/api/shows/hall/calendar.ics", shows[1]["calendarUrl"])
	assert.NotContains(t, shows[2], "calendarUrl")
	for _, s := range shows {
		assert.NotContains(t, s, "address")
	}
	assert.NotContains(t, rec.Body.String(), "12 Main St")
}

func TestShowsList_StateFilter(t *testing.T) {
	e := newShowsEcho(t, testShows)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/shows?state=NY", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var shows []PublicShow
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &shows))
	require.Len(t, shows, 1)
	assert.Equal(t, "tba", shows[0].ID)
}

func TestShowsStates(t *testing.T) {
	e := newShowsEcho(t, testShows)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/shows/states", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"states":["NJ","NY"]}`, rec.Body.String())
}

func TestShowCalendar(t *testing.T) {
	e := newShowsEcho(t, testShows)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/shows/hall/calendar.ics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, calendar.ContentType, rec.Header().Get(echo.HeaderContentType))
	assert.Equal(t, `attachment; filename="the-band-project-2026-05-09.ics"`, rec.Header().Get(echo.HeaderContentDisposition))

	cal, err := ical.ParseCalendar(strings.NewReader(rec.Body.String()))
	require.NoError(t, err)
	events := cal.Events()
	require.Len(t, events, 1)
	assert.Equal(t, "The Band Project at The Hall", events[0].GetProperty(ical.ComponentPropertySummary).Value)
}

func TestShowCalendar_NotFound(t *testing.T) {
	e := newShowsEcho(t, testShows)

	for _, path := range []string{"/api/shows/nope/calendar.ics", "/api/shows/tba/calendar.ics", "/api/shows/past/calendar.ics"} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
	}
}

func TestShowFeed(t *testing.T) {
	e := newShowsEcho(t, testShows)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/shows/calendar.ics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `attachment; filename="the-band-project-shows.ics"`, rec.Header().Get(echo.HeaderContentDisposition))

	cal, err := ical.ParseCalendar(strings.NewReader(rec.Body.String()))
	require.NoError(t, err)
	assert.Len(t, cal.Events(), 2)
}

func TestHealth(t *testing.T) {
	e := echo.New()
	e.GET("/healthz", Health)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestSummary(t *testing.T) {
	log, _ := test.NewNullLogger()
	band := config.BandConfig{
		Name:         "The Band Project",
		Description:  "Timeless Covers.",
		Genres:       []string{"Rock", "Jazz"},
		BaseLocation: "United States",
	}
	h := NewSummaryHandler(service.NewShowService(nil, testShows, log, nil), band, "https://band.example/")
	h.now = func() time.Time { return time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC) }
	e := echo.New()
	e.GET("/llm-summary.json", h.Get)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/llm-summary.json", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, listingCacheControl, rec.Header().Get(echo.HeaderCacheControl))
	assert.NotContains(t, rec.Body.String(), "12 Main St")

	var out struct {
		BandName      string              `json:"bandName"`
		Genre         []string            `json:"genre"`
		Influences    []string            `json:"influences"`
		UpcomingShows []map[string]string `json:"upcomingShows"`
		OfficialLinks map[string]string   `json:"officialLinks"`
		LastUpdated   string              `json:"lastUpdated"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "The Band Project", out.BandName)
	assert.Equal(t, []string{"Rock", "Jazz"}, out.Genre)
	assert.Equal(t, []string{}, out.Influences)
	require.Len(t, out.UpcomingShows, 3)
	assert.Equal(t, map[string]string{
		"date": "2026-03-01", "venue": "Club", "city": "Hoboken", "state": "NJ", "time": "9:00 PM",
	}, out.UpcomingShows[0])
	assert.Equal(t, "https://band.example/contact", out.OfficialLinks["contact"])
	assert.Equal(t, "https://band.example", out.OfficialLinks["website"])
	assert.Equal(t, "2026-03-01T12:30:00.000Z", out.LastUpdated)
}

func TestSummary_RequestOrigin(t *testing.T) {
	log, _ := test.NewNullLogger()
	h := NewSummaryHandler(service.NewShowService(nil, nil, log, nil), config.BandConfig{Name: "B"}, "")
	e := echo.New()
	e.GET("/llm-summary.json", h.Get)

	req := httptest.NewRequest(http.MethodGet, "/llm-summary.json", nil)
	req.Host = "preview.example:3000"
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, []interface{}{}, body["upcomingShows"])
	links := body["officialLinks"].(map[string]interface{})
	assert.Equal(t, "http://preview.example:3000/gear", links["gear"])
}
