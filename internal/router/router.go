// Package router builds the Echo instance and registers the public API.
package router

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"

	"github.com/thebandproject/bandsite/internal/config"
	"github.com/thebandproject/bandsite/internal/handler"
	"github.com/thebandproject/bandsite/internal/metrics"
	"github.com/thebandproject/bandsite/internal/middleware"
)

// maxBody caps request bodies; the contact form is far smaller.
const maxBody = "64K"

// Deps is everything the routes need.
type Deps struct {
	Contact *handler.ContactHandler
	Shows   *handler.ShowHandler
	Summary *handler.SummaryHandler

	Log      logrus.FieldLogger
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
	// Redis backs the response cache; nil disables it.
	Redis *redis.Client
	Cache config.CacheConfig
	// CORSOrigins lists allowed browser origins ("*" for any).
	CORSOrigins []string
}

// New returns an Echo instance with middleware and every route registered.
func New(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(middleware.ContextLogger(d.Log))
	e.Use(middleware.RequestLogger(d.Log, d.Metrics))
	e.Use(echo.WrapMiddleware(cors.New(cors.Options{
		AllowedOrigins: d.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{echo.HeaderContentType},
		MaxAge:         600,
	}).Handler))

	RegisterRoutes(e, d)
	return e
}

// RegisterRoutes registers the health check, metrics, the band summary and
// the /api group.
func RegisterRoutes(e *echo.Echo, d Deps) {
	e.GET("/healthz", handler.Health)
	if d.Gatherer != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}

	api := e.Group("/api")
	api.POST("/contact", d.Contact.Submit, echomw.BodyLimit(maxBody))

	cache := middleware.ResponseCache(d.Cache, d.Redis, d.Log)
	e.GET("/llm-summary.json", d.Summary.Get, cache)

	shows := api.Group("/shows", cache)
	shows.GET("", d.Shows.List)
	shows.GET("/states", d.Shows.States)
	shows.GET("/calendar.ics", d.Shows.Feed)
	shows.GET("/:id/calendar.ics", d.Shows.Calendar)
}
