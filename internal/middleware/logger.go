package middleware

import (
	"strconv"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"

	"github.com/thebandproject/bandsite/internal/logging"
	"github.com/thebandproject/bandsite/internal/metrics"
)

// ContextLogger stores a request-scoped logger in the request context so
// services log with the request id and client attached.
func ContextLogger(log logrus.FieldLogger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			r := c.Request()
			entry := log.WithFields(logrus.Fields{
				"request_id": c.Response().Header().Get(echo.HeaderXRequestID),
				"client_id":  ClientID(r),
			})
			c.SetRequest(r.WithContext(logging.ToContext(r.Context(), entry)))
			return next(c)
		}
	}
}

// RequestLogger logs one line per request and records its duration.
func RequestLogger(log logrus.FieldLogger, m *metrics.Metrics) echo.MiddlewareFunc {
	return echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogRoutePath: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			m.ObserveHTTP(v.RoutePath, v.Method, strconv.Itoa(v.Status), v.Latency)

			entry := log.WithFields(logrus.Fields{
				"method":     v.Method,
				"uri":        v.URI,
				"status":     v.Status,
				"latency":    v.Latency.String(),
				"request_id": v.RequestID,
				"client_id":  ClientID(c.Request()),
			})
			switch {
			case v.Error != nil:
				entry.WithError(v.Error).Error("request failed")
			case v.Status >= 500:
				entry.Error("request")
			default:
				entry.Info("request")
			}
			return nil
		},
	})
}
