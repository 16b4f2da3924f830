// Package handler exposes the public HTTP API of the band site: the contact
// form and the shows listing with its calendar exports.
package handler

import (
	"context"
	"errors"
	"io"
	"math"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/thebandproject/bandsite/internal/logging"
	"github.com/thebandproject/bandsite/internal/middleware"
	"github.com/thebandproject/bandsite/internal/service"
)

// Messages shown to the submitter.
const (
	msgTooManyRequests = "Too many requests. Please try again later."
	msgProcessFailed   = "Failed to process request"
)

// Submitter runs the contact intake pipeline.
type Submitter interface {
	Submit(ctx context.Context, raw []byte, clientID string) (service.ContactResult, error)
}

// ContactHandler serves POST /api/contact.
type ContactHandler struct {
	svc Submitter
	log logrus.FieldLogger
}

// NewContactHandler wires the handler.
func NewContactHandler(svc Submitter, log logrus.FieldLogger) *ContactHandler {
	return &ContactHandler{svc: svc, log: log}
}

// Submit accepts a contact form submission.
//
//	200 {"success":true}   accepted (sink failures are not reported)
//	429 {"error": ...}     window full, with Retry-After in seconds
//	400 {"error": ...}     validation failed
//	500 {"error": ...}     unreadable body or anything unexpected
func (h *ContactHandler) Submit(c echo.Context) error {
	ctx := c.Request().Context()
	raw, err := io.ReadAll(c.Request().Body)
	if err != nil {
		logging.FromContext(ctx, h.log).WithError(err).Warn("contact: reading body")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": msgProcessFailed})
	}

	_, err = h.svc.Submit(ctx, raw, middleware.ClientID(c.Request()))
	var rl *service.RateLimitError
	var ve *service.ValidationError
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, echo.Map{"success": true})
	case errors.As(err, &rl):
		secs := int(math.Ceil(rl.RetryAfter.Seconds()))
		if secs < 1 {
			secs = 1
		}
		c.Response().Header().Set(echo.HeaderRetryAfter, strconv.Itoa(secs))
		return c.JSON(http.StatusTooManyRequests, echo.Map{"error": msgTooManyRequests})
	case errors.As(err, &ve):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": ve.Message})
	default:
		if !errors.Is(err, service.ErrMalformedRequest) {
			logging.FromContext(ctx, h.log).WithError(err).Error("contact: unexpected error")
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": msgProcessFailed})
	}
}
