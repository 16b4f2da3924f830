package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/thebandproject/bandsite/internal/logging"
	"github.com/thebandproject/bandsite/internal/metrics"
	"github.com/thebandproject/bandsite/internal/model"
	"github.com/thebandproject/bandsite/internal/ratelimit"
	"github.com/thebandproject/bandsite/internal/repository"
)

// DefaultSinkTimeout bounds each persistence or notification call.
const DefaultSinkTimeout = 5 * time.Second

// Field length limits, in characters.
const (
	maxNameLen     = 200
	maxEmailLen    = 254
	maxMessageLen  = 5000
	maxOptionalLen = 200
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Notifier is the notification sink.
type Notifier interface {
	NotifyContact(ctx context.Context, m model.ContactMessage) error
}

// ContactInput is the submitted form.  Website and Honeypot are hidden
// fields people never fill in.
type ContactInput struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Organization string `json:"organization"`
	EventDate    string `json:"eventDate"`
	Location     string `json:"location"`
	Message      string `json:"message"`
	Website      string `json:"website"`
	Honeypot     string `json:"honeypot"`
}

// ContactResult describes an accepted submission.  Sink outcomes are
// reported for logging and tests only; they never change acceptance.
type ContactResult struct {
	MessageID string
	Persisted bool
	Notified  bool
	// Dropped is set when the honeypot tripped; nothing was dispatched.
	Dropped bool
}

// ContactDeps wires a ContactService.
type ContactDeps struct {
	Limiter     *ratelimit.Limiter
	Store       repository.MessageStore
	Notifier    Notifier
	Log         logrus.FieldLogger
	Metrics     *metrics.Metrics
	SinkTimeout time.Duration
	// Now defaults to time.Now.
	Now func() time.Time
}

// ContactService runs the contact intake pipeline: rate check, decoding,
// validation, normalization and best-effort dispatch to both sinks.
type ContactService struct {
	limiter     *ratelimit.Limiter
	store       repository.MessageStore
	notifier    Notifier
	log         logrus.FieldLogger
	metrics     *metrics.Metrics
	sinkTimeout time.Duration
	now         func() time.Time
}

// NewContactService validates deps.
func NewContactService(d ContactDeps) (*ContactService, error) {
	if d.Limiter == nil || d.Store == nil || d.Notifier == nil {
		return nil, errors.New("contact service: limiter, store and notifier are required")
	}
	if d.Log == nil {
		d.Log = logrus.StandardLogger()
	}
	if d.SinkTimeout <= 0 {
		d.SinkTimeout = DefaultSinkTimeout
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return &ContactService{
		limiter:     d.Limiter,
		store:       d.Store,
		notifier:    d.Notifier,
		log:         d.Log,
		metrics:     d.Metrics,
		sinkTimeout: d.SinkTimeout,
		now:         d.Now,
	}, nil
}

// Submit processes one raw submission from clientID.  The rate check comes
// first so a flood of garbage bodies still counts against the client.
//
// Errors: *RateLimitError (ErrRateLimited), *ValidationError
// (ErrValidationFailed) or ErrMalformedRequest.  Sink failures are never
// returned.
func (s *ContactService) Submit(ctx context.Context, raw []byte, clientID string) (ContactResult, error) {
	log := logging.FromContext(ctx, s.log).WithField("client_id", clientID)

	d, err := s.limiter.Allow(ctx, clientID)
	if err != nil {
		// an unreachable limiter store must not take the contact form down
		log.WithError(err).Warn("contact: rate limiter unavailable, admitting")
	} else if !d.Allowed {
		s.metrics.Submission(metrics.OutcomeRateLimited)
		log.WithField("retry_after", d.RetryAfter.String()).Info("contact: rate limited")
		return ContactResult{}, &RateLimitError{RetryAfter: d.RetryAfter}
	}

	var in ContactInput
	if err := json.Unmarshal(raw, &in); err != nil {
		s.metrics.Submission(metrics.OutcomeMalformed)
		log.WithError(err).Info("contact: malformed body")
		return ContactResult{}, fmt.Errorf("%w: %v", ErrMalformedRequest, err)
	}

	if strings.TrimSpace(in.Website) != "" || strings.TrimSpace(in.Honeypot) != "" {
		s.metrics.Submission(metrics.OutcomeHoneypot)
		log.Info("contact: honeypot filled, dropping")
		return ContactResult{Dropped: true}, nil
	}

	msg, err := s.normalize(in)
	if err != nil {
		s.metrics.Submission(metrics.OutcomeInvalid)
		log.WithError(err).Info("contact: rejected")
		return ContactResult{}, err
	}

	res := s.dispatch(ctx, msg, log.WithField("message_id", msg.ID))
	s.metrics.Submission(metrics.OutcomeAccepted)
	return res, nil
}

// normalize validates in and builds the stored message.  Empty optional
// fields become nil.
func (s *ContactService) normalize(in ContactInput) (model.ContactMessage, error) {
	name := strings.TrimSpace(in.Name)
	email := strings.TrimSpace(in.Email)
	message := strings.TrimSpace(in.Message)

	switch {
	case name == "":
		return model.ContactMessage{}, required("name")
	case email == "":
		return model.ContactMessage{}, required("email")
	case message == "":
		return model.ContactMessage{}, required("message")
	}
	if !emailPattern.MatchString(email) {
		return model.ContactMessage{}, &ValidationError{Field: "email", Message: "Invalid email address"}
	}
	if err := maxLen("name", name, maxNameLen); err != nil {
		return model.ContactMessage{}, err
	}
	if err := maxLen("email", email, maxEmailLen); err != nil {
		return model.ContactMessage{}, err
	}
	if err := maxLen("message", message, maxMessageLen); err != nil {
		return model.ContactMessage{}, err
	}

	m := model.ContactMessage{
		ID:        "msg-" + uuid.NewString(),
		Name:      name,
		Email:     email,
		Message:   message,
		CreatedAt: s.now().UTC(),
	}
	optional := []struct {
		field string
		value string
		dst   **string
	}{
		{"organization", in.Organization, &m.Organization},
		{"eventDate", in.EventDate, &m.EventDate},
		{"location", in.Location, &m.Location},
	}
	for _, o := range optional {
		v := strings.TrimSpace(o.value)
		if v == "" {
			continue
		}
		if err := maxLen(o.field, v, maxOptionalLen); err != nil {
			return model.ContactMessage{}, err
		}
		*o.dst = &v
	}
	return m, nil
}

func required(field string) *ValidationError {
	return &ValidationError{Field: field, Message: "Name, email, and message are required"}
}

func maxLen(field, v string, n int) error {
	if utf8.RuneCountInString(v) > n {
		return &ValidationError{Field: field, Message: fmt.Sprintf("%s must be at most %d characters", field, n)}
	}
	return nil
}

// dispatch hands m to both sinks concurrently and waits for both.  Each sink
// gets its own deadline, detached from the request so a client hanging up
// does not abort a write that is already under way.
func (s *ContactService) dispatch(ctx context.Context, m model.ContactMessage, log logrus.FieldLogger) ContactResult {
	base := context.WithoutCancel(ctx)
	var persistErr, notifyErr error

	var g errgroup.Group
	g.Go(func() error {
		sctx, cancel := context.WithTimeout(base, s.sinkTimeout)
		defer cancel()
		persistErr = s.store.SaveMessage(sctx, m)
		return nil
	})
	g.Go(func() error {
		sctx, cancel := context.WithTimeout(base, s.sinkTimeout)
		defer cancel()
		notifyErr = s.notifier.NotifyContact(sctx, m)
		return nil
	})
	_ = g.Wait()

	if persistErr != nil {
		s.metrics.SinkFailure(metrics.SinkPersistence)
		log.WithError(persistErr).Error("contact: persisting message failed")
	}
	if notifyErr != nil {
		s.metrics.SinkFailure(metrics.SinkNotification)
		log.WithError(notifyErr).Error("contact: notification failed")
	}
	log.WithFields(logrus.Fields{
		"persisted": persistErr == nil,
		"notified":  notifyErr == nil,
	}).Info("contact: submission accepted")

	return ContactResult{MessageID: m.ID, Persisted: persistErr == nil, Notified: notifyErr == nil}
}
