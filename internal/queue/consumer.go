package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// ContactHandler turns ContactSubmittedEvents into emails.  The limiter
// keeps a burst of submissions from tripping the relay's send quota.
type ContactHandler struct {
	mailer  Mailer
	limiter *rate.Limiter
	log     logrus.FieldLogger
}

// NewContactHandler sends at most perMinute emails a minute (0 = unlimited).
func NewContactHandler(mailer Mailer, perMinute int, log logrus.FieldLogger) *ContactHandler {
	lim := rate.NewLimiter(rate.Inf, 0)
	if perMinute > 0 {
		lim = rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1)
	}
	return &ContactHandler{mailer: mailer, limiter: lim, log: log}
}

// Handle decodes one delivery body and sends the notification.
func (h *ContactHandler) Handle(ctx context.Context, body []byte) error {
	var ev ContactSubmittedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	return h.Deliver(ctx, ev)
}

// Deliver renders and sends the notification for ev.
func (h *ContactHandler) Deliver(ctx context.Context, ev ContactSubmittedEvent) error {
	if err := h.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("throttle: %w", err)
	}
	if err := h.mailer.Send(ctx, ev.Email, RenderContactEmail(ev)); err != nil {
		return fmt.Errorf("send: %w", err)
	}
	h.log.WithField("message_id", ev.MessageID).Info("contact-consumer: notification sent")
	return nil
}

// StartContactConsumer connects to RabbitMQ, declares the contact.submitted
// queue (durable), and hands every delivery to h.  It runs a reconnect loop
// with exponential backoff and returns only when ctx is done.  Messages that
// fail are rejected without requeue so one bad payload cannot spin the loop.
func StartContactConsumer(ctx context.Context, url string, h *ContactHandler, log logrus.FieldLogger) error {
	if url == "" {
		url = DefaultURL
	}
	backoff := time.Second
	for {
		conn, err := amqp.Dial(url)
		if err != nil {
			log.WithError(err).WithField("retry_in", backoff.String()).Warn("contact-consumer: failed to dial broker")
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = consumeLoop(ctx, conn, h, log)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.WithError(err).Warn("contact-consumer: consume loop ended; reconnecting")
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func consumeLoop(ctx context.Context, conn *amqp.Connection, h *ContactHandler, log logrus.FieldLogger) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(10, 0, false); err != nil {
		log.WithError(err).Warn("contact-consumer: set QoS failed")
	}
	if err := declareContactQueue(ch); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(ContactQueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			settle(ctx, d.Body, d, h, log)
		}
	}
}

type acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

func settle(ctx context.Context, body []byte, ack acknowledger, h *ContactHandler, log logrus.FieldLogger) {
	if err := h.Handle(ctx, body); err != nil {
		log.WithError(err).Error("contact-consumer: handle message failed")
		_ = ack.Nack(false, false)
		return
	}
	_ = ack.Ack(false)
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
