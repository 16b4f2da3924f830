package queue

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/thebandproject/bandsite/internal/model"
)

// MailNotifier sends the notification inline, for deployments without a
// broker.
type MailNotifier struct {
	h *ContactHandler
}

// NewMailNotifier wraps h.
func NewMailNotifier(h *ContactHandler) *MailNotifier {
	return &MailNotifier{h: h}
}

// NotifyContact renders and sends the email for m.
func (n *MailNotifier) NotifyContact(ctx context.Context, m model.ContactMessage) error {
	return n.h.Deliver(ctx, NewContactSubmittedEvent(m))
}

// LogNotifier writes the rendered notification to the log.  It is the sink
// of last resort when neither a broker nor a mail relay is configured.
type LogNotifier struct {
	log logrus.FieldLogger
}

// NewLogNotifier returns a notifier logging to log.
func NewLogNotifier(log logrus.FieldLogger) *LogNotifier {
	return &LogNotifier{log: log}
}

// NotifyContact implements the notification sink.
func (n *LogNotifier) NotifyContact(_ context.Context, m model.ContactMessage) error {
	e := RenderContactEmail(NewContactSubmittedEvent(m))
	n.log.WithFields(logrus.Fields{
		"message_id": m.ID,
		"subject":    e.Subject,
		"body":       e.Body,
	}).Info("contact notification logged; no mail transport configured")
	return nil
}
