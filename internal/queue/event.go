// Package queue defines message payloads exchanged over the message broker
// and the notification sinks built on top of it.
package queue

import (
	"time"

	"github.com/thebandproject/bandsite/internal/model"
)

// ContactQueueName is the durable queue contact notifications travel on.
const ContactQueueName = "contact.submitted"

// ContactSubmittedEvent is published when a contact submission is accepted.
// It carries the whole message so the consumer can notify without reading
// the store.  Absent optional fields are omitted.
type ContactSubmittedEvent struct {
	MessageID    string  `json:"message_id"`
	Name         string  `json:"name"`
	Email        string  `json:"email"`
	Organization *string `json:"organization,omitempty"`
	EventDate    *string `json:"event_date,omitempty"`
	Location     *string `json:"location,omitempty"`
	Message      string  `json:"message"`
	SubmittedAt  string  `json:"submitted_at"`
}

// NewContactSubmittedEvent builds the event for m.
func NewContactSubmittedEvent(m model.ContactMessage) ContactSubmittedEvent {
	return ContactSubmittedEvent{
		MessageID:    m.ID,
		Name:         m.Name,
		Email:        m.Email,
		Organization: m.Organization,
		EventDate:    m.EventDate,
		Location:     m.Location,
		Message:      m.Message,
		SubmittedAt:  m.CreatedAt.UTC().Format(time.RFC3339),
	}
}
