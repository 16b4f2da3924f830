package model

import "time"

// ContactMessage is one booking inquiry submitted through the contact form.
// It is built once per accepted submission and never updated afterwards.
// Optional fields are nil when the submitter left them empty so that stores
// and notifications see "absent" rather than an empty string.
type ContactMessage struct {
	ID           string    `json:"id" bson:"id"`
	Name         string    `json:"name" bson:"name"`
	Email        string    `json:"email" bson:"email"`
	Organization *string   `json:"organization,omitempty" bson:"organization,omitempty"`
	EventDate    *string   `json:"eventDate,omitempty" bson:"eventDate,omitempty"`
	Location     *string   `json:"location,omitempty" bson:"location,omitempty"`
	Message      string    `json:"message" bson:"message"`
	CreatedAt    time.Time `json:"createdAt" bson:"createdAt"`
}
