// Package repository defines the stores the site reads shows from and writes
// contact messages to, plus the sentinel errors shared between them.  Higher
// layers use the sentinels to tell "not there" apart from "store broken".
package repository

import (
	"context"
	"errors"

	"github.com/thebandproject/bandsite/internal/model"
)

// ErrShowNotFound indicates that a show was not located in the store.
var ErrShowNotFound = errors.New("show not found")

// ErrDuplicateMessage is returned when a message id is written twice.
var ErrDuplicateMessage = errors.New("duplicate contact message")

// ShowStore reads shows from a backing store.
type ShowStore interface {
	// ListUpcoming returns every show flagged as upcoming, in no particular
	// order.
	ListUpcoming(ctx context.Context) ([]model.Show, error)
	// GetByID returns ErrShowNotFound when no show has the id.
	GetByID(ctx context.Context, id string) (*model.Show, error)
}

// MessageStore persists accepted contact messages.
type MessageStore interface {
	SaveMessage(ctx context.Context, m model.ContactMessage) error
}
