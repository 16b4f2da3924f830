package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-sql-driver/mysql"

	"github.com/thebandproject/bandsite/internal/model"
)

// mysqlDuplicateEntry is ER_DUP_ENTRY.
const mysqlDuplicateEntry = 1062

// MessageRepo writes contact messages to MySQL.  Rows are insert-only.
type MessageRepo struct {
	db *sql.DB
}

// NewMessageRepo constructs a MessageRepo with the given DB handle.
func NewMessageRepo(db *sql.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

// SaveMessage inserts m.  Absent optional fields are stored as NULL.
func (r *MessageRepo) SaveMessage(ctx context.Context, m model.ContactMessage) error {
	const q = `INSERT INTO contact_messages (id, name, email, organization, event_date, location, message, created_at)
               VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, q,
		m.ID, m.Name, m.Email,
		nullable(m.Organization), nullable(m.EventDate), nullable(m.Location),
		m.Message, m.CreatedAt.UTC(),
	)
	var me *mysql.MySQLError
	if errors.As(err, &me) && me.Number == mysqlDuplicateEntry {
		return ErrDuplicateMessage
	}
	return err
}

func nullable(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
