package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/thebandproject/bandsite/internal/model"
)

// ShowRepo reads shows from MySQL.
type ShowRepo struct {
	db *sql.DB
}

// NewShowRepo constructs a ShowRepo with the given DB handle.
func NewShowRepo(db *sql.DB) *ShowRepo {
	return &ShowRepo{db: db}
}

const showColumns = `id, show_date, venue, city, state, address, show_time, doors, ticket_url, is_upcoming`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanShow(row rowScanner) (model.Show, error) {
	var (
		s                                 model.Show
		address, showTime, doors, tickets sql.NullString
	)
	if err := row.Scan(&s.ID, &s.Date, &s.Venue, &s.City, &s.State,
		&address, &showTime, &doors, &tickets, &s.IsUpcoming); err != nil {
		return model.Show{}, err
	}
	s.Address = address.String
	s.Time = showTime.String
	s.Doors = doors.String
	s.TicketURL = tickets.String
	return s, nil
}

// ListUpcoming returns every show with is_upcoming set, ordered by date.
// The caller re-sorts anyway; the ORDER BY only keeps the query plan on the
// index.
func (r *ShowRepo) ListUpcoming(ctx context.Context) ([]model.Show, error) {
	const q = `SELECT ` + showColumns + ` FROM shows WHERE is_upcoming = 1 ORDER BY show_date ASC`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []model.Show
	for rows.Next() {
		s, err := scanShow(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// GetByID retrieves a show by its ID.  It returns ErrShowNotFound if
// there is no matching row.
func (r *ShowRepo) GetByID(ctx context.Context, id string) (*model.Show, error) {
	const q = `SELECT ` + showColumns + ` FROM shows WHERE id = ?`
	s, err := scanShow(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrShowNotFound
		}
		return nil, err
	}
	return &s, nil
}
