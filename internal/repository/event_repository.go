package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/eventos-api/internal/model"
)

const eventColumns = "id, title, description, starts_at, ends_at, location_text, image_url, created_by, is_active, created_at, updated_at"

// EventRepo encapsulates queries against the `events` table.
type EventRepo struct {
	db *sql.DB
}

// NewEventRepo constructs an EventRepo with the provided DB handle.
func NewEventRepo(db *sql.DB) *EventRepo {
	return &EventRepo{db: db}
}

// EventFilter narrows the public listing.  Query matches title or
// description case-insensitively; an empty Query matches everything.
type EventFilter struct {
	Query  string
	Limit  int
	Offset int
}

// List returns a page of events ordered by id, active or not.
func (r *EventRepo) List(ctx context.Context, f EventFilter) ([]model.Event, error) {
	var (
		where string
		args  []any
	)
	if q := strings.TrimSpace(f.Query); q != "" {
		like := "%" + escapeLike(strings.ToLower(q)) + "%"
		where = " WHERE (LOWER(title) LIKE ? OR LOWER(description) LIKE ?)"
		args = append(args, like, like)
	}
	args = append(args, f.Limit, f.Offset)

	q := "SELECT " + eventColumns + " FROM events" + where + " ORDER BY id ASC LIMIT ? OFFSET ?"
	return r.query(ctx, q, args...)
}

// ListByCreator returns every event created by userID, active or not.
func (r *EventRepo) ListByCreator(ctx context.Context, userID uint64) ([]model.Event, error) {
	return r.query(ctx, "SELECT "+eventColumns+" FROM events WHERE created_by = ? ORDER BY id ASC", userID)
}

// GetByID fetches one event.
func (r *EventRepo) GetByID(ctx context.Context, id uint64) (*model.Event, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+eventColumns+" FROM events WHERE id = ?", id)
	e, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return e, err
}

// ExistsByID reports whether an event with id exists.
func (r *EventRepo) ExistsByID(ctx context.Context, id uint64) (bool, error) {
	var ok bool
	err := r.db.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM events WHERE id = ?)", id).Scan(&ok)
	return ok, err
}

// Create inserts e and sets its ID.  Timestamps are taken from e.
func (r *EventRepo) Create(ctx context.Context, e *model.Event) error {
	const q = `INSERT INTO events
	             (title, description, starts_at, ends_at, location_text, image_url, created_by, is_active, created_at, updated_at)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q,
		e.Title, e.Description, e.StartsAt, e.EndsAt, e.LocationText, nullString(e.ImageURL),
		e.CreatedBy, e.IsActive, e.CreatedAt, e.UpdatedAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	e.ID = uint64(id)
	return nil
}

// Update replaces the mutable columns of the event identified by e.ID.
// created_at is left untouched.
func (r *EventRepo) Update(ctx context.Context, e *model.Event) error {
	const q = `UPDATE events
	           SET title = ?, description = ?, starts_at = ?, ends_at = ?, location_text = ?,
	               image_url = ?, created_by = ?, is_active = ?, updated_at = ?
	           WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q,
		e.Title, e.Description, e.StartsAt, e.EndsAt, e.LocationText, nullString(e.ImageURL),
		e.CreatedBy, e.IsActive, e.UpdatedAt, e.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes an event together with all of its comments.  Reply
// links are cleared first so the self-referencing foreign key on
// comments never blocks the bulk delete.
func (r *EventRepo) Delete(ctx context.Context, id uint64) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		var found uint64
		if err := tx.QueryRowContext(ctx, "SELECT id FROM events WHERE id = ? FOR UPDATE", id).Scan(&found); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}
		if _, err := tx.ExecContext(ctx, "UPDATE comments SET parent_id = NULL WHERE event_id = ?", id); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM comments WHERE event_id = ?", id); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, "DELETE FROM events WHERE id = ?", id)
		return err
	})
}

func (r *EventRepo) query(ctx context.Context, q string, args ...any) ([]model.Event, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Event{}
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

func scanEvent(s rowScanner) (*model.Event, error) {
	var (
		e     model.Event
		image sql.NullString
	)
	if err := s.Scan(&e.ID, &e.Title, &e.Description, &e.StartsAt, &e.EndsAt, &e.LocationText,
		&image, &e.CreatedBy, &e.IsActive, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return nil, err
	}
	if image.Valid {
		e.ImageURL = &image.String
	}
	return &e, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// escapeLike escapes the LIKE wildcards so user input matches literally.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
