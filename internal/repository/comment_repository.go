package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/eventos-api/internal/model"
)

const commentColumns = "id, content, deleted, created_at, updated_at, author_id, event_id, parent_id"

// CommentRepo encapsulates queries against the `comments` table.
type CommentRepo struct {
	db *sql.DB
}

// NewCommentRepo constructs a CommentRepo with the provided DB handle.
func NewCommentRepo(db *sql.DB) *CommentRepo {
	return &CommentRepo{db: db}
}

// ListByEvent returns the visible comments of an event ordered by id.
// Soft-deleted rows are excluded.
func (r *CommentRepo) ListByEvent(ctx context.Context, eventID uint64) ([]model.Comment, error) {
	const q = "SELECT " + commentColumns + " FROM comments WHERE event_id = ? AND deleted = 0 ORDER BY id ASC"
	rows, err := r.db.QueryContext(ctx, q, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Comment{}
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

// GetByID fetches a comment, including soft-deleted ones.
func (r *CommentRepo) GetByID(ctx context.Context, id uint64) (*model.Comment, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+commentColumns+" FROM comments WHERE id = ?", id)
	c, err := scanComment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return c, err
}

// Create inserts c and sets its ID.  Timestamps are taken from c.
func (r *CommentRepo) Create(ctx context.Context, c *model.Comment) error {
	const q = `INSERT INTO comments (content, deleted, created_at, updated_at, author_id, event_id, parent_id)
	           VALUES (?, ?, ?, ?, ?, ?, ?)`
	var parent sql.NullInt64
	if c.ParentID != nil {
		parent = sql.NullInt64{Int64: int64(*c.ParentID), Valid: true}
	}
	res, err := r.db.ExecContext(ctx, q, c.Content, c.Deleted, c.CreatedAt, c.UpdatedAt, c.AuthorID, c.EventID, parent)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = uint64(id)
	return nil
}

// UpdateContent replaces the text of a live comment.  Deleted or missing
// comments yield ErrNotFound.
func (r *CommentRepo) UpdateContent(ctx context.Context, id uint64, content string, at time.Time) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE comments SET content = ?, updated_at = ? WHERE id = ? AND deleted = 0", content, at, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// SoftDeleteThread marks a comment and every reply beneath it as deleted
// in one transaction and returns the ids it touched.  Deleting an
// already deleted comment succeeds and re-walks its live replies.
func (r *CommentRepo) SoftDeleteThread(ctx context.Context, id uint64, at time.Time) ([]uint64, error) {
	var touched []uint64
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		var found uint64
		if err := tx.QueryRowContext(ctx, "SELECT id FROM comments WHERE id = ? FOR UPDATE", id).Scan(&found); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}
		queue := []uint64{id}
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			if _, err := tx.ExecContext(ctx,
				"UPDATE comments SET deleted = 1, updated_at = ? WHERE id = ?", at, cur); err != nil {
				return err
			}
			touched = append(touched, cur)

			replies, err := replyIDs(ctx, tx, cur)
			if err != nil {
				return err
			}
			queue = append(queue, replies...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return touched, nil
}

func replyIDs(ctx context.Context, tx *sql.Tx, parentID uint64) ([]uint64, error) {
	rows, err := tx.QueryContext(ctx, "SELECT id FROM comments WHERE parent_id = ? AND deleted = 0 ORDER BY id", parentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []uint64
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func scanComment(s rowScanner) (*model.Comment, error) {
	var (
		c      model.Comment
		parent sql.NullInt64
	)
	if err := s.Scan(&c.ID, &c.Content, &c.Deleted, &c.CreatedAt, &c.UpdatedAt, &c.AuthorID, &c.EventID, &parent); err != nil {
		return nil, err
	}
	if parent.Valid {
		p := uint64(parent.Int64)
		c.ParentID = &p
	}
	return &c, nil
}
