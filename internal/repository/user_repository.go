package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/eventos-api/internal/model"
)

const userColumns = "id, name, username, email, password_hash, role, is_active, created_at, updated_at"

// UserRepo persists accounts in the `users` table.
type UserRepo struct{ db *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{db: db} }

// NormalizeEmail lower-cases and trims an address the way it is stored.
func NormalizeEmail(email string) string { return strings.ToLower(strings.TrimSpace(email)) }

// ExistsUsernameOrEmail checks both unique columns in one round trip.
// It is only a fast path: the unique keys remain the authority.
func (r *UserRepo) ExistsUsernameOrEmail(ctx context.Context, username, email string) (usernameTaken, emailTaken bool, err error) {
	const q = `SELECT
	             EXISTS(SELECT 1 FROM users WHERE username = ?),
	             EXISTS(SELECT 1 FROM users WHERE email = ?)`
	err = r.db.QueryRowContext(ctx, q, strings.TrimSpace(username), NormalizeEmail(email)).
		Scan(&usernameTaken, &emailTaken)
	return usernameTaken, emailTaken, err
}

// Create inserts u and fills in ID and the database timestamps.  A
// unique violation is reported as ErrDuplicateUsername or ErrDuplicateEmail.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	u.Username = strings.TrimSpace(u.Username)
	u.Email = NormalizeEmail(u.Email)
	if u.Role == "" {
		u.Role = model.RoleUser
	}
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO users (name, username, email, password_hash, role, is_active) VALUES (?, ?, ?, ?, ?, ?)",
		u.Name, u.Username, u.Email, u.PasswordHash, u.Role, u.IsActive)
	if err != nil {
		return mapUserDuplicate(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	u.ID = uint64(id)
	return r.db.QueryRowContext(ctx, "SELECT created_at, updated_at FROM users WHERE id = ?", u.ID).
		Scan(&u.CreatedAt, &u.UpdatedAt)
}

// GetByUsername fetches a user by login name.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE username = ? LIMIT 1", strings.TrimSpace(username))
	return scanUser(row)
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (*model.User, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE id = ? LIMIT 1", id)
	return scanUser(row)
}

// ExistsByID reports whether a user with id exists.
func (r *UserRepo) ExistsByID(ctx context.Context, id uint64) (bool, error) {
	var ok bool
	err := r.db.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM users WHERE id = ?)", id).Scan(&ok)
	return ok, err
}

// List returns every user ordered by id.
func (r *UserRepo) List(ctx context.Context) ([]model.User, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+userColumns+" FROM users ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *u)
	}
	return out, rows.Err()
}

// UpdateRole sets the role of the named user.
func (r *UserRepo) UpdateRole(ctx context.Context, username, role string) error {
	return r.execByUsername(ctx, "UPDATE users SET role = ? WHERE username = ?", role, username)
}

// SetActive enables or disables login for the named user.
func (r *UserRepo) SetActive(ctx context.Context, username string, active bool) error {
	return r.execByUsername(ctx, "UPDATE users SET is_active = ? WHERE username = ?", active, username)
}

func (r *UserRepo) execByUsername(ctx context.Context, q string, value any, username string) error {
	res, err := r.db.ExecContext(ctx, q, value, strings.TrimSpace(username))
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(s rowScanner) (*model.User, error) {
	var u model.User
	err := s.Scan(&u.ID, &u.Name, &u.Username, &u.Email, &u.PasswordHash, &u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}
