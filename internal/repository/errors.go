// Package repository holds the MySQL data access layer.  Repositories
// return plain records from internal/model and translate driver
// failures into the sentinel values below so that the service layer
// never has to inspect *mysql.MySQLError itself.
package repository

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when a lookup, update or delete matches no row.
var ErrNotFound = errors.New("record not found")

// ErrDuplicateUsername is returned when an insert violates uq_users_username.
var ErrDuplicateUsername = errors.New("username already exists")

// ErrDuplicateEmail is returned when an insert violates uq_users_email.
var ErrDuplicateEmail = errors.New("email already exists")

// mysqlDuplicateEntry is ER_DUP_ENTRY.
const mysqlDuplicateEntry = 1062

// duplicateKey reports whether err is a unique-constraint violation and,
// if so, the MySQL message which names the offending key.
func duplicateKey(err error) (string, bool) {
	var me *mysql.MySQLError
	if errors.As(err, &me) && me.Number == mysqlDuplicateEntry {
		return me.Message, true
	}
	return "", false
}

// mapUserDuplicate converts a duplicate-key error on users into the
// matching sentinel.  Other errors pass through unchanged.
func mapUserDuplicate(err error) error {
	msg, ok := duplicateKey(err)
	if !ok {
		return err
	}
	switch {
	case strings.Contains(msg, "uq_users_email"):
		return ErrDuplicateEmail
	case strings.Contains(msg, "uq_users_username"):
		return ErrDuplicateUsername
	}
	return err
}
