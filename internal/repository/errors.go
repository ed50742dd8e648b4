// Package repository contains data access logic separated from HTTP
// handlers.  This file defines sentinel error values reused across
// repositories so higher layers can distinguish failure scenarios:
// validation problems (duplicates, unseeded roles), authorization
// problems (ErrForbidden) and missing rows (per-entity not-found
// sentinels).  Handlers translate these into HTTP status codes.
package repository

import (
	"errors"
	"strings"
)

// ErrForbidden is returned when the caller attempts an operation on a
// resource they are not allowed to touch.  Handlers translate this into
// an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrUsernameExists signals a registration with a username already taken.
var ErrUsernameExists = errors.New("username already exists")

// ErrEmailExists signals a registration with an email already taken.
// Emails are stored lowercased, so the uniqueness check is
// case-insensitive.
var ErrEmailExists = errors.New("email already exists")

// ErrRoleNotSeeded is returned when a user is created before the roles
// table has been seeded.  Registration fails loudly instead of inserting
// a roleless user that would silently fail every role check later.
var ErrRoleNotSeeded = errors.New("default role not seeded; run with -init-db first")

// Per-entity not-found sentinels.  Handlers map these to HTTP 404.
var (
	ErrUserNotFound    = errors.New("user not found")
	ErrProjectNotFound = errors.New("project not found")
	ErrTaskNotFound    = errors.New("task not found")
	ErrCommentNotFound = errors.New("comment not found")
	ErrFileNotFound    = errors.New("file not found")
)

// isDuplicateKey reports whether err is a MySQL duplicate-entry error
// (errno 1062), optionally on the named unique key.
func isDuplicateKey(err error, key string) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	if !strings.Contains(msg, "1062") {
		return false
	}
	return key == "" || strings.Contains(msg, strings.ToLower(key))
}
