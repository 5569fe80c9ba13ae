// Package repository holds the SQL access layer for members, events, RSVPs
// and the token ledger. Methods ending in Tx run inside a caller-owned
// transaction; the rest use the pool directly.
package repository

import "errors"

// ErrNotFound is returned when a requested row does not exist. Handlers
// translate it into 404.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a row with the same key already exists.
var ErrConflict = errors.New("conflict")

// ErrInvalidID is returned for caller-supplied event ids that contain "_",
// the separator used in RSVP ids.
var ErrInvalidID = errors.New("invalid id")
