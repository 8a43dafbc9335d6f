// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios. For
// example, ErrConflict signals that an operation cannot proceed due to
// existing dependent records (e.g. deleting a table that still has a
// non-cancelled reservation bound to it).
package repository

import "errors"

// ErrConflict is returned when a delete or update cannot be
// performed because of conflicting state, such as attempting to
// delete a table while a reservation still holds it. Handlers should
// translate this into an HTTP 409 response.
var ErrConflict = errors.New("conflict")
