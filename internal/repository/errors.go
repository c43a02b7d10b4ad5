// Package repository defines error values shared by every repository.
// Handlers use them to pick the HTTP answer without inspecting SQL
// details.
package repository

import "errors"

// ErrNotFound is returned when a requested row does not exist.
// Handlers translate it into an HTTP 404 response.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a conditional update affected zero
// rows: the row's status no longer satisfied the guard, typically
// because another request won the race. Handlers translate it into
// an HTTP 409 response.
var ErrConflict = errors.New("conflict")
