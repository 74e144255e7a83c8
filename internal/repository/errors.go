// Package repository contains data access logic for programme snapshots,
// change logs and admin refresh tokens.  Sentinel errors defined here let
// handlers distinguish failure scenarios without string matching.
package repository

import "errors"

// ErrSnapshotNotFound is returned when no programme snapshot exists yet
// for the requested festival.  Handlers should translate this into an
// HTTP 404 response.
var ErrSnapshotNotFound = errors.New("program snapshot not found")

// ErrTokenNotFound is returned when a refresh token hash does not match
// any active row.  Handlers should translate this into an HTTP 401
// response.
var ErrTokenNotFound = errors.New("refresh token not found")
