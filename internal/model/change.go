package model

import "time"

// Change kinds as stored in the `program_changes` table.
const (
	ChangeKindAdded   = "ADDED"
	ChangeKindRemoved = "REMOVED"
	ChangeKindUpdated = "UPDATED"
)

// ProgramChange is one flattened row of a programme comparison, persisted
// so the admin UI can list what each import changed.  Fields and Severity
// are only set for UPDATED rows; additions and removals carry neither.
//
// Fields:
//  ID         – primary key identifier.
//  SnapshotID – snapshot whose import produced this change.
//  EntityType – "activity", "location" or "timeslot".
//  EntityID   – identifier of the changed entity within its type.
//  Kind       – ADDED, REMOVED or UPDATED.
//  Fields     – comma-separated changed field names (UPDATED only).
//  Severity   – "low", "minor" or "major" (UPDATED only).
//  CreatedAt  – row creation time.
type ProgramChange struct {
	ID         uint64    // program_changes.id
	SnapshotID uint64    // program_changes.snapshot_id
	EntityType string    // program_changes.entity_type
	EntityID   int64     // program_changes.entity_id
	Kind       string    // program_changes.kind
	Fields     string    // program_changes.fields
	Severity   string    // program_changes.severity
	CreatedAt  time.Time // program_changes.created_at
}
