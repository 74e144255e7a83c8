// Package queue defines message payloads exchanged over the message broker.
package queue

import "github.com/animecon/program-sync/internal/program"

// ProgramChangedEvent is published after an import that detected
// differences against the previous snapshot.  It carries the full
// comparison so downstream consumers (notification and scheduling logic)
// can act without querying the primary database.
type ProgramChangedEvent struct {
	FestivalID uint32             `json:"festival_id"`
	SnapshotID uint64             `json:"snapshot_id"`
	Comparison program.Comparison `json:"comparison"`
	ImportedAt string             `json:"imported_at"`
}
