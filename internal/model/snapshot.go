package model

import "time"

// ProgramSnapshot describes one stored serialized programme blob in the
// `program_snapshots` table.  The blob itself is not part of this struct;
// repositories return it separately so listings stay cheap.
//
// Fields:
//  ID         – primary key identifier.
//  FestivalID – festival the snapshot belongs to.
//  Compressed – whether the blob was deflate-compressed on write.
//  SizeBytes  – stored blob size, for monitoring growth.
//  CreatedAt  – when the import producing this snapshot ran.
type ProgramSnapshot struct {
	ID         uint64    // program_snapshots.id
	FestivalID uint32    // program_snapshots.festival_id
	Compressed bool      // program_snapshots.compressed
	SizeBytes  uint32    // program_snapshots.size_bytes
	CreatedAt  time.Time // program_snapshots.created_at
}
