package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/animecon/program-sync/internal/model"
)

// SnapshotRepo manages persistence for serialized programme blobs.  Blobs
// are stored opaquely; serialization and compression are the codec's
// concern.
type SnapshotRepo struct {
	db *sql.DB
}

// NewSnapshotRepo constructs a SnapshotRepo with the given DB handle.
func NewSnapshotRepo(db *sql.DB) *SnapshotRepo {
	return &SnapshotRepo{db: db}
}

// Create stores a new snapshot blob for a festival and returns the
// generated snapshot id.
func (r *SnapshotRepo) Create(ctx context.Context, festivalID uint32, blob []byte, compressed bool) (uint64, error) {
	const q = `INSERT INTO program_snapshots (festival_id, blob, compressed, size_bytes) VALUES (?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, festivalID, blob, compressed, len(blob))
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// Latest returns the newest snapshot for a festival together with its
// blob.  It returns ErrSnapshotNotFound when the festival has never been
// imported.
func (r *SnapshotRepo) Latest(ctx context.Context, festivalID uint32) (*model.ProgramSnapshot, []byte, error) {
	const q = `SELECT id, festival_id, blob, compressed, size_bytes, created_at
               FROM program_snapshots
               WHERE festival_id = ?
               ORDER BY id DESC
               LIMIT 1`
	var (
		s    model.ProgramSnapshot
		blob []byte
	)
	err := r.db.QueryRowContext(ctx, q, festivalID).Scan(
		&s.ID, &s.FestivalID, &blob, &s.Compressed, &s.SizeBytes, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, ErrSnapshotNotFound
		}
		return nil, nil, err
	}
	return &s, blob, nil
}

// List returns snapshot metadata for a festival, newest first, without
// the blobs.  When no snapshots exist it returns an empty slice and nil
// error.
func (r *SnapshotRepo) List(ctx context.Context, festivalID uint32, limit int) ([]model.ProgramSnapshot, error) {
	const q = `SELECT id, festival_id, compressed, size_bytes, created_at
               FROM program_snapshots
               WHERE festival_id = ?
               ORDER BY id DESC
               LIMIT ?`
	rows, err := r.db.QueryContext(ctx, q, festivalID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []model.ProgramSnapshot
	for rows.Next() {
		var s model.ProgramSnapshot
		if err := rows.Scan(&s.ID, &s.FestivalID, &s.Compressed, &s.SizeBytes, &s.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Prune deletes all but the `keep` newest snapshots of a festival, so the
// history table does not grow without bound.  Dependent change rows are
// removed first to keep referential integrity.
func (r *SnapshotRepo) Prune(ctx context.Context, festivalID uint32, keep int) error {
	if keep < 1 {
		keep = 1
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			_ = tx.Commit()
		}
	}()

	// MySQL cannot LIMIT inside a subquery of the same table directly;
	// the derived-table wrapper works around that.
	const cutoff = `SELECT id FROM (
                        SELECT id FROM program_snapshots
                        WHERE festival_id = ?
                        ORDER BY id DESC
                        LIMIT ?
                    ) keepers`
	if _, err = tx.ExecContext(ctx,
		`DELETE FROM program_changes WHERE snapshot_id IN (
             SELECT id FROM (
                 SELECT id FROM program_snapshots
                 WHERE festival_id = ? AND id NOT IN (`+cutoff+`)
             ) victims
         )`, festivalID, festivalID, keep); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx,
		`DELETE FROM program_snapshots
         WHERE festival_id = ? AND id NOT IN (`+cutoff+`)`,
		festivalID, festivalID, keep); err != nil {
		return err
	}
	return nil
}
