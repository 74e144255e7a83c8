package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/animecon/program-sync/internal/model"
	"github.com/animecon/program-sync/internal/program"
)

// ChangeRepo persists flattened programme comparison results so each
// import's effect can be listed later.
type ChangeRepo struct {
	db *sql.DB
}

// NewChangeRepo constructs a ChangeRepo with the given DB handle.
func NewChangeRepo(db *sql.DB) *ChangeRepo {
	return &ChangeRepo{db: db}
}

// Store flattens a comparison into rows tied to the snapshot that was
// imported.  All rows are written in one transaction: either the whole
// comparison is recorded or none of it.
func (r *ChangeRepo) Store(ctx context.Context, snapshotID uint64, cmp *program.Comparison) error {
	if cmp == nil || cmp.Empty() {
		return nil
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

	const q = `INSERT INTO program_changes (snapshot_id, entity_type, entity_id, kind, fields, severity)
               VALUES (?, ?, ?, ?, ?, ?)`
	for _, a := range cmp.Additions {
		if _, err = tx.ExecContext(ctx, q, snapshotID, string(a.Type), a.ID, model.ChangeKindAdded, "", ""); err != nil {
			return err
		}
	}
	for _, rm := range cmp.Removals {
		if _, err = tx.ExecContext(ctx, q, snapshotID, string(rm.Type), rm.ID, model.ChangeKindRemoved, "", ""); err != nil {
			return err
		}
	}
	for _, u := range cmp.Updates {
		if _, err = tx.ExecContext(ctx, q, snapshotID, string(u.Type), u.ID, model.ChangeKindUpdated,
			strings.Join(u.Fields, ","), u.Severity.String()); err != nil {
			return err
		}
	}
	return nil
}

// ListRecent returns the newest change rows across all snapshots.  When
// no changes exist it returns an empty slice and nil error.
func (r *ChangeRepo) ListRecent(ctx context.Context, limit int) ([]model.ProgramChange, error) {
	const q = `SELECT id, snapshot_id, entity_type, entity_id, kind, fields, severity, created_at
               FROM program_changes
               ORDER BY id DESC
               LIMIT ?`
	return r.list(ctx, q, limit)
}

// ListBySnapshot returns the change rows a specific import produced.
func (r *ChangeRepo) ListBySnapshot(ctx context.Context, snapshotID uint64) ([]model.ProgramChange, error) {
	const q = `SELECT id, snapshot_id, entity_type, entity_id, kind, fields, severity, created_at
               FROM program_changes
               WHERE snapshot_id = ?
               ORDER BY id ASC`
	return r.list(ctx, q, snapshotID)
}

func (r *ChangeRepo) list(ctx context.Context, q string, arg any) ([]model.ProgramChange, error) {
	rows, err := r.db.QueryContext(ctx, q, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []model.ProgramChange
	for rows.Next() {
		var c model.ProgramChange
		if err := rows.Scan(&c.ID, &c.SnapshotID, &c.EntityType, &c.EntityID,
			&c.Kind, &c.Fields, &c.Severity, &c.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
