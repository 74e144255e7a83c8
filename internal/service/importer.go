package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/animecon/program-sync/internal/animecon"
	"github.com/animecon/program-sync/internal/config"
	"github.com/animecon/program-sync/internal/program"
	"github.com/animecon/program-sync/internal/queue"
	"github.com/animecon/program-sync/internal/repository"
)

// ProgramCacheKey returns the Redis key under which the latest serialized
// programme blob of a festival is kept.  Blobs in Redis are always the
// deflate-compressed form.
func ProgramCacheKey(festivalID uint32) string {
	return fmt.Sprintf("program:latest:%d", festivalID)
}

// Importer runs one full import cycle: fetch the programme from the
// AnimeCon API, build the in-memory model, diff it against the previous
// snapshot, persist the new snapshot plus the change rows, refresh the
// Redis blob and publish a change event.  Every step either fully
// succeeds or aborts the run; no partial state is committed.
type Importer struct {
	cfg       config.Config
	client    *animecon.Client
	snapshots *repository.SnapshotRepo
	changes   *repository.ChangeRepo
	rdb       *redis.Client // nil disables blob caching
}

// NewImporter wires an Importer.  rdb may be nil when Redis is
// unavailable; programme reads then fall back to MySQL.
func NewImporter(cfg config.Config, client *animecon.Client,
	snapshots *repository.SnapshotRepo, changes *repository.ChangeRepo, rdb *redis.Client) *Importer {
	return &Importer{cfg: cfg, client: client, snapshots: snapshots, changes: changes, rdb: rdb}
}

// Run executes one import cycle and returns the comparison against the
// previously stored snapshot.  The first import of a festival is compared
// against an empty programme, so everything shows up as an addition.
func (i *Importer) Run(ctx context.Context) (*program.Comparison, error) {
	festivalID := int64(i.cfg.FestivalID)

	activities, err := i.client.GetActivities(ctx, &animecon.ActivityFilters{FestivalID: &festivalID})
	if err != nil {
		return nil, fmt.Errorf("import: fetch activities: %w", err)
	}
	floors, err := i.client.GetFloors(ctx)
	if err != nil {
		return nil, fmt.Errorf("import: fetch floors: %w", err)
	}

	updated, err := program.FromClient(activities, floors)
	if err != nil {
		return nil, fmt.Errorf("import: build program: %w", err)
	}

	fid := uint32(i.cfg.FestivalID)
	current := program.New(nil, nil, nil, nil)
	meta, blob, err := i.snapshots.Latest(ctx, fid)
	switch {
	case err == nil:
		current, err = program.Deserialize(blob, meta.Compressed)
		if err != nil {
			// The stored blob is unusable; treat the import as a fresh
			// start rather than failing forever on a corrupt cache.
			log.Printf("import: stored snapshot %d unreadable, comparing against empty program: %v", meta.ID, err)
			current = program.New(nil, nil, nil, nil)
		}
	case errors.Is(err, repository.ErrSnapshotNotFound):
		// first import for this festival
	default:
		return nil, fmt.Errorf("import: load previous snapshot: %w", err)
	}

	cmp := program.Compare(current, updated)

	newBlob, err := program.Serialize(updated, true)
	if err != nil {
		return nil, fmt.Errorf("import: serialize program: %w", err)
	}
	snapshotID, err := i.snapshots.Create(ctx, fid, newBlob, true)
	if err != nil {
		return nil, fmt.Errorf("import: store snapshot: %w", err)
	}
	if err := i.changes.Store(ctx, snapshotID, cmp); err != nil {
		return nil, fmt.Errorf("import: store changes: %w", err)
	}
	if err := i.snapshots.Prune(ctx, fid, i.cfg.SnapshotsKept); err != nil {
		// Pruning is housekeeping; a failure must not undo the import.
		log.Printf("import: prune snapshots: %v", err)
	}

	if i.rdb != nil {
		if err := i.rdb.Set(ctx, ProgramCacheKey(fid), newBlob, 0).Err(); err != nil {
			log.Printf("import: refresh redis blob: %v", err)
		}
	}

	if !cmp.Empty() {
		event := queue.ProgramChangedEvent{
			FestivalID: fid,
			SnapshotID: snapshotID,
			Comparison: *cmp,
			ImportedAt: time.Now().UTC().Format(time.RFC3339),
		}
		if err := PublishProgramChanged(ctx, event); err != nil {
			// Publishing is best effort; the change rows are already
			// persisted and queryable.
			log.Printf("import: publish change event: %v", err)
		}
	}

	log.Printf("import: festival %d snapshot %d stored (additions=%d removals=%d updates=%d)",
		fid, snapshotID, len(cmp.Additions), len(cmp.Removals), len(cmp.Updates))
	return cmp, nil
}
