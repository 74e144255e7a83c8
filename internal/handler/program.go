package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/animecon/program-sync/internal/config"
	"github.com/animecon/program-sync/internal/program"
	"github.com/animecon/program-sync/internal/repository"
	"github.com/animecon/program-sync/internal/service"
)

// ProgramHandler serves read access to the most recently imported
// programme.  Reads prefer the Redis blob cache and fall back to the
// newest MySQL snapshot when Redis is unavailable or cold.
type ProgramHandler struct {
	Cfg       config.Config
	Snapshots *repository.SnapshotRepo
	Changes   *repository.ChangeRepo
	RDB       *redis.Client // may be nil
}

func NewProgramHandler(cfg config.Config, s *repository.SnapshotRepo, ch *repository.ChangeRepo, rdb *redis.Client) *ProgramHandler {
	return &ProgramHandler{Cfg: cfg, Snapshots: s, Changes: ch, RDB: rdb}
}

// loadProgram fetches and decodes the latest programme snapshot.  The
// Redis blob is always stored compressed; a decode failure there falls
// through to MySQL rather than surfacing a broken cache to the client.
func (h *ProgramHandler) loadProgram(ctx context.Context) (*program.Program, error) {
	fid := uint32(h.Cfg.FestivalID)

	if h.RDB != nil {
		if blob, err := h.RDB.Get(ctx, service.ProgramCacheKey(fid)).Bytes(); err == nil {
			if p, err := program.Deserialize(blob, true); err == nil {
				return p, nil
			}
		}
	}

	meta, blob, err := h.Snapshots.Latest(ctx, fid)
	if err != nil {
		return nil, err
	}
	return program.Deserialize(blob, meta.Compressed)
}

// GetProgram returns a summary of the latest imported programme.
func (h *ProgramHandler) GetProgram(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	p, err := h.loadProgram(ctx)
	if err != nil {
		return programLoadError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"festival_id": h.Cfg.FestivalID,
		"activities":  len(p.Activities()),
		"floors":      len(p.Floors()),
		"locations":   len(p.Locations()),
		"timeslots":   len(p.Timeslots()),
	})
}

// GetActivities lists all activities of the latest programme.  The
// optional ?visible=true|false query parameter filters on visibility.
func (h *ProgramHandler) GetActivities(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	p, err := h.loadProgram(ctx)
	if err != nil {
		return programLoadError(c, err)
	}
	activities := p.Activities()
	if v := c.QueryParam("visible"); v != "" {
		want, err := strconv.ParseBool(v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "visible must be true or false"})
		}
		filtered := activities[:0]
		for _, a := range activities {
			if a.Visible == want {
				filtered = append(filtered, a)
			}
		}
		activities = filtered
	}
	return c.JSON(http.StatusOK, activities)
}

// GetActivity returns one activity together with its timeslots.
func (h *ProgramHandler) GetActivity(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid activity id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	p, err := h.loadProgram(ctx)
	if err != nil {
		return programLoadError(c, err)
	}
	activity, ok := p.Activity(id)
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "activity not found"})
	}
	var timeslots []program.Timeslot
	for _, t := range p.Timeslots() {
		if t.ActivityID == id {
			timeslots = append(timeslots, t)
		}
	}
	return c.JSON(http.StatusOK, echo.Map{
		"activity":  activity,
		"timeslots": timeslots,
	})
}

// GetLocations lists all locations of the latest programme.
func (h *ProgramHandler) GetLocations(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	p, err := h.loadProgram(ctx)
	if err != nil {
		return programLoadError(c, err)
	}
	return c.JSON(http.StatusOK, p.Locations())
}

// GetTimeslots lists all timeslots of the latest programme.
func (h *ProgramHandler) GetTimeslots(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	p, err := h.loadProgram(ctx)
	if err != nil {
		return programLoadError(c, err)
	}
	return c.JSON(http.StatusOK, p.Timeslots())
}

// GetChanges lists recent change rows.  The optional ?limit= parameter
// caps the result size (default 50, maximum 500).
func (h *ProgramHandler) GetChanges(c echo.Context) error {
	limit := 50
	if v := c.QueryParam("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "limit must be a positive integer"})
		}
		limit = n
	}
	if limit > 500 {
		limit = 500
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	changes, err := h.Changes.ListRecent(ctx, limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list changes failed"})
	}
	out := make([]echo.Map, 0, len(changes))
	for _, ch := range changes {
		out = append(out, echo.Map{
			"id":          ch.ID,
			"snapshot_id": ch.SnapshotID,
			"entity_type": ch.EntityType,
			"entity_id":   ch.EntityID,
			"kind":        ch.Kind,
			"fields":      ch.Fields,
			"severity":    ch.Severity,
			"created_at":  ch.CreatedAt,
		})
	}
	return c.JSON(http.StatusOK, out)
}

// GetSnapshots lists snapshot metadata for the configured festival,
// newest first.
func (h *ProgramHandler) GetSnapshots(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	snapshots, err := h.Snapshots.List(ctx, uint32(h.Cfg.FestivalID), 100)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list snapshots failed"})
	}
	out := make([]echo.Map, 0, len(snapshots))
	for _, s := range snapshots {
		out = append(out, echo.Map{
			"id":          s.ID,
			"festival_id": s.FestivalID,
			"compressed":  s.Compressed,
			"size_bytes":  s.SizeBytes,
			"created_at":  s.CreatedAt,
		})
	}
	return c.JSON(http.StatusOK, out)
}

func programLoadError(c echo.Context, err error) error {
	if errors.Is(err, repository.ErrSnapshotNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "no program imported yet"})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load program failed"})
}
