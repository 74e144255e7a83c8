package program

import (
	"encoding/json"
	"sort"
)

// EntityType names the entity a change applies to.  Floors are excluded
// from comparison; their import is still incomplete upstream.
type EntityType string

const (
	EntityActivity EntityType = "activity"
	EntityLocation EntityType = "location"
	EntityTimeslot EntityType = "timeslot"
)

// Severity ranks how impactful a field-level update is.  Downstream
// notification logic uses it to decide urgency.
type Severity int

const (
	// SeverityLow marks content edits: title, description or URL.
	SeverityLow Severity = iota
	// SeverityMinor marks cosmetic changes such as a visibility flip or
	// a timeslot moving to another location.
	SeverityMinor
	// SeverityMajor marks timing changes.
	SeverityMajor
)

func (s Severity) String() string {
	switch s {
	case SeverityMajor:
		return "major"
	case SeverityMinor:
		return "minor"
	default:
		return "low"
	}
}

// MarshalJSON renders the severity as its lowercase name.
func (s Severity) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON accepts the lowercase names produced by MarshalJSON.
func (s *Severity) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	switch name {
	case "major":
		*s = SeverityMajor
	case "minor":
		*s = SeverityMinor
	default:
		*s = SeverityLow
	}
	return nil
}

// Change records one wholly added or removed entity.
type Change struct {
	Type EntityType `json:"type"`
	ID   int64      `json:"id"`
}

// Update records a field-level change on an entity present in both
// snapshots.  Fields lists the changed field names; Severity is the
// highest severity among them.
type Update struct {
	Type     EntityType `json:"type"`
	ID       int64      `json:"id"`
	Fields   []string   `json:"fields"`
	Severity Severity   `json:"severity"`
}

// Comparison is the structural difference between two Program snapshots.
type Comparison struct {
	Additions []Change `json:"additions"`
	Removals  []Change `json:"removals"`
	Updates   []Update `json:"updates"`
}

// Empty reports whether the comparison found no differences at all.
func (c *Comparison) Empty() bool {
	return len(c.Additions) == 0 && len(c.Removals) == 0 && len(c.Updates) == 0
}

// fieldDiff is one potentially changed field of an entity pair.
type fieldDiff struct {
	name     string
	changed  bool
	severity Severity
}

// Compare computes the structural difference between a current and an
// updated Program.  Per entity type it takes the symmetric difference of
// the id sets (additions and removals) and diffs the fields of ids
// present in both.  A timeslot addition or removal whose owning activity
// was itself added or removed is subsumed by the activity-level change
// and suppressed.  Location additions and removals follow the reference
// sets directly: a timeslot relocating to a different existing location
// yields only a locationId update, while a location losing its last
// reference is reported as removed.
func Compare(current, updated *Program) *Comparison {
	cmp := &Comparison{
		Additions: []Change{},
		Removals:  []Change{},
		Updates:   []Update{},
	}

	addedActivities := make(map[int64]bool)
	removedActivities := make(map[int64]bool)

	// Activities.
	for id, cur := range current.activities {
		upd, ok := updated.activities[id]
		if !ok {
			removedActivities[id] = true
			cmp.Removals = append(cmp.Removals, Change{Type: EntityActivity, ID: id})
			continue
		}
		appendUpdate(cmp, EntityActivity, id, []fieldDiff{
			{"name", cur.Name != upd.Name, SeverityLow},
			{"description", cur.Description != upd.Description, SeverityLow},
			{"url", cur.URL != upd.URL, SeverityLow},
			{"visible", cur.Visible != upd.Visible, SeverityMinor},
		})
	}
	for id := range updated.activities {
		if _, ok := current.activities[id]; !ok {
			addedActivities[id] = true
			cmp.Additions = append(cmp.Additions, Change{Type: EntityActivity, ID: id})
		}
	}

	// Locations.
	for id, cur := range current.locations {
		upd, ok := updated.locations[id]
		if !ok {
			cmp.Removals = append(cmp.Removals, Change{Type: EntityLocation, ID: id})
			continue
		}
		appendUpdate(cmp, EntityLocation, id, []fieldDiff{
			{"name", cur.Name != upd.Name, SeverityLow},
			{"floorId", cur.FloorID != upd.FloorID, SeverityMinor},
		})
	}
	for id := range updated.locations {
		if _, ok := current.locations[id]; !ok {
			cmp.Additions = append(cmp.Additions, Change{Type: EntityLocation, ID: id})
		}
	}

	// Timeslots.
	for id, cur := range current.timeslots {
		upd, ok := updated.timeslots[id]
		if !ok {
			if !removedActivities[cur.ActivityID] {
				cmp.Removals = append(cmp.Removals, Change{Type: EntityTimeslot, ID: id})
			}
			continue
		}
		appendUpdate(cmp, EntityTimeslot, id, []fieldDiff{
			{"activityId", cur.ActivityID != upd.ActivityID, SeverityMajor},
			{"locationId", cur.LocationID != upd.LocationID, SeverityMinor},
			{"startDate", !cur.StartsAt.Equal(upd.StartsAt), SeverityMajor},
			{"endDate", !cur.EndsAt.Equal(upd.EndsAt), SeverityMajor},
		})
	}
	for id, upd := range updated.timeslots {
		if _, ok := current.timeslots[id]; !ok && !addedActivities[upd.ActivityID] {
			cmp.Additions = append(cmp.Additions, Change{Type: EntityTimeslot, ID: id})
		}
	}

	sortChanges(cmp.Additions)
	sortChanges(cmp.Removals)
	sort.Slice(cmp.Updates, func(i, j int) bool {
		if cmp.Updates[i].Type != cmp.Updates[j].Type {
			return cmp.Updates[i].Type < cmp.Updates[j].Type
		}
		return cmp.Updates[i].ID < cmp.Updates[j].ID
	})
	return cmp
}

// appendUpdate collects the changed fields and records a single update
// carrying the highest severity among them.  Nothing is recorded when no
// field changed.
func appendUpdate(cmp *Comparison, typ EntityType, id int64, diffs []fieldDiff) {
	var fields []string
	severity := SeverityLow
	for _, d := range diffs {
		if !d.changed {
			continue
		}
		fields = append(fields, d.name)
		if d.severity > severity {
			severity = d.severity
		}
	}
	if len(fields) == 0 {
		return
	}
	cmp.Updates = append(cmp.Updates, Update{Type: typ, ID: id, Fields: fields, Severity: severity})
}

func sortChanges(changes []Change) {
	sort.Slice(changes, func(i, j int) bool {
		if changes[i].Type != changes[j].Type {
			return changes[i].Type < changes[j].Type
		}
		return changes[i].ID < changes[j].ID
	})
}
