// Package program holds the normalized in-memory snapshot of a festival
// programme: activities, floors, locations and timeslots, each stored in
// an identifier-keyed map.  A Program is immutable once constructed; a
// new snapshot is built for every import or cache round-trip.
package program

import (
	"fmt"
	"sort"
	"time"

	"github.com/animecon/program-sync/internal/animecon"
)

// Activity is a bookable convention event.  Optional upstream fields
// (description, url) are flattened to empty strings.
type Activity struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	URL         string `json:"url"`
	Visible     bool   `json:"visible"`
}

// Floor is a physical level of the venue.
type Floor struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Location is a room or area in which timeslots occur.  FloorID is zero
// when the upstream payload carried no floor reference.
type Location struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	FloorID int64  `json:"floorId"`
}

// Timeslot is one scheduled occurrence of an activity at a location.
// StartsAt is inclusive, EndsAt exclusive.
type Timeslot struct {
	ID         int64     `json:"id"`
	ActivityID int64     `json:"activityId"`
	LocationID int64     `json:"locationId"`
	StartsAt   time.Time `json:"startDate"`
	EndsAt     time.Time `json:"endDate"`
}

// Program is the immutable, indexed programme snapshot.  Identifiers are
// unique within each entity type (enforced by the map keys) but not
// across types.
type Program struct {
	activities map[int64]Activity
	floors     map[int64]Floor
	locations  map[int64]Location
	timeslots  map[int64]Timeslot
}

// New composes a Program from the four entity collections.  It is the
// construction primitive shared by FromClient and Deserialize.  Later
// duplicates of an id replace earlier ones.
func New(activities []Activity, floors []Floor, locations []Location, timeslots []Timeslot) *Program {
	p := &Program{
		activities: make(map[int64]Activity, len(activities)),
		floors:     make(map[int64]Floor, len(floors)),
		locations:  make(map[int64]Location, len(locations)),
		timeslots:  make(map[int64]Timeslot, len(timeslots)),
	}
	for _, a := range activities {
		p.activities[a.ID] = a
	}
	for _, f := range floors {
		p.floors[f.ID] = f
	}
	for _, l := range locations {
		p.locations[l.ID] = l
	}
	for _, t := range timeslots {
		p.timeslots[t.ID] = t
	}
	return p
}

// FromClient transforms freshly fetched AnimeCon entities into a Program.
// Locations are registered the first time a timeslot references them,
// timeslots next, the owning activity last.  Floors come only from the
// floors argument; propagating floor data out of the nested location
// payloads is still an open gap in the upstream import.
func FromClient(activities []animecon.Activity, floors []animecon.Floor) (*Program, error) {
	p := &Program{
		activities: make(map[int64]Activity, len(activities)),
		floors:     make(map[int64]Floor, len(floors)),
		locations:  make(map[int64]Location),
		timeslots:  make(map[int64]Timeslot),
	}

	for _, f := range floors {
		p.floors[f.ID] = Floor{ID: f.ID, Name: f.Name}
	}

	for _, a := range activities {
		for _, t := range a.Timeslots {
			if _, seen := p.locations[t.Location.ID]; !seen {
				p.locations[t.Location.ID] = Location{
					ID:      t.Location.ID,
					Name:    t.Location.Name,
					FloorID: t.Location.FloorID,
				}
			}
			p.timeslots[t.ID] = Timeslot{
				ID:         t.ID,
				ActivityID: a.ID,
				LocationID: t.Location.ID,
				StartsAt:   t.DateStartsAt,
				EndsAt:     t.DateEndsAt,
			}
		}
		p.activities[a.ID] = Activity{
			ID:          a.ID,
			Name:        a.Title,
			Description: stringValue(a.Description),
			URL:         stringValue(a.URL),
			Visible:     a.Visible,
		}
	}

	if err := p.Verify(); err != nil {
		return nil, err
	}
	return p, nil
}

// Verify checks that every timeslot points at an activity and a location
// present in the same Program.  FromClient runs it on every import;
// callers composing programs through New can invoke it themselves when
// the input is not trusted.
func (p *Program) Verify() error {
	for _, t := range p.timeslots {
		if _, ok := p.activities[t.ActivityID]; !ok {
			return fmt.Errorf("program: timeslot %d references unknown activity %d", t.ID, t.ActivityID)
		}
		if _, ok := p.locations[t.LocationID]; !ok {
			return fmt.Errorf("program: timeslot %d references unknown location %d", t.ID, t.LocationID)
		}
	}
	return nil
}

// Activity returns the activity with the given id, reporting absence
// through the boolean rather than an error.
func (p *Program) Activity(id int64) (Activity, bool) {
	a, ok := p.activities[id]
	return a, ok
}

// Floor returns the floor with the given id.
func (p *Program) Floor(id int64) (Floor, bool) {
	f, ok := p.floors[id]
	return f, ok
}

// Location returns the location with the given id.
func (p *Program) Location(id int64) (Location, bool) {
	l, ok := p.locations[id]
	return l, ok
}

// Timeslot returns the timeslot with the given id.
func (p *Program) Timeslot(id int64) (Timeslot, bool) {
	t, ok := p.timeslots[id]
	return t, ok
}

// Activities returns a copy of the activity collection ordered by id.
// Map-backed storage guarantees no insertion order; ordering by id keeps
// the output deterministic for callers.
func (p *Program) Activities() []Activity {
	out := make([]Activity, 0, len(p.activities))
	for _, a := range p.activities {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Floors returns a copy of the floor collection ordered by id.
func (p *Program) Floors() []Floor {
	out := make([]Floor, 0, len(p.floors))
	for _, f := range p.floors {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Locations returns a copy of the location collection ordered by id.
func (p *Program) Locations() []Location {
	out := make([]Location, 0, len(p.locations))
	for _, l := range p.locations {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Timeslots returns a copy of the timeslot collection ordered by id.
func (p *Program) Timeslots() []Timeslot {
	out := make([]Timeslot, 0, len(p.timeslots))
	for _, t := range p.timeslots {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func stringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
