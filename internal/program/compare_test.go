package program

import (
	"reflect"
	"testing"
	"time"
)

var (
	slotStart = time.Date(2026, 6, 12, 10, 0, 0, 0, time.UTC)
	slotEnd   = time.Date(2026, 6, 12, 11, 30, 0, 0, time.UTC)
)

// baseProgram returns a small programme: two activities, two locations,
// activity 1 holding two timeslots and activity 2 one.
func baseProgram() *Program {
	return New(
		[]Activity{
			{ID: 1, Name: "Opening Ceremony", Visible: true},
			{ID: 2, Name: "Karaoke Night", Description: "Bring earplugs", Visible: true},
		},
		[]Floor{{ID: 1, Name: "Ground Floor"}},
		[]Location{
			{ID: 10, Name: "Main Stage", FloorID: 1},
			{ID: 11, Name: "Club Room", FloorID: 1},
		},
		[]Timeslot{
			{ID: 100, ActivityID: 1, LocationID: 10, StartsAt: slotStart, EndsAt: slotEnd},
			{ID: 101, ActivityID: 1, LocationID: 10, StartsAt: slotStart.Add(24 * time.Hour), EndsAt: slotEnd.Add(24 * time.Hour)},
			{ID: 102, ActivityID: 2, LocationID: 11, StartsAt: slotStart, EndsAt: slotEnd},
		},
	)
}

// mutated returns baseProgram with the given transformations applied to
// its collections before reconstruction.
func mutated(mutate func(acts []Activity, locs []Location, slots []Timeslot) ([]Activity, []Location, []Timeslot)) *Program {
	base := baseProgram()
	acts, locs, slots := mutate(base.Activities(), base.Locations(), base.Timeslots())
	return New(acts, base.Floors(), locs, slots)
}

func TestCompare(t *testing.T) {
	tests := []struct {
		name    string
		updated *Program
		want    Comparison
	}{
		{
			name:    "identical programs",
			updated: baseProgram(),
			want:    Comparison{Additions: []Change{}, Removals: []Change{}, Updates: []Update{}},
		},
		{
			name: "added activity",
			updated: mutated(func(a []Activity, l []Location, s []Timeslot) ([]Activity, []Location, []Timeslot) {
				return append(a, Activity{ID: 3, Name: "Cosplay Contest", Visible: true}), l, s
			}),
			want: Comparison{
				Additions: []Change{{Type: EntityActivity, ID: 3}},
				Removals:  []Change{},
				Updates:   []Update{},
			},
		},
		{
			name: "removed activity subsumes its timeslot",
			updated: mutated(func(a []Activity, l []Location, s []Timeslot) ([]Activity, []Location, []Timeslot) {
				return a[:1], l, s[:2] // drop activity 2 and timeslot 102, location 11 stays
			}),
			want: Comparison{
				Additions: []Change{},
				Removals:  []Change{{Type: EntityActivity, ID: 2}},
				Updates:   []Update{},
			},
		},
		{
			name: "new timeslot on existing activity",
			updated: mutated(func(a []Activity, l []Location, s []Timeslot) ([]Activity, []Location, []Timeslot) {
				return a, l, append(s, Timeslot{ID: 103, ActivityID: 2, LocationID: 11, StartsAt: slotStart, EndsAt: slotEnd})
			}),
			want: Comparison{
				Additions: []Change{{Type: EntityTimeslot, ID: 103}},
				Removals:  []Change{},
				Updates:   []Update{},
			},
		},
		{
			name: "removed timeslot of surviving activity",
			updated: mutated(func(a []Activity, l []Location, s []Timeslot) ([]Activity, []Location, []Timeslot) {
				return a, l, s[:2] // activity 2 keeps existing but loses its only slot
			}),
			want: Comparison{
				Additions: []Change{},
				Removals:  []Change{{Type: EntityTimeslot, ID: 102}},
				Updates:   []Update{},
			},
		},
		{
			name: "title change is a low severity update",
			updated: mutated(func(a []Activity, l []Location, s []Timeslot) ([]Activity, []Location, []Timeslot) {
				a[0].Name = "Grand Opening Ceremony"
				return a, l, s
			}),
			want: Comparison{
				Additions: []Change{},
				Removals:  []Change{},
				Updates:   []Update{{Type: EntityActivity, ID: 1, Fields: []string{"name"}, Severity: SeverityLow}},
			},
		},
		{
			name: "visibility flip is a minor update",
			updated: mutated(func(a []Activity, l []Location, s []Timeslot) ([]Activity, []Location, []Timeslot) {
				a[0].Visible = false
				return a, l, s
			}),
			want: Comparison{
				Additions: []Change{},
				Removals:  []Change{},
				Updates:   []Update{{Type: EntityActivity, ID: 1, Fields: []string{"visible"}, Severity: SeverityMinor}},
			},
		},
		{
			name: "combined content and visibility takes the higher severity",
			updated: mutated(func(a []Activity, l []Location, s []Timeslot) ([]Activity, []Location, []Timeslot) {
				a[1].Description = "Now with two microphones"
				a[1].Visible = false
				return a, l, s
			}),
			want: Comparison{
				Additions: []Change{},
				Removals:  []Change{},
				Updates:   []Update{{Type: EntityActivity, ID: 2, Fields: []string{"description", "visible"}, Severity: SeverityMinor}},
			},
		},
		{
			name: "timing change is a major update",
			updated: mutated(func(a []Activity, l []Location, s []Timeslot) ([]Activity, []Location, []Timeslot) {
				s[0].StartsAt = s[0].StartsAt.Add(30 * time.Minute)
				return a, l, s
			}),
			want: Comparison{
				Additions: []Change{},
				Removals:  []Change{},
				Updates:   []Update{{Type: EntityTimeslot, ID: 100, Fields: []string{"startDate"}, Severity: SeverityMajor}},
			},
		},
		{
			name: "relocation to an existing location is a minor timeslot update",
			updated: mutated(func(a []Activity, l []Location, s []Timeslot) ([]Activity, []Location, []Timeslot) {
				s[0].LocationID = 11 // slot 100 moves to the club room; location 10 still used by 101
				return a, l, s
			}),
			want: Comparison{
				Additions: []Change{},
				Removals:  []Change{},
				Updates:   []Update{{Type: EntityTimeslot, ID: 100, Fields: []string{"locationId"}, Severity: SeverityMinor}},
			},
		},
		{
			name: "relocating the last timeslot removes the abandoned location",
			updated: mutated(func(a []Activity, l []Location, s []Timeslot) ([]Activity, []Location, []Timeslot) {
				s[2].LocationID = 10 // slot 102 leaves location 11
				return a, l[:1], s   // location 11 no longer referenced
			}),
			want: Comparison{
				Additions: []Change{},
				Removals:  []Change{{Type: EntityLocation, ID: 11}},
				Updates:   []Update{{Type: EntityTimeslot, ID: 102, Fields: []string{"locationId"}, Severity: SeverityMinor}},
			},
		},
		{
			name: "relocation to a brand new location adds the location only",
			updated: mutated(func(a []Activity, l []Location, s []Timeslot) ([]Activity, []Location, []Timeslot) {
				s[2].LocationID = 12 // location 11 loses its only reference
				return a, append(l[:1], Location{ID: 12, Name: "Garden Tent"}), s
			}),
			want: Comparison{
				Additions: []Change{{Type: EntityLocation, ID: 12}},
				Removals:  []Change{{Type: EntityLocation, ID: 11}},
				Updates:   []Update{{Type: EntityTimeslot, ID: 102, Fields: []string{"locationId"}, Severity: SeverityMinor}},
			},
		},
		{
			name: "added activity subsumes its timeslots",
			updated: mutated(func(a []Activity, l []Location, s []Timeslot) ([]Activity, []Location, []Timeslot) {
				a = append(a, Activity{ID: 3, Name: "Cosplay Contest", Visible: true})
				s = append(s, Timeslot{ID: 103, ActivityID: 3, LocationID: 10, StartsAt: slotStart, EndsAt: slotEnd})
				return a, l, s
			}),
			want: Comparison{
				Additions: []Change{{Type: EntityActivity, ID: 3}},
				Removals:  []Change{},
				Updates:   []Update{},
			},
		},
		{
			name: "location rename is a low severity update",
			updated: mutated(func(a []Activity, l []Location, s []Timeslot) ([]Activity, []Location, []Timeslot) {
				l[1].Name = "Karaoke Dungeon"
				return a, l, s
			}),
			want: Comparison{
				Additions: []Change{},
				Removals:  []Change{},
				Updates:   []Update{{Type: EntityLocation, ID: 11, Fields: []string{"name"}, Severity: SeverityLow}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Compare(baseProgram(), tt.updated)
			if !reflect.DeepEqual(*got, tt.want) {
				t.Errorf("Compare() = %#v, want %#v", *got, tt.want)
			}
		})
	}
}

func TestCompareActivityWithoutTimeslots(t *testing.T) {
	// An activity with zero timeslots must not break traversal in either
	// direction.
	empty := New([]Activity{{ID: 5, Name: "Placeholder"}}, nil, nil, nil)
	cmp := Compare(New(nil, nil, nil, nil), empty)
	want := []Change{{Type: EntityActivity, ID: 5}}
	if !reflect.DeepEqual(cmp.Additions, want) {
		t.Errorf("Additions = %#v, want %#v", cmp.Additions, want)
	}
	if len(cmp.Removals) != 0 || len(cmp.Updates) != 0 {
		t.Errorf("unexpected removals/updates: %#v / %#v", cmp.Removals, cmp.Updates)
	}
}

func TestCompareSelfIsEmpty(t *testing.T) {
	p := baseProgram()
	if cmp := Compare(p, p); !cmp.Empty() {
		t.Errorf("comparing a program against itself produced %#v", cmp)
	}
}

func TestSeverityJSONRoundTrip(t *testing.T) {
	for _, s := range []Severity{SeverityLow, SeverityMinor, SeverityMajor} {
		data, err := s.MarshalJSON()
		if err != nil {
			t.Fatalf("marshal %v: %v", s, err)
		}
		var back Severity
		if err := back.UnmarshalJSON(data); err != nil {
			t.Fatalf("unmarshal %s: %v", data, err)
		}
		if back != s {
			t.Errorf("round trip %v -> %s -> %v", s, data, back)
		}
	}
}
