package program

import (
	"strings"
	"testing"
	"time"

	"github.com/animecon/program-sync/internal/animecon"
)

func strPtr(s string) *string { return &s }

func TestFromClient(t *testing.T) {
	activities := []animecon.Activity{
		{
			ID:          1,
			Title:       "Opening Ceremony",
			Description: strPtr("Doors at 9:30"),
			URL:         strPtr("https://animecon.example/opening"),
			Visible:     true,
			Timeslots: []animecon.Timeslot{
				{
					ID:           100,
					DateStartsAt: slotStart,
					DateEndsAt:   slotEnd,
					Location:     animecon.Location{ID: 10, Name: "Main Stage", FloorID: 1},
				},
				{
					ID:           101,
					DateStartsAt: slotStart.Add(24 * time.Hour),
					DateEndsAt:   slotEnd.Add(24 * time.Hour),
					Location:     animecon.Location{ID: 10, Name: "Main Stage RENAMED", FloorID: 1},
				},
			},
		},
		{
			// Optional fields absent upstream flatten to empty strings.
			ID:      2,
			Title:   "Karaoke Night",
			Visible: false,
			Timeslots: []animecon.Timeslot{
				{
					ID:           102,
					DateStartsAt: slotStart,
					DateEndsAt:   slotEnd,
					Location:     animecon.Location{ID: 11, Name: "Club Room", FloorID: 1},
				},
			},
		},
		{ID: 3, Title: "Unscheduled Panel", Visible: true},
	}
	floors := []animecon.Floor{{ID: 1, Name: "Ground Floor"}}

	p, err := FromClient(activities, floors)
	if err != nil {
		t.Fatalf("FromClient() error: %v", err)
	}

	if got := p.Activities(); len(got) != 3 {
		t.Fatalf("got %d activities, want 3", len(got))
	}

	a1, ok := p.Activity(1)
	if !ok {
		t.Fatal("activity 1 missing")
	}
	if a1.Name != "Opening Ceremony" || a1.Description != "Doors at 9:30" || a1.URL != "https://animecon.example/opening" || !a1.Visible {
		t.Errorf("activity 1 mapped as %#v", a1)
	}

	a2, ok := p.Activity(2)
	if !ok {
		t.Fatal("activity 2 missing")
	}
	if a2.Description != "" || a2.URL != "" {
		t.Errorf("absent optional fields should flatten to empty strings, got %#v", a2)
	}

	// Location 10 appears in two timeslots; the first occurrence wins.
	l10, ok := p.Location(10)
	if !ok {
		t.Fatal("location 10 missing")
	}
	if l10.Name != "Main Stage" {
		t.Errorf("location 10 name = %q, want the first seen %q", l10.Name, "Main Stage")
	}
	if l10.FloorID != 1 {
		t.Errorf("location 10 floorId = %d, want 1", l10.FloorID)
	}
	if got := p.Locations(); len(got) != 2 {
		t.Errorf("got %d locations, want 2", len(got))
	}

	s100, ok := p.Timeslot(100)
	if !ok {
		t.Fatal("timeslot 100 missing")
	}
	if s100.ActivityID != 1 || s100.LocationID != 10 || !s100.StartsAt.Equal(slotStart) || !s100.EndsAt.Equal(slotEnd) {
		t.Errorf("timeslot 100 mapped as %#v", s100)
	}

	if got := p.Floors(); len(got) != 1 || got[0].Name != "Ground Floor" {
		t.Errorf("floors = %#v", got)
	}
}

func TestFromClientEmpty(t *testing.T) {
	p, err := FromClient(nil, nil)
	if err != nil {
		t.Fatalf("FromClient(nil, nil) error: %v", err)
	}
	if len(p.Activities()) != 0 || len(p.Floors()) != 0 || len(p.Locations()) != 0 || len(p.Timeslots()) != 0 {
		t.Errorf("empty input produced a non-empty program")
	}
}

func TestLookupMiss(t *testing.T) {
	p := baseProgram()
	if _, ok := p.Activity(999); ok {
		t.Error("Activity(999) reported present")
	}
	if _, ok := p.Floor(999); ok {
		t.Error("Floor(999) reported present")
	}
	if _, ok := p.Location(999); ok {
		t.Error("Location(999) reported present")
	}
	if _, ok := p.Timeslot(999); ok {
		t.Error("Timeslot(999) reported present")
	}
}

func TestCollectionsAreSortedCopies(t *testing.T) {
	p := baseProgram()

	acts := p.Activities()
	for i := 1; i < len(acts); i++ {
		if acts[i-1].ID >= acts[i].ID {
			t.Fatalf("activities not sorted by id: %#v", acts)
		}
	}

	// Mutating the returned slice must not leak into the snapshot.
	acts[0].Name = "Hijacked"
	if a, _ := p.Activity(acts[0].ID); a.Name == "Hijacked" {
		t.Error("mutating the returned slice changed the program")
	}

	slots := p.Timeslots()
	for i := 1; i < len(slots); i++ {
		if slots[i-1].ID >= slots[i].ID {
			t.Fatalf("timeslots not sorted by id: %#v", slots)
		}
	}
}

func TestVerify(t *testing.T) {
	tests := []struct {
		name       string
		p          *Program
		wantSubstr string
	}{
		{
			name: "valid program",
			p:    baseProgram(),
		},
		{
			name: "dangling activity reference",
			p: New(
				nil,
				nil,
				[]Location{{ID: 10, Name: "Main Stage"}},
				[]Timeslot{{ID: 100, ActivityID: 7, LocationID: 10}},
			),
			wantSubstr: "unknown activity 7",
		},
		{
			name: "dangling location reference",
			p: New(
				[]Activity{{ID: 1, Name: "Opening Ceremony"}},
				nil,
				nil,
				[]Timeslot{{ID: 100, ActivityID: 1, LocationID: 42}},
			),
			wantSubstr: "unknown location 42",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.p.Verify()
			if tt.wantSubstr == "" {
				if err != nil {
					t.Fatalf("Verify() error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("Verify() succeeded, want error")
			}
			if !strings.Contains(err.Error(), tt.wantSubstr) {
				t.Errorf("Verify() error = %q, want substring %q", err, tt.wantSubstr)
			}
		})
	}
}

func TestNewLaterDuplicateWins(t *testing.T) {
	p := New(
		[]Activity{{ID: 1, Name: "First"}, {ID: 1, Name: "Second"}},
		nil, nil, nil,
	)
	a, ok := p.Activity(1)
	if !ok {
		t.Fatal("activity 1 missing")
	}
	if a.Name != "Second" {
		t.Errorf("duplicate id resolved to %q, want the later entry", a.Name)
	}
}
