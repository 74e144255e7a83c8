package animecon

import "time"

// This file defines the wire representation of the AnimeCon program API
// (AnPlan).  Each struct mirrors one JSON resource as returned by the
// remote endpoints.  Responses are validated against the `validate` tags
// after decoding; a response that does not satisfy them is treated as a
// broken integration, never silently accepted.

// Activity is one bookable convention event.  An activity may span
// multiple timeslots; each timeslot embeds the location it occurs in.
//
// Fields:
//  ID          – identifier, unique among activities.
//  Title       – display title of the activity.
//  Description – optional long description (null when not provided).
//  URL         – optional link to more information.
//  Visible     – whether the activity is published to visitors.
//  Timeslots   – the scheduled occurrences of this activity.
type Activity struct {
	ID          int64      `json:"id" validate:"required"`
	Title       string     `json:"title" validate:"required"`
	Description *string    `json:"description"`
	URL         *string    `json:"url"`
	Visible     bool       `json:"visible"`
	Timeslots   []Timeslot `json:"timeslots" validate:"dive"`
}

// ActivityType categorises activities (e.g. workshop, screening).
type ActivityType struct {
	ID          int64  `json:"id" validate:"required"`
	Description string `json:"description" validate:"required"`
	Visible     bool   `json:"visible"`
}

// Floor is a physical level of the venue.
type Floor struct {
	ID   int64  `json:"id" validate:"required"`
	Name string `json:"name" validate:"required"`
}

// Location is a room or area in which timeslots take place.  FloorID may
// be absent from the upstream payload; it defaults to zero in that case.
type Location struct {
	ID      int64  `json:"id" validate:"required"`
	Name    string `json:"name" validate:"required"`
	FloorID int64  `json:"floorId"`
}

// Timeslot is one scheduled occurrence of an activity.  Start is
// inclusive, end is exclusive.  The location is embedded by the upstream
// API rather than referenced by id.
type Timeslot struct {
	ID           int64     `json:"id" validate:"required"`
	DateStartsAt time.Time `json:"dateStartsAt" validate:"required"`
	DateEndsAt   time.Time `json:"dateEndsAt" validate:"required"`
	Location     Location  `json:"location"`
}
