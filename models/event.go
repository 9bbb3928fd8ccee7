package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type EventStatus string

const (
	StatusPending  EventStatus = "pending"
	StatusApproved EventStatus = "approved"
	StatusRejected EventStatus = "rejected"
)

// Valid reports whether s is one of the three lifecycle states.
func (s EventStatus) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

var Categories = []string{
	"Educational/Academic Events",
	"Social & Cultural Events",
	"Sports & Recreational Events",
	"Entertainment Events",
	"Professional & Educational Events",
	"Religious",
}

// categoryAliases maps spellings sent by older clients onto the stored category.
var categoryAliases = map[string]string{
	"religous": "Religious",
}

// NormalizeCategory trims c and resolves known aliases. ok is false when the result is not
// one of Categories.
func NormalizeCategory(c string) (string, bool) {
	c = strings.TrimSpace(c)
	if alias, found := categoryAliases[strings.ToLower(c)]; found {
		c = alias
	}
	for _, v := range Categories {
		if strings.EqualFold(v, c) {
			return v, true
		}
	}
	return c, false
}

func ValidCategory(c string) bool {
	_, ok := NormalizeCategory(c)
	return ok
}

// Media references an asset held by the media provider.
type Media struct {
	PublicID string `bson:"public_id" json:"public_id"`
	URL      string `bson:"url" json:"url"`
}

type Attendee struct {
	UserID    primitive.ObjectID `bson:"user_id" json:"user_id"`
	FirstName string             `bson:"first_name,omitempty" json:"first_name,omitempty"`
	LastName  string             `bson:"last_name,omitempty" json:"last_name,omitempty"`
	Email     string             `bson:"email,omitempty" json:"email,omitempty"`
	JoinedAt  time.Time          `bson:"joined_at" json:"joined_at"`
}

type Event struct {
	ID            primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Name          string              `bson:"event_name" json:"event_name"`
	Description   string              `bson:"description,omitempty" json:"description,omitempty"`
	Category      string              `bson:"category" json:"category"`
	Pattern       string              `bson:"pattern" json:"pattern"`
	ScheduledTime time.Time           `bson:"time" json:"time"`
	Updates       string              `bson:"updates,omitempty" json:"updates,omitempty"`
	Image         *Media              `bson:"image,omitempty" json:"image,omitempty"`
	Video         *Media              `bson:"video,omitempty" json:"video,omitempty"`
	VenueID       *primitive.ObjectID `bson:"venue_id,omitempty" json:"venue_id,omitempty"`
	OrganizerID   primitive.ObjectID  `bson:"organizer_id" json:"organizer_id"` // immutable
	Status        EventStatus         `bson:"status" json:"status"`
	Attendees     []Attendee          `bson:"attendees" json:"attendees"`
	CreatedAt     time.Time           `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time           `bson:"updated_at" json:"updated_at"`
}

// HasAttendee reports whether userID is already on the roster.
func (e *Event) HasAttendee(userID primitive.ObjectID) bool {
	for _, a := range e.Attendees {
		if a.UserID == userID {
			return true
		}
	}
	return false
}

// EventFields carries the editable scalar fields of an event. Nil pointers are left untouched
// on update.
type EventFields struct {
	Name          *string
	Description   *string
	Category      *string
	Pattern       *string
	ScheduledTime *time.Time
	Updates       *string
	VenueID       *primitive.ObjectID
}

// Compact drops string fields that are blank after trimming, so an empty form value leaves
// the stored field unchanged.
func (f EventFields) Compact() EventFields {
	blank := func(p *string) *string {
		if p == nil || strings.TrimSpace(*p) == "" {
			return nil
		}
		return p
	}
	f.Name = blank(f.Name)
	f.Description = blank(f.Description)
	f.Category = blank(f.Category)
	f.Pattern = blank(f.Pattern)
	f.Updates = blank(f.Updates)
	return f
}

// EventUpdate is a partial update applied with a single $set.
type EventUpdate struct {
	EventFields
	Image *Media
	Video *Media
}

func (u EventUpdate) Empty() bool {
	f := u.EventFields
	return f.Name == nil && f.Description == nil && f.Category == nil && f.Pattern == nil &&
		f.ScheduledTime == nil && f.Updates == nil && f.VenueID == nil &&
		u.Image == nil && u.Video == nil
}

type EventFilter struct {
	OrganizerID *primitive.ObjectID
	NameQuery   string
}

// --- Read model ---

type AttendeeView struct {
	Attendee
	User *UserSummary `json:"user,omitempty"`
}

// EventView is an event with organizer and attendee identities resolved for display.
type EventView struct {
	Event
	Organizer *UserSummary   `json:"organizer,omitempty"`
	Attendees []AttendeeView `json:"attendees"`
}
