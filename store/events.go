package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	models "github.com/phillip/event-easy-go/models"
)

const (
	EventsCollection = "events"

	opTimeout   = 5 * time.Second
	listTimeout = 10 * time.Second
)

// EventStore persists events in a single Mongo collection. Every mutation is one
// single-document operation, so no transactions are needed.
type EventStore struct {
	col *mongo.Collection
	now func() time.Time
}

func NewEventStore(db *mongo.Database) *EventStore {
	return NewEventStoreFromCollection(db.Collection(EventsCollection))
}

func NewEventStoreFromCollection(col *mongo.Collection) *EventStore {
	return &EventStore{col: col, now: time.Now}
}

func storeErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, models.ErrStore, err)
}

func (s *EventStore) Insert(ctx context.Context, ev *models.Event) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	now := s.now()
	if ev.ID.IsZero() {
		ev.ID = primitive.NewObjectID()
	}
	if ev.Attendees == nil {
		ev.Attendees = []models.Attendee{}
	}
	ev.CreatedAt, ev.UpdatedAt = now, now

	if _, err := s.col.InsertOne(ctx, ev); err != nil {
		return storeErr("insert event", err)
	}
	return nil
}

func (s *EventStore) Find(ctx context.Context, f models.EventFilter) ([]models.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, listTimeout)
	defer cancel()

	filter := bson.M{}
	if f.OrganizerID != nil {
		filter["organizer_id"] = *f.OrganizerID
	}
	if f.NameQuery != "" {
		filter["event_name"] = bson.M{"$regex": regexp.QuoteMeta(f.NameQuery), "$options": "i"}
	}

	cursor, err := s.col.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "time", Value: 1}}))
	if err != nil {
		return nil, storeErr("find events", err)
	}
	events := []models.Event{}
	if err := cursor.All(ctx, &events); err != nil {
		return nil, storeErr("decode events", err)
	}
	return events, nil
}

func (s *EventStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var ev models.Event
	if err := s.col.FindOne(ctx, bson.M{"_id": id}).Decode(&ev); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrNotFound
		}
		return nil, storeErr("find event", err)
	}
	return &ev, nil
}

// Update applies the supplied fields with one $set and returns the updated document.
func (s *EventStore) Update(ctx context.Context, id primitive.ObjectID, u models.EventUpdate) (*models.Event, error) {
	set := bson.M{"updated_at": s.now()}
	f := u.EventFields
	if f.Name != nil {
		set["event_name"] = *f.Name
	}
	if f.Description != nil {
		set["description"] = *f.Description
	}
	if f.Category != nil {
		set["category"] = *f.Category
	}
	if f.Pattern != nil {
		set["pattern"] = *f.Pattern
	}
	if f.ScheduledTime != nil {
		set["time"] = *f.ScheduledTime
	}
	if f.Updates != nil {
		set["updates"] = *f.Updates
	}
	if f.VenueID != nil {
		set["venue_id"] = *f.VenueID
	}
	if u.Image != nil {
		set["image"] = u.Image
	}
	if u.Video != nil {
		set["video"] = u.Video
	}
	return s.findOneAndUpdate(ctx, "update event", bson.M{"_id": id}, bson.M{"$set": set})
}

// SetStatus moves the event from one status to another. It only matches while the stored
// status still equals from; a concurrent change yields ErrConflict.
func (s *EventStore) SetStatus(ctx context.Context, id primitive.ObjectID, from, to models.EventStatus) (*models.Event, error) {
	filter := bson.M{"_id": id, "status": from}
	update := bson.M{"$set": bson.M{"status": to, "updated_at": s.now()}}

	ev, err := s.findOneAndUpdate(ctx, "set event status", filter, update)
	if errors.Is(err, models.ErrNotFound) {
		if _, ferr := s.FindByID(ctx, id); ferr != nil {
			return nil, ferr
		}
		return nil, fmt.Errorf("event status changed concurrently: %w", models.ErrConflict)
	}
	return ev, err
}

// AddAttendee appends a unless an entry with the same user id is already on the roster.
// The membership test and the push happen in one findAndModify, so concurrent callers
// cannot both insert. added is false when the user was already a member.
func (s *EventStore) AddAttendee(ctx context.Context, id primitive.ObjectID, a models.Attendee) (*models.Event, bool, error) {
	if a.JoinedAt.IsZero() {
		a.JoinedAt = s.now()
	}
	filter := bson.M{"_id": id, "attendees.user_id": bson.M{"$ne": a.UserID}}
	update := bson.M{
		"$push": bson.M{"attendees": a},
		"$set":  bson.M{"updated_at": s.now()},
	}

	ev, err := s.findOneAndUpdate(ctx, "add attendee", filter, update)
	if err == nil {
		return ev, true, nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return nil, false, err
	}
	// No match: either the event is gone or the user is already listed.
	ev, err = s.FindByID(ctx, id)
	if err != nil {
		return nil, false, err
	}
	return ev, false, nil
}

func (s *EventStore) RemoveAttendee(ctx context.Context, id, userID primitive.ObjectID) (*models.Event, error) {
	update := bson.M{
		"$pull": bson.M{"attendees": bson.M{"user_id": userID}},
		"$set":  bson.M{"updated_at": s.now()},
	}
	return s.findOneAndUpdate(ctx, "remove attendee", bson.M{"_id": id}, update)
}

// Delete removes the event and returns the deleted document so its media can be cleaned up.
func (s *EventStore) Delete(ctx context.Context, id primitive.ObjectID) (*models.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var ev models.Event
	if err := s.col.FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&ev); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrNotFound
		}
		return nil, storeErr("delete event", err)
	}
	return &ev, nil
}

func (s *EventStore) findOneAndUpdate(ctx context.Context, op string, filter, update bson.M) (*models.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var ev models.Event
	if err := s.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&ev); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrNotFound
		}
		return nil, storeErr(op, err)
	}
	return &ev, nil
}
