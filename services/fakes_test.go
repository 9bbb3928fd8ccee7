package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"

	media "github.com/phillip/event-easy-go/media"
	models "github.com/phillip/event-easy-go/models"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))

// fakeEventStore is an in-memory EventStore. The mutex plays the role of Mongo's
// per-document atomicity.
type fakeEventStore struct {
	mu        sync.Mutex
	byID      map[primitive.ObjectID]*models.Event
	insertErr error
	findErr   error
	addCalls  int
}

func newFakeEventStore() *fakeEventStore {
	return &fakeEventStore{byID: make(map[primitive.ObjectID]*models.Event)}
}

func clone(ev *models.Event) *models.Event {
	cp := *ev
	cp.Attendees = append([]models.Attendee{}, ev.Attendees...)
	return &cp
}

func (f *fakeEventStore) put(ev *models.Event) *models.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	if ev.ID.IsZero() {
		ev.ID = primitive.NewObjectID()
	}
	if ev.Attendees == nil {
		ev.Attendees = []models.Attendee{}
	}
	f.byID[ev.ID] = clone(ev)
	return ev
}

func (f *fakeEventStore) get(id primitive.ObjectID) *models.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	if ev, ok := f.byID[id]; ok {
		return clone(ev)
	}
	return nil
}

func (f *fakeEventStore) Insert(_ context.Context, ev *models.Event) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.put(ev)
	return nil
}

func (f *fakeEventStore) Find(_ context.Context, filter models.EventFilter) ([]models.Event, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Event{}
	for _, ev := range f.byID {
		if filter.OrganizerID != nil && ev.OrganizerID != *filter.OrganizerID {
			continue
		}
		if filter.NameQuery != "" && !strings.Contains(strings.ToLower(ev.Name), strings.ToLower(filter.NameQuery)) {
			continue
		}
		out = append(out, *clone(ev))
	}
	return out, nil
}

func (f *fakeEventStore) FindByID(_ context.Context, id primitive.ObjectID) (*models.Event, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	if ev := f.get(id); ev != nil {
		return ev, nil
	}
	return nil, models.ErrNotFound
}

func (f *fakeEventStore) Update(_ context.Context, id primitive.ObjectID, u models.EventUpdate) (*models.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ev, ok := f.byID[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	if u.Name != nil {
		ev.Name = *u.Name
	}
	if u.Description != nil {
		ev.Description = *u.Description
	}
	if u.Category != nil {
		ev.Category = *u.Category
	}
	if u.Pattern != nil {
		ev.Pattern = *u.Pattern
	}
	if u.ScheduledTime != nil {
		ev.ScheduledTime = *u.ScheduledTime
	}
	if u.Updates != nil {
		ev.Updates = *u.Updates
	}
	if u.VenueID != nil {
		ev.VenueID = u.VenueID
	}
	if u.Image != nil {
		ev.Image = u.Image
	}
	if u.Video != nil {
		ev.Video = u.Video
	}
	return clone(ev), nil
}

func (f *fakeEventStore) SetStatus(_ context.Context, id primitive.ObjectID, from, to models.EventStatus) (*models.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ev, ok := f.byID[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	if ev.Status != from {
		return nil, models.ErrConflict
	}
	ev.Status = to
	return clone(ev), nil
}

func (f *fakeEventStore) AddAttendee(_ context.Context, id primitive.ObjectID, a models.Attendee) (*models.Event, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.addCalls++
	ev, ok := f.byID[id]
	if !ok {
		return nil, false, models.ErrNotFound
	}
	if ev.HasAttendee(a.UserID) {
		return clone(ev), false, nil
	}
	ev.Attendees = append(ev.Attendees, a)
	return clone(ev), true, nil
}

func (f *fakeEventStore) RemoveAttendee(_ context.Context, id, userID primitive.ObjectID) (*models.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ev, ok := f.byID[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	kept := ev.Attendees[:0]
	for _, a := range ev.Attendees {
		if a.UserID != userID {
			kept = append(kept, a)
		}
	}
	ev.Attendees = kept
	return clone(ev), nil
}

func (f *fakeEventStore) Delete(_ context.Context, id primitive.ObjectID) (*models.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ev, ok := f.byID[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	delete(f.byID, id)
	return ev, nil
}

type fakeUsers struct {
	users map[primitive.ObjectID]models.UserSummary
	err   error
}

func (f *fakeUsers) Summaries(_ context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.UserSummary, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := map[primitive.ObjectID]models.UserSummary{}
	for _, id := range ids {
		if u, ok := f.users[id]; ok {
			out[id] = u
		}
	}
	return out, nil
}

type fakeMedia struct {
	mu         sync.Mutex
	uploads    []string
	destroyed  []models.Media
	uploadErr  error
	destroyErr error
}

func (f *fakeMedia) Upload(_ context.Context, kind media.Kind, filename string, _ io.Reader) (models.Media, error) {
	if f.uploadErr != nil {
		return models.Media{}, f.uploadErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads = append(f.uploads, filename)
	id := "Event-Easy/" + string(kind) + "s/" + filename
	return models.Media{PublicID: id, URL: "https://res.cloudinary.com/demo/" + string(kind) + "/upload/" + id}, nil
}

func (f *fakeMedia) Destroy(_ context.Context, _ media.Kind, m models.Media) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.destroyed = append(f.destroyed, m)
	return f.destroyErr
}

type fakeGateway struct {
	mu        sync.Mutex
	statuses  map[string]models.PaymentStatus
	checkouts []models.CheckoutRequest
	verifies  int
	err       error
}

func (f *fakeGateway) CreateCheckout(_ context.Context, req models.CheckoutRequest) (models.CheckoutSession, error) {
	if f.err != nil {
		return models.CheckoutSession{}, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.checkouts = append(f.checkouts, req)
	return models.CheckoutSession{CheckoutURL: "https://checkout.chapa.co/" + req.TxRef, TxRef: req.TxRef}, nil
}

func (f *fakeGateway) TransactionStatus(_ context.Context, txRef string) (models.PaymentStatus, error) {
	if f.err != nil {
		return models.PaymentNotSuccess, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.verifies++
	if s, ok := f.statuses[txRef]; ok {
		return s, nil
	}
	return models.PaymentNotSuccess, nil
}

// fakeResolver treats the credential "token-<hex>" as the user <hex>.
type fakeResolver struct{}

func (fakeResolver) Resolve(credential string) (models.Identity, error) {
	id, ok := strings.CutPrefix(credential, "token-")
	if !ok {
		return models.Identity{}, models.ErrUnauthorized
	}
	return models.Identity{UserID: id}, nil
}

func tokenFor(id primitive.ObjectID) string { return "token-" + id.Hex() }

type fakeSender struct {
	mu   sync.Mutex
	sent []string
	err  error
}

func (f *fakeSender) Send(_ context.Context, to, _, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, to)
	return f.err
}

var errBoom = errors.New("boom")
