package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	media "github.com/phillip/event-easy-go/media"
	models "github.com/phillip/event-easy-go/models"
)

// EventService owns event creation, edits, deletion and the approval lifecycle.
type EventService struct {
	store  EventStore
	users  UserDirectory
	media  MediaStore
	policy TransitionPolicy
	log    *slog.Logger
}

func NewEventService(store EventStore, users UserDirectory, mediaStore MediaStore, policy TransitionPolicy, log *slog.Logger) *EventService {
	if policy == nil {
		policy = PermissivePolicy{}
	}
	return &EventService{store: store, users: users, media: mediaStore, policy: policy, log: log}
}

type CreateEventInput struct {
	Name          string
	Description   string
	Category      string
	Pattern       string
	ScheduledTime time.Time
	Updates       string
	VenueID       *primitive.ObjectID
}

func (in CreateEventInput) validate() error {
	var missing []string
	if strings.TrimSpace(in.Name) == "" {
		missing = append(missing, "event name")
	}
	if strings.TrimSpace(in.Pattern) == "" {
		missing = append(missing, "pattern")
	}
	if in.ScheduledTime.IsZero() {
		missing = append(missing, "time")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%s required: %w", strings.Join(missing, ", "), models.ErrValidation)
	}
	if !models.ValidCategory(in.Category) {
		return fmt.Errorf("invalid category %q: %w", in.Category, models.ErrValidation)
	}
	return nil
}

// Create stores a new pending event with an empty roster. The image is mandatory; nothing is
// persisted or uploaded when it is missing.
func (s *EventService) Create(ctx context.Context, actor models.Identity, in CreateEventInput, image, video *Upload) (*models.Event, error) {
	organizerID, err := actor.ObjectID()
	if err != nil {
		return nil, fmt.Errorf("invalid user id: %w", models.ErrUnauthorized)
	}
	if image == nil {
		return nil, fmt.Errorf("image is required: %w", models.ErrValidation)
	}
	in.Category, _ = models.NormalizeCategory(in.Category)
	if err := in.validate(); err != nil {
		return nil, err
	}

	ev := &models.Event{
		ID:            primitive.NewObjectID(),
		Name:          strings.TrimSpace(in.Name),
		Description:   in.Description,
		Category:      in.Category,
		Pattern:       in.Pattern,
		ScheduledTime: in.ScheduledTime,
		Updates:       in.Updates,
		VenueID:       in.VenueID,
		OrganizerID:   organizerID,
		Status:        models.StatusPending,
		Attendees:     []models.Attendee{},
	}

	img, err := s.media.Upload(ctx, media.KindImage, image.Filename, image.File)
	if err != nil {
		return nil, fmt.Errorf("image upload failed: %w", err)
	}
	ev.Image = &img
	if video != nil {
		vid, err := s.media.Upload(ctx, media.KindVideo, video.Filename, video.File)
		if err != nil {
			s.discard(ctx, media.KindImage, img)
			return nil, fmt.Errorf("video upload failed: %w", err)
		}
		ev.Video = &vid
	}

	if err := s.store.Insert(ctx, ev); err != nil {
		s.discard(ctx, media.KindImage, img)
		if ev.Video != nil {
			s.discard(ctx, media.KindVideo, *ev.Video)
		}
		return nil, err
	}

	s.log.Info("event created",
		slog.String("event_id", ev.ID.Hex()),
		slog.String("organizer_id", organizerID.Hex()),
	)
	return ev, nil
}

// List returns every event regardless of status. Public views filter to approved themselves.
func (s *EventService) List(ctx context.Context, nameQuery string) ([]models.EventView, error) {
	events, err := s.store.Find(ctx, models.EventFilter{NameQuery: strings.TrimSpace(nameQuery)})
	if err != nil {
		return nil, err
	}
	return s.views(ctx, events)
}

func (s *EventService) ListByOrganizer(ctx context.Context, organizerID string) ([]models.EventView, error) {
	oid, err := primitive.ObjectIDFromHex(organizerID)
	if err != nil {
		return nil, models.InvalidID("organizer", organizerID)
	}
	events, err := s.store.Find(ctx, models.EventFilter{OrganizerID: &oid})
	if err != nil {
		return nil, err
	}
	return s.views(ctx, events)
}

func (s *EventService) GetByID(ctx context.Context, id string) (*models.EventView, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, models.InvalidID("event", id)
	}
	ev, err := s.store.FindByID(ctx, oid)
	if err != nil {
		return nil, err
	}
	views, err := s.views(ctx, []models.Event{*ev})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// Update applies a partial edit; blank values keep the stored field. Only the organizer or
// an admin may edit. Replaced media is removed from the provider once the new references
// are stored.
func (s *EventService) Update(ctx context.Context, actor models.Identity, id string, fields models.EventFields, image, video *Upload) (*models.Event, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, models.InvalidID("event", id)
	}
	fields = fields.Compact()
	if fields.Category != nil {
		category, ok := models.NormalizeCategory(*fields.Category)
		if !ok {
			return nil, fmt.Errorf("invalid category %q: %w", *fields.Category, models.ErrValidation)
		}
		fields.Category = &category
	}

	existing, err := s.store.FindByID(ctx, oid)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeOwner(actor, existing); err != nil {
		return nil, err
	}

	upd := models.EventUpdate{EventFields: fields}
	if upd.Empty() && image == nil && video == nil {
		return nil, fmt.Errorf("no fields to update: %w", models.ErrValidation)
	}

	var uploaded []uploadedMedia
	if image != nil {
		img, err := s.media.Upload(ctx, media.KindImage, image.Filename, image.File)
		if err != nil {
			return nil, fmt.Errorf("image upload failed: %w", err)
		}
		upd.Image = &img
		uploaded = append(uploaded, uploadedMedia{media.KindImage, img})
	}
	if video != nil {
		vid, err := s.media.Upload(ctx, media.KindVideo, video.Filename, video.File)
		if err != nil {
			s.discardAll(ctx, uploaded)
			return nil, fmt.Errorf("video upload failed: %w", err)
		}
		upd.Video = &vid
		uploaded = append(uploaded, uploadedMedia{media.KindVideo, vid})
	}

	updated, err := s.store.Update(ctx, oid, upd)
	if err != nil {
		s.discardAll(ctx, uploaded)
		return nil, err
	}

	if upd.Image != nil && existing.Image != nil {
		s.discard(ctx, media.KindImage, *existing.Image)
	}
	if upd.Video != nil && existing.Video != nil {
		s.discard(ctx, media.KindVideo, *existing.Video)
	}
	return updated, nil
}

// SetStatus records an admin decision on an event.
func (s *EventService) SetStatus(ctx context.Context, actor models.Identity, id, status string) (*models.Event, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, models.InvalidID("event", id)
	}
	to := models.EventStatus(status)
	if to != models.StatusApproved && to != models.StatusRejected {
		return nil, fmt.Errorf("invalid status value %q, it should be 'approved' or 'rejected': %w", status, models.ErrValidation)
	}
	if !actor.IsAdmin() {
		return nil, fmt.Errorf("admins only: %w", models.ErrForbidden)
	}

	current, err := s.store.FindByID(ctx, oid)
	if err != nil {
		return nil, err
	}
	if !s.policy.Allowed(current.Status, to) {
		return nil, fmt.Errorf("cannot move event from %s to %s: %w", current.Status, to, models.ErrConflict)
	}

	ev, err := s.store.SetStatus(ctx, oid, current.Status, to)
	if err != nil {
		return nil, err
	}
	s.log.Info("event status updated",
		slog.String("event_id", id),
		slog.String("from", string(current.Status)),
		slog.String("to", string(to)),
		slog.String("admin_id", actor.UserID),
	)
	return ev, nil
}

// Delete removes the event, then its media. Media cleanup failures are logged only.
func (s *EventService) Delete(ctx context.Context, actor models.Identity, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return models.InvalidID("event", id)
	}
	existing, err := s.store.FindByID(ctx, oid)
	if err != nil {
		return err
	}
	if err := s.authorizeOwner(actor, existing); err != nil {
		return err
	}

	deleted, err := s.store.Delete(ctx, oid)
	if err != nil {
		return err
	}
	if deleted.Image != nil {
		s.discard(ctx, media.KindImage, *deleted.Image)
	}
	if deleted.Video != nil {
		s.discard(ctx, media.KindVideo, *deleted.Video)
	}
	return nil
}

func (s *EventService) authorizeOwner(actor models.Identity, ev *models.Event) error {
	if actor.UserID == "" {
		return models.ErrUnauthorized
	}
	if !actor.IsAdmin() && ev.OrganizerID.Hex() != actor.UserID {
		return fmt.Errorf("access denied: %w", models.ErrForbidden)
	}
	return nil
}

// views joins organizer and attendee references to user summaries with one lookup.
func (s *EventService) views(ctx context.Context, events []models.Event) ([]models.EventView, error) {
	seen := make(map[primitive.ObjectID]struct{})
	var ids []primitive.ObjectID
	add := func(id primitive.ObjectID) {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	for _, ev := range events {
		add(ev.OrganizerID)
		for _, a := range ev.Attendees {
			add(a.UserID)
		}
	}

	users, err := s.users.Summaries(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]models.EventView, 0, len(events))
	for _, ev := range events {
		v := models.EventView{Event: ev, Attendees: make([]models.AttendeeView, 0, len(ev.Attendees))}
		if u, ok := users[ev.OrganizerID]; ok {
			v.Organizer = &u
		}
		for _, a := range ev.Attendees {
			av := models.AttendeeView{Attendee: a}
			if u, ok := users[a.UserID]; ok {
				av.User = &u
			}
			v.Attendees = append(v.Attendees, av)
		}
		out = append(out, v)
	}
	return out, nil
}

type uploadedMedia struct {
	kind media.Kind
	m    models.Media
}

func (s *EventService) discardAll(ctx context.Context, items []uploadedMedia) {
	for _, it := range items {
		s.discard(ctx, it.kind, it.m)
	}
}

// discard removes media best-effort. It runs on a fresh context so a cancelled request
// still cleans up.
func (s *EventService) discard(ctx context.Context, kind media.Kind, m models.Media) {
	ctx = context.WithoutCancel(ctx)
	if err := s.media.Destroy(ctx, kind, m); err != nil {
		s.log.Warn("media cleanup failed",
			slog.String("kind", string(kind)),
			slog.String("public_id", m.PublicID),
			slog.Any("error", err),
		)
	}
}
