package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	models "github.com/phillip/event-easy-go/models"
)

func newEventService(t *testing.T, policy TransitionPolicy) (*EventService, *fakeEventStore, *fakeMedia, *fakeUsers) {
	t.Helper()
	st := newFakeEventStore()
	md := &fakeMedia{}
	us := &fakeUsers{users: map[primitive.ObjectID]models.UserSummary{}}
	return NewEventService(st, us, md, policy, discardLogger), st, md, us
}

func validInput() CreateEventInput {
	return CreateEventInput{
		Name:          "Go Meetup",
		Category:      "Educational/Academic Events",
		Pattern:       "monthly",
		ScheduledTime: time.Date(2026, 11, 1, 18, 0, 0, 0, time.UTC),
	}
}

func imageUpload() *Upload { return &Upload{Filename: "poster.jpg", File: strings.NewReader("img")} }

func strPtr(s string) *string { return &s }

func TestEventService_Create(t *testing.T) {
	svc, st, md, _ := newEventService(t, nil)
	organizer := primitive.NewObjectID()

	ev, err := svc.Create(context.Background(), models.Identity{UserID: organizer.Hex()}, validInput(), imageUpload(), nil)
	require.NoError(t, err)

	assert.Equal(t, models.StatusPending, ev.Status)
	assert.Empty(t, ev.Attendees)
	assert.NotNil(t, ev.Attendees)
	assert.Equal(t, organizer, ev.OrganizerID)
	require.NotNil(t, ev.Image)
	assert.Equal(t, "Event-Easy/images/poster.jpg", ev.Image.PublicID)
	assert.Nil(t, ev.Video)
	assert.NotNil(t, st.get(ev.ID))
	assert.Equal(t, []string{"poster.jpg"}, md.uploads)
}

func TestEventService_Create_WithVideo(t *testing.T) {
	svc, _, _, _ := newEventService(t, nil)
	video := &Upload{Filename: "teaser.mp4", File: strings.NewReader("vid")}

	ev, err := svc.Create(context.Background(), models.Identity{UserID: primitive.NewObjectID().Hex()}, validInput(), imageUpload(), video)
	require.NoError(t, err)
	require.NotNil(t, ev.Video)
	assert.Equal(t, "Event-Easy/videos/teaser.mp4", ev.Video.PublicID)
}

func TestEventService_Create_RequiresImage(t *testing.T) {
	svc, st, md, _ := newEventService(t, nil)

	_, err := svc.Create(context.Background(), models.Identity{UserID: primitive.NewObjectID().Hex()}, validInput(), nil, nil)
	require.ErrorIs(t, err, models.ErrValidation)
	assert.Empty(t, st.byID)
	assert.Empty(t, md.uploads)
}

func TestEventService_Create_Validation(t *testing.T) {
	svc, st, _, _ := newEventService(t, nil)
	actor := models.Identity{UserID: primitive.NewObjectID().Hex()}

	bad := validInput()
	bad.Category = "cancelled"
	_, err := svc.Create(context.Background(), actor, bad, imageUpload(), nil)
	require.ErrorIs(t, err, models.ErrValidation)

	bad = validInput()
	bad.Name = "  "
	_, err = svc.Create(context.Background(), actor, bad, imageUpload(), nil)
	require.ErrorIs(t, err, models.ErrValidation)

	_, err = svc.Create(context.Background(), models.Identity{}, validInput(), imageUpload(), nil)
	require.ErrorIs(t, err, models.ErrUnauthorized)

	assert.Empty(t, st.byID)
}

func TestEventService_Create_StoreFailureDiscardsMedia(t *testing.T) {
	svc, st, md, _ := newEventService(t, nil)
	st.insertErr = models.ErrStore

	_, err := svc.Create(context.Background(), models.Identity{UserID: primitive.NewObjectID().Hex()}, validInput(), imageUpload(), nil)
	require.ErrorIs(t, err, models.ErrStore)
	require.Len(t, md.destroyed, 1)
	assert.Equal(t, "Event-Easy/images/poster.jpg", md.destroyed[0].PublicID)
}

func TestEventService_GetByID(t *testing.T) {
	svc, st, _, us := newEventService(t, nil)
	organizer, attendee := primitive.NewObjectID(), primitive.NewObjectID()
	us.users[organizer] = models.UserSummary{ID: organizer, Name: "Olga", Email: "o@x.com"}
	us.users[attendee] = models.UserSummary{ID: attendee, Name: "Abebe", Email: "a@x.com"}
	ev := st.put(&models.Event{Name: "E", OrganizerID: organizer, Status: models.StatusApproved,
		Attendees: []models.Attendee{{UserID: attendee}}})

	got, err := svc.GetByID(context.Background(), ev.ID.Hex())
	require.NoError(t, err)
	require.NotNil(t, got.Organizer)
	assert.Equal(t, "Olga", got.Organizer.Name)
	require.Len(t, got.Attendees, 1)
	require.NotNil(t, got.Attendees[0].User)
	assert.Equal(t, "a@x.com", got.Attendees[0].User.Email)

	_, err = svc.GetByID(context.Background(), primitive.NewObjectID().Hex())
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = svc.GetByID(context.Background(), "not-an-id")
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestEventService_List(t *testing.T) {
	svc, st, _, _ := newEventService(t, nil)
	org := primitive.NewObjectID()
	st.put(&models.Event{Name: "Jazz Night", OrganizerID: org, Status: models.StatusPending})
	st.put(&models.Event{Name: "Chess Open", OrganizerID: primitive.NewObjectID(), Status: models.StatusApproved})

	all, err := svc.List(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, all, 2, "list does not filter by status")

	jazz, err := svc.List(context.Background(), "jazz")
	require.NoError(t, err)
	require.Len(t, jazz, 1)
	assert.Equal(t, "Jazz Night", jazz[0].Name)

	mine, err := svc.ListByOrganizer(context.Background(), org.Hex())
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, org, mine[0].OrganizerID)

	_, err = svc.ListByOrganizer(context.Background(), "xyz")
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestEventService_Update(t *testing.T) {
	svc, st, md, _ := newEventService(t, nil)
	org := primitive.NewObjectID()
	old := models.Media{PublicID: "Event-Easy/images/old.jpg"}
	ev := st.put(&models.Event{Name: "Before", Pattern: "weekly", OrganizerID: org, Image: &old, Status: models.StatusApproved})

	updated, err := svc.Update(context.Background(), models.Identity{UserID: org.Hex()}, ev.ID.Hex(),
		models.EventFields{Name: strPtr("After")}, imageUpload(), nil)
	require.NoError(t, err)
	assert.Equal(t, "After", updated.Name)
	assert.Equal(t, "weekly", updated.Pattern, "unsupplied fields are kept")
	assert.Equal(t, models.StatusApproved, updated.Status)
	assert.Equal(t, org, updated.OrganizerID)
	assert.Equal(t, "Event-Easy/images/poster.jpg", updated.Image.PublicID)
	assert.Equal(t, []models.Media{old}, md.destroyed, "replaced image is cleaned up")
}

func TestEventService_Update_Errors(t *testing.T) {
	svc, st, _, _ := newEventService(t, nil)
	org := primitive.NewObjectID()
	ev := st.put(&models.Event{Name: "E", OrganizerID: org})

	_, err := svc.Update(context.Background(), models.Identity{UserID: org.Hex()}, primitive.NewObjectID().Hex(), models.EventFields{Name: strPtr("x")}, nil, nil)
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = svc.Update(context.Background(), models.Identity{UserID: primitive.NewObjectID().Hex()}, ev.ID.Hex(), models.EventFields{Name: strPtr("x")}, nil, nil)
	assert.ErrorIs(t, err, models.ErrForbidden)

	_, err = svc.Update(context.Background(), models.Identity{UserID: org.Hex()}, ev.ID.Hex(), models.EventFields{}, nil, nil)
	assert.ErrorIs(t, err, models.ErrValidation)

	_, err = svc.Update(context.Background(), models.Identity{UserID: org.Hex()}, ev.ID.Hex(), models.EventFields{Category: strPtr("nope")}, nil, nil)
	assert.ErrorIs(t, err, models.ErrValidation)

	admin := models.Identity{UserID: primitive.NewObjectID().Hex(), Role: models.RoleAdmin}
	updated, err := svc.Update(context.Background(), admin, ev.ID.Hex(), models.EventFields{Updates: strPtr("moved indoors")}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "moved indoors", updated.Updates)
}

func TestEventService_Create_LegacyCategorySpellings(t *testing.T) {
	tests := []struct {
		sent string
		want string
	}{
		{"religous", "Religious"},
		{" Entertainment Events", "Entertainment Events"},
		{"sports & recreational events", "Sports & Recreational Events"},
	}
	for _, tt := range tests {
		t.Run(tt.sent, func(t *testing.T) {
			svc, st, _, _ := newEventService(t, nil)
			in := validInput()
			in.Category = tt.sent

			ev, err := svc.Create(context.Background(), models.Identity{UserID: primitive.NewObjectID().Hex()}, in, imageUpload(), nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ev.Category)
			assert.Equal(t, tt.want, st.get(ev.ID).Category)
		})
	}
}

func TestEventService_Update_BlankValuesKeepStoredFields(t *testing.T) {
	svc, st, _, _ := newEventService(t, nil)
	org := primitive.NewObjectID()
	ev := st.put(&models.Event{
		Name: "Before", Description: "keep me", Pattern: "weekly", Updates: "doors at 7",
		Category: "Religious", OrganizerID: org,
	})
	owner := models.Identity{UserID: org.Hex()}

	updated, err := svc.Update(context.Background(), owner, ev.ID.Hex(), models.EventFields{
		Name:        strPtr("Renamed"),
		Description: strPtr(""),
		Pattern:     strPtr("  "),
		Updates:     strPtr(""),
		Category:    strPtr("religous"),
	}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)
	assert.Equal(t, "keep me", updated.Description)
	assert.Equal(t, "weekly", updated.Pattern)
	assert.Equal(t, "doors at 7", updated.Updates)
	assert.Equal(t, "Religious", updated.Category)

	_, err = svc.Update(context.Background(), owner, ev.ID.Hex(), models.EventFields{Name: strPtr("")}, nil, nil)
	assert.ErrorIs(t, err, models.ErrValidation, "an update made only of blanks changes nothing")
	assert.Equal(t, "Renamed", st.get(ev.ID).Name)
}

func TestEventService_SetStatus(t *testing.T) {
	admin := models.Identity{UserID: primitive.NewObjectID().Hex(), Role: models.RoleAdmin}

	t.Run("approve then reject under permissive policy", func(t *testing.T) {
		svc, st, _, _ := newEventService(t, nil)
		ev := st.put(&models.Event{Name: "E", Status: models.StatusPending})

		got, err := svc.SetStatus(context.Background(), admin, ev.ID.Hex(), "approved")
		require.NoError(t, err)
		assert.Equal(t, models.StatusApproved, got.Status)

		got, err = svc.SetStatus(context.Background(), admin, ev.ID.Hex(), "rejected")
		require.NoError(t, err)
		assert.Equal(t, models.StatusRejected, got.Status)
	})

	t.Run("rejects values outside the domain", func(t *testing.T) {
		svc, st, _, _ := newEventService(t, nil)
		ev := st.put(&models.Event{Name: "E", Status: models.StatusPending})

		for _, v := range []string{"cancelled", "pending", "", "APPROVED"} {
			_, err := svc.SetStatus(context.Background(), admin, ev.ID.Hex(), v)
			assert.ErrorIs(t, err, models.ErrValidation, v)
		}
		assert.Equal(t, models.StatusPending, st.get(ev.ID).Status)
	})

	t.Run("admins only", func(t *testing.T) {
		svc, st, _, _ := newEventService(t, nil)
		ev := st.put(&models.Event{Name: "E", Status: models.StatusPending})

		_, err := svc.SetStatus(context.Background(), models.Identity{UserID: ev.OrganizerID.Hex(), Role: models.RoleOrganizer}, ev.ID.Hex(), "approved")
		assert.ErrorIs(t, err, models.ErrForbidden)
		assert.Equal(t, models.StatusPending, st.get(ev.ID).Status)
	})

	t.Run("missing event", func(t *testing.T) {
		svc, _, _, _ := newEventService(t, nil)
		_, err := svc.SetStatus(context.Background(), admin, primitive.NewObjectID().Hex(), "approved")
		assert.ErrorIs(t, err, models.ErrNotFound)

		_, err = svc.SetStatus(context.Background(), admin, "bad", "approved")
		assert.ErrorIs(t, err, models.ErrValidation)
	})

	t.Run("strict policy keeps decisions final", func(t *testing.T) {
		svc, st, _, _ := newEventService(t, StrictPolicy{})
		ev := st.put(&models.Event{Name: "E", Status: models.StatusPending})

		_, err := svc.SetStatus(context.Background(), admin, ev.ID.Hex(), "approved")
		require.NoError(t, err)
		_, err = svc.SetStatus(context.Background(), admin, ev.ID.Hex(), "approved")
		require.NoError(t, err)
		_, err = svc.SetStatus(context.Background(), admin, ev.ID.Hex(), "rejected")
		assert.ErrorIs(t, err, models.ErrConflict)
		assert.Equal(t, models.StatusApproved, st.get(ev.ID).Status)
	})
}

func TestEventService_Delete(t *testing.T) {
	svc, st, md, _ := newEventService(t, nil)
	md.destroyErr = errBoom
	org := primitive.NewObjectID()
	img := models.Media{PublicID: "img"}
	vid := models.Media{PublicID: "vid"}
	ev := st.put(&models.Event{Name: "E", OrganizerID: org, Image: &img, Video: &vid})

	err := svc.Delete(context.Background(), models.Identity{UserID: primitive.NewObjectID().Hex()}, ev.ID.Hex())
	assert.ErrorIs(t, err, models.ErrForbidden)

	err = svc.Delete(context.Background(), models.Identity{UserID: org.Hex()}, ev.ID.Hex())
	require.NoError(t, err, "media cleanup failures are not fatal")
	assert.Nil(t, st.get(ev.ID))
	assert.ElementsMatch(t, []models.Media{img, vid}, md.destroyed)

	err = svc.Delete(context.Background(), models.Identity{UserID: org.Hex()}, ev.ID.Hex())
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestPolicyByName(t *testing.T) {
	p, err := PolicyByName("")
	require.NoError(t, err)
	assert.IsType(t, PermissivePolicy{}, p)

	p, err = PolicyByName("strict")
	require.NoError(t, err)
	assert.IsType(t, StrictPolicy{}, p)

	_, err = PolicyByName("lenient")
	assert.Error(t, err)

	assert.True(t, PermissivePolicy{}.Allowed(models.StatusRejected, models.StatusApproved))
	assert.False(t, PermissivePolicy{}.Allowed(models.StatusApproved, models.StatusPending))
	assert.False(t, StrictPolicy{}.Allowed(models.StatusRejected, models.StatusApproved))
}
