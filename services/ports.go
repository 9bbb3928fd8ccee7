package services

import (
	"context"
	"io"

	"go.mongodb.org/mongo-driver/bson/primitive"

	media "github.com/phillip/event-easy-go/media"
	models "github.com/phillip/event-easy-go/models"
)

// EventStore is the persistence port for events. Implementations must apply every mutation
// as a single atomic per-document operation.
type EventStore interface {
	Insert(ctx context.Context, ev *models.Event) error
	Find(ctx context.Context, f models.EventFilter) ([]models.Event, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Event, error)
	Update(ctx context.Context, id primitive.ObjectID, u models.EventUpdate) (*models.Event, error)
	SetStatus(ctx context.Context, id primitive.ObjectID, from, to models.EventStatus) (*models.Event, error)
	AddAttendee(ctx context.Context, id primitive.ObjectID, a models.Attendee) (ev *models.Event, added bool, err error)
	RemoveAttendee(ctx context.Context, id, userID primitive.ObjectID) (*models.Event, error)
	Delete(ctx context.Context, id primitive.ObjectID) (*models.Event, error)
}

type UserDirectory interface {
	Summaries(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.UserSummary, error)
}

type MediaStore interface {
	Upload(ctx context.Context, kind media.Kind, filename string, file io.Reader) (models.Media, error)
	Destroy(ctx context.Context, kind media.Kind, m models.Media) error
}

type PaymentGateway interface {
	CreateCheckout(ctx context.Context, req models.CheckoutRequest) (models.CheckoutSession, error)
	TransactionStatus(ctx context.Context, txRef string) (models.PaymentStatus, error)
}

type IdentityResolver interface {
	Resolve(credential string) (models.Identity, error)
}

// Upload is a media file supplied with a create or update request.
type Upload struct {
	Filename string
	File     io.Reader
}
