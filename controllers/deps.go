package controllers

import (
	"context"
	"log/slog"

	models "github.com/phillip/event-easy-go/models"
	services "github.com/phillip/event-easy-go/services"
)

type EventManager interface {
	Create(ctx context.Context, actor models.Identity, in services.CreateEventInput, image, video *services.Upload) (*models.Event, error)
	List(ctx context.Context, nameQuery string) ([]models.EventView, error)
	ListByOrganizer(ctx context.Context, organizerID string) ([]models.EventView, error)
	GetByID(ctx context.Context, id string) (*models.EventView, error)
	Update(ctx context.Context, actor models.Identity, id string, fields models.EventFields, image, video *services.Upload) (*models.Event, error)
	SetStatus(ctx context.Context, actor models.Identity, id, status string) (*models.Event, error)
	Delete(ctx context.Context, actor models.Identity, id string) error
}

type AttendanceManager interface {
	InitiatePayment(ctx context.Context, eventID string, payer models.Payer, amount float64) (models.CheckoutSession, error)
	VerifyAndRegister(ctx context.Context, eventID, txRef, credential string, payer models.Payer) (*models.Event, error)
	AttendDirect(ctx context.Context, eventID, credential string) (*models.Event, error)
	LeaveEvent(ctx context.Context, eventID, credential string) (*models.Event, error)
}

// Deps is everything the handlers need. Ping backs the health check and may be nil.
type Deps struct {
	Events     EventManager
	Attendance AttendanceManager
	Ping       func(ctx context.Context) error
	Log        *slog.Logger
}
