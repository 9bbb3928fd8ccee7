package services

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	mailer "github.com/phillip/event-easy-go/mailer"
	models "github.com/phillip/event-easy-go/models"
)

// EventIDPlaceholder is substituted with the event id in payment redirect templates.
const EventIDPlaceholder = "{eventId}"

type PaymentSettings struct {
	Currency string
	// ReturnURL and CallbackURL are templates containing EventIDPlaceholder; tx_ref is
	// appended as a query parameter.
	ReturnURL   string
	CallbackURL string
}

// AttendanceService registers users on event rosters, optionally gated by a payment that is
// verified with the provider.
type AttendanceService struct {
	events   EventStore
	gateway  PaymentGateway
	identity IdentityResolver
	notifier mailer.Sender
	settings PaymentSettings
	now      func() time.Time
	log      *slog.Logger
}

func NewAttendanceService(events EventStore, gateway PaymentGateway, identity IdentityResolver, notifier mailer.Sender, settings PaymentSettings, log *slog.Logger) *AttendanceService {
	if settings.Currency == "" {
		settings.Currency = "ETB"
	}
	return &AttendanceService{
		events:   events,
		gateway:  gateway,
		identity: identity,
		notifier: notifier,
		settings: settings,
		now:      time.Now,
		log:      log,
	}
}

func txRefPrefix(eventID string) string { return "event-" + eventID + "-" }

// InitiatePayment opens a hosted checkout for the event and returns its URL. The event store
// is not touched; registration only happens on verification.
func (s *AttendanceService) InitiatePayment(ctx context.Context, eventID string, payer models.Payer, amount float64) (models.CheckoutSession, error) {
	log := s.log.With(slog.String("op", "services.AttendanceService.InitiatePayment"), slog.String("event_id", eventID))

	oid, err := primitive.ObjectIDFromHex(eventID)
	if err != nil {
		return models.CheckoutSession{}, models.InvalidID("event", eventID)
	}
	if amount <= 0 {
		return models.CheckoutSession{}, fmt.Errorf("amount must be greater than 0: %w", models.ErrValidation)
	}
	if strings.TrimSpace(payer.Email) == "" {
		return models.CheckoutSession{}, fmt.Errorf("email is required: %w", models.ErrValidation)
	}
	ev, err := s.events.FindByID(ctx, oid)
	if err != nil {
		return models.CheckoutSession{}, err
	}
	if ev.Status != models.StatusApproved {
		return models.CheckoutSession{}, fmt.Errorf("event is not open for registration: %w", models.ErrValidation)
	}

	txRef := txRefPrefix(eventID) + strconv.FormatInt(s.now().UnixMilli(), 10)
	returnURL, err := redirectURL(s.settings.ReturnURL, eventID, txRef)
	if err != nil {
		return models.CheckoutSession{}, err
	}
	callbackURL, err := redirectURL(s.settings.CallbackURL, eventID, txRef)
	if err != nil {
		return models.CheckoutSession{}, err
	}

	sess, err := s.gateway.CreateCheckout(ctx, models.CheckoutRequest{
		TxRef:       txRef,
		Amount:      amount,
		Currency:    s.settings.Currency,
		Payer:       payer,
		ReturnURL:   returnURL,
		CallbackURL: callbackURL,
	})
	if err != nil {
		log.Error("checkout initialization failed", slog.String("tx_ref", txRef), slog.Any("error", err))
		return models.CheckoutSession{}, err
	}
	log.Info("checkout initialized", slog.String("tx_ref", txRef))
	return sess, nil
}

// VerifyAndRegister re-queries the provider for txRef and, on success, adds the caller to the
// roster. The acting user always comes from the credential. Repeating a successful call is a
// no-op on the roster.
func (s *AttendanceService) VerifyAndRegister(ctx context.Context, eventID, txRef, credential string, payer models.Payer) (*models.Event, error) {
	log := s.log.With(slog.String("op", "services.AttendanceService.VerifyAndRegister"), slog.String("event_id", eventID))

	userID, err := s.resolve(credential)
	if err != nil {
		return nil, err
	}
	oid, err := primitive.ObjectIDFromHex(eventID)
	if err != nil {
		return nil, models.InvalidID("event", eventID)
	}
	if txRef == "" {
		return nil, fmt.Errorf("tx_ref is required: %w", models.ErrValidation)
	}
	if !strings.HasPrefix(txRef, txRefPrefix(eventID)) {
		return nil, fmt.Errorf("tx_ref was not issued for this event: %w", models.ErrValidation)
	}

	status, err := s.gateway.TransactionStatus(ctx, txRef)
	if err != nil {
		log.Error("payment verification failed", slog.String("tx_ref", txRef), slog.Any("error", err))
		return nil, err
	}
	if status != models.PaymentSuccess {
		log.Info("payment not completed", slog.String("tx_ref", txRef), slog.String("status", string(status)))
		return nil, fmt.Errorf("payment not successful: %w", models.ErrPaymentNotCompleted)
	}

	ev, added, err := s.ensureMember(ctx, oid, models.Attendee{
		UserID:    userID,
		FirstName: payer.FirstName,
		LastName:  payer.LastName,
		Email:     payer.Email,
	})
	if err != nil {
		return nil, err
	}
	if added {
		log.Info("attendee registered", slog.String("user_id", userID.Hex()), slog.String("tx_ref", txRef))
		s.notify(ctx, ev, payer)
	}
	return ev, nil
}

// AttendDirect registers the caller without payment. A second attempt is reported as a
// conflict rather than silently accepted.
func (s *AttendanceService) AttendDirect(ctx context.Context, eventID, credential string) (*models.Event, error) {
	userID, err := s.resolve(credential)
	if err != nil {
		return nil, err
	}
	oid, err := primitive.ObjectIDFromHex(eventID)
	if err != nil {
		return nil, models.InvalidID("event", eventID)
	}
	current, err := s.events.FindByID(ctx, oid)
	if err != nil {
		return nil, err
	}
	if current.Status != models.StatusApproved {
		return nil, fmt.Errorf("event is not open for registration: %w", models.ErrValidation)
	}
	if current.HasAttendee(userID) {
		return nil, fmt.Errorf("user already registered: %w", models.ErrConflict)
	}

	// the read above may be stale; ensureMember still decides membership atomically
	ev, added, err := s.ensureMember(ctx, oid, models.Attendee{UserID: userID})
	if err != nil {
		return nil, err
	}
	if !added {
		return nil, fmt.Errorf("user already registered: %w", models.ErrConflict)
	}
	s.log.Info("attendee registered",
		slog.String("op", "services.AttendanceService.AttendDirect"),
		slog.String("event_id", eventID),
		slog.String("user_id", userID.Hex()),
	)
	return ev, nil
}

// LeaveEvent removes the caller from the roster. Leaving an event one never joined succeeds.
func (s *AttendanceService) LeaveEvent(ctx context.Context, eventID, credential string) (*models.Event, error) {
	userID, err := s.resolve(credential)
	if err != nil {
		return nil, err
	}
	oid, err := primitive.ObjectIDFromHex(eventID)
	if err != nil {
		return nil, models.InvalidID("event", eventID)
	}
	return s.events.RemoveAttendee(ctx, oid, userID)
}

// ensureMember is the only path that adds to a roster. The store performs the membership
// test and the insert as one atomic operation.
func (s *AttendanceService) ensureMember(ctx context.Context, eventID primitive.ObjectID, a models.Attendee) (*models.Event, bool, error) {
	if a.JoinedAt.IsZero() {
		a.JoinedAt = s.now()
	}
	return s.events.AddAttendee(ctx, eventID, a)
}

func (s *AttendanceService) resolve(credential string) (primitive.ObjectID, error) {
	if credential == "" {
		return primitive.NilObjectID, fmt.Errorf("no token provided: %w", models.ErrUnauthorized)
	}
	id, err := s.identity.Resolve(credential)
	if err != nil {
		return primitive.NilObjectID, err
	}
	oid, err := id.ObjectID()
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("invalid user id in token: %w", models.ErrUnauthorized)
	}
	return oid, nil
}

// notify sends the confirmation email. Failures are logged and never surface to the caller.
func (s *AttendanceService) notify(ctx context.Context, ev *models.Event, payer models.Payer) {
	if s.notifier == nil || payer.Email == "" {
		return
	}
	name := strings.TrimSpace(payer.FirstName + " " + payer.LastName)
	if name == "" {
		name = "there"
	}
	subject := "You're registered for " + ev.Name
	body := fmt.Sprintf("<p>Hello %s,</p><p>Your payment was received and you are registered for <strong>%s</strong> on %s.</p><p>Event Easy Team</p>",
		html.EscapeString(name),
		html.EscapeString(ev.Name),
		ev.ScheduledTime.Format("Mon, 02 Jan 2006 15:04 MST"),
	)

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 15*time.Second)
	defer cancel()
	if err := s.notifier.Send(ctx, payer.Email, subject, body); err != nil {
		s.log.Warn("confirmation email failed", slog.String("event_id", ev.ID.Hex()), slog.Any("error", err))
	}
}

func redirectURL(tmpl, eventID, txRef string) (string, error) {
	u, err := url.Parse(strings.ReplaceAll(tmpl, EventIDPlaceholder, url.PathEscape(eventID)))
	if err != nil {
		return "", fmt.Errorf("invalid payment redirect url: %w", err)
	}
	q := u.Query()
	q.Set("tx_ref", txRef)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
