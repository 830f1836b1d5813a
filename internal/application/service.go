package application

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/pepperumo/bodysharing-website/internal/config"
	"github.com/pepperumo/bodysharing-website/internal/mailer"
	"github.com/pepperumo/bodysharing-website/internal/queue"
)

// Store is the record store the workflow engine runs against. The
// Postgres Repository implements it in production; MemoryStore covers
// tests.
type Store interface {
	Insert(ctx context.Context, app Application) (Application, error)
	Get(ctx context.Context, id string) (Application, error)
	UpdateStatus(ctx context.Context, id string, upd StatusUpdate) (Application, error)
	SetQRCode(ctx context.Context, id, url string) error
	MarkCheckedIn(ctx context.Context, id string, at time.Time) error
	List(ctx context.Context) ([]Application, error)
}

// Settings carries the addresses and event data the engine needs.
// Injected at construction so nothing here is a package-level constant.
type Settings struct {
	BaseURL    string
	FromEmail  string
	AdminEmail string
	Event      config.EventDetails
}

// Service is the application workflow engine. It owns the lifecycle of
// an application: submission validation, status transitions and their
// side effects, and check-in.
type Service struct {
	store    Store
	mail     mailer.Sender
	qr       QREncoder
	events   queue.Queue
	settings Settings
	log      zerolog.Logger
	validate *validator.Validate
}

// QREncoder is the QR collaborator as consumed here; qrcode.Encoder
// satisfies it.
type QREncoder interface {
	Encode(data string) (string, error)
}

// NewService wires the engine. events may be nil when no queue backend
// is configured; check-in fan-out is then skipped.
func NewService(store Store, mail mailer.Sender, qr QREncoder, events queue.Queue, settings Settings, log zerolog.Logger) *Service {
	return &Service{
		store:    store,
		mail:     mail,
		qr:       qr,
		events:   events,
		settings: settings,
		log:      log,
		validate: newValidator(),
	}
}

// TrackingURL returns the applicant-facing link for an application id.
func (s *Service) TrackingURL(id string) string {
	return s.settings.BaseURL + "/#/eventapplication/" + id
}

// Submit validates a candidate application, persists it with status
// pending, and sends the confirmation and admin-alert emails. The
// record counts as submitted once persisted; mail failures are logged
// and do not surface to the caller.
func (s *Service) Submit(ctx context.Context, req SubmitRequest) (SubmitResult, error) {
	if verr := validateSubmission(s.validate, req, req.PhotoURL != ""); verr != nil {
		return SubmitResult{}, verr
	}

	app := Application{
		Name:                   req.Name,
		Email:                  req.Email,
		ConsentAcknowledgment:  *req.ConsentAcknowledgment,
		DataRetentionAgreement: *req.DataRetentionAgreement,
		UnderstandingConsent:   req.UnderstandingConsent,
		AttendeeType:           AttendeeType(req.AttendeeType),
		PartnerAlias:           req.PartnerAlias,
		PhotoURL:               req.PhotoURL,
		Status:                 StatusPending,
	}

	saved, err := s.store.Insert(ctx, app)
	if err != nil {
		return SubmitResult{}, &DependencyError{Op: "persist application", Err: err}
	}

	trackingURL := s.TrackingURL(saved.ID)
	s.log.Info().Str("application_id", saved.ID).Str("email", saved.Email).Msg("application submitted")

	subject, html := mailer.SubmissionReceived(saved.Name, trackingURL)
	s.send(ctx, saved.Email, subject, html)

	subject, html = mailer.SubmissionAdminAlert(saved.Name, saved.Email, string(saved.AttendeeType),
		saved.PartnerAlias, saved.UnderstandingConsent, s.settings.BaseURL+"/#/admin")
	s.send(ctx, s.settings.AdminEmail, subject, html)

	return SubmitResult{ApplicationID: saved.ID, TrackingURL: trackingURL}, nil
}

// UpdateStatus moves an application to the target status and applies
// the transition's side effects: QR issuance on approval and the status
// email. Transitions are accepted from any current status; only the
// target is constrained.
func (s *Service) UpdateStatus(ctx context.Context, id string, target Status, rejectionReason string) (Application, error) {
	if !target.Valid() {
		return Application{}, &ValidationError{Msg: fmt.Sprintf("invalid status %q", target)}
	}
	if target == StatusRejected && rejectionReason == "" {
		return Application{}, &ValidationError{Msg: "rejection reason is required when status is set to rejected"}
	}

	current, err := s.store.Get(ctx, id)
	if err != nil {
		return Application{}, err
	}

	upd := StatusUpdate{Status: target}
	if target == StatusRejected {
		upd.RejectionReason = &rejectionReason
	}
	if target == StatusApproved && current.QRCodeURL == "" {
		if url, qerr := s.qr.Encode(id); qerr != nil {
			// QR failure never blocks the transition itself.
			s.log.Error().Err(qerr).Str("application_id", id).Msg("qr code generation failed")
		} else {
			upd.QRCodeURL = &url
		}
	}

	updated, err := s.store.UpdateStatus(ctx, id, upd)
	if err != nil {
		return Application{}, err
	}

	s.log.Info().
		Str("application_id", id).
		Str("old_status", string(current.Status)).
		Str("new_status", string(target)).
		Msg("application status updated")

	s.sendStatusEmail(ctx, updated)
	return updated, nil
}

func (s *Service) sendStatusEmail(ctx context.Context, app Application) {
	var subject, html string
	switch app.Status {
	case StatusApproved:
		subject, html = mailer.StatusApproved(app.Name, s.TrackingURL(app.ID), s.settings.Event)
	case StatusRejected:
		subject, html = mailer.StatusRejected(app.Name, app.RejectionReason)
	case StatusReviewing:
		subject, html = mailer.StatusReviewing(app.Name, s.TrackingURL(app.ID))
	default:
		return
	}
	s.send(ctx, app.Email, subject, html)
}

// CheckIn marks an approved application as present. Failures come back
// as data rather than errors because scanning runs unattended in a
// loop; only the happy path mutates state, exactly once.
func (s *Service) CheckIn(ctx context.Context, code string) CheckInResult {
	app, err := s.store.Get(ctx, code)
	if err != nil {
		if _, ok := err.(*NotFoundError); ok {
			return CheckInResult{Success: false, Message: "QR code is invalid or application not found"}
		}
		s.log.Error().Err(err).Str("qr_code", code).Msg("check-in lookup failed")
		return CheckInResult{Success: false, Message: "Failed to process QR code scan"}
	}

	if app.Status != StatusApproved {
		return CheckInResult{
			Success: false,
			Message: fmt.Sprintf("This application has not been approved. Current status: %s", app.Status),
		}
	}

	if app.CheckInStatus == CheckedIn && app.CheckInTime != nil {
		return CheckInResult{
			Success: false,
			Message: fmt.Sprintf("This attendee has already checked in at %s", app.CheckInTime.Format("3:04:05 PM")),
		}
	}

	now := time.Now().UTC()
	if err := s.store.MarkCheckedIn(ctx, app.ID, now); err != nil {
		s.log.Error().Err(err).Str("application_id", app.ID).Msg("check-in write failed")
		return CheckInResult{Success: false, Message: "Failed to process QR code scan"}
	}

	s.log.Info().Str("application_id", app.ID).Str("name", app.Name).Msg("attendee checked in")
	s.publishCheckIn(ctx, app.ID, now)

	return CheckInResult{
		Success:       true,
		Message:       "Check-in successful",
		ApplicationID: app.ID,
		Name:          app.Name,
		Email:         app.Email,
		AttendeeType:  app.AttendeeType,
	}
}

func (s *Service) publishCheckIn(ctx context.Context, id string, at time.Time) {
	if s.events == nil {
		return
	}
	body, err := queue.EncodeJSON(CheckInEvent{ApplicationID: id, CheckedInAt: at})
	if err != nil {
		s.log.Error().Err(err).Str("application_id", id).Msg("check-in event encode failed")
		return
	}
	if err := s.events.Publish(ctx, queue.Message{Type: "checkin", Body: body}); err != nil {
		s.log.Error().Err(err).Str("application_id", id).Msg("check-in event publish failed")
	}
}

// Get returns the applicant-facing projection, lazily assigning a QR
// code when the application is approved but has none yet.
func (s *Service) Get(ctx context.Context, id string) (StatusView, error) {
	app, err := s.store.Get(ctx, id)
	if err != nil {
		return StatusView{}, err
	}

	view := StatusView{
		ID:           app.ID,
		Status:       app.Status,
		Name:         app.Name,
		Email:        app.Email,
		AttendeeType: app.AttendeeType,
		SubmittedAt:  app.SubmittedAt,
		UpdatedAt:    app.UpdatedAt,
	}

	if app.Status == StatusRejected && app.RejectionReason != "" {
		view.RejectionReason = app.RejectionReason
	}

	if app.Status == StatusApproved {
		event := s.settings.Event
		view.EventDetails = &event
		view.QRCodeURL = s.ensureQRCode(ctx, &app)
	}

	return view, nil
}

// ensureQRCode is the shared idempotent assignment used by both the
// transition operator and the read path: assign only when unset, and
// never let a failure break the caller.
func (s *Service) ensureQRCode(ctx context.Context, app *Application) string {
	if app.QRCodeURL != "" {
		return app.QRCodeURL
	}
	url, err := s.qr.Encode(app.ID)
	if err != nil {
		s.log.Error().Err(err).Str("application_id", app.ID).Msg("qr code generation failed")
		return ""
	}
	if err := s.store.SetQRCode(ctx, app.ID, url); err != nil {
		s.log.Error().Err(err).Str("application_id", app.ID).Msg("qr code persist failed")
		return ""
	}
	app.QRCodeURL = url
	return url
}

// List returns every application, newest submission first.
func (s *Service) List(ctx context.Context) ([]Application, error) {
	apps, err := s.store.List(ctx)
	if err != nil {
		return nil, &DependencyError{Op: "list applications", Err: err}
	}
	return apps, nil
}

func (s *Service) send(ctx context.Context, to, subject, html string) {
	id, err := s.mail.Send(ctx, mailer.Message{
		To:      to,
		From:    s.settings.FromEmail,
		Subject: subject,
		HTML:    html,
	})
	if err != nil {
		s.log.Warn().Err(err).Str("to", to).Str("subject", subject).Msg("notification email failed")
		return
	}
	s.log.Info().Str("to", to).Str("message_id", id).Msg("notification email sent")
}
