package application

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

const applicationColumns = `id, name, email, consent_acknowledgment, data_retention_agreement,
	understanding_consent, attendee_type, partner_alias, photo_url, status,
	rejection_reason, qr_code_url, check_in_status, check_in_time, submitted_at, updated_at`

// Repository persists applications in Postgres. Each write touches a
// single row, which is the only atomicity this service relies on.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Insert writes a new application. The id is assigned here; timestamps
// come from the database server.
func (r *Repository) Insert(ctx context.Context, app Application) (Application, error) {
	if app.ID == "" {
		app.ID = uuid.NewString()
	}
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO applications (id, name, email, consent_acknowledgment, data_retention_agreement,
			understanding_consent, attendee_type, partner_alias, photo_url, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		RETURNING submitted_at, updated_at
	`, app.ID, app.Name, app.Email, app.ConsentAcknowledgment, app.DataRetentionAgreement,
		app.UnderstandingConsent, app.AttendeeType, nullString(app.PartnerAlias), app.PhotoURL, app.Status)
	if err := row.Scan(&app.SubmittedAt, &app.UpdatedAt); err != nil {
		return Application{}, err
	}
	return app, nil
}

// Get returns a single application by id.
func (r *Repository) Get(ctx context.Context, id string) (Application, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+applicationColumns+`
		FROM applications WHERE id = $1
	`, id)
	app, err := scanApplication(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Application{}, &NotFoundError{ID: id}
		}
		return Application{}, err
	}
	return app, nil
}

// StatusUpdate is a partial update applied by the transition operator.
// Nil fields keep their stored value.
type StatusUpdate struct {
	Status          Status
	RejectionReason *string
	QRCodeURL       *string
}

// UpdateStatus applies a transition in one statement and returns the
// updated record.
func (r *Repository) UpdateStatus(ctx context.Context, id string, upd StatusUpdate) (Application, error) {
	row := r.db.QueryRowContext(ctx, `
		UPDATE applications
		SET status = $2,
			rejection_reason = COALESCE($3, rejection_reason),
			qr_code_url = COALESCE($4, qr_code_url),
			updated_at = NOW()
		WHERE id = $1
		RETURNING `+applicationColumns+`
	`, id, upd.Status, upd.RejectionReason, upd.QRCodeURL)
	app, err := scanApplication(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Application{}, &NotFoundError{ID: id}
		}
		return Application{}, err
	}
	return app, nil
}

// SetQRCode assigns a QR code URL only when none is stored yet.
func (r *Repository) SetQRCode(ctx context.Context, id, url string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE applications
		SET qr_code_url = $2, updated_at = NOW()
		WHERE id = $1 AND qr_code_url IS NULL
	`, id, url)
	return err
}

// MarkCheckedIn records the terminal check-in state. The guard keeps a
// racing second scan from overwriting the first check-in time.
func (r *Repository) MarkCheckedIn(ctx context.Context, id string, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE applications
		SET check_in_status = $2, check_in_time = $3, updated_at = NOW()
		WHERE id = $1 AND check_in_status IS NULL
	`, id, CheckedIn, at)
	return err
}

// List returns all applications, newest submission first.
func (r *Repository) List(ctx context.Context) ([]Application, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+applicationColumns+`
		FROM applications
		ORDER BY submitted_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	apps := make([]Application, 0)
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		apps = append(apps, app)
	}
	return apps, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanApplication(row rowScanner) (Application, error) {
	var (
		app             Application
		partnerAlias    sql.NullString
		rejectionReason sql.NullString
		qrCodeURL       sql.NullString
		checkInStatus   sql.NullString
		checkInTime     sql.NullTime
	)
	err := row.Scan(&app.ID, &app.Name, &app.Email, &app.ConsentAcknowledgment, &app.DataRetentionAgreement,
		&app.UnderstandingConsent, &app.AttendeeType, &partnerAlias, &app.PhotoURL, &app.Status,
		&rejectionReason, &qrCodeURL, &checkInStatus, &checkInTime, &app.SubmittedAt, &app.UpdatedAt)
	if err != nil {
		return Application{}, err
	}
	app.PartnerAlias = partnerAlias.String
	app.RejectionReason = rejectionReason.String
	app.QRCodeURL = qrCodeURL.String
	app.CheckInStatus = checkInStatus.String
	if checkInTime.Valid {
		t := checkInTime.Time
		app.CheckInTime = &t
	}
	return app, nil
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
