package application

import (
	"time"

	"github.com/pepperumo/bodysharing-website/internal/config"
)

// Status is the review state of an application.
type Status string

const (
	StatusPending   Status = "pending"
	StatusReviewing Status = "reviewing"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
)

// ValidStatuses lists every status an admin may set, in display order.
var ValidStatuses = []Status{StatusPending, StatusReviewing, StatusApproved, StatusRejected}

// Valid reports whether s is one of the four review states.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusReviewing, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// AttendeeType distinguishes single applicants from couples.
type AttendeeType string

const (
	AttendeeSingle AttendeeType = "single"
	AttendeeCouple AttendeeType = "couple"
)

// CheckedIn is the only non-empty check-in state. Check-in is terminal:
// nothing reverts it.
const CheckedIn = "checked_in"

// Application is the persisted record of one person's (or couple's)
// request to join the event.
type Application struct {
	ID                     string       `json:"id"`
	Name                   string       `json:"name"`
	Email                  string       `json:"email"`
	ConsentAcknowledgment  bool         `json:"consentAcknowledgment"`
	DataRetentionAgreement bool         `json:"dataRetentionAgreement"`
	UnderstandingConsent   string       `json:"understandingConsent"`
	AttendeeType           AttendeeType `json:"attendeeType"`
	PartnerAlias           string       `json:"partnerAlias,omitempty"`
	PhotoURL               string       `json:"photoUrl"`
	Status                 Status       `json:"status"`
	RejectionReason        string       `json:"rejectionReason,omitempty"`
	QRCodeURL              string       `json:"qrCodeUrl,omitempty"`
	CheckInStatus          string       `json:"checkInStatus,omitempty"`
	CheckInTime            *time.Time   `json:"checkInTime,omitempty"`
	SubmittedAt            time.Time    `json:"submittedAt"`
	UpdatedAt              time.Time    `json:"updatedAt"`
}

// SubmitResult is returned to the applicant after a successful submission.
type SubmitResult struct {
	ApplicationID string `json:"applicationId"`
	TrackingURL   string `json:"trackingUrl"`
}

// StatusView is the applicant-facing projection of an application.
// EventDetails and QRCodeURL are present only once approved; the
// rejection reason only once rejected.
type StatusView struct {
	ID              string               `json:"id"`
	Status          Status               `json:"status"`
	Name            string               `json:"name"`
	Email           string               `json:"email"`
	AttendeeType    AttendeeType         `json:"attendeeType"`
	SubmittedAt     time.Time            `json:"submittedAt"`
	UpdatedAt       time.Time            `json:"updatedAt"`
	RejectionReason string               `json:"rejectionReason,omitempty"`
	EventDetails    *config.EventDetails `json:"eventDetails,omitempty"`
	QRCodeURL       string               `json:"qrCodeUrl,omitempty"`
}

// CheckInResult reports a scan outcome as data. Scanning runs in a loop
// at the door, so lookup and state failures are messages, not errors.
type CheckInResult struct {
	Success       bool         `json:"success"`
	Message       string       `json:"message"`
	ApplicationID string       `json:"applicationId,omitempty"`
	Name          string       `json:"name,omitempty"`
	Email         string       `json:"email,omitempty"`
	AttendeeType  AttendeeType `json:"attendeeType,omitempty"`
}

// CheckInEvent is published to the queue after a successful check-in so
// the worker can notify the admin asynchronously.
type CheckInEvent struct {
	ApplicationID string    `json:"applicationId"`
	CheckedInAt   time.Time `json:"checkedInAt"`
}
