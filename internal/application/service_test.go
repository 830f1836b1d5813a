package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pepperumo/bodysharing-website/internal/config"
	"github.com/pepperumo/bodysharing-website/internal/mailer"
	"github.com/pepperumo/bodysharing-website/internal/queue"
)

type fakeSender struct {
	mu   sync.Mutex
	sent []mailer.Message
	err  error
}

func (f *fakeSender) Send(_ context.Context, msg mailer.Message) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.sent = append(f.sent, msg)
	return fmt.Sprintf("msg-%d", len(f.sent)), nil
}

func (f *fakeSender) messages() []mailer.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]mailer.Message(nil), f.sent...)
}

type stubEncoder struct {
	err   error
	calls int
}

func (s *stubEncoder) Encode(data string) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return "https://api.qrserver.com/v1/create-qr-code/?size=200x200&data=" + data, nil
}

func testSettings() Settings {
	return Settings{
		BaseURL:    "https://bodysharing-4b51e.web.app",
		FromEmail:  "noreply@bodysharing.com",
		AdminEmail: "admin@bodysharing.com",
		Event: config.EventDetails{
			Date:     "August 15, 2024",
			Time:     "8:00 PM - 11:00 PM",
			Location: "The Secret Garden, 123 Hidden Lane",
		},
	}
}

func newTestService(t *testing.T) (*Service, *MemoryStore, *fakeSender, *stubEncoder, *queue.InMemory) {
	t.Helper()
	store := NewMemoryStore()
	mail := &fakeSender{}
	qr := &stubEncoder{}
	events := queue.NewInMemory(16)
	svc := NewService(store, mail, qr, events, testSettings(), zerolog.Nop())
	return svc, store, mail, qr, events
}

func validRequest() SubmitRequest {
	yes := true
	return SubmitRequest{
		Name:                   "Alex",
		Email:                  "alex@example.com",
		ConsentAcknowledgment:  &yes,
		DataRetentionAgreement: &yes,
		UnderstandingConsent:   "I understand that consent is ongoing",
		AttendeeType:           "single",
		PhotoURL:               "https://cdn.example.com/photo.jpg",
	}
}

func submitOne(t *testing.T, svc *Service) string {
	t.Helper()
	result, err := svc.Submit(context.Background(), validRequest())
	require.NoError(t, err)
	return result.ApplicationID
}

func TestSubmit(t *testing.T) {
	svc, store, mail, _, _ := newTestService(t)

	result, err := svc.Submit(context.Background(), validRequest())
	require.NoError(t, err)
	assert.NotEmpty(t, result.ApplicationID)
	assert.Contains(t, result.TrackingURL, result.ApplicationID)
	assert.Contains(t, result.TrackingURL, "/#/eventapplication/")

	saved, err := store.Get(context.Background(), result.ApplicationID)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, saved.Status)
	assert.Empty(t, saved.QRCodeURL)
	assert.False(t, saved.SubmittedAt.IsZero())

	msgs := mail.messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "alex@example.com", msgs[0].To)
	assert.Equal(t, "admin@bodysharing.com", msgs[1].To)
	assert.Contains(t, msgs[1].Subject, "New Event Application")
}

func TestSubmitValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(r *SubmitRequest)
		missing []string
	}{
		{
			name:    "empty name and email",
			mutate:  func(r *SubmitRequest) { r.Name = ""; r.Email = "" },
			missing: []string{"name", "email"},
		},
		{
			name:    "absent consent booleans",
			mutate:  func(r *SubmitRequest) { r.ConsentAcknowledgment = nil; r.DataRetentionAgreement = nil },
			missing: []string{"consentAcknowledgment", "dataRetentionAgreement"},
		},
		{
			name:    "invalid attendee type",
			mutate:  func(r *SubmitRequest) { r.AttendeeType = "group" },
			missing: []string{"attendeeType"},
		},
		{
			name:    "couple without partner alias",
			mutate:  func(r *SubmitRequest) { r.AttendeeType = "couple" },
			missing: []string{"partnerAlias"},
		},
		{
			name:    "no photo",
			mutate:  func(r *SubmitRequest) { r.PhotoURL = "" },
			missing: []string{"photo"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, mail, _, _ := newTestService(t)
			req := validRequest()
			tt.mutate(&req)

			_, err := svc.Submit(context.Background(), req)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.ElementsMatch(t, tt.missing, verr.Missing)
			assert.Empty(t, mail.messages(), "rejected submissions must not send mail")
		})
	}
}

func TestSubmitExplicitFalseConsentIsAccepted(t *testing.T) {
	svc, _, _, _, _ := newTestService(t)
	req := validRequest()
	no := false
	req.ConsentAcknowledgment = &no

	_, err := svc.Submit(context.Background(), req)
	require.NoError(t, err, "an explicit false answer is valid input")
}

func TestSubmitMailFailureDoesNotBlock(t *testing.T) {
	svc, store, mail, _, _ := newTestService(t)
	mail.err = errors.New("smtp down")

	result, err := svc.Submit(context.Background(), validRequest())
	require.NoError(t, err)

	_, err = store.Get(context.Background(), result.ApplicationID)
	assert.NoError(t, err, "record persists even when notifications fail")
}

func TestUpdateStatusApprove(t *testing.T) {
	svc, _, mail, qr, _ := newTestService(t)
	id := submitOne(t, svc)

	updated, err := svc.UpdateStatus(context.Background(), id, StatusApproved, "")
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, updated.Status)
	assert.Contains(t, updated.QRCodeURL, id)
	assert.Equal(t, 1, qr.calls)

	msgs := mail.messages()
	last := msgs[len(msgs)-1]
	assert.Equal(t, "alex@example.com", last.To)
	assert.Contains(t, last.Subject, "Approved")
	assert.Contains(t, last.HTML, "The Secret Garden, 123 Hidden Lane")
}

func TestUpdateStatusApproveKeepsExistingQRCode(t *testing.T) {
	svc, _, _, qr, _ := newTestService(t)
	id := submitOne(t, svc)

	first, err := svc.UpdateStatus(context.Background(), id, StatusApproved, "")
	require.NoError(t, err)

	// Bounce through rejected and back; the code must survive.
	_, err = svc.UpdateStatus(context.Background(), id, StatusRejected, "second thoughts")
	require.NoError(t, err)
	second, err := svc.UpdateStatus(context.Background(), id, StatusApproved, "")
	require.NoError(t, err)

	assert.Equal(t, first.QRCodeURL, second.QRCodeURL)
	assert.Equal(t, 1, qr.calls)
}

func TestUpdateStatusReject(t *testing.T) {
	svc, _, mail, _, _ := newTestService(t)
	id := submitOne(t, svc)

	_, err := svc.UpdateStatus(context.Background(), id, StatusRejected, "")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)

	updated, err := svc.UpdateStatus(context.Background(), id, StatusRejected, "incomplete references")
	require.NoError(t, err)
	assert.Equal(t, "incomplete references", updated.RejectionReason)
	assert.Empty(t, updated.QRCodeURL)

	msgs := mail.messages()
	last := msgs[len(msgs)-1]
	assert.Contains(t, last.HTML, "incomplete references")
}

func TestUpdateStatusInvalidTarget(t *testing.T) {
	svc, _, _, _, _ := newTestService(t)
	id := submitOne(t, svc)

	_, err := svc.UpdateStatus(context.Background(), id, Status("archived"), "")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestUpdateStatusUnknownID(t *testing.T) {
	svc, _, _, _, _ := newTestService(t)

	_, err := svc.UpdateStatus(context.Background(), "nope", StatusReviewing, "")
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
}

func TestUpdateStatusPendingSendsNoMail(t *testing.T) {
	svc, _, mail, _, _ := newTestService(t)
	id := submitOne(t, svc)
	before := len(mail.messages())

	_, err := svc.UpdateStatus(context.Background(), id, StatusPending, "")
	require.NoError(t, err)
	assert.Len(t, mail.messages(), before)
}

func TestUpdateStatusQRFailureIsNonFatal(t *testing.T) {
	svc, _, _, qr, _ := newTestService(t)
	id := submitOne(t, svc)
	qr.err = errors.New("image service down")

	updated, err := svc.UpdateStatus(context.Background(), id, StatusApproved, "")
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, updated.Status)
	assert.Empty(t, updated.QRCodeURL)
}

func TestCheckIn(t *testing.T) {
	svc, store, _, _, events := newTestService(t)
	id := submitOne(t, svc)
	_, err := svc.UpdateStatus(context.Background(), id, StatusApproved, "")
	require.NoError(t, err)

	result := svc.CheckIn(context.Background(), id)
	require.True(t, result.Success)
	assert.Equal(t, "Check-in successful", result.Message)
	assert.Equal(t, id, result.ApplicationID)
	assert.Equal(t, "Alex", result.Name)
	assert.Equal(t, AttendeeSingle, result.AttendeeType)

	saved, err := store.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, CheckedIn, saved.CheckInStatus)
	require.NotNil(t, saved.CheckInTime)

	msgs, err := events.Consume(context.Background())
	require.NoError(t, err)
	msg := <-msgs
	assert.Equal(t, "checkin", msg.Type)
	var evt CheckInEvent
	require.NoError(t, queue.DecodeJSON(msg.Body, &evt))
	assert.Equal(t, id, evt.ApplicationID)
}

func TestCheckInIsTerminal(t *testing.T) {
	svc, store, _, _, _ := newTestService(t)
	id := submitOne(t, svc)
	_, err := svc.UpdateStatus(context.Background(), id, StatusApproved, "")
	require.NoError(t, err)

	first := svc.CheckIn(context.Background(), id)
	require.True(t, first.Success)
	before, err := store.Get(context.Background(), id)
	require.NoError(t, err)

	second := svc.CheckIn(context.Background(), id)
	assert.False(t, second.Success)
	assert.Contains(t, second.Message, "already checked in at")
	assert.Contains(t, second.Message, before.CheckInTime.Format("3:04:05 PM"))

	after, err := store.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, before.CheckInTime, after.CheckInTime, "repeat scans never move the timestamp")
}

func TestCheckInRejectsNonApproved(t *testing.T) {
	tests := []struct {
		status Status
	}{
		{StatusPending},
		{StatusReviewing},
		{StatusRejected},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			svc, _, _, _, _ := newTestService(t)
			id := submitOne(t, svc)
			if tt.status != StatusPending {
				reason := ""
				if tt.status == StatusRejected {
					reason = "no"
				}
				_, err := svc.UpdateStatus(context.Background(), id, tt.status, reason)
				require.NoError(t, err)
			}

			result := svc.CheckIn(context.Background(), id)
			assert.False(t, result.Success)
			assert.Equal(t,
				fmt.Sprintf("This application has not been approved. Current status: %s", tt.status),
				result.Message)
		})
	}
}

func TestCheckInUnknownCode(t *testing.T) {
	svc, _, _, _, _ := newTestService(t)

	result := svc.CheckIn(context.Background(), "bogus")
	assert.False(t, result.Success)
	assert.Equal(t, "QR code is invalid or application not found", result.Message)
}

func TestGetPending(t *testing.T) {
	svc, _, _, qr, _ := newTestService(t)
	id := submitOne(t, svc)

	view, err := svc.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, view.Status)
	assert.Empty(t, view.QRCodeURL)
	assert.Nil(t, view.EventDetails)
	assert.Empty(t, view.RejectionReason)
	assert.Equal(t, 0, qr.calls)
}

func TestGetApprovedAssignsQRCodeLazily(t *testing.T) {
	svc, store, _, qr, _ := newTestService(t)
	id := submitOne(t, svc)

	// Approve with a broken encoder so the record lands without a code.
	qr.err = errors.New("down")
	_, err := svc.UpdateStatus(context.Background(), id, StatusApproved, "")
	require.NoError(t, err)
	qr.err = nil

	view, err := svc.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Contains(t, view.QRCodeURL, id)
	require.NotNil(t, view.EventDetails)
	assert.Equal(t, "August 15, 2024", view.EventDetails.Date)

	saved, err := store.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, view.QRCodeURL, saved.QRCodeURL, "lazy assignment persists")

	again, err := svc.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, view.QRCodeURL, again.QRCodeURL)
}

func TestGetRejectedIncludesReason(t *testing.T) {
	svc, _, _, _, _ := newTestService(t)
	id := submitOne(t, svc)
	_, err := svc.UpdateStatus(context.Background(), id, StatusRejected, "not this time")
	require.NoError(t, err)

	view, err := svc.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "not this time", view.RejectionReason)
	assert.Nil(t, view.EventDetails)
	assert.Empty(t, view.QRCodeURL)
}

func TestGetUnknownID(t *testing.T) {
	svc, _, _, _, _ := newTestService(t)

	_, err := svc.Get(context.Background(), "missing")
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
}

func TestListNewestFirst(t *testing.T) {
	svc, _, _, _, _ := newTestService(t)
	ids := make([]string, 3)
	for i := range ids {
		ids[i] = submitOne(t, svc)
	}

	apps, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, apps, 3)
	for i := 1; i < len(apps); i++ {
		assert.False(t, apps[i].SubmittedAt.After(apps[i-1].SubmittedAt))
	}
}

func TestListEmpty(t *testing.T) {
	svc, _, _, _, _ := newTestService(t)

	apps, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, apps)
	assert.Empty(t, apps)
}
