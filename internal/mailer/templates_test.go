package mailer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pepperumo/bodysharing-website/internal/config"
)

func TestSubmissionReceived(t *testing.T) {
	subject, html := SubmissionReceived("Alex", "https://example.com/#/eventapplication/abc")

	assert.Equal(t, "Your BodySharing Event Application", subject)
	assert.Contains(t, html, "Hello Alex")
	assert.Contains(t, html, "https://example.com/#/eventapplication/abc")
}

func TestSubmissionReceivedEscapesName(t *testing.T) {
	_, html := SubmissionReceived("<script>alert(1)</script>", "https://example.com")

	assert.NotContains(t, html, "<script>")
	assert.Contains(t, html, "&lt;script&gt;")
}

func TestSubmissionAdminAlert(t *testing.T) {
	subject, html := SubmissionAdminAlert("Alex", "alex@example.com", "couple", "Max",
		"consent works like this", "https://example.com/#/admin")

	assert.Equal(t, "New Event Application: Alex", subject)
	assert.Contains(t, html, "Couple")
	assert.Contains(t, html, "Max")
	assert.Contains(t, html, "consent works like this")
}

func TestSubmissionAdminAlertSingleOmitsPartner(t *testing.T) {
	_, html := SubmissionAdminAlert("Alex", "alex@example.com", "single", "",
		"understood", "https://example.com/#/admin")

	assert.Contains(t, html, "Single")
	assert.NotContains(t, html, "Partner's Name")
}

func TestStatusApproved(t *testing.T) {
	event := config.EventDetails{
		Date:     "August 15, 2024",
		Time:     "8:00 PM - 11:00 PM",
		Location: "The Secret Garden, 123 Hidden Lane",
	}

	subject, html := StatusApproved("Alex", "https://example.com/status", event)

	assert.Contains(t, subject, "Approved")
	assert.Contains(t, html, "August 15, 2024")
	assert.Contains(t, html, "8:00 PM - 11:00 PM")
	assert.Contains(t, html, "The Secret Garden, 123 Hidden Lane")
	assert.Contains(t, html, "https://example.com/status")
}

func TestStatusRejected(t *testing.T) {
	subject, html := StatusRejected("Alex", "incomplete references")

	assert.Equal(t, "Update on Your BodySharing Application", subject)
	assert.Contains(t, html, "incomplete references")
	assert.Contains(t, html, "apply again after 3 months")
}

func TestStatusReviewing(t *testing.T) {
	subject, html := StatusReviewing("Alex", "https://example.com/status")

	assert.Contains(t, subject, "Under Review")
	assert.Contains(t, html, "under review")
}

func TestContactAdminAlertPreservesLineBreaks(t *testing.T) {
	_, html := ContactAdminAlert("Sam", "sam@example.com", "Other Inquiry",
		"line one\nline two", true)

	assert.Contains(t, html, "line one<br>line two")
	assert.Contains(t, html, "Yes")
}

func TestContactAdminAlertEscapesMessage(t *testing.T) {
	_, html := ContactAdminAlert("Sam", "sam@example.com", "Other Inquiry",
		"<img src=x>", false)

	assert.NotContains(t, html, "<img")
	assert.Contains(t, html, "No")
}

func TestInquiryLabel(t *testing.T) {
	tests := []struct {
		code string
		want string
	}{
		{"membership", "Membership Application"},
		{"event", "Event Information"},
		{"safety", "Safety or Concern"},
		{"other", "Other Inquiry"},
		{"unmapped", "unmapped"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, InquiryLabel(tt.code))
	}
}
