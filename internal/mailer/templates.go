package mailer

import (
	"bytes"
	"html/template"
	"strings"

	"github.com/pepperumo/bodysharing-website/internal/config"
)

// Email bodies for every notification the service sends. Values coming
// from applicants pass through html/template so markup in a form field
// cannot leak into the mail.

var submissionReceivedTmpl = template.Must(template.New("submissionReceived").Parse(`
<h2>Thank You for Applying to BodySharing</h2>
<p>Hello {{.Name}},</p>
<p>We have received your application for the upcoming BodySharing event. Our team will review your application and update you on its status.</p>
<p>You can track the status of your application at any time using this link:</p>
<p><a href="{{.TrackingURL}}">{{.TrackingURL}}</a></p>
<p>Please bookmark this link for future reference.</p>
<p>Best regards,<br>The BodySharing Team</p>
`))

// SubmissionReceived confirms a submission to the applicant and carries
// the tracking link.
func SubmissionReceived(name, trackingURL string) (subject, html string) {
	return "Your BodySharing Event Application", render(submissionReceivedTmpl, map[string]any{
		"Name":        name,
		"TrackingURL": trackingURL,
	})
}

var submissionAdminAlertTmpl = template.Must(template.New("submissionAdminAlert").Parse(`
<h2>New Event Application Received</h2>
<p><strong>Name:</strong> {{.Name}}</p>
<p><strong>Email:</strong> {{.Email}}</p>
<p><strong>Attendee Type:</strong> {{.AttendeeType}}</p>
{{if .PartnerAlias}}<p><strong>Partner's Name:</strong> {{.PartnerAlias}}</p>{{end}}
<p><strong>Consent Understanding:</strong></p>
<p>{{.UnderstandingConsent}}</p>
<p><a href="{{.AdminURL}}">View in Admin Dashboard</a></p>
`))

// SubmissionAdminAlert summarizes a new submission for the admin inbox.
func SubmissionAdminAlert(name, email, attendeeType, partnerAlias, understandingConsent, adminURL string) (subject, html string) {
	label := "Single"
	if attendeeType == "couple" {
		label = "Couple"
	}
	return "New Event Application: " + name, render(submissionAdminAlertTmpl, map[string]any{
		"Name":                 name,
		"Email":                email,
		"AttendeeType":         label,
		"PartnerAlias":         partnerAlias,
		"UnderstandingConsent": understandingConsent,
		"AdminURL":             adminURL,
	})
}

var statusApprovedTmpl = template.Must(template.New("statusApproved").Parse(`
<h2>Congratulations! Your Application is Approved</h2>
<p>Hello {{.Name}},</p>
<p>We're pleased to inform you that your application for the upcoming BodySharing event has been approved!</p>
<h3>Event Details</h3>
<p><strong>Date:</strong> {{.Event.Date}}</p>
<p><strong>Time:</strong> {{.Event.Time}}</p>
<p><strong>Location:</strong> {{.Event.Location}}</p>
<p>You can view your entry QR code and more details at: <a href="{{.TrackingURL}}">your application status page</a>.</p>
<p>Please arrive 15 minutes early for check-in. Don't forget to bring your ID and have your QR code ready for scanning.</p>
<p>Best regards,<br>The BodySharing Team</p>
`))

// StatusApproved tells the applicant they are in, with event details.
func StatusApproved(name, trackingURL string, event config.EventDetails) (subject, html string) {
	return "Your BodySharing Application Has Been Approved!", render(statusApprovedTmpl, map[string]any{
		"Name":        name,
		"TrackingURL": trackingURL,
		"Event":       event,
	})
}

var statusRejectedTmpl = template.Must(template.New("statusRejected").Parse(`
<h2>Your BodySharing Application Status</h2>
<p>Hello {{.Name}},</p>
<p>Thank you for your interest in our BodySharing event. After careful review, we regret to inform you that your application has not been approved for the upcoming event.</p>
<p><strong>Reason:</strong> {{.Reason}}</p>
<p>You may apply again after 3 months with a new application. We appreciate your understanding.</p>
<p>Best regards,<br>The BodySharing Team</p>
`))

// StatusRejected delivers the rejection and its reason.
func StatusRejected(name, reason string) (subject, html string) {
	return "Update on Your BodySharing Application", render(statusRejectedTmpl, map[string]any{
		"Name":   name,
		"Reason": reason,
	})
}

var statusReviewingTmpl = template.Must(template.New("statusReviewing").Parse(`
<h2>Your Application is Under Review</h2>
<p>Hello {{.Name}},</p>
<p>Your application for the upcoming BodySharing event is now under review by our team. We'll update you on the status soon.</p>
<p>You can always check your application status at: <a href="{{.TrackingURL}}">your application status page</a>.</p>
<p>Best regards,<br>The BodySharing Team</p>
`))

// StatusReviewing tells the applicant their application entered review.
func StatusReviewing(name, trackingURL string) (subject, html string) {
	return "Your BodySharing Application is Under Review", render(statusReviewingTmpl, map[string]any{
		"Name":        name,
		"TrackingURL": trackingURL,
	})
}

var checkInAlertTmpl = template.Must(template.New("checkInAlert").Parse(`
<h2>Attendee Checked In</h2>
<p><strong>Name:</strong> {{.Name}}</p>
<p><strong>Attendee Type:</strong> {{.AttendeeType}}</p>
<p><strong>Checked in at:</strong> {{.When}}</p>
`))

// CheckInAlert notifies the admin that an attendee arrived.
func CheckInAlert(name, attendeeType, when string) (subject, html string) {
	return "Event Check-In: " + name, render(checkInAlertTmpl, map[string]any{
		"Name":         name,
		"AttendeeType": attendeeType,
		"When":         when,
	})
}

var contactAdminAlertTmpl = template.Must(template.New("contactAdminAlert").Parse(`
<h2>New Contact Form Submission</h2>
<p><strong>Name:</strong> {{.Name}}</p>
<p><strong>Email:</strong> {{.Email}}</p>
<p><strong>Inquiry Type:</strong> {{.InquiryType}}</p>
<p><strong>Message:</strong></p>
<p>{{.Message}}</p>
<p><strong>Consent Given:</strong> {{if .Consent}}Yes{{else}}No{{end}}</p>
<hr>
<p><small>This message was sent via the BodySharing contact form.</small></p>
`))

// ContactAdminAlert forwards a contact-form submission to the admin.
func ContactAdminAlert(name, email, inquiryLabel, message string, consent bool) (subject, html string) {
	return "New Contact Form: " + inquiryLabel, render(contactAdminAlertTmpl, map[string]any{
		"Name":        name,
		"Email":       email,
		"InquiryType": inquiryLabel,
		"Message":     template.HTML(escapeWithBreaks(message)),
		"Consent":     consent,
	})
}

var contactConfirmationTmpl = template.Must(template.New("contactConfirmation").Parse(`
<h2>Thank You for Contacting BodySharing</h2>
<p>Hello {{.Name}},</p>
<p>We have received your inquiry about "{{.InquiryType}}" and will get back to you shortly.</p>
<p>For your records, here is a copy of your message:</p>
<blockquote>{{.Message}}</blockquote>
<p>Best regards,<br>The BodySharing Team</p>
`))

// ContactConfirmation echoes the inquiry back to the sender.
func ContactConfirmation(name, inquiryLabel, message string) (subject, html string) {
	return "Thank you for contacting BodySharing", render(contactConfirmationTmpl, map[string]any{
		"Name":        name,
		"InquiryType": inquiryLabel,
		"Message":     template.HTML(escapeWithBreaks(message)),
	})
}

// InquiryLabel maps contact-form inquiry codes to display labels.
// Unknown codes pass through unchanged.
func InquiryLabel(code string) string {
	switch code {
	case "membership":
		return "Membership Application"
	case "event":
		return "Event Information"
	case "safety":
		return "Safety or Concern"
	case "other":
		return "Other Inquiry"
	}
	return code
}

func render(t *template.Template, data any) string {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return ""
	}
	return buf.String()
}

// escapeWithBreaks escapes user text and then converts newlines into
// <br> so multi-line messages keep their shape.
func escapeWithBreaks(s string) string {
	escaped := template.HTMLEscapeString(s)
	return strings.ReplaceAll(escaped, "\n", "<br>")
}
