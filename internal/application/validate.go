package application

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// SubmitRequest is a candidate application as sent by the client.
// The two agreement fields are pointers so that an explicit false is
// distinguishable from an absent field: false is a legal answer, only
// absence fails validation.
type SubmitRequest struct {
	Name                   string `json:"name" validate:"required"`
	Email                  string `json:"email" validate:"required"`
	ConsentAcknowledgment  *bool  `json:"consentAcknowledgment" validate:"required"`
	DataRetentionAgreement *bool  `json:"dataRetentionAgreement" validate:"required"`
	UnderstandingConsent   string `json:"understandingConsent" validate:"required"`
	AttendeeType           string `json:"attendeeType" validate:"required,oneof=single couple"`
	PartnerAlias           string `json:"partnerAlias" validate:"required_if=AttendeeType couple"`
	PhotoURL               string `json:"photoUrl"`
}

func newValidator() *validator.Validate {
	v := validator.New()
	// Report failures under the wire names the client used.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateSubmission collects every failed field. hasPhoto is true when
// either a photo URL was supplied or a file was uploaded out of band.
func validateSubmission(v *validator.Validate, req SubmitRequest, hasPhoto bool) *ValidationError {
	var missing []string

	if err := v.Struct(req); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range verrs {
				missing = append(missing, fe.Field())
			}
		} else {
			return &ValidationError{Msg: "invalid submission"}
		}
	}

	if !hasPhoto {
		missing = append(missing, "photo")
	}

	if len(missing) > 0 {
		return &ValidationError{Msg: "missing required application fields", Missing: missing}
	}
	return nil
}
