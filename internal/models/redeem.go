package models

import "strings"

// RedeemRequest is the credit redemption form posted by the intake client.
// Presence-sensitive fields are pointers so an omitted value is distinct from false or 0.
type RedeemRequest struct {
	FirstName          string   `json:"firstName" validate:"required"`
	LastName           string   `json:"lastName" validate:"required"`
	ASUEmail           string   `json:"asuEmail" validate:"required,edu_email,basic_email"`
	HasReceivedCredits *bool    `json:"hasReceivedCredits" validate:"required"`
	OrgID              string   `json:"orgId" validate:"required"`
	Latitude           *float64 `json:"latitude" validate:"required"`
	Longitude          *float64 `json:"longitude" validate:"required"`
}

// Normalize trims surrounding whitespace from the text fields
func (r *RedeemRequest) Normalize() {
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)
	r.ASUEmail = strings.TrimSpace(r.ASUEmail)
	r.OrgID = strings.TrimSpace(r.OrgID)
}

// RedeemResponse is returned on a successful submission
type RedeemResponse struct {
	Message string `json:"message"`
}

// RedeemOutcome is the terminal state of one redemption request
type RedeemOutcome string

const (
	OutcomeMissingFields         RedeemOutcome = "missing_fields"
	OutcomeInvalidEmail          RedeemOutcome = "invalid_email"
	OutcomeLocationNotConfigured RedeemOutcome = "location_not_configured"
	OutcomeTooFar                RedeemOutcome = "too_far"
	OutcomeNoEndpoints           RedeemOutcome = "no_endpoints_configured"
	OutcomeDelivered             RedeemOutcome = "delivered"
	OutcomeDeliveryFailed        RedeemOutcome = "delivery_failed"
)

// Client-facing messages for the redemption endpoint
const (
	MsgRedeemSuccess         = "Your request has been submitted successfully. We will process your redemption shortly."
	MsgInvalidRequestBody    = "Invalid request body"
	MsgMissingFields         = "Missing required fields"
	MsgEmailMustEndWithEdu   = "Email must end with .edu"
	MsgInvalidEmailAddress   = "Please enter a valid email address"
	MsgLocationNotConfigured = "Location verification not configured"
	MsgTooFar                = "You must be at the event location to redeem credits. Please try again when you arrive."
	MsgWebhookNotConfigured  = "Webhook not configured"
	MsgDeliveryFailed        = "Failed to process your request. Please try again."
	MsgInternalServerError   = "Internal server error"
)
