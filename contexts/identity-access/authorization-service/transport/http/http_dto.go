package httptransport

import "time"

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// PrincipalResponse describes the caller behind the current session.
type PrincipalResponse struct {
	UserID          string   `json:"user_id"`
	Role            string   `json:"role"`
	OnboardingState string   `json:"onboarding_state"`
	Suspended       bool     `json:"suspended"`
	Capabilities    []string `json:"capabilities"`
}

// SessionResponse is written to cookies by the server, never to the body.
type SessionResponse struct {
	Token     string
	CSRFToken string
	ExpiresAt time.Time
}
