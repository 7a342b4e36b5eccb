package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Handle   string `json:"handle,omitempty"`
	Role     string `json:"role,omitempty"`
}

type RegisterResponse struct {
	CreatorID           string `json:"creator_id"`
	Email               string `json:"email"`
	Handle              string `json:"handle"`
	Role                string `json:"role"`
	OnboardingState     string `json:"onboarding_state"`
	EmailDeliveryStatus string `json:"email_delivery_status"`
}

type VerifyEmailRequest struct {
	Token string `json:"token"`
}

type VerifyEmailResponse struct {
	UserID string `json:"user_id"`
	State  string `json:"state"`
	Role   string `json:"role"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	State  string `json:"state"`
}

type CreateSessionResponse struct {
	SessionID   string `json:"session_id"`
	RedirectURL string `json:"redirect_url"`
}

type SessionStatusResponse struct {
	SessionStatus string `json:"session_status"`
	CreatorState  string `json:"creator_state"`
	SessionID     string `json:"session_id,omitempty"`
	Verdict       string `json:"verdict,omitempty"`
}

type CompleteSessionRequest struct {
	SessionID string `json:"session_id"`
	Status    string `json:"status"`
}

type CompleteSessionResponse struct {
	Ack   bool   `json:"ack"`
	State string `json:"state"`
}

type ForceStateRequest struct {
	Email  string `json:"email"`
	State  string `json:"state"`
	Reason string `json:"reason,omitempty"`
}

type ForceRoleRequest struct {
	Email  string `json:"email"`
	Role   string `json:"role"`
	Reason string `json:"reason,omitempty"`
}

type ForceVerifyEmailRequest struct {
	Reason string `json:"reason,omitempty"`
}

type OverrideResponse struct {
	UserID          string `json:"user_id"`
	Email           string `json:"email"`
	Role            string `json:"role"`
	OnboardingState string `json:"onboarding_state"`
	Status          string `json:"status,omitempty"`
}

type CreatorActionRequest struct {
	Action string `json:"action"`
	Reason string `json:"reason,omitempty"`
}

type CreatorActionResponse struct {
	UserID        string `json:"user_id"`
	Action        string `json:"action"`
	State         string `json:"state"`
	VerifiedBadge bool   `json:"verified_badge"`
	Featured      bool   `json:"featured"`
	Discoverable  bool   `json:"discoverable"`
}

type UserResponse struct {
	UserID          string `json:"user_id"`
	Email           string `json:"email"`
	Handle          string `json:"handle"`
	Role            string `json:"role"`
	OnboardingState string `json:"onboarding_state"`
	Discoverable    bool   `json:"discoverable"`
	VerifiedBadge   bool   `json:"verified_badge"`
	Featured        bool   `json:"featured"`
	CreatedAt       string `json:"created_at"`
}

type ListUsersResponse struct {
	Items      []UserResponse `json:"items"`
	NextCursor string         `json:"next_cursor,omitempty"`
}

type AuditEntryResponse struct {
	AuditID      string `json:"audit_id"`
	ActorID      string `json:"actor_id"`
	Action       string `json:"action"`
	TargetUserID string `json:"target_user_id"`
	FromState    string `json:"from_state,omitempty"`
	ToState      string `json:"to_state,omitempty"`
	Reason       string `json:"reason,omitempty"`
	OccurredAt   string `json:"occurred_at"`
}

type ListAuditResponse struct {
	Items      []AuditEntryResponse `json:"items"`
	NextCursor string               `json:"next_cursor,omitempty"`
}
