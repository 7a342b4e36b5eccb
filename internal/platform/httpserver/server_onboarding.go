package httpserver

import (
	"errors"
	"net/http"
	"strings"

	authzentities "fanvault/contexts/identity-access/authorization-service/domain/entities"
	onboardingerrors "fanvault/contexts/identity-access/onboarding-service/domain/errors"
	onboardinghttp "fanvault/contexts/identity-access/onboarding-service/transport/http"
	"fanvault/internal/shared/idempotency"
)

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if !s.throttle(w, r, "register") {
		return
	}
	var req onboardinghttp.RegisterRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}
	resp, replayed, err := s.onboarding.Handler.RegisterHandler(r.Context(), r.Header.Get("Idempotency-Key"), req)
	if err != nil {
		writeOnboardingDomainError(w, err)
		return
	}
	status := http.StatusCreated
	if replayed {
		status = http.StatusOK
	}
	writeJSON(w, status, resp)
}

func (s *Server) handleVerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req onboardinghttp.VerifyEmailRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}
	resp, err := s.onboarding.Handler.VerifyEmailHandler(r.Context(), r.Header.Get("Idempotency-Key"), req)
	if err != nil {
		writeOnboardingDomainError(w, err)
		return
	}
	if !s.startSession(w, r, resp.UserID, resp.Role) {
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if !s.throttle(w, r, "login") {
		return
	}
	var req onboardinghttp.LoginRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}
	resp, err := s.onboarding.Handler.LoginHandler(r.Context(), req)
	if err != nil {
		writeOnboardingDomainError(w, err)
		return
	}
	if !s.startSession(w, r, resp.UserID, resp.Role) {
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleLogout(w http.ResponseWriter, _ *http.Request) {
	s.clearSessionCookies(w)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) startSession(w http.ResponseWriter, r *http.Request, userID string, role string) bool {
	session, err := s.authorization.Handler.IssueSessionHandler(r.Context(), userID, role)
	if err != nil {
		s.logger.Error("issue session failed",
			"event", "http_issue_session_failed",
			"module", "internal/platform/httpserver",
			"layer", "platform",
			"user_id", userID,
			"error", err.Error(),
		)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return false
	}
	s.setSessionCookies(w, session)
	return true
}

func (s *Server) handleCreateKYCSession(w http.ResponseWriter, r *http.Request) {
	principal, ok := s.authorize(w, r, authzentities.CapKYCManage)
	if !ok {
		return
	}
	resp, err := s.onboarding.Handler.CreateSessionHandler(
		r.Context(),
		principal.UserID,
		strings.TrimSpace(r.Header.Get("Idempotency-Key")),
	)
	if err != nil {
		writeOnboardingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleKYCStatus(w http.ResponseWriter, r *http.Request) {
	principal, ok := s.authorize(w, r, authzentities.CapKYCManage)
	if !ok {
		return
	}
	resp, err := s.onboarding.Handler.SessionStatusHandler(r.Context(), principal.UserID)
	if err != nil {
		writeOnboardingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCompleteKYCSession(w http.ResponseWriter, r *http.Request) {
	principal, ok := s.authorize(w, r, authzentities.CapKYCManage)
	if !ok {
		return
	}
	var req onboardinghttp.CompleteSessionRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}
	resp, err := s.onboarding.Handler.CompleteSessionHandler(r.Context(), principal.UserID, req)
	if err != nil {
		writeOnboardingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleForceVerifyEmail(w http.ResponseWriter, r *http.Request) {
	principal, ok := s.authorize(w, r, authzentities.CapAdminOverride)
	if !ok {
		return
	}
	var req onboardinghttp.ForceVerifyEmailRequest
	if !decodeJSON(w, r, &req, true) {
		return
	}
	resp, err := s.onboarding.Handler.ForceVerifyEmailHandler(r.Context(), principal.UserID, r.URL.Query().Get("email"), req)
	if err != nil {
		writeOnboardingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleForceState(w http.ResponseWriter, r *http.Request) {
	principal, ok := s.authorize(w, r, authzentities.CapAdminOverride)
	if !ok {
		return
	}
	var req onboardinghttp.ForceStateRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}
	resp, err := s.onboarding.Handler.ForceStateHandler(r.Context(), principal.UserID, req)
	if err != nil {
		writeOnboardingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleForceRole(w http.ResponseWriter, r *http.Request) {
	principal, ok := s.authorize(w, r, authzentities.CapAdminOverride)
	if !ok {
		return
	}
	var req onboardinghttp.ForceRoleRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}
	resp, err := s.onboarding.Handler.ForceRoleHandler(r.Context(), principal.UserID, req)
	if err != nil {
		writeOnboardingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreatorAction(w http.ResponseWriter, r *http.Request) {
	principal, ok := s.authorize(w, r, authzentities.CapAdminModerate)
	if !ok {
		return
	}
	var req onboardinghttp.CreatorActionRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}
	resp, err := s.onboarding.Handler.CreatorActionHandler(r.Context(), principal.UserID, r.PathValue("creator_id"), req)
	if err != nil {
		writeOnboardingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.authorize(w, r, authzentities.CapAdminUsers); !ok {
		return
	}
	limit, ok := parseLimit(w, r)
	if !ok {
		return
	}
	query := r.URL.Query()
	resp, err := s.onboarding.Handler.ListUsersHandler(r.Context(), query.Get("role"), query.Get("state"), query.Get("cursor"), limit)
	if err != nil {
		writeOnboardingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListAudit(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.authorize(w, r, authzentities.CapAdminAudit); !ok {
		return
	}
	limit, ok := parseLimit(w, r)
	if !ok {
		return
	}
	query := r.URL.Query()
	resp, err := s.onboarding.Handler.ListAuditHandler(r.Context(), query.Get("target_user_id"), query.Get("cursor"), limit)
	if err != nil {
		writeOnboardingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeOnboardingDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, onboardingerrors.ErrAccountNotFound),
		errors.Is(err, onboardingerrors.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, onboardingerrors.ErrSessionForbidden):
		writeError(w, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, onboardingerrors.ErrAccountSuspended):
		writeError(w, http.StatusForbidden, "account_suspended", err.Error())
	case errors.Is(err, onboardingerrors.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "invalid_credentials", err.Error())
	case errors.Is(err, onboardingerrors.ErrInvalidStateForKYC):
		writeError(w, http.StatusBadRequest, "invalid_state_for_kyc", err.Error())
	case errors.Is(err, onboardingerrors.ErrSessionCompleted):
		writeError(w, http.StatusBadRequest, "already_completed", err.Error())
	case errors.Is(err, onboardingerrors.ErrInvalidVerdict):
		writeError(w, http.StatusBadRequest, "invalid_verdict", err.Error())
	case errors.Is(err, onboardingerrors.ErrInvalidToken):
		writeError(w, http.StatusBadRequest, "invalid_token", err.Error())
	case errors.Is(err, onboardingerrors.ErrInvalidState):
		writeError(w, http.StatusBadRequest, "invalid_state", err.Error())
	case errors.Is(err, onboardingerrors.ErrIdempotencyKeyRequired):
		writeError(w, http.StatusBadRequest, "idempotency_key_required", err.Error())
	case errors.Is(err, onboardingerrors.ErrInvalidRequest):
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, onboardingerrors.ErrValidation),
		errors.Is(err, onboardingerrors.ErrPasswordTooShort),
		errors.Is(err, onboardingerrors.ErrInvalidEmail),
		errors.Is(err, onboardingerrors.ErrInvalidHandle),
		errors.Is(err, onboardingerrors.ErrInvalidRole),
		errors.Is(err, onboardingerrors.ErrInvalidTargetState),
		errors.Is(err, onboardingerrors.ErrUnknownAction):
		writeError(w, http.StatusUnprocessableEntity, "validation_error", err.Error())
	case errors.Is(err, onboardingerrors.ErrOpenSessionExists):
		writeError(w, http.StatusConflict, "open_session_exists", err.Error())
	case errors.Is(err, onboardingerrors.ErrEmailTaken),
		errors.Is(err, onboardingerrors.ErrHandleTaken),
		errors.Is(err, onboardingerrors.ErrDuplicateSessionKey),
		errors.Is(err, onboardingerrors.ErrStateConflict):
		writeError(w, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, onboardingerrors.ErrDependencyUnavailable):
		writeError(w, http.StatusServiceUnavailable, "dependency_unavailable", err.Error())
	default:
		writeIdempotencyError(w, err)
	}
}

// writeIdempotencyError is the shared tail of every domain error switch.
func writeIdempotencyError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, idempotency.ErrKeyConflict):
		writeError(w, http.StatusConflict, "idempotency_conflict", err.Error())
	case errors.Is(err, idempotency.ErrInProgress):
		w.Header().Set("Retry-After", "1")
		writeError(w, http.StatusConflict, "idempotency_in_progress", err.Error())
	case errors.Is(err, idempotency.ErrKeyTooLong):
		writeError(w, http.StatusUnprocessableEntity, "validation_error", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
