package httpserver

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
	"time"

	"fanvault/contexts/identity-access/authorization-service/application/queries"
	authzentities "fanvault/contexts/identity-access/authorization-service/domain/entities"
	authzerrors "fanvault/contexts/identity-access/authorization-service/domain/errors"
	authzhttp "fanvault/contexts/identity-access/authorization-service/transport/http"
)

const (
	sessionCookieName = "fv_session"
	csrfCookieName    = "fv_csrf"
	csrfHeaderName    = "X-CSRF-Token"
)

// sessionToken prefers an Authorization bearer header over the session
// cookie. Only cookie-authenticated mutations are subject to CSRF checks.
func sessionToken(r *http.Request) (string, authzentities.AuthMethod) {
	authHeader := strings.TrimSpace(r.Header.Get("Authorization"))
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1]), authzentities.AuthMethodBearer
		}
		return "", authzentities.AuthMethodBearer
	}
	if cookie, err := r.Cookie(sessionCookieName); err == nil {
		return cookie.Value, authzentities.AuthMethodCookie
	}
	return "", authzentities.AuthMethodCookie
}

func isMutating(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return false
	default:
		return true
	}
}

// authorize runs the guard for capability and writes the rejection itself.
// It must run before the request body is read.
func (s *Server) authorize(w http.ResponseWriter, r *http.Request, capability authzentities.Capability) (authzentities.Principal, bool) {
	token, method := sessionToken(r)
	query := queries.AuthorizeQuery{
		Token:      token,
		Method:     method,
		Capability: capability,
		Mutating:   isMutating(r.Method),
		CSRFHeader: r.Header.Get(csrfHeaderName),
	}
	if cookie, err := r.Cookie(csrfCookieName); err == nil {
		query.CSRFCookie = cookie.Value
	}
	principal, err := s.authorization.Handler.AuthorizeHandler(r.Context(), query)
	if err != nil {
		writeAuthzDomainError(w, err)
		return authzentities.Principal{}, false
	}
	return principal, true
}

// optionalViewer resolves the caller on routes anonymous viewers may read.
// A missing or rejected token reads as anonymous.
func (s *Server) optionalViewer(w http.ResponseWriter, r *http.Request) (string, bool) {
	token, method := sessionToken(r)
	if token == "" {
		return "", true
	}
	principal, err := s.authorization.Handler.AuthenticateHandler(r.Context(), token, method)
	if err != nil {
		if errors.Is(err, authzerrors.ErrUnauthenticated) {
			return "", true
		}
		writeAuthzDomainError(w, err)
		return "", false
	}
	return principal.UserID, true
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	principal, ok := s.authorize(w, r, authzentities.CapSessionRead)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.authorization.Handler.PrincipalHandler(principal))
}

func (s *Server) setSessionCookies(w http.ResponseWriter, session authzhttp.SessionResponse) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    session.Token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		Secure:   s.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	// Readable by scripts so clients can echo it in X-CSRF-Token.
	http.SetCookie(w, &http.Cookie{
		Name:     csrfCookieName,
		Value:    session.CSRFToken,
		Path:     "/",
		Expires:  session.ExpiresAt,
		Secure:   s.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) clearSessionCookies(w http.ResponseWriter) {
	for _, name := range []string{sessionCookieName, csrfCookieName} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			Expires:  time.Unix(0, 0),
			MaxAge:   -1,
			HttpOnly: name == sessionCookieName,
			Secure:   s.cookieSecure,
			SameSite: http.SameSiteLaxMode,
		})
	}
}

func writeAuthzDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, authzerrors.ErrUnauthenticated),
		errors.Is(err, authzerrors.ErrInvalidToken),
		errors.Is(err, authzerrors.ErrInvalidUserID):
		writeError(w, http.StatusUnauthorized, "unauthenticated", "authentication required")
	case errors.Is(err, authzerrors.ErrCSRFTokenInvalid):
		writeError(w, http.StatusForbidden, "csrf_token_invalid", err.Error())
	case errors.Is(err, authzerrors.ErrAccountSuspended):
		writeError(w, http.StatusForbidden, "account_suspended", err.Error())
	case errors.Is(err, authzerrors.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func constantTimeEqual(a string, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
