package httpserver

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestMeRequiresSession(t *testing.T) {
	env := newTestServer(t)
	rr := env.do(http.MethodGet, "/auth/me", "", nil)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d body=%s", rr.Code, rr.Body.String())
	}
	rr = env.do(http.MethodGet, "/auth/me", "", map[string]string{"Authorization": "Bearer not.a.jwt"})
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for a forged token, got %d", rr.Code)
	}
}

func TestMeDescribesPrincipal(t *testing.T) {
	env := newTestServer(t)
	creator := env.signUp("carol@example.com", "carol", "creator")
	rr := env.doAs(creator, http.MethodGet, "/auth/me", "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	var me struct {
		UserID       string   `json:"user_id"`
		Role         string   `json:"role"`
		Capabilities []string `json:"capabilities"`
	}
	decodeBody(t, rr, &me)
	if me.UserID != creator.UserID || me.Role != "creator" {
		t.Fatalf("unexpected principal: %+v", me)
	}
	if !strings.Contains(strings.Join(me.Capabilities, ","), "kyc.manage") {
		t.Fatalf("expected kyc.manage capability, got %v", me.Capabilities)
	}
}

func TestRoleIsReadFromAccountNotToken(t *testing.T) {
	env := newTestServer(t)
	admin := env.signUp("admin@example.com", "root", "creator")
	creator := env.signUp("carol@example.com", "carol", "creator")

	rr := env.doAs(admin, http.MethodPost, "/admin/force-role", `{"email":"carol@example.com","role":"fan"}`, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("force-role: expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	// The token still says creator.
	rr = env.doAs(creator, http.MethodPost, "/kyc/session", "", map[string]string{"Idempotency-Key": "k1"})
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403 after demotion, got %d body=%s", rr.Code, rr.Body.String())
	}

	rr = env.doAs(admin, http.MethodPost, "/admin/force-role", `{"email":"carol@example.com","role":"deleted"}`, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("force-role deleted: expected 200, got %d", rr.Code)
	}
	rr = env.doAs(creator, http.MethodGet, "/auth/me", "", nil)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected deleted account to be unauthenticated, got %d", rr.Code)
	}
}

func cookieRequest(method string, path string, body string, s session, csrfHeader string) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: s.Token})
	req.AddCookie(&http.Cookie{Name: csrfCookieName, Value: s.CSRF})
	if csrfHeader != "" {
		req.Header.Set(csrfHeaderName, csrfHeader)
	}
	return req
}

func TestCookieMutationsRequireCSRFHeader(t *testing.T) {
	env := newTestServer(t)
	creator := env.signUp("carol@example.com", "carol", "creator")

	rr := httptest.NewRecorder()
	env.server.mux.ServeHTTP(rr, cookieRequest(http.MethodPost, "/kyc/session", "", creator, ""))
	if code := errorCode(t, rr); rr.Code != http.StatusForbidden || code != "csrf_token_invalid" {
		t.Fatalf("expected 403 csrf_token_invalid, got %d %q", rr.Code, code)
	}

	rr = httptest.NewRecorder()
	env.server.mux.ServeHTTP(rr, cookieRequest(http.MethodPost, "/kyc/session", "", creator, "wrong"))
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for mismatched token, got %d", rr.Code)
	}

	req := cookieRequest(http.MethodPost, "/kyc/session", "", creator, creator.CSRF)
	req.Header.Set("Idempotency-Key", "k1")
	rr = httptest.NewRecorder()
	env.server.mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 with matching CSRF header, got %d body=%s", rr.Code, rr.Body.String())
	}

	// Reads never need the header.
	rr = httptest.NewRecorder()
	env.server.mux.ServeHTTP(rr, cookieRequest(http.MethodGet, "/kyc/status", "", creator, ""))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected cookie read to pass, got %d", rr.Code)
	}
}

func TestLoginSetsCookiesAndLogoutClearsThem(t *testing.T) {
	env := newTestServer(t)
	env.signUp("carol@example.com", "carol", "creator")

	rr := env.do(http.MethodPost, "/auth/login", `{"email":"carol@example.com","password":"wrong-password"}`, nil)
	if code := errorCode(t, rr); rr.Code != http.StatusUnauthorized || code != "invalid_credentials" {
		t.Fatalf("expected 401 invalid_credentials, got %d %q", rr.Code, code)
	}

	rr = env.do(http.MethodPost, "/auth/login", `{"email":"carol@example.com","password":"`+testPassword+`"}`, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	var sessionCookie *http.Cookie
	for _, cookie := range rr.Result().Cookies() {
		if cookie.Name == sessionCookieName {
			sessionCookie = cookie
		}
	}
	if sessionCookie == nil || !sessionCookie.HttpOnly || sessionCookie.Value == "" {
		t.Fatalf("expected an HttpOnly session cookie, got %+v", sessionCookie)
	}

	rr = env.do(http.MethodPost, "/auth/logout", "", nil)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rr.Code)
	}
	for _, cookie := range rr.Result().Cookies() {
		if cookie.MaxAge >= 0 {
			t.Fatalf("expected %s to be expired, got MaxAge=%d", cookie.Name, cookie.MaxAge)
		}
	}
}

func TestHealthAndUnknownRoutes(t *testing.T) {
	env := newTestServer(t)
	if rr := env.do(http.MethodGet, "/health", "", nil); rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	rr := env.do(http.MethodGet, "/nope", "", nil)
	if code := errorCode(t, rr); rr.Code != http.StatusNotFound || code != "not_found" {
		t.Fatalf("expected 404 not_found, got %d %q", rr.Code, code)
	}
}

func TestHealthReportsFailingDependencies(t *testing.T) {
	env := newTestServer(t)
	env.server.healthChecks = []HealthCheck{
		{Name: "postgres", Check: func(context.Context) error { return nil }},
		{Name: "redis", Check: func(context.Context) error { return errors.New("connection refused") }},
	}

	rr := env.do(http.MethodGet, "/health", "", nil)
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d body=%s", rr.Code, rr.Body.String())
	}
	var body healthResponse
	decodeBody(t, rr, &body)
	if body.Status != "degraded" || body.Checks["redis"] != "connection refused" {
		t.Fatalf("unexpected health body %+v", body)
	}
	if _, ok := body.Checks["postgres"]; ok {
		t.Fatalf("expected only failing checks to be listed, got %+v", body.Checks)
	}

	env.server.healthChecks = env.server.healthChecks[:1]
	if rr := env.do(http.MethodGet, "/health", "", nil); rr.Code != http.StatusOK {
		t.Fatalf("expected 200 once every check passes, got %d", rr.Code)
	}
}
