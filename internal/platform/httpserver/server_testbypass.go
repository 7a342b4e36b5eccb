//go:build testbypass

package httpserver

import (
	"net/http"

	onboardinghttp "fanvault/contexts/identity-access/onboarding-service/transport/http"
)

// registerTestBypassRoutes exposes unauthenticated state forcing for
// browser test suites. Only binaries built with -tags testbypass carry it.
func (s *Server) registerTestBypassRoutes() {
	s.logger.Warn("test bypass routes enabled",
		"event", "http_test_bypass_enabled",
		"module", "internal/platform/httpserver",
		"layer", "platform",
	)
	s.mux.Post("/__test/force-state", s.handleTestForceState)
}

func (s *Server) handleTestForceState(w http.ResponseWriter, r *http.Request) {
	var req onboardinghttp.ForceStateRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}
	resp, err := s.onboarding.Handler.TestForceStateHandler(r.Context(), req)
	if err != nil {
		writeOnboardingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
