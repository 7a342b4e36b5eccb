package httpserver

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	entitlementerrors "fanvault/contexts/content-access/entitlement-service/domain/errors"
	entitlementhttp "fanvault/contexts/content-access/entitlement-service/transport/http"
	authzentities "fanvault/contexts/identity-access/authorization-service/domain/entities"
)

// degradedRetryAfter is advertised when entitlement lookups failed closed.
const degradedRetryAfter = "2"

func (s *Server) handleCreatePost(w http.ResponseWriter, r *http.Request) {
	principal, ok := s.authorize(w, r, authzentities.CapPostPublish)
	if !ok {
		return
	}
	var req entitlementhttp.CreatePostRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}
	resp, err := s.entitlement.Handler.CreatePostHandler(r.Context(), principal.UserID, req)
	if err != nil {
		writeEntitlementDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleUpdatePost(w http.ResponseWriter, r *http.Request) {
	principal, ok := s.authorize(w, r, authzentities.CapPostPublish)
	if !ok {
		return
	}
	var req entitlementhttp.UpdatePostRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}
	resp, err := s.entitlement.Handler.UpdatePostHandler(r.Context(), principal.UserID, r.PathValue("post_id"), req)
	if err != nil {
		writeEntitlementDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetPost(w http.ResponseWriter, r *http.Request) {
	viewerID, ok := s.optionalViewer(w, r)
	if !ok {
		return
	}
	resp, err := s.entitlement.Handler.GetPostHandler(r.Context(), viewerID, r.PathValue("post_id"))
	if err != nil {
		writeEntitlementDomainError(w, err)
		return
	}
	markDegraded(w, resp.EntitlementsDegraded)
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreatorPosts(w http.ResponseWriter, r *http.Request) {
	viewerID, ok := s.optionalViewer(w, r)
	if !ok {
		return
	}
	limit, ok := parseLimit(w, r)
	if !ok {
		return
	}
	includeLocked := true
	if raw := strings.TrimSpace(r.URL.Query().Get("include_locked")); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "include_locked must be a boolean")
			return
		}
		includeLocked = parsed
	}
	resp, err := s.entitlement.Handler.CreatorPostsHandler(
		r.Context(),
		viewerID,
		r.PathValue("handle"),
		includeLocked,
		r.URL.Query().Get("cursor"),
		limit,
	)
	if err != nil {
		writeEntitlementDomainError(w, err)
		return
	}
	markDegraded(w, resp.EntitlementsDegraded)
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	principal, ok := s.authorize(w, r, authzentities.CapSessionRead)
	if !ok {
		return
	}
	limit, ok := parseLimit(w, r)
	if !ok {
		return
	}
	resp, err := s.entitlement.Handler.FeedHandler(r.Context(), principal.UserID, r.URL.Query().Get("cursor"), limit)
	if err != nil {
		writeEntitlementDomainError(w, err)
		return
	}
	markDegraded(w, resp.EntitlementsDegraded)
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleVault(w http.ResponseWriter, r *http.Request) {
	principal, ok := s.authorize(w, r, authzentities.CapVaultAccess)
	if !ok {
		return
	}
	limit, ok := parseLimit(w, r)
	if !ok {
		return
	}
	resp, err := s.entitlement.Handler.VaultHandler(r.Context(), principal.UserID, r.URL.Query().Get("cursor"), limit)
	if err != nil {
		writeEntitlementDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRegisterUpload(w http.ResponseWriter, r *http.Request) {
	principal, ok := s.authorize(w, r, authzentities.CapMediaUpload)
	if !ok {
		return
	}
	var req entitlementhttp.RegisterUploadRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}
	resp, err := s.entitlement.Handler.RegisterUploadHandler(r.Context(), principal.UserID, req)
	if err != nil {
		writeEntitlementDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleFollow(w http.ResponseWriter, r *http.Request) {
	principal, ok := s.authorize(w, r, authzentities.CapFollowManage)
	if !ok {
		return
	}
	resp, err := s.entitlement.Handler.FollowHandler(r.Context(), principal.UserID, r.PathValue("handle"))
	if err != nil {
		writeEntitlementDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUnfollow(w http.ResponseWriter, r *http.Request) {
	principal, ok := s.authorize(w, r, authzentities.CapFollowManage)
	if !ok {
		return
	}
	resp, err := s.entitlement.Handler.UnfollowHandler(r.Context(), principal.UserID, r.PathValue("handle"))
	if err != nil {
		writeEntitlementDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePPVStatus(w http.ResponseWriter, r *http.Request) {
	viewerID, ok := s.optionalViewer(w, r)
	if !ok {
		return
	}
	resp, err := s.entitlement.Handler.PPVStatusHandler(r.Context(), viewerID, r.PathValue("post_id"))
	if err != nil {
		writeEntitlementDomainError(w, err)
		return
	}
	markDegraded(w, resp.EntitlementsDegraded)
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateIntent(w http.ResponseWriter, r *http.Request) {
	principal, ok := s.authorize(w, r, authzentities.CapPurchase)
	if !ok {
		return
	}
	resp, replayed, err := s.entitlement.Handler.CreateIntentHandler(
		r.Context(),
		principal.UserID,
		r.PathValue("post_id"),
		strings.TrimSpace(r.Header.Get("Idempotency-Key")),
	)
	if err != nil {
		writeEntitlementDomainError(w, err)
		return
	}
	status := http.StatusCreated
	if replayed {
		status = http.StatusOK
	}
	writeJSON(w, status, resp)
}

func (s *Server) handleIngestSubscription(w http.ResponseWriter, r *http.Request) {
	var req entitlementhttp.IngestSubscriptionRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}
	resp, err := s.entitlement.Handler.IngestSubscriptionHandler(r.Context(), req)
	if err != nil {
		writeEntitlementDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleIngestPurchase(w http.ResponseWriter, r *http.Request) {
	var req entitlementhttp.IngestPurchaseRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}
	resp, err := s.entitlement.Handler.IngestPurchaseHandler(r.Context(), req)
	if err != nil {
		writeEntitlementDomainError(w, err)
		return
	}
	status := http.StatusOK
	if resp.Created {
		status = http.StatusCreated
	}
	writeJSON(w, status, resp)
}

func markDegraded(w http.ResponseWriter, degraded bool) {
	if degraded {
		w.Header().Set("Retry-After", degradedRetryAfter)
	}
}

func writeEntitlementDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, entitlementerrors.ErrPostNotFound),
		errors.Is(err, entitlementerrors.ErrCreatorNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, entitlementerrors.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, entitlementerrors.ErrKYCRequired):
		writeError(w, http.StatusForbidden, "kyc_required", err.Error())
	case errors.Is(err, entitlementerrors.ErrInvalidRequest):
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, entitlementerrors.ErrCannotFollowSelf):
		writeError(w, http.StatusBadRequest, "cannot_follow_self", err.Error())
	case errors.Is(err, entitlementerrors.ErrNotPPV):
		writeError(w, http.StatusBadRequest, "not_ppv", err.Error())
	case errors.Is(err, entitlementerrors.ErrOwnPost):
		writeError(w, http.StatusBadRequest, "own_post", err.Error())
	case errors.Is(err, entitlementerrors.ErrAlreadyPurchased):
		writeError(w, http.StatusConflict, "already_purchased", err.Error())
	case errors.Is(err, entitlementerrors.ErrInvalidTitle),
		errors.Is(err, entitlementerrors.ErrInvalidBody),
		errors.Is(err, entitlementerrors.ErrInvalidVisibility),
		errors.Is(err, entitlementerrors.ErrInvalidStatus),
		errors.Is(err, entitlementerrors.ErrInvalidPrice),
		errors.Is(err, entitlementerrors.ErrInvalidAssets),
		errors.Is(err, entitlementerrors.ErrInvalidUpload),
		errors.Is(err, entitlementerrors.ErrInvalidSubscription),
		errors.Is(err, entitlementerrors.ErrInvalidPurchase):
		writeError(w, http.StatusUnprocessableEntity, "validation_error", err.Error())
	case errors.Is(err, entitlementerrors.ErrEntitlementsDegraded):
		w.Header().Set("Retry-After", degradedRetryAfter)
		writeError(w, http.StatusServiceUnavailable, "entitlements_degraded", err.Error())
	case errors.Is(err, entitlementerrors.ErrBillingUnavailable):
		w.Header().Set("Retry-After", degradedRetryAfter)
		writeError(w, http.StatusServiceUnavailable, "billing_unavailable", err.Error())
	default:
		writeIdempotencyError(w, err)
	}
}
