package media

import (
	"context"
	"net/url"
	"strings"
	"time"

	"fanvault/contexts/content-access/entitlement-service/ports"

	"github.com/google/uuid"
)

const (
	defaultBaseURL = "http://localhost:8080/uploads"
	defaultURLTTL  = 15 * time.Minute
)

// LocalMedia hands out upload slots under a static base URL.
type LocalMedia struct {
	BaseURL string
	TTL     time.Duration
	Clock   ports.Clock
}

func (m LocalMedia) RegisterUpload(_ context.Context, request ports.UploadRequest) (ports.Upload, error) {
	base := strings.TrimRight(strings.TrimSpace(m.BaseURL), "/")
	if base == "" {
		base = defaultBaseURL
	}
	ttl := m.TTL
	if ttl <= 0 {
		ttl = defaultURLTTL
	}
	now := time.Now().UTC()
	if m.Clock != nil {
		now = m.Clock.Now().UTC()
	}
	assetID := uuid.NewString()
	return ports.Upload{
		AssetID:   assetID,
		UploadURL: base + "/" + assetID + "/" + url.PathEscape(request.Filename),
		ExpiresAt: now.Add(ttl),
	}, nil
}
