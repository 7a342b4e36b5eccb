package commands

import (
	"context"
	"log/slog"
	"path"
	"strings"

	application "fanvault/contexts/content-access/entitlement-service/application"
	domainerrors "fanvault/contexts/content-access/entitlement-service/domain/errors"
	"fanvault/contexts/content-access/entitlement-service/ports"
)

const defaultMaxUploadBytes = 2 << 30

type RegisterUploadCommand struct {
	CreatorUserID string
	Filename      string
	ContentType   string
	SizeBytes     int64
}

// RegisterUploadUseCase hands an upload to the media collaborator.
type RegisterUploadUseCase struct {
	Media    ports.Media
	MaxBytes int64
	Logger   *slog.Logger
}

func (u RegisterUploadUseCase) Execute(ctx context.Context, cmd RegisterUploadCommand) (ports.Upload, error) {
	filename := path.Base(strings.TrimSpace(cmd.Filename))
	contentType := strings.ToLower(strings.TrimSpace(cmd.ContentType))
	if filename == "" || filename == "." || filename == "/" {
		return ports.Upload{}, domainerrors.ErrInvalidUpload
	}
	if !strings.HasPrefix(contentType, "image/") && !strings.HasPrefix(contentType, "video/") {
		return ports.Upload{}, domainerrors.ErrInvalidUpload
	}
	if cmd.SizeBytes <= 0 || cmd.SizeBytes > u.maxBytes() {
		return ports.Upload{}, domainerrors.ErrInvalidUpload
	}

	upload, err := u.Media.RegisterUpload(ctx, ports.UploadRequest{
		CreatorUserID: cmd.CreatorUserID,
		Filename:      filename,
		ContentType:   contentType,
		SizeBytes:     cmd.SizeBytes,
	})
	if err != nil {
		return ports.Upload{}, err
	}
	application.ResolveLogger(u.Logger).Info("upload registered",
		"event", "entitlement_upload_registered",
		"module", "content-access/entitlement-service",
		"layer", "application",
		"creator_id", cmd.CreatorUserID,
		"asset_id", upload.AssetID,
		"content_type", contentType,
	)
	return upload, nil
}

func (u RegisterUploadUseCase) maxBytes() int64 {
	if u.MaxBytes <= 0 {
		return defaultMaxUploadBytes
	}
	return u.MaxBytes
}
