package entities

import (
	"strings"
	"time"

	domainerrors "fanvault/contexts/content-access/entitlement-service/domain/errors"
)

type Visibility string

const (
	VisibilityPublic      Visibility = "PUBLIC"
	VisibilityFollowers   Visibility = "FOLLOWERS"
	VisibilitySubscribers Visibility = "SUBSCRIBERS"
	VisibilityPPV         Visibility = "PPV"
	VisibilityPrivate     Visibility = "PRIVATE"
)

func ParseVisibility(raw string) (Visibility, bool) {
	value := Visibility(strings.ToUpper(strings.TrimSpace(raw)))
	switch value {
	case VisibilityPublic, VisibilityFollowers, VisibilitySubscribers, VisibilityPPV, VisibilityPrivate:
		return value, true
	default:
		return "", false
	}
}

// Visibilities lists every visibility in declaration order.
func Visibilities() []Visibility {
	return []Visibility{
		VisibilityPublic,
		VisibilityFollowers,
		VisibilitySubscribers,
		VisibilityPPV,
		VisibilityPrivate,
	}
}

type PostStatus string

const (
	PostStatusPublished PostStatus = "PUBLISHED"
	PostStatusDraft     PostStatus = "DRAFT"
)

func ParsePostStatus(raw string) (PostStatus, bool) {
	value := PostStatus(strings.ToUpper(strings.TrimSpace(raw)))
	switch value {
	case PostStatusPublished, PostStatusDraft:
		return value, true
	default:
		return "", false
	}
}

const (
	MaxTitleLength = 200
	MaxBodyLength  = 20000
	MaxAssets      = 20
)

type Post struct {
	PostID        string
	CreatorUserID string
	Title         string
	Body          string
	Visibility    Visibility
	PriceCents    *int64
	AssetIDs      []string
	Status        PostStatus
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (p Post) IsPublished() bool {
	return p.Status == PostStatusPublished
}

// Validate enforces the post invariants. A price is present exactly when the
// post is PPV, and it is positive.
func (p Post) Validate() error {
	title := strings.TrimSpace(p.Title)
	if title == "" || len([]rune(title)) > MaxTitleLength {
		return domainerrors.ErrInvalidTitle
	}
	if len([]rune(p.Body)) > MaxBodyLength {
		return domainerrors.ErrInvalidBody
	}
	if _, ok := ParseVisibility(string(p.Visibility)); !ok {
		return domainerrors.ErrInvalidVisibility
	}
	if _, ok := ParsePostStatus(string(p.Status)); !ok {
		return domainerrors.ErrInvalidStatus
	}
	if p.Visibility == VisibilityPPV {
		if p.PriceCents == nil || *p.PriceCents <= 0 {
			return domainerrors.ErrInvalidPrice
		}
	} else if p.PriceCents != nil {
		return domainerrors.ErrInvalidPrice
	}
	if len(p.AssetIDs) > MaxAssets {
		return domainerrors.ErrInvalidAssets
	}
	seen := make(map[string]struct{}, len(p.AssetIDs))
	for _, assetID := range p.AssetIDs {
		if strings.TrimSpace(assetID) == "" {
			return domainerrors.ErrInvalidAssets
		}
		if _, ok := seen[assetID]; ok {
			return domainerrors.ErrInvalidAssets
		}
		seen[assetID] = struct{}{}
	}
	return nil
}

func (p Post) Clone() Post {
	out := p
	if p.PriceCents != nil {
		price := *p.PriceCents
		out.PriceCents = &price
	}
	out.AssetIDs = append([]string(nil), p.AssetIDs...)
	return out
}
