package entities

import (
	"errors"
	"testing"

	domainerrors "fanvault/contexts/content-access/entitlement-service/domain/errors"
)

func price(v int64) *int64 { return &v }

func TestPostValidatePriceIffPPV(t *testing.T) {
	cases := []struct {
		name       string
		visibility Visibility
		price      *int64
		want       error
	}{
		{"ppv with price", VisibilityPPV, price(100), nil},
		{"ppv without price", VisibilityPPV, nil, domainerrors.ErrInvalidPrice},
		{"ppv zero price", VisibilityPPV, price(0), domainerrors.ErrInvalidPrice},
		{"ppv negative price", VisibilityPPV, price(-5), domainerrors.ErrInvalidPrice},
		{"public without price", VisibilityPublic, nil, nil},
		{"public with price", VisibilityPublic, price(100), domainerrors.ErrInvalidPrice},
		{"subscribers with price", VisibilitySubscribers, price(100), domainerrors.ErrInvalidPrice},
	}
	for _, tc := range cases {
		p := Post{Title: "t", Visibility: tc.visibility, PriceCents: tc.price, Status: PostStatusDraft}
		if err := p.Validate(); !errors.Is(err, tc.want) {
			t.Fatalf("%s: got %v, want %v", tc.name, err, tc.want)
		}
	}
}

func TestPostValidateFields(t *testing.T) {
	base := Post{Title: "t", Visibility: VisibilityPublic, Status: PostStatusPublished}

	p := base
	p.Title = "  "
	if err := p.Validate(); !errors.Is(err, domainerrors.ErrInvalidTitle) {
		t.Fatalf("expected ErrInvalidTitle, got %v", err)
	}
	p = base
	p.AssetIDs = []string{"a", "a"}
	if err := p.Validate(); !errors.Is(err, domainerrors.ErrInvalidAssets) {
		t.Fatalf("expected ErrInvalidAssets for duplicates, got %v", err)
	}
	p = base
	p.Visibility = "SECRET"
	if err := p.Validate(); !errors.Is(err, domainerrors.ErrInvalidVisibility) {
		t.Fatalf("expected ErrInvalidVisibility, got %v", err)
	}
	p = base
	p.Status = "ARCHIVED"
	if err := p.Validate(); !errors.Is(err, domainerrors.ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
}

func TestCloneCopiesPriceAndAssets(t *testing.T) {
	p := Post{PriceCents: price(10), AssetIDs: []string{"a"}}
	c := p.Clone()
	*c.PriceCents = 20
	c.AssetIDs[0] = "b"
	if *p.PriceCents != 10 || p.AssetIDs[0] != "a" {
		t.Fatal("clone shares state with the original")
	}
}
