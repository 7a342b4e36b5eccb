package commands

import (
	"context"
	"errors"
	"testing"
	"time"

	"fanvault/contexts/identity-access/authorization-service/adapters/token"
	domainerrors "fanvault/contexts/identity-access/authorization-service/domain/errors"
)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

func TestIssueSessionSignsAndExpires(t *testing.T) {
	signer, err := token.NewHMACSigner("fanvault-test", "0123456789abcdef0123456789abcdef")
	if err != nil {
		t.Fatalf("signer: %v", err)
	}
	now := time.Now().UTC().Truncate(time.Second)
	useCase := IssueSessionUseCase{Signer: signer, Secrets: token.RandomSecrets{}, Clock: fixedClock{now: now}, TTL: time.Hour}

	issued, err := useCase.Execute(context.Background(), IssueSessionCommand{UserID: "u1", Role: "creator"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if issued.Token == "" || issued.CSRFToken == "" {
		t.Fatal("expected token and csrf value")
	}
	if !issued.ExpiresAt.Equal(now.Add(time.Hour)) {
		t.Fatalf("unexpected expiry %s", issued.ExpiresAt)
	}
	claims, err := signer.Parse(issued.Token)
	if err != nil || claims.UserID != "u1" {
		t.Fatalf("parse issued token: %+v %v", claims, err)
	}
}

func TestIssueSessionRequiresUserID(t *testing.T) {
	signer, _ := token.NewEphemeralHMACSigner("")
	useCase := IssueSessionUseCase{Signer: signer, Secrets: token.RandomSecrets{}}
	if _, err := useCase.Execute(context.Background(), IssueSessionCommand{UserID: "  "}); !errors.Is(err, domainerrors.ErrInvalidUserID) {
		t.Fatalf("expected ErrInvalidUserID, got %v", err)
	}
}
