package billing

import (
	"context"
	"log/slog"
	"strings"

	domainerrors "fanvault/contexts/content-access/entitlement-service/domain/errors"
	"fanvault/contexts/content-access/entitlement-service/ports"

	"github.com/google/uuid"
)

const defaultCurrency = "usd"

// LocalBilling issues payment intents without calling a provider. Purchases
// still arrive through the internal ingest route.
type LocalBilling struct {
	Currency string
	Logger   *slog.Logger
}

func (b LocalBilling) CreatePaymentIntent(_ context.Context, request ports.PaymentIntentRequest) (ports.PaymentIntent, error) {
	if request.AmountCents <= 0 || strings.TrimSpace(request.PostID) == "" {
		return ports.PaymentIntent{}, domainerrors.ErrBillingUnavailable
	}
	currency := strings.ToLower(strings.TrimSpace(b.Currency))
	if currency == "" {
		currency = defaultCurrency
	}
	intentID := "pi_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	intent := ports.PaymentIntent{
		IntentID:     intentID,
		ClientSecret: intentID + "_secret_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:16],
		AmountCents:  request.AmountCents,
		Currency:     currency,
	}
	logger := b.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Debug("local payment intent issued",
		"event", "billing_local_intent_issued",
		"module", "content-access/entitlement-service",
		"layer", "adapter",
		"intent_id", intent.IntentID,
		"post_id", request.PostID,
		"amount_cents", request.AmountCents,
	)
	return intent, nil
}
