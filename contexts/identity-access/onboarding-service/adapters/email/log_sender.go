package email

import (
	"context"
	"log/slog"
	"strings"
	"sync"
)

// LogSender stands in for the mail delivery collaborator. It logs the
// delivery and keeps the last token per address so local runs and tests can
// complete verification without a mailbox.
type LogSender struct {
	mu     sync.Mutex
	tokens map[string]string
	logger *slog.Logger
}

func NewLogSender(logger *slog.Logger) *LogSender {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSender{tokens: make(map[string]string), logger: logger}
}

func (s *LogSender) SendVerification(_ context.Context, email string, token string) error {
	s.mu.Lock()
	s.tokens[strings.ToLower(email)] = token
	s.mu.Unlock()

	s.logger.Info("verification email queued",
		"event", "onboarding_verification_email_queued",
		"module", "identity-access/onboarding-service",
		"layer", "adapter",
		"email_domain", domainOf(email),
	)
	return nil
}

// LastToken returns the most recent token sent to email.
func (s *LogSender) LastToken(email string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	token, ok := s.tokens[strings.ToLower(email)]
	return token, ok
}

func domainOf(email string) string {
	if idx := strings.LastIndex(email, "@"); idx >= 0 {
		return email[idx+1:]
	}
	return ""
}
