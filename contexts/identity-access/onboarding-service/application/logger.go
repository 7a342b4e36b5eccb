package application

import "log/slog"

// ResolveLogger falls back to the process default, tagged with the service
// name, when a use case was built without a logger.
func ResolveLogger(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return slog.Default().With("service", "onboarding-service")
}
