package services

import (
	"fanvault/contexts/identity-access/onboarding-service/domain/entities"
	domainerrors "fanvault/contexts/identity-access/onboarding-service/domain/errors"
)

// Event drives a lifecycle transition.
type Event string

const (
	EventVerifyEmail Event = "verify_email"
	EventStartKYC    Event = "start_kyc"
	EventApprove     Event = "approve"
	EventReject      Event = "reject"
	EventSuspend     Event = "suspend"
	EventActivate    Event = "activate"
)

// Transition returns the state account moves to when event fires.
// Forced transitions do not go through here; see ForceState.
func Transition(account entities.CreatorAccount, event Event) (entities.OnboardingState, error) {
	from := account.OnboardingState
	if _, ok := entities.ParseOnboardingState(string(from)); !ok {
		return "", domainerrors.ErrInvalidTargetState
	}

	switch event {
	case EventVerifyEmail:
		switch from {
		case entities.StateCreated:
			return entities.StateEmailVerified, nil
		case entities.StateEmailVerified, entities.StateKYCPending, entities.StateKYCApproved,
			entities.StateKYCRejected, entities.StateSuspended:
			return "", domainerrors.ErrInvalidState
		}
	case EventStartKYC:
		switch from {
		case entities.StateEmailVerified, entities.StateKYCRejected:
			return entities.StateKYCPending, nil
		case entities.StateCreated, entities.StateKYCPending, entities.StateKYCApproved, entities.StateSuspended:
			return "", domainerrors.ErrInvalidStateForKYC
		}
	case EventApprove, EventReject:
		switch from {
		case entities.StateKYCPending:
			if event == EventApprove {
				return entities.StateKYCApproved, nil
			}
			return entities.StateKYCRejected, nil
		case entities.StateCreated, entities.StateEmailVerified, entities.StateKYCApproved,
			entities.StateKYCRejected, entities.StateSuspended:
			return "", domainerrors.ErrInvalidState
		}
	case EventSuspend:
		switch from {
		case entities.StateSuspended:
			return "", domainerrors.ErrInvalidState
		case entities.StateCreated, entities.StateEmailVerified, entities.StateKYCPending,
			entities.StateKYCApproved, entities.StateKYCRejected:
			return entities.StateSuspended, nil
		}
	case EventActivate:
		switch from {
		case entities.StateSuspended:
			prior, ok := entities.ParseOnboardingState(string(account.SuspendedFrom))
			if !ok || prior == entities.StateSuspended {
				return entities.StateCreated, nil
			}
			return prior, nil
		case entities.StateCreated, entities.StateEmailVerified, entities.StateKYCPending,
			entities.StateKYCApproved, entities.StateKYCRejected:
			return "", domainerrors.ErrInvalidState
		}
	}
	return "", domainerrors.ErrInvalidState
}

// VerdictEvent maps a provider verdict onto its lifecycle event.
func VerdictEvent(verdict entities.Verdict) (Event, error) {
	switch verdict {
	case entities.VerdictApproved:
		return EventApprove, nil
	case entities.VerdictRejected:
		return EventReject, nil
	case entities.VerdictVoided:
		return "", domainerrors.ErrInvalidVerdict
	}
	return "", domainerrors.ErrInvalidVerdict
}

// ForceState is the admin override path. Any known target is accepted.
// voidOpenSession reports whether an open verification session must be closed.
func ForceState(account entities.CreatorAccount, target entities.OnboardingState) (next entities.OnboardingState, voidOpenSession bool, err error) {
	if _, ok := entities.ParseOnboardingState(string(target)); !ok {
		return "", false, domainerrors.ErrInvalidTargetState
	}
	switch target {
	case entities.StateKYCPending, entities.StateSuspended:
		return target, false, nil
	case entities.StateCreated, entities.StateEmailVerified, entities.StateKYCApproved, entities.StateKYCRejected:
		return target, true, nil
	}
	return "", false, domainerrors.ErrInvalidTargetState
}
