// Package onboarding implements creator registration, email verification and
// the identity verification (KYC) lifecycle.
//
// Layering:
//   - domain: account and session entities, the lifecycle state machine, errors
//   - application: commands/queries/workers using explicit ports
//   - ports: repository, hashing, token, email and event boundaries
//   - adapters: concrete HTTP, memory, postgres, security and email implementations
//   - transport: module-private DTOs for HTTP contracts
//
// Every lifecycle write goes through AccountRepository.ApplyTransition, which
// commits the state change, session changes, audit entry and outbox event
// together or not at all.
package onboarding
