// Package entitlement implements the post catalogue and the entitlement
// resolver that decides, per viewer and per post, whether assets are revealed.
//
// Layering:
//   - domain: post and relationship entities, the pure resolver, errors
//   - application: commands/queries plus the shared snapshot-backed Entitlements
//   - ports: repository, creator directory, billing and media boundaries
//   - adapters: concrete HTTP, memory, postgres, billing and media implementations
//   - transport: module-private DTOs for HTTP contracts
//
// Subscriptions and purchases are owned by Billing and arrive through the
// internal ingest route. Creator profiles are read from onboarding.
package entitlement
