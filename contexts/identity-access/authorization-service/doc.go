// Package authorization implements session issuance and the role/capability
// guard for fanvault.
//
// Layering:
//   - domain: roles, capabilities, principal, policy engine, errors
//   - application: session and guard commands/queries using explicit ports
//   - ports: token signer, secret source, principal directory
//   - adapters: HTTP handler, in-memory directory, HS256 token signer
//   - transport: module-private DTOs for HTTP contracts
//
// Boundary notes:
//   - The principal directory is implemented outside this module over the
//     onboarding account store; domain/application never import it.
//   - A token's embedded role is never used for authorization decisions.
package authorization
