// Package iam centralizes the panel's identity and session operations:
//
//   - Login/logout and per-request session validation (dual representation:
//     signed client token + server-side session record)
//   - Owner bootstrap from process configuration
//   - Impersonation (a privileged actor temporarily assuming another
//     identity's session)
//   - Identity CRUD with storage-key migration on rename
//
// The server-side session record is the single source of truth; the client
// token is a capability reference whose authorization-relevant fields are
// re-derived here on every request.
package iam
