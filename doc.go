// Package clinic implements the authentication and role-authorization
// pipeline of a clinic-management REST API plus the user/appointment
// records it protects.
//
// Request pipeline:
//   - middleware/jwtware extracts and validates the bearer token and
//     stores the structured claims in the request locals.
//   - RequireIdentity resolves the token subject against the live user
//     store on every request; the resolved identity, not the token's
//     embedded role, is what authorization decisions trust.
//   - RequireRoles checks the resolved identity's role against the
//     route's declared RoleSet.
//
// Account lifecycle:
//   - Registration and login are handled by command handlers that hash
//     credentials explicitly before any store write. There are no
//     implicit hash-on-save hooks; password re-hashing happens only when
//     an update payload actually carries a new password.
//
// Errors are rich go-errors values tagged with a category and text
// code. The HTTP layer owns the single mapping from category to status
// and response envelope; nothing below it writes responses.
package clinic
