// Package user carries the authenticated caller identity handed to the HTTP
// layer by the token verifier.
package user

// Principal identifies the authenticated user behind a request. Only the ID
// matters for authorization; the display name is informational.
type Principal struct {
	UserID string
	Name   string
}
