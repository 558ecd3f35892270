// Package auth resolves bearer credentials into an authenticated identity.
// Token issuance lives outside this service; only validation happens here.
package auth

import "slices"

// Identity is the pre-resolved authenticated principal: the username and
// role set extracted from a validated credential. It is threaded explicitly
// into every lifecycle-service call instead of living in ambient state.
type Identity struct {
	Username string
	Roles    []string
}

// IsZero reports whether the identity carries no principal.
func (i Identity) IsZero() bool {
	return i.Username == ""
}

// HasRole reports whether the identity carries the given role.
func (i Identity) HasRole(role string) bool {
	return slices.Contains(i.Roles, role)
}
