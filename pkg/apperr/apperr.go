// Package apperr names the error conditions services report to handlers.
// Handlers map these to HTTP statuses; anything unrecognized becomes a 500
// with the underlying cause logged server-side only.
package apperr

import "errors"

var (
	// ErrNotFound means the entity id does not resolve under the given tenant scope
	ErrNotFound = errors.New("not found")

	// ErrConflict means a uniqueness constraint was violated
	ErrConflict = errors.New("already exists")

	// ErrProtectedOwner means an attempt to remove a project owner's membership
	ErrProtectedOwner = errors.New("cannot remove project owner")

	// ErrInvalidCredentials is the single generic login failure; unknown email
	// and wrong password are deliberately indistinguishable
	ErrInvalidCredentials = errors.New("invalid credentials")
)
