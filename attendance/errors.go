package attendance

import "errors"

var (
	// ErrScopeViolation means the caller tried to mark or view a kid outside
	// their resolved access scope. The whole operation is rejected.
	ErrScopeViolation = errors.New("kid outside access scope")

	// ErrNotFound means a referenced kid, program or user does not exist.
	ErrNotFound = errors.New("not found")
)
