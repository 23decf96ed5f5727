// Package security holds the process and file system guards of the server:
// the non-root check and the allowed-roots jail for ARXML files.
package security

import (
	"errors"
	"os"
)

// ErrRunningAsRoot is returned when the process effective user ID is 0 (root).
var ErrRunningAsRoot = errors.New("refusing to run as root: run the tool server as a non-root user")

// effectiveUIDGetter reports the effective UID; -1 on platforms without one.
var effectiveUIDGetter func() int = os.Geteuid

// EffectiveUIDGetter returns the platform effective-UID getter for use with RequireNonRoot.
func EffectiveUIDGetter() func() int {
	return effectiveUIDGetter
}

// RequireNonRoot returns an error if the effective user ID from the given getter is 0 (root).
// Callers pass a getter (e.g. EffectiveUIDGetter() or a test double) so the check is testable.
func RequireNonRoot(euidGetter func() int) error {
	if euidGetter == nil {
		return nil
	}
	if euidGetter() == 0 {
		return ErrRunningAsRoot
	}
	return nil
}
