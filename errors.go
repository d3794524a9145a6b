package authguard

import "errors"

var (
	// ErrAbsentCredential reports a missing token or profile.
	ErrAbsentCredential = errors.New("credential absent")
	// ErrCorruptProfile reports a stored profile that is not well-formed JSON.
	ErrCorruptProfile = errors.New("profile corrupt")
	// ErrTokenInvalid reports a malformed or expired token.
	ErrTokenInvalid = errors.New("token invalid or expired")
	// ErrInactivityExpired reports a session ended by the inactivity countdown.
	ErrInactivityExpired = errors.New("session expired after inactivity")
	// ErrLogoutDeclined reports a logout the user did not confirm.
	ErrLogoutDeclined = errors.New("logout declined")
	// ErrCrossTabLogout reports a session cleared by another page sharing the store.
	ErrCrossTabLogout = errors.New("session cleared elsewhere")
	// ErrGuardNotReady reports a nil guard, one that did not come from Build.
	ErrGuardNotReady = errors.New("guard not initialized")
	// ErrGuardTerminated reports an event delivered after the page navigated away.
	ErrGuardTerminated = errors.New("guard terminated by redirect")
)
