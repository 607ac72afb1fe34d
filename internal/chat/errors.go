package chat

import "errors"

// The error taxonomy of the sync core. Everything else degrades locally
// (stale-but-displayed state, reconnect-and-reload); only these reach
// callers, and only ErrNotAuthenticated and ErrWriteFailed are meant for the
// end user — both are actionable ("sign in" / "try again").
var (
	// ErrNotAuthenticated: no signed-in user. Mutating operations reject
	// immediately, before any I/O.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrWriteFailed: the gateway write failed. Never retried here — the
	// caller decides, since the user may want to re-edit first. Callers
	// must keep composer content on this error.
	ErrWriteFailed = errors.New("write failed")

	// ErrReadFailed: a directory or window load failed. The component keeps
	// its last-known-good state, so a transient failure never blanks the UI.
	ErrReadFailed = errors.New("read failed")
)
