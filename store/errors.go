package store

import "errors"

// ErrNotFound is the expected miss: no record matches the lookup. It is a
// normal outcome for verification and for "no existing certificate" checks,
// never a transport failure.
var ErrNotFound = errors.New("certificate not found")

// ErrRemoteUnavailable wraps transport and availability failures of the
// remote store. Callers fall back to the local store when they see it.
var ErrRemoteUnavailable = errors.New("remote certificate store unavailable")
