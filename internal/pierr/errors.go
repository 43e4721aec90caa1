// Package pierr defines the error taxonomy that crosses the boundary
// layer (FFI surface) of piercore. Every sentinel here maps to a
// documented boundary outcome: a null handle, a -1 return code, or a
// JSON error payload.
package pierr

import "errors"

var (
	// ErrInvalidArgument covers null pointers, bad UTF-8, and unknown
	// enum values at the boundary layer.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrIoError covers OS-level PTY and file I/O failures.
	ErrIoError = errors.New("io error")

	// ErrConnectTimeout is returned when the initial TCP connect to an
	// SSH host exceeds its deadline.
	ErrConnectTimeout = errors.New("connect timeout")

	// ErrHostKeyMismatch is returned when a host's presented key does
	// not match the persisted known-hosts entry. Fatal; never silently
	// accepted.
	ErrHostKeyMismatch = errors.New("host key mismatch")

	// ErrAuthFailed covers SSH authentication rejection.
	ErrAuthFailed = errors.New("authentication failed")

	// ErrUnsupported covers requested functionality that is
	// intentionally unimplemented (agent auth).
	ErrUnsupported = errors.New("unsupported")

	// ErrExecTimeout names the exec-timeout outcome. ExecCommand does not
	// return it: a timed-out command comes back as a result with exit
	// code -1 and a synthetic timeout message.
	ErrExecTimeout = errors.New("exec timed out")

	// ErrBindFailed covers local TCP listener bind failure for a port
	// forward.
	ErrBindFailed = errors.New("bind failed")

	// ErrAlreadyForwarded is returned when a local port is already in
	// use by an active forward on the same session.
	ErrAlreadyForwarded = errors.New("port already forwarded")

	// ErrNotFound covers stop/lookup operations against a port or
	// resource that does not exist.
	ErrNotFound = errors.New("not found")

	// ErrCryptoError covers AES-GCM encrypt/decrypt failures.
	ErrCryptoError = errors.New("crypto error")
)
