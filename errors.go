package swimcore

import (
	"errors"
	"fmt"

	cerrdefs "github.com/containerd/errdefs"
)

// Error kinds named in the error-handling design:
//
//   - Decode errors (Truncated, UnknownType) are never surfaced to a
//     caller — a malformed datagram is indistinguishable from a corrupted
//     one on a best-effort transport, so the dispatcher drops it silently
//     and only logs at debug level.
//   - Transport errors on send are ignored (best-effort); on receive they
//     bubble up to whatever drives the tick loop.
//   - Bootstrap errors are fatal at process start.
//   - Invariant violations indicate a programming error and are fatal.
//
// Each is classified via containerd/errdefs so a caller can branch on
// category (errdefs.IsInvalidArgument, errdefs.IsUnavailable, ...) instead
// of string-matching or type-asserting a concrete local type.
var (
	ErrTruncated    = fmt.Errorf("swimcore: truncated payload: %w", cerrdefs.ErrInvalidArgument)
	ErrUnknownType  = fmt.Errorf("swimcore: unknown message type: %w", cerrdefs.ErrInvalidArgument)
	ErrTransport    = fmt.Errorf("swimcore: transport unavailable: %w", cerrdefs.ErrUnavailable)
	ErrBootstrap    = fmt.Errorf("swimcore: bootstrap failed: %w", cerrdefs.ErrFailedPrecondition)
	ErrInvariant    = fmt.Errorf("swimcore: invariant violation: %w", cerrdefs.ErrInternal)
)

// DecodeError wraps ErrTruncated or ErrUnknownType with the offending
// context. It is never returned to a Node's caller — see drainInbound.
func DecodeError(sentinel error, detail string) error {
	return fmt.Errorf("%s: %w", detail, sentinel)
}

// TransportError wraps a send/receive failure reported by the Transport
// collaborator.
func TransportError(op string, cause error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrTransport, cause)
}

// BootstrapError wraps a fatal initialize()/introduce() failure.
func BootstrapError(op string, cause error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrBootstrap, cause)
}

// InvariantViolation wraps a detected programming error, e.g. a duplicate
// self entry or a failure timeout configured at or past the removal
// timeout.
func InvariantViolation(detail string) error {
	return fmt.Errorf("%s: %w", detail, ErrInvariant)
}

// IsDecodeError reports whether err is a (never user-visible) decode failure.
func IsDecodeError(err error) bool { return errors.Is(err, ErrTruncated) || errors.Is(err, ErrUnknownType) }

// IsTransportError reports whether err originated in the Transport collaborator.
func IsTransportError(err error) bool { return errors.Is(err, ErrTransport) }

// IsBootstrapError reports whether err is a fatal startup failure.
func IsBootstrapError(err error) bool { return errors.Is(err, ErrBootstrap) }

// IsInvariantViolation reports whether err indicates a programming error.
func IsInvariantViolation(err error) bool { return errors.Is(err, ErrInvariant) }
