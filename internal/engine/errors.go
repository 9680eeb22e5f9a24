package engine

import (
	"errors"
	"fmt"

	pkgerrors "github.com/pkg/errors"
)

// Every error below is fatal to the current run. Resuming is only possible from
// persisted counters, never from a partially applied draw or hook chain.
var (
	ErrInvalidChannel  = errors.New("invalid random channel")
	ErrInvalidSeed     = errors.New("invalid seed")
	ErrDuplicateKey    = errors.New("duplicate key in insertion sequence")
	ErrUntrackedLayout = errors.New("hash table layout not modelled")
	ErrUnknownPool     = errors.New("unknown pool")
	ErrEmptyPool       = errors.New("pool is empty")
	ErrUnknownHook     = errors.New("unknown hook")
	ErrHookKind        = errors.New("hook kind mismatch")
	ErrHandlerFailure  = errors.New("hook handler failed")
)

func invalidChannel(raw string) error {
	return pkgerrors.Wrapf(ErrInvalidChannel, "channel %q", raw)
}

// HandlerError reports a handler that failed mid-chain. Handlers after it were not run.
type HandlerError struct {
	Hook    HookName
	Handler string
	Owner   Owner
	Err     error
}

func (e *HandlerError) Error() string {
	return fmt.Sprintf("hook %s: handler %s (%s): %v", e.Hook, e.Handler, e.Owner, e.Err)
}

// Unwrap exposes the handler's own error so callers can match it directly.
func (e *HandlerError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrHandlerFailure) match any handler failure.
func (e *HandlerError) Is(target error) bool { return target == ErrHandlerFailure }
