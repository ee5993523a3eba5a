package tracepoint

import "fmt"

// InvalidArgumentError reports a malformed user-supplied value (a bad
// tracepoint number, a bad pass count, an unparsable location).
type InvalidArgumentError struct {
	What string
}

func (e InvalidArgumentError) Error() string { return e.What }

// UnknownTracepointError reports a reference to a tracepoint number that
// does not exist in the store.
type UnknownTracepointError struct {
	Number int
}

func (e UnknownTracepointError) Error() string {
	return fmt.Sprintf("No tracepoint number %d.", e.Number)
}

// BadActionError reports a syntactically or semantically invalid action
// line, carrying the same wording the original diagnostics used.
type BadActionError struct {
	Line   string
	Reason string
}

func (e BadActionError) Error() string {
	if e.Line == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Line, e.Reason)
}

// TooComplexError reports a tracepoint whose compiled collection lists
// overflowed the target's representable regmask/memrange limits.
type TooComplexError struct {
	Number int
}

func (e TooComplexError) Error() string {
	return fmt.Sprintf("Actions for tracepoint %d too complex; please simplify.", e.Number)
}

// ProtocolError reports malformed wire data: a bad checksum, an
// unrecognized reply shape, or exhausted retry attempts.
type ProtocolError struct {
	Reason string
}

func (e ProtocolError) Error() string { return e.Reason }

// RemoteError wraps an "E..." reply the target sent back explicitly.
type RemoteError struct {
	Code string
}

func (e RemoteError) Error() string { return fmt.Sprintf("remote error: %s", e.Code) }

// UnsupportedError reports an action class the collector recognizes but
// intentionally declines to handle, matching tracepoint.c's own
// "don't know how to do LOC_ARGs yet" style diagnostics.
type UnsupportedError struct {
	Reason string
}

func (e UnsupportedError) Error() string { return e.Reason }

// NotRemoteError reports an operation that requires an active connection
// to a target attempted while none is connected.
type NotRemoteError struct{}

func (e NotRemoteError) Error() string { return "You can't do that when your target is `exec'" }

// NotFoundError reports a tfind variant that produced no matching frame.
type NotFoundError struct {
	What string
}

func (e NotFoundError) Error() string {
	if e.What == "" {
		return "Target failed to find requested trace frame."
	}
	return e.What
}

// ErrUserQuit is returned by the interactive action editor when the user
// cancels mid-entry with Ctrl-C (SIGINT). End of input (Ctrl-D) is not a
// cancellation: the editor returns the lines read so far.
type ErrUserQuit struct{}

func (e ErrUserQuit) Error() string { return "quit" }
