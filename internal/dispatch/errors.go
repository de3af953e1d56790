package dispatch

import "fmt"

// UnknownServerError means a namespaced tool call referenced a server with no
// running handle. Surfaced as an error result at the dispatch boundary, never
// a crash.
type UnknownServerError struct {
	Server string
}

func (e *UnknownServerError) Error() string {
	return fmt.Sprintf("server %q not connected", e.Server)
}

// InvalidArgumentsError means the model produced a tool argument payload that
// is not valid JSON.
type InvalidArgumentsError struct {
	Tool string
	Err  error
}

func (e *InvalidArgumentsError) Error() string {
	return fmt.Sprintf("invalid arguments for tool %q: %v", e.Tool, e.Err)
}

func (e *InvalidArgumentsError) Unwrap() error { return e.Err }

// TimeoutError marks a model call or tool invocation that exceeded its bound.
type TimeoutError struct {
	Op  string
	Err error
}

func (e *TimeoutError) Error() string { return fmt.Sprintf("%s timed out: %v", e.Op, e.Err) }
func (e *TimeoutError) Unwrap() error { return e.Err }

// ProviderError wraps a failed model capability call.
type ProviderError struct {
	Err error
}

func (e *ProviderError) Error() string { return fmt.Sprintf("provider call failed: %v", e.Err) }
func (e *ProviderError) Unwrap() error { return e.Err }
