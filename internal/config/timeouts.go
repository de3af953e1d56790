package config

import "time"

// Timeouts bounds the hub's long-latency operations. Without them a wedged
// tool server or provider would hang a request forever.
type Timeouts struct {
	Handshake time.Duration // subprocess launch + initialize handshake
	ModelCall time.Duration // each of the two dispatch model calls
	ToolCall  time.Duration // one tools/call invocation
}

func DefaultTimeouts() Timeouts {
	return Timeouts{
		Handshake: 15 * time.Second,
		ModelCall: 120 * time.Second,
		ToolCall:  30 * time.Second,
	}
}
