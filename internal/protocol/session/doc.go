// Package session owns the publishing side of the plot channel.
//
// Ownership boundary:
// - channel bind and consumer bootstrap (Open)
// - command accumulation between batches (CommandBuffer)
// - batch framing and the finalize/exit sentinels (Send, Close)
//
// A Session is not safe for concurrent use. Callers that share one across
// goroutines serialize access themselves.
//
// Readiness is best effort: Open sleeps BindDelay after binding and
// ReadyDelay after launching the consumer. There is no acknowledgment, and a
// batch published before the consumer has subscribed is dropped by the PUB
// socket.
package session
