// Package protocol owns the plot wire contract shared by publishers and consumers.
//
// Ownership boundary:
// - header field marker and sentinel frames
// - frame kinds used for classification (metrics, capture files)
// - sentinel errors matched with errors.Is
//
// A batch on the wire is:
//
//	(header, payload) x N, commands, "finalize"
//
// and a session ends with a single "exit" frame.
package protocol
