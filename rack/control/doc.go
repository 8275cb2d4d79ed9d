// Package control serialises control-path work on a rack.Context.
//
// A Dispatcher owns a single worker goroutine. Every chain edit, entry
// construction and parameter push runs on it, so the context's queues see
// exactly one producer. Entries are addressed by the uuid the context gave
// them. Removed and replaced entries are retired and reaped on a ticker once
// the real-time path has moved past them.
package control
