// Package rack hosts an ordered chain of native audio-effect plugin
// instances and drives multichannel audio through it once per processing
// cycle.
//
// Two execution contexts share a Context. The control path creates and
// disposes entries (Context.Instantiate, Context.Dispose), edits the Chain
// and pushes parameter values. The real-time path calls Context.Process once
// per cycle; it never blocks, locks or allocates. Parameter values cross
// between the two through fifo.Queue instances only, and chain edits are
// published as immutable order snapshots so a cycle sees the chain either
// entirely before or entirely after an edit.
//
// Entries removed from the chain must not be disposed until a cycle has
// completed after the removal. Context.Retire and Context.Reap implement
// that deferral.
package rack
