// Package progress tracks and renders the progress of a ranged download.
//
// A Tracker holds one counter per worker. Workers add to their own counter as
// bytes reach disk; a Reporter polls every counter at a fixed interval and
// hands a Snapshot to a Renderer until the counters add up to the total size.
//
// # Renderers
//
//   - TerminalRenderer redraws one line per worker plus an aggregate line in
//     place, using VT100 cursor movement.
//   - LogRenderer emits structured log entries instead, for pipes, CI and tests.
package progress
