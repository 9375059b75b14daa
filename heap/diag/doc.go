// Package diag provides alloc.Hook implementations and log plumbing for
// watching an arena at run time.
//
//   - LogHook: structured slog output, per-event lines throttled by a token bucket
//   - Recorder: in-memory event capture for tests and the heapctl replay command
//   - Tee: fans one hook slot out to several hooks
//   - OpenLog: dated JSON log files with retention
package diag
