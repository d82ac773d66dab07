// Package engine is the job orchestration core: a single command loop that
// accepts asynchronous commands, runs a bounded number of downloads
// concurrently, tracks per-job cancellation, and reports outcomes through an
// event channel.
//
// The engine never holds job state. Callers fold the narrow events it emits
// (Started, FormatsReady, Progress, Completed, Failed) into their own job
// collection; download tasks reference jobs only by identifier. The two
// pieces of state shared between the coordinator and its tasks are the
// resizable permit pool and the cancellation registry, both safe for
// concurrent use.
//
// Per job, events arrive in task-local order: Started, zero or more Progress
// samples, then exactly one terminal event. No ordering holds across jobs.
// Command submission and event delivery are both lossy under backpressure;
// callers re-issue commands and re-render from their own state.
package engine
