// Package notifications pushes job outcomes to an ntfy topic.
//
// Transcribing a long recording can take hours, so the CLI can announce when
// a job completes, is interrupted or fails. NewService returns a no-op when
// no topic is configured. Observer adapts a Service to the pipeline's
// lifecycle events; delivery failures are logged and never affect the job.
package notifications
