// Package jobs records every pipeline run in a SQLite registry.
//
// The Store opens jobs.db under the configured state directory, creates the
// schema on first use, and exposes create/update/list/prune helpers. A
// Recorder adapts the Store to pipeline.Observer so runs are tracked without
// the driver knowing the registry exists. Registry failures are logged and
// never change a job's outcome.
//
// Schema changes bump schemaVersion in schema.go; users delete jobs.db to
// adopt the new schema.
package jobs
