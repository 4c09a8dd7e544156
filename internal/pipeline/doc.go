// Package pipeline drives a single media job through fixed-size windows.
//
// The Driver loads or initializes the job checkpoint, probes the media
// duration, calls the transcriber once per window, folds the returned
// segments into the global timeline, captures frames for qualifying
// segments, and saves after every window so an interrupted job resumes from
// the last completed window. Lifecycle events are published to an Observer;
// the package ships a logging observer and a fan-out helper.
package pipeline
