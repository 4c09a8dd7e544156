package preflight

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"

	"scrivener/internal/config"
	"scrivener/internal/deps"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckWritableTarget passes when path is an accessible directory, or when it
// does not exist yet but its nearest existing ancestor is writable.
func CheckWritableTarget(name, path string) Result {
	if _, err := os.Stat(path); err == nil || !os.IsNotExist(err) {
		return CheckDirectoryAccess(name, path)
	}
	parent := filepath.Dir(filepath.Clean(path))
	for {
		if _, err := os.Stat(parent); err == nil {
			break
		}
		next := filepath.Dir(parent)
		if next == parent {
			break
		}
		parent = next
	}
	if err := unix.Access(parent, unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: cannot create under %s: %v)", path, parent, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (will be created)", path)}
}

// CheckSystemDeps evaluates the external tools required by the configuration.
func CheckSystemDeps(cfg *config.Config) []deps.Status {
	requirements := []deps.Requirement{
		{
			Name:        "Transcriber",
			Command:     cfg.Transcriber.Binary,
			Description: "Required for speech recognition",
		},
		{
			Name:        "FFmpeg",
			Command:     cfg.Frames.FFmpegBinary,
			Description: "Required for frame capture",
		},
		{
			Name:        "FFprobe",
			Command:     cfg.Probe.FFprobeBinary,
			Description: "Duration probing; falls back to pipeline.fallback_duration_seconds",
			Optional:    !cfg.Pipeline.StrictDuration,
		},
	}
	return deps.CheckBinaries(requirements)
}
