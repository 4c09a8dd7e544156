package main

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"scrivener/internal/checkpoint"
	"scrivener/internal/services"
)

// findCheckpoints returns every checkpoint file under root, sorted.
func findCheckpoints(root string) ([]string, error) {
	var found []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if strings.HasSuffix(d.Name(), checkpoint.FileSuffix) {
			found = append(found, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(found)
	return found, nil
}

// resolveCheckpointArg accepts a checkpoint file or a directory holding
// exactly one checkpoint.
func resolveCheckpointArg(arg string) (string, error) {
	path := strings.TrimSpace(arg)
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", services.Wrap(services.ErrNotFound, "cli", "checkpoint", path, err)
		}
		return "", services.Wrap(services.ErrValidation, "cli", "checkpoint", path, err)
	}
	if !info.IsDir() {
		return path, nil
	}
	entries, err := filepath.Glob(filepath.Join(path, "*"+checkpoint.FileSuffix))
	if err != nil {
		return "", services.Wrap(services.ErrValidation, "cli", "checkpoint", path, err)
	}
	switch len(entries) {
	case 0:
		return "", services.Wrap(services.ErrNotFound, "cli", "checkpoint", "no checkpoint in "+path, nil)
	case 1:
		return entries[0], nil
	default:
		sort.Strings(entries)
		return "", services.Wrap(services.ErrValidation, "cli", "checkpoint",
			fmt.Sprintf("%d checkpoints in %s; pass one of: %s", len(entries), path, strings.Join(entries, ", ")), nil)
	}
}
