package logs

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const maxLineBytes = 1024 * 1024

// DefaultPollInterval bounds how long Follow sleeps when no event arrives.
const DefaultPollInterval = 500 * time.Millisecond

// Last returns up to n trailing lines of path and the file size. A missing
// file yields no lines and offset 0.
func Last(path string, n int) ([]string, int64, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, 0, nil
		}
		return nil, 0, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, 0, fmt.Errorf("stat log file: %w", err)
	}
	if info.IsDir() {
		return nil, 0, fmt.Errorf("log path %q is a directory", path)
	}
	if n <= 0 {
		return nil, info.Size(), nil
	}

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	ring := make([]string, n)
	count, next := 0, 0
	for scanner.Scan() {
		ring[next] = scanner.Text()
		next = (next + 1) % n
		if count < n {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, 0, fmt.Errorf("read log file: %w", err)
	}

	lines := make([]string, 0, count)
	start := 0
	if count == n {
		start = next
	}
	for i := range count {
		lines = append(lines, ring[(start+i)%n])
	}
	return lines, info.Size(), nil
}

// Follow calls emit for each complete line appended to path after offset
// and returns when ctx ends. poll <= 0 uses DefaultPollInterval.
func Follow(ctx context.Context, path string, offset int64, poll time.Duration, emit func(string)) error {
	if poll <= 0 {
		poll = DefaultPollInterval
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create log watcher: %w", err)
	}
	defer watcher.Close()
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("watch log dir: %w", err)
	}

	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	for {
		offset, err = drain(path, offset, emit)
		if err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filepath.Clean(path) {
				continue
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("log watcher: %w", err)
		}
	}
}

// drain emits complete lines from offset and returns the new offset.
func drain(path string, offset int64, emit func(string)) (int64, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return offset, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return offset, fmt.Errorf("stat log file: %w", err)
	}
	if info.Size() < offset {
		offset = 0
	}
	if info.Size() == offset {
		return offset, nil
	}
	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		return offset, fmt.Errorf("seek log file: %w", err)
	}
	data, err := io.ReadAll(io.LimitReader(file, info.Size()-offset))
	if err != nil {
		return offset, fmt.Errorf("read log file: %w", err)
	}
	end := bytes.LastIndexByte(data, '\n')
	if end < 0 {
		return offset, nil
	}
	for _, line := range bytes.Split(data[:end], []byte{'\n'}) {
		emit(string(line))
	}
	return offset + int64(end) + 1, nil
}
