package logs_test

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"testing"
	"time"

	"scrivener/internal/logs"
)

func writeLog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scrivener.log")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}
	return path
}

func TestLastReturnsTrailingLines(t *testing.T) {
	path := writeLog(t, "a\nb\nc\nd\n")
	lines, offset, err := logs.Last(path, 2)
	if err != nil {
		t.Fatalf("Last: %v", err)
	}
	if !reflect.DeepEqual(lines, []string{"c", "d"}) {
		t.Fatalf("unexpected lines %q", lines)
	}
	if offset != 8 {
		t.Fatalf("offset = %d, want 8", offset)
	}

	lines, _, err = logs.Last(path, 10)
	if err != nil || len(lines) != 4 || lines[0] != "a" {
		t.Fatalf("short file: lines=%q err=%v", lines, err)
	}
}

func TestLastMissingFile(t *testing.T) {
	lines, offset, err := logs.Last(filepath.Join(t.TempDir(), "none.log"), 5)
	if err != nil || lines != nil || offset != 0 {
		t.Fatalf("expected empty result, got %q %d %v", lines, offset, err)
	}
}

func TestLastRejectsDirectory(t *testing.T) {
	if _, _, err := logs.Last(t.TempDir(), 5); err == nil {
		t.Fatal("expected error for directory")
	}
}

type sink struct {
	mu    sync.Mutex
	lines []string
}

func (s *sink) add(line string) {
	s.mu.Lock()
	s.lines = append(s.lines, line)
	s.mu.Unlock()
}

func (s *sink) snapshot() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.lines...)
}

func TestFollowEmitsAppendedCompleteLines(t *testing.T) {
	path := writeLog(t, "old\n")
	_, offset, err := logs.Last(path, 0)
	if err != nil {
		t.Fatalf("Last: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var got sink
	done := make(chan error, 1)
	go func() { done <- logs.Follow(ctx, path, offset, 20*time.Millisecond, got.add) }()

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if _, err := f.WriteString("new one\npart"); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for len(got.snapshot()) < 1 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if _, err := f.WriteString("ial\n"); err != nil {
		t.Fatal(err)
	}
	for len(got.snapshot()) < 2 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Follow: %v", err)
	}
	if want := []string{"new one", "partial"}; !reflect.DeepEqual(got.snapshot(), want) {
		t.Fatalf("followed %q want %q", got.snapshot(), want)
	}
}

func TestFollowRestartsAfterTruncation(t *testing.T) {
	path := writeLog(t, "first line that is long\n")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var got sink
	done := make(chan error, 1)
	go func() { done <- logs.Follow(ctx, path, 24, 20*time.Millisecond, got.add) }()

	if err := os.WriteFile(path, []byte("fresh\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	deadline := time.Now().Add(5 * time.Second)
	for len(got.snapshot()) < 1 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	cancel()
	<-done
	if want := []string{"fresh"}; !reflect.DeepEqual(got.snapshot(), want) {
		t.Fatalf("followed %q want %q", got.snapshot(), want)
	}
}
