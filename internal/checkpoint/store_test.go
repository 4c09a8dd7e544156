package checkpoint_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"scrivener/internal/checkpoint"
	"scrivener/internal/logging"
	"scrivener/internal/services"
)

var fastRetry = checkpoint.RetryPolicy{
	InitialInterval: time.Millisecond,
	MaxInterval:     2 * time.Millisecond,
	MaxElapsedTime:  20 * time.Millisecond,
}

func newStore(opts ...checkpoint.Option) *checkpoint.Store {
	opts = append([]checkpoint.Option{checkpoint.WithRetryPolicy(fastRetry)}, opts...)
	return checkpoint.NewStore(logging.NewNop(), opts...)
}

func sampleCheckpoint(outputDir string) *checkpoint.Checkpoint {
	cp := checkpoint.New("/media/talks/intro.mp4", outputDir)
	cp.Transcript = append(cp.Transcript,
		checkpoint.Segment{Start: 1.5, End: 4, Text: "Welcome to the session"},
		checkpoint.Segment{Start: 301, End: 305.25, Text: "Second window begins here with a longer line"},
	)
	cp.Frames = append(cp.Frames, checkpoint.FrameCapture{
		Timestamp: 301,
		File:      filepath.Join(outputDir, "screenshot_0000.jpg"),
		Caption:   "Second window begins here with a longer line",
	})
	cp.Cursor = 600
	cp.State = checkpoint.StateProcessing
	return cp
}

func TestPathForUsesStem(t *testing.T) {
	got := checkpoint.PathFor("/media/talks/intro.final.mp4", "/out")
	if got != filepath.Join("/out", "intro.final_checkpoint.json") {
		t.Fatalf("unexpected path %q", got)
	}
}

func TestLoadMissingReturnsNil(t *testing.T) {
	store := newStore()
	cp, err := store.Load(context.Background(), "/media/none.mp4", t.TempDir())
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cp != nil {
		t.Fatalf("expected nil checkpoint, got %+v", cp)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "out")
	store := newStore()
	original := sampleCheckpoint(dir)

	if err := store.Save(context.Background(), original); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := store.Load(context.Background(), original.SourcePath, dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(loaded, original) {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", loaded, original)
	}

	// Idempotent reload: saving the loaded value changes nothing on disk.
	before, _ := os.ReadFile(original.Path())
	if err := store.Save(context.Background(), loaded); err != nil {
		t.Fatalf("second Save: %v", err)
	}
	after, _ := os.ReadFile(original.Path())
	if string(before) != string(after) {
		t.Fatalf("reload-save changed file:\n%s\n---\n%s", before, after)
	}
}

func TestSaveWritesDocumentedFormat(t *testing.T) {
	dir := t.TempDir()
	store := newStore()
	cp := checkpoint.New("/media/a.mov", dir)
	if err := store.Save(context.Background(), cp); err != nil {
		t.Fatalf("Save: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "a_checkpoint.json"))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	text := string(data)
	for _, want := range []string{
		`"video_path": "/media/a.mov"`,
		`"transcription": []`,
		`"screenshots": []`,
		`"current_time": 0`,
		`"status": "not_started"`,
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("expected %s in\n%s", want, text)
		}
	}
	if strings.Contains(text, "OutputDir") {
		t.Fatalf("output dir must not be serialized:\n%s", text)
	}
}

func TestLoadCorruptFileIsRecoverable(t *testing.T) {
	dir := t.TempDir()
	path := checkpoint.PathFor("/media/b.mp4", dir)
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	store := newStore()
	cp, err := store.Load(context.Background(), "/media/b.mp4", dir)
	if cp != nil {
		t.Fatalf("expected nil checkpoint for corrupt file, got %+v", cp)
	}
	var corrupt *checkpoint.CorruptError
	if !errors.As(err, &corrupt) {
		t.Fatalf("expected CorruptError, got %v", err)
	}
	if corrupt.Path != path {
		t.Fatalf("unexpected corrupt path %q", corrupt.Path)
	}
}

func TestLoadRejectsUnknownStatus(t *testing.T) {
	dir := t.TempDir()
	path := checkpoint.PathFor("/media/c.mp4", dir)
	body := `{"video_path":"/media/c.mp4","transcription":[],"screenshots":[],"current_time":0,"status":"exploded"}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := newStore().Load(context.Background(), "/media/c.mp4", dir)
	var corrupt *checkpoint.CorruptError
	if !errors.As(err, &corrupt) {
		t.Fatalf("expected CorruptError, got %v", err)
	}
}

func TestSaveFailureLeavesPreviousFileAndMemory(t *testing.T) {
	dir := t.TempDir()
	good := newStore()
	cp := sampleCheckpoint(dir)
	if err := good.Save(context.Background(), cp); err != nil {
		t.Fatalf("Save: %v", err)
	}
	before, _ := os.ReadFile(cp.Path())

	attempts := 0
	failing := newStore(checkpoint.WithWriter(func(string, []byte, os.FileMode) error {
		attempts++
		return errors.New("disk full")
	}))
	cp.Cursor = 900
	snapshot := cp.Clone()
	err := failing.Save(context.Background(), cp)
	if err == nil {
		t.Fatal("expected save error")
	}
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
	if attempts < 2 {
		t.Fatalf("expected retries, got %d attempt(s)", attempts)
	}
	if !reflect.DeepEqual(cp, snapshot) {
		t.Fatal("failed save must not mutate the checkpoint")
	}
	after, _ := os.ReadFile(cp.Path())
	if string(before) != string(after) {
		t.Fatal("failed save must not touch the previous file")
	}
}

func TestSaveRecoversAfterTransientFailure(t *testing.T) {
	dir := t.TempDir()
	calls := 0
	store := newStore(checkpoint.WithWriter(func(path string, data []byte, mode os.FileMode) error {
		calls++
		if calls == 1 {
			return errors.New("temporary")
		}
		return os.WriteFile(path, data, mode)
	}))
	if err := store.Save(context.Background(), sampleCheckpoint(dir)); err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 write attempts, got %d", calls)
	}
}

func TestMarkComplete(t *testing.T) {
	dir := t.TempDir()
	store := newStore()
	cp := sampleCheckpoint(dir)
	if err := store.MarkComplete(context.Background(), cp); err != nil {
		t.Fatalf("MarkComplete: %v", err)
	}
	loaded, err := store.Load(context.Background(), cp.SourcePath, dir)
	if err != nil || loaded == nil {
		t.Fatalf("Load: %v %v", loaded, err)
	}
	if !loaded.Completed() {
		t.Fatalf("expected completed, got %s", loaded.State)
	}

	failing := newStore(checkpoint.WithWriter(func(string, []byte, os.FileMode) error { return errors.New("nope") }))
	other := sampleCheckpoint(dir)
	if err := failing.MarkComplete(context.Background(), other); err == nil {
		t.Fatal("expected error")
	}
	if other.State != checkpoint.StateProcessing {
		t.Fatalf("state should be restored, got %s", other.State)
	}
}

func TestResetClearsStateAndFile(t *testing.T) {
	dir := t.TempDir()
	store := newStore()
	cp := sampleCheckpoint(dir)
	if err := store.Save(context.Background(), cp); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := store.Reset(context.Background(), cp); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if len(cp.Transcript) != 0 || len(cp.Frames) != 0 || cp.Cursor != 0 || cp.State != checkpoint.StateNotStarted {
		t.Fatalf("reset left state behind: %+v", cp)
	}
	if _, err := os.Stat(cp.Path()); !os.IsNotExist(err) {
		t.Fatalf("expected checkpoint file removed, stat err=%v", err)
	}
	// Resetting again with no file present is fine.
	if err := store.Reset(context.Background(), cp); err != nil {
		t.Fatalf("second Reset: %v", err)
	}
}

func TestReadFileIsStrict(t *testing.T) {
	dir := t.TempDir()
	_, err := checkpoint.ReadFile(filepath.Join(dir, "missing_checkpoint.json"))
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	bad := filepath.Join(dir, "bad_checkpoint.json")
	if err := os.WriteFile(bad, []byte("[]"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := checkpoint.ReadFile(bad); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	store := newStore()
	cp := sampleCheckpoint(dir)
	if err := store.Save(context.Background(), cp); err != nil {
		t.Fatal(err)
	}
	loaded, err := checkpoint.ReadFile(cp.Path())
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if loaded.OutputDir != dir {
		t.Fatalf("output dir should derive from file location, got %q", loaded.OutputDir)
	}
}
