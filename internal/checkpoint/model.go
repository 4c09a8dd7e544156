package checkpoint

import (
	"path/filepath"

	"scrivener/internal/textutil"
)

// State is the persisted lifecycle state of a job.
type State string

const (
	StateNotStarted State = "not_started"
	StateProcessing State = "processing"
	StateCompleted  State = "completed"
)

// FileSuffix is appended to the source stem to form the checkpoint file name.
const FileSuffix = "_checkpoint.json"

// Segment is one transcribed utterance on the global media timeline.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// FrameCapture references a still image extracted at a segment start.
type FrameCapture struct {
	Timestamp float64 `json:"timestamp"`
	File      string  `json:"file"`
	Caption   string  `json:"text"`
}

// Checkpoint is the persisted state of a single media job.
type Checkpoint struct {
	SourcePath string         `json:"video_path"`
	Transcript []Segment      `json:"transcription"`
	Frames     []FrameCapture `json:"screenshots"`
	Cursor     float64        `json:"current_time"`
	State      State          `json:"status"`

	// OutputDir is derived from the checkpoint location and never serialized.
	OutputDir string `json:"-"`
}

// New returns an empty not-started checkpoint for source in outputDir.
func New(sourcePath, outputDir string) *Checkpoint {
	return &Checkpoint{
		SourcePath: sourcePath,
		OutputDir:  outputDir,
		Transcript: []Segment{},
		Frames:     []FrameCapture{},
		State:      StateNotStarted,
	}
}

// PathFor returns the checkpoint file location for a source in outputDir.
func PathFor(sourcePath, outputDir string) string {
	return filepath.Join(outputDir, textutil.Stem(sourcePath)+FileSuffix)
}

// Path returns where this checkpoint is persisted.
func (c *Checkpoint) Path() string {
	return PathFor(c.SourcePath, c.OutputDir)
}

// Completed reports whether the job finished every window.
func (c *Checkpoint) Completed() bool {
	return c.State == StateCompleted
}

// Clone returns a deep copy.
func (c *Checkpoint) Clone() *Checkpoint {
	if c == nil {
		return nil
	}
	clone := *c
	clone.Transcript = append([]Segment{}, c.Transcript...)
	clone.Frames = append([]FrameCapture{}, c.Frames...)
	return &clone
}

func (c *Checkpoint) restore(from *Checkpoint) {
	*c = *from.Clone()
}

func (c *Checkpoint) ensureSlices() {
	if c.Transcript == nil {
		c.Transcript = []Segment{}
	}
	if c.Frames == nil {
		c.Frames = []FrameCapture{}
	}
}
