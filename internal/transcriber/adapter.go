package transcriber

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"scrivener/internal/interrupt"
	"scrivener/internal/logging"
	"scrivener/internal/services"
)

// LocalSegment is one recognized utterance with timestamps as reported by
// the engine.
type LocalSegment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Transcriber produces segments for one window of a media file.
type Transcriber interface {
	TranscribeWindow(ctx context.Context, mediaPath string, windowStart float64) ([]LocalSegment, error)
}

// CommandRunner executes name with args and returns its stdout.
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

// Options configures the command adapter.
type Options struct {
	Binary       string
	Model        string
	OutputFormat string
	ExtraArgs    []string
	// ResultDir receives the engine's result file. Empty means the media's directory.
	ResultDir string
	// Timeout bounds a single invocation; zero disables it.
	Timeout time.Duration
}

// Adapter runs an external transcription command.
type Adapter struct {
	opts          Options
	logger        *slog.Logger
	commandRunner CommandRunner
}

// New constructs an Adapter.
func New(opts Options, logger *slog.Logger) *Adapter {
	if strings.TrimSpace(opts.Binary) == "" {
		opts.Binary = "mlx_whisper"
	}
	if strings.TrimSpace(opts.OutputFormat) == "" {
		opts.OutputFormat = "json"
	}
	return &Adapter{
		opts:          opts,
		logger:        logging.NewComponentLogger(logger, "transcriber"),
		commandRunner: runCommand,
	}
}

// WithCommandRunner sets a custom command runner (for testing).
func (a *Adapter) WithCommandRunner(runner CommandRunner) {
	if runner != nil {
		a.commandRunner = runner
	}
}

// Binary returns the configured engine executable.
func (a *Adapter) Binary() string {
	return a.opts.Binary
}

// TranscribeWindow invokes the engine on the full media file. windowStart is
// informational; callers offset the returned timestamps themselves.
func (a *Adapter) TranscribeWindow(ctx context.Context, mediaPath string, windowStart float64) ([]LocalSegment, error) {
	logger := logging.WithContext(ctx, a.logger)
	if strings.TrimSpace(mediaPath) == "" {
		return nil, services.Wrap(services.ErrValidation, "transcriber", "run", "media path required", nil)
	}
	resultDir := a.resultDir(mediaPath)
	args := a.buildArgs(mediaPath, resultDir)

	runCtx := ctx
	if a.opts.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, a.opts.Timeout)
		defer cancel()
	}

	logger.Debug("invoking transcriber",
		logging.String("binary", a.opts.Binary),
		logging.Float64("window_start", windowStart),
		logging.String("args", strings.Join(args, " ")),
	)
	started := time.Now()
	stdout, err := a.commandRunner(runCtx, a.opts.Binary, args...)
	if err != nil {
		return nil, a.classify(ctx, runCtx, err)
	}
	logger.Debug("transcriber finished", logging.Duration("elapsed", time.Since(started)))

	if segments, ok := parseStdout(stdout); ok {
		return segments, nil
	}

	resultPath := ResultPath(mediaPath, resultDir)
	segments, fileErr := loadResultFile(resultPath)
	if fileErr == nil {
		logger.Debug("transcriber result recovered from file", logging.String("path", resultPath))
		return segments, nil
	}

	logging.WarnWithContext(logger, "transcriber output could not be parsed", "transcriber_parse_failed",
		logging.String("result_path", resultPath),
		logging.Error(fileErr),
		logging.String(logging.FieldErrorHint, "run the engine manually and confirm it emits JSON"),
		logging.String(logging.FieldImpact, "window recorded with no segments"),
	)
	return []LocalSegment{}, nil
}

func (a *Adapter) classify(parent, runCtx context.Context, err error) error {
	switch {
	case parent.Err() != nil:
		return services.Wrap(services.ErrExternalTool, "transcriber", "run", "cancelled", errors.Join(parent.Err(), err))
	case errors.Is(runCtx.Err(), context.DeadlineExceeded):
		return services.Wrap(services.ErrTimeout, "transcriber", "run",
			fmt.Sprintf("exceeded %s", a.opts.Timeout), err)
	default:
		return services.Wrap(services.ErrExternalTool, "transcriber", "run", a.opts.Binary, err)
	}
}

func (a *Adapter) resultDir(mediaPath string) string {
	if dir := strings.TrimSpace(a.opts.ResultDir); dir != "" {
		return dir
	}
	return filepath.Dir(mediaPath)
}

// buildArgs constructs the engine command line.
func (a *Adapter) buildArgs(mediaPath, resultDir string) []string {
	args := make([]string, 0, 8+len(a.opts.ExtraArgs))
	args = append(args,
		mediaPath,
		"--output-format", a.opts.OutputFormat,
		"--output-dir", resultDir,
	)
	if model := strings.TrimSpace(a.opts.Model); model != "" {
		args = append(args, "--model", model)
	}
	args = append(args, a.opts.ExtraArgs...)
	return args
}

// ResultPath returns the sibling result file the engine writes for mediaPath.
func ResultPath(mediaPath, resultDir string) string {
	base := filepath.Base(mediaPath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(resultDir, stem+".json")
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := interrupt.Shield(exec.CommandContext(ctx, name, args...)) //nolint:gosec
	var stderr strings.Builder
	cmd.Stderr = &stderr
	output, err := cmd.Output()
	if err != nil {
		return output, fmt.Errorf("%s: %w: %s", name, err, lastLines(stderr.String(), 5))
	}
	return output, nil
}

func lastLines(value string, n int) string {
	lines := strings.Split(strings.TrimSpace(value), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, " | ")
}
