package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"scrivener/internal/checkpoint"
	"scrivener/internal/services"
	"scrivener/internal/textutil"
)

// Format names an export encoding.
type Format string

const (
	FormatCSV      Format = "csv"
	FormatJSON     Format = "json"
	FormatSRT      Format = "srt"
	FormatMarkdown Format = "md"
)

// Formats lists supported formats in help order.
func Formats() []Format {
	return []Format{FormatCSV, FormatJSON, FormatSRT, FormatMarkdown}
}

// ParseFormat maps user input onto a Format. "markdown" is accepted for md.
func ParseFormat(value string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "csv":
		return FormatCSV, nil
	case "json":
		return FormatJSON, nil
	case "srt":
		return FormatSRT, nil
	case "md", "markdown":
		return FormatMarkdown, nil
	default:
		return "", services.Wrap(services.ErrValidation, "export", "format",
			fmt.Sprintf("unsupported format %q (want csv, json, srt or md)", value), nil)
	}
}

// FileName returns the default export file name for cp in format f.
func FileName(cp *checkpoint.Checkpoint, f Format) string {
	return textutil.Stem(cp.SourcePath) + "_transcript." + string(f)
}

// Write renders cp to w in format f.
func Write(w io.Writer, cp *checkpoint.Checkpoint, f Format) error {
	if cp == nil {
		return services.Wrap(services.ErrValidation, "export", "write", "nil checkpoint", nil)
	}
	switch f {
	case FormatCSV:
		return writeCSV(w, cp)
	case FormatJSON:
		return writeJSON(w, cp)
	case FormatSRT:
		return writeSRT(w, cp)
	case FormatMarkdown:
		return writeMarkdown(w, cp)
	default:
		_, err := ParseFormat(string(f))
		return err
	}
}

func writeCSV(w io.Writer, cp *checkpoint.Checkpoint) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"start", "end", "start_time", "end_time", "text"}); err != nil {
		return err
	}
	for _, seg := range cp.Transcript {
		record := []string{
			strconv.FormatFloat(seg.Start, 'f', -1, 64),
			strconv.FormatFloat(seg.End, 'f', -1, 64),
			SecondsLabel(seg.Start),
			SecondsLabel(seg.End),
			seg.Text,
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeJSON(w io.Writer, cp *checkpoint.Checkpoint) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(cp)
}

func writeSRT(w io.Writer, cp *checkpoint.Checkpoint) error {
	var b strings.Builder
	for i, seg := range cp.Transcript {
		end := seg.End
		if end <= seg.Start {
			end = seg.Start + 1
		}
		fmt.Fprintf(&b, "%d\n%s --> %s\n%s\n\n", i+1, SRTTimestamp(seg.Start), SRTTimestamp(end), seg.Text)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func writeMarkdown(w io.Writer, cp *checkpoint.Checkpoint) error {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", textutil.Stem(cp.SourcePath))
	fmt.Fprintf(&b, "- Source: `%s`\n", cp.SourcePath)
	fmt.Fprintf(&b, "- Status: %s\n", cp.State)
	fmt.Fprintf(&b, "- Processed: %s\n", ClockLabel(cp.Cursor))
	fmt.Fprintf(&b, "- Segments: %d\n", len(cp.Transcript))
	fmt.Fprintf(&b, "- Frames: %d\n", len(cp.Frames))
	b.WriteString("\n---\n\n## Transcript\n\n")
	for _, seg := range cp.Transcript {
		fmt.Fprintf(&b, "[%s-%s] %s\n\n", ClockLabel(seg.Start), ClockLabel(seg.End), seg.Text)
	}
	if len(cp.Frames) > 0 {
		b.WriteString("## Frames\n\n")
		for _, frame := range cp.Frames {
			fmt.Fprintf(&b, "![%s](%s)\n\n*%s* %s\n\n",
				ClockLabel(frame.Timestamp), filepath.Base(frame.File), ClockLabel(frame.Timestamp), frame.Caption)
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// SecondsLabel renders seconds with one decimal and an "s" suffix.
func SecondsLabel(seconds float64) string {
	return strconv.FormatFloat(seconds, 'f', 1, 64) + "s"
}

// SRTTimestamp renders seconds as HH:MM:SS,mmm.
func SRTTimestamp(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	msTotal := int(seconds*1000 + 0.5)
	hours := msTotal / 3_600_000
	msTotal %= 3_600_000
	minutes := msTotal / 60_000
	msTotal %= 60_000
	secs := msTotal / 1_000
	millis := msTotal % 1_000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, secs, millis)
}

// ClockLabel renders seconds as MM:SS, or HH:MM:SS past the first hour.
func ClockLabel(sec float64) string {
	if sec < 0 {
		sec = 0
	}
	d := time.Duration(sec*1000) * time.Millisecond
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}
