package main

import (
	"errors"
	"strings"
	"testing"

	"scrivener/internal/services"
)

const fakeInspect = `cat <<'JSON'
{"streams":[
  {"index":0,"codec_name":"h264","codec_type":"video","width":1920,"height":1080},
  {"index":1,"codec_name":"aac","codec_type":"audio","channels":2}
],"format":{"filename":"talk.mp4","duration":"620.000","format_name":"mov,mp4"}}
JSON
`

func TestProbeCommandSummarizesStreams(t *testing.T) {
	env := setupCLIEnv(t)
	env.replaceTool(t, "ffprobe", fakeInspect)
	media := env.media(t, "talk.mp4")

	stdout, _, err := runCLI(t, []string{"probe", media}, env.configPath)
	if err != nil {
		t.Fatalf("probe: %v", err)
	}
	requireContains(t, stdout, "[INFO] mov,mp4")
	requireContains(t, stdout, "[INFO] 10:20")
	requireContains(t, stdout, "3 of 300s")
	requireContains(t, stdout, "1920x1080")
	requireContains(t, stdout, "2 ch")
	if strings.Contains(stdout, "no audio stream") {
		t.Fatalf("unexpected audio warning:\n%s", stdout)
	}
}

func TestProbeCommandWarnsOnSilentMedia(t *testing.T) {
	env := setupCLIEnv(t)
	env.replaceTool(t, "ffprobe", `echo '{"streams":[{"index":0,"codec_type":"video"}],"format":{"format_name":"gif"}}'`+"\n")
	media := env.media(t, "loop.gif")

	stdout, _, err := runCLI(t, []string{"probe", media}, env.configPath)
	if err != nil {
		t.Fatalf("probe: %v", err)
	}
	requireContains(t, stdout, "unknown; 3600s will be assumed")
	requireContains(t, stdout, "no audio stream")
}

func TestProbeCommandJSON(t *testing.T) {
	env := setupCLIEnv(t)
	env.replaceTool(t, "ffprobe", fakeInspect)
	media := env.media(t, "talk.mp4")

	stdout, _, err := runCLI(t, []string{"probe", "--json", media}, env.configPath)
	if err != nil {
		t.Fatalf("probe --json: %v", err)
	}
	requireContains(t, stdout, `"format_name": "mov,mp4"`)
}

func TestProbeCommandToolFailure(t *testing.T) {
	env := setupCLIEnv(t)
	env.replaceTool(t, "ffprobe", "echo boom >&2\nexit 1\n")
	media := env.media(t, "talk.mp4")

	_, _, err := runCLI(t, []string{"probe", media}, env.configPath)
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
}
