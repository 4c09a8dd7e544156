package transcriber

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

type enginePayload struct {
	Segments []LocalSegment `json:"segments"`
}

// extractStructuredBlock returns stdout from the first line whose trimmed
// text begins with "{" through the end of output.
func extractStructuredBlock(stdout []byte) ([]byte, bool) {
	scanner := bufio.NewScanner(bytes.NewReader(stdout))
	scanner.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)
	var (
		block []string
		found bool
	)
	for scanner.Scan() {
		line := scanner.Text()
		if !found && strings.HasPrefix(strings.TrimSpace(line), "{") {
			found = true
		}
		if found {
			block = append(block, line)
		}
	}
	if !found || scanner.Err() != nil {
		return nil, false
	}
	return []byte(strings.Join(block, "\n")), true
}

func decodePayload(data []byte) ([]LocalSegment, error) {
	var payload enginePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, err
	}
	if payload.Segments == nil {
		payload.Segments = []LocalSegment{}
	}
	return payload.Segments, nil
}

func parseStdout(stdout []byte) ([]LocalSegment, bool) {
	block, ok := extractStructuredBlock(stdout)
	if !ok {
		return nil, false
	}
	segments, err := decodePayload(block)
	if err != nil {
		return nil, false
	}
	return segments, true
}

func loadResultFile(path string) ([]LocalSegment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	segments, err := decodePayload(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return segments, nil
}
