// Package transcript writes finished run records to disk, both as plain
// JSON files and as gzip archives for long-term retention.
package transcript

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/Rohit-Deshmukh/Voice-Framework/internal/models"
	"github.com/klauspost/compress/gzip"
)

// sanitize replaces characters that are unsafe in filenames.
var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

func sanitizeName(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = strings.ReplaceAll(s, " ", "-")
	s = unsafeChars.ReplaceAllString(s, "")
	if s == "" {
		s = "unnamed"
	}
	return s
}

// Filename returns the transcript filename for a run.
func Filename(scriptID string, ts time.Time) string {
	return fmt.Sprintf("%s-%s.json", sanitizeName(scriptID), ts.Format("20060102-150405"))
}

// Write serializes a run result and writes it to dir as indented JSON.
func Write(dir string, run *models.RunResult) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create transcript dir: %w", err)
	}

	name := Filename(run.ScriptID, run.StartedAt)
	path := filepath.Join(dir, name)

	data, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal transcript: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write transcript: %w", err)
	}

	return path, nil
}

// Archive writes a run result to dir as a gzip-compressed JSON file.
// Archives are intended for retention of large batches of runs.
func Archive(dir string, run *models.RunResult) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create archive dir: %w", err)
	}

	path := filepath.Join(dir, Filename(run.ScriptID, run.StartedAt)+".gz")
	data, err := json.Marshal(run)
	if err != nil {
		return "", fmt.Errorf("marshal transcript: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create archive: %w", err)
	}

	zw := gzip.NewWriter(f)
	if _, err := zw.Write(data); err != nil {
		f.Close()
		return "", fmt.Errorf("write archive: %w", err)
	}
	if err := zw.Close(); err != nil {
		f.Close()
		return "", fmt.Errorf("finish archive: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close archive: %w", err)
	}
	return path, nil
}

// ReadArchive loads a run result from a gzip archive written by Archive.
func ReadArchive(path string) (*models.RunResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	defer f.Close()

	zr, err := gzip.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("read archive: %w", err)
	}
	defer zr.Close()

	data, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("read archive: %w", err)
	}

	var run models.RunResult
	if err := json.Unmarshal(data, &run); err != nil {
		return nil, fmt.Errorf("decode archive: %w", err)
	}
	return &run, nil
}

// Load reads a plain JSON run result written by Write. Offline evaluation
// uses it to re-score captured transcripts.
func Load(path string) (*models.RunResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read transcript: %w", err)
	}
	var run models.RunResult
	if err := json.Unmarshal(data, &run); err != nil {
		return nil, fmt.Errorf("decode transcript %s: %w", path, err)
	}
	return &run, nil
}
