package practice

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/windfall/sprache/internal/apiclient"
)

// FileRecorder plays back a prepared audio file as the learner's answer.
// Terminals have no microphone access, so the CLI records out of band.
type FileRecorder struct {
	path string

	mu     sync.Mutex
	active bool
}

// NewFileRecorder creates a recorder answering with the file at path.
func NewFileRecorder(path string) *FileRecorder {
	return &FileRecorder{path: path}
}

// Start checks the file is readable.
func (r *FileRecorder) Start(ctx context.Context) error {
	info, err := os.Stat(r.path)
	if err != nil {
		return fmt.Errorf("failed to open recording: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("recording %s is a directory", r.path)
	}

	r.mu.Lock()
	r.active = true
	r.mu.Unlock()
	return nil
}

// Stop reads the file.
func (r *FileRecorder) Stop(ctx context.Context) (apiclient.Audio, error) {
	r.mu.Lock()
	active := r.active
	r.active = false
	r.mu.Unlock()
	if !active {
		return apiclient.Audio{}, fmt.Errorf("recorder is not running")
	}

	data, err := os.ReadFile(r.path)
	if err != nil {
		return apiclient.Audio{}, fmt.Errorf("failed to read recording: %w", err)
	}
	return apiclient.Audio{Data: data, MIMEType: AudioMIMEType(r.path)}, nil
}

// Discard implements Recorder.
func (r *FileRecorder) Discard() {
	r.mu.Lock()
	r.active = false
	r.mu.Unlock()
}

// AudioMIMEType guesses an audio MIME type from a file name, defaulting to webm.
func AudioMIMEType(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".webm", ".weba":
		return "audio/webm"
	case ".mp3":
		return "audio/mpeg"
	case ".wav":
		return "audio/wav"
	case ".ogg", ".oga":
		return "audio/ogg"
	case ".m4a":
		return "audio/mp4"
	}
	if t := mime.TypeByExtension(ext); strings.HasPrefix(t, "audio/") {
		return t
	}
	return "audio/webm"
}
