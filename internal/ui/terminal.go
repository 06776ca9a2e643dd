package ui

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/psilabvnorg/ttsgen/internal/generate"
)

// Terminal renders the progress surface and inline notices on a console. The
// progress line is redrawn in place with a carriage return; notices get their
// own lines.
type Terminal struct {
	mu        sync.Mutex
	out       io.Writer
	lineOpen  bool
	completed chan struct{}
}

func NewTerminal(out io.Writer) *Terminal {
	if out == nil {
		out = os.Stdout
	}
	return &Terminal{
		out:       out,
		completed: make(chan struct{}, 1),
	}
}

// Completed signals once per session when the surface reaches its completed
// state and is waiting for acknowledgment.
func (t *Terminal) Completed() <-chan struct{} { return t.completed }

func (t *Terminal) ShowInitializing(label string) {
	t.drawLine(0, label)
}

func (t *Terminal) ShowProgress(percent int, label string) {
	t.drawLine(percent, label)
}

func (t *Terminal) ShowCompleted(message string) {
	t.mu.Lock()
	t.endLine()
	fmt.Fprintf(t.out, "%s\n", message)
	t.mu.Unlock()

	select {
	case t.completed <- struct{}{}:
	default:
	}
}

func (t *Terminal) Hide() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.endLine()
}

func (t *Terminal) Notify(severity generate.Severity, text string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.endLine()
	fmt.Fprintf(t.out, "[%s] %s\n", severity, text)
}

func (t *Terminal) drawLine(percent int, label string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.out, "\r%3d%% %-60s", percent, label)
	t.lineOpen = true
}

// endLine terminates an in-place progress line before normal output resumes.
// Caller holds t.mu.
func (t *Terminal) endLine() {
	if t.lineOpen {
		fmt.Fprintln(t.out)
		t.lineOpen = false
	}
}

// FileResult writes the acknowledged artifact to a local file, the console
// equivalent of the playback and download surfaces.
type FileResult struct {
	// Path overrides the artifact's own filename when set.
	Path string

	mu   sync.Mutex
	last string
}

func (r *FileResult) BindResult(a *generate.AudioArtifact) error {
	path := strings.TrimSpace(r.Path)
	if path == "" {
		path = a.Filename
	}
	if path == "" {
		path = "output.wav"
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	if err := os.WriteFile(path, a.Bytes, 0o644); err != nil {
		return fmt.Errorf("write result: %w", err)
	}

	r.mu.Lock()
	r.last = path
	r.mu.Unlock()
	return nil
}

// LastPath returns the most recently written result file.
func (r *FileResult) LastPath() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last
}
