package ui

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/psilabvnorg/ttsgen/internal/generate"
)

func TestTerminalCompletedSignal(t *testing.T) {
	var buf bytes.Buffer
	term := NewTerminal(&buf)

	term.ShowInitializing("Initializing...")
	term.ShowProgress(42, "working")
	term.ShowCompleted("done, check below")

	select {
	case <-term.Completed():
	default:
		t.Fatalf("Completed did not signal")
	}
	if !strings.Contains(buf.String(), "done, check below") {
		t.Fatalf("output missing completion message: %q", buf.String())
	}
	if !strings.Contains(buf.String(), " 42%") {
		t.Fatalf("output missing progress percent: %q", buf.String())
	}
}

func TestTerminalNotifyEndsProgressLine(t *testing.T) {
	var buf bytes.Buffer
	term := NewTerminal(&buf)

	term.ShowProgress(10, "working")
	term.Notify(generate.SeverityError, "something broke")

	out := buf.String()
	if !strings.Contains(out, "[error] something broke\n") {
		t.Fatalf("notice missing or unformatted: %q", out)
	}
	// The in-place progress line must be terminated before the notice.
	idx := strings.Index(out, "[error]")
	if idx == 0 || out[idx-1] != '\n' {
		t.Fatalf("notice not on its own line: %q", out)
	}
}

func TestFileResultWritesArtifact(t *testing.T) {
	dir := t.TempDir()
	r := &FileResult{Path: filepath.Join(dir, "nested", "out.wav")}

	err := r.BindResult(&generate.AudioArtifact{Bytes: []byte("wav bytes"), Filename: "ignored.wav"})
	if err != nil {
		t.Fatalf("BindResult failed: %v", err)
	}
	data, err := os.ReadFile(r.LastPath())
	if err != nil {
		t.Fatalf("read result: %v", err)
	}
	if string(data) != "wav bytes" {
		t.Fatalf("content = %q", data)
	}
}

func TestFileResultFallsBackToArtifactFilename(t *testing.T) {
	dir := t.TempDir()
	cwd, _ := os.Getwd()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(cwd) })

	r := &FileResult{}
	if err := r.BindResult(&generate.AudioArtifact{Bytes: []byte("x"), Filename: "named.wav"}); err != nil {
		t.Fatalf("BindResult failed: %v", err)
	}
	if filepath.Base(r.LastPath()) != "named.wav" {
		t.Fatalf("LastPath = %q, want named.wav", r.LastPath())
	}
	if _, err := os.Stat(filepath.Join(dir, "named.wav")); err != nil {
		t.Fatalf("result file missing: %v", err)
	}
}
