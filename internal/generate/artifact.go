package generate

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// ArtifactMIMEType is fixed: the generation service always produces WAV.
const ArtifactMIMEType = "audio/wav"

// AudioArtifact is the decoded generation result bound for playback and
// download. It is owned by the session that produced it.
type AudioArtifact struct {
	Bytes    []byte
	MIMEType string
	Filename string
	Duration float64
	Size     int64

	handle *Handle
}

// Handle returns the artifact's revocable reference.
func (a *AudioArtifact) Handle() *Handle { return a.handle }

// Handle is a revocable reference to the materialized audio file. The file
// path serves as both playback source and download target until revoked.
type Handle struct {
	mu      sync.Mutex
	id      string
	path    string
	revoked bool
}

// ID returns the handle's unique identifier.
func (h *Handle) ID() string { return h.id }

// Path dereferences the handle, returning the backing file path.
func (h *Handle) Path() (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.revoked {
		return "", ErrHandleRevoked
	}
	return h.path, nil
}

// Revoke releases the backing file. It is idempotent.
func (h *Handle) Revoke() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.revoked {
		return nil
	}
	h.revoked = true
	if err := os.Remove(h.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Revoked reports whether the handle has been released.
func (h *Handle) Revoked() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.revoked
}

// Materializer decodes terminal base64 payloads into artifacts on disk.
type Materializer struct {
	dir string
}

// NewMaterializer prepares an artifact directory. An empty dir places
// artifacts under the user temp directory.
func NewMaterializer(dir string) (*Materializer, error) {
	if strings.TrimSpace(dir) == "" {
		dir = filepath.Join(os.TempDir(), "ttsgen-artifacts")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create artifact dir: %w", err)
	}
	return &Materializer{dir: dir}, nil
}

// Dir returns the artifact directory.
func (m *Materializer) Dir() string { return m.dir }

// Materialize decodes payload and writes it to a fresh handle-backed file.
// A payload that is not valid base64, or is empty, yields a DecodeError.
func (m *Materializer) Materialize(payload, filename string) (*AudioArtifact, error) {
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, &DecodeError{Err: err}
	}
	if len(raw) == 0 {
		return nil, &DecodeError{Err: fmt.Errorf("empty audio payload")}
	}

	id := uuid.NewString()
	path := filepath.Join(m.dir, id+".wav")
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return nil, fmt.Errorf("write artifact: %w", err)
	}

	if strings.TrimSpace(filename) == "" {
		filename = "output.wav"
	}
	return &AudioArtifact{
		Bytes:    raw,
		MIMEType: ArtifactMIMEType,
		Filename: filename,
		Size:     int64(len(raw)),
		handle:   &Handle{id: id, path: path},
	}, nil
}
