package stream

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/psilabvnorg/ttsgen/internal/audio"
	"github.com/psilabvnorg/ttsgen/internal/generate"
)

// Config controls opener construction.
type Config struct {
	Mode        string
	BaseURL     string
	IdleTimeout time.Duration
}

// NewOpener builds a channel opener for the configured transport mode.
// "auto" picks SSE, the transport the generation service speaks natively.
func NewOpener(cfg Config) (generate.ChannelOpener, error) {
	mode := strings.ToLower(strings.TrimSpace(cfg.Mode))
	if mode == "" {
		mode = "auto"
	}

	switch mode {
	case "auto", "sse":
		if strings.TrimSpace(cfg.BaseURL) == "" {
			return nil, fmt.Errorf("base URL is required for sse mode")
		}
		return NewSSEOpener(cfg.BaseURL, cfg.IdleTimeout), nil
	case "ws":
		if strings.TrimSpace(cfg.BaseURL) == "" {
			return nil, fmt.Errorf("base URL is required for ws mode")
		}
		return NewWSOpener(cfg.BaseURL, cfg.IdleTimeout), nil
	case "mock":
		return &MockOpener{Script: MockScript(), Interval: 150 * time.Millisecond}, nil
	default:
		return nil, fmt.Errorf("unsupported stream transport %q", cfg.Mode)
	}
}

// MockScript is a canned happy-path sequence ending in a short silent WAV.
func MockScript() []generate.ProgressEvent {
	pcm := make([]byte, 4800) // 100ms of silence at 24kHz mono PCM16
	wav, _ := audio.EncodePCM16LE(pcm, 24000)
	return []generate.ProgressEvent{
		{Progress: 0, Status: "Initializing..."},
		{Progress: 30, Status: "Processing text..."},
		{Progress: 70, Status: "Generating audio 1/1..."},
		{Progress: 95, Status: "Finalizing result..."},
		{
			Progress:  100,
			Status:    "Done!",
			AudioData: base64.StdEncoding.EncodeToString(wav),
			Filename:  "mock.wav",
			Duration:  0.1,
			FileSize:  int64(len(wav)),
		},
	}
}
