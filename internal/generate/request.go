package generate

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

// MaxTextLen is the maximum accepted submission text length in characters.
const MaxTextLen = 5000

// FormFields carries the raw submission input before validation. Numeric
// fields arrive stringified, exactly as the submission trigger provides them.
type FormFields struct {
	Text          string
	VoiceID       string
	Speed         string
	CFGStrength   string
	NFESteps      string
	RemoveSilence bool
}

// Defaults supplies values for optional numeric fields left empty.
type Defaults struct {
	Speed       float64
	CFGStrength float64
	NFESteps    int
}

// DefaultFormValues matches the generation service's parameter defaults.
func DefaultFormValues() Defaults {
	return Defaults{Speed: 1.0, CFGStrength: 2.0, NFESteps: 32}
}

// GenerationRequest is a validated, immutable generation job description.
type GenerationRequest struct {
	Text          string
	VoiceID       string
	Speed         float64
	CFGStrength   float64
	NFESteps      int
	RemoveSilence bool
}

// ParseForm validates raw form fields and produces a GenerationRequest.
// The three submission rules are checked in order and the first failure
// wins; numeric parsing happens only after they pass. ParseForm has no side
// effects.
func ParseForm(f FormFields, d Defaults) (GenerationRequest, error) {
	text := f.Text
	if strings.TrimSpace(text) == "" {
		return GenerationRequest{}, &ValidationError{Reason: "text required"}
	}
	if utf8.RuneCountInString(text) > MaxTextLen {
		return GenerationRequest{}, &ValidationError{Reason: "text too long"}
	}
	voiceID := strings.TrimSpace(f.VoiceID)
	if voiceID == "" {
		return GenerationRequest{}, &ValidationError{Reason: "voice required"}
	}

	speed, err := floatField(f.Speed, d.Speed)
	if err != nil || speed <= 0 {
		return GenerationRequest{}, &ValidationError{Reason: "speed must be a positive number"}
	}
	cfg, err := floatField(f.CFGStrength, d.CFGStrength)
	if err != nil {
		return GenerationRequest{}, &ValidationError{Reason: "cfg strength must be a number"}
	}
	nfe, err := intField(f.NFESteps, d.NFESteps)
	if err != nil || nfe <= 0 {
		return GenerationRequest{}, &ValidationError{Reason: "nfe steps must be a positive integer"}
	}

	return GenerationRequest{
		Text:          text,
		VoiceID:       voiceID,
		Speed:         speed,
		CFGStrength:   cfg,
		NFESteps:      nfe,
		RemoveSilence: f.RemoveSilence,
	}, nil
}

func floatField(raw string, fallback float64) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, nil
	}
	return strconv.ParseFloat(raw, 64)
}

func intField(raw string, fallback int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}
