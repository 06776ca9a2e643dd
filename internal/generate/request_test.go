package generate

import (
	"errors"
	"strings"
	"testing"
)

func TestParseFormDefaults(t *testing.T) {
	req, err := ParseForm(FormFields{Text: "hello", VoiceID: "aria"}, DefaultFormValues())
	if err != nil {
		t.Fatalf("ParseForm failed: %v", err)
	}
	if req.Speed != 1.0 || req.CFGStrength != 2.0 || req.NFESteps != 32 {
		t.Fatalf("defaults = %v/%v/%v, want 1.0/2.0/32", req.Speed, req.CFGStrength, req.NFESteps)
	}
	if req.RemoveSilence {
		t.Fatalf("RemoveSilence = true, want false")
	}
}

func TestParseFormRuleOrder(t *testing.T) {
	cases := []struct {
		name   string
		fields FormFields
		reason string
	}{
		{"empty text", FormFields{VoiceID: "aria"}, "text required"},
		{"whitespace text", FormFields{Text: "   ", VoiceID: "aria"}, "text required"},
		{"too long", FormFields{Text: strings.Repeat("a", MaxTextLen+1), VoiceID: "aria"}, "text too long"},
		{"too long without voice", FormFields{Text: strings.Repeat("a", MaxTextLen+1)}, "text too long"},
		{"missing voice", FormFields{Text: "hello"}, "voice required"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseForm(tc.fields, DefaultFormValues())
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("err = %v, want ValidationError", err)
			}
			if verr.Reason != tc.reason {
				t.Fatalf("reason = %q, want %q", verr.Reason, tc.reason)
			}
		})
	}
}

func TestParseFormMaxLenBoundary(t *testing.T) {
	req, err := ParseForm(FormFields{Text: strings.Repeat("a", MaxTextLen), VoiceID: "aria"}, DefaultFormValues())
	if err != nil {
		t.Fatalf("ParseForm failed at exact max length: %v", err)
	}
	if len(req.Text) != MaxTextLen {
		t.Fatalf("text length = %d, want %d", len(req.Text), MaxTextLen)
	}
}

func TestParseFormCountsRunesNotBytes(t *testing.T) {
	// Multibyte characters: MaxTextLen runes but far more bytes.
	text := strings.Repeat("ế", MaxTextLen)
	if _, err := ParseForm(FormFields{Text: text, VoiceID: "aria"}, DefaultFormValues()); err != nil {
		t.Fatalf("ParseForm failed on multibyte text at limit: %v", err)
	}
}

func TestParseFormNumericFields(t *testing.T) {
	req, err := ParseForm(FormFields{
		Text:          "hello",
		VoiceID:       "aria",
		Speed:         "1.5",
		CFGStrength:   "3",
		NFESteps:      "16",
		RemoveSilence: true,
	}, DefaultFormValues())
	if err != nil {
		t.Fatalf("ParseForm failed: %v", err)
	}
	if req.Speed != 1.5 || req.CFGStrength != 3 || req.NFESteps != 16 || !req.RemoveSilence {
		t.Fatalf("parsed = %+v, want 1.5/3/16/true", req)
	}
}

func TestParseFormBadNumbers(t *testing.T) {
	cases := []FormFields{
		{Text: "hello", VoiceID: "aria", Speed: "fast"},
		{Text: "hello", VoiceID: "aria", Speed: "-1"},
		{Text: "hello", VoiceID: "aria", CFGStrength: "strong"},
		{Text: "hello", VoiceID: "aria", NFESteps: "1.5"},
		{Text: "hello", VoiceID: "aria", NFESteps: "0"},
	}
	for _, f := range cases {
		if _, err := ParseForm(f, DefaultFormValues()); err == nil {
			t.Fatalf("ParseForm(%+v) succeeded, want error", f)
		}
	}
}

func TestEventKind(t *testing.T) {
	cases := []struct {
		name string
		ev   ProgressEvent
		want EventKind
	}{
		{"progress", ProgressEvent{Progress: 50, Status: "working"}, KindProgress},
		{"error wins", ProgressEvent{Progress: 100, AudioData: "abc", Error: "boom"}, KindError},
		{"terminal", ProgressEvent{Progress: 100, AudioData: "abc"}, KindTerminal},
		{"full progress without payload", ProgressEvent{Progress: 100}, KindProgress},
		{"payload without full progress", ProgressEvent{Progress: 99, AudioData: "abc"}, KindProgress},
	}
	for _, tc := range cases {
		if got := tc.ev.Kind(); got != tc.want {
			t.Fatalf("%s: Kind = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestParseProgressEvent(t *testing.T) {
	raw := []byte(`{"progress": 100, "status": "Done!", "audio_data": "QUJD", "filename": "out.wav", "duration": 1.25, "file_size": 2048}`)
	ev, err := ParseProgressEvent(raw)
	if err != nil {
		t.Fatalf("ParseProgressEvent failed: %v", err)
	}
	if ev.Progress != 100 || ev.Filename != "out.wav" || ev.FileSize != 2048 {
		t.Fatalf("parsed = %+v", ev)
	}
	if !ev.Terminal() {
		t.Fatalf("Terminal = false, want true")
	}

	if _, err := ParseProgressEvent([]byte("not json")); err == nil {
		t.Fatalf("ParseProgressEvent accepted garbage")
	}
}
