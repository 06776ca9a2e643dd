package catalog

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func catalogTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(Health{Status: "ok", Service: "tts", Version: "1.0.0"})
	})
	mux.HandleFunc("/voices", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"voices": []Voice{
				{ID: "aria", Name: "Aria", Language: "en", Gender: "female"},
				{ID: "baxter", Name: "Baxter", Language: "en", Gender: "male"},
			},
			"total": 2,
		})
	})
	mux.HandleFunc("/voices/aria", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(VoiceDetail{
			Voice:      Voice{ID: "aria", Name: "Aria"},
			RefText:    "reference transcript",
			SampleRate: 24000,
		})
	})
	mux.HandleFunc("/voices/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]string{"detail": "Voice not found"})
	})
	mux.HandleFunc("/samples", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"samples": []Sample{{ID: "aria::a.wav", Voice: "aria", Filename: "a.wav", URL: "/static/samples/a.wav"}},
			"total":   1,
		})
	})
	return httptest.NewServer(mux)
}

func TestClientHealth(t *testing.T) {
	srv := catalogTestServer(t)
	defer srv.Close()

	h, err := NewClient(srv.URL, time.Second).Health(context.Background())
	if err != nil {
		t.Fatalf("Health failed: %v", err)
	}
	if h.Status != "ok" || h.Version != "1.0.0" {
		t.Fatalf("health = %+v", h)
	}
}

func TestClientVoices(t *testing.T) {
	srv := catalogTestServer(t)
	defer srv.Close()

	voices, err := NewClient(srv.URL, time.Second).Voices(context.Background())
	if err != nil {
		t.Fatalf("Voices failed: %v", err)
	}
	if len(voices) != 2 {
		t.Fatalf("voices = %d, want 2", len(voices))
	}
	if voices[0].ID != "aria" {
		t.Fatalf("first voice = %+v", voices[0])
	}
}

func TestClientVoiceDetail(t *testing.T) {
	srv := catalogTestServer(t)
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	v, err := c.Voice(context.Background(), "aria")
	if err != nil {
		t.Fatalf("Voice failed: %v", err)
	}
	if v.SampleRate != 24000 || v.RefText == "" {
		t.Fatalf("detail = %+v", v)
	}

	_, err = c.Voice(context.Background(), "nope")
	if err == nil {
		t.Fatalf("Voice succeeded for unknown id")
	}
	if !strings.Contains(err.Error(), "404") {
		t.Fatalf("err = %v, want status in message", err)
	}
}

func TestClientSamples(t *testing.T) {
	srv := catalogTestServer(t)
	defer srv.Close()

	samples, err := NewClient(srv.URL, time.Second).Samples(context.Background())
	if err != nil {
		t.Fatalf("Samples failed: %v", err)
	}
	if len(samples) != 1 || samples[0].Voice != "aria" {
		t.Fatalf("samples = %+v", samples)
	}
}

func TestClientBadJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer srv.Close()

	if _, err := NewClient(srv.URL, time.Second).Health(context.Background()); err == nil {
		t.Fatalf("Health accepted invalid JSON")
	}
}
