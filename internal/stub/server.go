package stub

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/psilabvnorg/ttsgen/internal/audio"
	"github.com/psilabvnorg/ttsgen/internal/catalog"
	"github.com/psilabvnorg/ttsgen/internal/generate"
	"github.com/psilabvnorg/ttsgen/internal/observability"
)

const sampleRate = 24000

// Server is a local stand-in for the generation service: the same catalog
// resources and the same streaming contract, with synthetic audio instead of
// a model. Useful for development and end-to-end tests.
type Server struct {
	// StepDelay paces the progress ramp; zero streams as fast as possible.
	StepDelay      time.Duration
	AllowAnyOrigin bool

	voices   map[string]catalog.VoiceDetail
	order    []string
	upgrader websocket.Upgrader
	metrics  *observability.Metrics
}

// New builds a stub server. metrics may be nil.
func New(stepDelay time.Duration, allowAnyOrigin bool, metrics *observability.Metrics) *Server {
	s := &Server{
		StepDelay:      stepDelay,
		AllowAnyOrigin: allowAnyOrigin,
		voices:         map[string]catalog.VoiceDetail{},
		metrics:        metrics,
	}
	for _, v := range seedVoices() {
		s.voices[v.ID] = v
		s.order = append(s.order, v.ID)
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			if s.AllowAnyOrigin {
				return true
			}
			origin := strings.TrimSpace(r.Header.Get("Origin"))
			if origin == "" {
				return true
			}
			u, err := url.Parse(origin)
			if err != nil {
				return false
			}
			if u.Scheme != "http" && u.Scheme != "https" {
				return false
			}
			return strings.EqualFold(u.Host, r.Host)
		},
	}
	return s
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", s.handleHealth)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		observability.MetricsHandler().ServeHTTP(w, r)
	})
	r.Get("/voices", s.handleListVoices)
	r.Get("/voices/{id}", s.handleVoiceDetail)
	r.Get("/samples", s.handleListSamples)
	r.Get("/tts/generate-audio", s.handleGenerateSSE)
	r.Get("/tts/generate-ws", s.handleGenerateWS)
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, catalog.Health{
		Status:    "ok",
		Service:   "ttsgen stub",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   "1.0.0",
	})
}

func (s *Server) handleListVoices(w http.ResponseWriter, _ *http.Request) {
	out := make([]catalog.Voice, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.voices[id].Voice)
	}
	respondJSON(w, http.StatusOK, map[string]any{"voices": out, "total": len(out)})
}

func (s *Server) handleVoiceDetail(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	v, ok := s.voices[id]
	if !ok {
		respondError(w, http.StatusNotFound, fmt.Sprintf("Voice '%s' not found", id))
		return
	}
	respondJSON(w, http.StatusOK, v)
}

func (s *Server) handleListSamples(w http.ResponseWriter, _ *http.Request) {
	items := make([]catalog.Sample, 0, len(s.order))
	for _, id := range s.order {
		v := s.voices[id]
		items = append(items, catalog.Sample{
			ID:       id + "::" + id + "_sample.wav",
			Voice:    id,
			Filename: id + "_sample.wav",
			URL:      v.SampleAudio,
		})
	}
	respondJSON(w, http.StatusOK, map[string]any{"samples": items, "total": len(items)})
}

// parseGenerateQuery applies the service's validation rules and reports the
// HTTP status a violation maps to.
func (s *Server) parseGenerateQuery(r *http.Request) (generate.GenerationRequest, int, string) {
	q := r.URL.Query()
	req := generate.GenerationRequest{
		Text:          q.Get("text"),
		VoiceID:       q.Get("voice_id"),
		Speed:         1.0,
		CFGStrength:   2.0,
		NFESteps:      32,
		RemoveSilence: false,
	}
	if v := q.Get("speed"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return req, http.StatusBadRequest, "speed must be a number"
		}
		req.Speed = f
	}
	if v := q.Get("cfg_strength"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return req, http.StatusBadRequest, "cfg_strength must be a number"
		}
		req.CFGStrength = f
	}
	if v := q.Get("nfe_step"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return req, http.StatusBadRequest, "nfe_step must be an integer"
		}
		req.NFESteps = n
	}
	if v := q.Get("remove_silence"); v != "" {
		req.RemoveSilence = v == "true"
	}

	if len(req.Text) < 1 {
		return req, http.StatusBadRequest, "Text is required"
	}
	if utf8.RuneCountInString(req.Text) > generate.MaxTextLen {
		return req, http.StatusBadRequest, "Text length must be between 1 and 5000 characters"
	}
	if _, ok := s.voices[req.VoiceID]; !ok {
		return req, http.StatusNotFound, fmt.Sprintf("Voice '%s' not found", req.VoiceID)
	}
	if req.Speed < 0.5 || req.Speed > 2.0 {
		return req, http.StatusBadRequest, "Speed must be between 0.5 and 2.0"
	}
	if req.CFGStrength < 1.0 || req.CFGStrength > 5.0 {
		return req, http.StatusBadRequest, "cfg_strength must be between 1.0 and 5.0"
	}
	return req, http.StatusOK, ""
}

func (s *Server) handleGenerateSSE(w http.ResponseWriter, r *http.Request) {
	req, status, detail := s.parseGenerateQuery(r)
	if detail != "" {
		respondError(w, status, detail)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	for _, ev := range s.script(req, r.URL.Query().Get("fail")) {
		select {
		case <-r.Context().Done():
			return
		case <-time.After(s.StepDelay):
		}
		data, err := json.Marshal(ev)
		if err != nil {
			return
		}
		fmt.Fprintf(w, "data: %s\n\n", data)
		flusher.Flush()
		s.countEvent(ev)
	}
}

func (s *Server) handleGenerateWS(w http.ResponseWriter, r *http.Request) {
	req, status, detail := s.parseGenerateQuery(r)
	if detail != "" {
		respondError(w, status, detail)
		return
	}
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	for _, ev := range s.script(req, r.URL.Query().Get("fail")) {
		select {
		case <-r.Context().Done():
			return
		case <-time.After(s.StepDelay):
		}
		if err := conn.WriteJSON(ev); err != nil {
			return
		}
		s.countEvent(ev)
	}
	deadline := time.Now().Add(time.Second)
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
}

// script synthesizes the progress ramp and the terminal payload. Audio length
// scales with text length so clients see believable durations. failMode
// injects failures for manual testing: "error" ends with a structured error
// event, "drop" ends the stream without a terminal event, "bad-audio" sends
// an undecodable terminal payload.
func (s *Server) script(req generate.GenerationRequest, failMode string) []generate.ProgressEvent {
	events := []generate.ProgressEvent{
		{Progress: 0, Status: "Initializing..."},
		{Progress: 10, Status: "Processing text..."},
		{Progress: 30, Status: "Processing text..."},
	}

	switch failMode {
	case "error":
		return append(events, generate.ProgressEvent{Status: "Error", Error: "generation failed"})
	case "drop":
		return events
	case "bad-audio":
		return append(events, generate.ProgressEvent{Progress: 100, Status: "Done!", AudioData: "!!not-base64!!"})
	}

	const batches = 3
	for i := 1; i <= batches; i++ {
		events = append(events, generate.ProgressEvent{
			Progress: 30 + float64(i)/batches*60,
			Status:   fmt.Sprintf("Generating audio %d/%d...", i, batches),
		})
	}
	events = append(events, generate.ProgressEvent{Progress: 95, Status: "Finalizing result..."})

	// Roughly 50ms of audio per input rune, adjusted for speed.
	runes := utf8.RuneCountInString(req.Text)
	samples := int(float64(runes) * 0.05 * sampleRate / req.Speed)
	if samples < sampleRate/10 {
		samples = sampleRate / 10
	}
	wav, _ := audio.EncodePCM16LE(make([]byte, samples*2), sampleRate)
	duration := float64(len(wav)) / (sampleRate * 2)

	events = append(events, generate.ProgressEvent{
		Progress:  100,
		Status:    "Done!",
		AudioData: base64.StdEncoding.EncodeToString(wav),
		Filename:  fmt.Sprintf("output_%d.wav", time.Now().Unix()),
		Duration:  duration,
		FileSize:  int64(len(wav)),
	})
	return events
}

func (s *Server) countEvent(ev generate.ProgressEvent) {
	if s.metrics == nil {
		return
	}
	s.metrics.StreamEvents.WithLabelValues(ev.Kind().String()).Inc()
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, detail string) {
	respondJSON(w, status, map[string]string{"detail": detail})
}

func seedVoices() []catalog.VoiceDetail {
	base := []struct {
		id, name, desc, lang, gender string
	}{
		{"aria", "Aria", "Female voice, clear pronunciation, suitable for narration", "en", "female"},
		{"baxter", "Baxter", "Male voice, energetic tone, conversational style", "en", "male"},
		{"willow", "Willow", "Female voice, warm tone, friendly style", "en", "female"},
		{"atlas", "Atlas", "Male narration, formal documentary tone", "en", "male"},
	}
	out := make([]catalog.VoiceDetail, 0, len(base))
	for _, b := range base {
		out = append(out, catalog.VoiceDetail{
			Voice: catalog.Voice{
				ID:          b.id,
				Name:        b.name,
				Description: b.desc,
				Language:    b.lang,
				Gender:      b.gender,
				Thumbnail:   "/static/thumbnails/" + b.id + ".jpg",
				SampleAudio: "/static/samples/" + b.id + "_sample.wav",
				CreatedAt:   "2025-01-01T00:00:00Z",
			},
			RefText:    "reference transcript for " + b.name,
			SampleRate: sampleRate,
		})
	}
	return out
}
