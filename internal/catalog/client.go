package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Health is the service status document.
type Health struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// Voice is one catalog entry from the voice listing.
type Voice struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Language    string `json:"language"`
	Gender      string `json:"gender"`
	Thumbnail   string `json:"thumbnail"`
	SampleAudio string `json:"sample_audio"`
	CreatedAt   string `json:"created_at"`
}

// VoiceDetail extends Voice with the reference material the model clones from.
type VoiceDetail struct {
	Voice
	RefText    string     `json:"ref_text"`
	Duration   float64    `json:"duration"`
	SampleRate int        `json:"sample_rate"`
	Stats      VoiceStats `json:"stats"`
}

type VoiceStats struct {
	TotalGenerations  int     `json:"total_generations"`
	AvgGenerationTime float64 `json:"avg_generation_time"`
}

// Sample is one pre-rendered audio sample.
type Sample struct {
	ID       string `json:"id"`
	Voice    string `json:"voice"`
	Filename string `json:"filename"`
	URL      string `json:"url"`
}

type voicesResponse struct {
	Voices []Voice `json:"voices"`
	Total  int     `json:"total"`
}

type samplesResponse struct {
	Samples []Sample `json:"samples"`
	Total   int      `json:"total"`
}

// Client fetches the generation service's catalog resources: health, the
// voice listing and the sample index. These are plain request/response calls;
// the streaming channel lives elsewhere.
type Client struct {
	baseURL string
	client  *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// Health reports service liveness.
func (c *Client) Health(ctx context.Context) (Health, error) {
	var out Health
	if err := c.getJSON(ctx, "/healthz", &out); err != nil {
		return Health{}, err
	}
	return out, nil
}

// Voices lists all available voices.
func (c *Client) Voices(ctx context.Context) ([]Voice, error) {
	var out voicesResponse
	if err := c.getJSON(ctx, "/voices", &out); err != nil {
		return nil, err
	}
	return out.Voices, nil
}

// Voice fetches the detail document for one voice. An unknown id surfaces as
// the service's 404 error.
func (c *Client) Voice(ctx context.Context, id string) (VoiceDetail, error) {
	var out VoiceDetail
	if err := c.getJSON(ctx, "/voices/"+url.PathEscape(id), &out); err != nil {
		return VoiceDetail{}, err
	}
	return out, nil
}

// Samples lists the pre-rendered voice samples.
func (c *Client) Samples(ctx context.Context) ([]Sample, error) {
	var out samplesResponse
	if err := c.getJSON(ctx, "/samples", &out); err != nil {
		return nil, err
	}
	return out.Samples, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	res, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 4<<10))
		return fmt.Errorf("catalog http status %d: %s", res.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
