package stream

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/psilabvnorg/ttsgen/internal/generate"
	"github.com/psilabvnorg/ttsgen/internal/reliability"
)

// GeneratePath is the service's SSE streaming resource.
const GeneratePath = "/tts/generate-audio"

// SSEOpener opens the service's server-sent-events progress stream. This is
// the primary transport: one `data:` line per ProgressEvent, terminated by
// the server after the terminal event.
type SSEOpener struct {
	baseURL string
	client  *http.Client
	idle    time.Duration
}

// NewSSEOpener builds an opener for baseURL. The client carries no overall
// timeout because generation jobs run for minutes; stalls are caught by the
// idle watchdog and context cancellation.
func NewSSEOpener(baseURL string, idle time.Duration) *SSEOpener {
	return &SSEOpener{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		client:  &http.Client{},
		idle:    idle,
	}
}

func (o *SSEOpener) Open(ctx context.Context, req generate.GenerationRequest) (generate.Channel, error) {
	u := o.baseURL + GeneratePath + "?" + EncodeParams(req)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create stream request: %w", err)
	}
	httpReq.Header.Set("Accept", "text/event-stream")
	httpReq.Header.Set("Cache-Control", "no-cache")

	res, err := o.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("open stream: %w", err)
	}
	if res.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 4<<10))
		res.Body.Close()
		detail := strings.TrimSpace(string(body))
		if reliability.IsRetryableHTTPStatus(res.StatusCode) {
			return nil, fmt.Errorf("stream HTTP %d (transient): %s", res.StatusCode, detail)
		}
		return nil, fmt.Errorf("stream HTTP %d: %s", res.StatusCode, detail)
	}

	ch := newChannel(o.idle, func() { res.Body.Close() })
	go consumeSSE(res.Body, ch)
	return ch, nil
}

// consumeSSE scans the event stream line by line. Unparseable messages are
// logged and skipped so one bad frame doesn't abort the whole session; the
// stream ends on the terminal event or when the connection dies.
func consumeSSE(body io.ReadCloser, ch *channel) {
	defer body.Close()

	scanner := bufio.NewScanner(body)
	// Terminal events embed a whole base64 WAV on one line.
	scanner.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, ":") {
			continue
		}
		if strings.HasPrefix(line, "event:") || strings.HasPrefix(line, "id:") || strings.HasPrefix(line, "retry:") {
			continue
		}
		if strings.HasPrefix(line, "data:") {
			line = strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		}

		ev, err := generate.ParseProgressEvent([]byte(line))
		if err != nil {
			log.Printf("stream: skipping unparseable message: %v", err)
			continue
		}
		if !ch.deliver(ev) {
			ch.finish(nil)
			return
		}
		if ev.Terminal() {
			ch.finish(nil)
			return
		}
	}

	ch.finish(scanner.Err())
}

// EncodeParams serializes all GenerationRequest fields as query parameters.
// Booleans are serialized as literal "true"/"false"; the step-count field
// uses the service's singular `nfe_step` name.
func EncodeParams(req generate.GenerationRequest) string {
	params := url.Values{}
	params.Set("text", req.Text)
	params.Set("voice_id", req.VoiceID)
	params.Set("speed", strconv.FormatFloat(req.Speed, 'f', -1, 64))
	params.Set("cfg_strength", strconv.FormatFloat(req.CFGStrength, 'f', -1, 64))
	params.Set("nfe_step", strconv.Itoa(req.NFESteps))
	params.Set("remove_silence", strconv.FormatBool(req.RemoveSilence))
	return params.Encode()
}
