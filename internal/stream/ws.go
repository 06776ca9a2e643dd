package stream

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/psilabvnorg/ttsgen/internal/generate"
)

// GenerateWSPath is the service's websocket streaming resource.
const GenerateWSPath = "/tts/generate-ws"

// WSOpener opens the websocket progress stream: one JSON ProgressEvent per
// text message, same query parameters as the SSE transport. Offered for
// deployments where proxies buffer SSE responses.
type WSOpener struct {
	baseURL string
	dialer  *websocket.Dialer
	idle    time.Duration
}

func NewWSOpener(baseURL string, idle time.Duration) *WSOpener {
	return &WSOpener{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		dialer:  websocket.DefaultDialer,
		idle:    idle,
	}
}

func (o *WSOpener) Open(ctx context.Context, req generate.GenerationRequest) (generate.Channel, error) {
	u, err := wsURL(o.baseURL)
	if err != nil {
		return nil, err
	}
	u.Path = strings.TrimRight(u.Path, "/") + GenerateWSPath
	u.RawQuery = EncodeParams(req)

	conn, _, err := o.dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("dial stream websocket: %w", err)
	}

	ch := newChannel(o.idle, func() { _ = conn.Close() })
	go consumeWS(conn, ch)
	return ch, nil
}

func consumeWS(conn *websocket.Conn, ch *channel) {
	defer conn.Close()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			// A normal close without a terminal event is still a broken
			// session; the controller reports it generically.
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				ch.finish(nil)
				return
			}
			ch.finish(err)
			return
		}

		ev, perr := generate.ParseProgressEvent(data)
		if perr != nil {
			log.Printf("stream: skipping unparseable message: %v", perr)
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
}

// wsURL converts an http(s) base URL into its ws(s) counterpart.
func wsURL(baseURL string) (*url.URL, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(u.Scheme) {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return nil, fmt.Errorf("unsupported base URL scheme %q", u.Scheme)
	}
	if strings.TrimSpace(u.Host) == "" {
		return nil, fmt.Errorf("base URL host is required")
	}
	return u, nil
}
