package agent

import (
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

// Wire paths fixed by the protocol.
const (
	RelayInputPath = "/input"
	DirectPath     = "/ws"
)

type (
	// Transport is the subset of a websocket connection the client needs.
	// *websocket.Conn satisfies it; tests substitute a fake.
	Transport interface {
		WriteMessage(messageType int, data []byte) error
		ReadMessage() (messageType int, data []byte, err error)
		SetReadDeadline(t time.Time) error
		Close() error
	}

	// Dialer opens a transport to the given ws/wss URL.
	Dialer func(rawURL string) (Transport, error)
)

// DialWebsocket is the production dialer.
func DialWebsocket(rawURL string) (Transport, error) {
	conn, _, err := websocket.DefaultDialer.Dial(rawURL, nil)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// relayURL targets the fixed input path on the relay host. The host may carry
// an http(s) or ws(s) scheme; it is normalized to a websocket scheme.
func relayURL(relayHost string) string {
	scheme, host := splitScheme(relayHost)
	u := url.URL{
		Scheme: scheme,
		Host:   host,
		Path:   RelayInputPath,
	}
	return u.String()
}

// directWSURL normalizes a caller-supplied agent endpoint and appends the
// fixed direct path.
func directWSURL(raw string) string {
	scheme, rest := splitScheme(raw)
	return scheme + "://" + strings.TrimSuffix(rest, "/") + DirectPath
}

func splitScheme(raw string) (scheme, rest string) {
	switch {
	case strings.HasPrefix(raw, "wss://"):
		return "wss", strings.TrimPrefix(raw, "wss://")
	case strings.HasPrefix(raw, "ws://"):
		return "ws", strings.TrimPrefix(raw, "ws://")
	case strings.HasPrefix(raw, "https://"):
		return "wss", strings.TrimPrefix(raw, "https://")
	case strings.HasPrefix(raw, "http://"):
		return "ws", strings.TrimPrefix(raw, "http://")
	default:
		return "wss", raw
	}
}
