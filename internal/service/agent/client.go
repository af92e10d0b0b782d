// Package agent implements the connection state machine of the agent chat
// protocol: one websocket at a time, signed inputs, session continuity and
// correlation of the terminal OUTPUT event.
package agent

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"agent_chat/internal/canonical"
	"agent_chat/internal/model"
	"agent_chat/internal/protocol/agentwire"
	"agent_chat/internal/utils/log"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// readTimeout bounds a silent connection. The protocol itself enforces no
// response timeout; expiry surfaces as a transport failure.
const readTimeout = 10 * time.Minute

type State int

const (
	StateIdle State = iota
	StateConnecting
	StateOpen
	StateClosing
	StateClosed
	StateErrored
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	case StateErrored:
		return "errored"
	default:
		return "unknown"
	}
}

type (
	// Signer is the identity capability the client needs: an address and a
	// deterministic signing operation. internal/identity.Provider implements it.
	Signer interface {
		Address() string
		Sign(message string) (string, error)
	}

	Client struct {
		signer    Signer
		relayHost string
		handler   Handler
		dial      Dialer

		mu           sync.Mutex
		state        State
		conn         Transport
		relayMode    bool
		agentAddress string
		session      *model.Session
		inputID      string
	}
)

func NewClient(signer Signer, relayHost string, handler Handler) *Client {
	return &Client{
		signer:    signer,
		relayHost: relayHost,
		handler:   handler,
		dial:      DialWebsocket,
		state:     StateIdle,
	}
}

// SetDialer replaces the transport dialer, e.g. to apply custom dial options
// or to substitute a fake transport in tests.
func (c *Client) SetDialer(d Dialer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dial = d
}

// Connect opens a transport to the agent. With an empty directURL it targets
// the relay's fixed input path; otherwise it targets the agent's own endpoint.
// An existing connection is torn down best-effort first.
func (c *Client) Connect(agentAddress string, directURL string) error {
	c.mu.Lock()
	if c.state == StateConnecting {
		c.mu.Unlock()
		return nil
	}
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	c.state = StateConnecting
	c.agentAddress = agentAddress
	c.relayMode = directURL == ""

	target := relayURL(c.relayHost)
	if !c.relayMode {
		target = directWSURL(directURL)
	}
	dial := c.dial
	c.mu.Unlock()

	conn, err := dial(target)
	if err != nil {
		c.mu.Lock()
		c.state = StateErrored
		c.mu.Unlock()
		log.Error("dial failed", zap.String("url", target), zap.Error(err))
		c.emit(Errored{Message: err.Error()})
		return fmt.Errorf("dial %s: %w", target, err)
	}

	c.mu.Lock()
	if c.state != StateConnecting {
		// Disconnected while dialing.
		c.mu.Unlock()
		conn.Close()
		return nil
	}
	c.conn = conn
	c.state = StateOpen
	c.mu.Unlock()

	go c.listen(conn)
	c.emit(Connected{Address: c.signer.Address()})
	return nil
}

// SendMessage signs and sends one prompt. With no open transport the send is
// silently dropped. A signing failure aborts the send: an unsigned input must
// never reach the wire.
func (c *Client) SendMessage(prompt string, to string) error {
	c.mu.Lock()
	conn := c.conn
	if conn == nil || c.state != StateOpen {
		c.mu.Unlock()
		log.Debug("send dropped, connection not open", zap.String("state", c.state.String()))
		return nil
	}
	if c.session == nil {
		c.session = &model.Session{SessionID: uuid.NewString()}
	}
	inputID := uuid.NewString()
	c.inputID = inputID
	session := c.session
	relayMode := c.relayMode
	c.mu.Unlock()

	ts := time.Now().Unix()
	fields := canonical.Fields{
		canonical.String("prompt", prompt),
		canonical.Int("timestamp", ts),
	}
	if relayMode {
		fields = append(fields, canonical.String("to", to))
	}
	payload := fields.Canonicalize()

	sig, err := c.signer.Sign(payload)
	if err != nil {
		return fmt.Errorf("sign input: %w", err)
	}

	msg := &model.InputMessage{
		Type:      model.TypeInput,
		InputID:   inputID,
		Prompt:    prompt,
		Payload:   json.RawMessage(payload),
		From:      c.signer.Address(),
		Signature: sig,
		Timestamp: ts,
		Session:   session,
	}
	if relayMode {
		msg.To = to
	}
	return c.write(conn, msg)
}

// Respond answers the most recent ask_user prompt. The server matches it by
// connection identity, not by message id.
func (c *Client) Respond(answer string) error {
	conn := c.openConn()
	if conn == nil {
		log.Debug("respond dropped, connection not open")
		return nil
	}
	return c.write(conn, &model.AskUserResponse{Type: model.TypeAskUserResponse, Answer: answer})
}

// RespondToApproval answers the most recent approval_needed prompt.
func (c *Client) RespondToApproval(approved bool, scope string) error {
	conn := c.openConn()
	if conn == nil {
		log.Debug("approval response dropped, connection not open")
		return nil
	}
	return c.write(conn, &model.ApprovalResponse{Type: model.TypeApprovalResponse, Approved: approved, Scope: scope})
}

// Disconnect closes the transport best-effort and clears session and
// correlation state. Events already in flight may still arrive and are
// dropped by the stale-connection guard.
func (c *Client) Disconnect() {
	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.session = nil
	c.inputID = ""
	if conn != nil {
		c.state = StateClosing
	}
	c.mu.Unlock()

	if conn != nil {
		conn.Close()
	}

	c.mu.Lock()
	c.state = StateClosed
	c.mu.Unlock()
	c.emit(Disconnected{})
}

// Reset starts a fresh logical conversation over the existing connection.
func (c *Client) Reset() {
	c.mu.Lock()
	c.session = nil
	c.inputID = ""
	c.mu.Unlock()
}

func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Session returns the latest server-issued session, or nil.
func (c *Client) Session() *model.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

func (c *Client) openConn() Transport {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateOpen {
		return nil
	}
	return c.conn
}

func (c *Client) write(conn Transport, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("write message: %w", err)
	}
	return nil
}

func (c *Client) emit(ev Event) {
	if c.handler != nil {
		c.handler(ev)
	}
}

func (c *Client) listen(conn Transport) {
	for {
		conn.SetReadDeadline(time.Now().Add(readTimeout))
		_, data, err := conn.ReadMessage()
		if err != nil {
			c.handleReadError(conn, err)
			return
		}
		c.handleMessage(conn, data)
	}
}

func (c *Client) handleReadError(conn Transport, err error) {
	c.mu.Lock()
	if c.conn != conn {
		// A stale loop after Disconnect or reconnect.
		c.mu.Unlock()
		return
	}
	c.conn = nil
	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		c.state = StateClosed
		c.mu.Unlock()
		log.Debug("remote closed connection", zap.Error(err))
		c.emit(Disconnected{})
		return
	}
	c.state = StateErrored
	c.mu.Unlock()
	log.Debug("transport read failed", zap.Error(err))
	c.emit(Errored{Message: err.Error()})
}

func (c *Client) handleMessage(conn Transport, data []byte) {
	ev, session, _ := agentwire.Decode(data)

	c.mu.Lock()
	if c.conn != conn {
		c.mu.Unlock()
		return
	}
	if session != nil {
		// Server is authoritative; later values always overwrite.
		c.session = session
	}
	switch e := ev.(type) {
	case nil:
		c.mu.Unlock()
		return
	case agentwire.Ping:
		c.mu.Unlock()
		if err := c.write(conn, &model.Pong{Type: model.TypePong}); err != nil {
			log.Error("pong failed", zap.Error(err))
		}
		return
	case agentwire.Output:
		if c.relayMode && e.InputID != c.inputID {
			// Belongs to another client multiplexed over the relay.
			c.mu.Unlock()
			log.Debug("dropping output for another client", zap.String("input_id", e.InputID))
			return
		}
	}
	c.mu.Unlock()
	c.emit(ev)
}
