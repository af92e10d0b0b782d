package agent

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"agent_chat/internal/canonical"
	"agent_chat/internal/cryptographic/signature"
	"agent_chat/internal/identity"
	"agent_chat/internal/model"
	"agent_chat/internal/protocol/agentwire"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTransport struct {
	mu      sync.Mutex
	written [][]byte
	inbox   chan []byte
	once    sync.Once
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{inbox: make(chan []byte, 16)}
}

func (f *fakeTransport) WriteMessage(_ int, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := make([]byte, len(data))
	copy(cp, data)
	f.written = append(f.written, cp)
	return nil
}

func (f *fakeTransport) ReadMessage() (int, []byte, error) {
	data, ok := <-f.inbox
	if !ok {
		return 0, nil, errors.New("transport closed")
	}
	return websocket.TextMessage, data, nil
}

func (f *fakeTransport) SetReadDeadline(time.Time) error { return nil }

func (f *fakeTransport) Close() error {
	f.once.Do(func() { close(f.inbox) })
	return nil
}

func (f *fakeTransport) sent() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][]byte, len(f.written))
	copy(out, f.written)
	return out
}

type testEnv struct {
	client    *Client
	transport *fakeTransport
	events    chan Event
	provider  *identity.Provider
	dialedURL string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	pub, priv, err := signature.NewEd25519Keypair()
	require.NoError(t, err)
	provider := identity.New(&model.Identity{
		Name:       "test",
		Address:    identity.DeriveAddress(pub),
		PublicKey:  pub,
		PrivateKey: priv,
	})

	env := &testEnv{
		transport: newFakeTransport(),
		events:    make(chan Event, 32),
		provider:  provider,
	}
	env.client = NewClient(provider, "relay.example.net", func(ev Event) {
		env.events <- ev
	})
	env.client.dial = func(rawURL string) (Transport, error) {
		env.dialedURL = rawURL
		return env.transport, nil
	}
	return env
}

func (e *testEnv) waitEvent(t *testing.T) Event {
	t.Helper()
	select {
	case ev := <-e.events:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return nil
	}
}

func (e *testEnv) assertNoEvent(t *testing.T) {
	t.Helper()
	select {
	case ev := <-e.events:
		t.Fatalf("unexpected event: %#v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

// waitForWrites polls until the transport has seen at least n writes.
func (e *testEnv) waitForWrites(t *testing.T, n int) [][]byte {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if sent := e.transport.sent(); len(sent) >= n {
			return sent
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d writes", n)
	return nil
}

func TestConnectRelayMode(t *testing.T) {
	env := newTestEnv(t)

	require.NoError(t, env.client.Connect("0xabc", ""))
	assert.Equal(t, "wss://relay.example.net/input", env.dialedURL)
	assert.Equal(t, StateOpen, env.client.State())

	ev := env.waitEvent(t)
	connected, ok := ev.(Connected)
	require.True(t, ok)
	assert.Equal(t, env.provider.Address(), connected.Address)
}

func TestConnectDirectModeDerivesURL(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"https://agent.example.com", "wss://agent.example.com/ws"},
		{"http://localhost:8080", "ws://localhost:8080/ws"},
		{"agent.example.com", "wss://agent.example.com/ws"},
	}

	for _, tt := range tests {
		env := newTestEnv(t)
		require.NoError(t, env.client.Connect("", tt.raw))
		assert.Equal(t, tt.want, env.dialedURL)
	}
}

func TestSendMessageBuildsSignedInput(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.client.Connect("0xabc", ""))
	env.waitEvent(t) // Connected

	require.NoError(t, env.client.SendMessage("hello", "0xabc"))

	sent := env.transport.sent()
	require.Len(t, sent, 1)

	var msg model.InputMessage
	require.NoError(t, json.Unmarshal(sent[0], &msg))
	assert.Equal(t, model.TypeInput, msg.Type)
	assert.Equal(t, "0xabc", msg.To)
	assert.Equal(t, "hello", msg.Prompt)
	assert.Equal(t, env.provider.Address(), msg.From)
	assert.NotEmpty(t, msg.InputID)
	require.NotNil(t, msg.Session)
	assert.NotEmpty(t, msg.Session.SessionID)

	wantPayload := canonical.Fields{
		canonical.String("prompt", "hello"),
		canonical.String("to", "0xabc"),
		canonical.Int("timestamp", msg.Timestamp),
	}.Canonicalize()
	assert.Equal(t, wantPayload, string(msg.Payload))
	assert.True(t, signature.ED25519VerifyHex(env.provider.PublicKey(), msg.Payload, msg.Signature))
}

func TestDirectModePayloadOmitsRecipient(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.client.Connect("", "https://agent.example.com"))
	env.waitEvent(t) // Connected

	require.NoError(t, env.client.SendMessage("hello", ""))

	var msg model.InputMessage
	require.NoError(t, json.Unmarshal(env.transport.sent()[0], &msg))
	assert.Empty(t, msg.To)

	wantPayload := canonical.Fields{
		canonical.String("prompt", "hello"),
		canonical.Int("timestamp", msg.Timestamp),
	}.Canonicalize()
	assert.Equal(t, wantPayload, string(msg.Payload))
}

func TestRelayCorrelationFiltering(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.client.Connect("0xabc", ""))
	env.waitEvent(t) // Connected

	require.NoError(t, env.client.SendMessage("hello", "0xabc"))
	var msg model.InputMessage
	require.NoError(t, json.Unmarshal(env.transport.sent()[0], &msg))

	// An output for another client multiplexed over the relay, then ours.
	env.transport.inbox <- []byte(`{"type":"OUTPUT","input_id":"someone-else","result":"not yours"}`)
	env.transport.inbox <- []byte(fmt.Sprintf(`{"type":"OUTPUT","input_id":%q,"result":"hi there"}`, msg.InputID))

	ev := env.waitEvent(t)
	out, ok := ev.(agentwire.Output)
	require.True(t, ok)
	assert.Equal(t, "hi there", out.Result)
	env.assertNoEvent(t)
}

func TestDirectModeAcceptsAnyOutput(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.client.Connect("", "https://agent.example.com"))
	env.waitEvent(t) // Connected

	env.transport.inbox <- []byte(`{"type":"OUTPUT","input_id":"whatever","result":"hi"}`)

	out, ok := env.waitEvent(t).(agentwire.Output)
	require.True(t, ok)
	assert.Equal(t, "hi", out.Result)
}

func TestSessionOverwrittenByLatestEvent(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.client.Connect("", "https://agent.example.com"))
	env.waitEvent(t) // Connected

	env.transport.inbox <- []byte(`{"type":"assistant","text":"one","session":{"session_id":"s-1","turn":1}}`)
	env.transport.inbox <- []byte(`{"type":"assistant","text":"two","session":{"session_id":"s-2","turn":7}}`)
	env.waitEvent(t)
	env.waitEvent(t)

	sess := env.client.Session()
	require.NotNil(t, sess)
	assert.Equal(t, "s-2", sess.SessionID)
	assert.Equal(t, 7, sess.Turn)
}

func TestSendDroppedWhenNotOpen(t *testing.T) {
	env := newTestEnv(t)

	// Never connected: the send silently does nothing.
	require.NoError(t, env.client.SendMessage("hello", "0xabc"))
	assert.Empty(t, env.transport.sent())
	assert.Nil(t, env.client.Session())
}

func TestPingAnsweredWithPong(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.client.Connect("0xabc", ""))
	env.waitEvent(t) // Connected

	env.transport.inbox <- []byte(`{"type":"PING"}`)

	sent := env.waitForWrites(t, 1)
	var pong model.Pong
	require.NoError(t, json.Unmarshal(sent[0], &pong))
	assert.Equal(t, model.TypePong, pong.Type)
	env.assertNoEvent(t)
}

func TestDisconnectClearsStateAndDropsLateEvents(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.client.Connect("0xabc", ""))
	env.waitEvent(t) // Connected
	require.NoError(t, env.client.SendMessage("hello", "0xabc"))

	env.client.Disconnect()
	assert.Equal(t, StateClosed, env.client.State())
	assert.Nil(t, env.client.Session())

	_, ok := env.waitEvent(t).(Disconnected)
	require.True(t, ok)

	// A late event on the torn-down transport is ignored.
	env.client.handleMessage(env.transport, []byte(`{"type":"assistant","text":"late","session":{"session_id":"s-9"}}`))
	env.assertNoEvent(t)
	assert.Nil(t, env.client.Session())
}

func TestResetKeepsConnection(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.client.Connect("0xabc", ""))
	env.waitEvent(t) // Connected

	require.NoError(t, env.client.SendMessage("first", "0xabc"))
	var first model.InputMessage
	require.NoError(t, json.Unmarshal(env.transport.sent()[0], &first))

	env.client.Reset()
	assert.Equal(t, StateOpen, env.client.State())
	assert.Nil(t, env.client.Session())

	require.NoError(t, env.client.SendMessage("second", "0xabc"))
	var second model.InputMessage
	require.NoError(t, json.Unmarshal(env.transport.sent()[1], &second))
	assert.NotEqual(t, first.Session.SessionID, second.Session.SessionID)
}

func TestSignFailureAbortsSend(t *testing.T) {
	env := newTestEnv(t)
	env.client.signer = identity.New(&model.Identity{Name: "broken", PrivateKey: []byte("corrupt")})

	require.NoError(t, env.client.Connect("0xabc", ""))
	env.waitEvent(t) // Connected

	err := env.client.SendMessage("hello", "0xabc")
	require.Error(t, err)
	assert.ErrorIs(t, err, identity.ErrCryptoFailure)
	assert.Empty(t, env.transport.sent())
}

func TestTransportFailureEmitsErrored(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.client.Connect("0xabc", ""))
	env.waitEvent(t) // Connected

	env.transport.Close()

	errored, ok := env.waitEvent(t).(Errored)
	require.True(t, ok)
	assert.Contains(t, errored.Message, "transport closed")
	assert.Equal(t, StateErrored, env.client.State())
}

func TestInteractiveResponses(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.client.Connect("0xabc", ""))
	env.waitEvent(t) // Connected

	require.NoError(t, env.client.Respond("the second one"))
	require.NoError(t, env.client.RespondToApproval(true, "once"))

	sent := env.transport.sent()
	require.Len(t, sent, 2)

	var answer model.AskUserResponse
	require.NoError(t, json.Unmarshal(sent[0], &answer))
	assert.Equal(t, model.TypeAskUserResponse, answer.Type)
	assert.Equal(t, "the second one", answer.Answer)

	var approval model.ApprovalResponse
	require.NoError(t, json.Unmarshal(sent[1], &approval))
	assert.Equal(t, model.TypeApprovalResponse, approval.Type)
	assert.True(t, approval.Approved)
	assert.Equal(t, "once", approval.Scope)
}
