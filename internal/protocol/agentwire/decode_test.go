package agentwire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeOutput(t *testing.T) {
	ev, sess, err := Decode([]byte(`{"type":"OUTPUT","input_id":"in-1","result":"hi there","session":{"session_id":"s-1","turn":2}}`))
	require.NoError(t, err)

	out, ok := ev.(Output)
	require.True(t, ok)
	assert.Equal(t, "in-1", out.InputID)
	assert.Equal(t, "hi there", out.Result)

	require.NotNil(t, sess)
	assert.Equal(t, "s-1", sess.SessionID)
	assert.Equal(t, 2, sess.Turn)
}

func TestDecodeUnknownTypeDropped(t *testing.T) {
	ev, _, err := Decode([]byte(`{"type":"SOMETHING_NEW","text":"ignored"}`))
	require.NoError(t, err)
	assert.Nil(t, ev)
}

func TestDecodeUnparseableFallsBackToAssistantText(t *testing.T) {
	ev, sess, err := Decode([]byte("plain text, not json"))
	require.NoError(t, err)
	assert.Nil(t, sess)

	text, ok := ev.(AssistantText)
	require.True(t, ok)
	assert.Equal(t, "plain text, not json", text.Text)
}

func TestDecodeStartedEventsGetLocalID(t *testing.T) {
	ev, _, err := Decode([]byte(`{"type":"tool_call","tool":"search","arguments":"query"}`))
	require.NoError(t, err)

	tc, ok := ev.(ToolCallStarted)
	require.True(t, ok)
	assert.NotEmpty(t, tc.ID)
	assert.Equal(t, "search", tc.Tool)
	assert.Equal(t, "query", tc.Args)

	ev2, _, err := Decode([]byte(`{"type":"thinking","text":"pondering"}`))
	require.NoError(t, err)
	th, ok := ev2.(Thinking)
	require.True(t, ok)
	assert.NotEmpty(t, th.ID)
	assert.NotEqual(t, tc.ID, th.ID)
}

func TestDecodeFinishedEventsWithoutIDDropped(t *testing.T) {
	ev, _, err := Decode([]byte(`{"type":"tool_result","result":"done"}`))
	require.NoError(t, err)
	assert.Nil(t, ev)

	ev, _, err = Decode([]byte(`{"type":"llm_result","duration_ms":120}`))
	require.NoError(t, err)
	assert.Nil(t, ev)
}

func TestDecodeFinishedEventsWithID(t *testing.T) {
	ev, _, err := Decode([]byte(`{"type":"tool_result","id":"t-1","result":"42","duration_ms":35}`))
	require.NoError(t, err)

	tr, ok := ev.(ToolCallFinished)
	require.True(t, ok)
	assert.Equal(t, "t-1", tr.ID)
	assert.Equal(t, "42", tr.Result)
	assert.Equal(t, int64(35), tr.DurationMS)
	assert.Empty(t, tr.Err)
}

func TestDecodePing(t *testing.T) {
	ev, _, err := Decode([]byte(`{"type":"PING"}`))
	require.NoError(t, err)
	_, ok := ev.(Ping)
	assert.True(t, ok)
}

func TestDecodeStructuredToolArguments(t *testing.T) {
	ev, _, err := Decode([]byte(`{"type":"tool_call","id":"t-2","tool":"write","arguments":{"path":"a.txt"}}`))
	require.NoError(t, err)

	tc, ok := ev.(ToolCallStarted)
	require.True(t, ok)
	assert.Equal(t, `{"path":"a.txt"}`, tc.Args)
}

func TestDecodeInteractiveEvents(t *testing.T) {
	ev, _, err := Decode([]byte(`{"type":"ask_user","text":"which one?","options":["a","b"]}`))
	require.NoError(t, err)
	ask, ok := ev.(AskUser)
	require.True(t, ok)
	assert.Equal(t, "which one?", ask.Question)
	assert.Equal(t, []string{"a", "b"}, ask.Options)

	ev, _, err = Decode([]byte(`{"type":"approval_needed","tool":"bash","arguments":"rm -rf /tmp/x","description":"delete scratch dir"}`))
	require.NoError(t, err)
	ap, ok := ev.(ApprovalNeeded)
	require.True(t, ok)
	assert.Equal(t, "bash", ap.Tool)
	assert.Equal(t, "delete scratch dir", ap.Description)

	ev, _, err = Decode([]byte(`{"type":"ONBOARD_REQUIRED","methods":["card"],"payment_amount":"5.00","level":"basic"}`))
	require.NoError(t, err)
	ob, ok := ev.(OnboardRequired)
	require.True(t, ok)
	assert.Equal(t, []string{"card"}, ob.Methods)
	assert.Equal(t, "5.00", ob.PaymentAmount)
}

func TestDecodeError(t *testing.T) {
	ev, _, err := Decode([]byte(`{"type":"ERROR","message":"agent crashed"}`))
	require.NoError(t, err)
	e, ok := ev.(ErrorEvent)
	require.True(t, ok)
	assert.Equal(t, "agent crashed", e.Message)
}
