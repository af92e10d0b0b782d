// Package agentwire decodes inbound wire messages from an agent or relay
// into a closed set of typed events.
package agentwire

// Inbound event type discriminators.
const (
	TypePing            = "PING"
	TypeLLMCall         = "llm_call"
	TypeLLMResult       = "llm_result"
	TypeThinking        = "thinking"
	TypeToolCall        = "tool_call"
	TypeToolResult      = "tool_result"
	TypeAssistant       = "assistant"
	TypeAskUser         = "ask_user"
	TypeApprovalNeeded  = "approval_needed"
	TypeOnboardRequired = "ONBOARD_REQUIRED"
	TypeOnboardSuccess  = "ONBOARD_SUCCESS"
	TypeOutput          = "OUTPUT"
	TypeError           = "ERROR"
)

// Event is one decoded inbound event.
type Event interface {
	isEvent()
}

type (
	// Ping is a keep-alive probe. It must be answered with a PONG on the
	// same connection immediately.
	Ping struct{}

	// LLMCallStarted marks the beginning of a model call.
	LLMCallStarted struct {
		ID    string
		Model string
	}

	// LLMCallFinished closes a previously started model call.
	LLMCallFinished struct {
		ID         string
		DurationMS int64
	}

	// Thinking is a free-form note emitted while the agent works.
	Thinking struct {
		ID   string
		Text string
	}

	ToolCallStarted struct {
		ID   string
		Tool string
		Args string
	}

	ToolCallFinished struct {
		ID         string
		Result     string
		Err        string
		DurationMS int64
	}

	// AssistantText is intermediate agent prose, distinct from the terminal
	// Output event.
	AssistantText struct {
		Text string
	}

	AskUser struct {
		ID       string
		Question string
		Options  []string
	}

	ApprovalNeeded struct {
		ID          string
		Tool        string
		Args        string
		Description string
	}

	OnboardRequired struct {
		Methods       []string
		PaymentAmount string
		Level         string
	}

	OnboardSuccess struct {
		Level string
	}

	// Output is the terminal response to one input. InputID echoes the
	// correlation id of the input it answers.
	Output struct {
		InputID string
		Result  string
	}

	ErrorEvent struct {
		Message string
	}
)

func (Ping) isEvent()             {}
func (LLMCallStarted) isEvent()   {}
func (LLMCallFinished) isEvent()  {}
func (Thinking) isEvent()         {}
func (ToolCallStarted) isEvent()  {}
func (ToolCallFinished) isEvent() {}
func (AssistantText) isEvent()    {}
func (AskUser) isEvent()          {}
func (ApprovalNeeded) isEvent()   {}
func (OnboardRequired) isEvent()  {}
func (OnboardSuccess) isEvent()   {}
func (Output) isEvent()           {}
func (ErrorEvent) isEvent()       {}
