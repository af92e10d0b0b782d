package agentwire

import (
	"encoding/json"
	"strings"

	"agent_chat/internal/model"
	"agent_chat/internal/utils/log"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// wireEvent is the superset of fields any inbound event may carry. Everything
// but Type is optional on the wire.
type wireEvent struct {
	Type          string          `json:"type"`
	ID            string          `json:"id,omitempty"`
	InputID       string          `json:"input_id,omitempty"`
	Model         string          `json:"model,omitempty"`
	DurationMS    int64           `json:"duration_ms,omitempty"`
	Tool          string          `json:"tool,omitempty"`
	Args          json.RawMessage `json:"arguments,omitempty"`
	Result        string          `json:"result,omitempty"`
	Error         string          `json:"error,omitempty"`
	Text          string          `json:"text,omitempty"`
	Options       []string        `json:"options,omitempty"`
	Description   string          `json:"description,omitempty"`
	Methods       []string        `json:"methods,omitempty"`
	PaymentAmount string          `json:"payment_amount,omitempty"`
	Level         string          `json:"level,omitempty"`
	Message       string          `json:"message,omitempty"`
	Session       *model.Session  `json:"session,omitempty"`
}

// Decode parses one inbound wire message. It returns the decoded event and,
// separately, any session payload the message carried so the caller can
// overwrite its locally held session.
//
// A nil event with a nil error means the message was dropped: either its
// discriminator is unknown (forward compatibility) or a finish event arrived
// without the id needed to correlate it. An entirely unparseable message is
// downgraded to a plain assistant-text event rather than an error.
func Decode(data []byte) (Event, *model.Session, error) {
	var w wireEvent
	if err := json.Unmarshal(data, &w); err != nil || w.Type == "" {
		text := strings.TrimSpace(string(data))
		if text == "" {
			return nil, nil, nil
		}
		return AssistantText{Text: text}, nil, nil
	}

	switch w.Type {
	case TypePing:
		return Ping{}, w.Session, nil
	case TypeLLMCall:
		return LLMCallStarted{ID: orFreshID(w.ID), Model: w.Model}, w.Session, nil
	case TypeLLMResult:
		if w.ID == "" {
			return nil, w.Session, nil
		}
		return LLMCallFinished{ID: w.ID, DurationMS: w.DurationMS}, w.Session, nil
	case TypeThinking:
		return Thinking{ID: orFreshID(w.ID), Text: w.Text}, w.Session, nil
	case TypeToolCall:
		return ToolCallStarted{ID: orFreshID(w.ID), Tool: w.Tool, Args: rawToString(w.Args)}, w.Session, nil
	case TypeToolResult:
		if w.ID == "" {
			return nil, w.Session, nil
		}
		return ToolCallFinished{ID: w.ID, Result: w.Result, Err: w.Error, DurationMS: w.DurationMS}, w.Session, nil
	case TypeAssistant:
		return AssistantText{Text: w.Text}, w.Session, nil
	case TypeAskUser:
		return AskUser{ID: orFreshID(w.ID), Question: w.Text, Options: w.Options}, w.Session, nil
	case TypeApprovalNeeded:
		return ApprovalNeeded{ID: orFreshID(w.ID), Tool: w.Tool, Args: rawToString(w.Args), Description: w.Description}, w.Session, nil
	case TypeOnboardRequired:
		return OnboardRequired{Methods: w.Methods, PaymentAmount: w.PaymentAmount, Level: w.Level}, w.Session, nil
	case TypeOnboardSuccess:
		return OnboardSuccess{Level: w.Level}, w.Session, nil
	case TypeOutput:
		return Output{InputID: w.InputID, Result: w.Result}, w.Session, nil
	case TypeError:
		return ErrorEvent{Message: w.Message}, w.Session, nil
	default:
		log.Debug("dropping unknown event type", zap.String("type", w.Type))
		return nil, w.Session, nil
	}
}

func orFreshID(id string) string {
	if id != "" {
		return id
	}
	return uuid.NewString()
}

func rawToString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}
