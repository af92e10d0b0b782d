package model

import "encoding/json"

// Outbound message types.
const (
	TypeInput            = "INPUT"
	TypeAskUserResponse  = "ASK_USER_RESPONSE"
	TypeApprovalResponse = "APPROVAL_RESPONSE"
	TypePong             = "PONG"
)

type (
	// InputMessage is one signed prompt. Payload carries the canonical signed
	// bytes verbatim so the verifier sees exactly what was signed.
	InputMessage struct {
		Type      string          `json:"type"`
		InputID   string          `json:"input_id"`
		Prompt    string          `json:"prompt"`
		To        string          `json:"to,omitempty"`
		Payload   json.RawMessage `json:"payload"`
		From      string          `json:"from"`
		Signature string          `json:"signature"`
		Timestamp int64           `json:"timestamp"`
		Session   *Session        `json:"session,omitempty"`
		Images    []string        `json:"images,omitempty"`
	}

	AskUserResponse struct {
		Type   string `json:"type"`
		Answer string `json:"answer"`
	}

	ApprovalResponse struct {
		Type     string `json:"type"`
		Approved bool   `json:"approved"`
		Scope    string `json:"scope"`
	}

	Pong struct {
		Type string `json:"type"`
	}
)
