package model

type (
	// HistoryEntry is one role+content pair of the conversation history.
	HistoryEntry struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}

	// Session is the server-authoritative conversation state. It is only ever
	// replaced wholesale with the latest value received from the peer.
	Session struct {
		SessionID string         `json:"session_id,omitempty"`
		History   []HistoryEntry `json:"history,omitempty"`
		Trace     []string       `json:"trace,omitempty"`
		Turn      int            `json:"turn,omitempty"`
	}
)
