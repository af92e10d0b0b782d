package model

type (
	ItemKind   string
	ItemStatus string
)

// Transcript item kinds.
const (
	ItemUser            ItemKind = "user"
	ItemAgent           ItemKind = "agent"
	ItemThinking        ItemKind = "thinking"
	ItemToolCall        ItemKind = "tool_call"
	ItemAskUser         ItemKind = "ask_user"
	ItemApprovalNeeded  ItemKind = "approval_needed"
	ItemOnboardRequired ItemKind = "onboard_required"
	ItemOnboardSuccess  ItemKind = "onboard_success"
)

// Statuses for items that progress in place (thinking, tool calls).
const (
	StatusRunning ItemStatus = "RUNNING"
	StatusDone    ItemStatus = "DONE"
	StatusError   ItemStatus = "ERROR"
)

type (
	// ChatItem is one renderable transcript entry. Thinking and ToolCall items
	// mutate in place as their status progresses; every other kind is
	// immutable once appended.
	ChatItem struct {
		ID     string     `json:"id"`
		Kind   ItemKind   `json:"kind"`
		Text   string     `json:"text,omitempty"`
		Status ItemStatus `json:"status,omitempty"`

		// Tool call fields.
		Tool       string `json:"tool,omitempty"`
		Args       string `json:"args,omitempty"`
		Result     string `json:"result,omitempty"`
		DurationMS int64  `json:"duration_ms,omitempty"`

		// Interactive prompt fields.
		Options     []string `json:"options,omitempty"`
		Description string   `json:"description,omitempty"`

		// Onboarding fields.
		Methods       []string `json:"methods,omitempty"`
		PaymentAmount string   `json:"payment_amount,omitempty"`
		Level         string   `json:"level,omitempty"`
	}
)
