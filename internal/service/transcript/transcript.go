// Package transcript folds the client's event stream into an ordered list of
// chat items for a presentation layer to render.
package transcript

import (
	"sync"

	"agent_chat/internal/model"
	"agent_chat/internal/protocol/agentwire"
	"agent_chat/internal/service/agent"

	"github.com/google/uuid"
)

type (
	// Transcript is the mutable chat state: an append/update-only item list
	// plus the flags the UI renders around it. All mutation goes through
	// Apply, AppendUser and Clear under one lock.
	Transcript struct {
		mu        sync.Mutex
		items     []model.ChatItem
		loading   bool
		awaiting  bool
		connected bool
		lastError string

		onChange func()
	}
)

// New creates an empty transcript. onChange, if non-nil, is invoked after
// every visible mutation, outside the lock.
func New(onChange func()) *Transcript {
	return &Transcript{onChange: onChange}
}

// AppendUser records a locally sent prompt and starts the loading indicator.
func (t *Transcript) AppendUser(prompt string) {
	t.mu.Lock()
	t.items = append(t.items, model.ChatItem{
		ID:   uuid.NewString(),
		Kind: model.ItemUser,
		Text: prompt,
	})
	t.loading = true
	t.awaiting = false
	t.mu.Unlock()
	t.notify()
}

// Clear truncates the transcript. The only way items are ever removed.
func (t *Transcript) Clear() {
	t.mu.Lock()
	t.items = nil
	t.loading = false
	t.awaiting = false
	t.mu.Unlock()
	t.notify()
}

// Apply folds one client event into the transcript.
func (t *Transcript) Apply(ev agent.Event) {
	t.mu.Lock()
	changed := t.apply(ev)
	t.mu.Unlock()
	if changed {
		t.notify()
	}
}

func (t *Transcript) apply(ev agent.Event) bool {
	switch e := ev.(type) {
	case agent.Connected:
		t.connected = true
		t.lastError = ""
		return true

	case agent.Disconnected:
		t.connected = false
		t.loading = false
		return true

	case agent.Errored:
		t.connected = false
		t.loading = false
		t.lastError = e.Message
		return true

	case agentwire.LLMCallStarted:
		t.items = append(t.items, model.ChatItem{
			ID:     e.ID,
			Kind:   model.ItemThinking,
			Text:   e.Model,
			Status: model.StatusRunning,
		})
		return true

	case agentwire.LLMCallFinished:
		return t.finish(e.ID, model.ItemThinking, "", "", e.DurationMS)

	case agentwire.Thinking:
		t.items = append(t.items, model.ChatItem{
			ID:     e.ID,
			Kind:   model.ItemThinking,
			Text:   e.Text,
			Status: model.StatusRunning,
		})
		return true

	case agentwire.ToolCallStarted:
		t.items = append(t.items, model.ChatItem{
			ID:     e.ID,
			Kind:   model.ItemToolCall,
			Tool:   e.Tool,
			Args:   e.Args,
			Status: model.StatusRunning,
		})
		return true

	case agentwire.ToolCallFinished:
		return t.finish(e.ID, model.ItemToolCall, e.Result, e.Err, e.DurationMS)

	case agentwire.AssistantText:
		return t.appendAgentText(e.Text)

	case agentwire.AskUser:
		t.items = append(t.items, model.ChatItem{
			ID:      e.ID,
			Kind:    model.ItemAskUser,
			Text:    e.Question,
			Options: e.Options,
		})
		t.awaiting = true
		t.loading = false
		return true

	case agentwire.ApprovalNeeded:
		t.items = append(t.items, model.ChatItem{
			ID:          e.ID,
			Kind:        model.ItemApprovalNeeded,
			Tool:        e.Tool,
			Args:        e.Args,
			Description: e.Description,
		})
		t.awaiting = true
		t.loading = false
		return true

	case agentwire.OnboardRequired:
		t.items = append(t.items, model.ChatItem{
			ID:            uuid.NewString(),
			Kind:          model.ItemOnboardRequired,
			Methods:       e.Methods,
			PaymentAmount: e.PaymentAmount,
			Level:         e.Level,
		})
		t.awaiting = true
		t.loading = false
		return true

	case agentwire.OnboardSuccess:
		t.items = append(t.items, model.ChatItem{
			ID:    uuid.NewString(),
			Kind:  model.ItemOnboardSuccess,
			Level: e.Level,
		})
		return true

	case agentwire.Output:
		t.appendAgentText(e.Result)
		t.awaiting = false
		t.loading = false
		return true

	case agentwire.ErrorEvent:
		t.connected = false
		t.loading = false
		t.lastError = e.Message
		return true
	}

	return false
}

// finish locates a running item by id and kind and attaches the result. A
// finish with no matching started item is dropped; it never creates a
// phantom finished item.
func (t *Transcript) finish(id string, kind model.ItemKind, result, errText string, durationMS int64) bool {
	for i := len(t.items) - 1; i >= 0; i-- {
		it := &t.items[i]
		if it.ID != id || it.Kind != kind {
			continue
		}
		if errText != "" {
			it.Status = model.StatusError
			it.Result = errText
		} else {
			it.Status = model.StatusDone
			it.Result = result
		}
		it.DurationMS = durationMS
		return true
	}
	return false
}

// appendAgentText appends an immutable agent item unless the text is empty or
// byte-equal to the most recent agent item. The equality check deduplicates
// intermediate assistant text against the final OUTPUT echo.
func (t *Transcript) appendAgentText(text string) bool {
	if text == "" {
		return false
	}
	for i := len(t.items) - 1; i >= 0; i-- {
		if t.items[i].Kind != model.ItemAgent {
			continue
		}
		if t.items[i].Text == text {
			return false
		}
		break
	}
	t.items = append(t.items, model.ChatItem{
		ID:   uuid.NewString(),
		Kind: model.ItemAgent,
		Text: text,
	})
	return true
}

// PendingPrompt returns the kind of the interactive item currently awaiting
// user input, or "" when nothing is pending.
func (t *Transcript) PendingPrompt() model.ItemKind {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.awaiting {
		return ""
	}
	for i := len(t.items) - 1; i >= 0; i-- {
		switch t.items[i].Kind {
		case model.ItemAskUser, model.ItemApprovalNeeded, model.ItemOnboardRequired:
			return t.items[i].Kind
		}
	}
	return ""
}

// Items returns a snapshot copy of the transcript.
func (t *Transcript) Items() []model.ChatItem {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]model.ChatItem, len(t.items))
	copy(out, t.items)
	return out
}

func (t *Transcript) Loading() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.loading
}

// Awaiting reports whether an interactive prompt is pending user input.
func (t *Transcript) Awaiting() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.awaiting
}

func (t *Transcript) Connected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.connected
}

// LastError returns the most recent surfaced error message, cleared on the
// next successful connect.
func (t *Transcript) LastError() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastError
}

func (t *Transcript) notify() {
	if t.onChange != nil {
		t.onChange()
	}
}
