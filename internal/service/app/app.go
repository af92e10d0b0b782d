// Package app is the terminal chat UI. It renders the transcript and drives
// the protocol client; all protocol logic lives in internal/service/agent.
package app

import (
	"fmt"
	"strings"

	"agent_chat/internal/config"
	"agent_chat/internal/identity"
	"agent_chat/internal/model"
	"agent_chat/internal/service/agent"
	"agent_chat/internal/service/transcript"
	"agent_chat/internal/utils/log"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"go.uber.org/zap"
)

type (
	App struct {
		app     *tview.Application
		chatbox *tview.TextView
		input   *tview.InputField

		client *agent.Client
		board  *transcript.Transcript

		agentAddress string
		directURL    string
	}
)

func NewApp(provider *identity.Provider, cfg *config.Config, agentAddress string) *App {
	a := &App{
		app:          tview.NewApplication(),
		agentAddress: agentAddress,
		directURL:    cfg.DirectURL,
	}
	a.board = transcript.New(a.redraw)
	a.client = agent.NewClient(provider, cfg.RelayHost, a.board.Apply)
	return a
}

// Run connects and hands control to the UI loop. Blocking.
func (a *App) Run() {
	if err := a.client.Connect(a.agentAddress, a.directURL); err != nil {
		log.Error("initial connect failed", zap.Error(err))
	}
	a.renderUI()
}

func (a *App) Stop() {
	a.client.Disconnect()
	a.app.Stop()
}

// blocking function
func (a *App) renderUI() {
	a.chatbox = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true)
	a.chatbox.SetBorder(true).SetTitle(a.title())

	a.input = tview.NewInputField().
		SetLabel("Message: ").
		SetFieldWidth(0)
	a.input.SetBorder(true).SetTitle(" New Message ")

	a.input.SetDoneFunc(func(key tcell.Key) {
		if key != tcell.KeyEnter {
			return
		}
		text := strings.TrimSpace(a.input.GetText())
		if text == "" {
			return
		}
		a.input.SetText("")

		go a.submit(text)
	})

	layout := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(a.chatbox, 0, 1, false).
		AddItem(a.input, 3, 0, true)

	if err := a.app.SetRoot(layout, true).SetFocus(a.input).Run(); err != nil {
		log.Fatal("cannot init app", zap.Error(err))
	}
}

func (a *App) submit(text string) {
	switch text {
	case "/quit":
		a.Stop()
		return
	case "/clear":
		a.client.Reset()
		a.board.Clear()
		return
	case "/reconnect":
		if err := a.client.Connect(a.agentAddress, a.directURL); err != nil {
			log.Error("reconnect failed", zap.Error(err))
		}
		return
	}

	switch a.board.PendingPrompt() {
	case model.ItemApprovalNeeded:
		approved := text == "y" || text == "yes"
		a.board.AppendUser(text)
		if err := a.client.RespondToApproval(approved, "once"); err != nil {
			log.Error("send approval response failed", zap.Error(err))
		}
	case model.ItemAskUser:
		a.board.AppendUser(text)
		if err := a.client.Respond(text); err != nil {
			log.Error("send answer failed", zap.Error(err))
		}
	default:
		a.board.AppendUser(text)
		if err := a.client.SendMessage(text, a.agentAddress); err != nil {
			log.Error("send message failed", zap.Error(err))
		}
	}
}

func (a *App) redraw() {
	a.app.QueueUpdateDraw(func() {
		a.chatbox.Clear()
		for _, item := range a.board.Items() {
			fmt.Fprint(a.chatbox, renderItem(item))
		}
		a.chatbox.SetTitle(a.title())
		a.chatbox.ScrollToEnd()
	})
}

func (a *App) title() string {
	status := "offline"
	switch {
	case a.board.Awaiting():
		status = "waiting for you"
	case a.board.Loading():
		status = "working..."
	case a.board.Connected():
		status = "connected"
	case a.board.LastError() != "":
		status = "error: " + a.board.LastError()
	}
	return fmt.Sprintf(" Agent Chat [%s] ", status)
}

func renderItem(item model.ChatItem) string {
	switch item.Kind {
	case model.ItemUser:
		return fmt.Sprintf("[yellow]You:[-] %s\n", tview.Escape(item.Text))
	case model.ItemAgent:
		return fmt.Sprintf("[green]Agent:[-] %s\n", tview.Escape(item.Text))
	case model.ItemThinking:
		if item.Status == model.StatusRunning {
			return fmt.Sprintf("[gray]thinking (%s)...[-]\n", tview.Escape(item.Text))
		}
		return fmt.Sprintf("[gray]thinking (%s) done in %dms[-]\n", tview.Escape(item.Text), item.DurationMS)
	case model.ItemToolCall:
		head := fmt.Sprintf("[blue]%s(%s)[-]", tview.Escape(item.Tool), tview.Escape(item.Args))
		switch item.Status {
		case model.StatusDone:
			return fmt.Sprintf("%s -> %s (%dms)\n", head, tview.Escape(item.Result), item.DurationMS)
		case model.StatusError:
			return fmt.Sprintf("%s [red]failed:[-] %s\n", head, tview.Escape(item.Result))
		default:
			return head + " running...\n"
		}
	case model.ItemAskUser:
		s := fmt.Sprintf("[orange]Agent asks:[-] %s\n", tview.Escape(item.Text))
		for _, opt := range item.Options {
			s += fmt.Sprintf("  - %s\n", tview.Escape(opt))
		}
		return s
	case model.ItemApprovalNeeded:
		return fmt.Sprintf("[red]Approval needed:[-] %s(%s) %s (y/n)\n",
			tview.Escape(item.Tool), tview.Escape(item.Args), tview.Escape(item.Description))
	case model.ItemOnboardRequired:
		return fmt.Sprintf("[orange]Onboarding required:[-] methods=%s amount=%s level=%s\n",
			strings.Join(item.Methods, ","), item.PaymentAmount, item.Level)
	case model.ItemOnboardSuccess:
		return fmt.Sprintf("[green]Onboarding complete[-] level=%s\n", item.Level)
	default:
		return ""
	}
}
