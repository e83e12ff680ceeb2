// Package console is an interactive terminal platform for local development:
// the full conversation loop without registering any bot webhook.
package console

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/eigolab/kaiwa/core"
)

func init() {
	core.RegisterPlatform("console", New)
}

var (
	userStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Bold(true)
	botStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	optionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Italic(true)
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
)

type Platform struct {
	userID  string
	program *tea.Program
	handler core.MessageHandler
	done    chan struct{}
}

func New(opts map[string]any) (core.Platform, error) {
	userID, _ := opts["user_id"].(string)
	if userID == "" {
		userID = "console-user"
	}
	return &Platform{userID: userID, done: make(chan struct{})}, nil
}

func (p *Platform) Name() string { return "console" }

func (p *Platform) Start(handler core.MessageHandler) error {
	p.handler = handler

	p.program = tea.NewProgram(newModel(p.submit))

	go func() {
		defer close(p.done)
		if _, err := p.program.Run(); err != nil {
			fmt.Println(errStyle.Render("console: " + err.Error()))
		}
	}()

	return nil
}

// submit hands a typed line to the conversation engine. The engine replies
// asynchronously through Reply, so the UI stays responsive while generating.
func (p *Platform) submit(text string) {
	go p.handler(p, &core.Message{
		Platform: "console",
		UserID:   p.userID,
		UserName: p.userID,
		Text:     text,
		ReplyCtx: nil,
	})
}

func (p *Platform) Reply(_ context.Context, _ any, msgs []core.Outbound) error {
	p.program.Send(replyMsg{msgs: msgs})
	return nil
}

func (p *Platform) Stop() error {
	if p.program != nil {
		p.program.Quit()
		<-p.done
	}
	return nil
}

// replyMsg carries engine output into the bubbletea event loop.
type replyMsg struct {
	msgs []core.Outbound
}

type model struct {
	input    textinput.Model
	lines    []string
	onSubmit func(string)
}

func newModel(onSubmit func(string)) model {
	ti := textinput.New()
	ti.Placeholder = "メッセージを入力..."
	ti.Focus()
	ti.CharLimit = 2000
	ti.Width = 80

	return model{
		input:    ti,
		lines:    []string{optionStyle.Render("(Ctrl+C で終了)")},
		onSubmit: onSubmit,
	}
}

func (m model) Init() tea.Cmd {
	return textinput.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			text := strings.TrimSpace(m.input.Value())
			if text == "" {
				return m, nil
			}
			m.lines = append(m.lines, userStyle.Render("you> ")+text)
			m.input.Reset()
			m.onSubmit(text)
			return m, nil
		}

	case replyMsg:
		for _, out := range msg.msgs {
			for _, line := range strings.Split(out.Text, "\n") {
				m.lines = append(m.lines, botStyle.Render("bot> ")+line)
			}
			if len(out.Options) > 0 {
				labels := make([]string, 0, len(out.Options))
				for _, o := range out.Options {
					labels = append(labels, o.Text)
				}
				m.lines = append(m.lines, optionStyle.Render("     ["+strings.Join(labels, " | ")+"]"))
			}
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m model) View() string {
	var b strings.Builder
	for _, line := range m.lines {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
	b.WriteString(m.input.View())
	b.WriteByte('\n')
	return b.String()
}
