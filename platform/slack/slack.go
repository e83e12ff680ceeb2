package slack

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
	"github.com/slack-go/slack/socketmode"

	"github.com/eigolab/kaiwa/core"
)

func init() {
	core.RegisterPlatform("slack", New)
}

type replyContext struct {
	channel   string
	timestamp string // thread_ts for threading replies
}

type Platform struct {
	botToken string
	appToken string
	client   *slack.Client
	socket   *socketmode.Client
	handler  core.MessageHandler
	cancel   context.CancelFunc
}

func New(opts map[string]any) (core.Platform, error) {
	botToken, _ := opts["bot_token"].(string)
	appToken, _ := opts["app_token"].(string)
	if botToken == "" || appToken == "" {
		return nil, fmt.Errorf("slack: bot_token and app_token are required")
	}
	return &Platform{
		botToken: botToken,
		appToken: appToken,
	}, nil
}

func (p *Platform) Name() string { return "slack" }

func (p *Platform) Start(handler core.MessageHandler) error {
	p.handler = handler

	p.client = slack.New(p.botToken,
		slack.OptionAppLevelToken(p.appToken),
	)
	p.socket = socketmode.New(p.client)

	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case evt := <-p.socket.Events:
				p.handleEvent(evt)
			}
		}
	}()

	go func() {
		if err := p.socket.RunContext(ctx); err != nil {
			slog.Error("slack: socket mode error", "error", err)
		}
	}()

	slog.Info("slack: socket mode connected")
	return nil
}

func (p *Platform) handleEvent(evt socketmode.Event) {
	switch evt.Type {
	case socketmode.EventTypeEventsAPI:
		data, ok := evt.Data.(slackevents.EventsAPIEvent)
		if !ok {
			return
		}
		p.socket.Ack(*evt.Request)

		if data.Type != slackevents.CallbackEvent {
			return
		}
		ev, ok := data.InnerEvent.Data.(*slackevents.MessageEvent)
		if !ok {
			return
		}
		if ev.BotID != "" || ev.User == "" || ev.Text == "" {
			return
		}

		slog.Debug("slack: message received", "user", ev.User, "channel", ev.Channel)

		p.handler(p, &core.Message{
			Platform: "slack",
			UserID:   ev.User,
			UserName: ev.User,
			Text:     ev.Text,
			ReplyCtx: replyContext{channel: ev.Channel, timestamp: ev.TimeStamp},
		})

	case socketmode.EventTypeConnecting:
		slog.Debug("slack: connecting...")
	case socketmode.EventTypeConnected:
		slog.Info("slack: connected")
	case socketmode.EventTypeConnectionError:
		slog.Error("slack: connection error")
	}
}

// Reply posts the messages to the originating thread. Slack has no tappable
// quick replies for plain messages, so options are appended as a hint line
// the user can copy back.
func (p *Platform) Reply(ctx context.Context, rctx any, msgs []core.Outbound) error {
	rc, ok := rctx.(replyContext)
	if !ok {
		return fmt.Errorf("slack: invalid reply context type %T", rctx)
	}

	for _, m := range msgs {
		text := m.Text
		if len(m.Options) > 0 {
			tokens := make([]string, 0, len(m.Options))
			for _, o := range m.Options {
				tokens = append(tokens, "`"+o.Text+"`")
			}
			text += "\n" + strings.Join(tokens, " / ")
		}

		opts := []slack.MsgOption{
			slack.MsgOptionText(text, false),
		}
		if rc.timestamp != "" {
			opts = append(opts, slack.MsgOptionTS(rc.timestamp))
		}

		if _, _, err := p.client.PostMessageContext(ctx, rc.channel, opts...); err != nil {
			return fmt.Errorf("slack: send: %w", err)
		}
	}
	return nil
}

func (p *Platform) Stop() error {
	if p.cancel != nil {
		p.cancel()
	}
	return nil
}
