package line

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
	"github.com/line/line-bot-sdk-go/v8/linebot/webhook"
	"github.com/mdp/qrterminal/v3"

	"github.com/eigolab/kaiwa/core"
)

func init() {
	core.RegisterPlatform("line", New)
}

// replyContext carries the one-shot reply token plus the target id for the
// push fallback. Reply tokens expire in about a minute; generation normally
// finishes well inside that, but a slow backend must not lose the turn.
type replyContext struct {
	replyToken string
	targetID   string
}

type Platform struct {
	channelSecret string
	channelToken  string
	port          string
	callbackPath  string
	basicID       string
	bot           *messaging_api.MessagingApiAPI
	server        *http.Server
	handler       core.MessageHandler
}

func New(opts map[string]any) (core.Platform, error) {
	secret, _ := opts["channel_secret"].(string)
	token, _ := opts["channel_token"].(string)
	if secret == "" || token == "" {
		return nil, fmt.Errorf("line: channel_secret and channel_token are required")
	}

	port, _ := opts["port"].(string)
	if port == "" {
		port = "8080"
	}
	path, _ := opts["callback_path"].(string)
	if path == "" {
		path = "/callback"
	}
	basicID, _ := opts["basic_id"].(string)

	return &Platform{
		channelSecret: secret,
		channelToken:  token,
		port:          port,
		callbackPath:  path,
		basicID:       basicID,
	}, nil
}

func (p *Platform) Name() string { return "line" }

func (p *Platform) Start(handler core.MessageHandler) error {
	p.handler = handler

	bot, err := messaging_api.NewMessagingApiAPI(p.channelToken)
	if err != nil {
		return fmt.Errorf("line: create api client: %w", err)
	}
	p.bot = bot

	mux := http.NewServeMux()
	mux.HandleFunc(p.callbackPath, p.webhookHandler)

	p.server = &http.Server{
		Addr:    ":" + p.port,
		Handler: mux,
	}

	go func() {
		slog.Info("line: webhook server listening", "port", p.port, "path", p.callbackPath)
		if err := p.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("line: server error", "error", err)
		}
	}()

	if p.basicID != "" {
		fmt.Fprintf(os.Stdout, "Scan to add the bot as a friend (@%s):\n", p.basicID)
		qrterminal.GenerateHalfBlock("https://line.me/R/ti/p/@"+p.basicID, qrterminal.L, os.Stdout)
	}

	return nil
}

func (p *Platform) webhookHandler(w http.ResponseWriter, r *http.Request) {
	cb, err := webhook.ParseRequest(p.channelSecret, r)
	if err != nil {
		slog.Error("line: parse webhook failed", "error", err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	w.WriteHeader(http.StatusOK)

	for _, event := range cb.Events {
		e, ok := event.(webhook.MessageEvent)
		if !ok {
			continue
		}
		textMsg, ok := e.Message.(webhook.TextMessageContent)
		if !ok {
			continue
		}

		targetID, userID := extractSource(e.Source)

		slog.Debug("line: message received", "user", userID, "text_len", len(textMsg.Text))

		msg := &core.Message{
			Platform: "line",
			UserID:   userID,
			UserName: userID,
			Text:     textMsg.Text,
			ReplyCtx: replyContext{replyToken: e.ReplyToken, targetID: targetID},
		}

		p.handler(p, msg)
	}
}

func extractSource(src webhook.SourceInterface) (targetID, userID string) {
	switch s := src.(type) {
	case webhook.UserSource:
		return s.UserId, s.UserId
	case webhook.GroupSource:
		return s.GroupId, s.UserId
	case webhook.RoomSource:
		return s.RoomId, s.UserId
	default:
		return "unknown", "unknown"
	}
}

// Reply sends the turn's messages in one ReplyMessage call, preserving order.
// If the reply token was already consumed or has expired, it falls back to a
// push to the same target.
func (p *Platform) Reply(ctx context.Context, rctx any, msgs []core.Outbound) error {
	rc, ok := rctx.(replyContext)
	if !ok {
		return fmt.Errorf("line: invalid reply context type %T", rctx)
	}
	if len(msgs) == 0 {
		return nil
	}

	lineMsgs := make([]messaging_api.MessageInterface, 0, len(msgs))
	for _, m := range msgs {
		lineMsgs = append(lineMsgs, toTextMessage(m))
	}

	_, err := p.bot.ReplyMessage(&messaging_api.ReplyMessageRequest{
		ReplyToken: rc.replyToken,
		Messages:   lineMsgs,
	})
	if err == nil {
		return nil
	}
	slog.Warn("line: reply failed, pushing instead", "error", err)

	_, err = p.bot.PushMessage(&messaging_api.PushMessageRequest{
		To:       rc.targetID,
		Messages: lineMsgs,
	}, "")
	if err != nil {
		return fmt.Errorf("line: push message: %w", err)
	}
	return nil
}

func toTextMessage(m core.Outbound) messaging_api.TextMessage {
	msg := messaging_api.TextMessage{Text: m.Text}
	if len(m.Options) == 0 {
		return msg
	}

	items := make([]messaging_api.QuickReplyItem, 0, len(m.Options))
	for _, o := range m.Options {
		items = append(items, messaging_api.QuickReplyItem{
			Action: messaging_api.MessageAction{
				Label: o.Label,
				Text:  o.Text,
			},
		})
	}
	msg.QuickReply = &messaging_api.QuickReply{Items: items}
	return msg
}

func (p *Platform) Stop() error {
	if p.server != nil {
		return p.server.Shutdown(context.Background())
	}
	return nil
}
