package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/eigolab/kaiwa/core"
)

func init() {
	core.RegisterPlatform("telegram", New)
}

type replyContext struct {
	chatID int64
}

type Platform struct {
	token   string
	bot     *bot.Bot
	handler core.MessageHandler
	cancel  context.CancelFunc
}

func New(opts map[string]any) (core.Platform, error) {
	token, _ := opts["token"].(string)
	if token == "" {
		return nil, fmt.Errorf("telegram: token is required")
	}
	return &Platform{token: token}, nil
}

func (p *Platform) Name() string { return "telegram" }

func (p *Platform) Start(handler core.MessageHandler) error {
	p.handler = handler

	b, err := bot.New(p.token, bot.WithDefaultHandler(p.onUpdate))
	if err != nil {
		return fmt.Errorf("telegram: auth failed: %w", err)
	}
	p.bot = b

	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel

	go b.Start(ctx)
	slog.Info("telegram: long polling started")
	return nil
}

func (p *Platform) onUpdate(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.Text == "" || update.Message.From == nil {
		return
	}
	msg := update.Message

	userName := msg.From.Username
	if userName == "" {
		userName = strings.TrimSpace(msg.From.FirstName + " " + msg.From.LastName)
	}

	slog.Debug("telegram: message received", "user", userName, "chat", msg.Chat.ID)

	p.handler(p, &core.Message{
		Platform: "telegram",
		UserID:   strconv.FormatInt(msg.From.ID, 10),
		UserName: userName,
		Text:     msg.Text,
		ReplyCtx: replyContext{chatID: msg.Chat.ID},
	})
}

// Reply sends each outbound message in order. Options become a one-time reply
// keyboard on the message they belong to, which is the closest Telegram has to
// tappable suggestions.
func (p *Platform) Reply(ctx context.Context, rctx any, msgs []core.Outbound) error {
	rc, ok := rctx.(replyContext)
	if !ok {
		return fmt.Errorf("telegram: invalid reply context type %T", rctx)
	}

	for _, m := range msgs {
		params := &bot.SendMessageParams{
			ChatID: rc.chatID,
			Text:   m.Text,
		}
		if len(m.Options) > 0 {
			params.ReplyMarkup = keyboardFor(m.Options)
		}
		if _, err := p.bot.SendMessage(ctx, params); err != nil {
			return fmt.Errorf("telegram: send: %w", err)
		}
	}
	return nil
}

// keyboardFor lays options out two per row. Telegram keyboards send the button
// text verbatim, so Text doubles as the label when they differ; the dispatch
// payload must round-trip, not the pretty label.
func keyboardFor(options []core.Option) *models.ReplyKeyboardMarkup {
	var rows [][]models.KeyboardButton
	var row []models.KeyboardButton
	for _, o := range options {
		row = append(row, models.KeyboardButton{Text: o.Text})
		if len(row) == 2 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	return &models.ReplyKeyboardMarkup{
		Keyboard:        rows,
		ResizeKeyboard:  true,
		OneTimeKeyboard: true,
	}
}

func (p *Platform) Stop() error {
	if p.cancel != nil {
		p.cancel()
	}
	return nil
}
