package discord

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/eigolab/kaiwa/core"
)

func init() {
	core.RegisterPlatform("discord", New)
}

const maxDiscordLen = 2000

type replyContext struct {
	channelID string
	messageID string
}

type Platform struct {
	token   string
	session *discordgo.Session
	handler core.MessageHandler
	botID   string
}

func New(opts map[string]any) (core.Platform, error) {
	token, _ := opts["token"].(string)
	if token == "" {
		return nil, fmt.Errorf("discord: token is required")
	}
	return &Platform{token: token}, nil
}

func (p *Platform) Name() string { return "discord" }

func (p *Platform) Start(handler core.MessageHandler) error {
	p.handler = handler

	session, err := discordgo.New("Bot " + p.token)
	if err != nil {
		return fmt.Errorf("discord: create session: %w", err)
	}
	p.session = session

	session.Identify.Intents = discordgo.IntentsGuildMessages | discordgo.IntentsDirectMessages | discordgo.IntentMessageContent

	session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		p.botID = r.User.ID
		slog.Info("discord: connected", "bot", r.User.Username)
	})

	session.AddHandler(func(s *discordgo.Session, m *discordgo.MessageCreate) {
		if m.Author.Bot || m.Author.ID == p.botID || m.Content == "" {
			return
		}

		slog.Debug("discord: message received", "user", m.Author.Username, "channel", m.ChannelID)

		p.handler(p, &core.Message{
			Platform: "discord",
			UserID:   m.Author.ID,
			UserName: m.Author.Username,
			Text:     m.Content,
			ReplyCtx: replyContext{channelID: m.ChannelID, messageID: m.ID},
		})
	})

	if err := session.Open(); err != nil {
		return fmt.Errorf("discord: open gateway: %w", err)
	}

	return nil
}

// Reply sends each message as a reply to the triggering message. Options are
// rendered as a code-styled hint line; Discord buttons require interactions,
// which is more machinery than suggested text messages warrant here.
func (p *Platform) Reply(ctx context.Context, rctx any, msgs []core.Outbound) error {
	rc, ok := rctx.(replyContext)
	if !ok {
		return fmt.Errorf("discord: invalid reply context type %T", rctx)
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

		for _, chunk := range splitAtNewline(text, maxDiscordLen) {
			ref := &discordgo.MessageReference{MessageID: rc.messageID}
			if _, err := p.session.ChannelMessageSendReply(rc.channelID, chunk, ref); err != nil {
				return fmt.Errorf("discord: send: %w", err)
			}
		}
	}
	return nil
}

// splitAtNewline chunks text under maxLen runes, preferring newline
// boundaries. Discord's message limit counts characters, so the split must
// never land inside a multi-byte rune.
func splitAtNewline(s string, maxLen int) []string {
	var parts []string
	runes := []rune(s)
	for len(runes) > 0 {
		if len(runes) <= maxLen {
			parts = append(parts, string(runes))
			break
		}
		cut := maxLen
		for i := maxLen - 1; i > 0; i-- {
			if runes[i] == '\n' {
				cut = i + 1
				break
			}
		}
		parts = append(parts, string(runes[:cut]))
		runes = runes[cut:]
	}
	return parts
}

func (p *Platform) Stop() error {
	if p.session != nil {
		return p.session.Close()
	}
	return nil
}
