package core

import "context"

// Platform abstracts a messaging platform (LINE, Telegram, Slack, etc.).
type Platform interface {
	Name() string
	Start(handler MessageHandler) error
	Reply(ctx context.Context, replyCtx any, msgs []Outbound) error
	Stop() error
}

// MessageHandler is called by platforms when a new message arrives.
type MessageHandler func(p Platform, msg *Message)

// Generator is the text-generation backend. Implementations must be safe for
// concurrent use.
type Generator interface {
	Generate(ctx context.Context, p Prompt) (string, error)
}
