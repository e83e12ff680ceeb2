package core

// Message represents a unified incoming text event from any platform.
type Message struct {
	Platform string
	UserID   string // stable external user identifier
	UserName string
	Text     string
	ReplyCtx any // platform-specific context needed for replying
}

// Option is one suggested quick reply attached to an outbound message.
// Label is what the user sees; Text is the message the platform sends back
// when the option is tapped.
type Option struct {
	Label string
	Text  string
}

// Outbound is one message to deliver back to the conversation. A single turn
// may produce several; their order is significant and must be preserved by
// every platform adapter.
type Outbound struct {
	Text    string
	Options []Option
}
