package brain

import "context"

// Message roles for the text-generation request.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one entry of the ordered message list sent to the model.
type Message struct {
	Role    string
	Content string
}

// TextModel generates a reply for a system instruction plus an ordered
// message list. Implementations surface rate-limit failures in a form
// reliability.IsRetryableModelError recognizes.
type TextModel interface {
	Complete(ctx context.Context, system string, msgs []Message) (string, error)
}
