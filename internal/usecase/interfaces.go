package usecase

import "context"

// PushSender delivers a push notification to a device token. Implementations
// are fire-and-forget from the chat core's point of view: a failed push never
// fails the message that triggered it.
type PushSender interface {
	Send(ctx context.Context, token, title, body string, data map[string]string) error
}
