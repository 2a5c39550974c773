package firebase

import (
	"context"

	"firebase.google.com/go/v4/messaging"
)

// MessagingClient delivers push notifications through FCM to users whose
// sockets are gone.
type MessagingClient struct {
	client *messaging.Client
}

func NewMessagingClient(client *messaging.Client) *MessagingClient {
	return &MessagingClient{
		client: client,
	}
}

func (m *MessagingClient) Send(ctx context.Context, token, title, body string, data map[string]string) error {
	msg := &messaging.Message{
		Token: token,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: data,
	}

	_, err := m.client.Send(ctx, msg)
	return err
}
