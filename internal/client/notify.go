package client

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

// hookTypeNotification is the webhook message type for push notifications.
const hookTypeNotification = 12

// NotifyClient posts push notifications to the notification webhook.
type NotifyClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewNotifyClient creates a new notification webhook client.
func NewNotifyClient(baseURL string, httpClient *http.Client) *NotifyClient {
	return &NotifyClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// Send delivers one notification payload.
func (c *NotifyClient) Send(ctx context.Context, payload map[string]interface{}) error {
	envelope := map[string]interface{}{
		"type": hookTypeNotification,
		"data": map[string]interface{}{
			"Action": 0,
			"Data":   payload,
		},
	}
	if _, err := doJSON(ctx, c.httpClient, http.MethodPost, c.baseURL+"/webhook/constant", nil, envelope, nil); err != nil {
		return fmt.Errorf("sending notification: %w", err)
	}
	return nil
}
