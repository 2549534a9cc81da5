package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"reminder-service/internal/models"
)

// WebhookSender posts messages to per-channel provider endpoints
// (transactional email, SMS and WhatsApp gateways).
type WebhookSender struct {
	client    *http.Client
	endpoints map[models.Channel]string
}

func NewWebhookSender(endpoints map[models.Channel]string) *WebhookSender {
	return &WebhookSender{
		client:    &http.Client{},
		endpoints: endpoints,
	}
}

type webhookPayload struct {
	To      string `json:"to"`
	Name    string `json:"name,omitempty"`
	Type    string `json:"type"`
	Subject string `json:"subject,omitempty"`
	Body    string `json:"body"`
}

func (s *WebhookSender) Send(ctx context.Context, ch models.Channel, msg Message) error {
	const op = "notify.WebhookSender.Send"

	endpoint, ok := s.endpoints[ch]
	if !ok || endpoint == "" {
		return fmt.Errorf("%s: no endpoint configured for channel %s", op, ch)
	}

	payload := webhookPayload{
		Name:    msg.Recipient.Name,
		Type:    string(msg.Type),
		Subject: msg.Subject,
		Body:    msg.Body,
	}

	switch ch {
	case models.ChannelEmail:
		payload.To = msg.Recipient.Email
	case models.ChannelSMS, models.ChannelWhatsApp:
		payload.To = msg.Recipient.Phone
	default:
		return fmt.Errorf("%s: unsupported channel %s", op, ch)
	}

	if payload.To == "" {
		return fmt.Errorf("%s: recipient has no address for channel %s", op, ch)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("%s: provider returned status %d", op, resp.StatusCode)
	}

	return nil
}

// NotificationWriter persists in-app notifications.
type NotificationWriter interface {
	CreateInAppNotification(ctx context.Context, n *models.InAppNotification) error
}

// InAppSender writes notifications to the store for in-product display.
type InAppSender struct {
	writer NotificationWriter
	now    func() time.Time
}

func NewInAppSender(writer NotificationWriter) *InAppSender {
	return &InAppSender{writer: writer, now: time.Now}
}

func (s *InAppSender) Send(ctx context.Context, ch models.Channel, msg Message) error {
	const op = "notify.InAppSender.Send"

	if msg.Recipient.UserID == "" {
		return fmt.Errorf("%s: recipient has no user id", op)
	}

	err := s.writer.CreateInAppNotification(ctx, &models.InAppNotification{
		ID:        uuid.NewString(),
		UserID:    msg.Recipient.UserID,
		Type:      string(msg.Type),
		Title:     msg.Subject,
		Body:      msg.Body,
		CreatedAt: s.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
