package notify

import (
	"context"
	"log/slog"
	"time"

	"reminder-service/internal/models"
	"reminder-service/pkg/sl"
)

type Recipient struct {
	UserID string
	Name   string
	Email  string
	Phone  string
}

type Message struct {
	Type      models.NotificationType
	Recipient Recipient
	Subject   string
	Body      string
}

type Sender interface {
	Send(ctx context.Context, ch models.Channel, msg Message) error
}

type OutcomeStatus string

const (
	StatusSent      OutcomeStatus = "sent"
	StatusPartial   OutcomeStatus = "partial"
	StatusFailed    OutcomeStatus = "failed"
	// StatusCancelled means every requested channel was gated off: the
	// notification was never attempted, which is not a delivery failure.
	StatusCancelled OutcomeStatus = "cancelled"
)

type Outcome struct {
	Status  OutcomeStatus
	Sent    []models.Channel
	Skipped []models.Channel
	Errors  map[models.Channel]error
}

type Notifier struct {
	log         *slog.Logger
	senders     map[models.Channel]Sender
	sendTimeout time.Duration
}

func New(log *slog.Logger, senders map[models.Channel]Sender, sendTimeout time.Duration) *Notifier {
	if sendTimeout <= 0 {
		sendTimeout = 10 * time.Second
	}

	return &Notifier{
		log:         log,
		senders:     senders,
		sendTimeout: sendTimeout,
	}
}

// Dispatch attempts each requested channel independently. A channel is
// attempted only if the business has it globally enabled, the notification
// type is enabled, and the channel is in the type's allow-list. A failed
// gate or send on one channel never blocks the others.
func (n *Notifier) Dispatch(ctx context.Context, msg Message, requested []models.Channel, settings models.NotificationSettings) Outcome {
	const op = "notify.Notifier.Dispatch"

	outcome := Outcome{Errors: make(map[models.Channel]error)}

	typeSetting, typeKnown := settings.Types[msg.Type]

	for _, ch := range requested {
		if !channelEnabled(settings.EnabledChannels, ch) ||
			!typeKnown || !typeSetting.Enabled ||
			!channelEnabled(typeSetting.AllowedChannels, ch) {
			outcome.Skipped = append(outcome.Skipped, ch)
			continue
		}

		sender, ok := n.senders[ch]
		if !ok {
			outcome.Skipped = append(outcome.Skipped, ch)
			continue
		}

		sendCtx, cancel := context.WithTimeout(ctx, n.sendTimeout)
		err := sender.Send(sendCtx, ch, msg)
		cancel()

		if err != nil {
			n.log.Error("channel send failed",
				slog.String("op", op),
				slog.String("channel", string(ch)),
				slog.String("type", string(msg.Type)),
				sl.Err(err),
			)
			outcome.Errors[ch] = err
			continue
		}

		outcome.Sent = append(outcome.Sent, ch)
	}

	outcome.Status = status(len(requested), outcome)

	return outcome
}

func status(requested int, o Outcome) OutcomeStatus {
	attempted := requested - len(o.Skipped)

	switch {
	case attempted == 0:
		return StatusCancelled
	case len(o.Errors) == 0:
		return StatusSent
	case len(o.Sent) > 0:
		return StatusPartial
	case requested == 1:
		return StatusFailed
	default:
		return StatusPartial
	}
}

func channelEnabled(enabled []models.Channel, ch models.Channel) bool {
	for _, e := range enabled {
		if e == ch {
			return true
		}
	}
	return false
}
