package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/aapiden/storefront/internal/domain"
	"github.com/aapiden/storefront/internal/repository"
	"github.com/google/uuid"
)

// Notifier sends order notifications. It never fails the caller.
type Notifier interface {
	Notify(ctx context.Context, recipients []string, kind domain.NotificationKind, orderRef string)
}

// OutboxNotifier stores notifications in the outbox for the publisher.
type OutboxNotifier struct {
	outbox repository.OutboxRepository
	sender string
	logger *slog.Logger
}

// NewOutboxNotifier stamps every notification with sender as the From address.
func NewOutboxNotifier(outbox repository.OutboxRepository, sender string, logger *slog.Logger) *OutboxNotifier {
	return &OutboxNotifier{outbox: outbox, sender: sender, logger: logger}
}

func (n *OutboxNotifier) Notify(ctx context.Context, recipients []string, kind domain.NotificationKind, orderRef string) {
	if len(recipients) == 0 {
		n.logger.WarnContext(ctx, "notification without recipients", "kind", kind, "order_id", orderRef)
		return
	}

	payload, err := json.Marshal(domain.Notification{
		Kind:       kind,
		From:       n.sender,
		Recipients: recipients,
		OrderRef:   orderRef,
		CreatedAt:  time.Now(),
	})
	if err != nil {
		n.logger.ErrorContext(ctx, "failed to marshal notification", "kind", kind, "error", err)
		return
	}

	event := &repository.OutboxEvent{
		ID:          uuid.NewString(),
		AggregateId: orderRef,
		EventType:   string(kind),
		Payload:     payload,
	}
	// the mutation already committed, a cancelled request must not drop the event
	if err := n.outbox.Enqueue(context.WithoutCancel(ctx), event); err != nil {
		n.logger.ErrorContext(ctx, "failed to enqueue notification", "kind", kind, "order_id", orderRef, "error", err)
	}
}
