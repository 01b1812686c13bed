package service

import (
	"context"

	"github.com/careerlink/portal-engine/internal/events"
	"github.com/careerlink/portal-engine/internal/workflow"
)

// Notifier receives status changes once they are stored.
type Notifier interface {
	Notify(ctx context.Context, ev workflow.Event) error
}

type EventNotifier struct {
	producer *events.EventProducer
}

func NewEventNotifier(producer *events.EventProducer) *EventNotifier {
	return &EventNotifier{producer: producer}
}

func (n *EventNotifier) Notify(ctx context.Context, ev workflow.Event) error {
	return n.producer.WriteStatusChanged(ctx, events.StatusChanged{
		RecordType:     ev.RecordType,
		RecordID:       ev.RecordID,
		AccountID:      ev.AccountID,
		OrganizationID: ev.OrganizationID,
		Action:         string(ev.Action),
		OldStatus:      ev.OldStatus,
		NewStatus:      ev.NewStatus,
		Reason:         ev.Reason,
		OccurredAt:     ev.OccurredAt,
	})
}

type noopNotifier struct{}

func (noopNotifier) Notify(context.Context, workflow.Event) error { return nil }
