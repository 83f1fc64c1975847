package service

import (
	"alcyxob/gym-platform/internal/events"
	"context"

	"github.com/sirupsen/logrus"
)

// publish forwards a change event. Delivery problems never fail the operation
// that produced the change.
func publish(ctx context.Context, publisher events.Publisher, event events.Event) {
	if publisher == nil {
		return
	}
	if err := publisher.Publish(ctx, event); err != nil {
		logrus.WithError(err).WithField("event", event.Type).Warn("failed to publish change event")
	}
}
