// Package worker runs a projection node: the manager with its tracking
// processors, plus an optional AMQP consumer that turns append
// notifications into immediate wake-ups. Without AMQP the processors
// still make progress by polling.
package worker

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"contabile/internal/amqp"
	"contabile/internal/log"
	"contabile/internal/projection"
)

// NotificationConsumer is the AMQP side of the worker.
type NotificationConsumer interface {
	ConsumeEventNotifications(ctx context.Context, handler func(*amqp.EventNotification) error) error
}

// Worker ties the projection manager to the notification stream.
type Worker struct {
	manager  *projection.Manager
	consumer NotificationConsumer
	logger   *log.Logger
}

// New creates a worker. consumer may be nil; the processors then rely
// on polling alone.
func New(manager *projection.Manager, consumer NotificationConsumer, logger *log.Logger) *Worker {
	return &Worker{
		manager:  manager,
		consumer: consumer,
		logger:   logger.WithComponent(log.ComponentWorker),
	}
}

// Run blocks until ctx is cancelled or a processing group fails
// fatally. A broken AMQP connection is logged and the worker keeps
// running on polling.
func (w *Worker) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	fatal := w.manager.Run(ctx)
	defer w.manager.Stop()

	g.Go(func() error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-fatal:
			return fmt.Errorf("projection failure: %w", err)
		}
	})

	if w.consumer != nil {
		g.Go(func() error {
			err := w.consumer.ConsumeEventNotifications(ctx, func(msg *amqp.EventNotification) error {
				w.logger.Debug("Notification received, waking processors",
					log.FieldPosition, msg.LastSeq,
					"count", msg.Count)
				w.manager.WakeAll()
				return nil
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				// Polling keeps the projections alive without AMQP.
				w.logger.Error("Notification consumption failed, continuing on polling",
					log.FieldError, err)
			}
			return nil
		})
	}

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
