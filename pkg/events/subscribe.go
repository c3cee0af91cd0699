package events

import (
	"context"
	"errors"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/sethvargo/go-retry"
)

// Handler processes one message. Returning nil acks it.
type Handler func(context.Context, *message.Message) error

type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying. The bus acks the message and
// reports err on the subscription's error channel.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err was wrapped with Permanent.
func IsPermanent(err error) bool {
	var pe *permanentError
	return errors.As(err, &pe)
}

// Subscribe consumes topic in the background. The handler context carries
// the publisher's trace. A message whose handler still fails after every
// attempt is nacked; a Permanent failure is acked. Both are reported on the
// returned channel, which callers must drain. Close waits for in-flight
// handlers.
func (q *EventBus) Subscribe(ctx context.Context, topic string, handler func(context.Context, *message.Message) error) (<-chan error, error) {
	ch, err := q.subscriber.Subscribe(ctx, topic)
	if err != nil {
		return nil, fmt.Errorf("events: subscribe to %s: %w", topic, err)
	}

	errCh := make(chan error, errBuffer)
	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		defer close(errCh)

		for msg := range ch {
			msgCtx := extractTrace(ctx, msg)
			err := q.handle(msgCtx, msg, handler)
			switch {
			case err == nil:
				msg.Ack()
				continue
			case IsPermanent(err):
				msg.Ack()
			default:
				msg.Nack()
			}
			select {
			case errCh <- fmt.Errorf("events: %s message %s: %w", topic, msg.UUID, err):
			default:
				q.log.ErrorContext(msgCtx, "events: error channel full, dropping error", "error", err, "topic", topic)
			}
		}
	}()
	return errCh, nil
}

// handle runs handler up to q.attempts times with exponential backoff from
// q.baseDelay.
func (q *EventBus) handle(ctx context.Context, msg *message.Message, handler Handler) error {
	backoff := retry.WithMaxRetries(q.attempts-1, retry.NewExponential(q.baseDelay))

	var attempt uint64
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		err := handler(ctx, msg)
		if err == nil || IsPermanent(err) {
			return err
		}
		if attempt < q.attempts {
			q.log.WarnContext(ctx, "events: handler failed, retrying",
				"message_uuid", msg.UUID,
				"attempt", attempt,
				"max_attempts", q.attempts,
				"error", err,
			)
		}
		return retry.RetryableError(err)
	})
}
