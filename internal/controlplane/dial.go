package controlplane

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/udisondev/floclient/internal/model"
	"github.com/udisondev/floclient/internal/sink"
)

// DialConfig adds reconnection policy on top of the wire-level Config
// (spec.md §6.2, a supplemented feature original_source/ implements as a
// capped exponential backoff around the handshake).
type DialConfig struct {
	Config
	// MaxAttempts bounds the total number of connection attempts, the
	// first one included; 0 means unlimited.
	MaxAttempts int
}

// Dial repeats Connect/Run until ctx is done, backing off exponentially
// between attempts. A *RejectedError is never retried: the server has
// told us the token or version is bad, and trying again changes nothing
// (spec.md §8 scenario 4).
func Dial(ctx context.Context, cfg DialConfig, snk sink.Sink) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 30 * time.Second
	b.MaxElapsedTime = 0 // bounded by MaxAttempts instead, not wall clock

	attempt := 0
	for {
		attempt++
		stream, err := Connect(ctx, cfg.Config, snk)
		if err == nil {
			runErr := stream.Run(ctx, snk)
			stream.Close()
			if runErr == nil || errors.Is(runErr, context.Canceled) {
				return nil
			}
			err = runErr
		}

		var rejected *RejectedError
		if errors.As(err, &rejected) {
			return fmt.Errorf("controlplane: %w", err)
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}

		if cfg.MaxAttempts > 0 && attempt >= cfg.MaxAttempts {
			return fmt.Errorf("controlplane: giving up after %d attempts: %w", attempt, err)
		}

		wait := b.NextBackOff()
		slog.Warn("controlplane: connection lost, reconnecting", "attempt", attempt, "wait", wait, "err", err)
		_ = snk.Send(ctx, model.DisconnectMsg{Reason: model.DisconnectReasonUnknown, Message: fmt.Sprintf("reconnecting: %v", err)})

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
