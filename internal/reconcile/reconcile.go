package reconcile

import (
	"context"
	"errors"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/theideaiq/backend-suq/internal/lock"
	"github.com/theideaiq/backend-suq/internal/obs"
	"github.com/theideaiq/backend-suq/internal/order"
)

const scanLockKey = "lock:payment:reconcile"

// TaskPaymentReconcile is the periodic task that surfaces orphaned sessions.
const TaskPaymentReconcile = "payment:reconcile"

// NewTask builds the reconcile task for scheduler registration.
func NewTask() *asynq.Task {
	return asynq.NewTask(TaskPaymentReconcile, nil)
}

// StaleLister yields pending orders that outlived the settlement grace period.
type StaleLister interface {
	ListStalePending(ctx context.Context, cutoff time.Time, limit int) ([]order.StalePending, error)
}

// Handler scans for orders stuck in pending. The gateway contract has no
// cancel operation, so orphans are logged for manual reconciliation rather
// than compensated.
type Handler struct {
	Orders      StaleLister
	GracePeriod time.Duration
	BatchSize   int
	Locker      lock.Locker
	LockTTL     time.Duration
	Log         zerolog.Logger
}

// ProcessTask implements asynq.Handler. With a locker configured, only one
// worker replica scans per tick; the others skip.
func (h Handler) ProcessTask(ctx context.Context, _ *asynq.Task) error {
	if h.Locker.R == nil {
		return h.scan(ctx)
	}
	err := h.Locker.TryWithLock(ctx, scanLockKey, h.LockTTL, h.scan)
	if errors.Is(err, lock.ErrNotAcquired) {
		h.Log.Debug().Msg("reconcile scan already running elsewhere")
		return nil
	}
	return err
}

func (h Handler) scan(ctx context.Context) error {
	cutoff := time.Now().Add(-h.gracePeriod())
	stale, err := h.Orders.ListStalePending(ctx, cutoff, h.BatchSize)
	if err != nil {
		h.Log.Error().Err(err).Msg("reconcile scan failed")
		return err
	}
	for _, sp := range stale {
		if obs.OrphanedSessionsTotal != nil {
			obs.OrphanedSessionsTotal.Inc()
		}
		h.Log.Warn().
			Str("orderId", sp.ID.String()).
			Str("referenceId", sp.ReferenceID).
			Str("gatewayLinkId", sp.GatewayLinkID).
			Str("provider", sp.Provider).
			Time("createdAt", sp.CreatedAt).
			Msg("pending order past settlement grace period")
	}
	h.Log.Info().Int("stale", len(stale)).Time("cutoff", cutoff).Msg("reconcile scan complete")
	return nil
}

func (h Handler) gracePeriod() time.Duration {
	if h.GracePeriod > 0 {
		return h.GracePeriod
	}
	return time.Hour
}
