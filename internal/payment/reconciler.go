package payment

import (
	"context"
	"time"

	"storefront-be/internal/logger"

	"go.uber.org/zap"
)

// Reconciler periodically settles transactions whose redirect and webhook
// never arrived.
type Reconciler struct {
	svc      Service
	interval time.Duration
}

func NewReconciler(svc Service, interval time.Duration) *Reconciler {
	return &Reconciler{svc: svc, interval: interval}
}

// Run blocks until ctx is cancelled.
func (r *Reconciler) Run(ctx context.Context) error {
	log := logger.L().With(zap.String("component", "reconciler"))
	log.Info("payment reconciler started", zap.Duration("interval", r.interval))

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("payment reconciler stopped")
			return nil
		case <-ticker.C:
			if _, err := r.svc.ReconcilePending(ctx); err != nil && ctx.Err() == nil {
				log.Error("reconcile pass failed", zap.Error(err))
			}
		}
	}
}
