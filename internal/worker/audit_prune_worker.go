package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// AuditPruner deletes audit entries older than a retention period.
type AuditPruner interface {
	Prune(retention time.Duration) (int64, error)
}

// AuditPruneWorker periodically trims the admin audit log.
type AuditPruneWorker struct {
	pruner    AuditPruner
	retention time.Duration
	interval  time.Duration
}

// NewAuditPruneWorker constructs an AuditPruneWorker.
func NewAuditPruneWorker(pruner AuditPruner, retention, interval time.Duration) *AuditPruneWorker {
	return &AuditPruneWorker{
		pruner:    pruner,
		retention: retention,
		interval:  interval,
	}
}

// Start runs the prune loop until ctx is cancelled.
func (w *AuditPruneWorker) Start(ctx context.Context) {
	log.Info().
		Dur("interval", w.interval).
		Dur("retention", w.retention).
		Msg("Starting audit prune worker")

	w.run()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.run()
		case <-ctx.Done():
			log.Info().Msg("Audit prune worker stopped")
			return
		}
	}
}

func (w *AuditPruneWorker) run() {
	start := time.Now()
	n, err := w.pruner.Prune(w.retention)
	if err != nil {
		log.Error().Err(err).Msg("Failed to prune audit log")
		return
	}
	if n > 0 {
		log.Info().Int64("deleted", n).Dur("duration", time.Since(start)).Msg("Audit log pruned")
	}
}
