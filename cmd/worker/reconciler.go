package main

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"voicehost/internal/domain"
	"voicehost/internal/generation"
)

const idleInterval = 5 * time.Second

// reconciler drains the orphan ledger: each claimed prediction is resumed
// and then marked resolved or failed.
type reconciler struct {
	ledger   domain.OrphanLedger
	resumer  generation.Resumer
	logger   zerolog.Logger
	maxTries int
	timeout  time.Duration
	idle     time.Duration
}

func (r *reconciler) Run(ctx context.Context) error {
	r.logger.Info().Dur("idle", r.idle).Int("max_attempts", r.maxTries).Msg("worker: reconciling orphaned predictions")
	for {
		worked, err := r.processNext(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			r.logger.Error().Err(err).Msg("worker: ledger unavailable")
		}
		if worked {
			continue
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(r.idle):
		}
	}
}

// processNext handles at most one orphan and reports whether it found one.
func (r *reconciler) processNext(ctx context.Context) (bool, error) {
	orphan, err := r.ledger.ClaimOrphan(ctx)
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	log := r.logger.With().
		Str("orphan_id", orphan.ID).
		Str("prediction_id", orphan.PredictionID).
		Int("attempt", orphan.Attempts).
		Logger()

	runCtx, cancel := context.WithTimeout(ctx, r.timeout)
	rec, err := r.resumer.Resume(runCtx, orphan.PredictionID, orphan.Request)
	cancel()
	if err == nil {
		log.Info().Str("audio_file_id", rec.ID).Msg("worker: orphan resolved")
		return true, r.ledger.ResolveOrphan(ctx, orphan.ID, rec.ID)
	}

	giveUp := errors.Is(err, domain.ErrGeneration) || errors.Is(err, domain.ErrValidation) || orphan.Attempts >= r.maxTries
	log.Warn().Err(err).Str("kind", domain.Kind(err)).Bool("give_up", giveUp).Msg("worker: orphan attempt failed")
	return true, r.ledger.FailOrphan(context.WithoutCancel(ctx), orphan.ID, err.Error(), giveUp)
}
