package generation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/rs/zerolog"

	"voicehost/internal/domain"
	"voicehost/internal/metrics"
)

const ledgerWriteTimeout = 10 * time.Second

// Resumer finishes an already-submitted prediction.
type Resumer interface {
	Resume(ctx context.Context, predictionID string, req domain.GenerationRequest) (*domain.AudioFileRecord, error)
}

// RecovererOptions configures a Recoverer.
type RecovererOptions struct {
	Resumer Resumer
	// Ledger is optional. Without it orphans that cannot be recovered are
	// only logged.
	Ledger  domain.OrphanLedger
	Workers int
	Timeout time.Duration
	Metrics *metrics.Metrics
	Logger  zerolog.Logger
}

// Recoverer resumes abandoned predictions on a bounded worker pool.
type Recoverer struct {
	pool    *ants.Pool
	resumer Resumer
	ledger  domain.OrphanLedger
	timeout time.Duration
	metrics *metrics.Metrics
	logger  zerolog.Logger
}

// NewRecoverer starts the worker pool. Callers must Close it.
func NewRecoverer(opts RecovererOptions) (*Recoverer, error) {
	if opts.Resumer == nil {
		return nil, errors.New("generation: recoverer needs a resumer")
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = 8
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	logger := opts.Logger
	pool, err := ants.NewPool(workers,
		ants.WithNonblocking(true),
		ants.WithPanicHandler(func(p any) {
			logger.Error().Str("panic", fmt.Sprint(p)).Msg("recovery: panic in worker")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("generation: create recovery pool: %w", err)
	}
	return &Recoverer{
		pool:    pool,
		resumer: opts.Resumer,
		ledger:  opts.Ledger,
		timeout: timeout,
		metrics: opts.Metrics,
		logger:  logger,
	}, nil
}

// Handoff schedules predictionID for recovery. ctx should already be
// detached from the abandoned request; only its values are used.
func (r *Recoverer) Handoff(ctx context.Context, predictionID string, req domain.GenerationRequest, reason string) {
	r.metrics.IncOrphaned(reason)
	log := r.logger.With().
		Str("prediction_id", predictionID).
		Str("property_id", req.PropertyID).
		Str("content_template_id", req.ContentTemplateID).
		Str("reason", reason).
		Logger()

	err := r.pool.Submit(func() {
		runCtx, cancel := context.WithTimeout(ctx, r.timeout)
		defer cancel()
		rec, err := r.resumer.Resume(runCtx, predictionID, req)
		if err != nil {
			log.Warn().Err(err).Str("kind", domain.Kind(err)).Msg("recovery: resume failed")
			if errors.Is(err, domain.ErrGeneration) {
				return
			}
			r.record(ctx, log, predictionID, req, reason, err)
			return
		}
		log.Info().Str("audio_file_id", rec.ID).Msg("recovery: orphaned prediction recorded")
	})
	if err != nil {
		log.Warn().Err(err).Msg("recovery: pool unavailable")
		r.record(ctx, log, predictionID, req, reason, err)
	}
}

func (r *Recoverer) record(ctx context.Context, log zerolog.Logger, predictionID string, req domain.GenerationRequest, reason string, cause error) {
	if r.ledger == nil {
		log.Error().Err(cause).Msg("recovery: orphaned prediction not recorded anywhere")
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), ledgerWriteTimeout)
	defer cancel()
	err := r.ledger.RecordOrphan(ctx, domain.Orphan{
		PredictionID: predictionID,
		Request:      req,
		Reason:       reason,
		Status:       domain.OrphanPending,
		LastError:    cause.Error(),
	})
	if err != nil {
		log.Error().Err(err).Msg("recovery: failed to write orphan ledger")
		return
	}
	log.Info().Msg("recovery: orphan written to ledger")
}

// Running reports the number of in-flight recoveries.
func (r *Recoverer) Running() int {
	return r.pool.Running()
}

// Close waits up to timeout for in-flight recoveries to finish.
func (r *Recoverer) Close(timeout time.Duration) error {
	return r.pool.ReleaseTimeout(timeout)
}
