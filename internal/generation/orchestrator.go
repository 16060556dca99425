// Package generation turns validated requests into stored, recorded audio.
package generation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"voicehost/internal/domain"
	"voicehost/internal/metrics"
	"voicehost/internal/voice"
)

const (
	defaultPollInterval = time.Second
	defaultMaxPolls     = 300
)

// Reasons a submitted prediction is handed off instead of recorded inline.
const (
	ReasonCanceled   = "canceled"
	ReasonTimeout    = "timeout"
	ReasonPollFailed = "poll_failed"
)

var pathStamp = strings.NewReplacer(":", "-", ".", "-")

// Handoff receives predictions that were submitted but not recorded by their
// original caller.
type Handoff interface {
	Handoff(ctx context.Context, predictionID string, req domain.GenerationRequest, reason string)
}

// Options wires an Orchestrator to its collaborators.
type Options struct {
	Provider     domain.PredictionProvider
	Store        domain.ObjectStore
	Records      domain.AudioFileStore
	Voices       *voice.Catalog
	Metrics      *metrics.Metrics
	Logger       zerolog.Logger
	PollInterval time.Duration
	MaxPolls     int
	Now          func() time.Time
}

// Orchestrator runs the submit, poll, store and record pipeline.
type Orchestrator struct {
	provider     domain.PredictionProvider
	store        domain.ObjectStore
	records      domain.AudioFileStore
	voices       *voice.Catalog
	metrics      *metrics.Metrics
	logger       zerolog.Logger
	pollInterval time.Duration
	maxPolls     int
	now          func() time.Time

	handoff Handoff

	mu        sync.Mutex
	lastStamp time.Time
}

// New builds an orchestrator. Missing collaborators surface as
// ConfigurationError on the first call rather than here, so a partially
// configured service can still start and report the problem per request.
func New(opts Options) *Orchestrator {
	o := &Orchestrator{
		provider:     opts.Provider,
		store:        opts.Store,
		records:      opts.Records,
		voices:       opts.Voices,
		metrics:      opts.Metrics,
		logger:       opts.Logger,
		pollInterval: opts.PollInterval,
		maxPolls:     opts.MaxPolls,
		now:          opts.Now,
	}
	if o.pollInterval <= 0 {
		o.pollInterval = defaultPollInterval
	}
	if o.maxPolls <= 0 {
		o.maxPolls = defaultMaxPolls
	}
	if o.now == nil {
		o.now = time.Now
	}
	return o
}

// SetHandoff installs the receiver for abandoned predictions. It must be
// called before the orchestrator serves requests.
func (o *Orchestrator) SetHandoff(h Handoff) {
	o.handoff = h
}

// Generate validates req, synthesizes it and returns the recorded audio file.
func (o *Orchestrator) Generate(ctx context.Context, req domain.GenerationRequest) (*domain.AudioFileRecord, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := o.ready(); err != nil {
		return nil, err
	}
	started := time.Now()
	log := o.log(ctx).With().
		Str("property_id", req.PropertyID).
		Str("content_template_id", req.ContentTemplateID).
		Logger()

	job, err := o.provider.Submit(ctx, domain.SynthesisInput{
		Text:             req.Text,
		VoiceStyle:       req.VoiceStyle,
		Temperature:      req.Temperature,
		SceneDescription: o.voices.SceneFor(req.VoiceStyle),
	})
	if err != nil {
		err = providerError("submit prediction", err)
		o.finish(started, err)
		log.Error().Err(err).Msg("generation: submit failed")
		return nil, err
	}
	log = log.With().Str("prediction_id", job.ID).Logger()
	log.Info().Str("status", string(job.Status)).Msg("generation: prediction submitted")

	rec, err := o.complete(ctx, log, job, req)
	o.finish(started, err)
	if err != nil {
		o.maybeHandoff(ctx, log, job.ID, req, err)
		return nil, err
	}
	return rec, nil
}

// Resume finishes a prediction submitted earlier, for example by a request
// whose caller went away.
func (o *Orchestrator) Resume(ctx context.Context, predictionID string, req domain.GenerationRequest) (*domain.AudioFileRecord, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := o.ready(); err != nil {
		return nil, err
	}
	log := o.log(ctx).With().
		Str("prediction_id", predictionID).
		Str("property_id", req.PropertyID).
		Str("content_template_id", req.ContentTemplateID).
		Logger()

	job, err := o.provider.Get(ctx, predictionID)
	if err != nil {
		return nil, providerError("get prediction", err)
	}
	log.Info().Str("status", string(job.Status)).Msg("generation: resuming prediction")
	return o.complete(ctx, log, job, req)
}

func (o *Orchestrator) complete(ctx context.Context, log zerolog.Logger, job *domain.PredictionJob, req domain.GenerationRequest) (*domain.AudioFileRecord, error) {
	job, err := o.await(ctx, job)
	if err != nil {
		return nil, err
	}

	switch job.Status {
	case domain.PredictionFailed, domain.PredictionCanceled:
		msg := strings.TrimSpace(job.Error)
		if msg == "" {
			msg = "prediction " + string(job.Status)
		}
		return nil, fmt.Errorf("%w: %s", domain.ErrGeneration, msg)
	}
	if !job.Output.HasAudio() {
		if job.OutputError != "" {
			return nil, fmt.Errorf("%w: no audio data: %s", domain.ErrGeneration, job.OutputError)
		}
		return nil, fmt.Errorf("%w: no audio data", domain.ErrGeneration)
	}

	audio := job.Output.Data
	if len(audio) == 0 {
		audio, err = o.provider.Fetch(ctx, job.Output.URL)
		if err != nil {
			return nil, providerError("download audio", err)
		}
		if len(audio) == 0 {
			return nil, fmt.Errorf("%w: no audio data", domain.ErrGeneration)
		}
	}

	path := o.storagePath(req)
	if err := o.store.Put(ctx, path, audio, domain.AudioContentType); err != nil {
		return nil, fmt.Errorf("%w: upload %s: %w", domain.ErrStorage, path, err)
	}
	artifact := domain.AudioArtifact{
		Path:         path,
		PublicURL:    o.store.PublicURL(path),
		Bytes:        int64(len(audio)),
		Duration:     job.Output.Duration,
		SamplingRate: job.Output.SamplingRate,
	}
	log.Debug().Str("file_path", path).Int64("bytes", artifact.Bytes).Msg("generation: audio stored")

	rec, err := o.records.InsertAudioFile(ctx, domain.AudioFileRecord{
		ContentTemplateID: req.ContentTemplateID,
		PropertyID:        req.PropertyID,
		FileURL:           artifact.PublicURL,
		FilePath:          artifact.Path,
		Duration:          artifact.Duration,
		SamplingRate:      artifact.SamplingRate,
		VoiceStyle:        req.VoiceStyle,
		Temperature:       req.Temperature,
		PredictionID:      job.ID,
	})
	if err != nil {
		log.Error().Err(err).Str("file_path", path).Msg("generation: audio stored but not recorded; object left for cleanup")
		return nil, fmt.Errorf("%w: insert audio file: %w", domain.ErrPersistence, err)
	}
	log.Info().Str("audio_file_id", rec.ID).Str("file_path", path).Msg("generation: audio file recorded")
	return rec, nil
}

// await polls until job reaches a terminal state, the poll budget runs out
// or ctx ends. Status only ever moves forward.
func (o *Orchestrator) await(ctx context.Context, job *domain.PredictionJob) (*domain.PredictionJob, error) {
	if job.Status.Terminal() {
		return job, nil
	}
	timer := time.NewTimer(o.pollInterval)
	defer timer.Stop()

	for polls := 0; ; {
		select {
		case <-ctx.Done():
			return job, abandoned(ctx, job.ID)
		case <-timer.C:
		}

		polls++
		o.metrics.IncPolls()
		next, err := o.provider.Get(ctx, job.ID)
		if err != nil {
			if ctx.Err() != nil {
				return job, abandoned(ctx, job.ID)
			}
			return job, providerError("get prediction", err)
		}
		job = advance(job, next)
		if job.Status.Terminal() {
			return job, nil
		}
		if polls >= o.maxPolls {
			return job, fmt.Errorf("%w: prediction %s still %s after %d polls", domain.ErrTimeout, job.ID, job.Status, polls)
		}
		timer.Reset(o.pollInterval)
	}
}

// abandoned reports a poll loop cut short by ctx. A deadline counts as a
// timeout so callers see the same kind as an exhausted poll budget.
func abandoned(ctx context.Context, predictionID string) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: prediction %s abandoned at deadline: %w", domain.ErrTimeout, predictionID, ctx.Err())
	}
	return fmt.Errorf("prediction %s abandoned: %w", predictionID, ctx.Err())
}

func advance(cur, next *domain.PredictionJob) *domain.PredictionJob {
	if next == nil || rank(next.Status) < rank(cur.Status) {
		return cur
	}
	if next.ID == "" {
		next.ID = cur.ID
	}
	return next
}

func rank(s domain.PredictionStatus) int {
	switch s {
	case domain.PredictionQueued:
		return 0
	case domain.PredictionProcessing:
		return 1
	default:
		return 2
	}
}

// storagePath builds audio/{property}/{template}_{timestamp}.wav. Timestamps
// are taken when the artifact is persisted and strictly increase per
// orchestrator at millisecond resolution.
func (o *Orchestrator) storagePath(req domain.GenerationRequest) string {
	stamp := pathStamp.Replace(o.nextStamp().Format("2006-01-02T15:04:05.000Z"))
	return fmt.Sprintf("audio/%s/%s_%s.wav", req.PropertyID, req.ContentTemplateID, stamp)
}

func (o *Orchestrator) nextStamp() time.Time {
	o.mu.Lock()
	defer o.mu.Unlock()
	ts := o.now().UTC().Truncate(time.Millisecond)
	if !ts.After(o.lastStamp) {
		ts = o.lastStamp.Add(time.Millisecond)
	}
	o.lastStamp = ts
	return ts
}

func (o *Orchestrator) ready() error {
	var missing []string
	if o.provider == nil {
		missing = append(missing, "prediction provider")
	}
	if o.store == nil {
		missing = append(missing, "object store")
	}
	if o.records == nil {
		missing = append(missing, "metadata store")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s not configured", domain.ErrConfiguration, strings.Join(missing, ", "))
	}
	return nil
}

func (o *Orchestrator) maybeHandoff(ctx context.Context, log zerolog.Logger, predictionID string, req domain.GenerationRequest, err error) {
	var reason string
	switch {
	case errors.Is(err, context.Canceled):
		reason = ReasonCanceled
	case errors.Is(err, domain.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		reason = ReasonTimeout
	case errors.Is(err, domain.ErrProvider) && !errors.Is(err, domain.ErrConfiguration):
		reason = ReasonPollFailed
	default:
		log.Error().Err(err).Str("kind", domain.Kind(err)).Msg("generation: failed")
		return
	}
	log.Warn().Err(err).Str("reason", reason).Msg("generation: prediction orphaned")
	if o.handoff != nil {
		o.handoff.Handoff(context.WithoutCancel(ctx), predictionID, req, reason)
	}
}

func (o *Orchestrator) finish(started time.Time, err error) {
	if err != nil {
		o.metrics.ObserveGeneration(metrics.OutcomeFailure, domain.Kind(err), time.Since(started))
		return
	}
	o.metrics.ObserveGeneration(metrics.OutcomeSuccess, "", time.Since(started))
}

func (o *Orchestrator) log(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &o.logger
}

func providerError(op string, err error) error {
	if errors.Is(err, domain.ErrProvider) || errors.Is(err, domain.ErrConfiguration) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%w: %s: %w", domain.ErrProvider, op, err)
}
