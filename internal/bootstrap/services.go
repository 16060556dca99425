// Package bootstrap wires configuration into the running service graph shared
// by the api and worker commands.
package bootstrap

import (
	"context"
	"fmt"
	"net/http"

	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"voicehost/internal/adapter/repo"
	"voicehost/internal/domain"
	"voicehost/internal/generation"
	"voicehost/internal/infra"
	"voicehost/internal/infra/credentials"
	"voicehost/internal/metrics"
	"voicehost/internal/providers/replicate"
	"voicehost/internal/storage"
	"voicehost/internal/voice"
)

// Services is the assembled dependency graph.
type Services struct {
	Config       *infra.Config
	Logger       zerolog.Logger
	Metrics      *metrics.Metrics
	Voices       *voice.Catalog
	Provider     *replicate.Client
	Objects      storage.Backend
	AudioFiles   domain.AudioFileStore
	Templates    domain.TemplateStore
	Orphans      domain.OrphanLedger
	Orchestrator *generation.Orchestrator
	Ping         func(ctx context.Context) error

	closers []func()
}

// Close releases connections in reverse order of acquisition.
func (s *Services) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}

// Build connects the metadata and object stores, resolves the provider token
// and assembles the orchestrator. Any failure is returned after releasing
// what was already opened.
func Build(ctx context.Context, cfg *infra.Config, logger zerolog.Logger) (_ *Services, err error) {
	svc := &Services{Config: cfg, Logger: logger, Metrics: metrics.New()}
	defer func() {
		if err != nil {
			svc.Close()
		}
	}()

	if svc.Voices, err = voice.Load(cfg.VoicePresetsPath); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrConfiguration, err)
	}

	var sess *session.Session
	needAWS := cfg.MetadataBackend == infra.BackendDynamoDB || cfg.StorageBackend == infra.BackendS3
	if needAWS {
		if sess, err = infra.NewAWSSession(cfg); err != nil {
			return nil, err
		}
	}

	switch cfg.MetadataBackend {
	case infra.BackendPostgres:
		if cfg.MigrateOnStart {
			if err = infra.Migrate(ctx, cfg.DatabaseURL, "up", logger); err != nil {
				return nil, err
			}
		}
		var pool *pgxpool.Pool
		if pool, err = infra.NewDBPool(ctx, cfg); err != nil {
			return nil, err
		}
		svc.closers = append(svc.closers, pool.Close)
		runner := infra.NewSQLRunner(pool, logger)
		svc.AudioFiles = repo.NewAudioFileRepository(runner)
		svc.Templates = repo.NewTemplateRepository(runner)
		svc.Orphans = repo.NewOrphanRepository(runner)
		svc.Ping = pool.Ping

		if terr := credentials.NewStore(runner).Resolve(ctx, cfg); terr != nil {
			logger.Warn().Err(terr).Msg("bootstrap: failed to load replicate credential from store")
		}
	case infra.BackendDynamoDB:
		svc.AudioFiles = repo.NewDynamoAudioFileRepository(dynamodb.New(sess), cfg.DynamoTable, logger)
		logger.Info().Str("table", cfg.DynamoTable).Msg("bootstrap: using dynamodb metadata backend; templates and orphan ledger disabled")
	}

	if err = cfg.RequireProviderToken(); err != nil {
		return nil, err
	}

	objects, closeObjects, err := storage.Open(cfg, sess, logger)
	if err != nil {
		return nil, err
	}
	svc.closers = append(svc.closers, closeObjects)
	svc.Objects = objects

	httpClient := &http.Client{Timeout: cfg.ProviderTimeout}
	if svc.Provider, err = replicate.NewClient(replicate.Options{
		APIToken:   cfg.ReplicateAPIToken,
		BaseURL:    cfg.ReplicateBaseURL,
		Model:      cfg.ReplicateModel,
		MaxRetries: cfg.ProviderRetries,
		HTTPClient: httpClient,
		Logger:     &logger,
	}); err != nil {
		return nil, err
	}

	svc.Orchestrator = generation.New(generation.Options{
		Provider:     svc.Provider,
		Store:        svc.Objects,
		Records:      svc.AudioFiles,
		Voices:       svc.Voices,
		Metrics:      svc.Metrics,
		Logger:       logger,
		PollInterval: cfg.PollInterval,
		MaxPolls:     cfg.MaxPolls,
	})
	return svc, nil
}
