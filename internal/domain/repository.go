package domain

import "context"

// PredictionProvider submits synthesis jobs and reports their progress.
type PredictionProvider interface {
	Submit(ctx context.Context, input SynthesisInput) (*PredictionJob, error)
	Get(ctx context.Context, predictionID string) (*PredictionJob, error)
	// Fetch downloads an artifact the provider referenced by URL.
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// ObjectStore persists blobs without ever overwriting an existing key.
type ObjectStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	PublicURL(key string) string
}

// ObjectReader is implemented by stores that can serve their own objects.
type ObjectReader interface {
	Get(ctx context.Context, key string) ([]byte, string, error)
}

// AudioFileStore records generated audio files.
type AudioFileStore interface {
	InsertAudioFile(ctx context.Context, rec AudioFileRecord) (*AudioFileRecord, error)
	ListAudioFiles(ctx context.Context, propertyID string) ([]AudioFileRecord, error)
}

// TemplateStore persists host-edited content templates.
type TemplateStore interface {
	ListTemplates(ctx context.Context, propertyID string) ([]ContentTemplate, error)
	GetTemplate(ctx context.Context, propertyID, templateID string) (*ContentTemplate, error)
	UpsertTemplate(ctx context.Context, tmpl ContentTemplate) (*ContentTemplate, error)
}

// OrphanLedger remembers predictions whose outcome still needs recording.
type OrphanLedger interface {
	RecordOrphan(ctx context.Context, orphan Orphan) error
	ClaimOrphan(ctx context.Context) (*Orphan, error)
	ResolveOrphan(ctx context.Context, id, audioFileID string) error
	FailOrphan(ctx context.Context, id, message string, giveUp bool) error
}
