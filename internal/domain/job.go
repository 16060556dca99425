package domain

import "time"

// PredictionStatus enumerates the provider-side lifecycle of a synthesis job.
type PredictionStatus string

const (
	PredictionQueued     PredictionStatus = "queued"
	PredictionProcessing PredictionStatus = "processing"
	PredictionSucceeded  PredictionStatus = "succeeded"
	PredictionFailed     PredictionStatus = "failed"
	PredictionCanceled   PredictionStatus = "canceled"
)

// Terminal reports whether no further transitions are expected.
func (s PredictionStatus) Terminal() bool {
	switch s {
	case PredictionSucceeded, PredictionFailed, PredictionCanceled:
		return true
	default:
		return false
	}
}

// ParsePredictionStatus maps provider status strings onto the local enum.
// Replicate reports "starting" for queued jobs.
func ParsePredictionStatus(raw string) PredictionStatus {
	switch raw {
	case "starting", "queued", "":
		return PredictionQueued
	case "processing":
		return PredictionProcessing
	case "succeeded":
		return PredictionSucceeded
	case "failed":
		return PredictionFailed
	case "canceled", "cancelled":
		return PredictionCanceled
	default:
		return PredictionProcessing
	}
}

// AudioOutput is the artifact descriptor attached to a succeeded prediction.
// Either Data is populated inline or URL points at a downloadable file.
type AudioOutput struct {
	Data         []byte
	URL          string
	Duration     *float64
	SamplingRate *float64
}

// HasAudio reports whether the output carries usable audio.
func (o *AudioOutput) HasAudio() bool {
	return o != nil && (len(o.Data) > 0 || o.URL != "")
}

// PredictionJob tracks one provider-side unit of work.
type PredictionJob struct {
	ID     string
	Status PredictionStatus
	Output *AudioOutput
	Error  string
	// OutputError explains why a succeeded prediction's output was unusable.
	OutputError string
}

// SynthesisInput is what gets submitted to the prediction provider.
type SynthesisInput struct {
	Text             string
	VoiceStyle       string
	Temperature      float64
	SceneDescription string
}

// OrphanStatus tracks the reconciliation of predictions abandoned by their caller.
type OrphanStatus string

const (
	OrphanPending  OrphanStatus = "pending"
	OrphanResolved OrphanStatus = "resolved"
	OrphanFailed   OrphanStatus = "failed"
)

// Orphan is a submitted prediction whose outcome was never recorded.
type Orphan struct {
	ID           string
	PredictionID string
	Request      GenerationRequest
	Reason       string
	Status       OrphanStatus
	Attempts     int
	LastError    string
	AudioFileID  string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
