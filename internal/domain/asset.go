package domain

import (
	"math"
	"strings"
	"time"
)

// AudioContentType is the MIME type of every stored artifact.
const AudioContentType = "audio/wav"

// GenerationRequest is a validated request to narrate a content template.
type GenerationRequest struct {
	Text              string  `json:"text"`
	VoiceStyle        string  `json:"voice_style"`
	Temperature       float64 `json:"temperature"`
	ContentTemplateID string  `json:"content_template_id"`
	PropertyID        string  `json:"property_id"`
}

// Validate checks the invariants of an already-decoded request.
func (r GenerationRequest) Validate() error {
	verr := &ValidationError{}
	if r.Text == "" {
		verr.Add("text", "required")
	}
	if r.VoiceStyle == "" {
		verr.Add("voice_style", "required")
	}
	checkPathID(verr, "content_template_id", r.ContentTemplateID)
	checkPathID(verr, "property_id", r.PropertyID)
	if math.IsNaN(r.Temperature) || r.Temperature < 0 || r.Temperature > 1 {
		verr.Add("temperature", "must be between 0 and 1")
	}
	if verr.Empty() {
		return nil
	}
	return verr
}

// checkPathID validates an id that becomes a storage key segment.
func checkPathID(verr *ValidationError, field, id string) {
	switch {
	case id == "":
		verr.Add(field, "required")
	case strings.ContainsAny(id, `/\`) || strings.Contains(id, ".."):
		verr.Add(field, "must not contain path separators or '..'")
	}
}

// AudioArtifact is a stored audio file before it is recorded.
type AudioArtifact struct {
	Path         string
	PublicURL    string
	Bytes        int64
	Duration     *float64
	SamplingRate *float64
}

// AudioFileRecord is the metadata row describing a generated audio file.
type AudioFileRecord struct {
	ID                string    `json:"id"`
	ContentTemplateID string    `json:"content_template_id"`
	PropertyID        string    `json:"property_id"`
	FileURL           string    `json:"file_url"`
	FilePath          string    `json:"file_path"`
	Duration          *float64  `json:"duration"`
	SamplingRate      *float64  `json:"sampling_rate"`
	VoiceStyle        string    `json:"voice_style"`
	Temperature       float64   `json:"temperature"`
	PredictionID      string    `json:"prediction_id"`
	CreatedAt         time.Time `json:"created_at"`
}
