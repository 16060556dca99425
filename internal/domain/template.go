package domain

import (
	"math"
	"time"
)

// TemplateCategory groups content templates the way hosts see them.
type TemplateCategory string

const (
	TemplateEssential TemplateCategory = "essential"
	TemplateStory     TemplateCategory = "story"
)

// ContentTemplate is a reusable narration a host edits before generation.
type ContentTemplate struct {
	ID          string           `json:"id"`
	PropertyID  string           `json:"property_id"`
	Category    TemplateCategory `json:"category"`
	ContentType string           `json:"content_type"`
	Title       string           `json:"title"`
	Text        string           `json:"text"`
	VoiceStyle  string           `json:"voice_style"`
	Temperature float64          `json:"temperature"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// GenerationRequest builds the request that narrates this template.
func (t ContentTemplate) GenerationRequest() GenerationRequest {
	return GenerationRequest{
		Text:              t.Text,
		VoiceStyle:        t.VoiceStyle,
		Temperature:       t.Temperature,
		ContentTemplateID: t.ID,
		PropertyID:        t.PropertyID,
	}
}

// Validate checks a template before it is stored.
func (t ContentTemplate) Validate() error {
	verr := &ValidationError{}
	checkPathID(verr, "id", t.ID)
	checkPathID(verr, "property_id", t.PropertyID)
	if t.Title == "" {
		verr.Add("title", "required")
	}
	if t.Text == "" {
		verr.Add("text", "required")
	}
	if t.VoiceStyle == "" {
		verr.Add("voice_style", "required")
	}
	switch t.Category {
	case TemplateEssential, TemplateStory:
	case "":
		verr.Add("category", "required")
	default:
		verr.Add("category", "must be essential or story")
	}
	if math.IsNaN(t.Temperature) || t.Temperature < 0 || t.Temperature > 1 {
		verr.Add("temperature", "must be between 0 and 1")
	}
	if verr.Empty() {
		return nil
	}
	return verr
}
