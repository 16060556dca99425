package generation

import (
	"strings"

	"golang.org/x/text/unicode/norm"

	"voicehost/internal/domain"
)

// DefaultTemperature applies when a request omits temperature.
const DefaultTemperature = 0.3

// RawRequest is the wire shape of a generation request before validation.
type RawRequest struct {
	Text              string   `json:"text"`
	VoiceStyle        string   `json:"voice_style"`
	Temperature       *float64 `json:"temperature"`
	ContentTemplateID string   `json:"content_template_id"`
	PropertyID        string   `json:"property_id"`
}

// Validate turns a raw payload into a GenerationRequest or a
// *domain.ValidationError naming every offending field. It has no side effects.
func (r RawRequest) Validate() (domain.GenerationRequest, error) {
	req := domain.GenerationRequest{
		Text:              clean(r.Text),
		VoiceStyle:        clean(r.VoiceStyle),
		Temperature:       DefaultTemperature,
		ContentTemplateID: strings.TrimSpace(r.ContentTemplateID),
		PropertyID:        strings.TrimSpace(r.PropertyID),
	}
	if r.Temperature != nil {
		req.Temperature = *r.Temperature
	}
	if err := req.Validate(); err != nil {
		return domain.GenerationRequest{}, err
	}
	return req, nil
}

func clean(s string) string {
	return strings.TrimSpace(norm.NFC.String(s))
}
