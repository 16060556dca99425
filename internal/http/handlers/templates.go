package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"voicehost/internal/domain"
	"voicehost/internal/generation"
)

type templatePayload struct {
	Category    domain.TemplateCategory `json:"category"`
	ContentType string                  `json:"content_type"`
	Title       string                  `json:"title"`
	Text        string                  `json:"text"`
	VoiceStyle  string                  `json:"voice_style"`
	Temperature *float64                `json:"temperature"`
}

func (a *App) ListTemplates(w http.ResponseWriter, r *http.Request) {
	if a.Templates == nil {
		a.error(w, http.StatusNotImplemented, "templates require the postgres metadata backend")
		return
	}
	propertyID := strings.TrimSpace(chi.URLParam(r, "propertyID"))
	items, err := a.Templates.ListTemplates(r.Context(), propertyID)
	if err != nil {
		a.fail(w, r, fmt.Errorf("%w: list templates: %w", domain.ErrPersistence, err))
		return
	}
	if items == nil {
		items = []domain.ContentTemplate{}
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}

// PutTemplate creates or replaces a host's template.
func (a *App) PutTemplate(w http.ResponseWriter, r *http.Request) {
	if a.Templates == nil {
		a.error(w, http.StatusNotImplemented, "templates require the postgres metadata backend")
		return
	}
	var body templatePayload
	if err := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody)).Decode(&body); err != nil {
		a.error(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	tmpl := domain.ContentTemplate{
		ID:          strings.TrimSpace(chi.URLParam(r, "templateID")),
		PropertyID:  strings.TrimSpace(chi.URLParam(r, "propertyID")),
		Category:    domain.TemplateCategory(strings.TrimSpace(string(body.Category))),
		ContentType: strings.TrimSpace(body.ContentType),
		Title:       strings.TrimSpace(body.Title),
		Text:        strings.TrimSpace(body.Text),
		VoiceStyle:  strings.TrimSpace(body.VoiceStyle),
		Temperature: generation.DefaultTemperature,
	}
	if body.Temperature != nil {
		tmpl.Temperature = *body.Temperature
	}
	if err := tmpl.Validate(); err != nil {
		a.fail(w, r, err)
		return
	}
	saved, err := a.Templates.UpsertTemplate(r.Context(), tmpl)
	if err != nil {
		a.fail(w, r, fmt.Errorf("%w: save template: %w", domain.ErrPersistence, err))
		return
	}
	a.json(w, http.StatusOK, saved)
}

// GenerateFromTemplate narrates a stored template with its saved settings.
func (a *App) GenerateFromTemplate(w http.ResponseWriter, r *http.Request) {
	if a.Templates == nil {
		a.error(w, http.StatusNotImplemented, "templates require the postgres metadata backend")
		return
	}
	propertyID := strings.TrimSpace(chi.URLParam(r, "propertyID"))
	templateID := strings.TrimSpace(chi.URLParam(r, "templateID"))
	tmpl, err := a.Templates.GetTemplate(r.Context(), propertyID, templateID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "template not found")
			return
		}
		a.fail(w, r, fmt.Errorf("%w: load template: %w", domain.ErrPersistence, err))
		return
	}
	a.generate(w, r, tmpl.GenerationRequest())
}

// ListVoices lists the selectable voice styles.
func (a *App) ListVoices(w http.ResponseWriter, r *http.Request) {
	type voiceItem struct {
		Style   string   `json:"style"`
		Aliases []string `json:"aliases"`
	}
	items := []voiceItem{}
	if a.Voices != nil {
		for _, p := range a.Voices.Presets() {
			items = append(items, voiceItem{Style: p.Style, Aliases: p.Aliases})
		}
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}
