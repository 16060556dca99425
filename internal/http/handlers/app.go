package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"voicehost/internal/domain"
	"voicehost/internal/infra"
	"voicehost/internal/metrics"
	"voicehost/internal/voice"
)

// Generator produces a recorded audio file from a validated request.
type Generator interface {
	Generate(ctx context.Context, req domain.GenerationRequest) (*domain.AudioFileRecord, error)
}

// App carries the dependencies shared by every handler. Templates and
// Objects are optional; routes that need them answer 501 when absent.
type App struct {
	Config     *infra.Config
	Logger     infra.Logger
	Generator  Generator
	AudioFiles domain.AudioFileStore
	Templates  domain.TemplateStore
	Objects    domain.ObjectReader
	Voices     *voice.Catalog
	Metrics    *metrics.Metrics
	// Ping reports metadata store health; nil means nothing to check.
	Ping func(ctx context.Context) error
}

type errorBody struct {
	Error   string   `json:"error"`
	Details string   `json:"details,omitempty"`
	Fields  []string `json:"fields,omitempty"`
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, message string) {
	a.json(w, code, errorBody{Error: message})
}

// fail converts a pipeline error into the JSON envelope. Validation problems
// answer 400, everything else 500 with the error kind in details.
func (a *App) fail(w http.ResponseWriter, r *http.Request, err error) {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		body := errorBody{Error: domain.MissingFieldsMessage, Fields: verr.Names()}
		if !verr.OnlyMissing() {
			body.Error = verr.Error()
		}
		a.json(w, http.StatusBadRequest, body)
		return
	}
	a.log(r).Error().Err(err).Str("kind", domain.Kind(err)).Msg("request failed")
	a.json(w, http.StatusInternalServerError, errorBody{
		Error:   err.Error(),
		Details: domain.Kind(err) + ": " + err.Error(),
	})
}

func (a *App) log(r *http.Request) *zerolog.Logger {
	if l := zerolog.Ctx(r.Context()); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &a.Logger
}
