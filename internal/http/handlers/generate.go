package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"voicehost/internal/domain"
	"voicehost/internal/generation"
)

const maxRequestBody = 1 << 20

type generateResponse struct {
	Success      bool                    `json:"success"`
	AudioFile    *domain.AudioFileRecord `json:"audio_file"`
	PredictionID string                  `json:"prediction_id"`
}

// GenerateAudio validates the JSON body, runs the generation pipeline and
// returns the recorded audio file.
func (a *App) GenerateAudio(w http.ResponseWriter, r *http.Request) {
	var raw generation.RawRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody))
	if err := dec.Decode(&raw); err != nil {
		a.error(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	req, err := raw.Validate()
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.generate(w, r, req)
}

func (a *App) generate(w http.ResponseWriter, r *http.Request, req domain.GenerationRequest) {
	if a.Generator == nil {
		a.fail(w, r, domain.ErrConfiguration)
		return
	}
	ctx := r.Context()
	if a.Config != nil {
		if d := a.Config.GenerationDeadline(); d > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, d)
			defer cancel()
		}
	}
	rec, err := a.Generator.Generate(ctx, req)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, generateResponse{Success: true, AudioFile: rec, PredictionID: rec.PredictionID})
}
