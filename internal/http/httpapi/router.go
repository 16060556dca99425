package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"voicehost/internal/http/handlers"
	"voicehost/internal/middleware"
)

func NewRouter(app *handlers.App) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		middleware.Logger(app.Logger, app.Metrics),
		chimw.Recoverer,
		middleware.CORS(app.Config.CORSAllowedHeaders),
	)

	generateLimit := middleware.RateLimit(app.Config.RateLimitPerMin, time.Minute)

	r.Method(http.MethodGet, "/metrics", app.MetricsHandler())
	r.Get("/static/*", app.ServeObject)

	r.With(generateLimit).Post("/functions/v1/generate-audio", app.GenerateAudio)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/healthz", app.Health)
		r.With(generateLimit).Post("/audio/generate", app.GenerateAudio)
		r.Get("/voices", app.ListVoices)

		r.Route("/properties/{propertyID}", func(r chi.Router) {
			r.Get("/audio-files", app.ListAudioFiles)
			r.Get("/audio-files.zip", app.ArchiveAudioFiles)

			r.Get("/templates", app.ListTemplates)
			r.Put("/templates/{templateID}", app.PutTemplate)
			r.With(generateLimit).Post("/templates/{templateID}/generate", app.GenerateFromTemplate)
		})
	})

	return r
}
