package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"voicehost/internal/domain"
	"voicehost/pkg/zip"
)

// ListAudioFiles is the guest playlist feed for one property.
func (a *App) ListAudioFiles(w http.ResponseWriter, r *http.Request) {
	propertyID := strings.TrimSpace(chi.URLParam(r, "propertyID"))
	if propertyID == "" {
		a.error(w, http.StatusBadRequest, "property_id required")
		return
	}
	items, err := a.AudioFiles.ListAudioFiles(r.Context(), propertyID)
	if err != nil {
		a.fail(w, r, fmt.Errorf("%w: list audio files: %w", domain.ErrPersistence, err))
		return
	}
	if items == nil {
		items = []domain.AudioFileRecord{}
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}

// ArchiveAudioFiles streams every stored file of a property as one zip.
// Records whose object has gone missing are skipped.
func (a *App) ArchiveAudioFiles(w http.ResponseWriter, r *http.Request) {
	if a.Objects == nil {
		a.error(w, http.StatusNotImplemented, "storage backend cannot serve objects")
		return
	}
	propertyID := strings.TrimSpace(chi.URLParam(r, "propertyID"))
	items, err := a.AudioFiles.ListAudioFiles(r.Context(), propertyID)
	if err != nil {
		a.fail(w, r, fmt.Errorf("%w: list audio files: %w", domain.ErrPersistence, err))
		return
	}
	assets := make([]zip.Asset, 0, len(items))
	for _, item := range items {
		data, _, err := a.Objects.Get(r.Context(), item.FilePath)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				a.log(r).Warn().Str("file_path", item.FilePath).Msg("archive: object missing, skipped")
				continue
			}
			a.fail(w, r, fmt.Errorf("%w: read %s: %w", domain.ErrStorage, item.FilePath, err))
			return
		}
		assets = append(assets, zip.Asset{Filename: item.FilePath, Modified: item.CreatedAt, Data: data})
	}
	archive, err := zip.ArchiveAssets(assets)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "audio-"+propertyID+".zip"))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(archive)
}

// ServeObject serves stored audio for backends without their own public
// endpoint. Range requests are honoured so players can seek.
func (a *App) ServeObject(w http.ResponseWriter, r *http.Request) {
	if a.Objects == nil {
		http.NotFound(w, r)
		return
	}
	key := chi.URLParam(r, "*")
	data, contentType, err := a.Objects.Get(r.Context(), key)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		a.log(r).Error().Err(err).Str("key", key).Msg("static: read failed")
		http.Error(w, "storage unavailable", http.StatusBadGateway)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	http.ServeContent(w, r, "", time.Time{}, bytes.NewReader(data))
}
