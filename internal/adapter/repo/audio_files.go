package repo

import (
	"context"
	"fmt"

	"voicehost/internal/domain"
	"voicehost/internal/infra"
	"voicehost/internal/sqlinline"
)

// AudioFileRepository implements domain.AudioFileStore on PostgreSQL.
type AudioFileRepository struct {
	sql infra.SQLExecutor
}

// NewAudioFileRepository constructs a new audio file repository instance.
func NewAudioFileRepository(sql infra.SQLExecutor) *AudioFileRepository {
	return &AudioFileRepository{sql: sql}
}

// InsertAudioFile writes one record and returns it with the store-assigned id.
func (r *AudioFileRepository) InsertAudioFile(ctx context.Context, rec domain.AudioFileRecord) (*domain.AudioFileRecord, error) {
	row := r.sql.QueryRow(ctx, sqlinline.QInsertAudioFile,
		rec.ContentTemplateID,
		rec.PropertyID,
		rec.FileURL,
		rec.FilePath,
		rec.Duration,
		rec.SamplingRate,
		rec.VoiceStyle,
		rec.Temperature,
		rec.PredictionID,
	)
	out := rec
	if err := row.Scan(&out.ID, &out.CreatedAt); err != nil {
		return nil, fmt.Errorf("insert audio file: %w", err)
	}
	return &out, nil
}

// ListAudioFiles returns a property's audio files, newest first.
func (r *AudioFileRepository) ListAudioFiles(ctx context.Context, propertyID string) ([]domain.AudioFileRecord, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QListAudioFilesByProperty, propertyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var files []domain.AudioFileRecord
	for rows.Next() {
		var rec domain.AudioFileRecord
		if err := rows.Scan(
			&rec.ID,
			&rec.ContentTemplateID,
			&rec.PropertyID,
			&rec.FileURL,
			&rec.FilePath,
			&rec.Duration,
			&rec.SamplingRate,
			&rec.VoiceStyle,
			&rec.Temperature,
			&rec.PredictionID,
			&rec.CreatedAt,
		); err != nil {
			return nil, err
		}
		files = append(files, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return files, nil
}

var _ domain.AudioFileStore = (*AudioFileRepository)(nil)
