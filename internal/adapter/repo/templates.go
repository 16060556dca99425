package repo

import (
	"context"

	"voicehost/internal/domain"
	"voicehost/internal/infra"
	"voicehost/internal/sqlinline"
)

// TemplateRepository implements domain.TemplateStore on PostgreSQL.
type TemplateRepository struct {
	sql infra.SQLExecutor
}

func NewTemplateRepository(sql infra.SQLExecutor) *TemplateRepository {
	return &TemplateRepository{sql: sql}
}

func (r *TemplateRepository) ListTemplates(ctx context.Context, propertyID string) ([]domain.ContentTemplate, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QListTemplatesByProperty, propertyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var templates []domain.ContentTemplate
	for rows.Next() {
		var t domain.ContentTemplate
		if err := scanTemplate(rows, &t); err != nil {
			return nil, err
		}
		templates = append(templates, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return templates, nil
}

func (r *TemplateRepository) GetTemplate(ctx context.Context, propertyID, templateID string) (*domain.ContentTemplate, error) {
	row := r.sql.QueryRow(ctx, sqlinline.QSelectTemplate, propertyID, templateID)
	var t domain.ContentTemplate
	if err := scanTemplate(row, &t); err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (r *TemplateRepository) UpsertTemplate(ctx context.Context, tmpl domain.ContentTemplate) (*domain.ContentTemplate, error) {
	row := r.sql.QueryRow(ctx, sqlinline.QUpsertTemplate,
		tmpl.ID,
		tmpl.PropertyID,
		string(tmpl.Category),
		tmpl.ContentType,
		tmpl.Title,
		tmpl.Text,
		tmpl.VoiceStyle,
		tmpl.Temperature,
	)
	out := tmpl
	if err := row.Scan(&out.UpdatedAt); err != nil {
		return nil, err
	}
	return &out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTemplate(s scanner, t *domain.ContentTemplate) error {
	var category string
	if err := s.Scan(&t.ID, &t.PropertyID, &category, &t.ContentType, &t.Title, &t.Text, &t.VoiceStyle, &t.Temperature, &t.UpdatedAt); err != nil {
		return err
	}
	t.Category = domain.TemplateCategory(category)
	return nil
}

var _ domain.TemplateStore = (*TemplateRepository)(nil)
