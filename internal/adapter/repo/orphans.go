package repo

import (
	"context"
	"encoding/json"
	"fmt"

	"voicehost/internal/domain"
	"voicehost/internal/infra"
	"voicehost/internal/sqlinline"
)

// OrphanRepository implements domain.OrphanLedger on PostgreSQL.
type OrphanRepository struct {
	sql infra.SQLExecutor
}

func NewOrphanRepository(sql infra.SQLExecutor) *OrphanRepository {
	return &OrphanRepository{sql: sql}
}

// RecordOrphan stores a prediction for later reconciliation. Recording the
// same prediction twice re-queues it unless it was already resolved.
func (r *OrphanRepository) RecordOrphan(ctx context.Context, orphan domain.Orphan) error {
	raw, err := json.Marshal(orphan.Request)
	if err != nil {
		return fmt.Errorf("encode orphan request: %w", err)
	}
	_, err = r.sql.Exec(ctx, sqlinline.QInsertOrphan, orphan.PredictionID, raw, orphan.Reason, orphan.LastError)
	return err
}

// ClaimOrphan leases the next due orphan, or returns domain.ErrNotFound.
func (r *OrphanRepository) ClaimOrphan(ctx context.Context) (*domain.Orphan, error) {
	row := r.sql.QueryRow(ctx, sqlinline.QClaimOrphan)
	var (
		o   domain.Orphan
		raw []byte
	)
	if err := row.Scan(&o.ID, &o.PredictionID, &raw, &o.Reason, &o.Attempts, &o.CreatedAt); err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal(raw, &o.Request); err != nil {
		return nil, fmt.Errorf("decode orphan %s request: %w", o.ID, err)
	}
	o.Status = domain.OrphanPending
	return &o, nil
}

func (r *OrphanRepository) ResolveOrphan(ctx context.Context, id, audioFileID string) error {
	_, err := r.sql.Exec(ctx, sqlinline.QResolveOrphan, id, audioFileID)
	return err
}

// FailOrphan records an attempt error; giveUp marks the orphan failed for good.
func (r *OrphanRepository) FailOrphan(ctx context.Context, id, message string, giveUp bool) error {
	_, err := r.sql.Exec(ctx, sqlinline.QFailOrphan, id, message, giveUp)
	return err
}

var _ domain.OrphanLedger = (*OrphanRepository)(nil)
