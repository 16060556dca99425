// Package credentials keeps provider tokens in the integration_tokens table so
// they can be rotated without redeploying.
package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"voicehost/internal/infra"
	"voicehost/internal/sqlinline"
)

const ProviderReplicate = "replicate"

// Credential is a stored token and the model version saved with it.
type Credential struct {
	Token string
	Model string
}

// Empty reports whether nothing usable is stored.
func (c Credential) Empty() bool {
	return c.Token == ""
}

type Store struct {
	sql infra.SQLExecutor
}

func NewStore(sql infra.SQLExecutor) *Store {
	return &Store{sql: sql}
}

// Replicate loads the Replicate credential. A missing row yields an empty
// Credential and no error.
func (s *Store) Replicate(ctx context.Context) (Credential, error) {
	row := s.sql.QueryRow(ctx, sqlinline.QSelectIntegrationToken, ProviderReplicate)
	var (
		token string
		model *string
	)
	if err := row.Scan(&token, &model); err != nil {
		if infra.IsNoRows(err) {
			return Credential{}, nil
		}
		return Credential{}, err
	}
	cred := Credential{Token: strings.TrimSpace(token)}
	if model != nil {
		cred.Model = strings.TrimSpace(*model)
	}
	return cred, nil
}

// SetReplicate stores cred. An empty model keeps the previously stored one.
func (s *Store) SetReplicate(ctx context.Context, cred Credential) error {
	token := strings.TrimSpace(cred.Token)
	if token == "" {
		return errors.New("replicate api token is required")
	}
	props := map[string]string{}
	if model := strings.TrimSpace(cred.Model); model != "" {
		props["model"] = model
	}
	raw, err := json.Marshal(props)
	if err != nil {
		return err
	}
	_, err = s.sql.Exec(ctx, sqlinline.QUpsertIntegrationToken, ProviderReplicate, token, raw)
	return err
}

// Resolve fills the token and model in cfg that the environment left empty.
func (s *Store) Resolve(ctx context.Context, cfg *infra.Config) error {
	if cfg.ReplicateAPIToken != "" && cfg.ReplicateModel != "" {
		return nil
	}
	cred, err := s.Replicate(ctx)
	if err != nil {
		return err
	}
	if cfg.ReplicateAPIToken == "" {
		cfg.ReplicateAPIToken = cred.Token
	}
	if cfg.ReplicateModel == "" {
		cfg.ReplicateModel = cred.Model
	}
	return nil
}
