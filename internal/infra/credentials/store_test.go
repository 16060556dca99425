package credentials

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"voicehost/internal/infra"
)

type stubExecutor struct {
	token   string
	model   *string
	err     error
	queries int
	exec    struct {
		query string
		args  []any
	}
}

func (s *stubExecutor) Exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error) {
	s.exec.query = query
	s.exec.args = args
	return pgconn.CommandTag{}, s.err
}

func (s *stubExecutor) QueryRow(ctx context.Context, query string, args ...any) pgx.Row {
	s.queries++
	return stubRow{token: s.token, model: s.model, err: s.err}
}

func (s *stubExecutor) Query(ctx context.Context, query string, args ...any) (pgx.Rows, error) {
	return nil, errors.New("not implemented")
}

type stubRow struct {
	token string
	model *string
	err   error
}

func (r stubRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if len(dest) != 2 {
		return errors.New("expected token and model destinations")
	}
	token, ok := dest[0].(*string)
	model, ok2 := dest[1].(**string)
	if !ok || !ok2 {
		return errors.New("invalid dest")
	}
	*token = r.token
	*model = r.model
	return nil
}

func strPtr(s string) *string { return &s }

func TestReplicateCredential(t *testing.T) {
	store := NewStore(&stubExecutor{token: " r8_abc123 ", model: strPtr(" owner/model:v2 ")})
	cred, err := store.Replicate(context.Background())
	if err != nil {
		t.Fatalf("Replicate error: %v", err)
	}
	if cred.Token != "r8_abc123" || cred.Model != "owner/model:v2" {
		t.Fatalf("unexpected credential %+v", cred)
	}
}

func TestReplicateCredentialWithoutModel(t *testing.T) {
	cred, err := NewStore(&stubExecutor{token: "r8_abc"}).Replicate(context.Background())
	if err != nil {
		t.Fatalf("Replicate error: %v", err)
	}
	if cred.Model != "" || cred.Empty() {
		t.Fatalf("unexpected credential %+v", cred)
	}
}

func TestReplicateCredential_NoRows(t *testing.T) {
	cred, err := NewStore(&stubExecutor{err: pgx.ErrNoRows}).Replicate(context.Background())
	if err != nil {
		t.Fatalf("Replicate error: %v", err)
	}
	if !cred.Empty() {
		t.Fatalf("expected empty credential, got %+v", cred)
	}
}

func TestReplicateCredential_QueryError(t *testing.T) {
	if _, err := NewStore(&stubExecutor{err: errors.New("connection reset")}).Replicate(context.Background()); err == nil {
		t.Fatal("expected query error to surface")
	}
}

func TestSetReplicate(t *testing.T) {
	exec := &stubExecutor{}
	store := NewStore(exec)
	if err := store.SetReplicate(context.Background(), Credential{Token: "secret", Model: "owner/model:v1"}); err != nil {
		t.Fatalf("SetReplicate error: %v", err)
	}
	if len(exec.exec.args) != 3 {
		t.Fatalf("expected 3 args, got %d", len(exec.exec.args))
	}
	if v, ok := exec.exec.args[0].(string); !ok || v != ProviderReplicate {
		t.Fatalf("expected provider argument, got %T %v", exec.exec.args[0], exec.exec.args[0])
	}
	if v, ok := exec.exec.args[1].(string); !ok || v != "secret" {
		t.Fatalf("expected secret argument, got %T %v", exec.exec.args[1], exec.exec.args[1])
	}
	raw, ok := exec.exec.args[2].([]byte)
	if !ok || string(raw) != `{"model":"owner/model:v1"}` {
		t.Fatalf("unexpected properties argument: %T %s", exec.exec.args[2], exec.exec.args[2])
	}

	if err := store.SetReplicate(context.Background(), Credential{Token: "secret"}); err != nil {
		t.Fatalf("SetReplicate error: %v", err)
	}
	if raw := exec.exec.args[2].([]byte); string(raw) != `{}` {
		t.Fatalf("empty model should store no properties, got %s", raw)
	}
}

func TestSetReplicateEmpty(t *testing.T) {
	if err := NewStore(&stubExecutor{}).SetReplicate(context.Background(), Credential{Token: " "}); err == nil {
		t.Fatal("expected error for empty token")
	}
}

func TestResolveFillsOnlyMissingSettings(t *testing.T) {
	exec := &stubExecutor{token: "r8_stored", model: strPtr("owner/model:stored")}
	cfg := &infra.Config{ReplicateAPIToken: "r8_env"}
	if err := NewStore(exec).Resolve(context.Background(), cfg); err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if cfg.ReplicateAPIToken != "r8_env" || cfg.ReplicateModel != "owner/model:stored" {
		t.Fatalf("unexpected config token=%q model=%q", cfg.ReplicateAPIToken, cfg.ReplicateModel)
	}

	exec.queries = 0
	if err := NewStore(exec).Resolve(context.Background(), cfg); err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if exec.queries != 0 {
		t.Fatalf("fully configured environment should not query the store")
	}
}
