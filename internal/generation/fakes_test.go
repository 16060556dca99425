package generation

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"voicehost/internal/domain"
)

type fakeProvider struct {
	mu        sync.Mutex
	submitJob *domain.PredictionJob
	submitErr error
	polls     []*domain.PredictionJob
	pollErr   error
	fetched   map[string][]byte
	inputs    []domain.SynthesisInput
	submits   int
	gets      int
	onGet     func(n int)
}

func (p *fakeProvider) Submit(_ context.Context, input domain.SynthesisInput) (*domain.PredictionJob, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.submits++
	p.inputs = append(p.inputs, input)
	if p.submitErr != nil {
		return nil, p.submitErr
	}
	job := *p.submitJob
	return &job, nil
}

func (p *fakeProvider) Get(_ context.Context, id string) (*domain.PredictionJob, error) {
	p.mu.Lock()
	p.gets++
	n := p.gets
	hook := p.onGet
	var job *domain.PredictionJob
	switch {
	case p.pollErr != nil:
	case len(p.polls) == 0:
		job = &domain.PredictionJob{ID: id, Status: domain.PredictionProcessing}
	case n <= len(p.polls):
		copied := *p.polls[n-1]
		job = &copied
	default:
		copied := *p.polls[len(p.polls)-1]
		job = &copied
	}
	err := p.pollErr
	p.mu.Unlock()
	if hook != nil {
		hook(n)
	}
	if err != nil {
		return nil, err
	}
	return job, nil
}

func (p *fakeProvider) Fetch(_ context.Context, url string) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	data, ok := p.fetched[url]
	if !ok {
		return nil, fmt.Errorf("%w: fetch %s: status 404", domain.ErrProvider, url)
	}
	return data, nil
}

func (p *fakeProvider) calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.submits + p.gets
}

type fakeStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
	puts    int
	putErr  error
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: map[string][]byte{}, types: map[string]string{}}
}

func (s *fakeStore) Put(_ context.Context, key string, data []byte, contentType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.puts++
	if s.putErr != nil {
		return s.putErr
	}
	if _, exists := s.objects[key]; exists {
		return fmt.Errorf("%w: %s", domain.ErrObjectExists, key)
	}
	s.objects[key] = append([]byte(nil), data...)
	s.types[key] = contentType
	return nil
}

func (s *fakeStore) PublicURL(key string) string {
	return "https://cdn.test/audio-files/" + key
}

type fakeRecords struct {
	mu        sync.Mutex
	rows      []domain.AudioFileRecord
	insertErr error
}

func (r *fakeRecords) InsertAudioFile(_ context.Context, rec domain.AudioFileRecord) (*domain.AudioFileRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.insertErr != nil {
		return nil, r.insertErr
	}
	rec.ID = fmt.Sprintf("af-%d", len(r.rows)+1)
	r.rows = append(r.rows, rec)
	return &rec, nil
}

func (r *fakeRecords) ListAudioFiles(_ context.Context, propertyID string) ([]domain.AudioFileRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.AudioFileRecord
	for _, row := range r.rows {
		if row.PropertyID == propertyID {
			out = append(out, row)
		}
	}
	return out, nil
}

func (r *fakeRecords) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rows)
}

type fakeLedger struct {
	mu      sync.Mutex
	orphans []domain.Orphan
	done    chan struct{}
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{done: make(chan struct{}, 16)}
}

func (l *fakeLedger) RecordOrphan(_ context.Context, o domain.Orphan) error {
	l.mu.Lock()
	l.orphans = append(l.orphans, o)
	l.mu.Unlock()
	l.done <- struct{}{}
	return nil
}

func (l *fakeLedger) ClaimOrphan(context.Context) (*domain.Orphan, error) {
	return nil, domain.ErrNotFound
}

func (l *fakeLedger) ResolveOrphan(context.Context, string, string) error { return nil }

func (l *fakeLedger) FailOrphan(context.Context, string, string, bool) error { return nil }

type handoffCall struct {
	predictionID string
	req          domain.GenerationRequest
	reason       string
}

type recordingHandoff struct {
	mu    sync.Mutex
	calls []handoffCall
}

func (h *recordingHandoff) Handoff(_ context.Context, predictionID string, req domain.GenerationRequest, reason string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls = append(h.calls, handoffCall{predictionID: predictionID, req: req, reason: reason})
}

var errBoom = errors.New("boom")

func sixteenBytes() []byte {
	return []byte("RIFF\x24\x00\x00\x00WAVEfmt ")
}
