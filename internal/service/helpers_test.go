package service

import (
	"context"
	"errors"
	"io"
	"math/rand/v2"
	"sync"

	"fra-atlas/internal/dto"
	"fra-atlas/internal/models"
	"fra-atlas/internal/repository"
	"fra-atlas/pkg/antivirus"

	"go.uber.org/zap"
)

type recordingPublisher struct {
	mu       sync.Mutex
	subjects []string
	payloads []any
}

func (p *recordingPublisher) Publish(_ context.Context, subject string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subjects = append(p.subjects, subject)
	p.payloads = append(p.payloads, payload)
	return nil
}

func (p *recordingPublisher) fileEvent(subject string) (FileEvent, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, s := range p.subjects {
		if ev, ok := p.payloads[i].(FileEvent); ok && s == subject {
			return ev, true
		}
	}
	return FileEvent{}, false
}

func (p *recordingPublisher) Close() {}

func (p *recordingPublisher) has(subject string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, s := range p.subjects {
		if s == subject {
			return true
		}
	}
	return false
}

type stubRecognizer struct {
	rec *dto.ExtractedRecord
	err error
}

func (r stubRecognizer) ProcessFile(context.Context, string, string) (*dto.ExtractedRecord, error) {
	if r.err != nil {
		return nil, r.err
	}
	cp := *r.rec
	return &cp, nil
}

type infectedScanner struct{}

func (infectedScanner) Scan(context.Context, io.Reader) error {
	return errors.Join(antivirus.ErrInfected, errors.New("Eicar-Test-Signature"))
}

// countingFiles counts CreateFile calls on top of a real store.
type countingFiles struct {
	repository.FileStore
	mu      sync.Mutex
	created int
}

func (c *countingFiles) CreateFile(ctx context.Context, f *models.UploadedFile) error {
	c.mu.Lock()
	c.created++
	c.mu.Unlock()
	return c.FileStore.CreateFile(ctx, f)
}

func newMemoryStore() *repository.MemoryStore {
	return repository.NewMemoryStore(zap.NewNop())
}

func instantMock(seed uint64) *MockRecognizer {
	return NewMockRecognizerWithSource(0, 0, rand.NewPCG(seed, seed+1), zap.NewNop())
}

func sampleExtraction() *dto.ExtractedRecord {
	return &dto.ExtractedRecord{
		ClaimID:      "FRA-2024-001",
		ClaimantName: "Ramesh Kumar Oraon",
		Village:      "Bhandra",
		District:     "Lohardaga",
		State:        "Jharkhand",
		Area:         2.45,
		SurveyNumber: "123/4A",
		Confidence:   81.5,
		RawText:      "FORM - A",
	}
}

func ptr[T any](v T) *T {
	return &v
}
