package service

import (
	"context"
	"errors"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"fra-atlas/internal/dto"

	"go.uber.org/zap"
)

func TestScoreConfidence(t *testing.T) {
	cases := []struct {
		name  string
		mime  string
		size  int64
		noise float64
		want  float64
	}{
		{"pdf mid size", "application/pdf", 2 << 20, 0, 82},
		{"png small", "image/png", 50 << 10, 0, 59},
		{"jpeg medium", "image/jpeg", 200 << 10, 0, 63},
		{"unknown large", "image/tiff", 6 << 20, 0, 66},
		{"clamped high", "application/pdf", 6 << 20, 20, 98},
		{"clamped low", "image/jpeg", 10 << 10, -20, 33},
		{"worst realistic", "image/tiff", 10 << 10, -20, 25},
		{"one decimal", "application/pdf", 2 << 20, 3.14159, 85.1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := scoreConfidence(tc.mime, tc.size, tc.noise); got != tc.want {
				t.Fatalf("want=%v got=%v", tc.want, got)
			}
		})
	}

	if got := scoreConfidence("image/tiff", 1, -60); got != minConfidence {
		t.Fatalf("lower clamp: want=%v got=%v", minConfidence, got)
	}
}

func TestDegradeThresholds(t *testing.T) {
	base := func(conf float64) *dto.ExtractedRecord {
		return &dto.ExtractedRecord{District: "Khunti", SurveyNumber: "56/2", RawText: "Village Murhu", Confidence: conf}
	}
	allLow := make([]float64, 64)

	rec := base(75)
	degrade(rec, allLow)
	if rec.District != "Khunti" || rec.SurveyNumber != "56/2" || rec.RawText != "Village Murhu" {
		t.Fatalf("75 should be untouched: %+v", rec)
	}

	rec = base(60)
	degrade(rec, allLow)
	if rec.District != "Unclear" || rec.SurveyNumber != "56/2" {
		t.Fatalf("60: %+v", rec)
	}

	rec = base(45)
	degrade(rec, allLow)
	if rec.District != "Unclear" || rec.SurveyNumber != "Illegible" || rec.RawText != "Village Murhu" {
		t.Fatalf("45: %+v", rec)
	}

	rec = base(20)
	degrade(rec, allLow)
	if rec.RawText != "??????? ?????" {
		t.Fatalf("20: raw text should be corrupted, got %q", rec.RawText)
	}
}

func TestMockRecognizerMissingFile(t *testing.T) {
	m := instantMock(1)
	_, err := m.ProcessFile(context.Background(), filepath.Join(t.TempDir(), "nope.pdf"), "application/pdf")
	if err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestMockRecognizerTwoMegabytePDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "claim.pdf")
	if err := os.WriteFile(path, make([]byte, 2<<20), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	for seed := uint64(0); seed < 200; seed++ {
		rec, err := instantMock(seed).ProcessFile(context.Background(), path, "application/pdf")
		if err != nil {
			t.Fatalf("seed %d: %v", seed, err)
		}
		if rec.Confidence < 15 || rec.Confidence > 98 {
			t.Fatalf("seed %d: confidence %v out of range", seed, rec.Confidence)
		}
		if rec.Confidence < 50 && rec.SurveyNumber != "Illegible" {
			t.Fatalf("seed %d: confidence %v but surveyNumber %q", seed, rec.Confidence, rec.SurveyNumber)
		}
		if !strings.HasPrefix(rec.ClaimID, "FRA-") {
			t.Fatalf("seed %d: claim id %q", seed, rec.ClaimID)
		}
	}
}

func TestMockRecognizerHonoursContext(t *testing.T) {
	path := filepath.Join(t.TempDir(), "claim.png")
	if err := os.WriteFile(path, []byte("png"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	m := NewMockRecognizerWithSource(time.Hour, time.Hour, rand.NewPCG(1, 2), zap.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := m.ProcessFile(ctx, path, "image/png")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("want=%v got=%v", context.DeadlineExceeded, err)
	}
}

func TestReprocessWithCorrections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "claim.jpg")
	if err := os.WriteFile(path, make([]byte, 1024), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	svc := NewOCRService(instantMock(7), zap.NewNop())

	rec, err := svc.ReprocessWithCorrections(context.Background(), path, "image/jpeg", &dto.ExtractionCorrections{
		District:     ptr("Dindori"),
		SurveyNumber: ptr("77/1"),
	})
	if err != nil {
		t.Fatalf("ReprocessWithCorrections: %v", err)
	}
	if rec.Confidence != 100 {
		t.Fatalf("confidence: want=100 got=%v", rec.Confidence)
	}
	if rec.District != "Dindori" || rec.SurveyNumber != "77/1" {
		t.Fatalf("corrections not applied: %+v", rec)
	}
}

func TestOCRServiceWrapsFailures(t *testing.T) {
	svc := NewOCRService(stubRecognizer{err: errors.New("boom")}, zap.NewNop())
	if _, err := svc.ProcessFile(context.Background(), "x", "application/pdf"); !errors.Is(err, ErrProcessing) {
		t.Fatalf("want=%v got=%v", ErrProcessing, err)
	}
}
