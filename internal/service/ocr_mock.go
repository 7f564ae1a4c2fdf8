package service

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"os"
	"strings"
	"sync"
	"time"
	"unicode"

	"fra-atlas/internal/dto"

	"go.uber.org/zap"
)

const (
	minConfidence = 15.0
	maxConfidence = 98.0

	unclearBelow   = 70.0
	illegibleBelow = 50.0
	corruptBelow   = 35.0

	corruptRatio = 0.3
)

type sampleRecord struct {
	claimantName string
	village      string
	district     string
	state        string
	area         float64
	surveyNumber string
}

var sampleRecords = []sampleRecord{
	{"Ramesh Kumar Oraon", "Bhandra", "Lohardaga", "Jharkhand", 2.45, "123/4A"},
	{"Sunita Devi Munda", "Murhu", "Khunti", "Jharkhand", 1.8, "56/2"},
	{"Lakshmi Bai Gond", "Bichhiya", "Mandla", "Madhya Pradesh", 3.2, "211/1B"},
	{"Birsa Soren", "Jashipur", "Mayurbhanj", "Odisha", 1.15, "89/7"},
	{"Kamla Bai Bhil", "Thandla", "Jhabua", "Madhya Pradesh", 0.95, "402/3"},
	{"Gopal Warli", "Jawhar", "Palghar", "Maharashtra", 2.05, "17/5C"},
}

// MockRecognizer pretends to read FRA claim forms. It waits a random delay,
// returns one of a few canned records and scores it with a heuristic that
// favours PDFs and larger scans. Low scores degrade the record the way a
// poor scan would.
type MockRecognizer struct {
	minDelay time.Duration
	maxDelay time.Duration
	logger   *zap.Logger

	mu  sync.Mutex
	rng *rand.Rand
	now func() time.Time
}

func NewMockRecognizer(minDelay, maxDelay time.Duration, logger *zap.Logger) *MockRecognizer {
	seed := uint64(time.Now().UnixNano())
	return NewMockRecognizerWithSource(minDelay, maxDelay, rand.NewPCG(seed, seed>>17), logger)
}

// NewMockRecognizerWithSource makes the recognizer deterministic for tests.
func NewMockRecognizerWithSource(minDelay, maxDelay time.Duration, src rand.Source, logger *zap.Logger) *MockRecognizer {
	if maxDelay < minDelay {
		maxDelay = minDelay
	}
	return &MockRecognizer{
		minDelay: minDelay,
		maxDelay: maxDelay,
		logger:   logger,
		rng:      rand.New(src),
		now:      time.Now,
	}
}

func (m *MockRecognizer) ProcessFile(ctx context.Context, path, mimeType string) (*dto.ExtractedRecord, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("file not found: %w", err)
	}

	m.mu.Lock()
	delay := m.minDelay
	if span := m.maxDelay - m.minDelay; span > 0 {
		delay += time.Duration(m.rng.Int64N(int64(span) + 1))
	}
	sample := sampleRecords[m.rng.IntN(len(sampleRecords))]
	serial := m.rng.IntN(999) + 1
	noise := m.rng.Float64()*40 - 20
	corruptRolls := make([]float64, 0, 512)
	m.mu.Unlock()

	if delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	confidence := scoreConfidence(mimeType, info.Size(), noise)
	rec := &dto.ExtractedRecord{
		ClaimID:      fmt.Sprintf("FRA-%d-%03d", m.now().Year(), serial),
		ClaimantName: sample.claimantName,
		Village:      sample.village,
		District:     sample.district,
		State:        sample.state,
		Area:         sample.area,
		SurveyNumber: sample.surveyNumber,
		Confidence:   confidence,
	}
	rec.RawText = renderFormText(rec)

	if confidence < corruptBelow {
		m.mu.Lock()
		for range rec.RawText {
			corruptRolls = append(corruptRolls, m.rng.Float64())
		}
		m.mu.Unlock()
	}
	degrade(rec, corruptRolls)

	m.logger.Debug("Mock OCR produced record",
		zap.String("claim_id", rec.ClaimID),
		zap.Float64("confidence", confidence),
		zap.Duration("delay", delay),
	)

	return rec, nil
}

// scoreConfidence derives a confidence from the MIME type and file size,
// adds noise and clamps to [15, 98] with one decimal.
func scoreConfidence(mimeType string, size int64, noise float64) float64 {
	base := 60.0
	switch mimeType {
	case "application/pdf":
		base = 82
	case "image/png":
		base = 74
	case "image/jpeg":
		base = 68
	}

	switch {
	case size < 100<<10:
		base -= 15
	case size < 500<<10:
		base -= 5
	case size > 5<<20:
		base += 6
	}

	score := math.Max(minConfidence, math.Min(maxConfidence, base+noise))
	return math.Round(score*10) / 10
}

// degrade mimics a bad scan. rolls holds one uniform draw per rune of
// RawText and is only consulted below corruptBelow.
func degrade(rec *dto.ExtractedRecord, rolls []float64) {
	if rec.Confidence < unclearBelow {
		rec.District = "Unclear"
	}
	if rec.Confidence < illegibleBelow {
		rec.SurveyNumber = "Illegible"
	}
	if rec.Confidence < corruptBelow {
		rec.RawText = corruptText(rec.RawText, rolls)
	}
}

func corruptText(text string, rolls []float64) string {
	var b strings.Builder
	b.Grow(len(text))
	i := 0
	for _, r := range text {
		if unicode.IsLetter(r) && i < len(rolls) && rolls[i] < corruptRatio {
			b.WriteRune('?')
		} else {
			b.WriteRune(r)
		}
		i++
	}
	return b.String()
}

func renderFormText(rec *dto.ExtractedRecord) string {
	return fmt.Sprintf(`FORM - A
[See rule 6(1)]
CLAIM FORM FOR RIGHTS TO FOREST LAND
(Scheduled Tribes and Other Traditional Forest Dwellers (Recognition of Forest Rights) Act, 2006)

Claim No.: %s
1. Name of the claimant: %s
2. Village: %s
3. District: %s
4. State: %s
5. Extent of forest land occupied: %.2f hectares
6. Survey / Compartment No.: %s

Signature / Thumb impression of the claimant`,
		rec.ClaimID, rec.ClaimantName, rec.Village, rec.District, rec.State, rec.Area, rec.SurveyNumber)
}
