package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"fra-atlas/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MemoryStore keeps every entity in process memory. It is used when no
// database is configured and loses all data on restart.
type MemoryStore struct {
	mu     sync.RWMutex
	logger *zap.Logger
	now    func() time.Time

	seq        uint64
	claims     map[uuid.UUID]*memClaim
	claimCodes map[string]uuid.UUID
	files      map[uuid.UUID]*models.UploadedFile
	users      map[uuid.UUID]*models.User
	usernames  map[string]uuid.UUID
}

type memClaim struct {
	claim *models.Claim
	seq   uint64
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore(logger *zap.Logger) *MemoryStore {
	return &MemoryStore{
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
		claims:     make(map[uuid.UUID]*memClaim),
		claimCodes: make(map[string]uuid.UUID),
		files:      make(map[uuid.UUID]*models.UploadedFile),
		users:      make(map[uuid.UUID]*models.User),
		usernames:  make(map[string]uuid.UUID),
	}
}

func (s *MemoryStore) ListClaims(_ context.Context, limit int) ([]*models.Claim, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := s.sortedClaims(func(*models.Claim) bool { return true })
	if n := normalizeLimit(limit); len(out) > n {
		out = out[:n]
	}
	for _, c := range out {
		c.Files = s.filesOf(c.ID)
	}
	return out, nil
}

func (s *MemoryStore) ListMappedClaims(_ context.Context) ([]*models.Claim, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.sortedClaims((*models.Claim).HasGeometry), nil
}

func (s *MemoryStore) GetClaim(_ context.Context, id uuid.UUID) (*models.Claim, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.claims[id]
	if !ok {
		return nil, ErrNotFound
	}
	c := copyClaim(entry.claim)
	c.Files = s.filesOf(id)
	return c, nil
}

func (s *MemoryStore) CreateClaim(_ context.Context, claim *models.Claim) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.claimCodes[claim.ClaimID]; exists {
		return fmt.Errorf("claim %q: %w", claim.ClaimID, ErrDuplicateKey)
	}
	if claim.ID == uuid.Nil {
		claim.ID = uuid.New()
	}
	if claim.Status == "" {
		claim.Status = models.ClaimStatusPending
	}
	now := s.now()
	claim.CreatedAt = now
	claim.UpdatedAt = now

	s.seq++
	s.claims[claim.ID] = &memClaim{claim: copyClaim(claim), seq: s.seq}
	s.claimCodes[claim.ClaimID] = claim.ID
	return nil
}

func (s *MemoryStore) UpdateClaim(_ context.Context, id uuid.UUID, patch models.ClaimPatch) (*models.Claim, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.claims[id]
	if !ok {
		return nil, ErrNotFound
	}
	if patch.Empty() {
		c := copyClaim(entry.claim)
		c.Files = s.filesOf(id)
		return c, nil
	}

	current := entry.claim
	if patch.ClaimID != nil && *patch.ClaimID != current.ClaimID {
		if _, taken := s.claimCodes[*patch.ClaimID]; taken {
			return nil, fmt.Errorf("claim %q: %w", *patch.ClaimID, ErrDuplicateKey)
		}
		delete(s.claimCodes, current.ClaimID)
		s.claimCodes[*patch.ClaimID] = id
	}

	updated := copyClaim(current)
	patch.Apply(updated)
	if now := s.now(); now.After(current.UpdatedAt) {
		updated.UpdatedAt = now
	}
	entry.claim = updated

	c := copyClaim(updated)
	c.Files = s.filesOf(id)
	return c, nil
}

func (s *MemoryStore) DeleteClaim(_ context.Context, id uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.claims[id]
	if !ok {
		return false, nil
	}
	delete(s.claimCodes, entry.claim.ClaimID)
	delete(s.claims, id)

	for _, f := range s.files {
		if f.ClaimID != nil && *f.ClaimID == id {
			f.ClaimID = nil
		}
	}
	return true, nil
}

func (s *MemoryStore) DashboardStats(_ context.Context) (*models.DashboardStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &models.DashboardStats{}
	for _, entry := range s.claims {
		stats.TotalClaims++
		stats.TotalArea += entry.claim.Area
		switch entry.claim.Status {
		case models.ClaimStatusApproved:
			stats.Processed++
		case models.ClaimStatusPending:
			stats.Pending++
		}
	}
	return stats, nil
}

func (s *MemoryStore) CreateFile(_ context.Context, file *models.UploadedFile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if file.ID == uuid.Nil {
		file.ID = uuid.New()
	}
	if file.Status == "" {
		file.Status = models.FileStatusUploaded
	}
	if file.UploadedAt.IsZero() {
		file.UploadedAt = s.now()
	}
	s.files[file.ID] = copyFile(file)
	return nil
}

func (s *MemoryStore) GetFile(_ context.Context, id uuid.UUID) (*models.UploadedFile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, ok := s.files[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyFile(f), nil
}

func (s *MemoryStore) UpdateFileStatus(_ context.Context, id uuid.UUID, status models.FileStatus) (*models.UploadedFile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.files[id]
	if !ok {
		return nil, ErrNotFound
	}
	if !f.Status.CanTransition(status) {
		return nil, ErrInvalidTransition
	}
	f.Status = status
	return copyFile(f), nil
}

func (s *MemoryStore) AttachFile(_ context.Context, fileID, claimID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.files[fileID]
	if !ok {
		return ErrNotFound
	}
	id := claimID
	f.ClaimID = &id
	return nil
}

func (s *MemoryStore) CreateUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.usernames[user.Username]; exists {
		return fmt.Errorf("user %q: %w", user.Username, ErrDuplicateKey)
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = s.now()
	}
	u := *user
	u.Email = copyString(user.Email)
	s.users[u.ID] = &u
	s.usernames[u.Username] = u.ID
	return nil
}

func (s *MemoryStore) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.usernames[username]
	if !ok {
		return nil, ErrNotFound
	}
	u := *s.users[id]
	return &u, nil
}

func (s *MemoryStore) GetUserByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

// sortedClaims returns copies of the matching claims, newest first. Claims
// created within the same clock tick keep insertion order via seq.
func (s *MemoryStore) sortedClaims(keep func(*models.Claim) bool) []*models.Claim {
	entries := make([]*memClaim, 0, len(s.claims))
	for _, e := range s.claims {
		if keep(e.claim) {
			entries = append(entries, e)
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if !a.claim.CreatedAt.Equal(b.claim.CreatedAt) {
			return a.claim.CreatedAt.After(b.claim.CreatedAt)
		}
		return a.seq > b.seq
	})

	out := make([]*models.Claim, len(entries))
	for i, e := range entries {
		out[i] = copyClaim(e.claim)
	}
	return out
}

func (s *MemoryStore) filesOf(claimID uuid.UUID) []*models.UploadedFile {
	var out []*models.UploadedFile
	for _, f := range s.files {
		if f.ClaimID != nil && *f.ClaimID == claimID {
			out = append(out, copyFile(f))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UploadedAt.After(out[j].UploadedAt) })
	return out
}

func copyClaim(c *models.Claim) *models.Claim {
	cp := *c
	cp.District = copyString(c.District)
	cp.State = copyString(c.State)
	cp.SurveyNumber = copyString(c.SurveyNumber)
	cp.RawText = copyString(c.RawText)
	if c.OCRConfidence != nil {
		v := *c.OCRConfidence
		cp.OCRConfidence = &v
	}
	if c.UserID != nil {
		v := *c.UserID
		cp.UserID = &v
	}
	if c.Geometry != nil {
		cp.Geometry = append(json.RawMessage(nil), c.Geometry...)
	}
	cp.Files = nil
	return &cp
}

func copyFile(f *models.UploadedFile) *models.UploadedFile {
	cp := *f
	if f.ClaimID != nil {
		v := *f.ClaimID
		cp.ClaimID = &v
	}
	if f.UserID != nil {
		v := *f.UserID
		cp.UserID = &v
	}
	return &cp
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
