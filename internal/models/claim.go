package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type ClaimStatus string

const (
	ClaimStatusPending        ClaimStatus = "pending"
	ClaimStatusApproved       ClaimStatus = "approved"
	ClaimStatusRejected       ClaimStatus = "rejected"
	ClaimStatusReviewRequired ClaimStatus = "review_required"
)

func (s ClaimStatus) Valid() bool {
	switch s {
	case ClaimStatusPending, ClaimStatusApproved, ClaimStatusRejected, ClaimStatusReviewRequired:
		return true
	}
	return false
}

// Claim is a forest-rights land claim. ClaimID is the human-readable code
// (e.g. FRA-2024-001) and is unique across the store.
type Claim struct {
	ID            uuid.UUID       `db:"id"`
	ClaimID       string          `db:"claim_id"`
	ClaimantName  string          `db:"claimant_name"`
	Village       string          `db:"village"`
	District      *string         `db:"district"`
	State         *string         `db:"state"`
	Area          float64         `db:"area"`
	SurveyNumber  *string         `db:"survey_number"`
	Status        ClaimStatus     `db:"status"`
	OCRConfidence *float64        `db:"ocr_confidence"`
	Geometry      json.RawMessage `db:"geometry"`
	RawText       *string         `db:"raw_text"`
	UserID        *uuid.UUID      `db:"user_id"`
	CreatedAt     time.Time       `db:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at"`

	Files []*UploadedFile `db:"-"`
}

// HasGeometry reports whether a boundary was attached. A stored JSON null
// counts as no boundary.
func (c *Claim) HasGeometry() bool {
	return len(c.Geometry) > 0 && string(c.Geometry) != "null"
}

// ClaimPatch carries a partial update; nil fields are left untouched.
type ClaimPatch struct {
	ClaimID       *string
	ClaimantName  *string
	Village       *string
	District      *string
	State         *string
	Area          *float64
	SurveyNumber  *string
	Status        *ClaimStatus
	OCRConfidence *float64
	Geometry      json.RawMessage
	RawText       *string
}

func (p ClaimPatch) Apply(c *Claim) {
	if p.ClaimID != nil {
		c.ClaimID = *p.ClaimID
	}
	if p.ClaimantName != nil {
		c.ClaimantName = *p.ClaimantName
	}
	if p.Village != nil {
		c.Village = *p.Village
	}
	if p.District != nil {
		c.District = p.District
	}
	if p.State != nil {
		c.State = p.State
	}
	if p.Area != nil {
		c.Area = *p.Area
	}
	if p.SurveyNumber != nil {
		c.SurveyNumber = p.SurveyNumber
	}
	if p.Status != nil {
		c.Status = *p.Status
	}
	if p.OCRConfidence != nil {
		c.OCRConfidence = p.OCRConfidence
	}
	if len(p.Geometry) > 0 {
		c.Geometry = append(json.RawMessage(nil), p.Geometry...)
	}
	if p.RawText != nil {
		c.RawText = p.RawText
	}
}

func (p ClaimPatch) Empty() bool {
	return p.ClaimID == nil && p.ClaimantName == nil && p.Village == nil && p.District == nil &&
		p.State == nil && p.Area == nil && p.SurveyNumber == nil && p.Status == nil &&
		p.OCRConfidence == nil && len(p.Geometry) == 0 && p.RawText == nil
}

type DashboardStats struct {
	TotalClaims int64
	Processed   int64
	TotalArea   float64
	Pending     int64
}
