package dto

import (
	"encoding/json"
	"time"

	"fra-atlas/internal/models"
)

type CreateClaimRequest struct {
	ClaimID       string          `json:"claimId" validate:"required,notblank,max=64"`
	ClaimantName  string          `json:"claimantName" validate:"required,notblank,max=255"`
	Village       string          `json:"village" validate:"required,notblank,max=255"`
	District      *string         `json:"district,omitempty" validate:"omitempty,max=255"`
	State         *string         `json:"state,omitempty" validate:"omitempty,max=255"`
	Area          *float64        `json:"area" validate:"required,gte=0"`
	SurveyNumber  *string         `json:"surveyNumber,omitempty" validate:"omitempty,max=128"`
	Status        string          `json:"status,omitempty" validate:"omitempty,claim_status"`
	OCRConfidence *float64        `json:"ocrConfidence,omitempty" validate:"omitempty,gte=0,lte=100"`
	Geometry      json.RawMessage `json:"geometry,omitempty" swaggertype:"object"`
	RawText       *string         `json:"rawText,omitempty"`
}

// UpdateClaimRequest is a partial update; omitted fields stay untouched.
type UpdateClaimRequest struct {
	ClaimID       *string         `json:"claimId,omitempty" validate:"omitempty,notblank,max=64"`
	ClaimantName  *string         `json:"claimantName,omitempty" validate:"omitempty,notblank,max=255"`
	Village       *string         `json:"village,omitempty" validate:"omitempty,notblank,max=255"`
	District      *string         `json:"district,omitempty" validate:"omitempty,max=255"`
	State         *string         `json:"state,omitempty" validate:"omitempty,max=255"`
	Area          *float64        `json:"area,omitempty" validate:"omitempty,gte=0"`
	SurveyNumber  *string         `json:"surveyNumber,omitempty" validate:"omitempty,max=128"`
	Status        *string         `json:"status,omitempty" validate:"omitempty,claim_status"`
	OCRConfidence *float64        `json:"ocrConfidence,omitempty" validate:"omitempty,gte=0,lte=100"`
	Geometry      json.RawMessage `json:"geometry,omitempty" swaggertype:"object"`
	RawText       *string         `json:"rawText,omitempty"`
}

func (r *UpdateClaimRequest) Patch() models.ClaimPatch {
	patch := models.ClaimPatch{
		ClaimID:       r.ClaimID,
		ClaimantName:  r.ClaimantName,
		Village:       r.Village,
		District:      r.District,
		State:         r.State,
		Area:          r.Area,
		SurveyNumber:  r.SurveyNumber,
		OCRConfidence: r.OCRConfidence,
		RawText:       r.RawText,
	}
	if r.Status != nil {
		status := models.ClaimStatus(*r.Status)
		patch.Status = &status
	}
	if isPresent(r.Geometry) {
		patch.Geometry = r.Geometry
	}
	return patch
}

type BoundaryRequest struct {
	Geometry json.RawMessage `json:"geometry" swaggertype:"object"`
}

// HasGeometry reports whether a non-null geometry was supplied.
func (r *BoundaryRequest) HasGeometry() bool {
	return isPresent(r.Geometry)
}

type FileResponse struct {
	ID           string  `json:"id"`
	FileName     string  `json:"fileName"`
	OriginalName string  `json:"originalName"`
	MimeType     string  `json:"mimeType"`
	FileSize     int64   `json:"fileSize"`
	Status       string  `json:"status"`
	ClaimID      *string `json:"claimId"`
	UserID       *string `json:"userId"`
	URL          string  `json:"url"`
	UploadedAt   string  `json:"uploadedAt"`
}

type ClaimResponse struct {
	ID            string          `json:"id"`
	ClaimID       string          `json:"claimId"`
	ClaimantName  string          `json:"claimantName"`
	Village       string          `json:"village"`
	District      *string         `json:"district"`
	State         *string         `json:"state"`
	Area          float64         `json:"area"`
	SurveyNumber  *string         `json:"surveyNumber"`
	Status        string          `json:"status"`
	OCRConfidence *float64        `json:"ocrConfidence"`
	Geometry      json.RawMessage `json:"geometry" swaggertype:"object"`
	RawText       *string         `json:"rawText"`
	UserID        *string         `json:"userId"`
	CreatedAt     string          `json:"createdAt"`
	UpdatedAt     string          `json:"updatedAt"`
	Files         []FileResponse  `json:"files"`
}

type DashboardStatsResponse struct {
	TotalClaims int64   `json:"totalClaims"`
	Processed   int64   `json:"processed"`
	TotalArea   float64 `json:"totalArea"`
	Pending     int64   `json:"pending"`
}

func NewClaimResponse(c *models.Claim) ClaimResponse {
	resp := ClaimResponse{
		ID:            c.ID.String(),
		ClaimID:       c.ClaimID,
		ClaimantName:  c.ClaimantName,
		Village:       c.Village,
		District:      c.District,
		State:         c.State,
		Area:          c.Area,
		SurveyNumber:  c.SurveyNumber,
		Status:        string(c.Status),
		OCRConfidence: c.OCRConfidence,
		RawText:       c.RawText,
		CreatedAt:     c.CreatedAt.Format(time.RFC3339Nano),
		UpdatedAt:     c.UpdatedAt.Format(time.RFC3339Nano),
		Files:         make([]FileResponse, 0, len(c.Files)),
	}
	if c.HasGeometry() {
		resp.Geometry = c.Geometry
	} else {
		resp.Geometry = json.RawMessage("null")
	}
	if c.UserID != nil {
		id := c.UserID.String()
		resp.UserID = &id
	}
	for _, f := range c.Files {
		resp.Files = append(resp.Files, NewFileResponse(f))
	}
	return resp
}

func NewClaimResponses(claims []*models.Claim) []ClaimResponse {
	out := make([]ClaimResponse, 0, len(claims))
	for _, c := range claims {
		out = append(out, NewClaimResponse(c))
	}
	return out
}

func NewFileResponse(f *models.UploadedFile) FileResponse {
	resp := FileResponse{
		ID:           f.ID.String(),
		FileName:     f.FileName,
		OriginalName: f.OriginalName,
		MimeType:     f.MimeType,
		FileSize:     f.FileSize,
		Status:       string(f.Status),
		URL:          "/uploads/" + f.FileName,
		UploadedAt:   f.UploadedAt.Format(time.RFC3339Nano),
	}
	if f.ClaimID != nil {
		id := f.ClaimID.String()
		resp.ClaimID = &id
	}
	if f.UserID != nil {
		id := f.UserID.String()
		resp.UserID = &id
	}
	return resp
}

func NewDashboardStatsResponse(s *models.DashboardStats) DashboardStatsResponse {
	return DashboardStatsResponse{
		TotalClaims: s.TotalClaims,
		Processed:   s.Processed,
		TotalArea:   s.TotalArea,
		Pending:     s.Pending,
	}
}

func isPresent(raw json.RawMessage) bool {
	return len(raw) > 0 && string(raw) != "null"
}
