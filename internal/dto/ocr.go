package dto

// ExtractedRecord is what a recognizer reads out of an FRA claim document.
type ExtractedRecord struct {
	ClaimID      string  `json:"claimId"`
	ClaimantName string  `json:"claimantName"`
	Village      string  `json:"village"`
	District     string  `json:"district"`
	State        string  `json:"state"`
	Area         float64 `json:"area"`
	SurveyNumber string  `json:"surveyNumber"`
	Confidence   float64 `json:"confidence"`
	RawText      string  `json:"rawText"`
}

// ExtractionCorrections holds reviewer overrides; nil fields are kept as
// extracted.
type ExtractionCorrections struct {
	ClaimID      *string  `json:"claimId,omitempty" validate:"omitempty,notblank,max=64"`
	ClaimantName *string  `json:"claimantName,omitempty" validate:"omitempty,notblank,max=255"`
	Village      *string  `json:"village,omitempty" validate:"omitempty,notblank,max=255"`
	District     *string  `json:"district,omitempty" validate:"omitempty,max=255"`
	State        *string  `json:"state,omitempty" validate:"omitempty,max=255"`
	Area         *float64 `json:"area,omitempty" validate:"omitempty,gte=0"`
	SurveyNumber *string  `json:"surveyNumber,omitempty" validate:"omitempty,max=128"`
	RawText      *string  `json:"rawText,omitempty"`
}

// Apply overlays the corrections onto rec.
func (c *ExtractionCorrections) Apply(rec *ExtractedRecord) {
	if c == nil {
		return
	}
	if c.ClaimID != nil {
		rec.ClaimID = *c.ClaimID
	}
	if c.ClaimantName != nil {
		rec.ClaimantName = *c.ClaimantName
	}
	if c.Village != nil {
		rec.Village = *c.Village
	}
	if c.District != nil {
		rec.District = *c.District
	}
	if c.State != nil {
		rec.State = *c.State
	}
	if c.Area != nil {
		rec.Area = *c.Area
	}
	if c.SurveyNumber != nil {
		rec.SurveyNumber = *c.SurveyNumber
	}
	if c.RawText != nil {
		rec.RawText = *c.RawText
	}
}

type UploadResponse struct {
	File            FileResponse    `json:"file"`
	ExtractedRecord ExtractedRecord `json:"extractedRecord"`
}

type ReprocessRequest struct {
	FileID      string                 `json:"fileId" validate:"required,uuid"`
	Corrections *ExtractionCorrections `json:"corrections,omitempty"`
}

// SaveExtractionRequest is the reviewed extraction submitted to create a
// claim. FileID links the claim to the upload it came from.
type SaveExtractionRequest struct {
	FileID       *string  `json:"fileId,omitempty" validate:"omitempty,uuid"`
	ClaimID      string   `json:"claimId" validate:"required,notblank,max=64"`
	ClaimantName string   `json:"claimantName" validate:"required,notblank,max=255"`
	Village      string   `json:"village" validate:"required,notblank,max=255"`
	District     *string  `json:"district,omitempty" validate:"omitempty,max=255"`
	State        *string  `json:"state,omitempty" validate:"omitempty,max=255"`
	Area         *float64 `json:"area" validate:"required,gte=0"`
	SurveyNumber *string  `json:"surveyNumber,omitempty" validate:"omitempty,max=128"`
	Confidence   *float64 `json:"confidence,omitempty" validate:"omitempty,gte=0,lte=100"`
	RawText      *string  `json:"rawText,omitempty"`
}
