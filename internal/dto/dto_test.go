package dto

import (
	"encoding/json"
	"strings"
	"testing"

	"fra-atlas/internal/models"

	"github.com/google/uuid"
)

func TestValidateCreateClaim(t *testing.T) {
	area := 2.5
	negative := -1.0
	cases := []struct {
		name    string
		req     CreateClaimRequest
		wantErr string
	}{
		{"ok", CreateClaimRequest{ClaimID: "FRA-2024-001", ClaimantName: "Sita", Village: "Peth", Area: &area}, ""},
		{"missing claimId", CreateClaimRequest{ClaimantName: "Sita", Village: "Peth", Area: &area}, "claimId is required"},
		{"missing area", CreateClaimRequest{ClaimID: "FRA-1", ClaimantName: "Sita", Village: "Peth"}, "area is required"},
		{"negative area", CreateClaimRequest{ClaimID: "FRA-1", ClaimantName: "Sita", Village: "Peth", Area: &negative}, "area must be >= 0"},
		{"bad status", CreateClaimRequest{ClaimID: "FRA-1", ClaimantName: "Sita", Village: "Peth", Area: &area, Status: "archived"}, "status must be one of"},
		{"blank claimId", CreateClaimRequest{ClaimID: "   ", ClaimantName: "Sita", Village: "Peth", Area: &area}, "claimId must not be blank"},
		{"blank claimantName", CreateClaimRequest{ClaimID: "FRA-1", ClaimantName: "\t ", Village: "Peth", Area: &area}, "claimantName must not be blank"},
		{"blank village", CreateClaimRequest{ClaimID: "FRA-1", ClaimantName: "Sita", Village: " ", Area: &area}, "village must not be blank"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Validate(&tc.req)
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("want error containing %q, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestValidateRejectsBlankNames(t *testing.T) {
	area := 1.0
	blank := "  "
	reqs := map[string]any{
		"save":       &SaveExtractionRequest{ClaimID: blank, ClaimantName: "Sita", Village: "Peth", Area: &area},
		"update":     &UpdateClaimRequest{Village: &blank},
		"correction": &ReprocessRequest{FileID: uuid.NewString(), Corrections: &ExtractionCorrections{ClaimantName: &blank}},
	}
	for name, req := range reqs {
		if err := Validate(req); err == nil || !strings.Contains(err.Error(), "must not be blank") {
			t.Fatalf("%s: want blank error, got %v", name, err)
		}
	}
}

func TestUpdateClaimRequestPatch(t *testing.T) {
	var req UpdateClaimRequest
	if err := json.Unmarshal([]byte(`{"status":"approved","geometry":null}`), &req); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	patch := req.Patch()
	if patch.Status == nil || *patch.Status != models.ClaimStatusApproved {
		t.Fatalf("status not carried: %+v", patch)
	}
	if len(patch.Geometry) != 0 {
		t.Fatalf("null geometry must not overwrite, got %s", patch.Geometry)
	}
	if patch.ClaimantName != nil {
		t.Fatalf("claimantName should be untouched")
	}
}

func TestNewClaimResponseNullGeometry(t *testing.T) {
	claimID := uuid.New()
	c := &models.Claim{ID: claimID, ClaimID: "FRA-2024-001", Status: models.ClaimStatusPending}
	c.Files = []*models.UploadedFile{{ID: uuid.New(), FileName: "a.pdf", ClaimID: &claimID}}

	body, err := json.Marshal(NewClaimResponse(c))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(body), `"geometry":null`) {
		t.Fatalf("geometry should serialize as null: %s", body)
	}
	if !strings.Contains(string(body), `"url":"/uploads/a.pdf"`) {
		t.Fatalf("file url missing: %s", body)
	}
}

func TestExtractionCorrectionsApply(t *testing.T) {
	rec := ExtractedRecord{ClaimID: "FRA-2024-007", District: "Unclear", Area: 1}
	district := "Dindori"
	area := 3.2
	(&ExtractionCorrections{District: &district, Area: &area}).Apply(&rec)

	if rec.District != "Dindori" || rec.Area != 3.2 || rec.ClaimID != "FRA-2024-007" {
		t.Fatalf("unexpected record: %+v", rec)
	}
}
