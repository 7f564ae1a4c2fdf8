package dto

import "encoding/json"

type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

type Feature struct {
	Type       string            `json:"type"`
	ID         string            `json:"id"`
	Geometry   json.RawMessage   `json:"geometry" swaggertype:"object"`
	Properties FeatureProperties `json:"properties"`
}

type FeatureProperties struct {
	ID           string   `json:"id"`
	ClaimID      string   `json:"claimId"`
	ClaimantName string   `json:"claimantName"`
	Village      string   `json:"village"`
	District     *string  `json:"district"`
	State        *string  `json:"state"`
	Area         float64  `json:"area"`
	Status       string   `json:"status"`
	Confidence   *float64 `json:"confidence"`
}

func NewFeatureCollection(features []Feature) FeatureCollection {
	if features == nil {
		features = []Feature{}
	}
	return FeatureCollection{Type: "FeatureCollection", Features: features}
}
