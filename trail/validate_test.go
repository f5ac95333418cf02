package trail

import (
	"strings"
	"testing"

	"github.com/teranos/wander/errors"
)

func TestValidateVisits(t *testing.T) {
	tests := []struct {
		name     string
		visits   []Visit
		wantErr  bool
		contains string
	}{
		{"nil history is fine", nil, false, ""},
		{"valid visit", []Visit{{Ref: "1", Title: "Golden Gate Bridge", Image: "bridge.png"}}, false, ""},
		{"title only is fine", []Visit{{Title: "Alcatraz"}}, false, ""},
		{"missing title", []Visit{{Ref: "1"}}, true, "title is required"},
		{"later entry flagged with its index", []Visit{{Title: "ok"}, {Ref: "2"}}, true, "visit 1"},
		{"oversized title", []Visit{{Title: strings.Repeat("x", 600)}}, true, "at most 512"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateVisits(tt.visits)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateVisits() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil {
				return
			}
			if !errors.IsInvalidRequestError(err) {
				t.Errorf("expected invalid-request error, got: %v", err)
			}
			if tt.contains != "" && !strings.Contains(err.Error(), tt.contains) {
				t.Errorf("error %q should mention %q", err.Error(), tt.contains)
			}
		})
	}
}

func TestValidateSimilarityMap(t *testing.T) {
	score := 0.8

	tests := []struct {
		name     string
		similar  SimilarityMap
		wantErr  bool
		contains string
	}{
		{"nil map is fine", nil, false, ""},
		{"valid neighbors", SimilarityMap{"1": {{Title: "Y", Score: &score}}}, false, ""},
		{"empty neighbor list is fine", SimilarityMap{"1": {}}, false, ""},
		{"empty ref key", SimilarityMap{"": {{Title: "Y"}}}, true, "ref id"},
		{"neighbor missing title", SimilarityMap{"7": {{Ref: "8"}}}, true, "neighbor 0 of 7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSimilarityMap(tt.similar)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateSimilarityMap() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil {
				return
			}
			if !errors.IsInvalidRequestError(err) {
				t.Errorf("expected invalid-request error, got: %v", err)
			}
			if tt.contains != "" && !strings.Contains(err.Error(), tt.contains) {
				t.Errorf("error %q should mention %q", err.Error(), tt.contains)
			}
		})
	}
}
