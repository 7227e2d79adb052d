package vision

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/reunipet/reunipet/internal/biometric"
)

type fakeDetector struct {
	labels []biometric.Label
	err    error
}

func (f *fakeDetector) DetectLabels(context.Context, []byte, float32) ([]biometric.Label, error) {
	return f.labels, f.err
}

func TestValidateIsPet(t *testing.T) {
	cases := []struct {
		name   string
		labels []biometric.Label
		want   bool
	}{
		{
			name:   "confident dog",
			labels: []biometric.Label{{Name: "Dog", Confidence: 97.2}},
			want:   true,
		},
		{
			name:   "generic animal label",
			labels: []biometric.Label{{Name: "Animal", Confidence: 85}},
			want:   true,
		},
		{
			name:   "indicator below confidence floor",
			labels: []biometric.Label{{Name: "Cat", Confidence: 79.9}},
			want:   false,
		},
		{
			name:   "no animal indicators",
			labels: []biometric.Label{{Name: "Car", Confidence: 99}, {Name: "Road", Confidence: 95}},
			want:   false,
		},
		{
			name:   "no labels at all",
			labels: nil,
			want:   false,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := NewService(&fakeDetector{labels: tc.labels})
			got, err := svc.ValidateIsPet(context.Background(), []byte("img"))
			if err != nil {
				t.Fatalf("validate: %v", err)
			}
			if got != tc.want {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestValidateIsPet_DetectorFailurePropagates(t *testing.T) {
	svc := NewService(&fakeDetector{err: errors.New("rekognition down")})
	if _, err := svc.ValidateIsPet(context.Background(), nil); err == nil {
		t.Fatal("expected detector failure to propagate")
	}
}

func TestExtractCharacteristics_FiltersStoplistAndLowConfidence(t *testing.T) {
	svc := NewService(&fakeDetector{labels: []biometric.Label{
		{Name: "Dog", Confidence: 99},      // stoplisted species label
		{Name: "Golden Retriever", Confidence: 93.5},
		{Name: "Puppy", Confidence: 88},
		{Name: "Grass", Confidence: 91},    // stoplisted environment label
		{Name: "Collar", Confidence: 80},   // at the floor, excluded
		{Name: "Snout", Confidence: 80.1},
	}})
	got := svc.ExtractCharacteristics(context.Background(), []byte("img"))
	want := []string{"Golden Retriever", "Puppy", "Snout"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestExtractCharacteristics_DegradesToEmptyOnFailure(t *testing.T) {
	svc := NewService(&fakeDetector{err: errors.New("rekognition down")})
	got := svc.ExtractCharacteristics(context.Background(), nil)
	if got == nil || len(got) != 0 {
		t.Fatalf("want empty non-nil slice, got %v", got)
	}
}
