package model

import (
	"math"
	"strings"
)

// BackgroundLabel is the label the classification service returns when no
// banknote is visible in the frame.
const BackgroundLabel = "fondo"

// DefaultConfidenceThreshold is the minimum confidence required to surface a
// prediction as an actionable detection.
const DefaultConfidenceThreshold = 0.85

// Prediction is the raw classification result returned by the service.
type Prediction struct {
	Label      string
	Confidence float64
}

// Detection is the user-visible interpretation of a prediction. A prediction
// whose label is the background sentinel, or whose confidence falls below the
// threshold, is normalized to a non-detection rather than surfaced as a
// low-confidence guess.
type Detection struct {
	Label      string
	Confidence float64
	Detected   bool
}

// Display normalizes the prediction against the given confidence threshold.
func (p Prediction) Display(threshold float64) Detection {
	if p.Label == BackgroundLabel || p.Confidence < threshold {
		return Detection{}
	}
	return Detection{
		Label:      p.Label,
		Confidence: p.Confidence,
		Detected:   true,
	}
}

// DisplayLabel returns the label in human-readable form ("500_pesos" becomes
// "500 pesos").
func (d Detection) DisplayLabel() string {
	return strings.ReplaceAll(d.Label, "_", " ")
}

// ConfidencePercent returns the confidence as a rounded whole percentage.
func (d Detection) ConfidencePercent() int {
	return int(math.Round(d.Confidence * 100))
}
