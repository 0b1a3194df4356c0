package grading

import "math"

// Weighted combination of the external analyzer's percentages. The analyzer itself
// is an opaque collaborator; only the mix and the threshold live here.
const (
	accuracyWeight      = 0.4
	fluencyWeight       = 0.3
	pronunciationWeight = 0.3
	passThreshold       = 70.0
)

// VoiceMetrics are opaque percentages (0-100) supplied by the speech analyzer.
type VoiceMetrics struct {
	Accuracy      float64 `json:"accuracy"`
	Fluency       float64 `json:"fluency"`
	Pronunciation float64 `json:"pronunciation"`
}

// ScoreVoice mixes the metrics into an overall percentage and applies the pass bar.
func ScoreVoice(m VoiceMetrics) (overall float64, passed bool) {
	overall = accuracyWeight*m.Accuracy + fluencyWeight*m.Fluency + pronunciationWeight*m.Pronunciation
	overall = math.Round(overall*100) / 100
	return overall, overall >= passThreshold
}
