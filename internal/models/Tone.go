package models

// NeutralTone is reported when no tone clears the analyzer's confidence floor.
const NeutralTone = "neutral"

// Tone is a single detected tone with the analyzer's raw confidence score.
type Tone struct {
	ID    string  `json:"tone_id"`
	Score float64 `json:"score"`
}

// NormalizeTones turns raw tone scores into weights summing to 1.0. An empty
// list or a zero total yields {"neutral": 1.0}.
func NormalizeTones(tones []Tone) map[string]float64 {
	var total float64
	for _, tone := range tones {
		total += tone.Score
	}

	if len(tones) == 0 || total <= 0 {
		return map[string]float64{NeutralTone: 1.0}
	}

	weights := make(map[string]float64, len(tones))
	for _, tone := range tones {
		weights[tone.ID] += tone.Score / total
	}

	return weights
}
