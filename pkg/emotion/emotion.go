package emotion

type Emotion string

const (
	EmotionHappy      Emotion = "happy"
	EmotionSad        Emotion = "sad"
	EmotionAngry      Emotion = "angry"
	EmotionFrustrated Emotion = "frustrated"
	EmotionExcited    Emotion = "excited"
	EmotionAnxious    Emotion = "anxious"
	EmotionLoving     Emotion = "loving"
	EmotionConfused   Emotion = "confused"
	EmotionNeutral    Emotion = "neutral"
)

// Emotions is the fixed nine-value enum; score maps always cover all of it.
var Emotions = []Emotion{
	EmotionHappy,
	EmotionSad,
	EmotionAngry,
	EmotionFrustrated,
	EmotionExcited,
	EmotionAnxious,
	EmotionLoving,
	EmotionConfused,
	EmotionNeutral,
}

func ValidEmotion(e Emotion) bool {
	for _, known := range Emotions {
		if e == known {
			return true
		}
	}
	return false
}

type Intensity string

const (
	IntensityLow    Intensity = "low"
	IntensityMedium Intensity = "medium"
	IntensityHigh   Intensity = "high"
)

func ValidIntensity(i Intensity) bool {
	return i == IntensityLow || i == IntensityMedium || i == IntensityHigh
}

// Analysis is produced fresh each request; only the primary emotion label
// outlives it, as the session's emotional state summary.
type Analysis struct {
	PrimaryEmotion            Emotion             `json:"primaryEmotion"`
	Intensity                 Intensity           `json:"intensity"`
	EmotionScores             map[Emotion]float64 `json:"emotionScores"`
	IsAngryWithSpecificPerson bool                `json:"isAngryWithSpecificPerson"`
	EmotionalTriggers         []string            `json:"emotionalTriggers"`
	Confidence                float64             `json:"confidence"`
}

func zeroScores() map[Emotion]float64 {
	scores := make(map[Emotion]float64, len(Emotions))
	for _, e := range Emotions {
		scores[e] = 0
	}
	return scores
}
