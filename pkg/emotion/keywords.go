package emotion

import (
	"regexp"
	"strings"
)

// Keyword buckets for the fallback scorer. Seven of the nine emotions are
// covered; neutral and confused only appear when nothing scores.
var keywordBuckets = map[Emotion][]string{
	EmotionHappy:      {"happy", "glad", "great", "wonderful", "amazing", "smile", "laugh", "fun"},
	EmotionSad:        {"sad", "down", "depressed", "lonely", "miss", "cry", "hurt", "blue"},
	EmotionAngry:      {"angry", "mad", "furious", "hate", "pissed", "rage", "unfair", "yelled"},
	EmotionFrustrated: {"frustrated", "annoyed", "annoying", "stuck", "ugh", "tired of", "fed up", "sick of"},
	EmotionExcited:    {"excited", "thrilled", "can't wait", "finally", "awesome", "yay", "stoked", "pumped"},
	EmotionAnxious:    {"anxious", "nervous", "worried", "scared", "afraid", "stress", "stressed", "panic"},
	EmotionLoving:     {"love", "adore", "sweet", "cute", "darling", "heart", "babe", "dear"},
}

var thirdPartyPattern = regexp.MustCompile(`(?i)\b(boss|coworker|colleague|manager|friend|mom|mother|dad|father|brother|sister|ex|roommate|neighbor|teacher)\b`)

// detectWithKeywords scores each bucket by match ratio and picks the best.
// Buckets are visited in enum order so ties and trigger order are stable.
func detectWithKeywords(text string) Analysis {
	lower := strings.ToLower(text)
	analysis := neutralAnalysis()

	bestRatio := 0.0
	var triggers []string
	for _, emotion := range Emotions {
		bucket, ok := keywordBuckets[emotion]
		if !ok {
			continue
		}
		matches := 0
		for _, keyword := range bucket {
			if strings.Contains(lower, keyword) {
				matches++
				if len(triggers) < 5 {
					triggers = append(triggers, keyword)
				}
			}
		}
		ratio := float64(matches) / float64(len(bucket))
		analysis.EmotionScores[emotion] = ratio
		if ratio > bestRatio {
			bestRatio = ratio
			analysis.PrimaryEmotion = emotion
		}
	}

	switch {
	case bestRatio > 0.6:
		analysis.Intensity = IntensityHigh
	case bestRatio > 0.3:
		analysis.Intensity = IntensityMedium
	default:
		analysis.Intensity = IntensityLow
	}

	angerScore := analysis.EmotionScores[EmotionAngry]
	if analysis.EmotionScores[EmotionFrustrated] > angerScore {
		angerScore = analysis.EmotionScores[EmotionFrustrated]
	}
	analysis.IsAngryWithSpecificPerson = thirdPartyPattern.MatchString(lower) && angerScore > 0.3

	analysis.EmotionalTriggers = triggers
	analysis.Confidence = 0.6
	return analysis
}
