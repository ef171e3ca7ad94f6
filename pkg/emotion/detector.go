package emotion

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/openai/openai-go"

	"github.com/nocturne-labs/dreamscape/pkg/ai"
	"github.com/nocturne-labs/dreamscape/pkg/helpers"
	"github.com/nocturne-labs/dreamscape/pkg/model"
)

const historyWindow = 5

// Detector classifies the emotional tone of a conversation. The hosted
// model is primary; keyword-bucket scoring covers model or decode
// failures. Errors never reach the caller.
type Detector struct {
	logger      *log.Logger
	completions ai.Completion
	model       string
}

func NewDetector(logger *log.Logger, completions ai.Completion, model string) *Detector {
	return &Detector{
		logger:      logger,
		completions: completions,
		model:       model,
	}
}

var greetingPattern = regexp.MustCompile(`(?i)^\s*(hi|hello|hey|yo|hiya|good\s+(morning|afternoon|evening))[\s.!?]*$`)

// DetectEmotion analyzes the latest user message in the context of recent
// history.
func (d *Detector) DetectEmotion(ctx context.Context, history []model.Message) Analysis {
	if len(history) == 0 {
		analysis := neutralAnalysis()
		analysis.Confidence = 1.0
		return analysis
	}

	latest := history[len(history)-1]
	if greetingPattern.MatchString(latest.Text) {
		scores := zeroScores()
		scores[EmotionHappy] = 0.6
		return Analysis{
			PrimaryEmotion: EmotionHappy,
			Intensity:      IntensityLow,
			EmotionScores:  scores,
			Confidence:     0.9,
		}
	}

	if d.completions != nil {
		analysis, err := d.detectWithModel(ctx, history, latest)
		if err == nil {
			return analysis
		}
		d.logger.Warn("Model emotion detection failed, using keyword fallback", "error", err)
	}

	return detectWithKeywords(latest.Text)
}

type llmAnalysis struct {
	PrimaryEmotion            string             `json:"primaryEmotion"`
	Intensity                 string             `json:"intensity"`
	EmotionScores             map[string]float64 `json:"emotionScores"`
	IsAngryWithSpecificPerson bool               `json:"isAngryWithSpecificPerson"`
	EmotionalTriggers         []string           `json:"emotionalTriggers"`
	Confidence                float64            `json:"confidence"`
}

func (d *Detector) detectWithModel(ctx context.Context, history []model.Message, latest model.Message) (Analysis, error) {
	var historyBlock strings.Builder
	for _, msg := range helpers.SafeLastN(history, historyWindow) {
		historyBlock.WriteString(fmt.Sprintf("%s: %s\n", msg.Sender, msg.Text))
	}

	prompt := strings.ReplaceAll(emotionPrompt, "{history}", historyBlock.String())
	prompt = strings.ReplaceAll(prompt, "{message}", latest.Text)

	messages := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(prompt),
	}

	response, err := d.completions.Completions(ctx, messages, nil, d.model)
	if err != nil {
		return Analysis{}, fmt.Errorf("LLM completion failed: %w", err)
	}

	object, err := helpers.FirstJSONObject(response.Content)
	if err != nil {
		return Analysis{}, err
	}
	var parsed llmAnalysis
	if err := json.Unmarshal([]byte(object), &parsed); err != nil {
		return Analysis{}, fmt.Errorf("unmarshal emotion response: %w", err)
	}

	return coerceAnalysis(parsed), nil
}

// coerceAnalysis defensively maps model output onto the fixed enums. Any
// value outside the allowed sets becomes a safe default rather than an
// error.
func coerceAnalysis(parsed llmAnalysis) Analysis {
	analysis := Analysis{
		PrimaryEmotion:            Emotion(strings.ToLower(strings.TrimSpace(parsed.PrimaryEmotion))),
		Intensity:                 Intensity(strings.ToLower(strings.TrimSpace(parsed.Intensity))),
		EmotionScores:             zeroScores(),
		IsAngryWithSpecificPerson: parsed.IsAngryWithSpecificPerson,
		Confidence:                helpers.Clamp01(parsed.Confidence),
	}
	if !ValidEmotion(analysis.PrimaryEmotion) {
		analysis.PrimaryEmotion = EmotionNeutral
	}
	if !ValidIntensity(analysis.Intensity) {
		analysis.Intensity = IntensityMedium
	}
	for name, score := range parsed.EmotionScores {
		e := Emotion(strings.ToLower(strings.TrimSpace(name)))
		if ValidEmotion(e) {
			analysis.EmotionScores[e] = helpers.Clamp01(score)
		}
	}
	analysis.EmotionalTriggers = parsed.EmotionalTriggers
	if len(analysis.EmotionalTriggers) > 5 {
		analysis.EmotionalTriggers = analysis.EmotionalTriggers[:5]
	}
	return analysis
}

func neutralAnalysis() Analysis {
	return Analysis{
		PrimaryEmotion: EmotionNeutral,
		Intensity:      IntensityLow,
		EmotionScores:  zeroScores(),
	}
}
