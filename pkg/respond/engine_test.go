package respond

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/openai/openai-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nocturne-labs/dreamscape/pkg/ai"
	"github.com/nocturne-labs/dreamscape/pkg/conflict"
	"github.com/nocturne-labs/dreamscape/pkg/emotion"
	"github.com/nocturne-labs/dreamscape/pkg/memory"
)

func testLogger() *log.Logger {
	return log.New(io.Discard)
}

func analysisWith(primary emotion.Emotion, intensity emotion.Intensity) emotion.Analysis {
	return emotion.Analysis{PrimaryEmotion: primary, Intensity: intensity}
}

func conflictWith(kind conflict.Type, severity conflict.Severity, resolution conflict.Resolution) conflict.Info {
	return conflict.Info{
		ConflictID:            "conflict-test",
		Type:                  kind,
		Severity:              severity,
		SuggestedResolution:   resolution,
		ClarificationQuestion: "Which one is it?",
	}
}

func TestSelectStrategy(t *testing.T) {
	tests := []struct {
		name string
		rc   Context
		want Strategy
	}{
		{
			name: "high severity conflict wins over everything",
			rc: Context{
				Message:      "I'm single now, so so excited!!",
				Emotion:      analysisWith(emotion.EmotionExcited, emotion.IntensityHigh),
				Conflicts:    []conflict.Info{conflictWith(conflict.TypeContradiction, conflict.SeverityHigh, conflict.ResolutionClarify)},
				LearnedFacts: []memory.Fact{{Category: memory.CategoryRelationship}},
			},
			want: StrategyClarification,
		},
		{
			name: "intense anger at a person",
			rc: Context{
				Message: "my boss screamed at me again",
				Emotion: emotion.Analysis{
					PrimaryEmotion:            emotion.EmotionAngry,
					Intensity:                 emotion.IntensityHigh,
					IsAngryWithSpecificPerson: true,
				},
			},
			want: StrategySupportiveAlly,
		},
		{
			name: "intense sadness",
			rc:   Context{Message: "I can't stop crying", Emotion: analysisWith(emotion.EmotionSad, emotion.IntensityHigh)},
			want: StrategyEmotionalSupport,
		},
		{
			name: "intense excitement",
			rc:   Context{Message: "I GOT THE JOB", Emotion: analysisWith(emotion.EmotionExcited, emotion.IntensityHigh)},
			want: StrategyExcitedSharing,
		},
		{
			name: "other intense emotion",
			rc:   Context{Message: "I'm terrified about tomorrow", Emotion: analysisWith(emotion.EmotionAnxious, emotion.IntensityHigh)},
			want: StrategyEmotionalPresence,
		},
		{
			name: "plans beat preferences when both were learned",
			rc: Context{
				Message: "dinner at Nopa friday, I love their bread",
				Emotion: analysisWith(emotion.EmotionHappy, emotion.IntensityMedium),
				LearnedFacts: []memory.Fact{
					{Category: memory.CategoryPreferences},
					{Category: memory.CategoryPlans},
				},
			},
			want: StrategyPlansEngagement,
		},
		{
			name: "relationship fact",
			rc: Context{
				Message:      "my sister is visiting next month",
				Emotion:      analysisWith(emotion.EmotionHappy, emotion.IntensityLow),
				LearnedFacts: []memory.Fact{{Category: memory.CategoryRelationship}},
			},
			want: StrategyRelationshipAwareness,
		},
		{
			name: "preference fact",
			rc: Context{
				Message:      "turns out I really like oat milk",
				Emotion:      analysisWith(emotion.EmotionNeutral, emotion.IntensityLow),
				LearnedFacts: []memory.Fact{{Category: memory.CategoryPreferences}},
			},
			want: StrategyPreferenceLearning,
		},
		{
			name: "greeting",
			rc:   Context{Message: "hey hey", Emotion: analysisWith(emotion.EmotionHappy, emotion.IntensityLow)},
			want: StrategyGreeting,
		},
		{
			name: "question mark",
			rc:   Context{Message: "remember what I told you last week?", Emotion: analysisWith(emotion.EmotionNeutral, emotion.IntensityLow)},
			want: StrategyAnswer,
		},
		{
			name: "interrogative start without question mark",
			rc:   Context{Message: "do you think that was a mistake", Emotion: analysisWith(emotion.EmotionNeutral, emotion.IntensityLow)},
			want: StrategyAnswer,
		},
		{
			name: "everything else",
			rc:   Context{Message: "the rain has not stopped all day", Emotion: analysisWith(emotion.EmotionNeutral, emotion.IntensityLow)},
			want: StrategyAdaptive,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, selectStrategy(tt.rc))
		})
	}
}

func TestGenerateResponseSuccess(t *testing.T) {
	mock := &ai.MockCompletion{Responses: []string{"That sounds like a lovely evening."}}
	engine := NewEngine(testLogger(), mock, "test-model")

	result := engine.GenerateResponse(context.Background(), Context{
		Message: "made pasta and watched the rain",
		Emotion: analysisWith(emotion.EmotionHappy, emotion.IntensityLow),
	})

	assert.Equal(t, "That sounds like a lovely evening.", result.Response)
	assert.Equal(t, string(StrategyAdaptive), result.ResponseType)
	assert.Equal(t, 0.8, result.Confidence)
	assert.Empty(t, result.NeedsClarification)
	assert.Equal(t, 1, mock.Calls)
}

func TestGenerateResponseFallbackOnError(t *testing.T) {
	mock := &ai.MockCompletion{Err: errors.New("model unreachable")}
	engine := NewEngine(testLogger(), mock, "test-model")

	facts := []memory.Fact{{ID: "f1", Content: "Loves rain", Category: memory.CategoryPreferences}}
	result := engine.GenerateResponse(context.Background(), Context{
		Message:      "made pasta and watched the rain",
		Emotion:      analysisWith(emotion.EmotionHappy, emotion.IntensityLow),
		LearnedFacts: facts,
	})

	assert.Contains(t, fallbackResponses, result.Response)
	assert.Equal(t, "fallback", result.ResponseType)
	assert.Equal(t, 0.5, result.Confidence)
	// Learned facts survive the degraded path.
	assert.Equal(t, facts, result.LearnedFacts)
}

func TestGenerateResponseWithoutModelDegrades(t *testing.T) {
	engine := NewEngine(testLogger(), nil, "")
	result := engine.GenerateResponse(context.Background(), Context{Message: "hello"})
	assert.Equal(t, "fallback", result.ResponseType)
}

func TestEmptyModelReplyDegrades(t *testing.T) {
	mock := &ai.MockCompletion{Responses: []string{"   "}}
	engine := NewEngine(testLogger(), mock, "test-model")
	result := engine.GenerateResponse(context.Background(), Context{Message: "hello there friend"})
	assert.Equal(t, "fallback", result.ResponseType)
}

func TestAppendClarification(t *testing.T) {
	reply := "Dinner sounds great."

	tests := []struct {
		name      string
		conflicts []conflict.Info
		wantHigh  bool
		wantMed   bool
	}{
		{"no conflicts", nil, false, false},
		{
			"contradiction uses the urgent transition",
			[]conflict.Info{conflictWith(conflict.TypeContradiction, conflict.SeverityMedium, conflict.ResolutionUpdate)},
			true, false,
		},
		{
			"high severity uses the urgent transition",
			[]conflict.Info{conflictWith(conflict.TypeTemporal, conflict.SeverityHigh, conflict.ResolutionClarify)},
			true, false,
		},
		{
			"medium uses the soft transition",
			[]conflict.Info{conflictWith(conflict.TypeTemporal, conflict.SeverityMedium, conflict.ResolutionClarify)},
			false, true,
		},
		{
			"low severity is not surfaced",
			[]conflict.Info{conflictWith(conflict.TypeAmbiguity, conflict.SeverityLow, conflict.ResolutionClarify)},
			false, false,
		},
		{
			"only one question even with several conflicts",
			[]conflict.Info{
				conflictWith(conflict.TypeContradiction, conflict.SeverityHigh, conflict.ResolutionClarify),
				conflictWith(conflict.TypeTemporal, conflict.SeverityMedium, conflict.ResolutionClarify),
			},
			true, false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := appendClarification(reply, tt.conflicts)
			if tt.wantHigh {
				require.Contains(t, got, clarificationTransitionHigh)
			} else {
				assert.NotContains(t, got, clarificationTransitionHigh)
			}
			if tt.wantMed {
				require.Contains(t, got, clarificationTransitionMedium)
			} else {
				assert.NotContains(t, got, clarificationTransitionMedium)
			}
			assert.LessOrEqual(t, strings.Count(got, "Which one is it?"), 1)
		})
	}
}

// capturingCompletion records each request so tests can inspect the
// rendered prompt.
type capturingCompletion struct {
	requests []string
}

func (c *capturingCompletion) Completions(_ context.Context, messages []openai.ChatCompletionMessageParamUnion, _ []openai.ChatCompletionToolParam, _ string) (openai.ChatCompletionMessage, error) {
	raw, err := json.Marshal(messages)
	if err != nil {
		return openai.ChatCompletionMessage{}, err
	}
	c.requests = append(c.requests, string(raw))
	return openai.ChatCompletionMessage{Role: "assistant", Content: "ok"}, nil
}

func TestPromptPlaceholdersFilled(t *testing.T) {
	capture := &capturingCompletion{}
	engine := NewEngine(testLogger(), capture, "test-model")

	engine.GenerateResponse(context.Background(), Context{
		Message:       "thinking about the trip",
		Emotion:       analysisWith(emotion.EmotionExcited, emotion.IntensityMedium),
		RelevantFacts: []memory.Fact{{Content: "Planning a trip to Kyoto", Category: memory.CategoryPlans}},
		Topics:        []string{"travel"},
	})

	require.Len(t, capture.requests, 1)
	prompt := capture.requests[0]
	assert.NotContains(t, prompt, "{message}")
	assert.NotContains(t, prompt, "{emotion}")
	assert.NotContains(t, prompt, "{topics}")
	assert.NotContains(t, prompt, "{facts}")
	assert.Contains(t, prompt, "Planning a trip to Kyoto")
	assert.Contains(t, prompt, "travel")
}
