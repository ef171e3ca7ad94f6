package extract

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nocturne-labs/dreamscape/pkg/ai"
	"github.com/nocturne-labs/dreamscape/pkg/memory"
)

func testLogger() *log.Logger {
	return log.New(io.Discard)
}

func TestTrivialMessagesSkipExtraction(t *testing.T) {
	mock := &ai.MockCompletion{Responses: []string{`{"facts": []}`}}
	extractor := NewExtractor(testLogger(), mock, "test-model")

	tests := []string{"hi", "Hello!", "hey", "good morning", "thanks", "wow"}
	for _, message := range tests {
		t.Run(message, func(t *testing.T) {
			result := extractor.ExtractFacts(context.Background(), message, nil)
			assert.Empty(t, result.Facts)
			assert.Equal(t, 1.0, result.Confidence)
		})
	}
	// No external call was spent on any of them.
	assert.Equal(t, 0, mock.Calls)
}

func TestModelExtraction(t *testing.T) {
	mock := &ai.MockCompletion{Responses: []string{`Here you go:
{"facts": [
  {"content": "Loves spicy food", "category": "preferences", "confidence": 0.9, "needsVerification": false},
  {"content": "Might move to Berlin", "category": "plans", "confidence": 0.6, "needsVerification": true},
  {"content": "Low confidence noise", "category": "personal", "confidence": 0.3, "needsVerification": false},
  {"content": "Bad category", "category": "gossip", "confidence": 0.9, "needsVerification": false}
]}`}}
	extractor := NewExtractor(testLogger(), mock, "test-model")

	result := extractor.ExtractFacts(context.Background(), "I love spicy food and might move to Berlin", []string{"food"})

	require.Len(t, result.Facts, 2)
	assert.Equal(t, memory.CategoryPreferences, result.Facts[0].Category)
	assert.Equal(t, memory.CategoryPlans, result.Facts[1].Category)

	// The flagged fact lands in the verification list too.
	require.Len(t, result.NeedsVerification, 1)
	assert.Equal(t, "Might move to Berlin", result.NeedsVerification[0].Content)

	assert.InDelta(t, 0.75, result.Confidence, 1e-9)
}

func TestFallbackOnModelError(t *testing.T) {
	mock := &ai.MockCompletion{Err: errors.New("model unreachable")}
	extractor := NewExtractor(testLogger(), mock, "test-model")

	result := extractor.ExtractFacts(context.Background(), "I'm going on a date with Sam tomorrow", nil)

	require.Len(t, result.Facts, 1)
	fact := result.Facts[0]
	assert.Equal(t, memory.CategoryPlans, fact.Category)
	assert.InDelta(t, 0.7, fact.Confidence, 1e-9)
	assert.Contains(t, fact.Content, "date")
	assert.Contains(t, fact.Content, "Sam")
}

func TestFallbackOnMalformedJSON(t *testing.T) {
	mock := &ai.MockCompletion{Responses: []string{"sure! the user seems nice"}}
	extractor := NewExtractor(testLogger(), mock, "test-model")

	result := extractor.ExtractFacts(context.Background(), "I was so lonely last night", nil)

	require.Len(t, result.Facts, 1)
	assert.Equal(t, memory.CategoryEmotions, result.Facts[0].Category)
	assert.Equal(t, "Was feeling lonely", result.Facts[0].Content)
}

func TestFallbackPatterns(t *testing.T) {
	extractor := NewExtractor(testLogger(), nil, "")

	tests := []struct {
		name     string
		message  string
		category memory.Category
		content  string
	}{
		{"date", "going on a date with Sam tomorrow", memory.CategoryPlans, "Has a date with Sam tomorrow"},
		{"outfit", "I bought a new summer dress today", memory.CategoryPreferences, "Mentioned wearing summer dress"},
		{"emotion", "honestly I'm so stressed right now", memory.CategoryEmotions, "Was feeling stressed"},
		{"place", "I'm going to the beach this afternoon", memory.CategoryPlans, "Going to beach this afternoon"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := extractor.ExtractFacts(context.Background(), tt.message, nil)
			require.Len(t, result.Facts, 1)
			assert.Equal(t, tt.category, result.Facts[0].Category)
			assert.Equal(t, tt.content, result.Facts[0].Content)
			assert.Equal(t, tt.message, result.Facts[0].Source)
		})
	}
}

func TestFallbackNoMatchesKeepsConfidence(t *testing.T) {
	extractor := NewExtractor(testLogger(), nil, "")
	result := extractor.ExtractFacts(context.Background(), "the sky looked unreal earlier", nil)
	assert.Empty(t, result.Facts)
	assert.Equal(t, 1.0, result.Confidence)
}

func TestFactIDsAreUniqueInProcess(t *testing.T) {
	extractor := NewExtractor(testLogger(), nil, "")
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		result := extractor.ExtractFacts(context.Background(), "I'm going to the park right now", nil)
		require.Len(t, result.Facts, 1)
		id := result.Facts[0].ID
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}

func TestDecodeExtraction(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{"plain object", `{"facts": []}`, false},
		{"fenced object", "```json\n{\"facts\": [{\"content\": \"x\", \"category\": \"plans\", \"confidence\": 0.8}]}\n```", false},
		{"no json", "nothing here", true},
		{"unbalanced", `{"facts": [`, true},
		{"missing facts", `{"other": 1}`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decodeExtraction(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
