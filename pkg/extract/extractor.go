package extract

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/openai/openai-go"

	"github.com/nocturne-labs/dreamscape/pkg/ai"
	"github.com/nocturne-labs/dreamscape/pkg/helpers"
	"github.com/nocturne-labs/dreamscape/pkg/memory"
)

// Result is the outcome of one extraction pass over a single message.
type Result struct {
	Facts             []memory.Fact
	Confidence        float64
	NeedsVerification []memory.Fact
}

// Extractor turns a user message into structured facts. The hosted model
// is the primary path; a fixed set of regex templates covers the cases
// where the model call fails or returns garbage. Errors never reach the
// caller.
type Extractor struct {
	logger      *log.Logger
	completions ai.Completion
	model       string
	counter     atomic.Int64
}

func NewExtractor(logger *log.Logger, completions ai.Completion, model string) *Extractor {
	return &Extractor{
		logger:      logger,
		completions: completions,
		model:       model,
	}
}

var trivialMessagePattern = regexp.MustCompile(`(?i)^\s*(hi|hello|hey|yo|hiya|good\s+(morning|afternoon|evening)|thanks|thank you)[\s.!?]*$`)

// ExtractFacts extracts facts from one message given recent topic context.
func (e *Extractor) ExtractFacts(ctx context.Context, message string, contextTopics []string) Result {
	trimmed := strings.TrimSpace(message)
	if trimmed == "" || trivialMessagePattern.MatchString(trimmed) || len(strings.Fields(trimmed)) == 1 {
		// Nothing extractable, don't spend an external call.
		return Result{Confidence: 1.0}
	}

	if e.completions != nil {
		result, err := e.extractWithModel(ctx, trimmed, contextTopics)
		if err == nil {
			return result
		}
		e.logger.Warn("Model fact extraction failed, using pattern fallback", "error", err)
	}

	return e.extractWithPatterns(trimmed)
}

type llmFact struct {
	Content           string  `json:"content"`
	Category          string  `json:"category"`
	Confidence        float64 `json:"confidence"`
	NeedsVerification bool    `json:"needsVerification"`
}

type llmExtraction struct {
	Facts []llmFact `json:"facts"`
}

func (e *Extractor) extractWithModel(ctx context.Context, message string, contextTopics []string) (Result, error) {
	contextBlock := "(none)"
	if len(contextTopics) > 0 {
		contextBlock = strings.Join(contextTopics, ", ")
	}
	prompt := strings.ReplaceAll(factExtractionPrompt, "{context}", contextBlock)
	prompt = strings.ReplaceAll(prompt, "{message}", message)

	messages := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(prompt),
	}

	response, err := e.completions.Completions(ctx, messages, nil, e.model)
	if err != nil {
		return Result{}, fmt.Errorf("LLM completion failed: %w", err)
	}

	parsed, err := decodeExtraction(response.Content)
	if err != nil {
		return Result{}, fmt.Errorf("decoding extraction response: %w", err)
	}

	var result Result
	totalConfidence := 0.0
	for _, raw := range parsed.Facts {
		category := memory.Category(strings.ToLower(strings.TrimSpace(raw.Category)))
		if !memory.ValidCategory(category) {
			e.logger.Warn("Dropping fact with unknown category from model", "category", raw.Category)
			continue
		}
		confidence := helpers.Clamp01(raw.Confidence)
		if confidence < 0.5 {
			continue
		}
		fact := memory.Fact{
			ID:         e.nextID(),
			Content:    strings.TrimSpace(raw.Content),
			Category:   category,
			Confidence: confidence,
			Timestamp:  time.Now(),
			Source:     message,
		}
		if fact.Content == "" {
			continue
		}
		result.Facts = append(result.Facts, fact)
		totalConfidence += confidence
		if raw.NeedsVerification {
			result.NeedsVerification = append(result.NeedsVerification, fact)
		}
	}
	if len(result.Facts) > 0 {
		result.Confidence = totalConfidence / float64(len(result.Facts))
	} else {
		result.Confidence = 1.0
	}
	return result, nil
}

const fallbackConfidence = 0.7

type fallbackPattern struct {
	re       *regexp.Regexp
	category memory.Category
	render   func(groups []string) string
}

// The four fallback templates: date scheduling, outfit mention, emotional
// state, going somewhere.
var fallbackPatterns = []fallbackPattern{
	{
		re:       regexp.MustCompile(`(?i)\bdate with (\w+)(?:\s+(tomorrow|today|tonight|this weekend|next week|on \w+day))?`),
		category: memory.CategoryPlans,
		render: func(groups []string) string {
			content := "Has a date with " + groups[1]
			if groups[2] != "" {
				content += " " + strings.ToLower(groups[2])
			}
			return content
		},
	},
	{
		re:       regexp.MustCompile(`(?i)\b(?:wear(?:ing)?|wore|bought)\s+(?:a\s+|an\s+|my\s+|some\s+|new\s+)*([a-z][a-z ]{0,24}?(?:dress|outfit|shirt|skirt|jacket|shoes|heels))`),
		category: memory.CategoryPreferences,
		render: func(groups []string) string {
			return "Mentioned wearing " + strings.TrimSpace(strings.ToLower(groups[1]))
		},
	},
	{
		re:       regexp.MustCompile(`(?i)\bi(?:'m| am| feel| felt| was)\s+(?:so\s+|really\s+|very\s+)?(happy|sad|angry|upset|excited|nervous|anxious|tired|stressed|lonely)`),
		category: memory.CategoryEmotions,
		render: func(groups []string) string {
			return "Was feeling " + strings.ToLower(groups[1])
		},
	},
	{
		re:       regexp.MustCompile(`(?i)\bi(?:'m| am)?\s*going to (?:the\s+|a\s+)?([a-z][^.,!?]{1,29})`),
		category: memory.CategoryPlans,
		render: func(groups []string) string {
			return "Going to " + strings.TrimSpace(strings.ToLower(groups[1]))
		},
	},
}

func (e *Extractor) extractWithPatterns(message string) Result {
	var result Result
	for _, pattern := range fallbackPatterns {
		groups := pattern.re.FindStringSubmatch(message)
		if groups == nil {
			continue
		}
		result.Facts = append(result.Facts, memory.Fact{
			ID:         e.nextID(),
			Content:    pattern.render(groups),
			Category:   pattern.category,
			Confidence: fallbackConfidence,
			Timestamp:  time.Now(),
			Source:     message,
		})
	}
	result.Confidence = fallbackConfidence
	if len(result.Facts) == 0 {
		result.Confidence = 1.0
	}
	return result
}

// nextID combines a timestamp with a monotonic counter, unique within
// process lifetime.
func (e *Extractor) nextID() string {
	return fmt.Sprintf("fact-%d-%d", time.Now().UnixMilli(), e.counter.Add(1))
}
