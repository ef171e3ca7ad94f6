package respond

import (
	"context"
	"fmt"
	"math/rand"
	"regexp"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/openai/openai-go"
	"github.com/samber/lo"

	"github.com/nocturne-labs/dreamscape/pkg/ai"
	"github.com/nocturne-labs/dreamscape/pkg/conflict"
	"github.com/nocturne-labs/dreamscape/pkg/emotion"
	"github.com/nocturne-labs/dreamscape/pkg/memory"
)

type Strategy string

const (
	StrategyClarification         Strategy = "clarification_required"
	StrategySupportiveAlly        Strategy = "supportive_ally"
	StrategyEmotionalSupport      Strategy = "emotional_support"
	StrategyExcitedSharing        Strategy = "excited_sharing"
	StrategyEmotionalPresence     Strategy = "emotional_presence"
	StrategyPlansEngagement       Strategy = "plans_engagement"
	StrategyRelationshipAwareness Strategy = "relationship_awareness"
	StrategyPreferenceLearning    Strategy = "preference_learning"
	StrategyGreeting              Strategy = "contextual_greeting"
	StrategyAnswer                Strategy = "intelligent_answer"
	StrategyAdaptive              Strategy = "adaptive_conversation"
)

// Context carries every signal the engine selects a strategy from.
type Context struct {
	Message       string
	Emotion       emotion.Analysis
	Conflicts     []conflict.Info
	LearnedFacts  []memory.Fact
	RelevantFacts []memory.Fact
	Topics        []string
}

// Result always has the same shape whether the model call succeeded or
// not, so callers never need a failure branch.
type Result struct {
	Response           string
	ResponseType       string
	Confidence         float64
	LearnedFacts       []memory.Fact
	NeedsClarification []conflict.Info
}

// Engine picks a response strategy from the turn's signals, renders the
// strategy's prompt and delegates the reply text to the hosted model.
type Engine struct {
	logger      *log.Logger
	completions ai.Completion
	model       string
}

func NewEngine(logger *log.Logger, completions ai.Completion, model string) *Engine {
	return &Engine{
		logger:      logger,
		completions: completions,
		model:       model,
	}
}

// GenerateResponse produces the final reply for a turn. Model errors
// degrade to a canned reply, never to an error.
func (e *Engine) GenerateResponse(ctx context.Context, rc Context) Result {
	strategy := selectStrategy(rc)
	e.logger.Debug("Response strategy selected", "strategy", strategy)

	reply, err := e.complete(ctx, strategy, rc)
	if err != nil {
		e.logger.Warn("Response generation failed, using canned reply", "error", err)
		return Result{
			Response:           fallbackResponses[rand.Intn(len(fallbackResponses))],
			ResponseType:       "fallback",
			Confidence:         0.5,
			LearnedFacts:       rc.LearnedFacts,
			NeedsClarification: rc.Conflicts,
		}
	}

	reply = appendClarification(reply, rc.Conflicts)

	return Result{
		Response:           reply,
		ResponseType:       string(strategy),
		Confidence:         0.8,
		LearnedFacts:       rc.LearnedFacts,
		NeedsClarification: rc.Conflicts,
	}
}

var greetingPattern = regexp.MustCompile(`(?i)^\s*(hi|hello|hey|yo|hiya|good\s+(morning|afternoon|evening))\b`)

var interrogativeStarts = []string{
	"what", "who", "where", "when", "why", "how",
	"do you", "did you", "can you", "could you", "would you", "are you", "is it",
}

// selectStrategy is a fixed-priority decision table, evaluated top to
// bottom, first match wins.
func selectStrategy(rc Context) Strategy {
	for _, c := range rc.Conflicts {
		if c.Severity == conflict.SeverityHigh {
			return StrategyClarification
		}
	}

	if rc.Emotion.Intensity == emotion.IntensityHigh {
		switch {
		case rc.Emotion.IsAngryWithSpecificPerson:
			return StrategySupportiveAlly
		case rc.Emotion.PrimaryEmotion == emotion.EmotionSad:
			return StrategyEmotionalSupport
		case rc.Emotion.PrimaryEmotion == emotion.EmotionExcited:
			return StrategyExcitedSharing
		default:
			return StrategyEmotionalPresence
		}
	}

	if len(rc.LearnedFacts) > 0 {
		categories := lo.Map(rc.LearnedFacts, func(f memory.Fact, _ int) memory.Category {
			return f.Category
		})
		for _, category := range []memory.Category{memory.CategoryPlans, memory.CategoryRelationship, memory.CategoryPreferences} {
			if lo.Contains(categories, category) {
				switch category {
				case memory.CategoryPlans:
					return StrategyPlansEngagement
				case memory.CategoryRelationship:
					return StrategyRelationshipAwareness
				default:
					return StrategyPreferenceLearning
				}
			}
		}
	}

	if greetingPattern.MatchString(rc.Message) {
		return StrategyGreeting
	}

	if isQuestion(rc.Message) {
		return StrategyAnswer
	}

	return StrategyAdaptive
}

func isQuestion(message string) bool {
	if strings.Contains(message, "?") {
		return true
	}
	lower := strings.ToLower(strings.TrimSpace(message))
	for _, start := range interrogativeStarts {
		if strings.HasPrefix(lower, start) {
			return true
		}
	}
	return false
}

func (e *Engine) complete(ctx context.Context, strategy Strategy, rc Context) (string, error) {
	if e.completions == nil {
		return "", fmt.Errorf("no completion service configured")
	}

	facts := "(nothing yet)"
	known := append(append([]memory.Fact(nil), rc.RelevantFacts...), rc.LearnedFacts...)
	if len(known) > 0 {
		contents := lo.Uniq(lo.Map(known, func(f memory.Fact, _ int) string {
			return f.Content
		}))
		facts = strings.Join(contents, "; ")
	}
	topics := "(none)"
	if len(rc.Topics) > 0 {
		topics = strings.Join(rc.Topics, ", ")
	}

	prompt := strategyPrompts[strategy]
	prompt = strings.ReplaceAll(prompt, "{message}", rc.Message)
	prompt = strings.ReplaceAll(prompt, "{emotion}", string(rc.Emotion.PrimaryEmotion))
	prompt = strings.ReplaceAll(prompt, "{intensity}", string(rc.Emotion.Intensity))
	prompt = strings.ReplaceAll(prompt, "{topics}", topics)
	prompt = strings.ReplaceAll(prompt, "{facts}", facts)

	messages := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(prompt),
		openai.UserMessage(rc.Message),
	}

	response, err := e.completions.Completions(ctx, messages, nil, e.model)
	if err != nil {
		return "", err
	}
	reply := strings.TrimSpace(response.Content)
	if reply == "" {
		return "", fmt.Errorf("model returned an empty reply")
	}
	return reply, nil
}

// appendClarification adds at most one clarifying question: the first
// high/contradiction conflict wins, then the first medium one.
func appendClarification(reply string, conflicts []conflict.Info) string {
	for _, c := range conflicts {
		if c.Severity == conflict.SeverityHigh || c.Type == conflict.TypeContradiction {
			return reply + " " + clarificationTransitionHigh + c.ClarificationQuestion
		}
	}
	for _, c := range conflicts {
		if c.Severity == conflict.SeverityMedium {
			return reply + " " + clarificationTransitionMedium + c.ClarificationQuestion
		}
	}
	return reply
}
