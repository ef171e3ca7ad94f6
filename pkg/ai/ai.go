package ai

import (
	"context"

	"github.com/openai/openai-go"
)

// Completion is the single seam to the hosted language model. Every caller
// degrades to a deterministic fallback when a call fails, so implementations
// are free to return errors for any transport or payload problem.
type Completion interface {
	Completions(ctx context.Context, messages []openai.ChatCompletionMessageParamUnion, tools []openai.ChatCompletionToolParam, model string) (openai.ChatCompletionMessage, error)
}
