package ai

import (
	"context"
	"errors"

	"github.com/openai/openai-go"
)

var _ Completion = (*MockCompletion)(nil)

// MockCompletion replays canned responses for tests. When Err is set, every
// call fails with it, which forces callers down their fallback paths.
type MockCompletion struct {
	Responses []string
	Err       error
	Calls     int
}

func (m *MockCompletion) Completions(ctx context.Context, messages []openai.ChatCompletionMessageParamUnion, tools []openai.ChatCompletionToolParam, model string) (openai.ChatCompletionMessage, error) {
	m.Calls++
	if m.Err != nil {
		return openai.ChatCompletionMessage{}, m.Err
	}
	if len(m.Responses) == 0 {
		return openai.ChatCompletionMessage{}, errors.New("mock completion has no responses queued")
	}
	content := m.Responses[0]
	if len(m.Responses) > 1 {
		m.Responses = m.Responses[1:]
	}
	return openai.ChatCompletionMessage{
		Role:    "assistant",
		Content: content,
	}, nil
}
