package extract

import (
	"encoding/json"
	"fmt"

	"github.com/nocturne-labs/dreamscape/pkg/helpers"
)

// decodeExtraction is the strict decode step for model output. Any failure
// here sends the caller down the pattern fallback, uniformly.
func decodeExtraction(raw string) (llmExtraction, error) {
	object, err := helpers.FirstJSONObject(raw)
	if err != nil {
		return llmExtraction{}, err
	}
	var parsed llmExtraction
	if err := json.Unmarshal([]byte(object), &parsed); err != nil {
		return llmExtraction{}, fmt.Errorf("unmarshal extraction: %w", err)
	}
	if parsed.Facts == nil {
		return llmExtraction{}, fmt.Errorf("extraction response missing facts field")
	}
	return parsed, nil
}
