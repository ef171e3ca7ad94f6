package helpers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFirstJSONObject(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{"bare object", `{"a": 1}`, `{"a": 1}`, false},
		{"prose around it", `Sure! Here it is: {"a": 1} hope that helps`, `{"a": 1}`, false},
		{"code fence", "```json\n{\"a\": 1}\n```", `{"a": 1}`, false},
		{"nested objects", `{"a": {"b": {"c": 1}}}`, `{"a": {"b": {"c": 1}}}`, false},
		{"braces inside strings", `{"a": "close me } not yet"}`, `{"a": "close me } not yet"}`, false},
		{"escaped quote in string", `{"a": "she said \"}\" loudly"}`, `{"a": "she said \"}\" loudly"}`, false},
		{"only the first object", `{"a": 1} {"b": 2}`, `{"a": 1}`, false},
		{"no object", "just words", "", true},
		{"unbalanced", `{"a": {"b": 1}`, "", true},
		{"empty input", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FirstJSONObject(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSafeLastN(t *testing.T) {
	assert.Equal(t, []int{3, 4, 5}, SafeLastN([]int{1, 2, 3, 4, 5}, 3))
	assert.Equal(t, []int{1, 2}, SafeLastN([]int{1, 2}, 5))
	assert.Empty(t, SafeLastN([]int(nil), 3))
}

func TestClamp01(t *testing.T) {
	assert.Equal(t, 0.0, Clamp01(-0.2))
	assert.Equal(t, 0.4, Clamp01(0.4))
	assert.Equal(t, 1.0, Clamp01(1.7))
}
