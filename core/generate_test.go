package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare json untouched", `{"a":1}`, `{"a":1}`},
		{"plain fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"json language tag", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"surrounding whitespace", "  ```json\n{\"a\":1}\n```  ", `{"a":1}`},
		{"plain text untouched", "ただのテキスト", "ただのテキスト"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripFences(tt.in))
		})
	}
}

func TestDecodeStructured(t *testing.T) {
	var res ReverseResult
	err := DecodeStructured("```json\n{\"translation\":\"また明日\",\"glossary\":[{\"term\":\"later\",\"meaning\":\"あとで\"}]}\n```", &res)
	require.NoError(t, err)
	assert.Equal(t, "また明日", res.Translation)
	require.Len(t, res.Glossary, 1)
	assert.Equal(t, "later", res.Glossary[0].Term)
}

// A shape mismatch must come back as *ParseError with the raw text attached,
// so callers can degrade instead of failing the turn.
func TestDecodeStructuredParseError(t *testing.T) {
	var res ReverseResult
	err := DecodeStructured("Sorry, I cannot answer in JSON.", &res)
	require.Error(t, err)

	var perr *ParseError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "Sorry, I cannot answer in JSON.", perr.Raw)
	assert.Error(t, perr.Unwrap())
}
