package ai

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		wantKind ErrorKind
		want     string
	}{
		{name: "surrounded by prose", text: `intro text {"score":80} trailing`, want: `{"score":80}`},
		{name: "bare object", text: `{"a":1}`, want: `{"a":1}`},
		{name: "nested braces", text: "Here:\n{\"a\":{\"b\":[1,2]}}\nThanks", want: `{"a":{"b":[1,2]}}`},
		{name: "fenced", text: "```json\n{\"ok\":true}\n```", want: `{"ok":true}`},
		{name: "no braces", text: "I cannot help with that.", wantKind: KindNoJSONFound},
		{name: "empty", text: "", wantKind: KindNoJSONFound},
		{name: "only closing before opening", text: "} then {", wantKind: KindNoJSONFound},
		{name: "not valid json", text: "{not valid json}", wantKind: KindMalformedJSON},
		{name: "two objects", text: `{"a":1} and {"b":2}`, wantKind: KindMalformedJSON},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractJSON(tt.text)
			if tt.wantKind != "" {
				require.Error(t, err)
				assert.Equal(t, tt.wantKind, KindOf(err))
				var ge *GatewayError
				require.True(t, errors.As(err, &ge))
				assert.Equal(t, tt.text, ge.Raw, "raw text is preserved")
				return
			}
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(got))
		})
	}
}

func TestGatewayError(t *testing.T) {
	err := &GatewayError{Kind: KindTransport, Op: "ai.score", StatusCode: 429, Err: EAIRateLimit}
	assert.Equal(t, "ai.score: transport_error (status 429): ai provider rate limit exceeded", err.Error())
	assert.True(t, errors.Is(err, EAIRateLimit))
	assert.True(t, IsKind(err, KindTransport))
	assert.Equal(t, ErrorKind(""), KindOf(errors.New("plain")))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "abc…", Truncate("abcdef", 3))
	// "é" is two bytes; cutting inside it backs off to the rune start.
	assert.Equal(t, "a…", Truncate("aé", 2))
}
