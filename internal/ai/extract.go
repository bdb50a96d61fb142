package ai

import (
	"encoding/json"
	"errors"
	"strings"
)

// ExtractJSON pulls the JSON object out of a completion that may be wrapped
// in prose. The span runs from the first '{' to the last '}' in the text.
// The object is returned as-is; shape checks belong to the Decode functions.
func ExtractJSON(text string) (json.RawMessage, error) {
	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start < 0 || end < start {
		return nil, &GatewayError{Kind: KindNoJSONFound, Raw: text, Err: errors.New("no JSON object in completion")}
	}

	span := []byte(text[start : end+1])
	var parsed any
	if err := json.Unmarshal(span, &parsed); err != nil {
		return nil, &GatewayError{Kind: KindMalformedJSON, Raw: text, Err: err}
	}
	return json.RawMessage(span), nil
}
