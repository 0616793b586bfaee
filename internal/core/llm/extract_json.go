package llm

import (
	"encoding/json"
	"strings"
)

// ExtractJSON tries to pull a JSON document out of a model response that may
// be wrapped in prose or markdown fences. An array is preferred over an
// object since batch responses are arrays. When no valid JSON can be found,
// the input is returned unchanged and the caller's parse fails normally.
func ExtractJSON(text string) string {
	if candidate, ok := scan(text, '[', ']'); ok {
		return candidate
	}

	if candidate, ok := scan(text, '{', '}'); ok {
		return candidate
	}

	return text
}

func scan(text string, open, closeByte byte) (string, bool) {
	start := strings.IndexByte(text, open)
	end := strings.LastIndexByte(text, closeByte)

	if start == -1 || end == -1 || end <= start {
		return "", false
	}

	candidate := text[start : end+1]
	if !json.Valid([]byte(candidate)) {
		return "", false
	}

	return candidate, true
}
