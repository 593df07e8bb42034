package formatting

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrParseFailed is returned when a model reply holds no JSON value that
// decodes into the target.
var ErrParseFailed = errors.New("failed to parse response")

// maxQuoted caps how much of an unparseable reply is echoed in the error.
const maxQuoted = 200

var jsonBlockRegex = regexp.MustCompile(`(?s)` + "```" + `(?:json)?\s*\n?(.*?)\n?` + "```")

// Parse decodes a model reply into T. Models do not reliably answer with
// bare JSON, so three readings are tried in order: the whole reply, the
// first markdown code fence, and the span from the first '{' to the last
// '}' for objects embedded in prose.
func Parse[T any](content string) (T, error) {
	var result T
	content = strings.TrimSpace(content)

	for _, candidate := range candidates(content) {
		var attempt T
		if err := json.Unmarshal([]byte(candidate), &attempt); err == nil {
			return attempt, nil
		}
	}

	return result, fmt.Errorf("%w: %q", ErrParseFailed, quote(content))
}

func candidates(content string) []string {
	out := []string{content}

	if m := jsonBlockRegex.FindStringSubmatch(content); len(m) >= 2 {
		out = append(out, strings.TrimSpace(m[1]))
	}

	start := strings.IndexByte(content, '{')
	end := strings.LastIndexByte(content, '}')
	if start >= 0 && end > start {
		out = append(out, content[start:end+1])
	}

	return out
}

func quote(content string) string {
	if len(content) <= maxQuoted {
		return content
	}
	return content[:maxQuoted] + "..."
}
