package llm

import (
	"regexp"
	"strings"
)

var fencedBlock = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")

// ExtractJSON returns the first JSON object or array embedded in a model
// reply. Models wrap JSON in fenced code blocks or surround it with prose;
// this peels the wrapping off without being strict about what else the
// reply contains. The boolean is false when no candidate was found.
func ExtractJSON(reply string) (string, bool) {
	if m := fencedBlock.FindStringSubmatch(reply); m != nil {
		candidate := strings.TrimSpace(m[1])
		if strings.HasPrefix(candidate, "{") || strings.HasPrefix(candidate, "[") {
			return candidate, true
		}
	}

	for i, r := range reply {
		if r == '{' || r == '[' {
			if span := balancedSpan(reply[i:]); span != "" {
				return span, true
			}
		}
	}

	return "", false
}

// balancedSpan returns the prefix of s that forms a balanced JSON value,
// or "" when the brackets never close. The scan is quote-aware so braces
// inside string literals do not confuse the depth count.
func balancedSpan(s string) string {
	depth := 0
	inString := false
	escaped := false

	for i, r := range s {
		if inString {
			switch {
			case escaped:
				escaped = false
			case r == '\\':
				escaped = true
			case r == '"':
				inString = false
			}
			continue
		}

		switch r {
		case '"':
			inString = true
		case '{', '[':
			depth++
		case '}', ']':
			depth--
			if depth == 0 {
				return s[:i+1]
			}
			if depth < 0 {
				return ""
			}
		}
	}

	return ""
}
