package narrative

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/atalahmeh-tc/zabbix-ai-alert-predictor/internal/models"
)

// ErrNoJSON means the model reply contained no recognisable JSON object.
var ErrNoJSON = errors.New("no JSON object in model response")

// ParseNarrative repairs and parses a raw model reply. Repair steps: strip
// code fences, extract the first balanced top-level {...} block, and retry
// with quote characters normalised. Anything still unparsable is an error.
func ParseNarrative(raw string) (*models.Narrative, error) {
	block, ok := extractJSONBlock(stripCodeFences(raw))
	if !ok {
		return nil, ErrNoJSON
	}

	var narr models.Narrative
	if err := json.Unmarshal([]byte(block), &narr); err == nil {
		return &narr, nil
	}

	repaired := normaliseQuotes(block)
	if err := json.Unmarshal([]byte(repaired), &narr); err != nil {
		return nil, fmt.Errorf("unmarshal narrative: %w", err)
	}
	return &narr, nil
}

func stripCodeFences(s string) string {
	s = strings.ReplaceAll(s, "```json", "")
	return strings.ReplaceAll(s, "```", "")
}

// extractJSONBlock returns the first balanced top-level brace block.
func extractJSONBlock(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		ch := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

var quoteNormaliser = strings.NewReplacer(
	"'", `"`,
	"“", `"`,
	"”", `"`,
	"‘", `"`,
	"’", `"`,
)

func normaliseQuotes(s string) string {
	return quoteNormaliser.Replace(s)
}
