package llm

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var (
	reFencedBlock = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")

	rePyTrue  = regexp.MustCompile(`\bTrue\b`)
	rePyFalse = regexp.MustCompile(`\bFalse\b`)
	rePyNone  = regexp.MustCompile(`\bNone\b`)
)

// ExtractJSONObject recovers the first JSON object embedded in free-form
// model output. The input may carry explanatory prose, a fenced code block,
// Python-flavored literals, and trailing commentary after the object; all of
// that is tolerated. Two phases:
//
//  1. If a fenced block is present, work on its interior; substitute
//     True/False/None with their JSON spellings (word-boundary matched).
//  2. From the first '{', scan with a brace-depth counter and an in-string
//     flag that skips escaped quotes, and parse the balanced substring.
//
// Failure is an ordinary error; callers treat it as a stage failure.
func ExtractJSONObject(text string) (map[string]any, error) {
	if m := reFencedBlock.FindStringSubmatch(text); m != nil {
		text = m[1]
	}
	text = rePyTrue.ReplaceAllString(text, "true")
	text = rePyFalse.ReplaceAllString(text, "false")
	text = rePyNone.ReplaceAllString(text, "null")

	start := strings.IndexByte(text, '{')
	if start < 0 {
		return nil, fmt.Errorf("no JSON object found in response")
	}
	end := -1
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if escaped {
			escaped = false
			continue
		}
		switch c {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					end = i
				}
			}
		}
		if end >= 0 {
			break
		}
	}
	if end < 0 {
		return nil, fmt.Errorf("unbalanced JSON object in response")
	}

	var obj map[string]any
	if err := json.Unmarshal([]byte(text[start:end+1]), &obj); err != nil {
		return nil, fmt.Errorf("decode extracted object: %w", err)
	}
	return obj, nil
}
