package analysis

import "errors"

var (
	errNoJSONObject        = errors.New("no JSON object found in response")
	errMultipleJSONObjects = errors.New("response contains more than one JSON object")
	errUnbalancedJSON      = errors.New("unbalanced braces in response")
)

// extractJSONObject returns the single top-level {...} span in text. Braces
// inside JSON strings are ignored. Prose around the object is allowed, but a
// second top-level object makes the response ambiguous and is rejected.
func extractJSONObject(text string) (string, error) {
	var (
		depth    int
		start    = -1
		inString bool
		escaped  bool
		found    string
		count    int
	)
	for i := 0; i < len(text); i++ {
		ch := text[i]
		if depth == 0 {
			if ch == '{' {
				if count > 0 {
					return "", errMultipleJSONObjects
				}
				start = i
				depth = 1
			}
			continue
		}
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
				found = text[start : i+1]
				count++
			}
		}
	}
	if depth != 0 {
		return "", errUnbalancedJSON
	}
	if count == 0 {
		return "", errNoJSONObject
	}
	return found, nil
}
