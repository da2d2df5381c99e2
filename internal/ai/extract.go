package ai

import (
	"encoding/json"
	"regexp"
	"strings"
)

// jsonObjectRe grabs the outermost {...} span of a model reply that wrapped
// its JSON in prose or markdown fences.
var jsonObjectRe = regexp.MustCompile(`(?s)\{.*\}`)

// decodeModelJSON unmarshals a JSON object from model output into v. It
// tries the whole content first and then the outermost brace span.
// Returns false if neither parses.
func decodeModelJSON(content string, v any) bool {
	content = strings.TrimSpace(content)
	if content == "" {
		return false
	}
	if json.Unmarshal([]byte(content), v) == nil {
		return true
	}
	match := jsonObjectRe.FindString(content)
	if match == "" {
		return false
	}
	return json.Unmarshal([]byte(match), v) == nil
}
