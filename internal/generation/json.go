package generation

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ParseModelJSON decodes a model reply into v, tolerating a surrounding markdown code
// fence with or without a language tag.
func ParseModelJSON(text string, v any) error {
	body := stripFence(text)
	if body == "" {
		return fmt.Errorf("parse model json: empty reply")
	}
	if err := json.Unmarshal([]byte(body), v); err != nil {
		return fmt.Errorf("parse model json: %w", err)
	}
	return nil
}

func stripFence(text string) string {
	s := strings.TrimSpace(text)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if len(s) >= 4 && strings.EqualFold(s[:4], "json") {
		s = s[4:]
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
