package utils

import (
	"encoding/json"
	"strings"
)

// TagsToString converts []string to a JSON string (safe for a text column)
func TagsToString(tags []string) string {
	if len(tags) == 0 {
		return "[]"
	}
	data, _ := json.Marshal(tags)
	return string(data)
}

// StringToTags converts the DB string back to []string
func StringToTags(s string) []string {
	if s == "" || s == "[]" {
		return []string{}
	}
	var tags []string
	if err := json.Unmarshal([]byte(s), &tags); err != nil {
		// Fallback: treat as comma-separated if invalid JSON
		return strings.Split(s, ",")
	}
	return tags
}
