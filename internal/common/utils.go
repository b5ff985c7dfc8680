package common

import (
	"encoding/json"
	"strings"
)

func JSONUnmarshal[T any](data []byte) (T, error) {
	var result T

	err := json.Unmarshal(data, &result)

	return result, err
}

// SplitNames splits a comma separated list, trimming blanks and dropping empties
func SplitNames(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	names := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			names = append(names, p)
		}
	}
	return names
}
