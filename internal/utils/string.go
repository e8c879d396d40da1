package utils

import (
	"strings"
)

// SplitCommaList splits "1, 2,,3" into ["1" "2" "3"].
func SplitCommaList(str string) []string {
	result := []string{}
	for _, part := range strings.Split(str, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			result = append(result, part)
		}
	}
	return result
}

func FirstNotEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
