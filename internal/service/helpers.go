package service

import (
	"html"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

// plainText strips markup and returns the text as typed: the entities the policy
// emits for '&', quotes and brackets are decoded again before storage.
func plainText(policy *bluemonday.Policy, raw string) string {
	return strings.TrimSpace(html.UnescapeString(policy.Sanitize(raw)))
}

// boundedText is plainText with a character limit on the stored value. maxLen <= 0 disables the limit.
func boundedText(policy *bluemonday.Policy, raw, field string, maxLen int) (string, error) {
	clean := plainText(policy, raw)
	if maxLen > 0 && utf8.RuneCountInString(clean) > maxLen {
		return "", invalidInput("%s exceeds %d characters", field, maxLen)
	}
	return clean, nil
}

func clampPageSize(size int) int {
	if size <= 0 {
		return 20
	}
	if size > 100 {
		return 100
	}
	return size
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
