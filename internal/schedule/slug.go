package schedule

import (
	"regexp"
	"strings"
)

var whitespaceRun = regexp.MustCompile(`[\s\p{Z}]+`)

// Slugify lowercases a show title and collapses whitespace runs into single hyphens.
// Distinct titles may share a slug; it is an anchor id, not a key.
func Slugify(title string) string {
	return whitespaceRun.ReplaceAllString(strings.ToLower(title), "-")
}
