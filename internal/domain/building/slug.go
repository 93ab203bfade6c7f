package building

import (
	"regexp"
	"strings"
)

var (
	slugDisallowed = regexp.MustCompile(`[^a-z0-9-]`)
	slugDashes     = regexp.MustCompile(`-{2,}`)
)

// Slugify derives a URL key from a display name:
// lowercase, spaces to dashes, everything outside [a-z0-9-] dropped,
// repeated dashes collapsed, leading and trailing dashes removed.
func Slugify(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = strings.ReplaceAll(s, " ", "-")
	s = slugDisallowed.ReplaceAllString(s, "")
	s = slugDashes.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if len(s) > MaxSlugLength {
		s = strings.TrimRight(s[:MaxSlugLength], "-")
	}
	return s
}
