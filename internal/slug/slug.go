// Package slug derives human-readable unique record identifiers from article
// titles.
package slug

import (
	"strings"

	"github.com/google/uuid"
)

const maxBaseLen = 60

// Assign derives a slug from a title: lowercase ASCII with non-alphanumeric
// runs collapsed to single hyphens, length-capped, plus a short random suffix.
// Uniqueness is ultimately the store's call; on a duplicate the caller invokes
// Assign again for a fresh suffix.
func Assign(title string) string {
	base := Slugify(title)
	if base == "" {
		base = "untitled"
	}
	return base + "-" + suffix()
}

// Slugify returns the hyphenated ASCII form of a title without a suffix.
func Slugify(title string) string {
	var b strings.Builder
	lastHyphen := true // suppress a leading hyphen
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
		if b.Len() >= maxBaseLen {
			break
		}
	}
	return strings.Trim(b.String(), "-")
}

// suffix returns 8 hex characters of fresh randomness per call, so collision
// retries always produce a new candidate.
func suffix() string {
	id := uuid.New()
	return strings.ReplaceAll(id.String(), "-", "")[:8]
}
