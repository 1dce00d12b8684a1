/*
Package identity supplies the local user's name for the room registration.
*/
package identity

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"chatview/internal/pkg/randx"
)

// MaxNameRunes is the longest name announced to the room.
const MaxNameRunes = 24

// maxSanitizePasses bounds how many layers of entity encoding are peeled.
const maxSanitizePasses = 5

var namePolicy = bluemonday.StrictPolicy()

// Sanitize strips markup and surrounding whitespace from name and limits it to
// MaxNameRunes runes. The result may be empty.
//
// Entity-encoded markup is decoded and stripped again until the name stops
// changing, so no layer of encoding survives as live markup.
func Sanitize(name string) string {
	cleaned := name
	stable := false

	for pass := 0; pass < maxSanitizePasses; pass++ {
		// StrictPolicy re-escapes entities, so unescape after stripping tags.
		next := html.UnescapeString(namePolicy.Sanitize(html.UnescapeString(cleaned)))
		if next == cleaned {
			stable = true
			break
		}
		cleaned = next
	}

	if !stable {
		// Still decoding into new markup; keep the escaped form.
		cleaned = namePolicy.Sanitize(cleaned)
	}

	cleaned = strings.TrimSpace(cleaned)

	if runes := []rune(cleaned); len(runes) > MaxNameRunes {
		cleaned = strings.TrimSpace(string(runes[:MaxNameRunes]))
	}

	return cleaned
}

// Resolve returns the sanitized configured name, or a generated nickname when
// nothing usable was configured.
func Resolve(configured string) (string, error) {
	if name := Sanitize(configured); name != "" {
		return name, nil
	}
	return randx.UserNickname()
}
