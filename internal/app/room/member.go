/*
Package room owns the local view of a single chat room: the online roster and
the append-only message log.

The Reconciler applies decoded protocol operations to that state in arrival
order and answers the display queries a renderer needs (sender avatars and
image classification). It performs no I/O and is not safe for concurrent use;
callers serialize access.
*/
package room

import "strings"

const (
	// DefaultAvatarBase is the avatar service prefix used when none is configured.
	DefaultAvatarBase = "https://avatars.dicebear.com/api/adventurer-neutral"

	// FallbackName is the avatar identity used for senders missing from the roster.
	FallbackName = "unknown"

	// imageSuffix marks a message body the renderer should display as an image.
	imageSuffix = ".gif"
)

// Member is one online user.
type Member struct {
	// Name is the unique key of the member within the roster.
	Name string `json:"name"`

	// Avatar is derived from Name on every roster replacement.
	Avatar string `json:"avatar"`
}

// ChatEntry is one message in the log. Entries are never mutated once appended.
type ChatEntry struct {
	Sender string `json:"sender"`
	Body   string `json:"body"`
}

// IsImage reports whether the body should be displayed as an image.
// Only the exact trailing characters ".gif" qualify.
func (e ChatEntry) IsImage() bool {
	return strings.HasSuffix(e.Body, imageSuffix)
}

// Snapshot is a read-only copy of the room state handed to renderers.
type Snapshot struct {
	Roster []Member    `json:"roster"`
	Log    []ChatEntry `json:"log"`

	// AvatarBase is the prefix the roster avatars were derived under.
	AvatarBase string `json:"-"`
}

// AvatarLookup returns a resolver that answers from this snapshot's roster
// only, so every avatar in one rendering comes from the same roster version.
func (s Snapshot) AvatarLookup() func(sender string) string {
	avatars := make(map[string]string, len(s.Roster))
	for _, m := range s.Roster {
		avatars[m.Name] = m.Avatar
	}
	fallback := FallbackAvatarURL(s.AvatarBase)

	return func(sender string) string {
		if avatar, ok := avatars[sender]; ok {
			return avatar
		}
		return fallback
	}
}

// AvatarURL derives the avatar for name under the avatar service base.
func AvatarURL(base, name string) string {
	return strings.TrimRight(base, "/") + "/" + name + ".svg"
}

// FallbackAvatarURL is the constant avatar shown for unresolved senders.
func FallbackAvatarURL(base string) string {
	return AvatarURL(base, FallbackName)
}
