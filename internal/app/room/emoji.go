package room

// Emojis is the quick-pick palette offered next to the message input.
var Emojis = []string{"😀", "😂", "😍", "👍", "🙏"}

// AppendEmoji returns input with emoji appended, as the picker does.
func AppendEmoji(input, emoji string) string {
	return input + emoji
}

// EmojiAt returns the palette entry at i and whether i is in range.
func EmojiAt(i int) (string, bool) {
	if i < 0 || i >= len(Emojis) {
		return "", false
	}
	return Emojis[i], true
}
