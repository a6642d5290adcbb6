package channels

import "unicode/utf8"

// MaxMessageLen is Telegram's hard limit on message text length, counted in
// characters.
const MaxMessageLen = 4096

// SplitMessage splits text into chunks of at most limit characters, filled to
// the limit. Splitting counts runes, not bytes, so a chunk boundary never
// lands inside a multibyte character. Concatenating the chunks reproduces the
// input exactly; an empty input yields a single empty chunk so the caller
// still sends something.
func SplitMessage(text string, limit int) []string {
	if limit <= 0 {
		limit = MaxMessageLen
	}
	if utf8.RuneCountInString(text) <= limit {
		return []string{text}
	}

	runes := []rune(text)
	chunks := make([]string, 0, len(runes)/limit+1)
	for len(runes) > limit {
		chunks = append(chunks, string(runes[:limit]))
		runes = runes[limit:]
	}
	return append(chunks, string(runes))
}
