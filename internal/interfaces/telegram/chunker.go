package telegram

import (
	"strings"
	"unicode/utf8"
)

// messageLimit is the Bot API's maximum message length in characters.
const messageLimit = 4096

// Boundary classes tried in order when a reply has to be cut. Every
// separator inside a class has the same byte length.
var cutClasses = []struct {
	seps []string
	width int
}{
	{[]string{"\n\n"}, 2},
	{[]string{"\n"}, 1},
	{[]string{". ", "! ", "? "}, 2},
	{[]string{" "}, 1},
}

// chunkText splits a reply into messages Telegram will accept. Replies
// come from operator-edited templates, so length is not under the
// gateway's control. Cuts prefer paragraph, line and sentence
// boundaries and never land inside a UTF-8 sequence.
func chunkText(text string) []string {
	if utf8.RuneCountInString(text) <= messageLimit {
		return []string{text}
	}

	var chunks []string
	remaining := text
	for utf8.RuneCountInString(remaining) > messageLimit {
		window := string([]rune(remaining)[:messageLimit])
		cut := splitPoint(window)
		chunks = append(chunks, strings.TrimSpace(remaining[:cut]))
		remaining = strings.TrimSpace(remaining[cut:])
	}
	if remaining != "" {
		chunks = append(chunks, remaining)
	}
	return chunks
}

// splitPoint returns the byte offset to cut the window at. A boundary
// only wins when it sits past the window's midpoint; a tiny first
// chunk reads worse than an ugly cut. Falls back to the full window.
func splitPoint(window string) int {
	for _, class := range cutClasses {
		best := -1
		for _, sep := range class.seps {
			if idx := strings.LastIndex(window, sep); idx > best {
				best = idx
			}
		}
		if best >= len(window)/2 {
			return best + class.width
		}
	}
	return len(window)
}
