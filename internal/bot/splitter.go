package bot

import "strings"

// MessageCharLimit is the platform ceiling on message length.
const MessageCharLimit = 2000

// SplitMessage breaks content into chunks that fit the platform message
// limit, preferring line boundaries. The prefix is prepended to the first
// chunk only and counts against its budget. Lines longer than a whole chunk
// are hard-split.
func SplitMessage(prefix, content string, limit int) []string {
	if limit <= 0 {
		limit = MessageCharLimit
	}
	prefixLen := len([]rune(prefix))
	if prefixLen >= limit {
		// No room for content behind the prefix; post it on its own line.
		return append([]string{prefix}, SplitMessage("", content, limit)...)
	}

	capacityFor := func(chunkIndex int) int {
		if chunkIndex == 0 {
			return limit - prefixLen
		}
		return limit
	}

	var chunks []string
	var current []rune

	flush := func() {
		chunks = append(chunks, string(current))
		current = nil
	}

	for _, line := range strings.Split(content, "\n") {
		runes := []rune(line)
		for {
			capacity := capacityFor(len(chunks))
			need := len(runes)
			if len(current) > 0 {
				need++ // newline separator
			}
			if len(current)+need <= capacity {
				if len(current) > 0 {
					current = append(current, '\n')
				}
				current = append(current, runes...)
				break
			}
			if len(current) == 0 {
				current = append(current, runes[:capacity]...)
				runes = runes[capacity:]
			}
			flush()
		}
	}
	if len(current) > 0 || len(chunks) == 0 {
		flush()
	}
	chunks[0] = prefix + chunks[0]
	return chunks
}
