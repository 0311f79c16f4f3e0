package ingest

import (
	"strings"
	"unicode"
)

const (
	// DefaultChunkSize is the maximum chunk length in runes.
	DefaultChunkSize = 1000

	// DefaultChunkOverlap is how many runes consecutive chunks share, so
	// statements near a cut survive in at least one chunk intact.
	DefaultChunkOverlap = 200
)

// SplitText cuts document text into chunks of at most size runes, each
// overlapping the previous one by roughly overlap runes. Cuts prefer
// whitespace near the end of the window so words stay whole. Blank input
// yields no chunks.
func SplitText(text string, size, overlap int) []string {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 || overlap >= size {
		overlap = size / 5
	}

	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}

	runes := []rune(trimmed)
	if len(runes) <= size {
		return []string{trimmed}
	}

	var chunks []string
	start := 0
	for start < len(runes) {
		end := start + size
		if end >= len(runes) {
			if chunk := strings.TrimSpace(string(runes[start:])); chunk != "" {
				chunks = append(chunks, chunk)
			}
			break
		}

		// Back up to whitespace, but never shrink below half a window.
		cut := end
		for cut > start+size/2 && !unicode.IsSpace(runes[cut-1]) {
			cut--
		}
		if cut <= start+size/2 {
			cut = end
		}

		if chunk := strings.TrimSpace(string(runes[start:cut])); chunk != "" {
			chunks = append(chunks, chunk)
		}

		next := cut - overlap
		if next <= start {
			// Overlap must not stall the walk.
			next = cut
		}
		start = next
	}

	return chunks
}
