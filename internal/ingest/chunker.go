package ingest

import (
	"fmt"
	"strings"

	"github.com/calia-ai/calia/internal/domain"
)

// Chunker splits documents into bounded, overlapping segments. Cuts are made
// on natural boundaries where possible: paragraph break, then sentence end,
// then word boundary, with a hard character cut as the last resort. The same
// input and parameters always yield the same chunk sequence.
type Chunker struct {
	size    int // maximum chunk length in runes
	overlap int // trailing span shared with the next chunk, in runes
}

// NewChunker creates a chunker. Overlap must be smaller than size.
func NewChunker(size, overlap int) (*Chunker, error) {
	if size <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("chunk overlap must be in [0, %d), got %d", size, overlap)
	}
	return &Chunker{size: size, overlap: overlap}, nil
}

// Split chunks every document in order. Whitespace-only segments are dropped.
func (c *Chunker) Split(docs []domain.Document) []domain.Chunk {
	var chunks []domain.Chunk
	for _, doc := range docs {
		chunks = append(chunks, c.SplitDocument(doc)...)
	}
	return chunks
}

// SplitDocument chunks a single document. Every produced chunk is at most
// the configured size and adjacent chunks share the configured overlap.
func (c *Chunker) SplitDocument(doc domain.Document) []domain.Chunk {
	runes := []rune(doc.Text)

	var chunks []domain.Chunk
	seq := 0
	pos := 0
	for pos < len(runes) {
		end := pos + c.size
		last := end >= len(runes)
		if last {
			end = len(runes)
		}

		cut := end
		if !last {
			cut = c.findCut(runes, pos, end)
		}

		text := strings.TrimSpace(string(runes[pos:cut]))
		if text != "" {
			chunks = append(chunks, domain.Chunk{
				Source: doc.Source,
				Seq:    seq,
				Offset: pos,
				Text:   text,
			})
			seq++
		}

		if cut >= len(runes) {
			break
		}

		next := cut - c.overlap
		if next <= pos {
			// overlap must never stall the scan
			next = pos + 1
		}
		pos = next
	}
	return chunks
}

// findCut picks the cut position in (pos, end]. Natural boundaries are only
// accepted in the second half of the window so chunks stay reasonably full;
// otherwise the cut falls back to the hard window end.
func (c *Chunker) findCut(runes []rune, pos, end int) int {
	floor := pos + c.size/2

	if cut := lastParagraphBreak(runes, floor, end); cut > floor {
		return cut
	}
	if cut := lastSentenceEnd(runes, floor, end); cut > floor {
		return cut
	}
	if cut := lastSpace(runes, floor, end); cut > floor {
		return cut
	}
	return end
}

// lastParagraphBreak returns the position right after the last "\n\n" within
// (floor, end], or 0 if none.
func lastParagraphBreak(runes []rune, floor, end int) int {
	for i := end - 1; i > floor; i-- {
		if runes[i] == '\n' && runes[i-1] == '\n' {
			return i + 1
		}
	}
	return 0
}

// lastSentenceEnd returns the position right after the last sentence
// terminator followed by whitespace within (floor, end], or 0 if none.
func lastSentenceEnd(runes []rune, floor, end int) int {
	for i := end - 1; i > floor; i-- {
		if !isSentenceEnd(runes[i]) {
			continue
		}
		if i+1 >= len(runes) || runes[i+1] == ' ' || runes[i+1] == '\n' || runes[i+1] == '\t' {
			return i + 1
		}
	}
	return 0
}

// lastSpace returns the position of the last whitespace rune within
// (floor, end], or 0 if none.
func lastSpace(runes []rune, floor, end int) int {
	for i := end - 1; i > floor; i-- {
		if runes[i] == ' ' || runes[i] == '\n' || runes[i] == '\t' {
			return i
		}
	}
	return 0
}

func isSentenceEnd(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}
