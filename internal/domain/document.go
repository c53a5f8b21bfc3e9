package domain

import (
	"fmt"
	"strings"
	"time"
)

// Format identifies the source file type a document was parsed from.
type Format string

// Supported source formats.
const (
	FormatPDF  Format = "pdf"
	FormatText Format = "txt"
	FormatMD   Format = "md"
	FormatDocx Format = "docx"
)

// FormatFromExt maps a file extension (with or without leading dot) to a
// Format. Returns false for unsupported extensions.
func FormatFromExt(ext string) (Format, bool) {
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "pdf":
		return FormatPDF, true
	case "txt":
		return FormatText, true
	case "md":
		return FormatMD, true
	case "docx":
		return FormatDocx, true
	}
	return "", false
}

// Document is a raw text unit produced by the corpus loader. Immutable;
// consumed once by the chunker and not retained afterwards.
type Document struct {
	Source string // originating file path
	Format Format
	Text   string
}

// Chunk is a bounded text segment cut from a document, with provenance.
type Chunk struct {
	Source string // originating document source
	Seq    int    // position within the source, 0-based
	Offset int    // rune offset of the chunk start within the document text
	Text   string
}

// ID returns the chunk identity used by the index: source + sequence number.
func (c Chunk) ID() string { return fmt.Sprintf("%s#%d", c.Source, c.Seq) }

// ScoredChunk is a retrieval hit. Scores are cosine similarities and arrive
// in non-increasing order.
type ScoredChunk struct {
	Chunk Chunk
	Score float64
}

// Role is the speaker of a conversation turn.
type Role string

// Conversation roles.
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid reports whether the role is one of the known speakers.
func (r Role) Valid() bool { return r == RoleUser || r == RoleAssistant }

// Turn is a single message in a conversation.
type Turn struct {
	Role Role
	Text string
	At   time.Time
}

// Transcript is the ordered record of a conversation's turns.
type Transcript []Turn
