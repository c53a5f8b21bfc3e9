package archive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/calia-ai/calia/internal/domain"
)

// Indexer appends an archived session to the vector index.
type Indexer interface {
	Append(ctx context.Context, doc domain.Document) (int, error)
}

// Service persists session transcripts into the corpus directory and
// feeds them back into the index so later questions can recall them.
type Service struct {
	corpusDir string
	indexer   Indexer
	logger    *zap.Logger
	now       func() time.Time
}

// New creates an archive service.
func New(corpusDir string, indexer Indexer, logger *zap.Logger) *Service {
	return &Service{corpusDir: corpusDir, indexer: indexer, logger: logger, now: time.Now}
}

// Archive writes the transcript as a session file and appends it to the
// index. An empty transcript is a logged no-op returning "". The file
// survives even when the index append fails.
func (s *Service) Archive(ctx context.Context, transcript domain.Transcript) (string, error) {
	if len(transcript) == 0 {
		s.logger.Info("empty transcript, nothing to archive")
		return "", nil
	}

	text := render(transcript)
	name := fmt.Sprintf("session_%s.txt", s.now().Format("20060102_150405"))
	path := filepath.Join(s.corpusDir, name)

	if err := os.MkdirAll(s.corpusDir, 0o755); err != nil {
		return "", fmt.Errorf("create corpus dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return "", fmt.Errorf("write session file: %w", err)
	}

	s.logger.Info("transcript archived",
		zap.String("path", path),
		zap.Int("turns", len(transcript)))

	doc := domain.Document{Source: name, Format: domain.FormatText, Text: text}
	if _, err := s.indexer.Append(ctx, doc); err != nil {
		return path, fmt.Errorf("index archived session: %w", err)
	}

	return path, nil
}

func render(transcript domain.Transcript) string {
	var b strings.Builder
	for _, turn := range transcript {
		b.WriteString(strings.ToUpper(string(turn.Role)))
		b.WriteString(": ")
		b.WriteString(turn.Text)
		b.WriteString("\n")
	}
	return b.String()
}
