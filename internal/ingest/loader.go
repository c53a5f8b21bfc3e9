package ingest

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fumiama/go-docx"
	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"

	"github.com/calia-ai/calia/internal/domain"
)

// Loader reads a corpus directory of heterogeneous source files and produces
// documents ready for chunking. Stateless apart from the logger.
type Loader struct {
	logger *zap.Logger
}

// NewLoader creates a corpus loader.
func NewLoader(logger *zap.Logger) *Loader {
	return &Loader{logger: logger}
}

// LoadDir reads every supported file (.pdf, .txt, .md, .docx) in dir.
// An absent directory is created so later writes succeed, and yields an
// empty result. A file that fails to parse is logged and skipped; loading
// continues with the rest.
func (l *Loader) LoadDir(dir string) ([]domain.Document, error) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create corpus dir %s: %w", dir, err)
		}
		l.logger.Info("Corpus directory created", zap.String("dir", dir))
		return nil, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read corpus dir %s: %w", dir, err)
	}

	var docs []domain.Document
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(dir, entry.Name())

		format, ok := domain.FormatFromExt(filepath.Ext(entry.Name()))
		if !ok {
			l.logger.Info("Skipping unsupported file", zap.String("file", entry.Name()))
			continue
		}

		doc, err := l.loadFile(path, format)
		if err != nil {
			l.logger.Warn("Failed to load file, skipping",
				zap.String("file", entry.Name()),
				zap.Error(err),
			)
			continue
		}
		docs = append(docs, doc)
	}

	l.logger.Info("Corpus loaded", zap.String("dir", dir), zap.Int("documents", len(docs)))
	return docs, nil
}

// LoadFile reads a single supported file into a document.
func (l *Loader) LoadFile(path string) (domain.Document, error) {
	format, ok := domain.FormatFromExt(filepath.Ext(path))
	if !ok {
		return domain.Document{}, fmt.Errorf("unsupported file type %s", filepath.Ext(path))
	}
	return l.loadFile(path, format)
}

func (l *Loader) loadFile(path string, format domain.Format) (domain.Document, error) {
	var (
		text string
		err  error
	)
	switch format {
	case domain.FormatPDF:
		text, err = extractPDF(path)
	case domain.FormatDocx:
		text, err = extractDocx(path)
	default: // txt, md
		var data []byte
		data, err = os.ReadFile(path)
		text = string(data)
	}
	if err != nil {
		return domain.Document{}, err
	}

	text = normalizeText(text)
	if strings.TrimSpace(text) == "" {
		return domain.Document{}, fmt.Errorf("no text content in %s", path)
	}

	return domain.Document{Source: path, Format: format, Text: text}, nil
}

func extractPDF(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	plain, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract pdf text: %w", err)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(plain); err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}
	return buf.String(), nil
}

func extractDocx(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open docx: %w", err)
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("stat docx: %w", err)
	}

	doc, err := docx.Parse(f, st.Size())
	if err != nil {
		return "", fmt.Errorf("parse docx: %w", err)
	}

	var sb strings.Builder
	for _, item := range doc.Document.Body.Items {
		switch v := item.(type) {
		case *docx.Paragraph:
			sb.WriteString(v.String())
			sb.WriteString("\n")
		case *docx.Table:
			sb.WriteString(v.String())
			sb.WriteString("\n")
		}
	}
	return sb.String(), nil
}

// normalizeText unifies line endings so chunking is deterministic across
// platforms the files were authored on.
func normalizeText(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}
