package notes

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Note is a single user-curated memory record. Notes live outside the vector
// index on purpose: they answer "what did I write down", not "what is
// semantically close".
type Note struct {
	Text string    `json:"text"`
	At   time.Time `json:"at"`
}

// Log is an append-only note log persisted as a single JSON file. Every
// append rewrites the file through a staging copy and an atomic rename.
type Log struct {
	path   string
	logger *zap.Logger

	mu sync.Mutex
}

// NewLog creates a note log at path. The file is created lazily on the
// first append.
func NewLog(path string, logger *zap.Logger) *Log {
	return &Log{path: path, logger: logger}
}

// List returns all notes in insertion order. An absent file yields an empty
// list.
func (l *Log) List() ([]Note, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.load()
}

// Append adds a note stamped with the current time and persists the log.
func (l *Log) Append(text string) (Note, error) {
	if strings.TrimSpace(text) == "" {
		return Note{}, fmt.Errorf("note text is empty")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	all, err := l.load()
	if err != nil {
		return Note{}, err
	}

	note := Note{Text: text, At: time.Now().UTC()}
	all = append(all, note)

	if err := l.persist(all); err != nil {
		return Note{}, err
	}

	l.logger.Info("Note appended", zap.Int("total", len(all)))
	return note, nil
}

func (l *Log) load() ([]Note, error) {
	data, err := os.ReadFile(l.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read notes %s: %w", l.path, err)
	}

	var all []Note
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, fmt.Errorf("parse notes %s: %w", l.path, err)
	}
	return all, nil
}

func (l *Log) persist(all []Note) error {
	dir := filepath.Dir(l.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create notes dir %s: %w", dir, err)
	}

	data, err := json.MarshalIndent(all, "", "  ")
	if err != nil {
		return fmt.Errorf("encode notes: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".notes-*")
	if err != nil {
		return fmt.Errorf("create staging file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write notes: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close notes: %w", err)
	}

	if err := os.Rename(tmp.Name(), l.path); err != nil {
		return fmt.Errorf("swap notes file: %w", err)
	}
	return nil
}
