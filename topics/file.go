package topics

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/Seednode/liarbox/games/liar"
	"go.uber.org/zap"
)

// FileStore keeps topics in a single JSON array on disk, rewritten in full on
// every append.
type FileStore struct {
	path string
	mu   sync.Mutex
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: filepath.Clean(path)}
}

func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) List(ctx context.Context) ([]liar.Topic, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.read()
}

func (s *FileStore) read() ([]liar.Topic, error) {
	data, err := os.ReadFile(s.path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return []liar.Topic{}, nil
	case err != nil:
		return nil, fmt.Errorf("read topics: %w", err)
	}

	topics := []liar.Topic{}
	if len(bytes.TrimSpace(data)) == 0 {
		return topics, nil
	}

	if err := json.Unmarshal(data, &topics); err != nil {
		return nil, fmt.Errorf("parse topics file %s: %w", s.path, err)
	}

	return topics, nil
}

func (s *FileStore) Append(ctx context.Context, question, numberRange string) error {
	topic, err := liar.NewTopic(question, numberRange)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	topics, err := s.read()
	if err != nil {
		return err
	}

	topics = append(topics, topic)

	if err := s.write(topics); err != nil {
		return err
	}

	zap.L().Debug("stored topic",
		zap.String("path", s.path),
		zap.Int("count", len(topics)),
	)

	return nil
}

// write replaces the file via a temp file and rename, so readers never see a
// partial list.
func (s *FileStore) write(topics []liar.Topic) error {
	var buf bytes.Buffer

	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(topics); err != nil {
		return fmt.Errorf("encode topics: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), "."+filepath.Base(s.path)+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		_ = os.Remove(tmp.Name())
	}()

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write topics: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync topics: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close topics: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace topics file: %w", err)
	}

	return nil
}

func (s *FileStore) Close() error {
	return nil
}
