package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"nearListener/internal/model"
)

// JsonlStorage appends event records to a JSONL file.
type JsonlStorage struct {
	path string
	mu   sync.Mutex
}

func NewJsonlStorage(path string) *JsonlStorage {
	return &JsonlStorage{path: path}
}

// PutEvents appends a batch of records as JSON lines.
func (s *JsonlStorage) PutEvents(_ context.Context, records []model.EventRecord) error {
	if len(records) == 0 {
		return nil
	}

	dir := filepath.Dir(s.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open output file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	if err := writeLines(writer, records); err != nil {
		return err
	}
	if err := writer.Flush(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}

	return nil
}

// StreamStorage writes event records as JSON lines to w, typically stdout.
type StreamStorage struct {
	w  io.Writer
	mu sync.Mutex
}

func NewStreamStorage(w io.Writer) *StreamStorage {
	return &StreamStorage{w: w}
}

func (s *StreamStorage) PutEvents(_ context.Context, records []model.EventRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return writeLines(s.w, records)
}

func writeLines(w io.Writer, records []model.EventRecord) error {
	for _, record := range records {
		line, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("marshal event record: %w", err)
		}
		line = append(line, '\n')
		if _, err := w.Write(line); err != nil {
			return fmt.Errorf("write event record: %w", err)
		}
	}
	return nil
}
