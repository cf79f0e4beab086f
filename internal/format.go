package internal

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Document is the whole-file encoding of the corpus: one YAML document
// holding the full ordered list, optimized for diffing and review.
type Document struct {
	Entries []Entry `yaml:"entries"`
}

// ReadDocument loads the document-encoded corpus. A missing file is
// ErrStoreMissing; an unparsable one is ErrStoreUnparsable.
func ReadDocument(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrStoreMissing, path)
	}
	if err != nil {
		return nil, fmt.Errorf("read store: %w", err)
	}

	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrStoreUnparsable, path, err)
	}

	return doc.Entries, nil
}

// WriteDocument regenerates the document file from the in-memory corpus.
// The write is atomic so readers never observe a partial file.
func WriteDocument(path string, entries []Entry) error {
	data, err := yaml.Marshal(Document{Entries: entries})
	if err != nil {
		return fmt.Errorf("marshal store: %w", err)
	}
	return writeAtomic(path, data)
}

// ReadLines loads the line-delimited corpus, one JSON record per line.
// The reader is total: unparsable lines are counted and skipped, never
// fatal, so a single corrupt record cannot take down the whole load.
// It returns the valid entries and the number of lines skipped.
func ReadLines(path string) ([]Entry, int, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, 0, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("open corpus: %w", err)
	}
	defer f.Close()

	var (
		entries []Entry
		skipped int
		lineNo  int
	)

	// bufio.Reader instead of a Scanner: ReadBytes has no token-size cap,
	// so one oversized line cannot abort the load and lose the rest.
	reader := bufio.NewReader(f)
	for {
		line, readErr := reader.ReadBytes('\n')
		if trimmed := bytes.TrimSpace(line); len(trimmed) > 0 {
			lineNo++
			var entry Entry
			if err := json.Unmarshal(trimmed, &entry); err != nil {
				skipped++
				slog.Warn("skipping unparsable corpus line", "path", path, "line", lineNo, "err", err)
			} else {
				entries = append(entries, entry)
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return nil, skipped, fmt.Errorf("read corpus: %w", readErr)
		}
	}

	return entries, skipped, nil
}

// WriteLines regenerates the line-delimited file from the in-memory
// corpus, one record per line, atomically. There is no append path: a
// write always leaves the file fully self-consistent.
func WriteLines(path string, entries []Entry) error {
	var buf bytes.Buffer
	for _, entry := range entries {
		line, err := json.Marshal(entry)
		if err != nil {
			return fmt.Errorf("marshal entry %s: %w", entry.LogicalID(), err)
		}
		buf.Write(line)
		buf.WriteByte('\n')
	}
	return writeAtomic(path, buf.Bytes())
}

func writeAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("atomic rename %s: %w", path, err)
	}
	return nil
}
