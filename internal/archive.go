package internal

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const SnapshotKind = "daily"

// Snapshot is the provenance envelope plus the full corpus as captured on
// one calendar day. Once written, a snapshot file is never touched again.
type Snapshot struct {
	CapturedAt string  `yaml:"captured_at"`
	Source     string  `yaml:"source"`
	EntryCount int     `yaml:"entry_count"`
	Kind       string  `yaml:"kind"`
	Entries    []Entry `yaml:"entries"`
}

// Archiver writes one immutable dated snapshot of the corpus per day.
type Archiver struct {
	dir   string
	store string
	clock func() time.Time
}

func NewArchiver(dir, store string, clock func() time.Time) *Archiver {
	if clock == nil {
		clock = time.Now
	}
	return &Archiver{dir: dir, store: store, clock: clock}
}

// SnapshotPath is deterministic in the date: one file per calendar day.
func (a *Archiver) SnapshotPath(date time.Time) string {
	name := fmt.Sprintf("%s-%s.yaml", a.store, date.UTC().Format("2006-01-02"))
	return filepath.Join(a.dir, name)
}

// ArchiveIfNeeded writes today's snapshot unless it already exists, in
// which case it is an idempotent no-op. It returns the snapshot path and
// whether a new file was written.
func (a *Archiver) ArchiveIfNeeded(entries []Entry, source string, date time.Time) (string, bool, error) {
	path := a.SnapshotPath(date)

	if _, err := os.Stat(path); err == nil {
		slog.Debug("snapshot already exists", "path", path)
		return path, false, nil
	} else if !os.IsNotExist(err) {
		return path, false, fmt.Errorf("stat snapshot: %w", err)
	}

	snap := Snapshot{
		CapturedAt: a.clock().UTC().Format(time.RFC3339),
		Source:     source,
		EntryCount: len(entries),
		Kind:       SnapshotKind,
		Entries:    entries,
	}

	data, err := yaml.Marshal(snap)
	if err != nil {
		return path, false, fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := writeAtomic(path, data); err != nil {
		return path, false, fmt.Errorf("write snapshot: %w", err)
	}

	slog.Info("wrote historical snapshot", "path", path, "entries", len(entries))
	return path, true, nil
}
