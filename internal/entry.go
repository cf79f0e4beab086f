package internal

import (
	"crypto/sha256"
	"errors"
	"fmt"
)

var (
	ErrStoreMissing    = errors.New("local store not found")
	ErrStoreUnparsable = errors.New("local store not parsable")
	ErrInvalidRemote   = errors.New("invalid remote reference")
	ErrLockHeld        = errors.New("sync lock held by a live process")
)

// EpochTimestamp is the comparison floor for entries carrying no usable
// timestamp anywhere in their metadata.
const EpochTimestamp = "1970-01-01T00:00:00Z"

// Meta carries the CRDT provenance of an entry: which replica wrote it,
// when, and under which composite identity.
type Meta struct {
	Host      string `json:"host,omitempty" yaml:"host,omitempty"`
	Timestamp string `json:"timestamp,omitempty" yaml:"timestamp,omitempty"`
	Version   int    `json:"version,omitempty" yaml:"version,omitempty"`
	UniqueID  string `json:"unique_id,omitempty" yaml:"unique_id,omitempty"`
}

// Entry is one memory record. ID is the logical identity shared by all
// versions of the record across replicas; Meta disambiguates the versions.
type Entry struct {
	ID          string   `json:"id" yaml:"id"`
	Content     string   `json:"content" yaml:"content"`
	Source      string   `json:"source,omitempty" yaml:"source,omitempty"`
	Tags        []string `json:"tags,omitempty" yaml:"tags,omitempty"`
	LastUpdated string   `json:"last_updated,omitempty" yaml:"last_updated,omitempty"`
	CreatedAt   string   `json:"created_at,omitempty" yaml:"created_at,omitempty"`
	Meta        Meta     `json:"meta,omitempty" yaml:"meta,omitempty"`
}

// Replica is one independent view of the corpus, in file order.
type Replica struct {
	Name    string
	Entries []Entry
}

// NormalizedTimestamp returns the first usable timestamp for LWW
// comparison: entry metadata, then the top-level update/create fields,
// then the Unix epoch. ISO-8601 strings compare chronologically under
// plain lexicographic ordering, so the result is directly comparable.
func (e Entry) NormalizedTimestamp() string {
	for _, ts := range []string{e.Meta.Timestamp, e.LastUpdated, e.CreatedAt} {
		if ts != "" {
			return ts
		}
	}
	return EpochTimestamp
}

// LogicalID returns the entry's stable identity, synthesizing a
// content-derived fallback when the record carries none. The fallback is
// stable across loads of the same record, unlike a positional placeholder.
func (e Entry) LogicalID() string {
	if e.ID != "" {
		return e.ID
	}
	sum := sha256.Sum256([]byte(e.Meta.Host + "\x00" + e.Content))
	return fmt.Sprintf("mem-%x", sum[:6])
}

// ComputedUniqueID derives the composite (host, logical id, timestamp)
// key that disambiguates raw records before LWW resolution.
func (e Entry) ComputedUniqueID() string {
	return fmt.Sprintf("%s:%s:%s", e.Meta.Host, e.LogicalID(), e.NormalizedTimestamp())
}

// UniqueID prefers the recorded composite key and falls back to deriving it.
func (e Entry) UniqueID() string {
	if e.Meta.UniqueID != "" {
		return e.Meta.UniqueID
	}
	return e.ComputedUniqueID()
}
