package internal

import (
	"os"
	"path/filepath"
)

const (
	DefaultStoreName = "memories"
	HistoricalDir    = "historical"
)

// Scope derives every path a sync cycle touches from a store root and a
// store name. The name also scopes the lock, so independent stores under
// one root never contend with each other.
type Scope struct {
	Root  string
	Store string
}

// CachePath is the local replica: the document-encoded corpus.
func (s Scope) CachePath() string {
	return filepath.Join(s.Root, s.Store+".yaml")
}

// LockPath is the per-(host, store) mutual-exclusion marker.
func (s Scope) LockPath() string {
	return filepath.Join(s.Root, s.Store+".lock")
}

// RemotePath is where the remote working copy is cloned.
func (s Scope) RemotePath() string {
	return filepath.Join(s.Root, "remote")
}

// CorpusPath is the line-delimited corpus inside the remote working copy.
func (s Scope) CorpusPath() string {
	return filepath.Join(s.RemotePath(), s.Store+".jsonl")
}

// CorpusFile is CorpusPath relative to the working-copy root, the form
// the version-control client stages.
func (s Scope) CorpusFile() string {
	return s.Store + ".jsonl"
}

// HistoricalPath is the dated-snapshot directory inside the working copy.
func (s Scope) HistoricalPath() string {
	return filepath.Join(s.RemotePath(), HistoricalDir)
}

func (s Scope) ConfigPath() string {
	return filepath.Join(s.Root, "config.yaml")
}

type ScopeResolver struct {
	homeDir string
}

func NewScopeResolver() *ScopeResolver {
	home, _ := os.UserHomeDir()
	return &ScopeResolver{homeDir: home}
}

// Resolve returns the scope for an optional store-name override. The
// empty override selects the default store.
func (r *ScopeResolver) Resolve(store string) Scope {
	if store == "" {
		store = DefaultStoreName
	}
	return Scope{
		Root:  filepath.Join(r.homeDir, ".memsync"),
		Store: store,
	}
}
