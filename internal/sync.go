package internal

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"
)

// SyncResult summarizes one completed cycle: replica sizes, the merged
// corpus size, the net delta against the previously published corpus,
// and what the cycle did with the outcome.
type SyncResult struct {
	LocalCount   int
	RemoteCount  int
	MergedCount  int
	Delta        int
	SkippedLines int
	SnapshotPath string
	Archived     bool
	Published    bool
	CommitHash   string
	Preview      string
}

// CommitMessage is the machine-parseable audit record for a publish.
func (r SyncResult) CommitMessage() string {
	return fmt.Sprintf("sync: local=%d remote=%d merged=%d delta=%+d",
		r.LocalCount, r.RemoteCount, r.MergedCount, r.Delta)
}

// Syncer runs one end-to-end synchronization cycle: lock, validate, load
// both replicas, merge, persist, archive, publish, unlock. It is the only
// component with side effects beyond pure computation.
type Syncer struct {
	scope   Scope
	cfg     *Config
	vcs     VersionControlClient
	locks   *LockManager
	clock   func() time.Time
	verbose bool
}

func NewSyncer(scope Scope, cfg *Config, vcs VersionControlClient, locks *LockManager, clock func() time.Time) *Syncer {
	if locks == nil {
		locks = NewLockManager(nil)
	}
	if clock == nil {
		clock = time.Now
	}
	return &Syncer{
		scope: scope,
		cfg:   cfg,
		vcs:   vcs,
		locks: locks,
		clock: clock,
	}
}

// SetVerbose enables the line-level change preview on publish.
func (s *Syncer) SetVerbose(v bool) { s.verbose = v }

// Run executes the cycle. The lock is released on every exit path; only
// precondition failures, lock contention, and publish failures are fatal.
func (s *Syncer) Run(ctx context.Context) (*SyncResult, error) {
	handle, err := s.locks.Acquire(s.scope.LockPath())
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := s.locks.Release(handle); err != nil {
			slog.Warn("release lock", "err", err)
		}
	}()

	local, err := s.validateEnvironment(ctx)
	if err != nil {
		return nil, err
	}

	s.ensureRemoteWorkingCopy(ctx)

	remote, skipped, err := ReadLines(s.scope.CorpusPath())
	if err != nil {
		return nil, fmt.Errorf("load remote replica: %w", err)
	}
	slog.Debug("loaded replicas", "local", len(local), "remote", len(remote), "skipped", skipped)

	merged := Merge([]Replica{
		{Name: "local", Entries: local},
		{Name: "remote", Entries: remote},
	})

	result := &SyncResult{
		LocalCount:   len(local),
		RemoteCount:  len(remote),
		MergedCount:  len(merged),
		Delta:        len(merged) - len(remote),
		SkippedLines: skipped,
	}

	if err := WriteDocument(s.scope.CachePath(), merged); err != nil {
		return nil, fmt.Errorf("persist local replica: %w", err)
	}

	oldCorpus, _ := os.ReadFile(s.scope.CorpusPath())
	if err := WriteLines(s.scope.CorpusPath(), merged); err != nil {
		return nil, fmt.Errorf("persist remote replica: %w", err)
	}

	archiver := NewArchiver(s.scope.HistoricalPath(), s.scope.Store, s.clock)
	path, wrote, err := archiver.ArchiveIfNeeded(merged, s.scope.CorpusPath(), s.clock())
	if err != nil {
		return nil, fmt.Errorf("archive snapshot: %w", err)
	}
	result.SnapshotPath = path
	result.Archived = wrote

	if err := s.publishIfChanged(ctx, result, string(oldCorpus)); err != nil {
		return nil, err
	}

	return result, nil
}

// validateEnvironment checks every precondition before any mutation: the
// local store must exist and parse, the remote reference must be
// well-formed, and an existing working copy must open under version
// control. It returns the local replica so the load is not repeated.
func (s *Syncer) validateEnvironment(ctx context.Context) ([]Entry, error) {
	local, err := ReadDocument(s.scope.CachePath())
	if err != nil {
		return nil, err
	}
	if err := ValidateRemote(s.cfg.Remote); err != nil {
		return nil, err
	}
	if _, err := os.Stat(s.scope.RemotePath()); err == nil {
		if err := s.vcs.Open(ctx, s.scope.RemotePath()); err != nil {
			return nil, fmt.Errorf("version control unavailable: %w", err)
		}
	}
	return local, nil
}

// ensureRemoteWorkingCopy clones on first use, otherwise fast-forwards.
// A fast-forward failure is logged and the cycle continues with the
// locally-held working copy: the goal is best-effort convergence. A
// clone failure is also non-fatal; the cycle then merges against an
// empty remote replica and publish surfaces the real problem.
func (s *Syncer) ensureRemoteWorkingCopy(ctx context.Context) {
	dir := s.scope.RemotePath()

	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := s.vcs.Clone(ctx, s.cfg.Remote, dir); err != nil {
			slog.Warn("clone failed, continuing with empty working copy", "remote", s.cfg.Remote, "err", err)
		}
		return
	}

	if err := s.vcs.FastForward(ctx, dir); err != nil {
		slog.Warn("fast-forward failed, continuing with held state", "err", err)
	}
}

// publishIfChanged compares the working tree against its last published
// state; a clean tree ends the cycle without a publish. A push failure
// is fatal and reported.
func (s *Syncer) publishIfChanged(ctx context.Context, result *SyncResult, oldCorpus string) error {
	dir := s.scope.RemotePath()

	changed, err := s.vcs.HasChanges(ctx, dir)
	if err != nil {
		return fmt.Errorf("diff working tree: %w", err)
	}
	if !changed {
		slog.Debug("working tree clean, nothing to publish")
		return nil
	}

	if s.verbose {
		newCorpus, _ := os.ReadFile(s.scope.CorpusPath())
		result.Preview = ChangePreview(oldCorpus, string(newCorpus))
	}

	paths := []string{s.scope.CorpusFile()}
	if _, err := os.Stat(s.scope.HistoricalPath()); err == nil {
		paths = append(paths, HistoricalDir)
	}
	if err := s.vcs.Stage(ctx, dir, paths...); err != nil {
		return fmt.Errorf("stage corpus: %w", err)
	}

	hash, err := s.vcs.Commit(ctx, dir, result.CommitMessage())
	if err != nil {
		return fmt.Errorf("commit corpus: %w", err)
	}
	result.CommitHash = hash

	if err := s.vcs.Push(ctx, dir); err != nil {
		return fmt.Errorf("push corpus: %w", err)
	}

	result.Published = true
	slog.Info("published corpus", "commit", hash, "message", result.CommitMessage())
	return nil
}
