package internal

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeVCS implements VersionControlClient in memory, recording the calls
// the orchestrator makes.
type fakeVCS struct {
	cloned      bool
	fastForward int
	staged      [][]string
	commits     []string
	pushes      int

	remoteEntries []Entry
	changes       bool
	openErr       error
	ffErr         error
	pushErr       error
}

func (f *fakeVCS) Open(ctx context.Context, dir string) error {
	return f.openErr
}

func (f *fakeVCS) Clone(ctx context.Context, url, dir string) error {
	f.cloned = true
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	return WriteLines(filepath.Join(dir, "memories.jsonl"), f.remoteEntries)
}

func (f *fakeVCS) FastForward(ctx context.Context, dir string) error {
	f.fastForward++
	return f.ffErr
}

func (f *fakeVCS) Stage(ctx context.Context, dir string, paths ...string) error {
	f.staged = append(f.staged, paths)
	return nil
}

func (f *fakeVCS) Commit(ctx context.Context, dir, message string) (string, error) {
	f.commits = append(f.commits, message)
	return fmt.Sprintf("deadbeef%02d", len(f.commits)), nil
}

func (f *fakeVCS) Push(ctx context.Context, dir string) error {
	f.pushes++
	return f.pushErr
}

func (f *fakeVCS) HasChanges(ctx context.Context, dir string) (bool, error) {
	return f.changes, nil
}

func setupSyncer(t *testing.T, local, remote []Entry, vcs *fakeVCS) (*Syncer, Scope) {
	t.Helper()

	scope := Scope{Root: t.TempDir(), Store: "memories"}
	require.NoError(t, WriteDocument(scope.CachePath(), local))

	vcs.remoteEntries = remote

	cfg := DefaultConfig()
	cfg.Remote = "https://github.com/alice/memories"

	locks := NewLockManager(fakeProbe{alive: map[int]bool{}})
	syncer := NewSyncer(scope, cfg, vcs, locks, fixedClock("2025-01-21T11:30:00Z"))
	return syncer, scope
}

func TestSyncCycleMergesAndPublishes(t *testing.T) {
	local := []Entry{
		entry("memory_1", "Local", "host-a", "2025-01-21T11:00:00Z"),
		entry("memory_2", "Only local", "host-a", "2025-01-20T09:00:00Z"),
	}
	remote := []Entry{
		entry("memory_1", "Remote", "host-b", "2025-01-21T12:00:00Z"),
	}
	vcs := &fakeVCS{changes: true}

	syncer, scope := setupSyncer(t, local, remote, vcs)

	result, err := syncer.Run(context.Background())
	require.NoError(t, err)

	require.Equal(t, 2, result.LocalCount)
	require.Equal(t, 1, result.RemoteCount)
	require.Equal(t, 2, result.MergedCount)
	require.Equal(t, 1, result.Delta)
	require.True(t, result.Published)
	require.Equal(t, "sync: local=2 remote=1 merged=2 delta=+1", result.CommitMessage())
	require.Equal(t, []string{"sync: local=2 remote=1 merged=2 delta=+1"}, vcs.commits)
	require.Equal(t, 1, vcs.pushes)
	require.True(t, vcs.cloned)

	// both replicas hold the merged corpus, remote entry won the conflict
	cache, err := ReadDocument(scope.CachePath())
	require.NoError(t, err)
	require.Len(t, cache, 2)
	require.Equal(t, "Remote", cache[0].Content)

	corpus, skipped, err := ReadLines(scope.CorpusPath())
	require.NoError(t, err)
	require.Zero(t, skipped)
	require.Len(t, corpus, 2)

	// lock released on the success path
	_, err = NewLockManager(fakeProbe{alive: map[int]bool{}}).Acquire(scope.LockPath())
	require.NoError(t, err)
}

func TestSyncCycleNoChangesNoPublish(t *testing.T) {
	shared := []Entry{entry("k", "v", "h", "2025-01-21T10:00:00Z")}
	vcs := &fakeVCS{changes: false}

	syncer, _ := setupSyncer(t, shared, shared, vcs)

	result, err := syncer.Run(context.Background())
	require.NoError(t, err)
	require.False(t, result.Published)
	require.Empty(t, vcs.commits)
	require.Zero(t, vcs.pushes)
}

func TestSyncCycleFastForwardFailureNonFatal(t *testing.T) {
	vcs := &fakeVCS{changes: false, ffErr: errors.New("diverged")}

	syncer, scope := setupSyncer(t, []Entry{entry("k", "v", "h", "2025-01-21T10:00:00Z")}, nil, vcs)
	require.NoError(t, os.MkdirAll(scope.RemotePath(), 0755))

	_, err := syncer.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, vcs.fastForward)
	require.False(t, vcs.cloned)
}

func TestSyncCyclePushFailureFatalAndReleasesLock(t *testing.T) {
	vcs := &fakeVCS{changes: true, pushErr: errors.New("remote rejected")}

	syncer, scope := setupSyncer(t, []Entry{entry("k", "v", "h", "2025-01-21T10:00:00Z")}, nil, vcs)

	_, err := syncer.Run(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "push")

	_, err = NewLockManager(fakeProbe{alive: map[int]bool{}}).Acquire(scope.LockPath())
	require.NoError(t, err, "lock must be released on the failure path")
}

func TestSyncCycleMissingCacheFailsValidation(t *testing.T) {
	scope := Scope{Root: t.TempDir(), Store: "memories"}
	cfg := DefaultConfig()
	cfg.Remote = "https://github.com/alice/memories"

	locks := NewLockManager(fakeProbe{alive: map[int]bool{}})
	syncer := NewSyncer(scope, cfg, &fakeVCS{}, locks, nil)

	_, err := syncer.Run(context.Background())
	require.True(t, errors.Is(err, ErrStoreMissing), "got %v", err)

	_, err = locks.Acquire(scope.LockPath())
	require.NoError(t, err, "lock must be released after validation failure")
}

func TestSyncCycleInvalidRemoteFailsValidation(t *testing.T) {
	scope := Scope{Root: t.TempDir(), Store: "memories"}
	require.NoError(t, WriteDocument(scope.CachePath(), nil))

	cfg := DefaultConfig()
	cfg.Remote = "http://github.com/alice/memories"

	syncer := NewSyncer(scope, cfg, &fakeVCS{}, NewLockManager(fakeProbe{alive: map[int]bool{}}), nil)

	_, err := syncer.Run(context.Background())
	require.True(t, errors.Is(err, ErrInvalidRemote), "got %v", err)
}

func TestSyncCycleUnopenableWorkingCopyFailsValidation(t *testing.T) {
	local := []Entry{entry("k", "v", "h", "2025-01-21T10:00:00Z")}
	vcs := &fakeVCS{changes: true, openErr: errors.New("not a repository")}

	syncer, scope := setupSyncer(t, local, nil, vcs)
	require.NoError(t, os.MkdirAll(scope.RemotePath(), 0755))

	cacheBefore, err := os.ReadFile(scope.CachePath())
	require.NoError(t, err)

	_, err = syncer.Run(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "version control unavailable")

	// the precondition failure must abort before any mutation
	cacheAfter, err := os.ReadFile(scope.CachePath())
	require.NoError(t, err)
	require.Equal(t, cacheBefore, cacheAfter)
	require.NoFileExists(t, scope.CorpusPath())
	require.Empty(t, vcs.commits)

	_, err = NewLockManager(fakeProbe{alive: map[int]bool{}}).Acquire(scope.LockPath())
	require.NoError(t, err, "lock must be released after validation failure")
}

func TestSyncCycleLockContention(t *testing.T) {
	scope := Scope{Root: t.TempDir(), Store: "memories"}
	require.NoError(t, WriteDocument(scope.CachePath(), nil))
	writeTestMarker(t, scope.LockPath(), 4242)

	cfg := DefaultConfig()
	cfg.Remote = "https://github.com/alice/memories"

	// first cycle's owner is still alive
	held := NewLockManager(fakeProbe{alive: map[int]bool{4242: true}})
	syncer := NewSyncer(scope, cfg, &fakeVCS{}, held, nil)

	_, err := syncer.Run(context.Background())
	require.True(t, errors.Is(err, ErrLockHeld), "got %v", err)

	// owner exited: the next invocation reclaims the stale marker
	reclaimed := NewLockManager(fakeProbe{alive: map[int]bool{4242: false}})
	syncer = NewSyncer(scope, cfg, &fakeVCS{}, reclaimed, fixedClock("2025-01-21T11:30:00Z"))

	_, err = syncer.Run(context.Background())
	require.NoError(t, err)
}

func TestSyncCycleArchivesOncePerDay(t *testing.T) {
	entries := []Entry{entry("k", "v", "h", "2025-01-21T10:00:00Z")}
	vcs := &fakeVCS{changes: true}

	syncer, scope := setupSyncer(t, entries, nil, vcs)

	first, err := syncer.Run(context.Background())
	require.NoError(t, err)
	require.True(t, first.Archived)

	second, err := syncer.Run(context.Background())
	require.NoError(t, err)
	require.False(t, second.Archived, "second cycle on the same date must not archive")
	require.Equal(t, first.SnapshotPath, second.SnapshotPath)

	snapshots, err := filepath.Glob(filepath.Join(scope.HistoricalPath(), "*.yaml"))
	require.NoError(t, err)
	require.Len(t, snapshots, 1)
}

func TestSyncCycleSkipsCorruptRemoteLines(t *testing.T) {
	vcs := &fakeVCS{changes: false}
	syncer, scope := setupSyncer(t, []Entry{entry("k", "v", "h", "2025-01-21T10:00:00Z")}, nil, vcs)

	require.NoError(t, os.MkdirAll(scope.RemotePath(), 0755))
	corrupt := `{"id":"r1","content":"fine","meta":{"host":"hb","timestamp":"2025-01-20T00:00:00Z"}}` + "\nnot json at all\n"
	require.NoError(t, os.WriteFile(scope.CorpusPath(), []byte(corrupt), 0644))

	result, err := syncer.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, result.SkippedLines)
	require.Equal(t, 2, result.MergedCount)
}

func TestSyncVerbosePreview(t *testing.T) {
	vcs := &fakeVCS{changes: true}
	syncer, _ := setupSyncer(t, []Entry{entry("k", "v", "h", "2025-01-21T10:00:00Z")}, nil, vcs)
	syncer.SetVerbose(true)

	result, err := syncer.Run(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, result.Preview)
	require.Contains(t, result.Preview, "+")
}
