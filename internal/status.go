package internal

import (
	"os"
	"path/filepath"
	"sort"
)

// StoreStatus is a read-only view of a store: how big the local replica
// is, whether a cycle currently holds the lock, and the newest snapshot.
type StoreStatus struct {
	Store        string
	EntryCount   int
	Locked       bool
	LockPID      int
	LastSnapshot string
}

// InspectStore reports on a store without taking the lock or mutating
// anything.
func InspectStore(scope Scope, probe ProcessProbe) (*StoreStatus, error) {
	if probe == nil {
		probe = SignalProbe{}
	}

	status := &StoreStatus{Store: scope.Store}

	entries, err := ReadDocument(scope.CachePath())
	if err != nil {
		return nil, err
	}
	status.EntryCount = len(entries)

	if marker, err := readMarker(scope.LockPath()); err == nil && probe.Alive(marker.PID) {
		status.Locked = true
		status.LockPID = marker.PID
	}

	snapshots, err := filepath.Glob(filepath.Join(scope.HistoricalPath(), scope.Store+"-*.yaml"))
	if err == nil && len(snapshots) > 0 {
		sort.Strings(snapshots)
		status.LastSnapshot = filepath.Base(snapshots[len(snapshots)-1])
	}

	return status, nil
}

// InitStore prepares a store for its first cycle: the root directory, an
// empty document-encoded cache if none exists, and the config recording
// the remote. It refuses an invalid remote up front.
func InitStore(scope Scope, remote string) error {
	if err := ValidateRemote(remote); err != nil {
		return err
	}

	if err := os.MkdirAll(scope.Root, 0755); err != nil {
		return err
	}

	if _, err := os.Stat(scope.CachePath()); os.IsNotExist(err) {
		if err := WriteDocument(scope.CachePath(), nil); err != nil {
			return err
		}
	}

	cfg := DefaultConfig()
	cfg.Remote = remote
	cfg.Store = scope.Store
	return SaveConfig(scope, cfg)
}
