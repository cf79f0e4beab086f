package internal

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// lockMarker is the on-disk body of a sync lock, scoped to one
// (host, store) pair via its file path.
type lockMarker struct {
	PID        int       `json:"pid"`
	Host       string    `json:"host"`
	Token      string    `json:"token"`
	AcquiredAt time.Time `json:"acquired_at"`
}

// LockHandle proves ownership of an acquired lock. Release only removes
// the marker when the token on disk still matches the handle.
type LockHandle struct {
	path  string
	token string
}

// LockManager serializes sync cycles across processes with a marker file.
type LockManager struct {
	probe ProcessProbe
}

func NewLockManager(probe ProcessProbe) *LockManager {
	if probe == nil {
		probe = SignalProbe{}
	}
	return &LockManager{probe: probe}
}

// Acquire takes the lock at path. An existing marker owned by a live
// process fails with ErrLockHeld; a marker whose owner is gone is stale
// and gets reclaimed, as is an unreadable marker, since its owner can no
// longer be identified. The marker is created exclusively, so two
// processes racing on the same stale marker cannot both win: the loser's
// create fails and it re-probes whoever got there first.
func (m *LockManager) Acquire(path string) (*LockHandle, error) {
	for attempt := 0; attempt < 2; attempt++ {
		handle, err := m.createMarker(path)
		if err == nil {
			return handle, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return nil, err
		}

		existing, readErr := readMarker(path)
		if readErr == nil && m.probe.Alive(existing.PID) {
			return nil, fmt.Errorf("%w: pid %d since %s",
				ErrLockHeld, existing.PID, existing.AcquiredAt.Format(time.RFC3339))
		}
		if os.IsNotExist(readErr) {
			continue
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("reclaim stale lock: %w", err)
		}
	}

	return nil, fmt.Errorf("%w: lost reclaim race for %s", ErrLockHeld, path)
}

func (m *LockManager) createMarker(path string) (*LockHandle, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}

	host, _ := os.Hostname()
	marker := lockMarker{
		PID:        os.Getpid(),
		Host:       host,
		Token:      uuid.NewString(),
		AcquiredAt: time.Now().UTC(),
	}

	data, err := json.Marshal(marker)
	if err != nil {
		return nil, fmt.Errorf("marshal lock: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return nil, err
		}
		return nil, fmt.Errorf("create lock: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return nil, fmt.Errorf("write lock: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return nil, fmt.Errorf("write lock: %w", err)
	}

	return &LockHandle{path: path, token: marker.Token}, nil
}

// Release removes the caller's marker. Releasing a lock that was already
// removed, or that another process has since reclaimed, is a no-op.
func (m *LockManager) Release(handle *LockHandle) error {
	if handle == nil {
		return nil
	}

	marker, err := readMarker(handle.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err == nil && marker.Token != handle.token {
		return nil
	}

	if err := os.Remove(handle.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove lock: %w", err)
	}
	return nil
}

func readMarker(path string) (lockMarker, error) {
	var marker lockMarker

	data, err := os.ReadFile(path)
	if err != nil {
		return marker, err
	}
	if err := json.Unmarshal(data, &marker); err != nil {
		return marker, fmt.Errorf("parse lock %s: %w", path, err)
	}
	return marker, nil
}
