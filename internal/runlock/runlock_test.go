package runlock

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestAcquire_ExclusiveAndRelease(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "run.lock")

	first, err := Acquire(path, time.Hour)
	if err != nil {
		t.Fatalf("first acquire: %v", err)
	}
	if _, err := Acquire(path, time.Hour); !errors.Is(err, ErrHeld) {
		t.Fatalf("second acquire: want ErrHeld, got %v", err)
	}

	if err := first.Release(); err != nil {
		t.Fatalf("release: %v", err)
	}
	if err := first.Release(); err != nil {
		t.Fatalf("second release should be a no-op: %v", err)
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("lock file should be gone, stat err=%v", err)
	}

	again, err := Acquire(path, time.Hour)
	if err != nil {
		t.Fatalf("acquire after release: %v", err)
	}
	_ = again.Release()
}

func TestAcquire_StaleLockTakenOver(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.lock")
	if err := os.WriteFile(path, []byte(`{"pid":1,"time":0}`), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}
	old := time.Now().Add(-2 * time.Hour)
	if err := os.Chtimes(path, old, old); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	l, err := Acquire(path, time.Hour)
	if err != nil {
		t.Fatalf("stale lock should be taken over: %v", err)
	}
	defer l.Release()

	fi, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if time.Since(fi.ModTime()) > time.Minute {
		t.Fatalf("lock file should be fresh")
	}
}

func TestHeartbeatRefreshesModTime(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.lock")
	l, err := Acquire(path, 90*time.Millisecond)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	defer l.Release()

	old := time.Now().Add(-time.Hour)
	if err := os.Chtimes(path, old, old); err != nil {
		t.Fatalf("chtimes: %v", err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		fi, err := os.Stat(path)
		if err == nil && time.Since(fi.ModTime()) < time.Minute {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("heartbeat did not refresh the lock file")
}
