package runlock

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// ErrHeld is returned when another live process holds the lock.
var ErrHeld = errors.New("run lock held by another process")

// Lock is an exclusive lock file. A lock older than its TTL is considered
// abandoned and is taken over. The holder refreshes the file's mtime so a
// long run is not mistaken for a dead one.
type Lock struct {
	path string
	ttl  time.Duration

	stop chan struct{}
	done chan struct{}
	once sync.Once
}

type lockInfo struct {
	PID  int   `json:"pid"`
	Time int64 `json:"time"`
}

// Acquire creates the lock file at path or returns ErrHeld.
func Acquire(path string, ttl time.Duration) (*Lock, error) {
	abspath, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(abspath), 0o755); err != nil {
		return nil, fmt.Errorf("create lock dir: %w", err)
	}

	for attempt := 0; attempt < 3; attempt++ {
		f, err := os.OpenFile(abspath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err == nil {
			_ = json.NewEncoder(f).Encode(lockInfo{PID: os.Getpid(), Time: time.Now().Unix()})
			_ = f.Close()
			l := &Lock{path: abspath, ttl: ttl, stop: make(chan struct{}), done: make(chan struct{})}
			go l.heartbeat()
			return l, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create lock: %w", err)
		}

		fi, err := os.Stat(abspath)
		if err != nil {
			// Released between our create and stat; try again.
			continue
		}
		if time.Since(fi.ModTime()) >= ttl {
			_ = os.Remove(abspath)
			continue
		}
		return nil, fmt.Errorf("%s: %w", abspath, ErrHeld)
	}
	return nil, fmt.Errorf("%s: %w", abspath, ErrHeld)
}

// Path returns the absolute lock file path.
func (l *Lock) Path() string { return l.path }

// Release stops the heartbeat and removes the lock file. It is safe to call twice.
func (l *Lock) Release() error {
	var err error
	l.once.Do(func() {
		close(l.stop)
		<-l.done
		if rerr := os.Remove(l.path); rerr != nil && !errors.Is(rerr, os.ErrNotExist) {
			err = rerr
		}
	})
	return err
}

func (l *Lock) heartbeat() {
	defer close(l.done)
	every := l.ttl / 3
	if every <= 0 {
		every = time.Minute
	}
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-l.stop:
			return
		case <-t.C:
			now := time.Now()
			_ = os.Chtimes(l.path, now, now)
		}
	}
}
