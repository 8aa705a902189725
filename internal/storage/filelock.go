package storage

import (
	"fmt"
	"os"
	"syscall"
)

// recordLock is an exclusive advisory lock guarding writes to one record file.
// The lock lives on a sibling "<file>.lock" so the record file itself can be
// replaced by rename while the lock is held.
type recordLock struct {
	f *os.File
}

// acquireRecordLock blocks until it holds the lock for recordPath.
func acquireRecordLock(recordPath string) (*recordLock, error) {
	lockPath := recordPath + ".lock"
	f, err := os.OpenFile(lockPath, os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		return nil, fmt.Errorf("opening lock %s: %w", lockPath, err)
	}
	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("locking %s: %w", lockPath, err)
	}
	return &recordLock{f: f}, nil
}

// Release drops the lock and closes the lock file.
func (l *recordLock) Release() error {
	unlockErr := syscall.Flock(int(l.f.Fd()), syscall.LOCK_UN)
	closeErr := l.f.Close()
	if unlockErr != nil {
		return fmt.Errorf("unlocking %s: %w", l.f.Name(), unlockErr)
	}
	return closeErr
}
