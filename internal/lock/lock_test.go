package lock

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func TestNewFileLock(t *testing.T) {
	dir := t.TempDir()

	lock, err := NewFileLock(dir)
	if err != nil {
		t.Fatalf("NewFileLock failed: %v", err)
	}

	expectedPath := filepath.Join(dir, LockFileName)
	if lock.lockPath != expectedPath {
		t.Errorf("expected lock path %s, got %s", expectedPath, lock.lockPath)
	}

	if lock.staleTimeout != DefaultStaleTimeout {
		t.Errorf("expected timeout %v, got %v", DefaultStaleTimeout, lock.staleTimeout)
	}
}

func TestAcquireRelease(t *testing.T) {
	lock, err := NewFileLock(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileLock failed: %v", err)
	}

	if err := lock.Acquire("DOCS"); err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}

	if _, err := os.Stat(lock.lockPath); os.IsNotExist(err) {
		t.Error("lock file does not exist after acquire")
	}

	if !lock.IsLocked() {
		t.Error("lock should be held")
	}

	if err := lock.Release(); err != nil {
		t.Fatalf("Release failed: %v", err)
	}

	if _, err := os.Stat(lock.lockPath); !os.IsNotExist(err) {
		t.Error("lock file still exists after release")
	}

	if lock.IsLocked() {
		t.Error("lock should not be held after release")
	}
}

func TestAcquireTwice_SameProcess(t *testing.T) {
	lock, err := NewFileLock(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileLock failed: %v", err)
	}

	if err := lock.Acquire("DOCS"); err != nil {
		t.Fatalf("First Acquire failed: %v", err)
	}
	defer lock.Release()

	// Re-acquire by the same instance updates the space key
	if err := lock.Acquire("OTHER"); err != nil {
		t.Fatalf("Second Acquire by same process should succeed: %v", err)
	}

	holder, err := lock.GetHolder()
	if err != nil {
		t.Fatalf("GetHolder failed: %v", err)
	}
	if holder.SpaceKey != "OTHER" {
		t.Errorf("expected space key 'OTHER', got '%s'", holder.SpaceKey)
	}
}

func TestAcquire_SecondInstanceBlocked(t *testing.T) {
	dir := t.TempDir()

	first, err := NewFileLock(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := first.Acquire("DOCS"); err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	defer first.Release()

	second, err := NewFileLock(dir)
	if err != nil {
		t.Fatal(err)
	}
	err = second.Acquire("DOCS")
	if err == nil {
		t.Fatal("second instance should not acquire a held lock")
	}
	if !IsLockError(err) {
		t.Errorf("expected LockError, got %T: %v", err, err)
	}
}

func TestConcurrentAcquire(t *testing.T) {
	dir := t.TempDir()

	const goroutines = 10
	var wg sync.WaitGroup
	acquired := make([]bool, goroutines)

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			lock, err := NewFileLock(dir)
			if err != nil {
				return
			}
			if err := lock.Acquire("DOCS"); err == nil {
				acquired[idx] = true
			}
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, ok := range acquired {
		if ok {
			winners++
		}
	}
	if winners != 1 {
		t.Errorf("expected exactly one winner, got %d", winners)
	}
}

func TestStaleLock_DeadProcess(t *testing.T) {
	dir := t.TempDir()

	lock, err := NewFileLock(dir)
	if err != nil {
		t.Fatal(err)
	}

	// Fabricate a lock held by a PID that cannot exist
	hostname, _ := os.Hostname()
	stale := &LockInfo{
		PID:       1 << 22,
		Hostname:  hostname,
		StartTime: time.Now(),
		SpaceKey:  "DOCS",
	}
	if err := lock.writeLockInfo(stale); err != nil {
		t.Fatal(err)
	}

	if err := lock.Acquire("DOCS"); err != nil {
		t.Errorf("stale lock should be reclaimed: %v", err)
	}
	lock.Release()
}

func TestStaleLock_OtherHostTimeout(t *testing.T) {
	dir := t.TempDir()

	lock, err := NewFileLock(dir)
	if err != nil {
		t.Fatal(err)
	}
	lock.SetStaleTimeout(time.Minute)

	fresh := &LockInfo{
		PID:       1,
		Hostname:  "some-other-host",
		StartTime: time.Now(),
		SpaceKey:  "DOCS",
	}
	if err := lock.writeLockInfo(fresh); err != nil {
		t.Fatal(err)
	}
	if err := lock.Acquire("DOCS"); err == nil {
		t.Error("fresh lock from another host must be honored")
		lock.Release()
	}

	old := &LockInfo{
		PID:       1,
		Hostname:  "some-other-host",
		StartTime: time.Now().Add(-2 * time.Minute),
		SpaceKey:  "DOCS",
	}
	if err := lock.writeLockInfo(old); err != nil {
		t.Fatal(err)
	}
	if err := lock.Acquire("DOCS"); err != nil {
		t.Errorf("timed-out lock from another host should be reclaimed: %v", err)
	}
	lock.Release()
}

func TestForceRelease(t *testing.T) {
	dir := t.TempDir()

	first, err := NewFileLock(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := first.Acquire("DOCS"); err != nil {
		t.Fatal(err)
	}

	second, err := NewFileLock(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := second.ForceRelease(); err != nil {
		t.Fatalf("ForceRelease failed: %v", err)
	}
	if second.IsLocked() {
		t.Error("lock should be gone after ForceRelease")
	}
}

func TestReleaseWithoutAcquire(t *testing.T) {
	lock, err := NewFileLock(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := lock.Release(); err != nil {
		t.Errorf("Release without Acquire should be a no-op: %v", err)
	}
}
