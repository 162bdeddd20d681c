package runlock

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAcquireAndRelease(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run", ".merge.lock")

	lock, err := Acquire(path)
	require.NoError(t, err)
	require.FileExists(t, path)

	require.NoError(t, lock.Release())
	require.NoFileExists(t, path)

	// Releasable again without error once gone.
	require.NoError(t, lock.Release())
}

func TestAcquireHeld(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".merge.lock")

	lock, err := Acquire(path)
	require.NoError(t, err)
	defer lock.Release()

	_, err = Acquire(path)
	require.ErrorIs(t, err, ErrHeld)
}

func TestAcquireBreaksStaleLock(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".merge.lock")
	require.NoError(t, os.WriteFile(path, []byte("12345"), 0o644))
	old := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(path, old, old))

	lock, err := Acquire(path)
	require.NoError(t, err)
	require.NoError(t, lock.Release())
}

func TestAcquireRespectsFreshForeignLock(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".merge.lock")
	require.NoError(t, os.WriteFile(path, []byte("12345"), 0o644))

	_, err := Acquire(path)
	require.ErrorIs(t, err, ErrHeld)
}

func TestReleaseNilLock(t *testing.T) {
	var lock *Lock
	require.NoError(t, lock.Release())
}
