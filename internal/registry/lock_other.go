//go:build !unix

package registry

// fileLock is a no-op where flock(2) is unavailable; the in-process mutex
// still serializes writers within one process.
type fileLock struct {
	path string
}

func newFileLock(path string) *fileLock {
	return &fileLock{path: path}
}

func (l *fileLock) Lock() error   { return nil }
func (l *fileLock) Unlock() error { return nil }
