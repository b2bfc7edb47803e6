package store

import "fmt"

// Backend names accepted by Open.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Open returns the backend called name, rooted at path where it needs one.
func Open(name, path string) (Backend, error) {
	switch name {
	case "", BackendMemory:
		return NewMemoryBackend(), nil
	case BackendFile:
		b, err := NewFileBackend(path)
		if err != nil {
			return nil, err
		}
		return b, nil
	case BackendSQLite:
		b, err := OpenSQLite(path)
		if err != nil {
			return nil, err
		}
		return b, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", name)
	}
}
