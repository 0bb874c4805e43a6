package session

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileStore is the production Store: one directory per namespace, one flat
// file per artifact, under a root state directory.
//
// There is no locking. The store relies on the operator running one
// command at a time against a given state directory.
type FileStore struct {
	root string
}

// NewFileStore opens (or creates) a file-backed store rooted at the given
// directory.
func NewFileStore(root string) (*FileStore, error) {
	if err := os.MkdirAll(root, 0o700); err != nil {
		return nil, fmt.Errorf("session: create state directory %s: %w", root, err)
	}
	return &FileStore{root: root}, nil
}

// Root returns the state directory backing the store.
func (s *FileStore) Root() string { return s.root }

func (s *FileStore) path(namespace, key string) string {
	return filepath.Join(s.root, namespace, key)
}

// Put implements Store.
func (s *FileStore) Put(namespace, key string, value []byte) error {
	return s.PutAll(namespace, map[string][]byte{key: value})
}

// PutAll implements Store.
//
// Every value is first staged into a temporary file in the namespace
// directory, then all staged files are renamed into place. A crash before
// the renames leaves only temporary droppings behind, never a partially
// published phase.
func (s *FileStore) PutAll(namespace string, values map[string][]byte) error {
	dir := filepath.Join(s.root, namespace)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("session: create namespace %s: %w", namespace, err)
	}

	staged := make(map[string]string, len(values))
	cleanup := func() {
		for _, tmp := range staged {
			_ = os.Remove(tmp)
		}
	}

	for key, value := range values {
		tmp, err := os.CreateTemp(dir, "."+key+".tmp-*")
		if err != nil {
			cleanup()
			return fmt.Errorf("session: stage %s/%s: %w", namespace, key, err)
		}
		if _, err := tmp.Write(value); err != nil {
			_ = tmp.Close()
			staged[key] = tmp.Name()
			cleanup()
			return fmt.Errorf("session: stage %s/%s: %w", namespace, key, err)
		}
		if err := tmp.Close(); err != nil {
			staged[key] = tmp.Name()
			cleanup()
			return fmt.Errorf("session: stage %s/%s: %w", namespace, key, err)
		}
		staged[key] = tmp.Name()
	}

	for key, tmp := range staged {
		if err := os.Rename(tmp, s.path(namespace, key)); err != nil {
			cleanup()
			return fmt.Errorf("session: publish %s/%s: %w", namespace, key, err)
		}
	}
	return nil
}

// Get implements Store.
func (s *FileStore) Get(namespace, key string) ([]byte, error) {
	data, err := os.ReadFile(s.path(namespace, key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s/%s", ErrNotExist, namespace, key)
		}
		return nil, fmt.Errorf("session: read %s/%s: %w", namespace, key, err)
	}
	return data, nil
}

// Sessions lists the signing-session namespaces present in the store.
func (s *FileStore) Sessions() ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("session: list %s: %w", s.root, err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() && strings.HasPrefix(e.Name(), "sign-") {
			out = append(out, strings.TrimPrefix(e.Name(), "sign-"))
		}
	}
	return out, nil
}
