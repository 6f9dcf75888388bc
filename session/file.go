package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// File keeps the payload in a JSON file so it survives a restart of the client
type File struct {
	Dir string
}

// NewFile creates a File store rooted at dir
func NewFile(dir string) *File {
	return &File{Dir: dir}
}

func (f *File) path() string {
	return filepath.Join(f.Dir, PendingKey+".json")
}

func (f *File) Load(_ context.Context) (*Payload, error) {
	data, err := os.ReadFile(f.path())
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}
	return decode(data), nil
}

// Save writes to a temp file and renames it so a crash never leaves half a payload
func (f *File) Save(_ context.Context, p Payload) error {
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(f.Dir, 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	tmp, err := os.CreateTemp(f.Dir, PendingKey+"-*.tmp")
	if err != nil {
		return fmt.Errorf("create session file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write session: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync session: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), f.path())
}

func (f *File) Clear(_ context.Context) error {
	err := os.Remove(f.path())
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}
