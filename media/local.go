package media

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Local writes documents under a directory on disk
type Local struct {
	Root string
}

func (l *Local) Save(ctx context.Context, folder, name string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	dir := filepath.Join(l.Root, SafeName(folder))
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return "", fmt.Errorf("create upload directory: %w", err)
	}

	filePath := filepath.Join(dir, SafeName(name))
	dst, err := os.Create(filePath)
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, r); err != nil {
		return "", fmt.Errorf("save file: %w", err)
	}
	return filePath, nil
}
