package sync

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"
)

// Change is the answer of DetectChange.
type Change struct {
	Changed bool
	Missing bool
	ModTime time.Time
}

// DetectChange reports whether the file at path was modified after the
// watermark. A nil watermark means the file has never been processed. A
// missing file is not an error; it simply never triggers a sync.
func DetectChange(path string, watermark *time.Time) (Change, error) {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Change{Missing: true}, nil
	}
	if err != nil {
		return Change{}, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return Change{}, fmt.Errorf("stat %s: is a directory", path)
	}

	mod := info.ModTime()
	if watermark != nil && !mod.After(*watermark) {
		return Change{ModTime: mod}, nil
	}
	return Change{Changed: true, ModTime: mod}, nil
}
