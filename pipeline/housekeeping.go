package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultArchiveDir is the archive subdirectory used when none is configured.
const DefaultArchiveDir = "backup"

// HousekeeperFunc adapts a function to the Housekeeper interface.
type HousekeeperFunc func(ctx context.Context, src Source) error

func (f HousekeeperFunc) Done(ctx context.Context, src Source) error { return f(ctx, src) }

// NewHousekeeper returns the housekeeper for mode. archiveDir is only used by
// the archive mode; empty means a backup directory next to each source.
func NewHousekeeper(mode string, archiveDir string) (Housekeeper, error) {
	switch HousekeepingMode(strings.ToLower(strings.TrimSpace(mode))) {
	case HousekeepingKeep, "":
		return nil, nil
	case HousekeepingArchive:
		return archiver{dir: archiveDir}, nil
	case HousekeepingDelete:
		return remover{}, nil
	default:
		return nil, fmt.Errorf("%w %q (expected keep|archive|delete)", ErrUnknownHousekeeping, mode)
	}
}

type archiver struct {
	dir string
}

func (a archiver) Done(_ context.Context, src Source) error {
	dir := a.dir
	if dir == "" {
		dir = filepath.Join(filepath.Dir(src.OMDPath), DefaultArchiveDir)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create archive directory: %w", err)
	}
	// The summary moves first; a pair is never left split across directories.
	paths := sourcePaths(src)
	moved := make([][2]string, 0, len(paths))
	for i := len(paths) - 1; i >= 0; i-- {
		dst := filepath.Join(dir, filepath.Base(paths[i]))
		if err := os.Rename(paths[i], dst); err != nil {
			for _, m := range moved {
				_ = os.Rename(m[1], m[0])
			}
			return fmt.Errorf("archive %s: %w", filepath.Base(paths[i]), err)
		}
		moved = append(moved, [2]string{paths[i], dst})
	}
	return nil
}

// remover deletes the log before its summary, since a lone OMH is never
// picked up by Scan.
type remover struct{}

func (remover) Done(_ context.Context, src Source) error {
	for _, path := range sourcePaths(src) {
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("delete %s: %w", filepath.Base(path), err)
		}
	}
	return nil
}

func sourcePaths(src Source) []string {
	paths := []string{src.OMDPath}
	if src.OMHPath != "" {
		paths = append(paths, src.OMHPath)
	}
	return paths
}
