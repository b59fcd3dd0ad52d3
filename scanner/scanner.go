package scanner

import (
	"errors"
	"fmt"
	"io/fs"
	"path"

	"github.com/rs/zerolog/log"
	"go.universe.tf/rendertrace/db"
)

// LogExt is the extension of event log files.
const LogExt = ".jsonl"

// Scan walks roots and returns the event logs whose size or mtime
// differ from what the DB recorded when they were last ingested.
func Scan(db *db.DB, fsys fs.FS, roots []string) ([]string, error) {
	for _, root := range roots {
		if !fs.ValidPath(root) {
			return nil, fmt.Errorf("invalid root path %q", root)
		}
	}

	var changed []string
	for _, root := range roots {
		err := fs.WalkDir(fsys, root, func(p string, ent fs.DirEntry, err error) error {
			dirty, err := look(db, p, ent, err)
			if dirty {
				changed = append(changed, p)
			}
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("scanning root %q: %w", root, err)
		}
	}

	return changed, nil
}

func look(db *db.DB, p string, ent fs.DirEntry, err error) (bool, error) {
	if errors.Is(err, fs.ErrPermission) {
		log.Warn().Str("path", p).Msg("Skipping unreadable path")
		if ent != nil && ent.IsDir() {
			return false, fs.SkipDir
		}
		return false, nil
	} else if err != nil {
		return false, err
	}
	if !ent.Type().IsRegular() || path.Ext(p) != LogExt {
		// Process all subdirs, ignore everything else.
		return false, nil
	}

	info, err := ent.Info()
	if errors.Is(err, fs.ErrNotExist) {
		// Delete race, nothing to do.
		return false, nil
	} else if err != nil {
		return false, fmt.Errorf("stat(%q): %w", p, err)
	}

	cached, err := db.Source(p)
	if err != nil {
		return false, err
	}
	if cached.Size == info.Size() && cached.Mtime.Equal(info.ModTime()) {
		return false, nil
	}
	log.Debug().Str("path", p).Msg("Event log changed")
	return true, nil
}
