package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.universe.tf/rendertrace/profile"
)

var ErrNotFound = errors.New("not found")

// Source is an event log file the trees were replayed from.
type Source struct {
	Path  string
	Mtime time.Time
	Size  int64
	Hash  string
	// Error is why the last replay of this content failed, if it did.
	// Such a source has no trees.
	Error string
}

// Summary describes a stored tree without decoding it.
type Summary struct {
	ID       int64   `db:"id" json:"id"`
	Source   string  `db:"path" json:"source"`
	Seq      int     `db:"seq" json:"seq"`
	Name     string  `db:"name" json:"name"`
	Start    float64 `db:"start" json:"start"`
	Duration float64 `db:"duration" json:"duration"`
	Nodes    int     `db:"nodes" json:"nodes"`
}

// Source returns what is recorded about path, or the zero Source if the
// path has not been ingested.
func (db *DB) Source(path string) (Source, error) {
	var row struct {
		Path      string `db:"path"`
		MtimeSec  int64  `db:"mtime_sec"`
		MtimeNano int64  `db:"mtime_nano"`
		Size      int64  `db:"size"`
		Hash      string `db:"hash"`
		Error     string `db:"replay_error"`
	}
	err := db.db.Get(&row, "SELECT path,mtime_sec,mtime_nano,size,hash,replay_error FROM sources WHERE path=?", path)
	if errors.Is(err, sql.ErrNoRows) {
		return Source{}, nil
	} else if err != nil {
		return Source{}, fmt.Errorf("getting source %q: %w", path, err)
	}
	return Source{
		Path:  row.Path,
		Mtime: time.Unix(row.MtimeSec, row.MtimeNano),
		Size:  row.Size,
		Hash:  row.Hash,
		Error: row.Error,
	}, nil
}

// Touch records a new stat for a source whose content is unchanged.
func (db *DB) Touch(src Source) error {
	_, err := db.db.Exec("UPDATE sources SET mtime_sec=?, mtime_nano=?, size=? WHERE path=?",
		src.Mtime.Unix(), int64(src.Mtime.Nanosecond()), src.Size, src.Path)
	if err != nil {
		return fmt.Errorf("touching source %q: %w", src.Path, err)
	}
	return nil
}

// SaveSource records src and replaces the trees stored for it, in one
// transaction. It returns the source id.
func (db *DB) SaveSource(src Source, trees []*profile.Node) (int64, error) {
	tx, err := db.db.Beginx()
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`INSERT INTO sources (path, mtime_sec, mtime_nano, size, hash, replay_error, ingested_sec) VALUES (?,?,?,?,?,?,?)
ON CONFLICT (path) DO UPDATE SET mtime_sec=excluded.mtime_sec, mtime_nano=excluded.mtime_nano, size=excluded.size, hash=excluded.hash, replay_error=excluded.replay_error, ingested_sec=excluded.ingested_sec`,
		src.Path, src.Mtime.Unix(), int64(src.Mtime.Nanosecond()), src.Size, src.Hash, src.Error, time.Now().Unix())
	if err != nil {
		return 0, fmt.Errorf("recording source %q: %w", src.Path, err)
	}
	var id int64
	if err := tx.Get(&id, "SELECT id FROM sources WHERE path=?", src.Path); err != nil {
		return 0, fmt.Errorf("getting id of source %q: %w", src.Path, err)
	}
	if _, err := tx.Exec("DELETE FROM profiles WHERE source_id=?", id); err != nil {
		return 0, fmt.Errorf("clearing profiles of %q: %w", src.Path, err)
	}

	for seq, root := range trees {
		tree, err := json.Marshal(root)
		if err != nil {
			return 0, fmt.Errorf("encoding tree %d of %q: %w", seq, src.Path, err)
		}
		nodes := 0
		root.Walk(func(*profile.Node, int) error {
			nodes++
			return nil
		})
		_, err = tx.Exec("INSERT INTO profiles (source_id, seq, name, start, duration, nodes, tree) VALUES (?,?,?,?,?,?,?)",
			id, seq, root.Name, root.Start, root.Duration, nodes, string(tree))
		if err != nil {
			return 0, fmt.Errorf("storing tree %d of %q: %w", seq, src.Path, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit tx: %w", err)
	}
	return id, nil
}

// Profiles lists stored trees, most recently stored first. A limit of
// zero or less lists all of them.
func (db *DB) Profiles(limit int) ([]Summary, error) {
	if limit <= 0 {
		limit = -1
	}
	var ret []Summary
	err := db.db.Select(&ret, `SELECT p.id, s.path, p.seq, p.name, p.start, p.duration, p.nodes
FROM profiles p JOIN sources s ON s.id = p.source_id
ORDER BY p.id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing profiles: %w", err)
	}
	return ret, nil
}

// Profile decodes the tree stored under id.
func (db *DB) Profile(id int64) (*profile.Node, error) {
	var tree string
	err := db.db.Get(&tree, "SELECT tree FROM profiles WHERE id=?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("profile %d: %w", id, ErrNotFound)
	} else if err != nil {
		return nil, fmt.Errorf("getting profile %d: %w", id, err)
	}
	var n profile.Node
	if err := json.Unmarshal([]byte(tree), &n); err != nil {
		return nil, fmt.Errorf("decoding profile %d: %w", id, err)
	}
	return &n, nil
}
