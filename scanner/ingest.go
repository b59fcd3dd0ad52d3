package scanner

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"go.universe.tf/rendertrace/db"
	"go.universe.tf/rendertrace/ident"
	"go.universe.tf/rendertrace/profile"
	"go.universe.tf/rendertrace/timing"
	"golang.org/x/crypto/blake2s"
)

var hashBuf = sync.Pool{
	New: func() interface{} { return make([]byte, 1024*1024) },
}

func nowMillis() float64 {
	return float64(time.Now().UnixNano()) / 1e6
}

// Ingest replays the event log at p and stores the resulting trees,
// returning how many were stored. A log whose content hash matches the
// stored one only has its stat refreshed. A log that fails to replay is
// recorded with its error and no trees, so it is not retried until it
// changes.
//
// View ids are assigned from a registry private to this call; views
// decoded from a log have no identity beyond it.
func Ingest(d *db.DB, fsys fs.FS, p string) (int, error) {
	var t timing.Rec
	t.Begin(nowMillis(), profile.Template{Name: "ingest " + p})
	defer func() {
		t.End(nowMillis())
		log.Debug().Msg(t.Done().DebugString())
	}()

	t.Begin(nowMillis(), profile.Template{Name: "read"})
	content, h, info, err := readFile(fsys, p)
	t.End(nowMillis())
	if err != nil {
		return 0, err
	}

	src := db.Source{Path: p, Mtime: info.ModTime(), Size: info.Size(), Hash: h}
	cached, err := d.Source(p)
	if err != nil {
		return 0, err
	}
	if cached.Hash == h {
		log.Debug().Str("path", p).Msg("Event log content unchanged")
		return 0, d.Touch(src)
	}

	t.Begin(nowMillis(), profile.Template{Name: "replay"})
	rec := timing.NewRec(profile.NewFactoryWithClock(ident.New(ident.DefaultPrefix), clockwork.NewRealClock()))
	n, err := timing.Replay(bytes.NewReader(content), rec)
	trees := rec.Done()
	t.End(nowMillis())
	if err != nil {
		err = fmt.Errorf("replaying %q: %w", p, err)
		src.Error = err.Error()
		if _, serr := d.SaveSource(src, nil); serr != nil {
			return 0, fmt.Errorf("%v; recording failure: %w", err, serr)
		}
		return 0, err
	}

	t.Begin(nowMillis(), profile.Template{Name: "db-write"})
	_, err = d.SaveSource(src, trees)
	t.End(nowMillis())
	if err != nil {
		return 0, err
	}

	log.Info().Str("path", p).Int("events", n).Int("trees", len(trees)).Msg("Ingested event log")
	return len(trees), nil
}

// readFile returns the content of p along with its BLAKE2s hash.
func readFile(fsys fs.FS, p string) (content []byte, h string, info fs.FileInfo, err error) {
	f, err := fsys.Open(p)
	if err != nil {
		return nil, "", nil, fmt.Errorf("opening %q: %w", p, err)
	}
	defer f.Close()
	info, err = f.Stat()
	if err != nil {
		return nil, "", nil, fmt.Errorf("stat(%q): %w", p, err)
	}

	hasher, _ := blake2s.New256(nil)
	var b bytes.Buffer
	buf := hashBuf.Get().([]byte)
	defer hashBuf.Put(buf)
	// Hide any WriterTo so the pooled buffer is used.
	if _, err := io.CopyBuffer(io.MultiWriter(hasher, &b), struct{ io.Reader }{f}, buf); err != nil {
		return nil, "", nil, fmt.Errorf("reading %q: %w", p, err)
	}
	return b.Bytes(), hex.EncodeToString(hasher.Sum(nil)), info, nil
}
