package timing

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"go.universe.tf/rendertrace/profile"
)

// Event is one line of a recorded event log.
type Event struct {
	Kind    string         `json:"kind"`
	TS      float64        `json:"ts"`
	Payload map[string]any `json:"payload,omitempty"`
}

const (
	KindBegin = "begin"
	KindEnd   = "end"
)

// Replay applies a JSON-lines event log to rec and returns how many
// events were applied. Blank lines are skipped.
func Replay(r io.Reader, rec *Rec) (int, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)

	applied := 0
	for line := 1; sc.Scan(); line++ {
		b := bytes.TrimSpace(sc.Bytes())
		if len(b) == 0 {
			continue
		}
		var ev Event
		if err := json.Unmarshal(b, &ev); err != nil {
			return applied, fmt.Errorf("line %d: %w", line, err)
		}
		switch ev.Kind {
		case KindBegin:
			rec.Begin(ev.TS, profile.FromMap(ev.Payload))
		case KindEnd:
			if _, err := rec.End(ev.TS); err != nil {
				return applied, fmt.Errorf("line %d: %w", line, err)
			}
		default:
			return applied, fmt.Errorf("line %d: unknown event kind %q", line, ev.Kind)
		}
		applied++
	}
	if err := sc.Err(); err != nil {
		return applied, fmt.Errorf("reading events: %w", err)
	}
	return applied, nil
}
