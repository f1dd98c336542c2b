package audit

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
)

// Route says which path handled a phrase.
type Route string

const (
	RouteHandler Route = "handler" // an action handler claimed the verb
	RouteCommand Route = "command" // mapped to an engine command
	RouteTool    Route = "tool"    // mapped to a memory/book/mail tool action
	RouteNone    Route = "none"    // nothing could use it
)

// Record is one performed phrase.
type Record struct {
	ID       string    `json:"id"`
	Time     time.Time `json:"time"`
	Agent    string    `json:"agent"`
	Cycle    uint64    `json:"cycle"`
	Phrase   string    `json:"phrase"`
	Route    Route     `json:"route"`
	Command  string    `json:"command,omitempty"`
	OK       bool      `json:"ok"`
	Action   string    `json:"action,omitempty"`
	Snapshot string    `json:"snapshot,omitempty"` // digest of the snapshot the decision saw
	Error    string    `json:"error,omitempty"`
}

// Journal writes Records under dir/audit. It is safe for concurrent use.
type Journal struct {
	dir string
	now func() time.Time

	mu  sync.Mutex
	cur *segment
}

func NewJournal(dir string) *Journal {
	return &Journal{dir: filepath.Join(dir, "audit"), now: time.Now}
}

// Write fills in a missing id and time, then appends r to the file of the
// hour r.Time falls in.
func (j *Journal) Write(r *Record) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.Time.IsZero() {
		r.Time = j.now().UTC()
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	if !j.cur.covers(r.Time) {
		if err := j.closeLocked(); err != nil {
			return fmt.Errorf("audit: rotate: %w", err)
		}
		seg, err := openSegment(j.dir, r.Time)
		if err != nil {
			return fmt.Errorf("audit: open: %w", err)
		}
		j.cur = seg
	}
	if err := j.cur.append(r); err != nil {
		return fmt.Errorf("audit: %w", err)
	}
	return nil
}

func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.closeLocked()
}

func (j *Journal) closeLocked() error {
	if j.cur == nil {
		return nil
	}
	err := j.cur.close()
	j.cur = nil
	return err
}

// Files lists the journal files under dir in time order.
func Files(dir string) ([]string, error) {
	out, err := filepath.Glob(filepath.Join(dir, "audit", filePrefix+"-*"+fileSuffix))
	if err != nil {
		return nil, err
	}
	sort.Strings(out)
	return out, nil
}

// ReadFile decodes every record in one journal file.
func ReadFile(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("audit: %w", err)
	}
	defer dec.Close()
	return decode(dec)
}

func decode(r io.Reader) ([]Record, error) {
	var out []Record
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 4<<20)
	for sc.Scan() {
		if len(sc.Bytes()) == 0 {
			continue
		}
		var rec Record
		if err := json.Unmarshal(sc.Bytes(), &rec); err != nil {
			return out, fmt.Errorf("audit: line %d: %w", len(out)+1, err)
		}
		out = append(out, rec)
	}
	return out, sc.Err()
}
