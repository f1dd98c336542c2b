// Package audit journals every phrase the agent performed as zstd-compressed
// JSON lines, one file per UTC hour of the record time.
package audit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zstd"
)

const (
	filePrefix = "actions"
	fileSuffix = ".jsonl.zst"
	hourLayout = "2006-01-02-15"
)

// segment is the open journal file of one hour. Every reopen appends a new
// zstd frame, which readers decode as one stream.
type segment struct {
	hour string
	f    *os.File
	zw   *zstd.Encoder
	enc  *json.Encoder
}

func segmentPath(dir, hour string) string {
	return filepath.Join(dir, filePrefix+"-"+hour+fileSuffix)
}

func openSegment(dir string, at time.Time) (*segment, error) {
	hour := at.UTC().Format(hourLayout)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(segmentPath(dir, hour), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	zw, err := zstd.NewWriter(f,
		zstd.WithEncoderLevel(zstd.SpeedDefault),
		zstd.WithEncoderConcurrency(1))
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("zstd: %w", err)
	}
	enc := json.NewEncoder(zw)
	enc.SetEscapeHTML(false)
	return &segment{hour: hour, f: f, zw: zw, enc: enc}, nil
}

func (s *segment) covers(at time.Time) bool {
	return s != nil && s.hour == at.UTC().Format(hourLayout)
}

// append encodes r as one line and flushes the zstd block so a crash loses at
// most the record being written.
func (s *segment) append(r *Record) error {
	if err := s.enc.Encode(r); err != nil {
		return err
	}
	return s.zw.Flush()
}

func (s *segment) close() error {
	zerr := s.zw.Close()
	ferr := s.f.Close()
	if zerr != nil {
		return zerr
	}
	return ferr
}
