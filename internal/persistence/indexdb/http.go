package indexdb

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"voxelagent.ai/internal/persistence/audit"
)

// HTTPConfig configures forwarding of audit records to a remote ingest
// endpoint as JSON batches.
type HTTPConfig struct {
	Endpoint      string
	Token         string
	BatchSize     int
	FlushInterval time.Duration
	HTTPTimeout   time.Duration
	// MaxRetained caps records kept across failed flushes.
	MaxRetained int
	Logger      *zap.Logger
}

type HTTPIndex struct {
	cfg        HTTPConfig
	httpClient *http.Client
	log        *zap.Logger

	ch   chan audit.Record
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool

	written   atomic.Uint64
	dropped   atomic.Uint64
	flushFail atomic.Uint64
}

func OpenHTTP(cfg HTTPConfig) (*HTTPIndex, error) {
	cfg.Endpoint = strings.TrimSpace(cfg.Endpoint)
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("indexdb: empty ingest endpoint")
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 64
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = 500 * time.Millisecond
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = 10 * time.Second
	}
	if cfg.MaxRetained <= 0 {
		cfg.MaxRetained = 10 * cfg.BatchSize
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	d := &HTTPIndex{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.HTTPTimeout},
		log:        log.With(zap.String("component", "index_http")),
		ch:         make(chan audit.Record, 1024),
	}
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.loop()
	}()
	return d, nil
}

// Close flushes what is queued (one attempt) and stops the sender.
func (d *HTTPIndex) Close() error {
	if d == nil {
		return nil
	}
	d.once.Do(func() {
		d.closed.Store(true)
		close(d.ch)
		d.wg.Wait()
	})
	return nil
}

func (d *HTTPIndex) Record(r audit.Record) {
	if d == nil || d.closed.Load() {
		return
	}
	select {
	case d.ch <- r:
	default:
		d.dropped.Add(1)
		d.log.Warn("index queue full; record dropped", zap.String("id", r.ID))
	}
}

func (d *HTTPIndex) Stats() Stats {
	return Stats{
		QueueDepth:     len(d.ch),
		QueueCapacity:  cap(d.ch),
		WrittenTotal:   d.written.Load(),
		DropTotal:      d.dropped.Load(),
		FlushFailTotal: d.flushFail.Load(),
	}
}

func (d *HTTPIndex) loop() {
	ticker := time.NewTicker(d.cfg.FlushInterval)
	defer ticker.Stop()

	batch := make([]audit.Record, 0, d.cfg.BatchSize)
	// A failed batch is kept and retried on the next tick, up to MaxRetained.
	flush := func() {
		if len(batch) == 0 {
			return
		}
		if err := d.sendBatch(batch); err != nil {
			d.flushFail.Add(1)
			d.log.Warn("index flush failed", zap.Int("batch", len(batch)), zap.Error(err))
			if over := len(batch) - d.cfg.MaxRetained; over > 0 {
				d.dropped.Add(uint64(over))
				batch = append(batch[:0], batch[over:]...)
			}
			return
		}
		d.written.Add(uint64(len(batch)))
		batch = batch[:0]
	}

	for {
		select {
		case r, ok := <-d.ch:
			if !ok {
				flush()
				return
			}
			batch = append(batch, r)
			if len(batch) >= d.cfg.BatchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		}
	}
}

func (d *HTTPIndex) sendBatch(records []audit.Record) error {
	body := struct {
		Records []audit.Record `json:"records"`
	}{Records: records}
	buf, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, d.cfg.Endpoint, bytes.NewReader(buf))
	if err != nil {
		return err
	}
	req.Header.Set("content-type", "application/json")
	if d.cfg.Token != "" {
		req.Header.Set("authorization", "Bearer "+d.cfg.Token)
	}
	resp, err := d.httpClient.Do(req)
	if err != nil {
		return err
	}
	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 16*1024))
	_ = resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}
	return nil
}
