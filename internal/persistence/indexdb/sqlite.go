package indexdb

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"voxelagent.ai/internal/persistence/audit"
)

type SQLiteIndex struct {
	db *sql.DB

	ch   chan audit.Record
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool

	written   atomic.Uint64
	dropped   atomic.Uint64
	flushFail atomic.Uint64
}

func OpenSQLite(path string) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("indexdb: empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("indexdb: pragmas: %w", err)
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("indexdb: schema: %w", err)
	}

	s := &SQLiteIndex{
		db: db,
		ch: make(chan audit.Record, 4096),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`INSERT OR REPLACE INTO meta(key,value) VALUES('schema_version','1');`,
		`CREATE TABLE IF NOT EXISTS actions (
			id TEXT PRIMARY KEY,
			ts TEXT NOT NULL,
			agent TEXT NOT NULL,
			cycle INTEGER NOT NULL,
			phrase TEXT NOT NULL,
			verb TEXT NOT NULL,
			route TEXT NOT NULL,
			command TEXT,
			ok INTEGER NOT NULL,
			action TEXT,
			snapshot TEXT,
			error TEXT,
			raw_json TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_actions_agent_ts ON actions(agent, ts);`,
		`CREATE INDEX IF NOT EXISTS idx_actions_verb_ok ON actions(verb, ok);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

// Record queues r for the writer goroutine. It never blocks.
func (s *SQLiteIndex) Record(r audit.Record) {
	if s == nil || s.closed.Load() {
		return
	}
	select {
	case s.ch <- r:
	default:
		s.dropped.Add(1)
	}
}

func (s *SQLiteIndex) Stats() Stats {
	return Stats{
		QueueDepth:     len(s.ch),
		QueueCapacity:  cap(s.ch),
		WrittenTotal:   s.written.Load(),
		DropTotal:      s.dropped.Load(),
		FlushFailTotal: s.flushFail.Load(),
	}
}

func (s *SQLiteIndex) loop() {
	ctx := context.Background()

	insert, _ := s.db.Prepare(`INSERT OR REPLACE INTO actions(id,ts,agent,cycle,phrase,verb,route,command,ok,action,snapshot,error,raw_json) VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?)`)
	defer func() {
		if insert != nil {
			_ = insert.Close()
		}
	}()

	var (
		tx            *sql.Tx
		opCount       int
		pending       int
		lastCommit    = time.Now()
		commitEvery   = 500
		commitMaxWait = time.Second
	)

	begin := func() {
		if tx != nil {
			return
		}
		txx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			s.flushFail.Add(1)
			time.Sleep(50 * time.Millisecond)
			return
		}
		tx = txx
		opCount = 0
		lastCommit = time.Now()
	}
	commit := func() {
		if tx == nil {
			return
		}
		if err := tx.Commit(); err != nil {
			s.flushFail.Add(1)
		} else {
			s.written.Add(uint64(pending))
		}
		tx = nil
		opCount, pending = 0, 0
		lastCommit = time.Now()
	}
	rollback := func() {
		if tx == nil {
			return
		}
		_ = tx.Rollback()
		s.flushFail.Add(1)
		tx = nil
		opCount, pending = 0, 0
		lastCommit = time.Now()
	}

	// Commit when the queue drains so readers see recent rows; bursts still
	// share one transaction.
	flushIfNeeded := func() {
		if tx == nil {
			return
		}
		if len(s.ch) == 0 || opCount >= commitEvery || time.Since(lastCommit) >= commitMaxWait {
			commit()
		}
	}

	for r := range s.ch {
		begin()
		if tx == nil || insert == nil {
			continue
		}
		raw, _ := json.Marshal(r)
		ok := 0
		if r.OK {
			ok = 1
		}
		if _, err := tx.Stmt(insert).Exec(
			r.ID,
			r.Time.UTC().Format(time.RFC3339Nano),
			r.Agent,
			int64(r.Cycle),
			r.Phrase,
			verbOf(r.Phrase),
			string(r.Route),
			r.Command,
			ok,
			r.Action,
			r.Snapshot,
			r.Error,
			string(raw),
		); err != nil {
			rollback()
			continue
		}
		opCount++
		pending++
		flushIfNeeded()
	}

	commit()
}

type Query struct {
	Agent      string
	Verb       string
	FailedOnly bool
	Limit      int
}

// Recent returns matching records, newest first.
func (s *SQLiteIndex) Recent(ctx context.Context, q Query) ([]audit.Record, error) {
	return recent(ctx, s.db, q)
}

type VerbStats struct {
	Verb     string `json:"verb"`
	Total    int    `json:"total"`
	Failures int    `json:"failures"`
}

// VerbSummary counts attempts and failures per verb, most failures first.
func (s *SQLiteIndex) VerbSummary(ctx context.Context, agent string) ([]VerbStats, error) {
	return verbSummary(ctx, s.db, agent)
}

// Reader queries an index file written by another process.
type Reader struct{ db *sql.DB }

func OpenReader(path string) (*Reader, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("indexdb: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout=5000;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("indexdb: %w", err)
	}
	return &Reader{db: db}, nil
}

func (r *Reader) Recent(ctx context.Context, q Query) ([]audit.Record, error) {
	return recent(ctx, r.db, q)
}

func (r *Reader) VerbSummary(ctx context.Context, agent string) ([]VerbStats, error) {
	return verbSummary(ctx, r.db, agent)
}

func (r *Reader) Close() error { return r.db.Close() }

func recent(ctx context.Context, db *sql.DB, q Query) ([]audit.Record, error) {
	if q.Limit <= 0 {
		q.Limit = 50
	}
	query := `SELECT raw_json FROM actions WHERE 1=1`
	var args []any
	if q.Agent != "" {
		query += ` AND agent=?`
		args = append(args, q.Agent)
	}
	if q.Verb != "" {
		query += ` AND verb=?`
		args = append(args, verbOf(q.Verb))
	}
	if q.FailedOnly {
		query += ` AND ok=0`
	}
	query += ` ORDER BY ts DESC, cycle DESC LIMIT ?`
	args = append(args, q.Limit)

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("indexdb: query: %w", err)
	}
	defer rows.Close()
	var out []audit.Record
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var r audit.Record
		if err := json.Unmarshal([]byte(raw), &r); err != nil {
			return nil, fmt.Errorf("indexdb: decode row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func verbSummary(ctx context.Context, db *sql.DB, agent string) ([]VerbStats, error) {
	query := `SELECT verb, COUNT(*), SUM(CASE WHEN ok=0 THEN 1 ELSE 0 END) FROM actions`
	var args []any
	if agent != "" {
		query += ` WHERE agent=?`
		args = append(args, agent)
	}
	query += ` GROUP BY verb ORDER BY 3 DESC, 2 DESC, verb ASC`
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("indexdb: query: %w", err)
	}
	defer rows.Close()
	var out []VerbStats
	for rows.Next() {
		var v VerbStats
		if err := rows.Scan(&v.Verb, &v.Total, &v.Failures); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
